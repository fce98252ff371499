package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wandergames/tourquest/internal/tourquest"
)

// fullCard builds a 3x3 card with challenge ids "r<row>c<col>".
func fullCard() []tourquest.BingoCell {
	var cells []tourquest.BingoCell
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			cells = append(cells, tourquest.BingoCell{
				Row: r, Col: c, ChallengeID: fmt.Sprintf("r%dc%d", r, c),
			})
		}
	}
	return cells
}

func completedSet(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

func TestCheckBingo_RowAwardedOnce(t *testing.T) {
	cells := fullCard()
	done := completedSet("r0c0", "r0c1", "r0c2")

	res := CheckBingo(cells, nil, done)
	assert.Equal(t, []string{"row-0"}, res.NewLines)
	assert.False(t, res.FullHouse)

	// Same state with the line already awarded: nothing new.
	res = CheckBingo(cells, map[string]bool{"row-0": true}, done)
	assert.Empty(t, res.NewLines)
	assert.False(t, res.FullHouse)
}

func TestCheckBingo_ColumnAndDiagonals(t *testing.T) {
	cells := fullCard()

	res := CheckBingo(cells, nil, completedSet("r0c1", "r1c1", "r2c1"))
	assert.Equal(t, []string{"col-1"}, res.NewLines)

	res = CheckBingo(cells, nil, completedSet("r0c0", "r1c1", "r2c2"))
	assert.Equal(t, []string{"diag-1"}, res.NewLines)

	res = CheckBingo(cells, nil, completedSet("r0c2", "r1c1", "r2c0"))
	assert.Equal(t, []string{"diag-2"}, res.NewLines)
}

func TestCheckBingo_MultipleNewLines(t *testing.T) {
	cells := fullCard()
	// Row 0 plus col 0 complete; they share r0c0.
	done := completedSet("r0c0", "r0c1", "r0c2", "r1c0", "r2c0")

	res := CheckBingo(cells, nil, done)
	assert.ElementsMatch(t, []string{"row-0", "col-0"}, res.NewLines)
}

func TestCheckBingo_FullHouse(t *testing.T) {
	cells := fullCard()
	done := completedSet(
		"r0c0", "r0c1", "r0c2",
		"r1c0", "r1c1", "r1c2",
		"r2c0", "r2c1", "r2c2",
	)

	// Full house is independent of previously awarded lines.
	awarded := map[string]bool{
		"row-0": true, "row-1": true, "row-2": true,
		"col-0": true, "col-1": true, "col-2": true,
		"diag-1": true, "diag-2": true,
	}
	res := CheckBingo(cells, awarded, done)
	assert.Empty(t, res.NewLines)
	assert.True(t, res.FullHouse)
}

func TestCheckBingo_MissingCells(t *testing.T) {
	// Only row 0 present on a malformed card.
	cells := fullCard()[:3]
	done := completedSet("r0c0", "r0c1", "r0c2")

	res := CheckBingo(cells, nil, done)
	assert.Equal(t, []string{"row-0"}, res.NewLines)
	// Fewer than nine cells can never be a full house.
	assert.False(t, res.FullHouse)
}

func TestCheckBingo_EmptyCard(t *testing.T) {
	res := CheckBingo(nil, nil, completedSet("x"))
	assert.Empty(t, res.NewLines)
	assert.False(t, res.FullHouse)
}

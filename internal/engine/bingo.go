package engine

import "github.com/wandergames/tourquest/internal/tourquest"

// Line ids in the order they are checked.
var bingoLines = []struct {
	id    string
	cells [3][2]int // row, col
}{
	{"row-0", [3][2]int{{0, 0}, {0, 1}, {0, 2}}},
	{"row-1", [3][2]int{{1, 0}, {1, 1}, {1, 2}}},
	{"row-2", [3][2]int{{2, 0}, {2, 1}, {2, 2}}},
	{"col-0", [3][2]int{{0, 0}, {1, 0}, {2, 0}}},
	{"col-1", [3][2]int{{0, 1}, {1, 1}, {2, 1}}},
	{"col-2", [3][2]int{{0, 2}, {1, 2}, {2, 2}}},
	{"diag-1", [3][2]int{{0, 0}, {1, 1}, {2, 2}}},
	{"diag-2", [3][2]int{{0, 2}, {1, 1}, {2, 0}}},
}

// BingoResult reports what a CheckBingo call newly discovered.
type BingoResult struct {
	NewLines  []string
	FullHouse bool
}

// CheckBingo tests the card's lines against the completed-challenge set.
// Lines already present in awarded are skipped, so repeated calls only
// report lines completed since the last check. FullHouse is recomputed
// fresh on every call — it is true iff all nine cells exist and are
// completed, regardless of awarded. The caller owns merging NewLines into
// the persisted card and awarding full house exactly once.
//
// A malformed card (fewer than nine cells, duplicate positions) never
// panics: lines with missing members simply don't award, and full house is
// false unless exactly nine cells are supplied.
func CheckBingo(cells []tourquest.BingoCell, awarded map[string]bool, completed map[string]bool) BingoResult {
	grid := make(map[[2]int]tourquest.BingoCell, len(cells))
	for _, c := range cells {
		grid[[2]int{c.Row, c.Col}] = c
	}

	var res BingoResult
	for _, line := range bingoLines {
		if awarded[line.id] {
			continue
		}
		done := true
		for _, pos := range line.cells {
			cell, ok := grid[pos]
			if !ok || !completed[cell.ChallengeID] {
				done = false
				break
			}
		}
		if done {
			res.NewLines = append(res.NewLines, line.id)
		}
	}

	if len(cells) == 9 {
		res.FullHouse = true
		for _, c := range cells {
			if !completed[c.ChallengeID] {
				res.FullHouse = false
				break
			}
		}
	}
	return res
}

// Package tourquest defines the core domain types and enums.
// It has zero external dependencies — everything here is pure Go.
package tourquest

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ChallengeType is the closed set of challenge kinds. Values arriving from
// the wire go through ParseChallengeType exactly once; everything past that
// boundary works with the canonical constants.
type ChallengeType string

const (
	ChallengeLocation  ChallengeType = "LOCATION"
	ChallengeTrivia    ChallengeType = "TRIVIA"
	ChallengePicture   ChallengeType = "PICTURE"
	ChallengeTrueFalse ChallengeType = "TRUE_FALSE"
	ChallengeDare      ChallengeType = "DARE"
	ChallengeRiddle    ChallengeType = "RIDDLE"
	ChallengeCheckIn   ChallengeType = "CHECK_IN"
)

// ParseChallengeType normalizes a raw type string to its canonical constant.
func ParseChallengeType(raw string) (ChallengeType, error) {
	t := ChallengeType(strings.ToUpper(strings.TrimSpace(raw)))
	switch t {
	case ChallengeLocation, ChallengeTrivia, ChallengePicture,
		ChallengeTrueFalse, ChallengeDare, ChallengeRiddle, ChallengeCheckIn:
		return t, nil
	}
	return "", fmt.Errorf("unknown challenge type %q", raw)
}

type Challenge struct {
	ID      string        `json:"id"`
	TourID  string        `json:"tourId"`
	StopID  string        `json:"stopId,omitempty"` // empty = tour-wide bonus challenge
	Type    ChallengeType `json:"type"`
	Points  int           `json:"points"`
	Content string        `json:"content"`
	Answer  string        `json:"answer,omitempty"`
	Options []string      `json:"options,omitempty"`
	Hint    string        `json:"hint,omitempty"`
}

type Stop struct {
	ID         string      `json:"id"`
	TourID     string      `json:"tourId"`
	Number     int         `json:"number"`
	Name       string      `json:"name"`
	Challenges []Challenge `json:"challenges"`

	// Pub-golf metadata, only set on pub-golf tours.
	Par   int    `json:"par,omitempty"`
	Drink string `json:"drink,omitempty"`
}

// Tour is the immutable template an ActiveTour is played against.
type Tour struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	City       string      `json:"city"`
	BingoMode  bool        `json:"bingoMode"`
	Stops      []Stop      `json:"stops"`
	Challenges []Challenge `json:"challenges"` // tour-wide bonus challenges
	CreatedAt  time.Time   `json:"createdAt"`
}

// ChallengeSequence returns every stop-scoped challenge in tour order:
// stops by number, challenges within a stop in their stored order. Bonus
// challenges are not part of the sequence.
func (t Tour) ChallengeSequence() []Challenge {
	stops := slices.Clone(t.Stops)
	slices.SortStableFunc(stops, func(a, b Stop) int { return a.Number - b.Number })

	var seq []Challenge
	for _, s := range stops {
		seq = append(seq, s.Challenges...)
	}
	return seq
}

// ChallengeByID looks up a challenge anywhere in the tour, including bonus
// challenges.
func (t Tour) ChallengeByID(id string) (Challenge, bool) {
	for _, s := range t.Stops {
		for _, c := range s.Challenges {
			if c.ID == id {
				return c, true
			}
		}
	}
	for _, c := range t.Challenges {
		if c.ID == id {
			return c, true
		}
	}
	return Challenge{}, false
}

type TourStatus string

const (
	StatusActive    TourStatus = "ACTIVE"
	StatusFinished  TourStatus = "FINISHED"
	StatusAbandoned TourStatus = "ABANDONED"
)

// ChallengeAttempt records one team's outcome for one challenge within one
// active tour. Completed and failed are mutually exclusive; once either is
// set the attempt is immutable.
type ChallengeAttempt struct {
	ChallengeID string `json:"challengeId"`
	Completed   bool   `json:"completed"`
	Failed      bool   `json:"failed"`
}

// Resolved reports whether the attempt has reached a terminal state.
func (a ChallengeAttempt) Resolved() bool {
	return a.Completed || a.Failed
}

type Team struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	JoinToken string `json:"joinToken,omitempty"`
}

// ActiveTour is one team-attempt at a Tour template. The tour template is
// embedded so derived state (progress, current stop, bingo) can be computed
// without a second fetch.
type ActiveTour struct {
	ID               string             `json:"id"`
	TourID           string             `json:"tourId"`
	Status           TourStatus         `json:"status"`
	CurrentStop      int                `json:"currentStop"`
	ActiveChallenges []ChallengeAttempt `json:"activeChallenges"`
	Tour             Tour               `json:"tour"`
	Teams            []Team             `json:"teams,omitempty"`
	StartedAt        time.Time          `json:"startedAt"`
}

// AttemptFor returns the attempt for the given challenge, if one exists.
func (at ActiveTour) AttemptFor(challengeID string) (ChallengeAttempt, bool) {
	for _, a := range at.ActiveChallenges {
		if a.ChallengeID == challengeID {
			return a, true
		}
	}
	return ChallengeAttempt{}, false
}

// BingoCell ties one grid position to a challenge.
type BingoCell struct {
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	ChallengeID string `json:"challengeId"`
}

// BingoCard is a team's 3x3 grid. AwardedLines holds line ids already
// credited ("row-0".."row-2", "col-0".."col-2", "diag-1", "diag-2").
type BingoCard struct {
	ID               string      `json:"id"`
	TeamID           string      `json:"teamId"`
	ActiveTourID     string      `json:"activeTourId"`
	Cells            []BingoCell `json:"cells"`
	AwardedLines     []string    `json:"awardedLines"`
	FullHouseAwarded bool        `json:"fullHouseAwarded"`
}

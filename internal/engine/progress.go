package engine

import "github.com/wandergames/tourquest/internal/tourquest"

// Progress is the derived view of a team's attempts. CompletedIDs and
// FailedIDs are disjoint; if the source records ever disagree, completed
// wins.
type Progress struct {
	CompletedIDs map[string]bool
	FailedIDs    map[string]bool
	TotalPoints  int
	Streak       int
}

// Aggregate derives progress from the raw attempt list. It is a pure
// function of the active tour: re-running it on unchanged input yields an
// identical result.
//
// TotalPoints sums points over completed challenges only; failures score
// zero. Streak walks the tour's challenge sequence from the start, counting
// consecutive completions. A failure resets the count to zero and the walk
// continues; the first untouched challenge ends the walk — challenges after
// it never count, even if completed.
func Aggregate(at tourquest.ActiveTour) Progress {
	p := Progress{
		CompletedIDs: make(map[string]bool),
		FailedIDs:    make(map[string]bool),
	}

	for _, a := range at.ActiveChallenges {
		switch {
		case a.Completed:
			p.CompletedIDs[a.ChallengeID] = true
			delete(p.FailedIDs, a.ChallengeID)
		case a.Failed:
			if !p.CompletedIDs[a.ChallengeID] {
				p.FailedIDs[a.ChallengeID] = true
			}
		}
	}

	for id := range p.CompletedIDs {
		if c, ok := at.Tour.ChallengeByID(id); ok {
			p.TotalPoints += c.Points
		}
	}

	for _, c := range at.Tour.ChallengeSequence() {
		switch {
		case p.CompletedIDs[c.ID]:
			p.Streak++
		case p.FailedIDs[c.ID]:
			p.Streak = 0
		default:
			return p
		}
	}
	return p
}

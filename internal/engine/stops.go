package engine

import "github.com/wandergames/tourquest/internal/tourquest"

// CurrentStopIndex returns the index of the first stop that still has an
// unresolved challenge. A stop with no challenges is vacuously resolved, so
// the walk skips past it. If every stop is resolved the last index is
// returned; a tour with no stops yields 0.
func CurrentStopIndex(tour tourquest.Tour, p Progress) int {
	if len(tour.Stops) == 0 {
		return 0
	}
	for i, s := range tour.Stops {
		for _, c := range s.Challenges {
			if !p.CompletedIDs[c.ID] && !p.FailedIDs[c.ID] {
				return i
			}
		}
	}
	return len(tour.Stops) - 1
}

// NextStop advances by exactly one stop. At the last stop it is a no-op.
func NextStop(current, numStops int) int {
	if current < numStops-1 {
		return current + 1
	}
	return current
}

// PreviousStop steps back by exactly one stop. At the first stop it is a
// no-op.
func PreviousStop(current int) int {
	if current > 0 {
		return current - 1
	}
	return current
}

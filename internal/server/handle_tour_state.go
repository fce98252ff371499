package server

import (
	"errors"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/wandergames/tourquest/internal/engine"
	"github.com/wandergames/tourquest/internal/tourquest"
)

// ProgressInfo is the server-derived progress block included with the
// active-tour record, so clients don't have to re-derive it to render a
// scoreboard.
type ProgressInfo struct {
	CompletedIDs     []string `json:"completedIds"`
	FailedIDs        []string `json:"failedIds"`
	TotalPoints      int      `json:"totalPoints"`
	Streak           int      `json:"streak"`
	CurrentStopIndex int      `json:"currentStopIndex"`
}

// ActiveTourResponse is the full record plus derived progress.
type ActiveTourResponse struct {
	tourquest.ActiveTour
	Progress ProgressInfo `json:"progress"`
}

func progressInfo(at tourquest.ActiveTour) ProgressInfo {
	p := engine.Aggregate(at)
	info := ProgressInfo{
		CompletedIDs:     make([]string, 0, len(p.CompletedIDs)),
		FailedIDs:        make([]string, 0, len(p.FailedIDs)),
		TotalPoints:      p.TotalPoints,
		Streak:           p.Streak,
		CurrentStopIndex: engine.CurrentStopIndex(at.Tour, p),
	}
	for id := range p.CompletedIDs {
		info.CompletedIDs = append(info.CompletedIDs, id)
	}
	for id := range p.FailedIDs {
		info.FailedIDs = append(info.FailedIDs, id)
	}
	// Map iteration order is random; keep the response stable.
	slices.Sort(info.CompletedIDs)
	slices.Sort(info.FailedIDs)
	return info
}

func handleTourState(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeTourID := chi.URLParam(r, "activeTourID")

		if _, err := tourSessionFromRequest(r, store, activeTourID); err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "active tour not found")
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		at, err := store.ActiveTour(r.Context(), activeTourID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "active tour not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, ActiveTourResponse{
			ActiveTour: at,
			Progress:   progressInfo(at),
		})
	}
}

package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wandergames/tourquest/internal/tourquest"
)

// handleFinishTour marks the tour FINISHED. Finishing an already-finished
// tour is a no-op returning the record, so a replayed finish action from
// the offline queue never errors.
func handleFinishTour(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeTourID := chi.URLParam(r, "activeTourID")

		at, ok := loadTourForUpdate(w, r, store, activeTourID)
		if !ok {
			return
		}

		switch at.Status {
		case tourquest.StatusFinished:
			writeJSON(w, http.StatusOK, at)
			return
		case tourquest.StatusAbandoned:
			writeError(w, http.StatusConflict, "tour was abandoned")
			return
		}

		if err := store.SetTourStatus(r.Context(), activeTourID, tourquest.StatusFinished); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		at.Status = tourquest.StatusFinished

		broker.Publish(activeTourID, Event{Type: eventTourFinished})
		writeJSON(w, http.StatusOK, at)
	}
}

// handleAbandonTour marks the tour ABANDONED. Abandoning a finished tour is
// rejected; abandoning twice is a no-op.
func handleAbandonTour(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeTourID := chi.URLParam(r, "activeTourID")

		at, ok := loadTourForUpdate(w, r, store, activeTourID)
		if !ok {
			return
		}

		switch at.Status {
		case tourquest.StatusAbandoned:
			writeJSON(w, http.StatusOK, at)
			return
		case tourquest.StatusFinished:
			writeError(w, http.StatusConflict, "tour already finished")
			return
		}

		if err := store.SetTourStatus(r.Context(), activeTourID, tourquest.StatusAbandoned); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		at.Status = tourquest.StatusAbandoned
		writeJSON(w, http.StatusOK, at)
	}
}

// UpdateStopRequest is the body for POST .../stop.
type UpdateStopRequest struct {
	StopIndex int `json:"stopIndex"`
}

func handleUpdateStop(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeTourID := chi.URLParam(r, "activeTourID")

		at, ok := loadTourForUpdate(w, r, store, activeTourID)
		if !ok {
			return
		}

		var req UpdateStopRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.StopIndex < 0 || req.StopIndex >= len(at.Tour.Stops) {
			writeError(w, http.StatusBadRequest, "stopIndex out of range")
			return
		}
		if at.Status != tourquest.StatusActive {
			writeError(w, http.StatusConflict, "tour is not active")
			return
		}

		if err := store.UpdateCurrentStop(r.Context(), activeTourID, req.StopIndex); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		broker.Publish(activeTourID, Event{
			Type:      eventStopAdvanced,
			StopIndex: req.StopIndex,
		})
		writeJSON(w, http.StatusOK, map[string]int{"currentStop": req.StopIndex})
	}
}

// PubGolfRequest is the body for POST .../pubgolf.
type PubGolfRequest struct {
	StopID string `json:"stopId"`
	Sips   int    `json:"sips"`
}

func handlePubGolfScore(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeTourID := chi.URLParam(r, "activeTourID")

		at, ok := loadTourForUpdate(w, r, store, activeTourID)
		if !ok {
			return
		}

		var req PubGolfRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Sips < 1 {
			writeError(w, http.StatusBadRequest, "sips must be at least 1")
			return
		}
		known := false
		for _, stop := range at.Tour.Stops {
			if stop.ID == req.StopID {
				known = true
				break
			}
		}
		if !known {
			writeError(w, http.StatusBadRequest, "stop does not belong to this tour")
			return
		}

		if err := store.RecordPubGolfScore(r.Context(), activeTourID, req.StopID, req.Sips); err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "recorded"})
	}
}

// loadTourForUpdate authenticates the caller against the tour in the URL
// and loads the record, writing the error response itself on failure.
func loadTourForUpdate(w http.ResponseWriter, r *http.Request, store Store, activeTourID string) (tourquest.ActiveTour, bool) {
	if _, err := tourSessionFromRequest(r, store, activeTourID); err != nil {
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "active tour not found")
			return tourquest.ActiveTour{}, false
		}
		writeError(w, http.StatusUnauthorized, "invalid or missing session token")
		return tourquest.ActiveTour{}, false
	}

	at, err := store.ActiveTour(r.Context(), activeTourID)
	if errors.Is(err, ErrNotFound) {
		writeError(w, http.StatusNotFound, "active tour not found")
		return tourquest.ActiveTour{}, false
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return tourquest.ActiveTour{}, false
	}
	return at, true
}

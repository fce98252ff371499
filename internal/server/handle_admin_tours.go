package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/wandergames/tourquest/internal/tourquest"
)

// AdminChallengeRequest describes one challenge in a tour template.
type AdminChallengeRequest struct {
	Type    string   `json:"type"`
	Points  int      `json:"points"`
	Content string   `json:"content"`
	Answer  string   `json:"answer,omitempty"`
	Options []string `json:"options,omitempty"`
	Hint    string   `json:"hint,omitempty"`
}

// AdminStopRequest describes one stop in a tour template.
type AdminStopRequest struct {
	Name       string                  `json:"name"`
	Par        int                     `json:"par,omitempty"`
	Drink      string                  `json:"drink,omitempty"`
	Challenges []AdminChallengeRequest `json:"challenges"`
}

// AdminTourRequest is the request body for POST /api/admin/tours.
type AdminTourRequest struct {
	Name            string                  `json:"name"`
	City            string                  `json:"city"`
	BingoMode       bool                    `json:"bingoMode"`
	Stops           []AdminStopRequest      `json:"stops"`
	BonusChallenges []AdminChallengeRequest `json:"bonusChallenges,omitempty"`
}

func handleAdminListTours(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		tours, err := store.ListTours(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		if tours == nil {
			tours = []TourSummary{}
		}
		writeJSON(w, http.StatusOK, tours)
	}
}

func handleAdminCreateTour(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req AdminTourRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
		if len(req.Stops) == 0 {
			writeError(w, http.StatusBadRequest, "at least one stop is required")
			return
		}

		tour, err := tourFromRequest(req)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		created, err := store.CreateTour(r.Context(), tour)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

// tourFromRequest validates challenge types at the ingestion boundary; past
// this point every type is a canonical constant.
func tourFromRequest(req AdminTourRequest) (tourquest.Tour, error) {
	tour := tourquest.Tour{
		Name:      req.Name,
		City:      req.City,
		BingoMode: req.BingoMode,
	}
	convert := func(in AdminChallengeRequest) (tourquest.Challenge, error) {
		ct, err := tourquest.ParseChallengeType(in.Type)
		if err != nil {
			return tourquest.Challenge{}, err
		}
		return tourquest.Challenge{
			Type:    ct,
			Points:  in.Points,
			Content: in.Content,
			Answer:  in.Answer,
			Options: in.Options,
			Hint:    in.Hint,
		}, nil
	}

	for _, s := range req.Stops {
		stop := tourquest.Stop{
			Name:  strings.TrimSpace(s.Name),
			Par:   s.Par,
			Drink: s.Drink,
		}
		for _, c := range s.Challenges {
			challenge, err := convert(c)
			if err != nil {
				return tour, err
			}
			stop.Challenges = append(stop.Challenges, challenge)
		}
		tour.Stops = append(tour.Stops, stop)
	}
	for _, c := range req.BonusChallenges {
		challenge, err := convert(c)
		if err != nil {
			return tour, err
		}
		tour.Challenges = append(tour.Challenges, challenge)
	}
	return tour, nil
}

// AdminActiveTourRequest is the request body for POST /api/admin/active-tours.
type AdminActiveTourRequest struct {
	TourID    string   `json:"tourId"`
	TeamNames []string `json:"teamNames"`
}

func handleAdminCreateActiveTour(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, err := adminFromRequest(r, store); err != nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}

		var req AdminActiveTourRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.TourID == "" || len(req.TeamNames) == 0 {
			writeError(w, http.StatusBadRequest, "tourId and teamNames are required")
			return
		}

		at, err := store.CreateActiveTour(r.Context(), req.TourID, req.TeamNames)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "tour not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusCreated, at)
	}
}

package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func handleBingoCard(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeTourID := chi.URLParam(r, "activeTourID")

		sess, err := tourSessionFromRequest(r, store, activeTourID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "active tour not found")
				return
			}
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		card, err := store.BingoCard(r.Context(), activeTourID, sess.TeamID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "no bingo card for this tour")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, card)
	}
}

package server

import (
	"net/http"
	"strings"
)

// sessionFromRequest resolves the Bearer token to a team session.
func sessionFromRequest(r *http.Request, store Store) (teamSession, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return teamSession{}, errNoSession
	}
	return store.SessionFromToken(r.Context(), token)
}

// tourSessionFromRequest additionally checks that the session belongs to
// the active tour named in the URL. A token for a different tour gets the
// same 404 as a missing tour, not a 403, to avoid leaking tour ids.
func tourSessionFromRequest(r *http.Request, store Store, activeTourID string) (teamSession, error) {
	sess, err := sessionFromRequest(r, store)
	if err != nil {
		return sess, err
	}
	if sess.ActiveTourID != activeTourID {
		return sess, ErrNotFound
	}
	return sess, nil
}

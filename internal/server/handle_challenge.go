package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wandergames/tourquest/internal/engine"
	"github.com/wandergames/tourquest/internal/tourquest"
)

// handleCompleteChallenge records a completion. The call is idempotent: an
// already-resolved attempt is returned unchanged with 200, so retried sync
// actions after a crash never error.
func handleCompleteChallenge(logger *slog.Logger, store Store, broker *Broker) http.HandlerFunc {
	return handleResolveChallenge(logger, store, broker, true)
}

// handleFailChallenge records a failure with the same idempotency rules.
func handleFailChallenge(logger *slog.Logger, store Store, broker *Broker) http.HandlerFunc {
	return handleResolveChallenge(logger, store, broker, false)
}

func handleResolveChallenge(logger *slog.Logger, store Store, broker *Broker, completed bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		activeTourID := chi.URLParam(r, "activeTourID")
		challengeID := chi.URLParam(r, "challengeID")

		sess, err := tourSessionFromRequest(r, store, activeTourID)
		if err != nil {
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

		if at.Status != tourquest.StatusActive {
			writeError(w, http.StatusConflict, "tour is not active")
			return
		}

		challenge, ok := at.Tour.ChallengeByID(challengeID)
		if !ok {
			writeError(w, http.StatusBadRequest, "challenge does not belong to this tour")
			return
		}

		attempt, newly, err := store.ResolveAttempt(r.Context(), activeTourID, challengeID, completed)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		if newly {
			if attempt.Completed {
				broker.Publish(activeTourID, Event{
					Type:        eventChallengeCompleted,
					ChallengeID: challengeID,
					TeamName:    sess.TeamName,
					Points:      challenge.Points,
				})
				if at.Tour.BingoMode {
					awardBingo(r.Context(), logger, store, broker, at, sess, challengeID)
				}
			} else {
				broker.Publish(activeTourID, Event{
					Type:        eventChallengeFailed,
					ChallengeID: challengeID,
					TeamName:    sess.TeamName,
				})
			}
		}

		writeJSON(w, http.StatusOK, attempt)
	}
}

// awardBingo re-checks the team's card after a completion and persists any
// newly finished lines. Full house is credited exactly once. Bingo failures
// are logged, never surfaced — the completion itself already succeeded.
func awardBingo(ctx context.Context, logger *slog.Logger, store Store, broker *Broker, at tourquest.ActiveTour, sess teamSession, challengeID string) {
	card, err := store.BingoCard(ctx, at.ID, sess.TeamID)
	if errors.Is(err, ErrNotFound) {
		return
	}
	if err != nil {
		logger.Error("loading bingo card", "active_tour_id", at.ID, "team_id", sess.TeamID, "error", err)
		return
	}

	// The attempt list predates this completion; include it.
	at.ActiveChallenges = append(at.ActiveChallenges, tourquest.ChallengeAttempt{
		ChallengeID: challengeID,
		Completed:   true,
	})
	progress := engine.Aggregate(at)

	awarded := make(map[string]bool, len(card.AwardedLines))
	for _, line := range card.AwardedLines {
		awarded[line] = true
	}

	res := engine.CheckBingo(card.Cells, awarded, progress.CompletedIDs)
	newFullHouse := res.FullHouse && !card.FullHouseAwarded
	if len(res.NewLines) == 0 && !newFullHouse {
		return
	}

	if err := store.SaveBingoAwards(ctx, card.ID, res.NewLines, res.FullHouse); err != nil {
		logger.Error("saving bingo awards", "card_id", card.ID, "error", err)
		return
	}

	for _, line := range res.NewLines {
		broker.Publish(at.ID, Event{
			Type:     eventBingoLine,
			Line:     line,
			TeamName: sess.TeamName,
		})
	}
	if newFullHouse {
		broker.Publish(at.ID, Event{
			Type:     eventBingoFullHouse,
			TeamName: sess.TeamName,
		})
	}
}

// Package session ties the engine, the remote client, and the offline queue
// together into the command surface a UI calls directly: submit a challenge,
// move between stops, record pub-golf sips, finish or abandon the tour.
//
// State is two-layered: the last server-confirmed active-tour record, with
// local optimistic attempts applied on top. On refresh the server record
// wins and pending queue entries are replayed over it, never over a stale
// cached copy.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/wandergames/tourquest/internal/engine"
	"github.com/wandergames/tourquest/internal/offline"
	"github.com/wandergames/tourquest/internal/tourapi"
	"github.com/wandergames/tourquest/internal/tourquest"
)

// Remote is the full service client surface the session needs.
// *tourapi.Client satisfies it.
type Remote interface {
	offline.Remote
	GetActiveTour(ctx context.Context, activeTourID string) (tourquest.ActiveTour, error)
	AbandonTour(ctx context.Context, activeTourID string) (tourquest.ActiveTour, error)
}

// ErrUnknownChallenge is returned by Submit for a challenge id that does
// not exist in the tour.
var ErrUnknownChallenge = errors.New("challenge not in tour")

// Session is one authenticated team's live view of an active tour. One
// instance per session — no package-level state, so tests run isolated
// sessions in parallel.
type Session struct {
	remote  Remote
	queue   *offline.Queue
	syncer  *offline.Syncer
	storage offline.Storage
	logger  *slog.Logger

	mu   sync.Mutex
	tour tourquest.ActiveTour
}

func New(remote Remote, storage offline.Storage, logger *slog.Logger) *Session {
	queue := offline.OpenQueue(storage)
	return &Session{
		remote:  remote,
		queue:   queue,
		syncer:  offline.NewSyncer(queue, remote, logger),
		storage: storage,
		logger:  logger,
	}
}

// Load fetches the active tour from the service. If the fetch fails
// transiently, the last persisted snapshot is used instead so the tour
// stays readable offline. Pending queued actions are replayed on top of
// whichever record won.
func (s *Session) Load(ctx context.Context, activeTourID string) error {
	at, err := s.remote.GetActiveTour(ctx, activeTourID)
	if err != nil {
		if tourapi.IsPermanent(err) {
			return err
		}
		s.logger.Info("fetch failed, loading snapshot", "active_tour_id", activeTourID, "error", err)
		at, err = s.loadSnapshot(ctx, activeTourID)
		if err != nil {
			return fmt.Errorf("no usable active tour record: %w", err)
		}
	} else {
		s.saveSnapshot(ctx, at)
	}

	at, err = s.applyPending(ctx, at)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tour = at
	s.mu.Unlock()
	return nil
}

// Refresh refetches the current tour; the server record wins.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	id := s.tour.ID
	s.mu.Unlock()
	if id == "" {
		return errors.New("no active tour loaded")
	}
	return s.Load(ctx, id)
}

func (s *Session) loadSnapshot(ctx context.Context, activeTourID string) (tourquest.ActiveTour, error) {
	blob, err := s.storage.Get(ctx, offline.SnapshotKey(activeTourID))
	if err != nil {
		return tourquest.ActiveTour{}, err
	}
	var at tourquest.ActiveTour
	if err := json.Unmarshal(blob, &at); err != nil {
		return tourquest.ActiveTour{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	return at, nil
}

func (s *Session) saveSnapshot(ctx context.Context, at tourquest.ActiveTour) {
	blob, err := json.Marshal(at)
	if err == nil {
		err = s.storage.Set(ctx, offline.SnapshotKey(at.ID), blob)
	}
	if err != nil {
		s.logger.Warn("persisting snapshot failed", "active_tour_id", at.ID, "error", err)
	}
}

// applyPending replays queued complete/fail/stop actions onto a fresh
// server record, reconstructing the optimistic overlay.
func (s *Session) applyPending(ctx context.Context, at tourquest.ActiveTour) (tourquest.ActiveTour, error) {
	actions, err := s.queue.Pending(ctx)
	if err != nil {
		return at, fmt.Errorf("loading pending actions: %w", err)
	}
	for _, a := range actions {
		if a.ActiveTourID != at.ID {
			continue
		}
		switch a.Type {
		case offline.ActionCompleteChallenge, offline.ActionFailChallenge:
			var p offline.ChallengePayload
			if json.Unmarshal(a.Payload, &p) != nil {
				continue
			}
			at = withAttempt(at, p.ChallengeID, a.Type == offline.ActionCompleteChallenge)
		case offline.ActionUpdateCurrentStop:
			var p offline.StopPayload
			if json.Unmarshal(a.Payload, &p) == nil {
				at.CurrentStop = p.StopIndex
			}
		case offline.ActionFinishTour:
			at.Status = tourquest.StatusFinished
		}
	}
	return at, nil
}

// withAttempt records an optimistic outcome, respecting attempt
// immutability: an already-resolved attempt is left untouched.
func withAttempt(at tourquest.ActiveTour, challengeID string, completed bool) tourquest.ActiveTour {
	for _, a := range at.ActiveChallenges {
		if a.ChallengeID == challengeID && a.Resolved() {
			return at
		}
	}
	at.ActiveChallenges = append(at.ActiveChallenges, tourquest.ChallengeAttempt{
		ChallengeID: challengeID,
		Completed:   completed,
		Failed:      !completed,
	})
	return at
}

// ActiveTour returns the current optimistic view of the tour.
func (s *Session) ActiveTour() tourquest.ActiveTour {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tour
}

// Progress derives completed/failed sets, points, and streak from the
// optimistic view.
func (s *Session) Progress() engine.Progress {
	return engine.Aggregate(s.ActiveTour())
}

// CurrentStopIndex derives the current stop from per-stop completion.
func (s *Session) CurrentStopIndex() int {
	at := s.ActiveTour()
	return engine.CurrentStopIndex(at.Tour, engine.Aggregate(at))
}

// Submit evaluates the input against the challenge and records the outcome,
// optimistically first, then remotely — or queued if the service is
// unreachable. Submitting an already-resolved challenge is a no-op that
// returns the stored outcome.
func (s *Session) Submit(ctx context.Context, challengeID, input string) (engine.Outcome, error) {
	s.mu.Lock()
	challenge, ok := s.tour.Tour.ChallengeByID(challengeID)
	if !ok {
		s.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrUnknownChallenge, challengeID)
	}
	if prev, ok := s.tour.AttemptFor(challengeID); ok && prev.Resolved() {
		s.mu.Unlock()
		if prev.Completed {
			return engine.OutcomeCompleted, nil
		}
		return engine.OutcomeFailed, nil
	}
	s.mu.Unlock()

	outcome, err := engine.Evaluate(challenge, input)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.tour = withAttempt(s.tour, challengeID, outcome == engine.OutcomeCompleted)
	tour := s.tour
	s.mu.Unlock()
	s.saveSnapshot(ctx, tour)

	actionType := offline.ActionCompleteChallenge
	call := func() error {
		_, err := s.remote.CompleteChallenge(ctx, tour.ID, challengeID)
		return err
	}
	if outcome == engine.OutcomeFailed {
		actionType = offline.ActionFailChallenge
		call = func() error {
			_, err := s.remote.FailChallenge(ctx, tour.ID, challengeID)
			return err
		}
	}

	payload, _ := json.Marshal(offline.ChallengePayload{ChallengeID: challengeID})
	if err := s.sendOrEnqueue(ctx, actionType, payload, call); err != nil {
		return "", err
	}
	return outcome, nil
}

// sendOrEnqueue tries the remote call once. A transient failure queues the
// action for a later drain and reports success — the optimistic state
// stands. A permanent rejection is surfaced to the caller and never queued.
func (s *Session) sendOrEnqueue(ctx context.Context, typ offline.ActionType, payload json.RawMessage, call func() error) error {
	err := call()
	if err == nil {
		return nil
	}
	if tourapi.IsPermanent(err) {
		return err
	}

	_, qerr := s.queue.Enqueue(ctx, offline.Action{
		Type:         typ,
		Payload:      payload,
		ActiveTourID: s.ActiveTour().ID,
	})
	if qerr != nil {
		return fmt.Errorf("queueing %s after transient failure: %w", typ, qerr)
	}
	s.logger.Info("action queued for sync", "type", string(typ), "error", err)
	return nil
}

// AdvanceStop moves to the next stop; at the last stop it is a no-op.
func (s *Session) AdvanceStop(ctx context.Context) (int, error) {
	s.mu.Lock()
	next := engine.NextStop(s.tour.CurrentStop, len(s.tour.Tour.Stops))
	changed := next != s.tour.CurrentStop
	s.tour.CurrentStop = next
	tour := s.tour
	s.mu.Unlock()

	if !changed {
		return next, nil
	}
	s.saveSnapshot(ctx, tour)

	payload, _ := json.Marshal(offline.StopPayload{StopIndex: next})
	err := s.sendOrEnqueue(ctx, offline.ActionUpdateCurrentStop, payload, func() error {
		return s.remote.UpdateCurrentStop(ctx, tour.ID, next)
	})
	return next, err
}

// PreviousStop moves back one stop; at the first stop it is a no-op.
func (s *Session) PreviousStop(ctx context.Context) (int, error) {
	s.mu.Lock()
	prev := engine.PreviousStop(s.tour.CurrentStop)
	changed := prev != s.tour.CurrentStop
	s.tour.CurrentStop = prev
	tour := s.tour
	s.mu.Unlock()

	if !changed {
		return prev, nil
	}
	s.saveSnapshot(ctx, tour)

	payload, _ := json.Marshal(offline.StopPayload{StopIndex: prev})
	err := s.sendOrEnqueue(ctx, offline.ActionUpdateCurrentStop, payload, func() error {
		return s.remote.UpdateCurrentStop(ctx, tour.ID, prev)
	})
	return prev, err
}

// RecordPubGolfScore records the sip count for a stop.
func (s *Session) RecordPubGolfScore(ctx context.Context, stopID string, sips int) error {
	tour := s.ActiveTour()
	payload, _ := json.Marshal(offline.PubGolfPayload{StopID: stopID, Sips: sips})
	return s.sendOrEnqueue(ctx, offline.ActionUpdatePubGolf, payload, func() error {
		return s.remote.UpdatePubGolfScore(ctx, tour.ID, stopID, sips)
	})
}

// Finish marks the tour finished, optimistically and remotely.
func (s *Session) Finish(ctx context.Context) error {
	s.mu.Lock()
	s.tour.Status = tourquest.StatusFinished
	tour := s.tour
	s.mu.Unlock()
	s.saveSnapshot(ctx, tour)

	return s.sendOrEnqueue(ctx, offline.ActionFinishTour, json.RawMessage(`{}`), func() error {
		_, err := s.remote.FinishTour(ctx, tour.ID)
		return err
	})
}

// Abandon gives up the tour. Abandoning is never queued: it only makes
// sense online, and a failed call leaves the tour active.
func (s *Session) Abandon(ctx context.Context) error {
	tour := s.ActiveTour()
	at, err := s.remote.AbandonTour(ctx, tour.ID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.tour.Status = at.Status
	s.mu.Unlock()
	s.saveSnapshot(ctx, s.ActiveTour())
	return nil
}

// Sync drains the offline queue once. Safe to call on every reconnect;
// overlapping calls are no-ops.
func (s *Session) Sync(ctx context.Context) (offline.DrainResult, error) {
	return s.syncer.Drain(ctx)
}

// PendingActions reports how many actions await sync.
func (s *Session) PendingActions(ctx context.Context) (int, error) {
	return s.queue.Len(ctx)
}

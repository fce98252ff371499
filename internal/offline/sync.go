package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/wandergames/tourquest/internal/tourapi"
	"github.com/wandergames/tourquest/internal/tourquest"
)

// errUnreplayable marks an action that can never be sent (malformed payload
// or unknown type); drained like a permanent rejection.
var errUnreplayable = errors.New("unreplayable action")

// Remote is the subset of the service client the syncer replays against.
// *tourapi.Client satisfies it.
type Remote interface {
	CompleteChallenge(ctx context.Context, activeTourID, challengeID string) (tourquest.ChallengeAttempt, error)
	FailChallenge(ctx context.Context, activeTourID, challengeID string) (tourquest.ChallengeAttempt, error)
	UpdateCurrentStop(ctx context.Context, activeTourID string, stopIndex int) error
	UpdatePubGolfScore(ctx context.Context, activeTourID, stopID string, sips int) error
	FinishTour(ctx context.Context, activeTourID string) (tourquest.ActiveTour, error)
}

// DrainResult summarizes one drain pass.
type DrainResult struct {
	// Skipped is true when another drain was already running.
	Skipped bool
	// Synced counts actions confirmed by the service.
	Synced int
	// Dropped counts actions rejected permanently (4xx) and discarded.
	Dropped int
	// Stalled is true when a transient failure stopped the pass early.
	Stalled bool
}

// Syncer replays the queue against the service. One instance per session;
// the atomic flag guarantees at most one drain pass at a time.
type Syncer struct {
	queue   *Queue
	remote  Remote
	logger  *slog.Logger
	syncing atomic.Bool
}

func NewSyncer(queue *Queue, remote Remote, logger *slog.Logger) *Syncer {
	return &Syncer{queue: queue, remote: remote, logger: logger}
}

// Drain processes pending actions strictly FIFO. Confirmed and permanently
// rejected actions are removed; the first transient failure (network, 5xx)
// stops the pass with everything from that action on left untouched, so a
// later action can never apply before an earlier one still pending retry.
// A concurrent call while a pass is running is a no-op.
func (s *Syncer) Drain(ctx context.Context) (DrainResult, error) {
	if !s.syncing.CompareAndSwap(false, true) {
		return DrainResult{Skipped: true}, nil
	}
	defer s.syncing.Store(false)

	var res DrainResult

	actions, err := s.queue.Pending(ctx)
	if err != nil {
		return res, fmt.Errorf("loading queue: %w", err)
	}

	for _, a := range actions {
		err := s.dispatch(ctx, a)
		if err == nil {
			if err := s.queue.Remove(ctx, a.ID); err != nil {
				return res, fmt.Errorf("removing synced action %s: %w", a.ID, err)
			}
			res.Synced++
			continue
		}

		if tourapi.IsPermanent(err) || errors.Is(err, errUnreplayable) {
			// This action can never succeed; drop it so it doesn't block
			// the queue. Local state may now diverge until the next refetch.
			s.logger.Warn("dropping permanently rejected action",
				"action_id", a.ID,
				"type", string(a.Type),
				"active_tour_id", a.ActiveTourID,
				"error", err,
			)
			if err := s.queue.Remove(ctx, a.ID); err != nil {
				return res, fmt.Errorf("removing rejected action %s: %w", a.ID, err)
			}
			res.Dropped++
			continue
		}

		// Transient: stop here, keep this and all later actions queued.
		s.logger.Info("sync stalled on transient failure",
			"action_id", a.ID,
			"type", string(a.Type),
			"error", err,
		)
		res.Stalled = true
		return res, nil
	}

	return res, nil
}

func (s *Syncer) dispatch(ctx context.Context, a Action) error {
	switch a.Type {
	case ActionCompleteChallenge:
		var p ChallengePayload
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", errUnreplayable, err)
		}
		_, err := s.remote.CompleteChallenge(ctx, a.ActiveTourID, p.ChallengeID)
		return err

	case ActionFailChallenge:
		var p ChallengePayload
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", errUnreplayable, err)
		}
		_, err := s.remote.FailChallenge(ctx, a.ActiveTourID, p.ChallengeID)
		return err

	case ActionUpdateCurrentStop:
		var p StopPayload
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", errUnreplayable, err)
		}
		return s.remote.UpdateCurrentStop(ctx, a.ActiveTourID, p.StopIndex)

	case ActionUpdatePubGolf:
		var p PubGolfPayload
		if err := json.Unmarshal(a.Payload, &p); err != nil {
			return fmt.Errorf("%w: %v", errUnreplayable, err)
		}
		return s.remote.UpdatePubGolfScore(ctx, a.ActiveTourID, p.StopID, p.Sips)

	case ActionFinishTour:
		_, err := s.remote.FinishTour(ctx, a.ActiveTourID)
		return err
	}

	return fmt.Errorf("%w: unknown action type %q", errUnreplayable, a.Type)
}

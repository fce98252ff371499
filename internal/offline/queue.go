package offline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ActionType names the remote mutation an action replays.
type ActionType string

const (
	ActionCompleteChallenge ActionType = "COMPLETE_CHALLENGE"
	ActionFailChallenge     ActionType = "FAIL_CHALLENGE"
	ActionUpdateCurrentStop ActionType = "UPDATE_CURRENT_STOP"
	ActionUpdatePubGolf     ActionType = "UPDATE_PUB_GOLF"
	ActionFinishTour        ActionType = "FINISH_TOUR"
)

// Action is one queued mutation awaiting confirmation from the service.
type Action struct {
	ID           string          `json:"id"`
	Type         ActionType      `json:"type"`
	Payload      json.RawMessage `json:"payload"`
	ActiveTourID string          `json:"activeTourId"`
	Timestamp    time.Time       `json:"timestamp"`
}

// Payload shapes per action type.
type (
	ChallengePayload struct {
		ChallengeID string `json:"challengeId"`
	}
	StopPayload struct {
		StopIndex int `json:"stopIndex"`
	}
	PubGolfPayload struct {
		StopID string `json:"stopId"`
		Sips   int    `json:"sips"`
	}
)

const queueKey = "tourquest.offline_queue"

// SnapshotKey is the storage key holding the last-known active-tour record
// for offline reads.
func SnapshotKey(activeTourID string) string {
	return "tourquest.active_tour." + activeTourID
}

// Queue is the append-ordered list of pending actions, persisted as a
// single blob in Storage after every mutation. The mutex serializes the
// load-modify-save cycle so an Enqueue from the UI flow and a Remove from a
// drain pass can never clobber each other's writes. The queue itself is not
// the single-flight guard — that lives in Syncer.
type Queue struct {
	mu      sync.Mutex
	storage Storage
}

// OpenQueue binds a queue to its durable storage. Any previously persisted
// actions are left in place and will surface on the next drain.
func OpenQueue(storage Storage) *Queue {
	return &Queue{storage: storage}
}

func (q *Queue) load(ctx context.Context) ([]Action, error) {
	blob, err := q.storage.Get(ctx, queueKey)
	if errors.Is(err, ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var actions []Action
	if err := json.Unmarshal(blob, &actions); err != nil {
		return nil, fmt.Errorf("decoding queue: %w", err)
	}
	return actions, nil
}

func (q *Queue) save(ctx context.Context, actions []Action) error {
	if len(actions) == 0 {
		return q.storage.Remove(ctx, queueKey)
	}
	blob, err := json.Marshal(actions)
	if err != nil {
		return fmt.Errorf("encoding queue: %w", err)
	}
	return q.storage.Set(ctx, queueKey, blob)
}

// Enqueue appends the action, assigning its id and timestamp, and persists
// the queue before returning. It never touches the network.
func (q *Queue) Enqueue(ctx context.Context, a Action) (Action, error) {
	a.ID = uuid.NewString()
	a.Timestamp = time.Now().UTC()

	q.mu.Lock()
	defer q.mu.Unlock()

	actions, err := q.load(ctx)
	if err != nil {
		return Action{}, err
	}
	actions = append(actions, a)
	if err := q.save(ctx, actions); err != nil {
		return Action{}, err
	}
	return a, nil
}

// Pending returns the queued actions in FIFO order.
func (q *Queue) Pending(ctx context.Context) ([]Action, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.load(ctx)
}

// Remove deletes the action with the given id and persists the queue.
// Removing an id that is no longer present is a no-op.
func (q *Queue) Remove(ctx context.Context, id string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	actions, err := q.load(ctx)
	if err != nil {
		return err
	}
	kept := actions[:0]
	for _, a := range actions {
		if a.ID != id {
			kept = append(kept, a)
		}
	}
	return q.save(ctx, kept)
}

// Len reports how many actions are pending.
func (q *Queue) Len(ctx context.Context) (int, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	actions, err := q.load(ctx)
	return len(actions), err
}

package offline

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wandergames/tourquest/internal/tourapi"
	"github.com/wandergames/tourquest/internal/tourquest"
)

// fakeRemote records calls and fails specific challenge ids with a
// configured error.
type fakeRemote struct {
	mu       sync.Mutex
	calls    []string
	failWith map[string]error
	block    chan struct{} // if set, CompleteChallenge waits on it
}

func (f *fakeRemote) record(call string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
}

func (f *fakeRemote) errFor(id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.failWith[id]
}

func (f *fakeRemote) CompleteChallenge(_ context.Context, _, challengeID string) (tourquest.ChallengeAttempt, error) {
	if f.block != nil {
		<-f.block
	}
	f.record("complete:" + challengeID)
	if err := f.errFor(challengeID); err != nil {
		return tourquest.ChallengeAttempt{}, err
	}
	return tourquest.ChallengeAttempt{ChallengeID: challengeID, Completed: true}, nil
}

func (f *fakeRemote) FailChallenge(_ context.Context, _, challengeID string) (tourquest.ChallengeAttempt, error) {
	f.record("fail:" + challengeID)
	if err := f.errFor(challengeID); err != nil {
		return tourquest.ChallengeAttempt{}, err
	}
	return tourquest.ChallengeAttempt{ChallengeID: challengeID, Failed: true}, nil
}

func (f *fakeRemote) UpdateCurrentStop(_ context.Context, _ string, stopIndex int) error {
	f.record("stop")
	return f.errFor("stop")
}

func (f *fakeRemote) UpdatePubGolfScore(_ context.Context, _, stopID string, sips int) error {
	f.record("pubgolf:" + stopID)
	return f.errFor(stopID)
}

func (f *fakeRemote) FinishTour(_ context.Context, activeTourID string) (tourquest.ActiveTour, error) {
	f.record("finish")
	if err := f.errFor("finish"); err != nil {
		return tourquest.ActiveTour{}, err
	}
	return tourquest.ActiveTour{ID: activeTourID, Status: tourquest.StatusFinished}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func enqueueComplete(t *testing.T, q *Queue, challengeID string) Action {
	t.Helper()
	payload, err := json.Marshal(ChallengePayload{ChallengeID: challengeID})
	require.NoError(t, err)
	a, err := q.Enqueue(context.Background(), Action{
		Type:         ActionCompleteChallenge,
		Payload:      payload,
		ActiveTourID: "at1",
	})
	require.NoError(t, err)
	return a
}

func TestDrain_AllSucceed(t *testing.T) {
	ctx := context.Background()
	q := OpenQueue(NewMemoryStorage())
	remote := &fakeRemote{}
	s := NewSyncer(q, remote, testLogger())

	enqueueComplete(t, q, "c1")
	enqueueComplete(t, q, "c2")

	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Synced: 2}, res)
	assert.Equal(t, []string{"complete:c1", "complete:c2"}, remote.calls)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDrain_TransientStopsPass(t *testing.T) {
	ctx := context.Background()
	q := OpenQueue(NewMemoryStorage())
	remote := &fakeRemote{failWith: map[string]error{
		"c2": &tourapi.APIError{Status: 503, Message: "maintenance"},
	}}
	s := NewSyncer(q, remote, testLogger())

	enqueueComplete(t, q, "c1")
	a2 := enqueueComplete(t, q, "c2")
	a3 := enqueueComplete(t, q, "c3")

	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Synced)
	assert.True(t, res.Stalled)

	// c3 was never attempted; c2 and c3 remain queued in order.
	assert.Equal(t, []string{"complete:c1", "complete:c2"}, remote.calls)
	actions, err := q.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, a2.ID, actions[0].ID)
	assert.Equal(t, a3.ID, actions[1].ID)

	// After the outage clears, the next drain resumes from the head.
	remote.mu.Lock()
	delete(remote.failWith, "c2")
	remote.mu.Unlock()

	res, err = s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Synced: 2}, res)
}

func TestDrain_PermanentDroppedPassContinues(t *testing.T) {
	ctx := context.Background()
	q := OpenQueue(NewMemoryStorage())
	remote := &fakeRemote{failWith: map[string]error{
		"c1": &tourapi.APIError{Status: 400, Message: "invalid ids"},
	}}
	s := NewSyncer(q, remote, testLogger())

	enqueueComplete(t, q, "c1")
	enqueueComplete(t, q, "c2")

	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Synced: 1, Dropped: 1}, res)
	assert.Equal(t, []string{"complete:c1", "complete:c2"}, remote.calls)

	n, err := q.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestDrain_MalformedPayloadDropped(t *testing.T) {
	ctx := context.Background()
	q := OpenQueue(NewMemoryStorage())
	remote := &fakeRemote{}
	s := NewSyncer(q, remote, testLogger())

	_, err := q.Enqueue(ctx, Action{
		Type:         ActionCompleteChallenge,
		Payload:      json.RawMessage(`{not json`),
		ActiveTourID: "at1",
	})
	require.NoError(t, err)
	enqueueComplete(t, q, "c2")

	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, DrainResult{Synced: 1, Dropped: 1}, res)
	// The malformed action never reached the remote.
	assert.Equal(t, []string{"complete:c2"}, remote.calls)
}

func TestDrain_SingleFlight(t *testing.T) {
	ctx := context.Background()
	q := OpenQueue(NewMemoryStorage())
	remote := &fakeRemote{block: make(chan struct{})}
	s := NewSyncer(q, remote, testLogger())

	enqueueComplete(t, q, "c1")

	done := make(chan DrainResult, 1)
	go func() {
		res, _ := s.Drain(ctx)
		done <- res
	}()

	// Wait for the first drain to be mid-flight, then call again.
	for !s.syncing.Load() {
		time.Sleep(time.Millisecond)
	}
	second, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.True(t, second.Skipped)

	close(remote.block)
	first := <-done
	assert.Equal(t, 1, first.Synced)
	assert.False(t, first.Skipped)
}

func TestDrain_DispatchMapping(t *testing.T) {
	ctx := context.Background()
	q := OpenQueue(NewMemoryStorage())
	remote := &fakeRemote{}
	s := NewSyncer(q, remote, testLogger())

	enqueue := func(typ ActionType, payload any) {
		t.Helper()
		b, err := json.Marshal(payload)
		require.NoError(t, err)
		_, err = q.Enqueue(ctx, Action{Type: typ, Payload: b, ActiveTourID: "at1"})
		require.NoError(t, err)
	}

	enqueue(ActionFailChallenge, ChallengePayload{ChallengeID: "c9"})
	enqueue(ActionUpdateCurrentStop, StopPayload{StopIndex: 1})
	enqueue(ActionUpdatePubGolf, PubGolfPayload{StopID: "s2", Sips: 4})
	enqueue(ActionFinishTour, struct{}{})

	res, err := s.Drain(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Synced)
	assert.Equal(t, []string{"fail:c9", "stop", "pubgolf:s2", "finish"}, remote.calls)
}

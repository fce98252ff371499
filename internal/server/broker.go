package server

import (
	"encoding/json"
	"sync"
)

// Event is the payload published to active-tour subscribers.
type Event struct {
	Type        string `json:"type"`
	ChallengeID string `json:"challengeId,omitempty"`
	StopIndex   int    `json:"stopIndex,omitempty"`
	Line        string `json:"line,omitempty"`
	TeamName    string `json:"teamName,omitempty"`
	Points      int    `json:"points,omitempty"`
}

// Event types.
const (
	eventChallengeCompleted = "challenge_completed"
	eventChallengeFailed    = "challenge_failed"
	eventStopAdvanced       = "stop_advanced"
	eventTourFinished       = "tour_finished"
	eventBingoLine          = "bingo_line"
	eventBingoFullHouse     = "bingo_full_house"
)

// Broker is an in-process pub/sub for SSE events, keyed by active tour ID.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel receiving JSON-encoded events for the tour.
func (b *Broker) Subscribe(activeTourID string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[activeTourID] == nil {
		b.subs[activeTourID] = make(map[chan []byte]struct{})
	}
	b.subs[activeTourID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the tour's subscribers.
func (b *Broker) Unsubscribe(activeTourID string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[activeTourID], ch)
	if len(b.subs[activeTourID]) == 0 {
		delete(b.subs, activeTourID)
	}
	b.mu.Unlock()
}

// Publish sends an event to all subscribers of the given tour.
func (b *Broker) Publish(activeTourID string, event Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs[activeTourID] {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}

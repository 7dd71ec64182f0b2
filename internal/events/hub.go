// Package events fans out classroom changes to live subscribers (the SSE
// endpoint). Delivery is best effort: a subscriber whose buffer is full misses
// the event instead of blocking the publisher.
package events

import (
	"sync"

	"github.com/google/uuid"
)

// Event types sent to subscribers.
const (
	TypeDrawConfirmed  = "draw_confirmed"
	TypeClassroomReset = "classroom_reset"
)

// bufferSize is how many undelivered events a subscriber may hold.
const bufferSize = 8

// Event is one change to a classroom. Data carries the history entry for
// draw_confirmed and is empty for classroom_reset.
type Event struct {
	Type        string      `json:"type"`
	ClassroomID uuid.UUID   `json:"classroom_id"`
	Data        interface{} `json:"data,omitempty"`
}

// Subscription receives the events of one classroom until Unsubscribe.
type Subscription struct {
	classroomID uuid.UUID
	ch          chan Event
}

// Chan delivers events until the subscription is closed.
func (s *Subscription) Chan() <-chan Event {
	return s.ch
}

// Hub keeps the subscribers of every classroom.
type Hub struct {
	mu   sync.Mutex
	subs map[uuid.UUID]map[*Subscription]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: map[uuid.UUID]map[*Subscription]struct{}{}}
}

// Subscribe registers a buffered subscription for one classroom.
func (h *Hub) Subscribe(classroomID uuid.UUID) *Subscription {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub := &Subscription{classroomID: classroomID, ch: make(chan Event, bufferSize)}
	if h.subs[classroomID] == nil {
		h.subs[classroomID] = map[*Subscription]struct{}{}
	}
	h.subs[classroomID][sub] = struct{}{}
	return sub
}

// Unsubscribe closes the subscription's channel. Calling it twice is safe.
func (h *Hub) Unsubscribe(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.subs[sub.classroomID]
	if _, ok := set[sub]; !ok {
		return
	}
	delete(set, sub)
	if len(set) == 0 {
		delete(h.subs, sub.classroomID)
	}
	close(sub.ch)
}

// Publish sends evt to every subscriber of its classroom without blocking.
func (h *Hub) Publish(evt Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[evt.ClassroomID] {
		select {
		case sub.ch <- evt:
		default:
		}
	}
}

// Subscribers reports how many subscriptions a classroom has.
func (h *Hub) Subscribers(classroomID uuid.UUID) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[classroomID])
}

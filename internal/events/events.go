// Package events carries lifecycle notifications to live subscribers.
// Delivery is best effort: a failed notification never fails the operation
// that produced it.
package events

import (
	"context"
	"strings"
	"sync"
)

type Type string

const (
	ReviewSubmitted   Type = "review.submitted"
	ReviewDecided     Type = "review.decided"
	FeedbackPredicted Type = "feedback.predicted"
	FeedbackAnnotated Type = "feedback.annotated"
)

// Kind is the lifecycle prefix of the type, "review" or "feedback".
func (t Type) Kind() string {
	kind, _, _ := strings.Cut(string(t), ".")
	return kind
}

type Event struct {
	Type     Type   `json:"type"`
	Kind     string `json:"kind"`
	Filename string `json:"filename"`
	Label    string `json:"label,omitempty"`
	Status   string `json:"status,omitempty"`
	Reason   string `json:"reason,omitempty"`
	At       string `json:"at"`
}

func New(t Type, filename string) Event {
	return Event{Type: t, Kind: t.Kind(), Filename: filename}
}

type Notifier interface {
	Notify(ctx context.Context, e Event)
}

// Fanout delivers every event to each notifier in turn.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, e Event) {
	for _, n := range f {
		n.Notify(ctx, e)
	}
}

type Nop struct{}

func (Nop) Notify(context.Context, Event) {}

// Recorder keeps every event it receives. Used in tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Notify(_ context.Context, e Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// internal/events/events.go
//
// Game lifecycle events published for other services (leaderboards, feeds).
//
//   - game.won:   a session finished with all pairs matched.
//   - record.new: a win replaced the owner's best score for its difficulty.
//
// Publishing is best effort: failures are logged by the caller and never
// affect the game.

package events

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/robalobadob/memory-match/internal/game"
)

// Kind names an event type; it is also the subject suffix.
type Kind string

const (
	KindGameWon   Kind = "game.won"
	KindNewRecord Kind = "record.new"
)

// Event is the JSON payload published for every kind.
type Event struct {
	Kind       Kind            `json:"kind"`
	GameID     string          `json:"gameId"`
	OwnerID    string          `json:"ownerId"`
	Difficulty game.Difficulty `json:"difficulty"`
	Moves      int             `json:"moves"`
	TimeMs     int64           `json:"timeMs"`
	At         time.Time       `json:"at"`
}

// Publisher delivers events.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }

// DefaultPrefix is prepended to every subject.
const DefaultPrefix = "memory."

// NATSPublisher publishes events as JSON on <prefix><kind>.
type NATSPublisher struct {
	nc     *nats.Conn
	prefix string
}

// Connect dials NATS with reconnect settings suitable for a long-lived server.
func Connect(url string) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("memory-match"),
		nats.Timeout(10 * time.Second),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
	}
	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NATSPublisher{nc: nc, prefix: DefaultPrefix}, nil
}

// Subject returns the subject an event of kind k is published on.
func Subject(prefix string, k Kind) string { return prefix + string(k) }

func (p *NATSPublisher) Publish(ctx context.Context, ev Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(Subject(p.prefix, ev.Kind), data)
}

// Close flushes buffered messages and closes the connection.
func (p *NATSPublisher) Close() error {
	if err := p.nc.Drain(); err != nil {
		p.nc.Close()
		return err
	}
	return nil
}

// Recorder keeps published events in memory. Used by tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, ev Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// Events returns a copy of everything published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

func (r *Recorder) Close() error { return nil }

// FromSession builds an event for a finished session.
func FromSession(k Kind, s *game.Session, owner string, at time.Time) Event {
	return Event{
		Kind:       k,
		GameID:     s.ID,
		OwnerID:    owner,
		Difficulty: s.Difficulty,
		Moves:      s.Moves,
		TimeMs:     s.ElapsedMs,
		At:         at.UTC(),
	}
}

// Package table runs one blackjack table on top of the game state machine.
//
// A Table owns a game.Game, the table rules, the current wager and the audit
// log. It stages the opening deal and the dealer's draws with delays on a
// quartz clock, settles finished rounds, appends audit records and resets
// for the next round. Every exported method is safe for concurrent use.
package table

import (
	"context"
	"errors"
	"fmt"
	"io"
	rand "math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/audit"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
)

var (
	// ErrBusy means the table is in the middle of a staged sequence or a round
	// and cannot take the request yet.
	ErrBusy = errors.New("table busy")
)

// Sink receives every finished round after it is added to the in-memory log.
type Sink interface {
	Append(ctx context.Context, tableID, roundID string, rec audit.Record) error
}

// Delays between staged steps. A zero delay runs the step inline.
type Delays struct {
	Deal   time.Duration
	Reveal time.Duration
	Dealer time.Duration
	Reset  time.Duration
}

// DefaultDelays paces a table for people watching it.
func DefaultDelays() Delays {
	return Delays{
		Deal:   500 * time.Millisecond,
		Reveal: time.Second,
		Dealer: time.Second,
		Reset:  5 * time.Second,
	}
}

// Option configures a Table.
type Option func(*Table)

// WithClock sets the clock used for staged steps and record timestamps.
func WithClock(clock quartz.Clock) Option {
	return func(t *Table) { t.clock = clock }
}

// WithLogger sets the logger.
func WithLogger(logger *log.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithSink adds a durable audit sink.
func WithSink(sink Sink) Option {
	return func(t *Table) { t.sink = sink }
}

// WithRNG sets the shuffle source of the table's game.
func WithRNG(rng *rand.Rand) Option {
	return func(t *Table) { t.rng = rng }
}

// WithDelays sets the staged step delays.
func WithDelays(d Delays) Option {
	return func(t *Table) { t.delays = d }
}

// WithAuditLog seeds the table with an existing audit log.
func WithAuditLog(l *audit.Log) Option {
	return func(t *Table) {
		if l != nil {
			t.audit = l
		}
	}
}

// Table is a single blackjack table.
type Table struct {
	id     string
	clock  quartz.Clock
	logger *log.Logger
	sink   Sink
	rng    *rand.Rand
	delays Delays
	audit  *audit.Log

	mu         sync.Mutex
	rules      game.Rules
	game       *game.Game
	wager      int
	roundID    string
	started    time.Time
	dealing    bool
	generation uint64
	last       *Outcome

	// prepareShoe runs after each new shuffle; tests use it to stack cards.
	prepareShoe func(*deck.Shoe)

	// outbox holds settled rounds until they are written to the sink
	// outside mu. sinkMu keeps sink writes in settlement order.
	outbox []pendingRecord
	sinkMu sync.Mutex

	subMu       sync.Mutex
	subscribers map[int]func(View)
	nextSub     int
}

// New creates a table in the Waiting phase.
func New(id string, rules game.Rules, opts ...Option) *Table {
	t := &Table{
		id:          id,
		clock:       quartz.NewReal(),
		logger:      log.New(io.Discard),
		delays:      DefaultDelays(),
		audit:       audit.NewLog(),
		rules:       rules.Normalize(),
		subscribers: make(map[int]func(View)),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.WithPrefix("table").With("table", id)
	t.game = game.New(
		game.WithRNG(t.rng),
		game.WithDecks(t.rules.NumberOfDecks),
		game.WithLogger(t.logger),
	)
	return t
}

// ID returns the table identifier.
func (t *Table) ID() string {
	return t.id
}

// Rules returns the current rules.
func (t *Table) Rules() game.Rules {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rules
}

// AuditLog returns the table's in-memory audit log.
func (t *Table) AuditLog() *audit.Log {
	return t.audit
}

// UpdateRules replaces the rules. Only allowed between rounds.
func (t *Table) UpdateRules(r game.Rules) error {
	t.mu.Lock()
	if t.game.Phase() != game.Waiting {
		phase := t.game.Phase()
		t.mu.Unlock()
		return fmt.Errorf("%w: rules change only while waiting, phase %s", ErrBusy, phase)
	}
	t.rules = r.Normalize()
	t.game.SetDecks(t.rules.NumberOfDecks)
	t.logger.Info("rules updated",
		"decks", t.rules.NumberOfDecks,
		"soft17", t.rules.DealerHitsSoft17,
		"min_bet", t.rules.MinBet,
		"max_bet", t.rules.MaxBet)
	v := t.viewLocked()
	t.mu.Unlock()

	t.publish(v)
	return nil
}

// Subscribe registers fn to receive a View after every state change. The
// returned function removes it.
func (t *Table) Subscribe(fn func(View)) func() {
	t.subMu.Lock()
	defer t.subMu.Unlock()
	id := t.nextSub
	t.nextSub++
	t.subscribers[id] = fn
	return func() {
		t.subMu.Lock()
		defer t.subMu.Unlock()
		delete(t.subscribers, id)
	}
}

func (t *Table) publish(v View) {
	t.subMu.Lock()
	subs := make([]func(View), 0, len(t.subscribers))
	for _, fn := range t.subscribers {
		subs = append(subs, fn)
	}
	t.subMu.Unlock()

	for _, fn := range subs {
		fn(v)
	}
}

// schedule runs step after d with the table lock held, or inline when d is
// zero. Steps scheduled before a reset are dropped.
func (t *Table) schedule(d time.Duration, step func()) {
	if d <= 0 {
		step()
		return
	}
	gen := t.generation
	t.clock.AfterFunc(d, func() {
		t.mu.Lock()
		if gen != t.generation {
			t.mu.Unlock()
			return
		}
		step()
		v := t.viewLocked()
		t.mu.Unlock()
		t.flush()
		t.publish(v)
	})
}

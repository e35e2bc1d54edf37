package table

import (
	"context"
	"io"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"
	"github.com/lox/blackjack/internal/audit"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memorySink struct {
	mu      sync.Mutex
	rounds  []string
	records []audit.Record
}

func (s *memorySink) Append(_ context.Context, tableID, roundID string, rec audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, roundID)
	s.records = append(s.records, rec)
	return nil
}

// blockingSink holds every Append until release is closed.
type blockingSink struct {
	entered chan struct{}
	release chan struct{}
}

func (s *blockingSink) Append(ctx context.Context, _, _ string, _ audit.Record) error {
	s.entered <- struct{}{}
	select {
	case <-s.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func newTable(t *testing.T, opts ...Option) *Table {
	t.Helper()
	rules := game.Rules{NumberOfDecks: 1, MinBet: 1, MaxBet: 100}
	base := []Option{
		WithLogger(quietLogger()),
		WithRNG(randutil.New(5)),
		WithDelays(Delays{}),
	}
	return New("main", rules, append(base, opts...)...)
}

// stackNext makes the next shuffle start with the named cards.
func stackNext(t *testing.T, tbl *Table, names ...string) {
	t.Helper()
	cards, err := deck.ParseNames(names...)
	require.NoError(t, err)
	tbl.prepareShoe = func(s *deck.Shoe) { s.Stack(cards...) }
}

func TestDealHidesHoleCard(t *testing.T) {
	tbl := newTable(t)
	stackNext(t, tbl, "hearts_10", "clubs_9", "spades_9", "diamonds_7")

	require.NoError(t, tbl.Deal(10))
	v := tbl.State()

	assert.Equal(t, "PLAYER_TURN", v.Phase)
	assert.Equal(t, []string{"hearts_10", "spades_9"}, v.Hands[0].Cards)
	assert.Equal(t, 19, v.Hands[0].Value)
	assert.True(t, v.Hands[0].Active)
	assert.True(t, v.DealerHidden)
	assert.Equal(t, []string{"clubs_9", HiddenCard}, v.Dealer.Cards)
	assert.Equal(t, 9, v.Dealer.Value)
	assert.Equal(t, []string{"hit", "stand", "double"}, v.Actions)
	assert.Equal(t, 10, v.Wager)
	assert.NotEmpty(t, v.RoundID)
}

func TestRoundSettlesAndResets(t *testing.T) {
	sink := &memorySink{}
	tbl := newTable(t, WithSink(sink))
	stackNext(t, tbl, "hearts_10", "clubs_9", "spades_9", "diamonds_7", "hearts_k")

	require.NoError(t, tbl.Deal(10))
	require.NoError(t, tbl.Stand())

	v := tbl.State()
	assert.Equal(t, "WAITING", v.Phase)
	require.NotNil(t, v.Last)
	assert.Equal(t, "WIN", v.Last.Result)
	assert.Equal(t, 20, v.Last.Payout)
	assert.Equal(t, 10, v.Last.Net)
	assert.Equal(t, 26, v.Last.DealerScore)
	assert.Equal(t, 1, v.Rounds)

	rec, ok := tbl.AuditLog().Last()
	require.True(t, ok)
	assert.Equal(t, game.Win, rec.Result)
	assert.Equal(t, 10, rec.Bet)
	assert.Equal(t, 20, rec.Payout)
	assert.Equal(t, []int{19}, rec.PlayerScores)

	require.Len(t, sink.records, 1)
	assert.Equal(t, rec, sink.records[0])
	id, err := uuid.Parse(sink.rounds[0])
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())
}

func TestNaturalStandsAutomatically(t *testing.T) {
	tbl := newTable(t)
	stackNext(t, tbl, "hearts_ace", "clubs_10", "spades_k", "diamonds_7")

	require.NoError(t, tbl.Deal(10))

	v := tbl.State()
	assert.Equal(t, "WAITING", v.Phase)
	require.NotNil(t, v.Last)
	assert.Equal(t, "WIN", v.Last.Result)
	assert.Equal(t, 25, v.Last.Payout)
}

func TestPlayerBustSkipsDealer(t *testing.T) {
	tbl := newTable(t)
	stackNext(t, tbl, "hearts_10", "clubs_10", "spades_6", "diamonds_2", "hearts_q")

	require.NoError(t, tbl.Deal(5))
	require.NoError(t, tbl.Hit())

	v := tbl.State()
	require.NotNil(t, v.Last)
	assert.Equal(t, "LOSE", v.Last.Result)
	assert.Equal(t, 12, v.Last.DealerScore, "dealer must not draw after a player bust")
	assert.Equal(t, -5, v.Last.Net)
}

func TestDoubleDownRecordsDoubledStake(t *testing.T) {
	tbl := newTable(t)
	stackNext(t, tbl, "hearts_5", "clubs_10", "spades_6", "diamonds_7", "hearts_10")

	require.NoError(t, tbl.Deal(10))
	require.NoError(t, tbl.DoubleDown())

	rec, ok := tbl.AuditLog().Last()
	require.True(t, ok)
	assert.True(t, rec.DoubledDown)
	assert.Equal(t, 20, rec.Bet)
	assert.Equal(t, 40, rec.Payout)
}

func TestLargestWagerSurvivesAudit(t *testing.T) {
	rules := game.Rules{NumberOfDecks: 1, MinBet: 1, MaxBet: 3_000_000_000}
	tbl := New("high", rules, WithLogger(quietLogger()), WithRNG(randutil.New(5)), WithDelays(Delays{}))
	assert.Equal(t, game.MaxWager, tbl.Rules().MaxBet)
	assert.ErrorIs(t, tbl.Deal(3_000_000_000), game.ErrWager)

	stackNext(t, tbl, "hearts_8", "clubs_10", "spades_8", "diamonds_7", "hearts_3", "clubs_3", "hearts_10", "spades_10")
	require.NoError(t, tbl.Deal(game.MaxWager))
	require.NoError(t, tbl.Split())
	require.NoError(t, tbl.DoubleDown())
	require.NoError(t, tbl.DoubleDown())

	rec, ok := tbl.AuditLog().Last()
	require.True(t, ok)
	assert.Equal(t, 4*game.MaxWager, rec.Bet)
	assert.Equal(t, 8*game.MaxWager, rec.Payout)

	got, err := audit.UnmarshalRecord(audit.MarshalRecord(rec))
	require.NoError(t, err)
	assert.Equal(t, rec, got)
}

func TestSplitRound(t *testing.T) {
	tbl := newTable(t)
	stackNext(t, tbl, "hearts_8", "clubs_10", "spades_8", "diamonds_7", "hearts_10", "clubs_3", "diamonds_k")

	require.NoError(t, tbl.Deal(10))
	require.NoError(t, tbl.Split())

	v := tbl.State()
	require.Len(t, v.Hands, 2)
	assert.True(t, v.Split)
	assert.Equal(t, 20, v.Wagered())

	require.NoError(t, tbl.Stand())
	require.NoError(t, tbl.Hit())
	require.NoError(t, tbl.Stand())

	rec, ok := tbl.AuditLog().Last()
	require.True(t, ok)
	assert.True(t, rec.Split)
	assert.Equal(t, 20, rec.Bet)
	assert.Equal(t, 40, rec.Payout)
	assert.Equal(t, []int{18, 21}, rec.PlayerScores)
	assert.Equal(t, game.Win, rec.Result)
}

func TestDealRejections(t *testing.T) {
	tbl := newTable(t)

	assert.ErrorIs(t, tbl.Deal(0), game.ErrWager)
	assert.ErrorIs(t, tbl.Deal(101), game.ErrWager)
	assert.Equal(t, "WAITING", tbl.State().Phase)

	stackNext(t, tbl, "hearts_10", "clubs_9", "spades_9", "diamonds_7")
	require.NoError(t, tbl.Deal(10))
	assert.ErrorIs(t, tbl.Deal(10), game.ErrIllegalAction)
}

func TestActionOutsideRound(t *testing.T) {
	tbl := newTable(t)
	assert.ErrorIs(t, tbl.Hit(), game.ErrIllegalAction)
	assert.ErrorIs(t, tbl.Do(game.Deal), game.ErrIllegalAction)
}

func TestUpdateRules(t *testing.T) {
	tbl := newTable(t)
	require.NoError(t, tbl.UpdateRules(game.Rules{NumberOfDecks: 30, MinBet: 5, MaxBet: 50, DealerHitsSoft17: true}))

	r := tbl.Rules()
	assert.Equal(t, 8, r.NumberOfDecks)
	assert.True(t, r.DealerHitsSoft17)

	stackNext(t, tbl, "hearts_10", "clubs_9", "spades_9", "diamonds_7")
	require.NoError(t, tbl.Deal(10))
	assert.ErrorIs(t, tbl.UpdateRules(game.DefaultRules()), ErrBusy)
}

func TestSubscribe(t *testing.T) {
	tbl := newTable(t)
	var views []View
	unsubscribe := tbl.Subscribe(func(v View) { views = append(views, v) })

	stackNext(t, tbl, "hearts_10", "clubs_9", "spades_9", "diamonds_7", "hearts_k")
	require.NoError(t, tbl.Deal(10))
	require.NoError(t, tbl.Stand())
	assert.Len(t, views, 2)

	unsubscribe()
	tbl.Reset()
	assert.Len(t, views, 2)
}

func TestStagedDealWithClock(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mockClock := quartz.NewMock(t)
	delays := Delays{Deal: time.Second, Reveal: time.Second, Dealer: time.Second, Reset: time.Second}
	tbl := newTable(t, WithClock(mockClock), WithDelays(delays))
	stackNext(t, tbl, "hearts_10", "clubs_10", "spades_8", "diamonds_4", "hearts_3")

	require.NoError(t, tbl.Deal(10))
	v := tbl.State()
	assert.True(t, v.Dealing)
	assert.Len(t, v.Hands[0].Cards, 1)
	assert.Empty(t, v.Actions)
	assert.ErrorIs(t, tbl.Hit(), ErrBusy)

	for range 3 {
		mockClock.Advance(time.Second).MustWait(ctx)
	}
	v = tbl.State()
	assert.False(t, v.Dealing)
	assert.Len(t, v.Hands[0].Cards, 2)
	assert.Equal(t, []string{"clubs_10", HiddenCard}, v.Dealer.Cards)

	require.NoError(t, tbl.Stand())
	v = tbl.State()
	assert.Equal(t, "DEALER_TURN", v.Phase)
	assert.False(t, v.DealerHidden)

	// Reveal, then the dealer draws to 17.
	mockClock.Advance(time.Second).MustWait(ctx)
	v = tbl.State()
	assert.Equal(t, "FINISHED", v.Phase)
	assert.Equal(t, 17, v.Dealer.Value)
	require.NotNil(t, v.Last)
	assert.Equal(t, "WIN", v.Last.Result)

	mockClock.Advance(time.Second).MustWait(ctx)
	assert.Equal(t, "WAITING", tbl.State().Phase)
}

func TestResetDropsPendingSteps(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	mockClock := quartz.NewMock(t)
	tbl := newTable(t, WithClock(mockClock), WithDelays(Delays{Deal: time.Second}))
	stackNext(t, tbl, "hearts_10", "clubs_10", "spades_8", "diamonds_4")

	require.NoError(t, tbl.Deal(10))
	tbl.Reset()
	mockClock.Advance(time.Second).MustWait(ctx)

	v := tbl.State()
	assert.Equal(t, "WAITING", v.Phase)
	assert.Empty(t, v.Hands)
	assert.False(t, v.Dealing)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.json")

	tbl := newTable(t)
	stackNext(t, tbl, "hearts_10", "clubs_9", "spades_6", "diamonds_7")
	require.NoError(t, tbl.Deal(10))
	require.NoError(t, tbl.SaveTo(path))

	restored := newTable(t)
	report, err := restored.LoadFrom(path)
	require.NoError(t, err)
	assert.True(t, report.OK())

	before, after := tbl.State(), restored.State()
	assert.Equal(t, before.Hands, after.Hands)
	assert.Equal(t, before.Dealer, after.Dealer)
	assert.Equal(t, before.RoundID, after.RoundID)
	assert.Equal(t, 10, after.Wager)

	require.NoError(t, restored.Stand())
	last := restored.State().Last
	require.NotNil(t, last)
	assert.Equal(t, before.RoundID, last.RoundID)
}

func TestRestoreResumesOpeningDeal(t *testing.T) {
	tbl := newTable(t)
	snap := Snapshot{
		TableID: "main",
		Rules:   game.Rules{NumberOfDecks: 1, MinBet: 1, MaxBet: 100},
		Wager:   4,
		RoundID: "r1",
		Game:    []byte(`{"phase":"PLAYER_TURN","playerHand":["hearts_9"],"dealerHand":["clubs_9"]}`),
	}

	report, err := tbl.Restore(snap)
	require.NoError(t, err)
	assert.True(t, report.OK())

	v := tbl.State()
	assert.False(t, v.Dealing)
	assert.Len(t, v.Hands[0].Cards, 2)
	assert.Len(t, v.Dealer.Cards, 2)
	assert.Equal(t, "hearts_9", v.Hands[0].Cards[0])
}

func TestSlowSinkDoesNotBlockTable(t *testing.T) {
	sink := &blockingSink{entered: make(chan struct{}, 1), release: make(chan struct{})}
	tbl := newTable(t, WithSink(sink))
	stackNext(t, tbl, "hearts_10", "clubs_10", "spades_9", "diamonds_7")
	require.NoError(t, tbl.Deal(10))

	standErr := make(chan error, 1)
	go func() { standErr <- tbl.Stand() }()
	<-sink.entered

	states := make(chan View, 1)
	go func() { states <- tbl.State() }()
	select {
	case v := <-states:
		require.NotNil(t, v.Last)
		assert.Equal(t, game.Win.String(), v.Last.Result)
	case <-time.After(time.Second):
		t.Fatal("table state blocked on the audit sink")
	}
	assert.Equal(t, 1, tbl.AuditLog().Len())

	close(sink.release)
	require.NoError(t, <-standErr)
}

package client

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/audit"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/server"
	"github.com/lox/blackjack/internal/simulator"
	"github.com/lox/blackjack/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

func startServer(t *testing.T, delays table.Delays) string {
	t.Helper()
	rules := game.Rules{NumberOfDecks: 2, MinBet: 1, MaxBet: 100}
	srv := server.NewServer(quietLogger(),
		table.New("main", rules, table.WithLogger(quietLogger()), table.WithRNG(randutil.New(3)), table.WithDelays(delays)),
		table.New("side", rules, table.WithLogger(quietLogger()), table.WithRNG(randutil.New(4)), table.WithDelays(delays)),
	)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Close()
		ts.Close()
	})
	return ts.URL
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func dial(t *testing.T, url string) *Client {
	t.Helper()
	c, err := Dial(testContext(t), url, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestDialRejectsBadURL(t *testing.T) {
	_, err := Dial(context.Background(), "://nope", quietLogger())
	assert.Error(t, err)
}

func TestJoinAndListTables(t *testing.T) {
	url := startServer(t, table.Delays{Reset: time.Hour})
	c := dial(t, url)
	ctx := testContext(t)

	tables, err := c.Tables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 2)
	assert.Equal(t, "main", tables[0].ID)
	assert.Equal(t, "side", tables[1].ID)

	v, err := c.JoinTable(ctx, "side")
	require.NoError(t, err)
	assert.Equal(t, "side", v.TableID)
	assert.Equal(t, game.Waiting.String(), v.Phase)

	_, err = c.JoinTable(ctx, "missing")
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, server.CodeUnknownTable, remote.Code)
}

func TestBotPlaysRounds(t *testing.T) {
	url := startServer(t, table.Delays{Reset: time.Hour})
	c := dial(t, url)
	ctx := testContext(t)

	_, err := c.JoinTable(ctx, "main")
	require.NoError(t, err)

	sum, err := NewBot(c, simulator.BasicStrategy, quietLogger()).Play(ctx, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, sum.Rounds)
	assert.Equal(t, sum.Rounds, sum.Wins+sum.Losses+sum.Draws)
	assert.GreaterOrEqual(t, sum.Staked, 15)

	page, err := c.AuditPage(ctx, "", 0, audit.DefaultPageSize)
	require.NoError(t, err)
	assert.Equal(t, "main", page.PositionID)
	assert.Equal(t, 5, page.Total)
	require.Len(t, page.Records, 5)

	net := 0
	for _, rec := range page.Records {
		assert.NotEqual(t, game.Unfinished, rec.Result)
		net += rec.Net()
	}
	assert.Equal(t, sum.Net, net)

	cached, ok := c.CachedPage("main")
	require.True(t, ok)
	assert.Equal(t, page, cached)
	_, ok = c.CachedPage("side")
	assert.False(t, ok)
}

func TestBotWithStagedDeal(t *testing.T) {
	url := startServer(t, table.Delays{
		Deal:   time.Millisecond,
		Reveal: time.Millisecond,
		Dealer: time.Millisecond,
		Reset:  5 * time.Millisecond,
	})
	c := dial(t, url)
	ctx := testContext(t)

	sum, err := NewBot(c, simulator.DealerStrategy, quietLogger()).Play(ctx, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, sum.Rounds)
}

func TestDealErrorsAreReturned(t *testing.T) {
	url := startServer(t, table.Delays{Reset: time.Hour})
	c := dial(t, url)
	ctx := testContext(t)

	require.NoError(t, c.Deal(1000))
	_, err := c.WaitFor(ctx, server.MessageTypeGetState)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, server.CodeInvalidWager, remote.Code)
}

func TestAuditPageUnknownTable(t *testing.T) {
	url := startServer(t, table.Delays{Reset: time.Hour})
	c := dial(t, url)

	_, err := c.AuditPage(testContext(t), "missing", 0, 5)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, server.CodeUnknownTable, remote.Code)
}

func TestActRejectsDealerPlay(t *testing.T) {
	url := startServer(t, table.Delays{Reset: time.Hour})
	c := dial(t, url)
	assert.Error(t, c.Act(game.DealerPlay))
	assert.Error(t, c.Act(game.Deal))
}

func TestDecide(t *testing.T) {
	v := table.View{
		Phase:       game.PlayerTurn.String(),
		CurrentHand: 0,
		Hands:       []table.HandView{{Cards: []string{"hearts_8", "spades_8"}}},
		Dealer:      table.HandView{Cards: []string{"clubs_6", table.HiddenCard}},
		Actions:     []string{"hit", "stand", "double", "split"},
	}
	d, err := decide(v)
	require.NoError(t, err)
	assert.True(t, d.CanDouble)
	assert.True(t, d.CanSplit)
	assert.Equal(t, "clubs_6", d.DealerUp.Name())
	assert.Equal(t, game.Split, simulator.BasicStrategy(d))

	v.CurrentHand = 3
	_, err = decide(v)
	assert.Error(t, err)
}

func TestClosedClient(t *testing.T) {
	url := startServer(t, table.Delays{Reset: time.Hour})
	c := dial(t, url)
	require.NoError(t, c.Close())
	<-c.Done()

	assert.ErrorIs(t, c.Deal(1), ErrClosed)
	ctx := testContext(t)
	for {
		_, err := c.Next(ctx)
		if err != nil {
			assert.ErrorIs(t, err, ErrClosed)
			break
		}
	}
}

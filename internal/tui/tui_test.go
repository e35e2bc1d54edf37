package tui

import (
	"io"
	"os"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/lox/blackjack/internal/table"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	lipgloss.SetColorProfile(termenv.Ascii)
	os.Exit(m.Run())
}

func newModel(t *testing.T) *Model {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	tbl := table.New("main", game.Rules{NumberOfDecks: 2, MinBet: 2, MaxBet: 10},
		table.WithLogger(logger),
		table.WithRNG(randutil.New(21)),
		table.WithClock(quartz.NewMock(t)),
		table.WithDelays(table.Delays{Reset: time.Hour}),
	)
	m := New(tbl, 4, logger)
	t.Cleanup(m.Close)
	return m
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press runs a key through Update, executes the resulting action and feeds
// back any table update it produced.
func press(t *testing.T, m *Model, k tea.KeyMsg) {
	t.Helper()
	_, cmd := m.Update(k)
	if cmd != nil {
		msg := cmd()
		if _, ok := msg.(actionMsg); ok {
			m.Update(msg)
		}
	}
	select {
	case v := <-m.updates:
		m.Update(viewMsg(v))
	default:
	}
}

func TestNewModelStartsWaiting(t *testing.T) {
	m := newModel(t)
	assert.Equal(t, game.Waiting.String(), m.view.Phase)
	assert.Equal(t, 4, m.wager)

	out := m.View()
	assert.Contains(t, out, "Dealer")
	assert.Contains(t, out, "[deal]")
}

func TestWagerKeysClampToLimits(t *testing.T) {
	m := newModel(t)
	for range 20 {
		press(t, m, key("+"))
	}
	assert.Equal(t, 10, m.wager)
	for range 20 {
		press(t, m, key("-"))
	}
	assert.Equal(t, 2, m.wager)
}

func TestPlayRound(t *testing.T) {
	m := newModel(t)

	press(t, m, key("d"))
	assert.Empty(t, m.lastErr)
	require.NotEmpty(t, m.view.RoundID)
	assert.Equal(t, 4, m.view.Wager)
	require.NotEmpty(t, m.events)

	for m.view.Phase == game.PlayerTurn.String() {
		press(t, m, key("s"))
		require.Empty(t, m.lastErr)
	}

	assert.Equal(t, game.Finished.String(), m.view.Phase)
	require.NotNil(t, m.view.Last)
	assert.Equal(t, 1, m.view.Rounds)
	assert.Len(t, m.events, 2)
	assert.Contains(t, m.View(), m.view.Last.Result)
}

func TestRejectedActionShowsError(t *testing.T) {
	m := newModel(t)
	press(t, m, key("h"))
	assert.Contains(t, m.lastErr, "cannot hit")
	assert.Contains(t, m.View(), "cannot hit")

	press(t, m, key("d"))
	assert.Empty(t, m.lastErr)
}

func TestQuit(t *testing.T) {
	m := newModel(t)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.True(t, m.quitting)
	assert.Empty(t, m.View())
}

func TestPushKeepsNewestView(t *testing.T) {
	m := newModel(t)
	m.push(table.View{Phase: "first"})
	m.push(table.View{Phase: "second"})
	v := <-m.updates
	assert.Equal(t, "second", v.Phase)
}

func TestHelpToggle(t *testing.T) {
	m := newModel(t)
	assert.NotContains(t, m.View(), "raise wager")
	press(t, m, key("?"))
	assert.True(t, m.help.ShowAll)
	assert.Contains(t, m.View(), "raise wager")
}

func TestRenderCard(t *testing.T) {
	assert.Equal(t, "A♥", renderCard("hearts_ace"))
	assert.Equal(t, "10♠", renderCard("spades_10"))
	assert.Equal(t, "??", renderCard(table.HiddenCard))
	assert.Equal(t, "bogus", renderCard("bogus"))
}

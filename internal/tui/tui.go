// Package tui is a terminal front end for a single local table.
package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/game"
	"github.com/lox/blackjack/internal/table"
)

const maxEvents = 8

// viewMsg carries a table update into the program.
type viewMsg table.View

// actionMsg reports the result of a key-driven table action.
type actionMsg struct {
	action string
	err    error
}

// Model is the Bubble Tea model for playing at one table.
type Model struct {
	table  *table.Table
	logger *log.Logger
	keys   KeyMap
	help   help.Model

	updates     chan table.View
	unsubscribe func()

	view     table.View
	wager    int
	events   []string
	lastErr  string
	quitting bool
}

// New creates a model bound to t, starting with the given wager.
func New(t *table.Table, wager int, logger *log.Logger) *Model {
	m := &Model{
		table:   t,
		logger:  logger.WithPrefix("tui"),
		keys:    DefaultKeyMap(),
		help:    help.New(),
		updates: make(chan table.View, 1),
		view:    t.State(),
		wager:   t.Rules().ClampWager(wager),
	}
	m.unsubscribe = t.Subscribe(m.push)
	return m
}

// push keeps only the newest view when the program falls behind.
func (m *Model) push(v table.View) {
	for {
		select {
		case m.updates <- v:
			return
		default:
		}
		select {
		case <-m.updates:
		default:
		}
	}
}

func (m *Model) waitForView() tea.Cmd {
	return func() tea.Msg {
		v, ok := <-m.updates
		if !ok {
			return nil
		}
		return viewMsg(v)
	}
}

// Close stops receiving table updates.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

// Init starts listening for table updates.
func (m *Model) Init() tea.Cmd {
	return m.waitForView()
}

// Update handles key presses and table updates.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width

	case viewMsg:
		m.apply(table.View(msg))
		return m, m.waitForView()

	case actionMsg:
		if msg.err != nil {
			m.lastErr = describeError(msg.err)
			m.logger.Debug("action rejected", "action", msg.action, "error", msg.err)
		} else {
			m.lastErr = ""
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.Close()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Deal):
			wager := m.wager
			return m, m.do("deal", func() error { return m.table.Deal(wager) })
		case key.Matches(msg, m.keys.Hit):
			return m, m.do("hit", m.table.Hit)
		case key.Matches(msg, m.keys.Stand):
			return m, m.do("stand", m.table.Stand)
		case key.Matches(msg, m.keys.Double):
			return m, m.do("double", m.table.DoubleDown)
		case key.Matches(msg, m.keys.Split):
			return m, m.do("split", m.table.Split)
		case key.Matches(msg, m.keys.RaiseBet):
			m.wager = m.view.Rules.ClampWager(m.wager + 1)
		case key.Matches(msg, m.keys.LowerBet):
			m.wager = m.view.Rules.ClampWager(m.wager - 1)
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}
	return m, nil
}

func (m *Model) do(action string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return actionMsg{action: action, err: fn()}
	}
}

// apply takes a new view and records notable transitions as events.
func (m *Model) apply(v table.View) {
	prev := m.view
	m.view = v
	m.wager = v.Rules.ClampWager(m.wager)

	if v.RoundID != "" && v.RoundID != prev.RoundID {
		m.addEvent(fmt.Sprintf("New round, wager %d", v.Wager))
	}
	if v.Last != nil && (prev.Last == nil || prev.Last.RoundID != v.Last.RoundID) {
		m.addEvent(fmt.Sprintf("%s: dealer %d, you %s, net %+d",
			v.Last.Result, v.Last.DealerScore, joinInts(v.Last.PlayerScores), v.Last.Net))
	}
}

func (m *Model) addEvent(e string) {
	m.events = append(m.events, e)
	if len(m.events) > maxEvents {
		m.events = m.events[len(m.events)-maxEvents:]
	}
}

// View renders the table.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	v := m.view

	header := HeaderStyle.Render(fmt.Sprintf("Blackjack · %s · %s", v.TableID, v.Phase))

	var dealer strings.Builder
	dealer.WriteString(LabelStyle.Render("Dealer"))
	dealer.WriteString("\n")
	dealer.WriteString(renderHand(v.Dealer, v.DealerHidden))

	var player strings.Builder
	player.WriteString(LabelStyle.Render("You"))
	player.WriteString("\n")
	for i, h := range v.Hands {
		if i > 0 {
			player.WriteString("\n")
		}
		line := renderHand(h, false)
		if h.Active && len(v.Hands) > 1 {
			line = "> " + line
		}
		player.WriteString(line)
	}

	panes := lipgloss.JoinVertical(lipgloss.Left,
		PaneStyle.Render(dealer.String()),
		m.paneStyle().Render(player.String()),
	)

	var status strings.Builder
	status.WriteString(fmt.Sprintf("Wager: %d (limits %d-%d)", m.wager, v.Rules.MinBet, v.Rules.MaxBet))
	if v.Wager > 0 {
		status.WriteString(fmt.Sprintf("  On table: %d", v.Wagered()))
	}
	status.WriteString(fmt.Sprintf("  Rounds: %d", v.Rounds))
	if v.Last != nil {
		status.WriteString("\n")
		status.WriteString(renderOutcome(v.Last))
	}
	if m.lastErr != "" {
		status.WriteString("\n")
		status.WriteString(LoseStyle.Render(m.lastErr))
	}

	events := InfoStyle.Render(strings.Join(m.events, "\n"))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		panes,
		status.String(),
		m.renderActions(),
		events,
		m.help.View(m.keys),
	)
}

func (m *Model) paneStyle() lipgloss.Style {
	if m.view.Phase == game.PlayerTurn.String() && !m.view.Dealing {
		return ActivePaneStyle
	}
	return PaneStyle
}

func (m *Model) renderActions() string {
	if m.view.Dealing {
		return ActionsStyle.Render("Dealing...")
	}
	if len(m.view.Actions) == 0 {
		return ActionsStyle.Render("Dealer playing...")
	}
	labels := make([]string, len(m.view.Actions))
	for i, a := range m.view.Actions {
		labels[i] = "[" + a + "]"
	}
	return ActionsStyle.Render("Actions: " + strings.Join(labels, " "))
}

func renderHand(h table.HandView, hidden bool) string {
	if len(h.Cards) == 0 {
		return InfoStyle.Render("(no cards)")
	}
	cards := make([]string, len(h.Cards))
	for i, name := range h.Cards {
		cards[i] = renderCard(name)
	}
	line := strings.Join(cards, " ")

	switch {
	case hidden:
		line += InfoStyle.Render(fmt.Sprintf("  showing %d", h.Value))
	case h.Blackjack:
		line += WinStyle.Render("  Blackjack!")
	case h.Bust:
		line += LoseStyle.Render(fmt.Sprintf("  bust %d", h.Value))
	case h.Soft:
		line += InfoStyle.Render(fmt.Sprintf("  soft %d", h.Value))
	default:
		line += InfoStyle.Render(fmt.Sprintf("  %d", h.Value))
	}
	return line
}

func renderCard(name string) string {
	if name == table.HiddenCard {
		return HiddenCardStyle.Render("??")
	}
	c, err := deck.ParseName(name)
	if err != nil {
		return HiddenCardStyle.Render(name)
	}
	if c.IsRed() {
		return RedCardStyle.Render(c.String())
	}
	return BlackCardStyle.Render(c.String())
}

func renderOutcome(o *table.Outcome) string {
	text := fmt.Sprintf("%s  paid %d on %d (net %+d)", o.Result, o.Payout, o.Stake, o.Net)
	switch o.Result {
	case game.Win.String():
		return WinStyle.Render(text)
	case game.Lose.String():
		return LoseStyle.Render(text)
	default:
		return DrawStyle.Render(text)
	}
}

func describeError(err error) string {
	var actionErr *game.ActionError
	switch {
	case errors.As(err, &actionErr):
		return actionErr.Error()
	case errors.Is(err, table.ErrBusy):
		return "wait for the deal to finish"
	default:
		return err.Error()
	}
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, "/")
}

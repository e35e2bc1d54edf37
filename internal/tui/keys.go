package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap lists the table's key bindings.
type KeyMap struct {
	Deal     key.Binding
	Hit      key.Binding
	Stand    key.Binding
	Double   key.Binding
	Split    key.Binding
	RaiseBet key.Binding
	LowerBet key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Deal: key.NewBinding(
			key.WithKeys("d", "enter", " "),
			key.WithHelp("d", "deal"),
		),
		Hit: key.NewBinding(
			key.WithKeys("h"),
			key.WithHelp("h", "hit"),
		),
		Stand: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "stand"),
		),
		Double: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "double"),
		),
		Split: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "split"),
		),
		RaiseBet: key.NewBinding(
			key.WithKeys("+", "=", "up"),
			key.WithHelp("+", "raise wager"),
		),
		LowerBet: key.NewBinding(
			key.WithKeys("-", "_", "down"),
			key.WithHelp("-", "lower wager"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "more keys"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Deal, k.Hit, k.Stand, k.Double, k.Split, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Deal, k.Hit, k.Stand},
		{k.Double, k.Split},
		{k.RaiseBet, k.LowerBet},
		{k.Help, k.Quit},
	}
}

package game

// Phase is the round phase. It fully determines which actions are legal.
type Phase int

const (
	Waiting Phase = iota
	PlayerTurn
	DealerTurn
	Finished
)

var phaseNames = [...]string{
	Waiting:    "WAITING",
	PlayerTurn: "PLAYER_TURN",
	DealerTurn: "DEALER_TURN",
	Finished:   "FINISHED",
}

func (p Phase) String() string {
	if p < Waiting || p > Finished {
		return "UNKNOWN"
	}
	return phaseNames[p]
}

// ParsePhase parses a phase name. The bool is false for unknown names so the
// caller decides whether to keep its current value.
func ParsePhase(s string) (Phase, bool) {
	for i, name := range phaseNames {
		if name == s {
			return Phase(i), true
		}
	}
	return Waiting, false
}

// Result is the outcome of a hand or round. Ordinals are part of the audit
// wire format and must not be reordered.
type Result int

const (
	Win Result = iota
	Lose
	Draw
	Unfinished
)

func (r Result) String() string {
	switch r {
	case Win:
		return "WIN"
	case Lose:
		return "LOSE"
	case Draw:
		return "DRAW"
	case Unfinished:
		return "UNFINISHED"
	default:
		return "UNKNOWN"
	}
}

// Valid reports whether r is one of the four defined results.
func (r Result) Valid() bool {
	return r >= Win && r <= Unfinished
}

// Action is one of the discrete player inputs a table exposes.
type Action int

const (
	Deal Action = iota
	Hit
	Stand
	DoubleDown
	Split
	// DealerPlay is the dealer's automatic step. It is never a player input.
	DealerPlay
)

func (a Action) String() string {
	switch a {
	case Deal:
		return "deal"
	case Hit:
		return "hit"
	case Stand:
		return "stand"
	case DoubleDown:
		return "double"
	case Split:
		return "split"
	case DealerPlay:
		return "dealer"
	default:
		return "unknown"
	}
}

// ParseAction maps an action name to an Action.
func ParseAction(s string) (Action, bool) {
	switch s {
	case "deal":
		return Deal, true
	case "hit":
		return Hit, true
	case "stand":
		return Stand, true
	case "double", "double_down", "doubledown":
		return DoubleDown, true
	case "split":
		return Split, true
	}
	return Deal, false
}

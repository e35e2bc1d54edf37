package game

import (
	"errors"
	"fmt"
)

var (
	// ErrIllegalAction means the action is not allowed in the current phase
	// or hand state.
	ErrIllegalAction = errors.New("illegal action")
	// ErrInvalidHand means a hand index was out of range.
	ErrInvalidHand = errors.New("invalid hand index")
)

// ActionError describes a rejected action. The game state is unchanged.
type ActionError struct {
	Action Action
	Phase  Phase
	Reason string
	Err    error
}

func (e *ActionError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("cannot %s in phase %s", e.Action, e.Phase)
	}
	return fmt.Sprintf("cannot %s in phase %s: %s", e.Action, e.Phase, e.Reason)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}

func (g *Game) reject(action Action, reason string) error {
	g.logger.Warn("action rejected", "action", action, "phase", g.phase, "reason", reason)
	return &ActionError{Action: action, Phase: g.phase, Reason: reason, Err: ErrIllegalAction}
}

func (g *Game) rejectHand(action Action, index int) error {
	g.logger.Warn("invalid hand index", "action", action, "index", index, "hands", len(g.playerHands))
	return &ActionError{
		Action: action,
		Phase:  g.phase,
		Reason: fmt.Sprintf("hand %d of %d", index, len(g.playerHands)),
		Err:    ErrInvalidHand,
	}
}

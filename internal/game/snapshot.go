package game

import (
	"encoding/json"
	"fmt"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/evaluator"
)

// Snapshot is the persisted form of a round. Cards are stored by name. The
// shoe is not persisted; a restored round draws from a fresh shuffle.
type Snapshot struct {
	Phase            string     `json:"phase"`
	DoubledDown      bool       `json:"doubledDown"`
	HasSplit         bool       `json:"hasSplit"`
	CurrentHandIndex int        `json:"currentHandIndex"`
	PlayerHands      [][]string `json:"playerHands"`
	DealerHand       []string   `json:"dealerHand"`
	Decks            int        `json:"decks,omitempty"`
}

// snapshotWire accepts both the current layout and the older single-hand
// layout that stored one "playerHand" list.
type snapshotWire struct {
	Phase            string     `json:"phase"`
	DoubledDown      bool       `json:"doubledDown"`
	HasSplit         bool       `json:"hasSplit"`
	CurrentHandIndex int        `json:"currentHandIndex"`
	PlayerHands      [][]string `json:"playerHands"`
	PlayerHand       []string   `json:"playerHand"`
	DealerHand       []string   `json:"dealerHand"`
	Decks            int        `json:"decks"`
}

// TakeSnapshot captures the round state.
func (g *Game) TakeSnapshot() Snapshot {
	s := Snapshot{
		Phase:            g.phase.String(),
		DoubledDown:      g.doubledDown,
		HasSplit:         g.hasSplit,
		CurrentHandIndex: g.currentHand,
		PlayerHands:      make([][]string, len(g.playerHands)),
		DealerHand:       deck.Names(g.dealerHand),
		Decks:            g.decks,
	}
	for i, h := range g.playerHands {
		s.PlayerHands[i] = deck.Names(h)
	}
	return s
}

// EncodeSnapshot serializes the round state as JSON.
func EncodeSnapshot(g *Game) ([]byte, error) {
	return json.Marshal(g.TakeSnapshot())
}

// DecodeSnapshot parses a snapshot. When "playerHands" is absent and the
// legacy "playerHand" list is present, it becomes the only hand. Field values
// are not validated here; Restore reports the ones it cannot apply.
func DecodeSnapshot(data []byte) (Snapshot, error) {
	var w snapshotWire
	if err := json.Unmarshal(data, &w); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	s := Snapshot{
		Phase:            w.Phase,
		DoubledDown:      w.DoubledDown,
		HasSplit:         w.HasSplit,
		CurrentHandIndex: w.CurrentHandIndex,
		DealerHand:       w.DealerHand,
		Decks:            w.Decks,
	}
	switch {
	case w.PlayerHands != nil:
		s.PlayerHands = w.PlayerHands
	case w.PlayerHand != nil:
		s.PlayerHands = [][]string{w.PlayerHand}
	}
	return s, nil
}

// RestoreReport lists the snapshot fields that were ignored because they
// could not be parsed. Ignored fields keep their default value.
type RestoreReport struct {
	Ignored []string
}

// OK reports whether every field was applied.
func (r RestoreReport) OK() bool {
	return len(r.Ignored) == 0
}

func (r *RestoreReport) ignore(format string, args ...any) {
	r.Ignored = append(r.Ignored, fmt.Sprintf(format, args...))
}

// Restore replaces the game state with s. Unknown phase names and bad card
// names are skipped and reported rather than failing the whole restore. The
// split flag follows the hand count; a snapshot that disagrees is reported.
func (g *Game) Restore(s Snapshot) RestoreReport {
	var report RestoreReport

	g.Reset()
	if s.Decks != 0 {
		g.SetDecks(s.Decks)
	}

	if phase, ok := ParsePhase(s.Phase); ok {
		g.phase = phase
	} else {
		report.ignore("phase %q", s.Phase)
	}
	g.doubledDown = s.DoubledDown

	g.playerHands = make([]evaluator.Hand, 0, len(s.PlayerHands))
	for i, names := range s.PlayerHands {
		g.playerHands = append(g.playerHands, parseHand(names, fmt.Sprintf("playerHands[%d]", i), &report))
	}
	g.dealerHand = parseHand(s.DealerHand, "dealerHand", &report)

	// A round holds one hand, or exactly two once split.
	if len(g.playerHands) > 2 {
		report.ignore("playerHands[2:] (%d hands)", len(g.playerHands))
		g.playerHands = g.playerHands[:2]
	}
	g.hasSplit = len(g.playerHands) == 2
	if s.HasSplit != g.hasSplit {
		report.ignore("hasSplit %t with %d hands", s.HasSplit, len(g.playerHands))
	}

	if g.phase == PlayerTurn || g.phase == DealerTurn {
		g.shoe = deck.NewShoe(g.decks, g.rng)
		if len(g.playerHands) == 0 {
			g.playerHands = []evaluator.Hand{{}}
		}
	}

	if s.CurrentHandIndex >= 0 && (s.CurrentHandIndex < len(g.playerHands) || s.CurrentHandIndex == 0) {
		g.currentHand = s.CurrentHandIndex
	} else {
		report.ignore("currentHandIndex %d", s.CurrentHandIndex)
	}

	if !report.OK() {
		g.logger.Warn("snapshot restored with ignored fields", "ignored", report.Ignored)
	}
	return report
}

func parseHand(names []string, field string, report *RestoreReport) evaluator.Hand {
	h := make(evaluator.Hand, 0, len(names))
	for j, name := range names {
		c, err := deck.ParseName(name)
		if err != nil {
			report.ignore("%s[%d]: %v", field, j, err)
			continue
		}
		h = append(h, c)
	}
	return h
}

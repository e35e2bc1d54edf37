package table

import (
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/evaluator"
	"github.com/lox/blackjack/internal/game"
)

// HiddenCard stands in for the dealer's hole card during the player turn.
const HiddenCard = "hidden"

// HandView is a hand as shown to players.
type HandView struct {
	Cards     []string `json:"cards"`
	Value     int      `json:"value"`
	Soft      bool     `json:"soft,omitempty"`
	Bust      bool     `json:"bust,omitempty"`
	Blackjack bool     `json:"blackjack,omitempty"`
	Active    bool     `json:"active,omitempty"`
}

// Outcome summarises the last finished round.
type Outcome struct {
	RoundID      string   `json:"roundId"`
	Result       string   `json:"result"`
	Stake        int      `json:"stake"`
	Payout       int      `json:"payout"`
	Net          int      `json:"net"`
	DealerScore  int      `json:"dealerScore"`
	PlayerScores []int    `json:"playerScores"`
	HandResults  []string `json:"handResults"`
}

// View is a read-only picture of the table.
type View struct {
	TableID      string     `json:"tableId"`
	RoundID      string     `json:"roundId,omitempty"`
	Phase        string     `json:"phase"`
	Hands        []HandView `json:"hands"`
	CurrentHand  int        `json:"currentHand"`
	Dealer       HandView   `json:"dealer"`
	DealerHidden bool       `json:"dealerHidden"`
	Actions      []string   `json:"actions"`
	Wager        int        `json:"wager"`
	Split        bool       `json:"split"`
	Doubled      bool       `json:"doubled"`
	Dealing      bool       `json:"dealing"`
	Rules        game.Rules `json:"rules"`
	Rounds       int        `json:"rounds"`
	Last         *Outcome   `json:"last,omitempty"`
}

// State returns the current view.
func (t *Table) State() View {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.viewLocked()
}

func (t *Table) viewLocked() View {
	g := t.game
	v := View{
		TableID:     t.id,
		RoundID:     t.roundID,
		Phase:       g.Phase().String(),
		CurrentHand: g.CurrentHandIndex(),
		Wager:       t.wager,
		Split:       g.HasSplit(),
		Doubled:     g.HasDoubledDown(),
		Dealing:     t.dealing,
		Rules:       t.rules,
		Rounds:      t.audit.Len(),
		Last:        t.last,
	}

	hands := g.PlayerHands()
	v.Hands = make([]HandView, len(hands))
	for i, h := range hands {
		v.Hands[i] = handView(h, !g.HasSplit())
		v.Hands[i].Active = g.Phase() == game.PlayerTurn && i == g.CurrentHandIndex()
	}

	dealer := g.DealerHand()
	if g.Phase() == game.PlayerTurn && len(dealer) > 1 {
		v.DealerHidden = true
		v.Dealer = handView(dealer[:1], false)
		v.Dealer.Cards = append(v.Dealer.Cards, HiddenCard)
	} else {
		v.Dealer = handView(dealer, true)
	}

	if !t.dealing {
		for _, a := range g.ValidActions() {
			v.Actions = append(v.Actions, a.String())
		}
	}
	return v
}

func handView(h evaluator.Hand, naturalAllowed bool) HandView {
	return HandView{
		Cards:     deck.Names(h),
		Value:     evaluator.Value(h),
		Soft:      evaluator.IsSoft(h),
		Bust:      evaluator.IsBust(h),
		Blackjack: naturalAllowed && evaluator.IsBlackjack(h),
	}
}

// Wagered returns the total stake on the table: the wager per hand, doubled
// if the round was doubled down.
func (v View) Wagered() int {
	stake := v.Wager
	if v.Doubled {
		stake *= 2
	}
	return stake * max(1, len(v.Hands))
}

package game

import (
	"io"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/evaluator"
)

// Game is the state of a single blackjack table round. It is not safe for
// concurrent use; the owning table sequences every call.
type Game struct {
	shoe  *deck.Shoe
	rng   *rand.Rand
	decks int

	playerHands []evaluator.Hand
	dealerHand  evaluator.Hand
	phase       Phase
	currentHand int
	hasSplit    bool
	doubledDown bool

	logger *log.Logger
}

// Option configures a Game during creation.
type Option func(*Game)

// WithRNG sets the random source used for every shuffle, making rounds
// reproducible.
func WithRNG(rng *rand.Rand) Option {
	return func(g *Game) {
		g.rng = rng
	}
}

// WithDecks sets the number of decks in the shoe, clamped to [1,8].
func WithDecks(n int) Option {
	return func(g *Game) {
		g.decks = deck.ClampDecks(n)
	}
}

// WithLogger sets the logger. The default discards output.
func WithLogger(logger *log.Logger) Option {
	return func(g *Game) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a game in the Waiting phase.
func New(opts ...Option) *Game {
	g := &Game{
		decks:  deck.MinDecks,
		phase:  Waiting,
		logger: log.New(io.Discard),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// StartRound builds and shuffles a fresh shoe, clears all hands and flags
// and enters PlayerTurn with one empty player hand. No cards are dealt.
func (g *Game) StartRound() {
	g.shoe = deck.NewShoe(g.decks, g.rng)
	g.playerHands = []evaluator.Hand{{}}
	g.dealerHand = evaluator.Hand{}
	g.phase = PlayerTurn
	g.currentHand = 0
	g.hasSplit = false
	g.doubledDown = false
	g.logger.Debug("round started", "decks", g.decks, "cards", g.shoe.Remaining())
}

// StartRoundWithDecks is StartRound with a new deck count, clamped to [1,8].
func (g *Game) StartRoundWithDecks(n int) {
	g.SetDecks(n)
	g.StartRound()
}

// Reset discards the round and returns to Waiting.
func (g *Game) Reset() {
	g.shoe = nil
	g.playerHands = nil
	g.dealerHand = nil
	g.phase = Waiting
	g.currentHand = 0
	g.hasSplit = false
	g.doubledDown = false
	g.logger.Debug("game reset")
}

// Draw removes the top card from the shoe. An empty (or cleared) shoe is
// rebuilt with the configured deck count and reshuffled first.
func (g *Game) Draw() deck.Card {
	if g.shoe == nil {
		g.logger.Error("draw with no shoe, building a fresh one", "decks", g.decks)
		g.shoe = deck.NewShoe(g.decks, g.rng)
	}
	before := g.shoe.Reshuffles()
	c := g.shoe.Draw()
	if g.shoe.Reshuffles() != before {
		g.logger.Error("drew from empty shoe, emergency reshuffle", "decks", g.decks, "cards", g.shoe.Remaining()+1)
	}
	return c
}

// SetDecks changes the deck count used by the next shuffle.
func (g *Game) SetDecks(n int) {
	g.decks = deck.ClampDecks(n)
}

// Decks returns the configured deck count.
func (g *Game) Decks() int {
	return g.decks
}

// Shoe returns the current draw pile, building one if the game has none.
func (g *Game) Shoe() *deck.Shoe {
	if g.shoe == nil {
		g.shoe = deck.NewShoe(g.decks, g.rng)
	}
	return g.shoe
}

// Phase returns the current phase.
func (g *Game) Phase() Phase { return g.phase }

// CurrentHandIndex returns the index of the acting player hand.
func (g *Game) CurrentHandIndex() int { return g.currentHand }

// HasSplit reports whether the round has been split.
func (g *Game) HasSplit() bool { return g.hasSplit }

// HasDoubledDown reports whether any hand doubled this round. The flag is
// round-wide, not per split hand.
func (g *Game) HasDoubledDown() bool { return g.doubledDown }

// HandCount returns the number of player hands.
func (g *Game) HandCount() int { return len(g.playerHands) }

// DealerValue returns the dealer's current total.
func (g *Game) DealerValue() int { return evaluator.Value(g.dealerHand) }

// DealerHand returns a copy of the dealer hand.
func (g *Game) DealerHand() evaluator.Hand { return g.dealerHand.Clone() }

// PlayerHand returns a copy of hand i, or nil if i is out of range.
func (g *Game) PlayerHand(i int) evaluator.Hand {
	if !g.validHand(i) {
		return nil
	}
	return g.playerHands[i].Clone()
}

// PlayerHands returns copies of every player hand.
func (g *Game) PlayerHands() []evaluator.Hand {
	out := make([]evaluator.Hand, len(g.playerHands))
	for i, h := range g.playerHands {
		out[i] = h.Clone()
	}
	return out
}

// HandValue returns the value of player hand i, or 0 if i is out of range.
func (g *Game) HandValue(i int) int {
	if !g.validHand(i) {
		return 0
	}
	return evaluator.Value(g.playerHands[i])
}

// IsBlackjack reports a natural on the first player hand. Split rounds never
// have a natural.
func (g *Game) IsBlackjack() bool {
	return g.IsBlackjackForHand(0)
}

// IsBlackjackForHand reports a natural on hand i, excluding split hands.
func (g *Game) IsBlackjackForHand(i int) bool {
	if g.hasSplit || !g.validHand(i) {
		return false
	}
	return evaluator.IsBlackjack(g.playerHands[i])
}

// IsDealerBlackjack reports a dealer natural.
func (g *Game) IsDealerBlackjack() bool {
	return evaluator.IsBlackjack(g.dealerHand)
}

// ValidActions lists the actions the game would accept right now.
func (g *Game) ValidActions() []Action {
	switch g.phase {
	case Waiting, Finished:
		return []Action{Deal}
	case PlayerTurn:
		actions := []Action{Hit, Stand}
		if g.CanDoubleDown() {
			actions = append(actions, DoubleDown)
		}
		if g.CanSplit() {
			actions = append(actions, Split)
		}
		return actions
	default:
		return nil
	}
}

func (g *Game) validHand(i int) bool {
	return i >= 0 && i < len(g.playerHands)
}

func (g *Game) lastHand() bool {
	return g.currentHand >= len(g.playerHands)-1
}

// Package game implements the blackjack round state machine.
//
// The main type is Game, which owns the shoe, the player hands (one, or two
// after a split) and the dealer hand, and moves through the phases
// Waiting -> PlayerTurn -> DealerTurn -> Finished.
//
// # Basic Usage
//
// Dealing is driven by the caller so that it can be staged over time:
//
//	g := game.New(game.WithRNG(randutil.New(42)), game.WithDecks(6))
//	g.StartRound()
//	g.DealInitial() // or DealToPlayer/DealToDealer one card at a time
//	if err := g.Hit(); err != nil { ... }
//	g.Stand()
//	for {
//	    more, _ := g.DealerStep(rules.DealerHitsSoft17)
//	    if !more {
//	        break
//	    }
//	}
//	result := g.DetermineResult()
//
// # Errors
//
// Actions taken in the wrong phase return an *ActionError wrapping
// ErrIllegalAction and leave the game untouched. An empty shoe is never an
// error: it is rebuilt and reshuffled on the next draw.
//
// # Persistence
//
// EncodeSnapshot and DecodeSnapshot convert the table-visible state to and
// from JSON. Game.Restore applies a decoded snapshot and reports any fields
// it had to ignore.
package game

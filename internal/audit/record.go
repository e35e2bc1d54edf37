// Package audit records finished blackjack rounds and serves them back a
// page at a time, newest first.
//
// Records travel in a compact binary layout: two big-endian int64
// timestamps, then 32-bit LEB128 varints and single-byte booleans. The same
// layout is embedded in page responses.
package audit

import (
	"time"

	"github.com/lox/blackjack/internal/game"
)

// Record is the audit entry for one finished round. It is not modified after
// it is appended to a log.
type Record struct {
	StartMillis  int64
	EndMillis    int64
	Result       game.Result
	Bet          int
	Payout       int
	DoubledDown  bool
	Split        bool
	DealerScore  int
	PlayerScores []int
}

// NewRecord builds a record from a settled round.
func NewRecord(start, end time.Time, s game.Settlement) Record {
	return Record{
		StartMillis:  start.UnixMilli(),
		EndMillis:    end.UnixMilli(),
		Result:       s.Result,
		Bet:          s.TotalStake,
		Payout:       s.TotalPayout,
		DoubledDown:  s.Doubled,
		Split:        s.Split,
		DealerScore:  s.DealerScore,
		PlayerScores: s.Scores(),
	}
}

// Start returns the round start time.
func (r Record) Start() time.Time {
	return time.UnixMilli(r.StartMillis)
}

// End returns the round end time.
func (r Record) End() time.Time {
	return time.UnixMilli(r.EndMillis)
}

// Duration is how long the round took.
func (r Record) Duration() time.Duration {
	return time.Duration(r.EndMillis-r.StartMillis) * time.Millisecond
}

// Net is the player's profit on the round.
func (r Record) Net() int {
	return r.Payout - r.Bet
}

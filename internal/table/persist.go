package table

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lox/blackjack/internal/fileutil"
	"github.com/lox/blackjack/internal/game"
)

// Snapshot is the persisted state of a table between restarts.
type Snapshot struct {
	TableID       string          `json:"tableId"`
	Rules         game.Rules      `json:"rules"`
	Wager         int             `json:"wager"`
	RoundID       string          `json:"roundId,omitempty"`
	StartedMillis int64           `json:"startedMs,omitempty"`
	Game          json.RawMessage `json:"game"`
}

// Snapshot captures the table.
func (t *Table) Snapshot() (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	data, err := game.EncodeSnapshot(t.game)
	if err != nil {
		return Snapshot{}, fmt.Errorf("encode game: %w", err)
	}
	s := Snapshot{
		TableID: t.id,
		Rules:   t.rules,
		Wager:   t.wager,
		RoundID: t.roundID,
		Game:    data,
	}
	if !t.started.IsZero() {
		s.StartedMillis = t.started.UnixMilli()
	}
	return s, nil
}

// Restore replaces the table state with s and resumes any staged sequence
// the round was in. Fields the game could not parse are returned in the
// report.
func (t *Table) Restore(s Snapshot) (game.RestoreReport, error) {
	gs, err := game.DecodeSnapshot(s.Game)
	if err != nil {
		return game.RestoreReport{}, err
	}

	t.mu.Lock()
	t.generation++
	t.rules = s.Rules.Normalize()
	t.game.SetDecks(t.rules.NumberOfDecks)
	report := t.game.Restore(gs)
	t.wager = s.Wager
	t.roundID = s.RoundID
	t.started = time.Time{}
	if s.StartedMillis != 0 {
		t.started = time.UnixMilli(s.StartedMillis)
	}
	t.dealing = false
	if !report.OK() {
		t.logger.Warn("table restored with ignored fields", "ignored", report.Ignored)
	}
	t.resume()
	v := t.viewLocked()
	t.mu.Unlock()

	t.flush()
	t.publish(v)
	return report, nil
}

func (t *Table) resume() {
	switch t.game.Phase() {
	case game.PlayerTurn:
		if !t.game.HasSplit() && (len(t.game.PlayerHand(0)) < 2 || len(t.game.DealerHand()) < 2) {
			t.dealing = true
			t.dealNext()
		}
	case game.DealerTurn:
		t.schedule(t.delays.Reveal, t.dealerStep)
	case game.Finished:
		// Settled before the snapshot was taken; only the reset is pending.
		t.schedule(t.delays.Reset, t.resetLocked)
	}
}

// SaveTo writes the table snapshot to path atomically.
func (t *Table) SaveTo(path string) error {
	s, err := t.Snapshot()
	if err != nil {
		return err
	}
	if err := fileutil.WriteJSONAtomic(path, s); err != nil {
		return fmt.Errorf("save table %s: %w", t.id, err)
	}
	t.logger.Debug("snapshot saved", "path", path)
	return nil
}

// LoadFrom restores the table from a snapshot file written by SaveTo.
func (t *Table) LoadFrom(path string) (game.RestoreReport, error) {
	var s Snapshot
	if err := fileutil.ReadJSON(path, &s); err != nil {
		return game.RestoreReport{}, err
	}
	return t.Restore(s)
}

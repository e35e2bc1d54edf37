package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTrip(t *testing.T) {
	g := startRound(t, "hearts_8", "clubs_10", "spades_8", "diamonds_7", "hearts_10", "clubs_3")
	require.NoError(t, g.DealInitial())
	require.NoError(t, g.Split())
	require.NoError(t, g.Stand())

	data, err := EncodeSnapshot(g)
	require.NoError(t, err)

	s, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, "PLAYER_TURN", s.Phase)
	assert.Equal(t, [][]string{{"hearts_8", "hearts_10"}, {"spades_8", "clubs_3"}}, s.PlayerHands)

	restored := New(WithLogger(quietLogger()))
	report := restored.Restore(s)
	require.True(t, report.OK(), "ignored: %v", report.Ignored)

	assert.Equal(t, g.Phase(), restored.Phase())
	assert.Equal(t, g.PlayerHands(), restored.PlayerHands())
	assert.Equal(t, g.DealerHand(), restored.DealerHand())
	assert.Equal(t, 1, restored.CurrentHandIndex())
	assert.True(t, restored.HasSplit())

	require.NoError(t, restored.Hit())
}

func TestDecodeSnapshotLegacySingleHand(t *testing.T) {
	data := []byte(`{
		"phase": "PLAYER_TURN",
		"doubledDown": false,
		"hasSplit": false,
		"currentHandIndex": 0,
		"playerHand": ["hearts_ace", "spades_7"],
		"dealerHand": ["clubs_10", "diamonds_6"]
	}`)

	s, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"hearts_ace", "spades_7"}}, s.PlayerHands)

	g := New(WithLogger(quietLogger()))
	require.True(t, g.Restore(s).OK())
	assert.Equal(t, 1, g.HandCount())
	assert.Equal(t, 18, g.HandValue(0))
}

func TestDecodeSnapshotPrefersPlayerHands(t *testing.T) {
	data := []byte(`{"phase":"FINISHED","playerHands":[["hearts_2"]],"playerHand":["spades_k"]}`)

	s, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"hearts_2"}}, s.PlayerHands)
}

func TestRestoreIgnoresBadFields(t *testing.T) {
	data := []byte(`{
		"phase": "SHUFFLING",
		"playerHands": [["hearts_9", "moons_3", "spades_k"]],
		"dealerHand": ["clubs_1"],
		"currentHandIndex": 4
	}`)

	s, err := DecodeSnapshot(data)
	require.NoError(t, err)

	g := New(WithLogger(quietLogger()))
	report := g.Restore(s)

	assert.False(t, report.OK())
	assert.Len(t, report.Ignored, 4)
	assert.Equal(t, Waiting, g.Phase())
	assert.Equal(t, []string{"hearts_9", "spades_k"}, names(g.PlayerHand(0)))
	assert.Empty(t, g.DealerHand())
	assert.Equal(t, 0, g.CurrentHandIndex())
}

func TestDecodeSnapshotRejectsBadJSON(t *testing.T) {
	_, err := DecodeSnapshot([]byte(`{"phase":`))
	assert.Error(t, err)
}

func TestRestoreSplitFlagFollowsHands(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		split   bool
		hands   int
		ignored int
	}{
		{
			name:    "two hands without split flag",
			data:    `{"phase":"PLAYER_TURN","hasSplit":false,"playerHands":[["hearts_8","clubs_3"],["spades_8","diamonds_2"]],"dealerHand":["clubs_10","hearts_7"]}`,
			split:   true,
			hands:   2,
			ignored: 1,
		},
		{
			name:    "split flag with one hand",
			data:    `{"phase":"PLAYER_TURN","hasSplit":true,"playerHands":[["hearts_8","spades_8"]],"dealerHand":["clubs_10","hearts_7"]}`,
			split:   false,
			hands:   1,
			ignored: 1,
		},
		{
			name:    "three hands",
			data:    `{"phase":"PLAYER_TURN","hasSplit":true,"playerHands":[["hearts_8","clubs_3"],["spades_8","diamonds_2"],["clubs_8"]],"dealerHand":["clubs_10","hearts_7"]}`,
			split:   true,
			hands:   2,
			ignored: 1,
		},
		{
			name:    "hand index past single hand",
			data:    `{"phase":"PLAYER_TURN","playerHands":[["hearts_8","clubs_3"]],"dealerHand":["clubs_10","hearts_7"],"currentHandIndex":1}`,
			split:   false,
			hands:   1,
			ignored: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := DecodeSnapshot([]byte(tt.data))
			require.NoError(t, err)

			g := New(WithLogger(quietLogger()))
			report := g.Restore(s)

			assert.Len(t, report.Ignored, tt.ignored, report.Ignored)
			assert.Equal(t, tt.split, g.HasSplit())
			assert.Equal(t, tt.hands, g.HandCount())
			assert.Less(t, g.CurrentHandIndex(), g.HandCount())
		})
	}
}

func TestRestoredSplitPlaysBothHands(t *testing.T) {
	s, err := DecodeSnapshot([]byte(`{"phase":"PLAYER_TURN","hasSplit":false,"playerHands":[["hearts_8","clubs_3"],["spades_8","diamonds_2"]],"dealerHand":["clubs_10","hearts_7"]}`))
	require.NoError(t, err)

	g := New(WithLogger(quietLogger()))
	g.Restore(s)

	require.NoError(t, g.Stand())
	assert.Equal(t, PlayerTurn, g.Phase())
	assert.Equal(t, 1, g.CurrentHandIndex())
	assert.False(t, g.CanSplit())

	require.NoError(t, g.Stand())
	assert.Equal(t, DealerTurn, g.Phase())
}

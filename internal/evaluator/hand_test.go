package evaluator

import (
	"testing"

	"github.com/lox/blackjack/internal/deck"
	"github.com/lox/blackjack/internal/randutil"
	"github.com/stretchr/testify/assert"
)

func hand(names ...string) Hand {
	cards, err := deck.ParseNames(names...)
	if err != nil {
		panic(err)
	}
	return Hand(cards)
}

func TestValue(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		hand  Hand
		value int
		soft  bool
	}{
		{"empty", hand(), 0, false},
		{"two tens", hand("hearts_10", "spades_k"), 20, false},
		{"ace ten", hand("hearts_ace", "spades_10"), 21, true},
		{"ace six", hand("hearts_ace", "spades_6"), 17, true},
		{"two aces", hand("hearts_ace", "spades_ace"), 12, true},
		{"three aces", hand("hearts_ace", "spades_ace", "clubs_ace"), 13, true},
		{"four aces", hand("hearts_ace", "spades_ace", "clubs_ace", "diamonds_ace"), 14, true},
		{"four aces and seven", hand("hearts_ace", "spades_ace", "clubs_ace", "diamonds_ace", "hearts_7"), 21, true},
		{"ace demoted", hand("hearts_ace", "spades_9", "clubs_5"), 15, false},
		{"soft ace after draw", hand("hearts_ace", "spades_2", "clubs_4"), 17, true},
		{"six aces and ten", hand("hearts_ace", "diamonds_ace", "clubs_ace", "spades_ace", "hearts_ace", "diamonds_ace", "hearts_10"), 16, false},
		{"bust", hand("hearts_10", "spades_q", "clubs_5"), 25, false},
		{"faces", hand("hearts_j", "spades_q"), 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.value, Value(tt.hand))
			assert.Equal(t, tt.soft, IsSoft(tt.hand))
		})
	}
}

func TestValueOrderInvariant(t *testing.T) {
	t.Parallel()
	rng := randutil.New(11)
	shoe := deck.NewShoe(2, rng)
	for range 500 {
		n := 2 + rng.IntN(5)
		h := make(Hand, n)
		for i := range h {
			h[i] = shoe.Draw()
		}
		want := Value(h)
		for range 5 {
			p := h.Clone()
			rng.Shuffle(len(p), func(i, j int) { p[i], p[j] = p[j], p[i] })
			assert.Equal(t, want, Value(p), "hand %v permuted to %v", h, p)
			assert.Equal(t, IsSoftSeventeen(h), IsSoftSeventeen(p))
		}
	}
}

func TestValueMatchesIterativeAdjustment(t *testing.T) {
	t.Parallel()
	iterative := func(h Hand) int {
		total, aces := 0, 0
		for _, c := range h {
			total += c.BlackjackValue()
			if c.IsAce() {
				aces++
			}
		}
		for aces > 0 && total+10 <= 21 {
			total += 10
			aces--
		}
		return total
	}
	shoe := deck.NewShoe(4, randutil.New(3))
	for range 1000 {
		h := Hand{shoe.Draw(), shoe.Draw(), shoe.Draw()}
		assert.Equal(t, iterative(h), Value(h))
	}
}

func TestIsBlackjack(t *testing.T) {
	t.Parallel()
	assert.True(t, IsBlackjack(hand("hearts_ace", "spades_10")))
	assert.True(t, IsBlackjack(hand("clubs_k", "diamonds_ace")))
	assert.False(t, IsBlackjack(hand("hearts_7", "spades_7", "clubs_7")))
	assert.False(t, IsBlackjack(hand("hearts_ace", "spades_ace")))
	assert.False(t, IsBlackjack(hand("hearts_ace")))
}

func TestIsSoftSeventeen(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		hand Hand
		want bool
	}{
		{"ace six", hand("hearts_ace", "spades_6"), true},
		{"ace two four", hand("hearts_ace", "spades_2", "clubs_4"), true},
		{"ace ace five", hand("hearts_ace", "spades_ace", "clubs_5"), true},
		{"ace two two two", hand("hearts_ace", "spades_2", "clubs_2", "diamonds_2"), true},
		{"hard seventeen", hand("hearts_10", "spades_7"), false},
		{"nine eight", hand("hearts_9", "spades_8"), false},
		{"ace five", hand("hearts_ace", "spades_5"), false},
		{"ace seven", hand("hearts_ace", "spades_7"), false},
		{"ace ten six", hand("hearts_ace", "spades_10", "clubs_6"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSoftSeventeen(tt.hand))
			if tt.want {
				assert.Equal(t, 17, Value(tt.hand))
			}
		})
	}
}

func TestDealerShouldStand(t *testing.T) {
	t.Parallel()
	soft17 := hand("hearts_ace", "spades_6")
	hard17 := hand("hearts_10", "spades_7")
	eighteen := hand("hearts_ace", "spades_7")
	sixteen := hand("hearts_10", "spades_6")

	assert.True(t, DealerShouldStand(soft17, false))
	assert.False(t, DealerShouldStand(soft17, true))
	assert.True(t, DealerShouldStand(hard17, true))
	assert.True(t, DealerShouldStand(hard17, false))
	assert.True(t, DealerShouldStand(eighteen, true))
	assert.False(t, DealerShouldStand(sixteen, false))
}

func TestIsPair(t *testing.T) {
	t.Parallel()
	assert.True(t, IsPair(hand("hearts_8", "spades_8")))
	assert.True(t, IsPair(hand("hearts_k", "clubs_k")))
	assert.False(t, IsPair(hand("hearts_k", "clubs_q")))
	assert.False(t, IsPair(hand("hearts_8", "spades_8", "clubs_8")))
}

func TestDescribe(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "blackjack", Describe(hand("hearts_ace", "spades_q")))
	assert.Equal(t, "soft 17", Describe(hand("hearts_ace", "spades_6")))
	assert.Equal(t, "hard 20", Describe(hand("hearts_10", "spades_q")))
	assert.Equal(t, "bust 25", Describe(hand("hearts_10", "spades_q", "clubs_5")))
	assert.Equal(t, "empty", Describe(nil))
}

package audit

import (
	"sync"
	"testing"

	"github.com/lox/blackjack/internal/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// numbered returns n records whose Bet is their index in the log.
func numbered(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{StartMillis: int64(i), Bet: i, Result: game.Draw}
	}
	return out
}

func bets(records []Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.Bet
	}
	return out
}

func TestPaginateNewestFirst(t *testing.T) {
	all := numbered(25)

	p0 := Paginate(all, 0, 10)
	assert.Equal(t, []int{24, 23, 22, 21, 20, 19, 18, 17, 16, 15}, bets(p0.Records))
	assert.Equal(t, 25, p0.Total)

	p1 := Paginate(all, 1, 10)
	assert.Equal(t, []int{14, 13, 12, 11, 10, 9, 8, 7, 6, 5}, bets(p1.Records))
	assert.Equal(t, 25, p1.Total)

	p2 := Paginate(all, 2, 10)
	assert.Equal(t, []int{4, 3, 2, 1, 0}, bets(p2.Records))
	assert.Equal(t, 25, p2.Total)

	p3 := Paginate(all, 3, 10)
	assert.Empty(t, p3.Records)
	assert.Equal(t, 25, p3.Total)
}

func TestPaginateClamps(t *testing.T) {
	all := numbered(120)

	tests := []struct {
		name     string
		page     int
		size     int
		wantPage int
		wantSize int
		wantLen  int
	}{
		{"negative page", -3, 10, 0, 10, 10},
		{"zero size", 0, 0, 0, 1, 1},
		{"negative size", 0, -5, 0, 1, 1},
		{"size above max", 0, 500, 0, MaxPageSize, MaxPageSize},
		{"last partial page", 2, 50, 2, 50, 20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Paginate(all, tt.page, tt.size)
			assert.Equal(t, tt.wantPage, p.Page)
			assert.Equal(t, tt.wantSize, p.PageSize)
			assert.Len(t, p.Records, tt.wantLen)
			assert.Equal(t, 120, p.Total)
		})
	}
}

func TestPaginateEmpty(t *testing.T) {
	p := Paginate(nil, 0, 10)
	assert.Empty(t, p.Records)
	assert.Equal(t, 0, p.Total)
	assert.Equal(t, 0, p.Pages())
}

func TestLogConcurrentAppendAndPage(t *testing.T) {
	l := NewLog()
	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Append(Record{Bet: i})
			_ = l.Page(0, 10)
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, l.Len())
	assert.Equal(t, 100, l.Page(0, 10).Total)
}

func TestLogLast(t *testing.T) {
	l := NewLog(numbered(3)...)
	last, ok := l.Last()
	require.True(t, ok)
	assert.Equal(t, 2, last.Bet)
	assert.Equal(t, []int{0, 1, 2}, bets(l.Records()))

	_, ok = NewLog().Last()
	assert.False(t, ok)
}

func TestPageCache(t *testing.T) {
	c := NewPageCache()
	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put(PageResponse{PositionID: "a", Page: 0, Total: 3})
	c.Put(PageResponse{PositionID: "b", Page: 1, Total: 9})
	c.Put(PageResponse{PositionID: "a", Page: 2, Total: 4})

	a, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 2, a.Page)
	assert.Equal(t, 4, a.Total)

	c.Forget("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

// Package statistics accumulates per-round results for simulation reports.
package statistics

import (
	"fmt"
	"math"
	"sort"
)

// Kind buckets a round by how it was played.
type Kind int

const (
	Plain Kind = iota
	Natural
	Doubled
	Split
	numKinds
)

func (k Kind) String() string {
	switch k {
	case Plain:
		return "plain"
	case Natural:
		return "natural"
	case Doubled:
		return "doubled"
	case Split:
		return "split"
	default:
		return "unknown"
	}
}

// RoundResult is one settled round.
type RoundResult struct {
	Net   float64 // profit in wager units, negative on a loss
	Kind  Kind
	Seed  int64 // worker seed, for replay
	Index int   // round number within the worker
}

// KindStats tracks rounds of one kind.
type KindStats struct {
	Rounds int
	Wins   int
	SumNet float64
}

// Mean is the average net of rounds of this kind.
func (k KindStats) Mean() float64 {
	if k.Rounds == 0 {
		return 0
	}
	return k.SumNet / float64(k.Rounds)
}

// Statistics tracks the distribution of round results.
type Statistics struct {
	Rounds  int
	SumNet  float64
	SumNet2 float64 // sum of squares for variance
	Values  []float64

	// MaxValues caps Values; zero keeps every result.
	MaxValues int

	Kinds [numKinds]KindStats

	BestRound  float64
	WorstRound float64
}

// Mean returns the mean net per round.
func (s *Statistics) Mean() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.SumNet / float64(s.Rounds)
}

// Variance returns the sample variance.
func (s *Statistics) Variance() float64 {
	if s.Rounds < 2 {
		return 0
	}
	mean := s.Mean()
	return (s.SumNet2 - float64(s.Rounds)*mean*mean) / float64(s.Rounds-1)
}

// StdDev returns the sample standard deviation.
func (s *Statistics) StdDev() float64 {
	return math.Sqrt(max(0, s.Variance()))
}

// StdError returns the standard error of the mean.
func (s *Statistics) StdError() float64 {
	if s.Rounds == 0 {
		return 0
	}
	return s.StdDev() / math.Sqrt(float64(s.Rounds))
}

// ConfidenceInterval95 returns the 95% confidence interval for the mean.
func (s *Statistics) ConfidenceInterval95() (float64, float64) {
	mean := s.Mean()
	margin := 1.96 * s.StdError()
	return mean - margin, mean + margin
}

// Add records one round.
func (s *Statistics) Add(r RoundResult) {
	if s.Rounds == 0 || r.Net > s.BestRound {
		s.BestRound = r.Net
	}
	if s.Rounds == 0 || r.Net < s.WorstRound {
		s.WorstRound = r.Net
	}
	s.Rounds++
	s.SumNet += r.Net
	s.SumNet2 += r.Net * r.Net
	if s.MaxValues == 0 || len(s.Values) < s.MaxValues {
		s.Values = append(s.Values, r.Net)
	}

	if r.Kind >= 0 && r.Kind < numKinds {
		k := &s.Kinds[r.Kind]
		k.Rounds++
		k.SumNet += r.Net
		if r.Net > 0 {
			k.Wins++
		}
	}
}

// Merge folds o into s.
func (s *Statistics) Merge(o *Statistics) {
	if o.Rounds == 0 {
		return
	}
	if s.Rounds == 0 || o.BestRound > s.BestRound {
		s.BestRound = o.BestRound
	}
	if s.Rounds == 0 || o.WorstRound < s.WorstRound {
		s.WorstRound = o.WorstRound
	}
	s.Rounds += o.Rounds
	s.SumNet += o.SumNet
	s.SumNet2 += o.SumNet2
	for _, v := range o.Values {
		if s.MaxValues > 0 && len(s.Values) >= s.MaxValues {
			break
		}
		s.Values = append(s.Values, v)
	}
	for i := range s.Kinds {
		s.Kinds[i].Rounds += o.Kinds[i].Rounds
		s.Kinds[i].Wins += o.Kinds[i].Wins
		s.Kinds[i].SumNet += o.Kinds[i].SumNet
	}
}

// Median returns the median of the kept values.
func (s *Statistics) Median() float64 {
	return s.Percentile(0.5)
}

// Percentile returns the value at p in [0,1], interpolating between the kept
// values.
func (s *Statistics) Percentile(p float64) float64 {
	if len(s.Values) == 0 {
		return 0
	}
	sorted := make([]float64, len(s.Values))
	copy(sorted, s.Values)
	sort.Float64s(sorted)

	p = min(max(p, 0), 1)
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

// Validate checks that the per-kind buckets add up to the totals.
func (s *Statistics) Validate() error {
	if s.Rounds <= 0 {
		return fmt.Errorf("invalid round count: %d", s.Rounds)
	}
	rounds, net := 0, 0.0
	for i, k := range s.Kinds {
		if k.Wins > k.Rounds {
			return fmt.Errorf("%s: wins (%d) exceed rounds (%d)", Kind(i), k.Wins, k.Rounds)
		}
		rounds += k.Rounds
		net += k.SumNet
	}
	if rounds != s.Rounds {
		return fmt.Errorf("kind rounds total (%d) does not match rounds (%d)", rounds, s.Rounds)
	}
	if math.Abs(net-s.SumNet) > 1e-6 {
		return fmt.Errorf("ledger mismatch: total %.6f, by kind %.6f", s.SumNet, net)
	}
	if s.MaxValues == 0 && len(s.Values) != s.Rounds {
		return fmt.Errorf("values length (%d) does not match rounds (%d)", len(s.Values), s.Rounds)
	}
	return nil
}

package llm

import (
	"slices"
	"sync"
	"time"
)

type sample struct {
	at         time.Time
	total      time.Duration
	firstToken time.Duration
	failed     bool
}

// StatsSnapshot aggregates the chat calls inside the rolling window.
// Latency figures cover successful calls only.
type StatsSnapshot struct {
	Count        int     `json:"count"`
	Errors       int     `json:"errors"`
	MinMs        int64   `json:"min_ms"`
	MaxMs        int64   `json:"max_ms"`
	AvgMs        float64 `json:"avg_ms"`
	P50Ms        float64 `json:"p50_ms"`
	P95Ms        float64 `json:"p95_ms"`
	P99Ms        float64 `json:"p99_ms"`
	FirstTokenMs float64 `json:"first_token_p50_ms"`
}

// Stats tracks recent chat completion latencies.
type Stats struct {
	mu      sync.Mutex
	samples []sample
	window  time.Duration
	now     func() time.Time
}

func NewStats(window time.Duration) *Stats {
	if window <= 0 {
		window = time.Hour
	}
	return &Stats{
		samples: make([]sample, 0, 256),
		window:  window,
		now:     time.Now,
	}
}

// Record stores one call. firstToken is the delay until the first fragment
// arrived, zero if none did.
func (s *Stats) Record(total, firstToken time.Duration, err error) {
	total = max(total, 0)
	firstToken = max(firstToken, 0)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	s.samples = append(s.samples, sample{
		at:         now,
		total:      total,
		firstToken: firstToken,
		failed:     err != nil,
	})
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked(s.now())

	var snap StatsSnapshot
	var totals, firsts []int64
	var sum int64
	for _, sm := range s.samples {
		if sm.failed {
			snap.Errors++
			continue
		}
		ms := sm.total.Milliseconds()
		totals = append(totals, ms)
		sum += ms
		if sm.firstToken > 0 {
			firsts = append(firsts, sm.firstToken.Milliseconds())
		}
	}
	snap.Count = len(totals)
	if len(totals) == 0 {
		return snap
	}
	slices.Sort(totals)
	slices.Sort(firsts)

	snap.MinMs = totals[0]
	snap.MaxMs = totals[len(totals)-1]
	snap.AvgMs = float64(sum) / float64(len(totals))
	snap.P50Ms = percentile(totals, 50)
	snap.P95Ms = percentile(totals, 95)
	snap.P99Ms = percentile(totals, 99)
	snap.FirstTokenMs = percentile(firsts, 50)
	return snap
}

func (s *Stats) pruneLocked(now time.Time) {
	cutoff := now.Add(-s.window)
	s.samples = slices.DeleteFunc(s.samples, func(sm sample) bool {
		return sm.at.Before(cutoff)
	})
}

// percentile interpolates linearly between the two nearest ranks.
func percentile(sorted []int64, pct float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if pct <= 0 {
		return float64(sorted[0])
	}
	if pct >= 100 {
		return float64(sorted[len(sorted)-1])
	}

	index := (float64(len(sorted)-1) * pct) / 100.0
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return float64(sorted[lower])
	}
	weight := index - float64(lower)
	lo := float64(sorted[lower])
	hi := float64(sorted[upper])
	return lo + ((hi - lo) * weight)
}

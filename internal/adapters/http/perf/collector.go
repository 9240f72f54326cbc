// Package perf keeps a bounded window of request and query timings for the
// admin performance endpoint.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the capacity used when none is given.
const DefaultRingSize = 10000

// Kind distinguishes request timings from query timings.
type Kind uint8

const (
	KindRequest Kind = iota
	KindQuery
)

// Sample is one timing held in the ring.
type Sample struct {
	Kind     Kind
	Label    string // "METHOD /route" for requests, the SQL op for queries
	Status   int    // HTTP status; zero for queries
	Duration time.Duration
	At       time.Time
}

// Collector is a fixed-size ring of samples. When full, the oldest sample is
// overwritten. Aggregation happens on read only.
type Collector struct {
	mu      sync.Mutex
	samples []Sample
	next    int
	total   atomic.Int64
	now     func() time.Time
}

// NewCollector returns a collector holding up to size samples.
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{samples: make([]Sample, size), now: time.Now}
}

// Record stores s, overwriting the oldest sample when the ring is full.
func (c *Collector) Record(s Sample) {
	c.mu.Lock()
	c.samples[c.next] = s
	c.next = (c.next + 1) % len(c.samples)
	c.mu.Unlock()
	c.total.Add(1)
}

// ObserveQuery records one SQL statement. Its signature matches
// storage.QueryObserver so it can be handed to storage.NewTimedDB.
func (c *Collector) ObserveQuery(op string, d time.Duration) {
	c.Record(Sample{Kind: KindQuery, Label: op, Duration: d, At: c.now()})
}

// TotalRecorded is the number of samples ever recorded, including overwritten ones.
func (c *Collector) TotalRecorded() int64 {
	return c.total.Load()
}

// Stat aggregates the samples of one label.
type Stat struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	AvgMs float64 `json:"avg_ms"`
	MaxMs float64 `json:"max_ms"`
	sumMs float64
}

// Snapshot summarises the samples recorded since a point in time.
type Snapshot struct {
	TotalRecorded  int64   `json:"total_recorded"`
	Requests       int     `json:"requests"`
	RequestP50Ms   float64 `json:"request_p50_ms"`
	RequestP95Ms   float64 `json:"request_p95_ms"`
	RequestP99Ms   float64 `json:"request_p99_ms"`
	ServerErrors   int     `json:"server_errors"`
	SlowestRoutes  []Stat  `json:"slowest_routes"`
	SlowestQueries []Stat  `json:"slowest_queries"`
}

// Snapshot aggregates samples at or after since, listing the topN slowest
// labels by average duration for requests and queries.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Sample, len(c.samples))
	copy(buf, c.samples)
	c.mu.Unlock()

	routes := make(map[string]*Stat)
	queries := make(map[string]*Stat)
	var durations []float64
	snap := Snapshot{TotalRecorded: c.TotalRecorded()}

	for _, s := range buf {
		if s.At.IsZero() || s.At.Before(since) {
			continue
		}
		ms := float64(s.Duration.Microseconds()) / 1000.0
		group := queries
		if s.Kind == KindRequest {
			group = routes
			durations = append(durations, ms)
			if s.Status >= 500 {
				snap.ServerErrors++
			}
		}
		st, ok := group[s.Label]
		if !ok {
			st = &Stat{Label: s.Label}
			group[s.Label] = st
		}
		st.Count++
		st.sumMs += ms
		st.MaxMs = math.Max(st.MaxMs, ms)
	}

	snap.Requests = len(durations)
	if len(durations) > 0 {
		sort.Float64s(durations)
		snap.RequestP50Ms = percentile(durations, 50)
		snap.RequestP95Ms = percentile(durations, 95)
		snap.RequestP99Ms = percentile(durations, 99)
	}
	snap.SlowestRoutes = slowest(routes, topN)
	snap.SlowestQueries = slowest(queries, topN)
	return snap
}

// percentile interpolates the p-th percentile of sorted.
// PRE: sorted is ascending and non-empty
func percentile(sorted []float64, p float64) float64 {
	idx := (p / 100) * float64(len(sorted)-1)
	lo, hi := int(math.Floor(idx)), int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func slowest(stats map[string]*Stat, n int) []Stat {
	list := make([]Stat, 0, len(stats))
	for _, s := range stats {
		s.AvgMs = s.sumMs / float64(s.Count)
		list = append(list, *s)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs != list[j].AvgMs {
			return list[i].AvgMs > list[j].AvgMs
		}
		return list[i].Label < list[j].Label
	})
	if n > 0 && len(list) > n {
		list = list[:n]
	}
	return list
}

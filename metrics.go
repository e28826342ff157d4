package gofsh

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks conversion counters and optimizer pass timing using atomic
// operations. All methods are safe for concurrent use.
type Metrics struct {
	definitions atomic.Uint64
	instances   atomic.Uint64
	rules       atomic.Uint64

	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64

	passTiming sync.Map // map[string]*passMetrics
}

type passMetrics struct {
	invocations atomic.Uint64
	totalTime   atomic.Uint64 // nanoseconds
	rulesDelta  atomic.Int64
}

// NewMetrics creates a new Metrics instance.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordDefinition records one processed definition (profile, value set, ...).
func (m *Metrics) RecordDefinition() {
	m.definitions.Add(1)
}

// RecordInstance records one processed instance.
func (m *Metrics) RecordInstance() {
	m.instances.Add(1)
}

// RecordRules records emitted rules.
func (m *Metrics) RecordRules(n int) {
	if n > 0 {
		m.rules.Add(uint64(n))
	}
}

// RecordCacheHit records a cache hit.
func (m *Metrics) RecordCacheHit() {
	m.cacheHits.Add(1)
}

// RecordCacheMiss records a cache miss.
func (m *Metrics) RecordCacheMiss() {
	m.cacheMisses.Add(1)
}

// RecordPass records one optimizer pass run and the change in rule count it caused.
func (m *Metrics) RecordPass(name string, duration time.Duration, rulesDelta int) {
	pm := m.getOrCreatePassMetrics(name)
	pm.invocations.Add(1)
	pm.totalTime.Add(uint64(duration.Nanoseconds())) //nolint:gosec // durations are positive
	pm.rulesDelta.Add(int64(rulesDelta))
}

func (m *Metrics) getOrCreatePassMetrics(name string) *passMetrics {
	if v, ok := m.passTiming.Load(name); ok {
		return v.(*passMetrics)
	}
	actual, _ := m.passTiming.LoadOrStore(name, &passMetrics{})
	return actual.(*passMetrics)
}

// Definitions returns the number of processed definitions.
func (m *Metrics) Definitions() uint64 {
	return m.definitions.Load()
}

// Instances returns the number of processed instances.
func (m *Metrics) Instances() uint64 {
	return m.instances.Load()
}

// Rules returns the number of rules emitted by extraction.
func (m *Metrics) Rules() uint64 {
	return m.rules.Load()
}

// CacheHitRate returns the resolver cache hit rate (0.0 to 1.0).
func (m *Metrics) CacheHitRate() float64 {
	hits := m.cacheHits.Load()
	total := hits + m.cacheMisses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// PassStats holds statistics for one optimizer pass.
type PassStats struct {
	Name        string        `json:"name"`
	Invocations uint64        `json:"invocations"`
	TotalTime   time.Duration `json:"total_time"`
	RulesDelta  int64         `json:"rules_delta"`
}

// PassStats returns statistics for a specific pass.
func (m *Metrics) PassStats(name string) (PassStats, bool) {
	v, ok := m.passTiming.Load(name)
	if !ok {
		return PassStats{Name: name}, false
	}
	return toPassStats(name, v.(*passMetrics)), true
}

// AllPassStats returns statistics for all passes, sorted by name.
func (m *Metrics) AllPassStats() []PassStats {
	var stats []PassStats
	m.passTiming.Range(func(key, value any) bool {
		stats = append(stats, toPassStats(key.(string), value.(*passMetrics)))
		return true
	})
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

func toPassStats(name string, pm *passMetrics) PassStats {
	return PassStats{
		Name:        name,
		Invocations: pm.invocations.Load(),
		TotalTime:   time.Duration(pm.totalTime.Load()), //nolint:gosec // nanoseconds within int64 range
		RulesDelta:  pm.rulesDelta.Load(),
	}
}

// Snapshot is a point-in-time view of all metrics.
type Snapshot struct {
	Timestamp    time.Time   `json:"timestamp"`
	Definitions  uint64      `json:"definitions"`
	Instances    uint64      `json:"instances"`
	Rules        uint64      `json:"rules"`
	CacheHitRate float64     `json:"cache_hit_rate"`
	Passes       []PassStats `json:"passes,omitempty"`
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (m *Metrics) Snapshot() Snapshot {
	return Snapshot{
		Timestamp:    time.Now(),
		Definitions:  m.definitions.Load(),
		Instances:    m.instances.Load(),
		Rules:        m.rules.Load(),
		CacheHitRate: m.CacheHitRate(),
		Passes:       m.AllPassStats(),
	}
}

// Reset clears all metrics.
func (m *Metrics) Reset() {
	m.definitions.Store(0)
	m.instances.Store(0)
	m.rules.Store(0)
	m.cacheHits.Store(0)
	m.cacheMisses.Store(0)
	m.passTiming.Range(func(key, _ any) bool {
		m.passTiming.Delete(key)
		return true
	})
}

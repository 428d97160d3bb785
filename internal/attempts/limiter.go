package attempts

import (
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 32

// Config holds limiter tuning parameters.
type Config struct {
	Window      time.Duration
	MaxFailures int
}

// Limiter is a sharded sliding-window failure counter keyed by identity.
type Limiter struct {
	config Config
	shards [shardCount]shard
}

type shard struct {
	mu      sync.Mutex
	records map[string][]time.Time
}

// New creates a [Limiter]. Window and MaxFailures must be positive.
func New(cfg Config) *Limiter {
	l := &Limiter{config: cfg}
	for i := range l.shards {
		l.shards[i].records = make(map[string][]time.Time)
	}
	return l
}

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &l.shards[h.Sum32()%shardCount]
}

// Limited reports whether key has reached the failure threshold within the
// window ending at now. Stale timestamps are pruned as a side effect.
func (l *Limiter) Limited(key string, now time.Time) bool {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := prune(s.records[key], now.Add(-l.config.Window))
	if len(kept) == 0 {
		delete(s.records, key)
	} else {
		s.records[key] = kept
	}
	return len(kept) >= l.config.MaxFailures
}

// RecordFailure appends a failure at now for key, creating the record if
// absent. The window is pruned on the way in so records stay bounded.
func (l *Limiter) RecordFailure(key string, now time.Time) {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := prune(s.records[key], now.Add(-l.config.Window))
	s.records[key] = append(kept, now)
}

// Reset drops key's record entirely. Called after a successful login.
func (l *Limiter) Reset(key string) {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
}

// Failures returns the in-window failure count for key without mutating the
// stored record. Missing keys return zero.
func (l *Limiter) Failures(key string, now time.Time) int {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(prune(s.records[key], now.Add(-l.config.Window)))
}

// prune keeps only timestamps at or after cutoff. Timestamps arrive in
// append order, so a single scan for the first survivor suffices.
func prune(times []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(times) && times[i].Before(cutoff) {
		i++
	}
	if i == 0 {
		return times
	}
	return append([]time.Time(nil), times[i:]...)
}

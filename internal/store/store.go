package store

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hostpulse/vitals-agent/internal/collector"
	"github.com/hostpulse/vitals-agent/internal/stats"
)

// DefaultInterval is the polling cadence used when none is configured.
const DefaultInterval = 2 * time.Second

// Store holds the latest snapshot as process-wide observable state. It
// owns the polling cadence and the collector instance, performs one
// collection immediately on construction (which cannot yet carry rate
// fields), and replaces the published snapshot on every tick or refresh.
type Store struct {
	collector *collector.Collector
	interval  time.Duration

	// collectMu serializes sampling passes; the collector's previous-
	// sample state is the only shared mutable resource.
	collectMu sync.Mutex

	mu          sync.RWMutex
	latest      *stats.Snapshot
	subscribers map[*subscriber]struct{}
	closed      bool
	closeOnce   sync.Once
}

// New creates a Store and performs the initial collection to seed the
// collector's rate-engine baselines.
func New(c *collector.Collector, interval time.Duration) *Store {
	if interval <= 0 {
		interval = DefaultInterval
	}
	s := &Store{
		collector:   c,
		interval:    interval,
		subscribers: make(map[*subscriber]struct{}),
	}
	s.Refresh()
	return s
}

// Run re-collects on every tick until the context is canceled, then tears
// the store down.
func (s *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			log.Printf("stats store stopping: %v", ctx.Err())
			return
		case <-ticker.C:
			s.Refresh()
		}
	}
}

// Latest returns the most recently published snapshot.
func (s *Store) Latest() *stats.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Refresh performs an out-of-band sampling pass and publishes the result.
// Safe to call from any goroutine; passes never overlap.
func (s *Store) Refresh() *stats.Snapshot {
	s.collectMu.Lock()
	snapshot := s.collector.Collect()
	s.collectMu.Unlock()

	s.publish(snapshot)
	return snapshot
}

// Subscribe registers an observer that receives every newly published
// snapshot, starting with the current one. The returned function removes
// the subscription.
func (s *Store) Subscribe() (<-chan *stats.Snapshot, func()) {
	sub := newSubscriber()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		sub.close()
		return sub.channel(), func() {}
	}
	s.subscribers[sub] = struct{}{}
	if s.latest != nil {
		sub.send(s.latest)
	}
	s.mu.Unlock()

	return sub.channel(), func() { s.remove(sub) }
}

// Close tears down the store and closes all subscriber channels. Safe for
// repeated use.
func (s *Store) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		subs := make([]*subscriber, 0, len(s.subscribers))
		for sub := range s.subscribers {
			subs = append(subs, sub)
		}
		s.subscribers = make(map[*subscriber]struct{})
		s.mu.Unlock()

		for _, sub := range subs {
			sub.close()
		}
	})
}

func (s *Store) publish(snapshot *stats.Snapshot) {
	s.mu.Lock()
	s.latest = snapshot
	targets := make([]*subscriber, 0, len(s.subscribers))
	for sub := range s.subscribers {
		targets = append(targets, sub)
	}
	s.mu.Unlock()

	for _, sub := range targets {
		sub.send(snapshot)
	}
}

func (s *Store) remove(sub *subscriber) {
	s.mu.Lock()
	delete(s.subscribers, sub)
	s.mu.Unlock()
	sub.close()
}

// subscriber wraps a buffered channel that drops the oldest snapshot when
// a slow consumer falls behind.
type subscriber struct {
	ch     chan *stats.Snapshot
	mu     sync.Mutex
	closed bool
}

func newSubscriber() *subscriber {
	return &subscriber{ch: make(chan *stats.Snapshot, 1)}
}

func (s *subscriber) channel() <-chan *stats.Snapshot {
	return s.ch
}

func (s *subscriber) send(snapshot *stats.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.ch <- snapshot:
		return
	default:
	}
	select {
	case <-s.ch:
	default:
	}
	select {
	case s.ch <- snapshot:
	default:
	}
}

func (s *subscriber) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	close(s.ch)
	s.closed = true
}

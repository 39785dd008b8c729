package queue

import (
	"sync"
	"sync/atomic"
	"time"
)

// Statistics tracks queue performance metrics.
type Statistics struct {
	// Atomic counters for thread-safe updates
	pushes  int64
	pops    int64
	rejects int64
	blocked int64

	// Protected by mutex
	mu           sync.RWMutex
	startTime    time.Time
	currentDepth int64
	maxDepth     int64
}

// NewStatistics creates a new statistics tracker.
func NewStatistics() *Statistics {
	return &Statistics{
		startTime: time.Now(),
	}
}

// Push records a successful push operation.
func (s *Statistics) Push() {
	atomic.AddInt64(&s.pushes, 1)
}

// Pop records a pop of one item.
func (s *Statistics) Pop() {
	atomic.AddInt64(&s.pops, 1)
}

// Reject records a TryPush rejected at capacity.
func (s *Statistics) Reject() {
	atomic.AddInt64(&s.rejects, 1)
}

// Blocked records a push that had to wait for space.
func (s *Statistics) Blocked() {
	atomic.AddInt64(&s.blocked, 1)
}

// UpdateDepth updates the current queue depth.
func (s *Statistics) UpdateDepth(depth int64) {
	s.mu.Lock()
	s.currentDepth = depth
	if depth > s.maxDepth {
		s.maxDepth = depth
	}
	s.mu.Unlock()
}

// Pushes returns the total number of successful pushes.
func (s *Statistics) Pushes() int64 {
	return atomic.LoadInt64(&s.pushes)
}

// Pops returns the total number of popped items.
func (s *Statistics) Pops() int64 {
	return atomic.LoadInt64(&s.pops)
}

// Rejects returns the total number of rejected TryPush calls.
func (s *Statistics) Rejects() int64 {
	return atomic.LoadInt64(&s.rejects)
}

// BlockedWaits returns the total number of waits for space.
func (s *Statistics) BlockedWaits() int64 {
	return atomic.LoadInt64(&s.blocked)
}

// CurrentDepth returns the current number of queued items.
func (s *Statistics) CurrentDepth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentDepth
}

// MaxDepth returns the maximum depth the queue has reached.
func (s *Statistics) MaxDepth() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.maxDepth
}

// Throughput returns the average number of pushes per second.
func (s *Statistics) Throughput() float64 {
	s.mu.RLock()
	elapsed := time.Since(s.startTime)
	s.mu.RUnlock()

	if elapsed == 0 {
		return 0.0
	}

	return float64(s.Pushes()) / elapsed.Seconds()
}

// RejectRate returns the fraction of push attempts rejected at capacity (0.0 to 1.0).
func (s *Statistics) RejectRate() float64 {
	pushes := s.Pushes()
	rejects := s.Rejects()

	attempts := pushes + rejects
	if attempts == 0 {
		return 0.0
	}

	return float64(rejects) / float64(attempts)
}

// Uptime returns how long the queue has been running.
func (s *Statistics) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.startTime)
}

// StatsSummary is a snapshot of all statistics.
type StatsSummary struct {
	Pushes       int64         `json:"pushes"`
	Pops         int64         `json:"pops"`
	Rejects      int64         `json:"rejects"`
	BlockedWaits int64         `json:"blocked_waits"`
	CurrentDepth int64         `json:"current_depth"`
	MaxDepth     int64         `json:"max_depth"`
	Throughput   float64       `json:"throughput"`
	RejectRate   float64       `json:"reject_rate"`
	Uptime       time.Duration `json:"uptime"`
}

// Summary returns a snapshot of all statistics.
func (s *Statistics) Summary() StatsSummary {
	return StatsSummary{
		Pushes:       s.Pushes(),
		Pops:         s.Pops(),
		Rejects:      s.Rejects(),
		BlockedWaits: s.BlockedWaits(),
		CurrentDepth: s.CurrentDepth(),
		MaxDepth:     s.MaxDepth(),
		Throughput:   s.Throughput(),
		RejectRate:   s.RejectRate(),
		Uptime:       s.Uptime(),
	}
}

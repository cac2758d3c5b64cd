package embedgen

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// ProgressTracker reports throughput for long batch runs. Reports go to the
// configured writer every reportInterval records plus a final line on Finish.
type ProgressTracker struct {
	writer         io.Writer
	total          int
	current        int
	reportInterval int
	lastReported   int
	startTime      time.Time
	mu             sync.Mutex
}

func NewProgressTracker(writer io.Writer, total, reportInterval int) *ProgressTracker {
	if reportInterval <= 0 {
		reportInterval = 1
	}
	return &ProgressTracker{
		writer:         writer,
		total:          total,
		reportInterval: reportInterval,
	}
}

func (p *ProgressTracker) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.startTime = time.Now()
	p.current = 0
	p.lastReported = 0
}

// Update sets the absolute position and reports when the interval has passed.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = current
	if p.current-p.lastReported >= p.reportInterval || p.current >= p.total {
		p.report()
		p.lastReported = p.current
	}
}

// Increment advances the position by delta. Safe for concurrent workers.
func (p *ProgressTracker) Increment(delta int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current += delta
	if p.current-p.lastReported >= p.reportInterval || p.current >= p.total {
		p.report()
		p.lastReported = p.current
	}
}

func (p *ProgressTracker) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.report()
	fmt.Fprintln(p.writer)
}

func (p *ProgressTracker) Elapsed() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startTime.IsZero() {
		return 0
	}
	return time.Since(p.startTime)
}

// report assumes p.mu is held.
func (p *ProgressTracker) report() {
	elapsed := time.Since(p.startTime)
	if elapsed <= 0 {
		elapsed = time.Millisecond
	}
	rate := float64(p.current) / elapsed.Seconds()

	pct := 100.0
	if p.total > 0 {
		pct = float64(p.current) / float64(p.total) * 100
	}

	eta := "n/a"
	if rate > 0 && p.current < p.total {
		remaining := time.Duration(float64(p.total-p.current)/rate) * time.Second
		eta = remaining.Round(time.Second).String()
	}

	fmt.Fprintf(p.writer, "\rProgress: %d/%d (%.1f%%) - %.1f concepts/s - ETA %s",
		p.current, p.total, pct, rate, eta)
}

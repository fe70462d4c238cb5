package conflictkit

import (
	"sync"
	"sync/atomic"
	"time"
)

// pollScheduler is the cooperative timer driving background re-checks. One
// scheduler per Detector, no cross-instance sharing. Exactly one tick's
// work may be in flight at a time: a tick that fires while the previous
// check's fetch has not resolved is dropped, not queued, so overlapping
// checks against the same record cannot happen.
type pollScheduler struct {
	mu          sync.Mutex
	interval    time.Duration
	minInterval time.Duration
	maxInterval time.Duration
	ticker      *time.Ticker
	stop        chan struct{}
	paused      bool
	onTick      func()
	inFlight    atomic.Bool
}

func newPollScheduler() *pollScheduler {
	return &pollScheduler{
		minInterval: MinCheckInterval,
		maxInterval: MaxCheckInterval,
	}
}

// clamp pulls an interval into the scheduler's allowed band.
func (p *pollScheduler) clamp(d time.Duration) time.Duration {
	if d < p.minInterval {
		return p.minInterval
	}
	if d > p.maxInterval {
		return p.maxInterval
	}
	return d
}

// Start begins ticking at the clamped interval. Starting an already running
// scheduler is a no-op.
func (p *pollScheduler) Start(interval time.Duration, onTick func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop != nil {
		return
	}

	p.interval = p.clamp(interval)
	p.onTick = onTick
	p.paused = false
	p.ticker = time.NewTicker(p.interval)
	p.stop = make(chan struct{})

	go p.run(p.ticker, p.stop)
}

func (p *pollScheduler) run(ticker *time.Ticker, stop chan struct{}) {
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.mu.Lock()
			paused := p.paused
			onTick := p.onTick
			p.mu.Unlock()

			if paused || onTick == nil {
				continue
			}

			// Busy guard: drop the tick if the previous check is still in
			// flight.
			if !p.inFlight.CompareAndSwap(false, true) {
				continue
			}

			go func() {
				defer p.inFlight.Store(false)
				onTick()
			}()
		}
	}
}

// Pause suspends tick delivery without discarding the timer.
func (p *pollScheduler) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.paused = true
}

// Resume restarts tick delivery. The ticker is reset so the next tick fires
// one full interval from now; there is no immediate re-check on resume.
func (p *pollScheduler) Resume() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop == nil || !p.paused {
		return
	}

	p.paused = false
	p.ticker.Reset(p.interval)
}

// UpdateInterval changes the tick interval, clamped to the allowed band.
// Takes effect immediately when running.
func (p *pollScheduler) UpdateInterval(interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.interval = p.clamp(interval)
	if p.ticker != nil {
		p.ticker.Reset(p.interval)
	}
}

// Interval returns the effective (clamped) interval.
func (p *pollScheduler) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// Stop shuts the scheduler down. Idempotent: stopping a stopped scheduler
// is a no-op, never an error.
func (p *pollScheduler) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stop == nil {
		return
	}

	close(p.stop)
	p.stop = nil
	p.ticker = nil
	p.paused = false
}

// Active reports whether the scheduler is running and not paused.
func (p *pollScheduler) Active() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil && !p.paused
}

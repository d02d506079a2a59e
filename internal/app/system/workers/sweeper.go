// internal/app/system/workers/sweeper.go
package workers

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Sweepable drops expired state and reports how many entries it removed.
// ratelimit.Guard implements it.
type Sweepable interface {
	Sweep() int
}

// Sweeper is a background worker that periodically sweeps in-memory
// rate limiter windows so idle keys do not accumulate.
type Sweeper struct {
	targets  []Sweepable
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewSweeper creates a sweeper for targets.
//
// Parameters:
//   - logger: zap logger for logging
//   - interval: how often to sweep (e.g., 5 minutes)
//   - targets: the limiters to sweep
func NewSweeper(logger *zap.Logger, interval time.Duration, targets ...Sweepable) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sweeper{
		targets:  targets,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *Sweeper) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("rate limit sweeper started", zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish. It is safe
// to call more than once.
func (w *Sweeper) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		w.wg.Wait()
		w.log.Info("rate limit sweeper stopped")
	})
}

func (w *Sweeper) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *Sweeper) sweep() int {
	n := 0
	for _, t := range w.targets {
		n += t.Sweep()
	}
	if n > 0 {
		w.log.Debug("swept rate limit windows", zap.Int("count", n))
	}
	return n
}

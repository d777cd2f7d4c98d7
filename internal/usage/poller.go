package usage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultPollInterval is how often the poller runs an evaluation cycle.
const DefaultPollInterval = time.Minute

// Poller runs evaluation cycles periodically
type Poller struct {
	engine   *Engine
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger

	stopChan chan struct{}
	done     chan struct{}

	mu      sync.Mutex
	started bool
	stopped bool
}

// NewPoller creates a new poller. A timeout of zero leaves cycles unbounded.
func NewPoller(engine *Engine, interval, timeout time.Duration, logger zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Poller{
		engine:   engine,
		interval: interval,
		timeout:  timeout,
		logger:   logger.With().Str("component", "poller").Logger(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start begins polling. The first cycle runs immediately. Start after Stop
// is a no-op.
func (p *Poller) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.stopped {
		return
	}
	p.started = true

	go p.run()
	p.logger.Info().
		Dur("interval", p.interval).
		Msg("Usage poller started")
}

// Stop stops the poller and waits for an in-flight cycle to finish. It is
// safe to call on a poller that was never started.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	started := p.started
	p.mu.Unlock()

	close(p.stopChan)
	if started {
		<-p.done
	}
	p.logger.Info().Msg("Usage poller stopped")
}

// run is the main poller loop
func (p *Poller) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.poll()

	for {
		select {
		case <-ticker.C:
			p.poll()
		case <-p.stopChan:
			return
		}
	}
}

// poll runs a single cycle, cancelling it if the poller stops
func (p *Poller) poll() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if p.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	go func() {
		select {
		case <-p.stopChan:
			cancel()
		case <-ctx.Done():
		}
	}()

	summary := p.engine.RunCycle(ctx)
	if summary.Err != nil {
		p.logger.Warn().Err(summary.Err).Msg("Usage poll failed")
		return
	}

	p.logger.Debug().
		Float64("today_minutes", summary.TodayUsageMinutes).
		Int("entries", len(summary.Entries)).
		Bool("notified", summary.Notified).
		Msg("Usage poll complete")
}

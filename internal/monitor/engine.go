package monitor

import (
	"context"
	"errors"
	"fmt"
	"html"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/activity"
	"stockwatch/internal/metrics"
	"stockwatch/internal/models"
	"stockwatch/internal/registry"
	"stockwatch/internal/state"
	"stockwatch/internal/urlutil"
)

var (
	ErrAlreadyRunning = errors.New("monitoring already running")
	ErrNoTargets      = errors.New("no targets registered")
)

// DefaultInterval is the pause between two sweeps over the registry.
const DefaultInterval = 10 * time.Second

// StockChecker classifies one product page. Implementations absorb fetch
// failures into models.CheckFailed.
type StockChecker interface {
	Check(ctx context.Context, url string) models.StockStatus
}

// Notifier delivers an alert and reports whether it was accepted.
type Notifier interface {
	Send(ctx context.Context, message string) bool
}

// Options wires an Engine. States and Activity are created when nil.
type Options struct {
	Registry *registry.Registry
	States   *state.Store
	Activity *activity.Log
	Checker  StockChecker
	Notifier Notifier
	Interval time.Duration
	Logger   zerolog.Logger
}

// Status is the engine summary exposed to the management API.
type Status struct {
	Monitoring bool  `json:"monitoring"`
	CheckCount int64 `json:"check_count"`
	URLCount   int   `json:"url_count"`
}

// Engine owns the polling loop. At most one loop is active at a time; it
// walks the registry sequentially, records each status and notifies once
// per out-of-stock to in-stock transition.
type Engine struct {
	registry *registry.Registry
	states   *state.Store
	activity *activity.Log
	checker  StockChecker
	notifier Notifier
	interval time.Duration
	now      func() time.Time
	log      zerolog.Logger

	checkCount atomic.Int64

	// targetsMu pairs registry membership with the state store: a status is
	// only recorded for a URL that is still registered, and removal forgets
	// the status under the same lock.
	targetsMu sync.Mutex

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{} // closed when the most recent loop has exited
}

func New(opts Options) *Engine {
	if opts.States == nil {
		opts.States = state.New()
	}
	if opts.Activity == nil {
		opts.Activity = activity.New(activity.DefaultCapacity, opts.Logger)
	}
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	metrics.SetTargets(opts.Registry.Len())
	return &Engine{
		registry: opts.Registry,
		states:   opts.States,
		activity: opts.Activity,
		checker:  opts.Checker,
		notifier: opts.Notifier,
		interval: opts.Interval,
		now:      time.Now,
		log:      opts.Logger.With().Str("component", "monitor").Logger(),
	}
}

// Start launches the polling loop and returns immediately.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.running {
		return ErrAlreadyRunning
	}
	if e.registry.Len() == 0 {
		return ErrNoTargets
	}

	ctx, cancel := context.WithCancel(context.Background())
	prev := e.done
	done := make(chan struct{})
	e.running, e.cancel, e.done = true, cancel, done
	metrics.SetRunning(true)
	e.activity.Append("📡 monitoring started")
	e.log.Info().Dur("interval", e.interval).Msg("starting monitoring loop")

	go e.loop(ctx, prev, done)
	return nil
}

// Stop asks the loop to exit and returns without waiting. The loop notices
// between two checks or during the inter-cycle wait.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.running {
		return
	}
	e.running = false
	e.cancel()
	metrics.SetRunning(false)
	e.activity.Append("⏹️ monitoring stopped")
	e.log.Info().Msg("stopping monitoring loop")
}

// Shutdown stops the loop and waits for it to exit or for ctx to expire.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.Stop()

	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("monitoring loop did not exit: %w", ctx.Err())
	}
}

// Running reports whether a loop is active.
func (e *Engine) Running() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.running
}

// CheckCount is the number of cycles started since the process began.
func (e *Engine) CheckCount() int64 { return e.checkCount.Load() }

func (e *Engine) loop(ctx context.Context, prev <-chan struct{}, done chan struct{}) {
	defer close(done)

	// A stopped loop may still be finishing its in-flight check.
	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
			return
		}
	}

	for {
		if err := e.runCycle(ctx); err != nil {
			e.activity.Append("monitoring error: " + truncate(err.Error(), 50))
			e.log.Error().Err(err).Msg("monitoring loop terminated")
			e.finish(done)
			return
		}
		if !sleepCtx(ctx, e.interval) {
			return
		}
	}
}

// finish marks the engine idle after a fatal error, unless a newer loop
// has already taken over.
func (e *Engine) finish(done chan struct{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.done != done || !e.running {
		return
	}
	e.running = false
	e.cancel()
	metrics.SetRunning(false)
}

// runCycle performs one sweep. Any panic below it is returned as an error
// and ends the loop.
func (e *Engine) runCycle(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("unexpected failure: %v", r)
		}
	}()

	n := e.checkCount.Add(1)
	metrics.IncCycle()
	e.activity.Append(fmt.Sprintf("--- check #%d ---", n))

	for _, t := range e.registry.List() {
		if ctx.Err() != nil {
			return nil
		}
		if !e.registry.Contains(t.URL) {
			continue
		}
		e.checkTarget(ctx, t)
	}
	return nil
}

func (e *Engine) checkTarget(ctx context.Context, t models.Target) {
	title := t.Title
	if title == "" {
		title = urlutil.DeriveTitle(t.URL)
	}

	status := e.checker.Check(ctx, t.URL)
	if ctx.Err() != nil {
		// Stopped mid-check: the result says nothing about the page.
		return
	}
	tr, ok := e.observe(t.URL, status)
	if !ok {
		// Removed while the check was running.
		return
	}
	metrics.ObserveCheck(status.String())

	switch status {
	case models.InStock:
		e.activity.Append(fmt.Sprintf("🟢 [%s] in stock", title))
	case models.OutOfStock:
		e.activity.Append(fmt.Sprintf("🔴 [%s] out of stock", title))
	}

	if tr.HadPrevious && tr.Previous != tr.Current {
		metrics.ObserveTransition(tr.Previous.String(), tr.Current.String())
	}
	if !tr.Qualifies() {
		return
	}

	e.activity.Append(fmt.Sprintf("🚨 [%s] back in stock!", title))
	// The decision to notify is final; a Stop must not cancel delivery.
	sent := e.notifier.Send(context.WithoutCancel(ctx), e.alertMessage(title, t.URL))
	metrics.ObserveNotification(sent)
	if !sent {
		e.activity.Append(fmt.Sprintf("notification failed for [%s]", title))
	}
}

// observe records status unless url has left the registry.
func (e *Engine) observe(url string, status models.StockStatus) (state.Transition, bool) {
	e.targetsMu.Lock()
	defer e.targetsMu.Unlock()
	if !e.registry.Contains(url) {
		return state.Transition{}, false
	}
	return e.states.Observe(url, status), true
}

func (e *Engine) alertMessage(title, url string) string {
	return fmt.Sprintf("🎉 <b>Stock alert</b> 🎉\n\n📦 Back in stock!\n📝 %s\n🕐 %s\n🔗 %s",
		html.EscapeString(title), e.now().Format("15:04:05"), html.EscapeString(url))
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// DefaultTimeout bounds one delivery attempt, including rate-limit waiting.
const DefaultTimeout = 5 * time.Second

// ErrNotConfigured is returned by the Disabled transport.
var ErrNotConfigured = errors.New("notification transport not configured")

// Transport delivers a message to its destination.
type Transport interface {
	Send(ctx context.Context, message string) error
}

// Disabled is a Transport used when no credentials are configured.
type Disabled struct{}

func (Disabled) Send(context.Context, string) error { return ErrNotConfigured }

// Notifier sends best-effort notifications: failures are logged and
// reported as false, never retried.
type Notifier struct {
	transport Transport
	timeout   time.Duration
	limiter   *rate.Limiter
	log       zerolog.Logger
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(n *Notifier) {
		if d > 0 {
			n.timeout = d
		}
	}
}

// WithRatePerMinute caps sends per minute with a small burst. Zero or
// negative disables limiting.
func WithRatePerMinute(perMinute int) Option {
	return func(n *Notifier) {
		if perMinute <= 0 {
			n.limiter = nil
			return
		}
		n.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 5)
	}
}

func New(transport Transport, logger zerolog.Logger, opts ...Option) *Notifier {
	if transport == nil {
		transport = Disabled{}
	}
	n := &Notifier{
		transport: transport,
		timeout:   DefaultTimeout,
		log:       logger.With().Str("component", "notifier").Logger(),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Send delivers message and reports whether the transport accepted it.
func (n *Notifier) Send(ctx context.Context, message string) bool {
	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.deliver(ctx, message); err != nil {
		n.log.Warn().Err(err).Msg("notification not delivered")
		return false
	}
	n.log.Debug().Msg("notification delivered")
	return true
}

func (n *Notifier) deliver(ctx context.Context, message string) error {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limited: %w", err)
		}
	}

	// The transport may not honour ctx; do not let it hold the caller past
	// the deadline.
	done := make(chan error, 1)
	go func() { done <- n.transport.Send(ctx, message) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("send timed out: %w", ctx.Err())
	}
}

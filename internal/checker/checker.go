package checker

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"stockwatch/internal/models"
)

// DefaultPageTimeout bounds a single page fetch.
const DefaultPageTimeout = 20 * time.Second

// Button is an interactive element found on a product page.
type Button struct {
	Text   string
	Hidden bool
}

// Fetcher loads a product page and returns its purchase buttons in document order.
type Fetcher interface {
	FetchButtons(ctx context.Context, url string) ([]Button, error)
}

// Recorder receives human readable activity lines.
type Recorder interface {
	Append(msg string)
}

// Markers are the label fragments that classify a button. Matching is
// case-insensitive.
type Markers struct {
	InStock    []string
	OutOfStock []string
}

// DefaultMarkers match the Korean storefront labels ("add to shopping bag",
// "add", "contact an advisor") and their English counterparts.
var DefaultMarkers = Markers{
	InStock:    []string{"쇼핑백", "추가", "add"},
	OutOfStock: []string{"상담원", "advisor"},
}

// Checker classifies the stock status of a product page.
type Checker struct {
	fetcher  Fetcher
	markers  Markers
	timeout  time.Duration
	activity Recorder
	log      zerolog.Logger
}

// New creates a Checker. activity may be nil.
func New(fetcher Fetcher, markers Markers, timeout time.Duration, activity Recorder, logger zerolog.Logger) *Checker {
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	if len(markers.InStock) == 0 && len(markers.OutOfStock) == 0 {
		markers = DefaultMarkers
	}
	return &Checker{
		fetcher:  fetcher,
		markers:  markers,
		timeout:  timeout,
		activity: activity,
		log:      logger.With().Str("component", "checker").Logger(),
	}
}

// Check fetches url and classifies it. Fetch failures are logged and
// reported as CheckFailed; Check never returns an error.
func (c *Checker) Check(ctx context.Context, url string) models.StockStatus {
	pageCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	buttons, err := c.fetcher.FetchButtons(pageCtx, url)
	if err != nil {
		// Cancelled by the caller, not a page failure.
		if ctx.Err() != nil {
			return models.CheckFailed
		}
		c.log.Warn().Err(err).Str("url", url).Msg("page fetch failed")
		if c.activity != nil {
			c.activity.Append("check error: " + truncate(err.Error(), 50))
		}
		return models.CheckFailed
	}
	return c.markers.Classify(buttons)
}

// Classify scans visible buttons in order; the first one carrying a known
// marker decides the status. In-stock markers are tested first.
func (m Markers) Classify(buttons []Button) models.StockStatus {
	for _, b := range buttons {
		if b.Hidden {
			continue
		}
		label := strings.ToLower(b.Text)
		if containsAny(label, m.InStock) {
			return models.InStock
		}
		if containsAny(label, m.OutOfStock) {
			return models.OutOfStock
		}
	}
	return models.CheckFailed
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if n != "" && strings.Contains(s, strings.ToLower(n)) {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

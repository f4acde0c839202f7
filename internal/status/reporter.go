// Package status drives the loading indicator and the transient error banner.
package status

import (
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultErrorTimeout is how long an error banner stays up
const DefaultErrorTimeout = 5 * time.Second

// Surface is the part of the page the reporter toggles. Implementations must
// be safe to call from timer goroutines.
type Surface interface {
	SetGenerateEnabled(enabled bool)
	SetLoadingVisible(visible bool)
	ShowErrorBanner(message string)
	HideErrorBanner()
}

// Reporter shows loading state and errors on a Surface
type Reporter struct {
	surface      Surface
	clock        clock.Clock
	errorTimeout time.Duration
}

// Option configures a Reporter
type Option func(*Reporter)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c clock.Clock) Option {
	return func(r *Reporter) { r.clock = c }
}

// WithErrorTimeout overrides DefaultErrorTimeout
func WithErrorTimeout(d time.Duration) Option {
	return func(r *Reporter) {
		if d > 0 {
			r.errorTimeout = d
		}
	}
}

// NewReporter creates a Reporter for surface
func NewReporter(surface Surface, opts ...Option) *Reporter {
	r := &Reporter{
		surface:      surface,
		clock:        clock.New(),
		errorTimeout: DefaultErrorTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ShowLoading disables the generate control and reveals the loading
// indicator, or reverses both.
func (r *Reporter) ShowLoading(show bool) {
	r.surface.SetLoadingVisible(show)
	r.surface.SetGenerateEnabled(!show)
}

// ShowError reveals the banner with message and hides it after the timeout.
// Each call starts its own timer; an earlier timer may hide a later message.
func (r *Reporter) ShowError(message string) {
	r.surface.ShowErrorBanner(message)
	r.clock.AfterFunc(r.errorTimeout, r.surface.HideErrorBanner)
}

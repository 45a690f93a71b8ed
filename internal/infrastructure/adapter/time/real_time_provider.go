package time

import (
	"context"
	"time"

	"github.com/yiwen-ai/walletbase/internal/domain/port/core"
)

// RealTimeProvider implements the TimeProvider port with the real clock.
type RealTimeProvider struct{}

// NewRealTimeProvider creates a real time provider.
func NewRealTimeProvider() core.TimeProvider {
	return &RealTimeProvider{}
}

// Now returns the current time.
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}

// Since returns the time elapsed since t.
func (p *RealTimeProvider) Since(t time.Time) time.Duration {
	return time.Since(t)
}

// Sleep pauses the current goroutine for d.
func (p *RealTimeProvider) Sleep(d time.Duration) {
	time.Sleep(d)
}

// WithTimeout returns a context that is canceled after timeout.
func (p *RealTimeProvider) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

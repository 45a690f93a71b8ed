package time

import (
	"context"
	"sync"
	"time"

	"github.com/yiwen-ai/walletbase/internal/domain/port/core"
)

// MockTimeProvider implements the TimeProvider port with a manually advanced
// clock. Sleep returns immediately after recording the requested duration.
type MockTimeProvider struct {
	mu    sync.Mutex
	now   time.Time
	slept []time.Duration
}

// NewMockTimeProvider creates a mock clock starting at now.
func NewMockTimeProvider(now time.Time) *MockTimeProvider {
	return &MockTimeProvider{now: now}
}

var _ core.TimeProvider = (*MockTimeProvider)(nil)

// Now returns the mock current time.
func (p *MockTimeProvider) Now() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now
}

// Since returns the mock time elapsed since t.
func (p *MockTimeProvider) Since(t time.Time) time.Duration {
	return p.Now().Sub(t)
}

// Sleep records the duration and advances the clock without blocking.
func (p *MockTimeProvider) Sleep(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.slept = append(p.slept, d)
	p.now = p.now.Add(d)
}

// WithTimeout delegates to the real context machinery.
func (p *MockTimeProvider) WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// Advance moves the clock forward by d.
func (p *MockTimeProvider) Advance(d time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = p.now.Add(d)
}

// Slept returns the durations passed to Sleep so far.
func (p *MockTimeProvider) Slept() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]time.Duration(nil), p.slept...)
}

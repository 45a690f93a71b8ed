// Package payment holds payment gateway adapters. The fake gateway backs
// tests and dev mode; real provider adapters implement the same port.
package payment

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/xid"

	paymentport "github.com/yiwen-ai/walletbase/internal/domain/port/payment"
)

// FakeGateway is an in-process gateway that settles intents on demand. Tests
// flip an intent's state and then deliver the matching webhook themselves.
type FakeGateway struct {
	mu       sync.Mutex
	name     string
	intents  map[string]*paymentport.Intent
	failNext error
}

// NewFakeGateway creates a fake gateway registered under the given provider
// tag.
func NewFakeGateway(name string) *FakeGateway {
	return &FakeGateway{
		name:    name,
		intents: make(map[string]*paymentport.Intent),
	}
}

var _ paymentport.Gateway = (*FakeGateway)(nil)

// Name returns the provider tag.
func (g *FakeGateway) Name() string { return g.name }

// FailNext makes the next gateway call return err.
func (g *FakeGateway) FailNext(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failNext = err
}

func (g *FakeGateway) takeFailure() error {
	err := g.failNext
	g.failNext = nil
	return err
}

// CreateIntent opens a pending intent.
func (g *FakeGateway) CreateIntent(_ context.Context, amount int64, currency, _ string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return "", err
	}

	id := "pi_" + xid.New().String()
	g.intents[id] = &paymentport.Intent{
		ID:       id,
		Status:   paymentport.IntentPending,
		Amount:   amount,
		Currency: currency,
	}
	return id, nil
}

// QueryStatus returns the intent's current state.
func (g *FakeGateway) QueryStatus(_ context.Context, intentID string) (*paymentport.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return nil, err
	}

	intent, ok := g.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("unknown intent %q", intentID)
	}
	cp := *intent
	return &cp, nil
}

// Refund marks a succeeded intent refunded.
func (g *FakeGateway) Refund(_ context.Context, intentID string, _ int64) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.takeFailure(); err != nil {
		return "", err
	}

	intent, ok := g.intents[intentID]
	if !ok {
		return "", fmt.Errorf("unknown intent %q", intentID)
	}
	if intent.Status != paymentport.IntentSucceeded {
		return "", fmt.Errorf("intent %q not refundable in %q", intentID, intent.Status)
	}
	intent.Status = paymentport.IntentRefunded
	return "re_" + xid.New().String(), nil
}

// Settle flips an intent to the given status, as a provider would after the
// shopper pays or the card is declined.
func (g *FakeGateway) Settle(intentID string, status paymentport.IntentStatus, failureCode, failureMsg string) (*paymentport.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[intentID]
	if !ok {
		return nil, fmt.Errorf("unknown intent %q", intentID)
	}
	intent.Status = status
	intent.FailureCode = failureCode
	intent.FailureMsg = failureMsg
	cp := *intent
	return &cp, nil
}

package payment

import (
	"context"
)

// IntentStatus is the provider-side status of a payment intent.
type IntentStatus string

// Intent statuses reported by providers
const (
	IntentPending   IntentStatus = "pending"
	IntentSucceeded IntentStatus = "succeeded"
	IntentFailed    IntentStatus = "failed"
	IntentRefunded  IntentStatus = "refunded"
)

// Intent is the provider's view of a charge.
type Intent struct {
	ID          string
	Status      IntentStatus
	Amount      int64
	Currency    string
	FailureCode string
	FailureMsg  string
	Payload     []byte
}

// Gateway is the abstract payment provider contract. Webhook delivery is
// at-least-once; callers deduplicate by the provider charge id.
type Gateway interface {
	// Name returns the provider tag this gateway serves (e.g. "stripe").
	Name() string

	// CreateIntent opens a payment intent for the customer and returns its
	// provider id.
	CreateIntent(ctx context.Context, amount int64, currency, customer string) (string, error)

	// QueryStatus fetches the current provider-side state of an intent.
	QueryStatus(ctx context.Context, intentID string) (*Intent, error)

	// Refund reverses a succeeded intent and returns the provider refund id.
	Refund(ctx context.Context, intentID string, amount int64) (string, error)
}

// Registry maps provider tags to gateways. An unknown provider is rejected
// before any charge state is persisted.
type Registry struct {
	gateways map[string]Gateway
}

// NewRegistry builds a registry from the given gateways.
func NewRegistry(gateways ...Gateway) *Registry {
	r := &Registry{gateways: make(map[string]Gateway, len(gateways))}
	for _, gw := range gateways {
		r.gateways[gw.Name()] = gw
	}
	return r
}

// Get returns the gateway registered for the provider tag.
func (r *Registry) Get(provider string) (Gateway, bool) {
	gw, ok := r.gateways[provider]
	return gw, ok
}

// Providers returns the registered provider tags.
func (r *Registry) Providers() []string {
	names := make([]string, 0, len(r.gateways))
	for name := range r.gateways {
		names = append(names, name)
	}
	return names
}

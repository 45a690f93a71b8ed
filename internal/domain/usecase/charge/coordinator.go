// Package charge turns external fiat payments into topup transactions. A
// charge mirrors the transfer saga's status machine with its own negative
// side: it fails out of preparing/prepared and is refunded out of committed.
// Provider webhooks are at-least-once, so every handler here is idempotent.
package charge

import (
	"context"
	"fmt"

	"github.com/rs/xid"

	"github.com/yiwen-ai/walletbase/internal/domain/entity"
	errs "github.com/yiwen-ai/walletbase/internal/domain/error"
	coreport "github.com/yiwen-ai/walletbase/internal/domain/port/core"
	"github.com/yiwen-ai/walletbase/internal/domain/port/payment"
	"github.com/yiwen-ai/walletbase/internal/domain/port/persistence"
	"github.com/yiwen-ai/walletbase/internal/domain/usecase/transfer"
)

// CreateInput carries the parameters of a new charge. Quantity is the coin
// amount purchased, Amount the fiat price in the currency's minor units.
type CreateInput struct {
	UID      xid.ID
	Provider string
	Quantity int64
	Currency string
	Amount   int64
	Payload  []byte
}

// Coordinator owns the charge lifecycle. The wallet is only ever touched
// through a topup transaction the transfer coordinator runs, so a charge
// completing twice can still mint coins at most once.
type Coordinator struct {
	charges   persistence.ChargeStore
	customers persistence.CustomerStore
	transfers *transfer.Coordinator
	gateways  *payment.Registry
	logger    coreport.Logger
	tp        coreport.TimeProvider
	metrics   coreport.Metrics
}

// NewCoordinator creates a charge coordinator.
func NewCoordinator(
	charges persistence.ChargeStore,
	customers persistence.CustomerStore,
	transfers *transfer.Coordinator,
	gateways *payment.Registry,
	tp coreport.TimeProvider,
	logger coreport.Logger,
) *Coordinator {
	return &Coordinator{
		charges:   charges,
		customers: customers,
		transfers: transfers,
		gateways:  gateways,
		logger:    logger,
		tp:        tp,
		metrics:   coreport.NopMetrics(),
	}
}

// WithMetrics attaches operational counters.
func (c *Coordinator) WithMetrics(m coreport.Metrics) *Coordinator {
	c.metrics = m
	return c
}

// Create validates the request, records the charge, opens the provider
// intent and advances the charge to prepared. A provider failure marks the
// charge failed instead of leaving it dangling.
func (c *Coordinator) Create(ctx context.Context, in CreateInput) (*entity.Charge, error) {
	if in.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity %d", errs.ErrInvalidAmount, in.Quantity)
	}
	if in.UID == entity.SysID {
		return nil, fmt.Errorf("%w: system account cannot be charged", errs.ErrInvalidParticipant)
	}
	cur, err := entity.ParseCurrency(in.Currency)
	if err != nil {
		return nil, err
	}
	if err := cur.ValidAmount(in.Amount); err != nil {
		return nil, err
	}
	gw, ok := c.gateways.Get(in.Provider)
	if !ok {
		return nil, &errs.ProviderError{
			Provider: in.Provider, Code: "unknown_provider",
			Message: "no gateway registered",
		}
	}

	now := c.tp.Now().UnixMilli()
	ch := &entity.Charge{
		UID:       in.UID,
		ID:        xid.New(),
		Status:    entity.ChargeStatusPreparing,
		UpdatedAt: now,
		ExpireAt:  now + entity.ChargeExpire,
		Quantity:  in.Quantity,
		Currency:  cur.Alpha,
		Amount:    in.Amount,
		Provider:  in.Provider,
	}
	created, err := c.charges.Create(ctx, ch)
	if err != nil {
		return nil, err
	}
	if !created {
		return nil, fmt.Errorf("%w: charge %s", errs.ErrConflict, ch.ID)
	}

	customerID := ""
	if cust, err := c.customers.Get(ctx, in.UID, in.Provider); err == nil {
		customerID = cust.Customer
	} else if !errs.IsNotFoundError(err) {
		return nil, err
	}

	intentID, err := gw.CreateIntent(ctx, in.Amount, cur.Alpha, customerID)
	if err != nil {
		code, msg := "create_intent_failed", err.Error()
		if ferr := c.Fail(ctx, ch.UID, ch.ID, code, msg); ferr != nil {
			c.logger.Error("charge fail-out after intent error", map[string]any{
				"uid": ch.UID.String(), "charge": ch.ID.String(), "error": ferr.Error(),
			})
		}
		return nil, &errs.ProviderError{Provider: in.Provider, Code: code, Message: msg}
	}

	if _, err := c.charges.Update(ctx, ch.UID, ch.ID, entity.ChargeStatusPreparing, persistence.ChargeUpdate{
		ChargeID:      &intentID,
		ChargePayload: in.Payload,
	}); err != nil {
		return nil, err
	}
	if _, err := c.charges.SetStatus(ctx, ch.UID, ch.ID, entity.ChargeStatusPreparing, entity.ChargeStatusPrepared); err != nil {
		return nil, err
	}

	c.logger.Info("charge created", map[string]any{
		"uid":      ch.UID.String(),
		"charge":   ch.ID.String(),
		"provider": in.Provider,
		"currency": cur.Alpha,
		"amount":   in.Amount,
		"quantity": in.Quantity,
	})
	return c.charges.Get(ctx, ch.UID, ch.ID)
}

// Get returns a user's charge.
func (c *Coordinator) Get(ctx context.Context, uid, id xid.ID) (*entity.Charge, error) {
	return c.charges.Get(ctx, uid, id)
}

// List returns a user's charges, newest first.
func (c *Coordinator) List(ctx context.Context, uid xid.ID, status *int8, opts persistence.ListOptions) ([]entity.Charge, error) {
	return c.charges.List(ctx, uid, status, opts)
}

// HandleEvent processes one provider webhook delivery. Deliveries are
// deduplicated by the provider charge id plus the charge's own status
// machine; replays of a settled charge are acknowledged without effect.
func (c *Coordinator) HandleEvent(ctx context.Context, provider string, intent *payment.Intent) error {
	ch, err := c.charges.GetByProviderChargeID(ctx, provider, intent.ID)
	if err != nil {
		if errs.IsNotFoundError(err) {
			c.logger.Warn("webhook for unknown charge", map[string]any{
				"provider": provider, "intent": intent.ID,
			})
			return nil
		}
		return err
	}
	if ch.IsTerminal() {
		c.metrics.ChargeEvent(provider, "replayed")
		return nil
	}

	c.metrics.ChargeEvent(provider, string(intent.Status))
	switch intent.Status {
	case payment.IntentSucceeded:
		_, err := c.Complete(ctx, ch.UID, ch.ID, intent.Payload)
		return err
	case payment.IntentFailed:
		return c.Fail(ctx, ch.UID, ch.ID, intent.FailureCode, intent.FailureMsg)
	case payment.IntentRefunded:
		// the provider already moved the money back; only the coin side is
		// left to reverse, so the gateway must not be asked to refund again
		if ch.Status != entity.ChargeStatusCommitted {
			c.logger.Warn("refund event for unsettled charge", map[string]any{
				"provider": provider, "intent": intent.ID, "status": entity.ChargeStatusName(ch.Status),
			})
			return nil
		}
		_, err := c.reverse(ctx, ch)
		return err
	case payment.IntentPending:
		if intent.Payload != nil {
			_, err := c.charges.Update(ctx, ch.UID, ch.ID, ch.Status, persistence.ChargeUpdate{
				ChargePayload: intent.Payload,
			})
			return err
		}
		return nil
	default:
		c.logger.Warn("unhandled intent status", map[string]any{
			"provider": provider, "intent": intent.ID, "status": string(intent.Status),
		})
		return nil
	}
}

// Complete settles a paid charge: enter committing, run exactly one topup
// transaction, then mark the charge committed. The transaction id is
// recorded on the charge before the transfer starts, so a crash mid-way
// resumes the same transaction instead of minting a second topup.
func (c *Coordinator) Complete(ctx context.Context, uid, id xid.ID, providerPayload []byte) (*entity.Charge, error) {
	ch, err := c.charges.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}

	switch ch.Status {
	case entity.ChargeStatusCommitted:
		return ch, nil
	case entity.ChargeStatusCommitting:
		// resume a previous attempt
	case entity.ChargeStatusPreparing, entity.ChargeStatusPrepared:
		ok, err := c.charges.SetStatus(ctx, uid, id, ch.Status, entity.ChargeStatusCommitting)
		if err != nil {
			return nil, err
		}
		if !ok {
			ch, err = c.charges.Get(ctx, uid, id)
			if err != nil {
				return nil, err
			}
			switch ch.Status {
			case entity.ChargeStatusCommitted:
				return ch, nil
			case entity.ChargeStatusCommitting:
			default:
				return nil, &errs.StateTransitionError{
					UID: uid, Txn: id, From: ch.Status, To: entity.ChargeStatusCommitting,
				}
			}
		}
	default:
		return nil, &errs.StateTransitionError{
			UID: uid, Txn: id, From: ch.Status, To: entity.ChargeStatusCommitting,
		}
	}
	ch.Status = entity.ChargeStatusCommitting

	if providerPayload != nil {
		if _, err := c.charges.Update(ctx, uid, id, entity.ChargeStatusCommitting, persistence.ChargeUpdate{
			ChargePayload: providerPayload,
		}); err != nil {
			return nil, err
		}
	}

	if err := c.runTopup(ctx, ch); err != nil {
		return nil, err
	}

	ok, err := c.charges.SetStatus(ctx, uid, id, entity.ChargeStatusCommitting, entity.ChargeStatusCommitted)
	if err != nil {
		return nil, err
	}
	if !ok {
		ch, err = c.charges.Get(ctx, uid, id)
		if err != nil {
			return nil, err
		}
		if ch.Status != entity.ChargeStatusCommitted {
			return nil, &errs.StateTransitionError{
				UID: uid, Txn: id, From: ch.Status, To: entity.ChargeStatusCommitted,
			}
		}
		return ch, nil
	}

	c.logger.Info("charge committed", map[string]any{
		"uid":      uid.String(),
		"charge":   id.String(),
		"quantity": ch.Quantity,
	})
	return c.charges.Get(ctx, uid, id)
}

// runTopup executes the charge's topup transaction, creating it on first
// entry and resuming the recorded one on replays.
func (c *Coordinator) runTopup(ctx context.Context, ch *entity.Charge) error {
	if ch.Txn == nil {
		txn, err := c.transfers.Prepare(ctx, transfer.PrepareInput{
			Payer:       entity.SysID,
			Payee:       ch.UID,
			Kind:        entity.KindTopup,
			Amount:      ch.Quantity,
			Description: fmt.Sprintf("charge %s", ch.ID),
		})
		if err != nil {
			return err
		}
		if _, err := c.charges.Update(ctx, ch.UID, ch.ID, entity.ChargeStatusCommitting, persistence.ChargeUpdate{
			Txn: &txn.ID,
		}); err != nil {
			return err
		}
		ch.Txn = &txn.ID
	}

	txn, err := c.transfers.Get(ctx, entity.SysID, *ch.Txn)
	if err != nil {
		return err
	}
	if txn.Status == entity.StatusCommitted {
		return nil
	}
	if txn.Status == entity.StatusPreparing {
		if _, err := c.transfers.AdvanceToPrepared(ctx, entity.SysID, *ch.Txn); err != nil {
			return err
		}
	}
	_, err = c.transfers.Commit(ctx, entity.SysID, *ch.Txn)
	return err
}

// Fail marks an unpaid charge failed, recording the provider's reason. A
// charge already past prepared cannot fail.
func (c *Coordinator) Fail(ctx context.Context, uid, id xid.ID, code, msg string) error {
	ch, err := c.charges.Get(ctx, uid, id)
	if err != nil {
		return err
	}
	switch ch.Status {
	case entity.ChargeStatusFailed:
		return nil
	case entity.ChargeStatusPreparing, entity.ChargeStatusPrepared:
	default:
		return &errs.StateTransitionError{
			UID: uid, Txn: id, From: ch.Status, To: entity.ChargeStatusFailed,
		}
	}

	if _, err := c.charges.Update(ctx, uid, id, ch.Status, persistence.ChargeUpdate{
		FailureCode: &code,
		FailureMsg:  &msg,
	}); err != nil {
		return err
	}
	ok, err := c.charges.SetStatus(ctx, uid, id, ch.Status, entity.ChargeStatusFailed)
	if err != nil {
		return err
	}
	if !ok {
		ch, err = c.charges.Get(ctx, uid, id)
		if err != nil {
			return err
		}
		if ch.Status != entity.ChargeStatusFailed {
			return &errs.StateTransitionError{
				UID: uid, Txn: id, From: ch.Status, To: entity.ChargeStatusFailed,
			}
		}
	}

	c.logger.Info("charge failed", map[string]any{
		"uid": uid.String(), "charge": id.String(), "code": code,
	})
	return nil
}

// Refund reverses a committed charge: the reversing refund transaction is
// prepared first so the user still holding the coins is verified before any
// provider money moves, then the provider refund runs, then the coins are
// taken back and the charge marked refunded.
func (c *Coordinator) Refund(ctx context.Context, uid, id xid.ID) (*entity.Charge, error) {
	ch, err := c.charges.Get(ctx, uid, id)
	if err != nil {
		return nil, err
	}
	switch ch.Status {
	case entity.ChargeStatusRefunded:
		return ch, nil
	case entity.ChargeStatusCommitted:
	default:
		return nil, &errs.StateTransitionError{
			UID: uid, Txn: id, From: ch.Status, To: entity.ChargeStatusRefunded,
		}
	}
	gw, ok := c.gateways.Get(ch.Provider)
	if !ok {
		return nil, &errs.ProviderError{
			Provider: ch.Provider, Code: "unknown_provider",
			Message: "no gateway registered",
		}
	}

	reversing, err := c.transfers.Prepare(ctx, transfer.PrepareInput{
		Payer:       uid,
		Payee:       entity.SysID,
		Kind:        entity.KindRefund,
		Amount:      ch.Quantity,
		Description: fmt.Sprintf("refund charge %s", ch.ID),
	})
	if err != nil {
		return nil, err
	}

	if _, err := gw.Refund(ctx, ch.ChargeID, ch.Amount); err != nil {
		if _, cerr := c.transfers.Cancel(ctx, uid, reversing.ID); cerr != nil {
			c.logger.Error("reversing transaction cancel failed", map[string]any{
				"uid": uid.String(), "txn": reversing.ID.String(), "error": cerr.Error(),
			})
		}
		return nil, &errs.ProviderError{
			Provider: ch.Provider, Code: "refund_failed", Message: err.Error(),
		}
	}

	return c.settleRefund(ctx, ch, reversing.ID)
}

// reverse takes back the coins of a committed charge whose provider money is
// already returned, as reported by a refund webhook. No gateway call is made.
func (c *Coordinator) reverse(ctx context.Context, ch *entity.Charge) (*entity.Charge, error) {
	reversing, err := c.transfers.Prepare(ctx, transfer.PrepareInput{
		Payer:       ch.UID,
		Payee:       entity.SysID,
		Kind:        entity.KindRefund,
		Amount:      ch.Quantity,
		Description: fmt.Sprintf("refund charge %s", ch.ID),
	})
	if err != nil {
		return nil, err
	}
	return c.settleRefund(ctx, ch, reversing.ID)
}

// settleRefund commits the reversing transaction and flips the charge from
// committed to refunded, recording the refunded amount and transaction.
func (c *Coordinator) settleRefund(ctx context.Context, ch *entity.Charge, reversing xid.ID) (*entity.Charge, error) {
	if _, err := c.transfers.AdvanceToPrepared(ctx, ch.UID, reversing); err != nil {
		return nil, err
	}
	if _, err := c.transfers.Commit(ctx, ch.UID, reversing); err != nil {
		return nil, err
	}

	refunded := ch.Amount
	if _, err := c.charges.Update(ctx, ch.UID, ch.ID, entity.ChargeStatusCommitted, persistence.ChargeUpdate{
		AmountRefunded: &refunded,
		TxnRefunded:    &reversing,
	}); err != nil {
		return nil, err
	}
	if _, err := c.charges.SetStatus(ctx, ch.UID, ch.ID, entity.ChargeStatusCommitted, entity.ChargeStatusRefunded); err != nil {
		return nil, err
	}

	c.logger.Info("charge refunded", map[string]any{
		"uid": ch.UID.String(), "charge": ch.ID.String(), "amount": refunded,
	})
	return c.charges.Get(ctx, ch.UID, ch.ID)
}

// GetCustomer returns the user's provider identity mapping.
func (c *Coordinator) GetCustomer(ctx context.Context, uid xid.ID, provider string) (*entity.Customer, error) {
	return c.customers.Get(ctx, uid, provider)
}

// SaveCustomer records the provider customer id assigned to the user,
// keeping the historical set.
func (c *Coordinator) SaveCustomer(ctx context.Context, uid xid.ID, provider, customerID string, payload []byte) (*entity.Customer, error) {
	if _, ok := c.gateways.Get(provider); !ok {
		return nil, &errs.ProviderError{
			Provider: provider, Code: "unknown_provider",
			Message: "no gateway registered",
		}
	}

	now := c.tp.Now().UnixMilli()
	cust, err := c.customers.Get(ctx, uid, provider)
	if err != nil {
		if !errs.IsNotFoundError(err) {
			return nil, err
		}
		cust = &entity.Customer{UID: uid, Provider: provider, CreatedAt: now}
	}
	cust.SetCustomer(customerID)
	cust.UpdatedAt = now
	if payload != nil {
		cust.Payload = payload
	}
	if err := c.customers.Save(ctx, cust); err != nil {
		return nil, err
	}
	return c.customers.Get(ctx, uid, provider)
}

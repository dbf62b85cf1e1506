// Package checkout holds the confirmation reconciler: the one procedure
// that turns a gateway session outcome into at most one order and at most
// one inventory adjustment, no matter how many times it runs or which entry
// point (webhook push or success-redirect pull) triggered it.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/oakmart-dev/storefront-api/gateway"
	"github.com/oakmart-dev/storefront-api/models"
)

// ErrMissingSession rejects invocations without a session id. Not retried.
var ErrMissingSession = errors.New("missing session id")

// SessionFetcher is the slice of the gateway client the reconciler uses.
type SessionFetcher interface {
	RetrieveSession(ctx context.Context, sessionID string) (*gateway.Session, error)
}

// OrderStore is the idempotency boundary: an atomic create-if-absent on the
// session id. Implemented by store.Orders.
type OrderStore interface {
	TryCreate(ctx context.Context, order *models.Order) (created bool, existing *models.Order, err error)
}

// InventoryAdjuster applies an atomic floor-decrement per line item.
// Implemented by store.Inventory.
type InventoryAdjuster interface {
	Decrement(ctx context.Context, orderID string, productID uint, qty int) (clamped bool, err error)
}

// AttemptTracker records the last observed status per session (best effort).
type AttemptTracker interface {
	Track(ctx context.Context, sessionID, status string) error
}

// Emitter receives downstream side effects, fired only by the winning
// reconciliation attempt.
type Emitter interface {
	OrderConfirmed(ctx context.Context, order *models.Order)
}

type Outcome string

const (
	// OutcomeConfirmed means this attempt created the order.
	OutcomeConfirmed Outcome = "confirmed"
	// OutcomeDuplicate means an earlier attempt already created it;
	// a normal, silent success, not an error.
	OutcomeDuplicate Outcome = "duplicate"
	OutcomePending   Outcome = "pending"
	OutcomeFailed    Outcome = "failed"
)

type Result struct {
	Outcome Outcome
	Order   *models.Order
}

type Reconciler struct {
	gateway   SessionFetcher
	orders    OrderStore
	inventory InventoryAdjuster
	attempts  AttemptTracker
	emitter   Emitter
}

func NewReconciler(gw SessionFetcher, orders OrderStore, inventory InventoryAdjuster, attempts AttemptTracker, emitter Emitter) *Reconciler {
	return &Reconciler{
		gateway:   gw,
		orders:    orders,
		inventory: inventory,
		attempts:  attempts,
		emitter:   emitter,
	}
}

// Reconcile fetches the canonical session state and, on success, creates
// the order and adjusts stock exactly once across all concurrent and
// repeated invocations for the same session.
//
// Everything before TryCreate is free of persistent effects, so a failure
// up to that point leaves nothing behind and the attempt can simply be
// re-triggered (webhook redelivery, user refresh).
func (r *Reconciler) Reconcile(ctx context.Context, sessionID string) (*Result, error) {
	if sessionID == "" {
		return nil, ErrMissingSession
	}

	// The fetch is authoritative. Amounts or statuses carried by the
	// webhook body or redirect URL are never used.
	sess, err := r.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("retrieve session %s: %w", sessionID, err)
	}

	if err := r.attempts.Track(ctx, sess.ID, string(sess.Status)); err != nil {
		log.Printf("failed to track attempt for session %s: %v", sess.ID, err)
	}

	switch sess.Status {
	case gateway.StatusPending:
		return &Result{Outcome: OutcomePending}, nil
	case gateway.StatusFailed:
		return &Result{Outcome: OutcomeFailed}, nil
	case gateway.StatusSucceeded:
		// fall through to order creation
	default:
		return nil, fmt.Errorf("session %s: unexpected status %q", sess.ID, sess.Status)
	}

	order := buildOrder(sess)

	created, existing, err := r.orders.TryCreate(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order for session %s: %w", sess.ID, err)
	}
	if !created {
		// Another attempt won the race. Its winner already adjusted stock
		// and emitted side effects; this attempt must do nothing more.
		return &Result{Outcome: OutcomeDuplicate, Order: existing}, nil
	}

	for _, item := range order.Items {
		clamped, err := r.inventory.Decrement(ctx, order.ID, item.ProductID, item.Quantity)
		if err != nil {
			// The order row exists, so redelivery stops at the duplicate
			// branch and will not retry this decrement. Log loudly; the
			// divergence is handled through the manual review queue.
			log.Printf("CRITICAL: stock decrement failed for order %s product %d: %v",
				order.ID, item.ProductID, err)
			continue
		}
		if clamped {
			log.Printf("stock clamped at zero for order %s product %d (requested %d), flagged for review",
				order.ID, item.ProductID, item.Quantity)
		}
	}

	r.emitter.OrderConfirmed(ctx, order)

	return &Result{Outcome: OutcomeConfirmed, Order: order}, nil
}

// buildOrder snapshots the gateway-reported session into an order payload.
// Every field comes from the authoritative fetch.
func buildOrder(sess *gateway.Session) *models.Order {
	items := make(models.OrderItems, 0, len(sess.LineItems))
	for _, li := range sess.LineItems {
		items = append(items, models.OrderItem{
			ProductID:   li.ProductID,
			ProductName: li.Name,
			UnitAmount:  li.UnitAmount,
			Quantity:    li.Quantity,
		})
	}
	return &models.Order{
		ID:            uuid.NewString(),
		SessionID:     sess.ID,
		Status:        models.OrderStatusConfirmed,
		Amount:        sess.AmountTotal,
		Currency:      sess.Currency,
		Items:         items,
		CustomerName:  sess.Customer.Name,
		CustomerEmail: sess.Customer.Email,
	}
}

package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakmart-dev/storefront-api/gateway"
	"github.com/oakmart-dev/storefront-api/models"
)

type fakeGateway struct {
	sessions map[string]*gateway.Session
	err      error
	calls    int
}

func (f *fakeGateway) RetrieveSession(_ context.Context, sessionID string) (*gateway.Session, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, gateway.ErrSessionNotFound
	}
	return sess, nil
}

// fakeOrders mirrors the insert-if-absent contract of store.Orders under a
// mutex, so concurrent attempts resolve to exactly one winner.
type fakeOrders struct {
	mu     sync.Mutex
	bySess map[string]*models.Order
	err    error
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{bySess: make(map[string]*models.Order)}
}

func (f *fakeOrders) TryCreate(_ context.Context, order *models.Order) (bool, *models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return false, nil, f.err
	}
	if existing, ok := f.bySess[order.SessionID]; ok {
		return false, existing, nil
	}
	f.bySess[order.SessionID] = order
	return true, order, nil
}

type decrementCall struct {
	orderID   string
	productID uint
	qty       int
}

type fakeInventory struct {
	mu      sync.Mutex
	calls   []decrementCall
	clamped bool
	err     error
}

func (f *fakeInventory) Decrement(_ context.Context, orderID string, productID uint, qty int) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, decrementCall{orderID, productID, qty})
	return f.clamped, f.err
}

func (f *fakeInventory) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeAttempts struct {
	tracked []string
	err     error
}

func (f *fakeAttempts) Track(_ context.Context, sessionID, status string) error {
	f.tracked = append(f.tracked, sessionID+":"+status)
	return f.err
}

type fakeEmitter struct {
	mu     sync.Mutex
	orders []*models.Order
}

func (f *fakeEmitter) OrderConfirmed(_ context.Context, order *models.Order) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
}

func (f *fakeEmitter) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.orders)
}

func succeededSession(id string) *gateway.Session {
	return &gateway.Session{
		ID:          id,
		Status:      gateway.StatusSucceeded,
		AmountTotal: 3750,
		Currency:    "USD",
		LineItems: []gateway.LineItem{
			{ProductID: 7, Name: "Mug", UnitAmount: 1250, Quantity: 3},
		},
		Customer: gateway.Customer{Name: "Ada", Email: "ada@example.com"},
	}
}

type harness struct {
	gw        *fakeGateway
	orders    *fakeOrders
	inventory *fakeInventory
	attempts  *fakeAttempts
	emitter   *fakeEmitter
	rec       *Reconciler
}

func newHarness(sessions ...*gateway.Session) *harness {
	h := &harness{
		gw:        &fakeGateway{sessions: make(map[string]*gateway.Session)},
		orders:    newFakeOrders(),
		inventory: &fakeInventory{},
		attempts:  &fakeAttempts{},
		emitter:   &fakeEmitter{},
	}
	for _, s := range sessions {
		h.gw.sessions[s.ID] = s
	}
	h.rec = NewReconciler(h.gw, h.orders, h.inventory, h.attempts, h.emitter)
	return h
}

func TestReconcile_MissingSessionID(t *testing.T) {
	h := newHarness()

	_, err := h.rec.Reconcile(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingSession)
	assert.Zero(t, h.gw.calls)
}

func TestReconcile_GatewayUnavailable(t *testing.T) {
	h := newHarness()
	h.gw.err = gateway.ErrUnavailable

	_, err := h.rec.Reconcile(context.Background(), "cs_1")
	assert.ErrorIs(t, err, gateway.ErrUnavailable)
	assert.Empty(t, h.orders.bySess)
	assert.Zero(t, h.inventory.callCount())
	assert.Zero(t, h.emitter.count())
}

func TestReconcile_SessionNotFound(t *testing.T) {
	h := newHarness()

	_, err := h.rec.Reconcile(context.Background(), "cs_unknown")
	assert.ErrorIs(t, err, gateway.ErrSessionNotFound)
}

func TestReconcile_Pending(t *testing.T) {
	h := newHarness(&gateway.Session{ID: "cs_1", Status: gateway.StatusPending})

	res, err := h.rec.Reconcile(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomePending, res.Outcome)
	assert.Nil(t, res.Order)
	assert.Empty(t, h.orders.bySess)
	assert.Zero(t, h.inventory.callCount())
	assert.Equal(t, []string{"cs_1:pending"}, h.attempts.tracked)
}

func TestReconcile_Failed(t *testing.T) {
	h := newHarness(&gateway.Session{ID: "cs_1", Status: gateway.StatusFailed})

	res, err := h.rec.Reconcile(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Empty(t, h.orders.bySess)
	assert.Zero(t, h.inventory.callCount())
	assert.Zero(t, h.emitter.count())
}

func TestReconcile_Succeeded(t *testing.T) {
	h := newHarness(succeededSession("cs_1"))

	res, err := h.rec.Reconcile(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	require.NotNil(t, res.Order)
	assert.NotEmpty(t, res.Order.ID)
	assert.Equal(t, "cs_1", res.Order.SessionID)
	assert.Equal(t, models.OrderStatusConfirmed, res.Order.Status)
	assert.Equal(t, int64(3750), res.Order.Amount)
	require.Len(t, res.Order.Items, 1)
	assert.Equal(t, "Mug", res.Order.Items[0].ProductName)

	require.Len(t, h.inventory.calls, 1)
	assert.Equal(t, decrementCall{res.Order.ID, 7, 3}, h.inventory.calls[0])
	assert.Equal(t, 1, h.emitter.count())
}

func TestReconcile_Replay(t *testing.T) {
	h := newHarness(succeededSession("cs_1"))

	first, err := h.rec.Reconcile(context.Background(), "cs_1")
	require.NoError(t, err)
	require.Equal(t, OutcomeConfirmed, first.Outcome)

	// Webhook redelivery and the user's redirect both land here again.
	for i := 0; i < 3; i++ {
		res, err := h.rec.Reconcile(context.Background(), "cs_1")
		require.NoError(t, err)
		assert.Equal(t, OutcomeDuplicate, res.Outcome)
		require.NotNil(t, res.Order)
		assert.Equal(t, first.Order.ID, res.Order.ID)
	}

	assert.Len(t, h.orders.bySess, 1)
	assert.Equal(t, 1, h.inventory.callCount())
	assert.Equal(t, 1, h.emitter.count())
}

func TestReconcile_ConcurrentSameSession(t *testing.T) {
	h := newHarness(succeededSession("cs_1"))

	const attempts = 16
	results := make(chan *Result, attempts)
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := h.rec.Reconcile(context.Background(), "cs_1")
			if err != nil {
				errs <- err
				return
			}
			results <- res
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		t.Fatalf("concurrent reconcile failed: %v", err)
	}

	confirmed := 0
	for res := range results {
		if res.Outcome == OutcomeConfirmed {
			confirmed++
		} else {
			assert.Equal(t, OutcomeDuplicate, res.Outcome)
		}
	}
	assert.Equal(t, 1, confirmed)
	assert.Equal(t, 1, h.inventory.callCount())
	assert.Equal(t, 1, h.emitter.count())
}

func TestReconcile_DistinctSessionsIndependent(t *testing.T) {
	h := newHarness(succeededSession("cs_1"), succeededSession("cs_2"))

	res1, err := h.rec.Reconcile(context.Background(), "cs_1")
	require.NoError(t, err)
	res2, err := h.rec.Reconcile(context.Background(), "cs_2")
	require.NoError(t, err)

	assert.Equal(t, OutcomeConfirmed, res1.Outcome)
	assert.Equal(t, OutcomeConfirmed, res2.Outcome)
	assert.NotEqual(t, res1.Order.ID, res2.Order.ID)
	assert.Equal(t, 2, h.emitter.count())
}

func TestReconcile_TrackFailureIsBestEffort(t *testing.T) {
	h := newHarness(succeededSession("cs_1"))
	h.attempts.err = errors.New("attempts table unavailable")

	res, err := h.rec.Reconcile(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
}

func TestReconcile_DecrementFailureStillConfirms(t *testing.T) {
	h := newHarness(succeededSession("cs_1"))
	h.inventory.err = errors.New("db gone")

	res, err := h.rec.Reconcile(context.Background(), "cs_1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeConfirmed, res.Outcome)
	assert.Equal(t, 1, h.emitter.count())
}

func TestReconcile_OrderStoreError(t *testing.T) {
	h := newHarness(succeededSession("cs_1"))
	h.orders.err = errors.New("insert failed")

	_, err := h.rec.Reconcile(context.Background(), "cs_1")
	require.Error(t, err)
	assert.Zero(t, h.inventory.callCount())
	assert.Zero(t, h.emitter.count())
}

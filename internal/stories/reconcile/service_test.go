package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
)

type appliedCall struct {
	orderID  string
	expected orders.Status
	params   DecisionParams
}

type transitionCall struct {
	orderID       string
	expected      orders.Status
	next          orders.Status
	failureReason *string
}

type fakeStorage struct {
	applyResult bool
	applyErr    error
	applied     []appliedCall

	transitionResult bool
	transitions      []transitionCall
}

func (f *fakeStorage) ApplyDecision(_ context.Context, orderID string, expected orders.Status, params DecisionParams) (bool, error) {
	f.applied = append(f.applied, appliedCall{orderID: orderID, expected: expected, params: params})
	return f.applyResult, f.applyErr
}

func (f *fakeStorage) TransitionStatus(_ context.Context, orderID string, expected, next orders.Status, failureReason *string) (bool, error) {
	f.transitions = append(f.transitions, transitionCall{
		orderID:       orderID,
		expected:      expected,
		next:          next,
		failureReason: failureReason,
	})
	return f.transitionResult, nil
}

type fakeDispenser struct {
	err   error
	calls int

	deviceID string
	orderID  string
	drinkID  string
	size     int
	price    int64
}

func (f *fakeDispenser) SendMakeCommand(_ context.Context, deviceID, orderID, drinkID string, size int, price int64) error {
	f.calls++
	f.deviceID = deviceID
	f.orderID = orderID
	f.drinkID = drinkID
	f.size = size
	f.price = price
	return f.err
}

func newTestService(storage *fakeStorage, dispenser *fakeDispenser, now time.Time) *Service {
	s := NewService(storage, dispenser, testConfig(), time.Second, slog.Default())
	s.now = func() time.Time { return now }
	return s
}

func pendingOrder(now time.Time) *orders.Order {
	started := now.Add(-time.Minute)
	return &orders.Order{
		ID:               "order-1",
		DeviceUUID:       "device-1",
		DrinkNumber:      "drink-7",
		Size:             2,
		Price:            15000,
		Status:           orders.StatusPending,
		PaymentStartedAt: &started,
		CheckAttempts:    3,
		ExpiresAt:        now.Add(10 * time.Minute),
	}
}

func TestApplySkipsNonPendingOrder(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := &fakeStorage{applyResult: true, transitionResult: true}
	dispenser := &fakeDispenser{}
	svc := newTestService(storage, dispenser, now)

	for _, status := range []orders.Status{
		orders.StatusCreated,
		orders.StatusPaid,
		orders.StatusMakePending,
		orders.StatusManualMake,
		orders.StatusNotPaid,
		orders.StatusMakeFailed,
		orders.StatusFailed,
	} {
		order := pendingOrder(now)
		order.Status = status

		applied, err := svc.Apply(context.Background(), order, OutcomeSucceeded, nil)
		if err != nil {
			t.Fatalf("Apply() with status %q returned error: %v", status, err)
		}
		if applied {
			t.Errorf("Apply() with status %q applied a decision, want skip", status)
		}
	}

	if len(storage.applied) != 0 {
		t.Errorf("Apply() wrote %d decisions for settled orders, want 0", len(storage.applied))
	}
	if dispenser.calls != 0 {
		t.Errorf("Apply() dispatched %d commands for settled orders, want 0", dispenser.calls)
	}
}

func TestApplySkipsExpiredOrder(t *testing.T) {
	// The poll loop never selects expired orders, but a provider webhook can
	// still deliver a late success for one. It must not settle the order and
	// must never reach the machine.
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := &fakeStorage{applyResult: true, transitionResult: true}
	dispenser := &fakeDispenser{}
	svc := newTestService(storage, dispenser, now)

	order := pendingOrder(now)
	order.ExpiresAt = now.Add(-time.Minute)

	applied, err := svc.Apply(context.Background(), order, OutcomeSucceeded, nil)
	if err != nil {
		t.Fatalf("Apply() returned error: %v", err)
	}
	if applied {
		t.Error("Apply() applied a decision for an expired order")
	}
	if len(storage.applied) != 0 {
		t.Errorf("Apply() wrote %d decisions for an expired order, want 0", len(storage.applied))
	}
	if dispenser.calls != 0 {
		t.Errorf("Apply() dispatched %d commands for an expired order, want 0", dispenser.calls)
	}

	// An order expiring exactly now is expired too.
	order = pendingOrder(now)
	order.ExpiresAt = now

	applied, err = svc.Apply(context.Background(), order, OutcomeSucceeded, nil)
	if err != nil {
		t.Fatalf("Apply() returned error: %v", err)
	}
	if applied || dispenser.calls != 0 {
		t.Errorf("Apply() at the expiry instant: applied=%v dispenser calls=%d, want skip", applied, dispenser.calls)
	}
}

func TestApplyBumpsAttemptCountInDecisionInput(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := &fakeStorage{applyResult: true}
	svc := newTestService(storage, &fakeDispenser{}, now)

	order := pendingOrder(now)
	order.CheckAttempts = 50 // this check is attempt 51, one past the limit

	applied, err := svc.Apply(context.Background(), order, OutcomeUnknown, errors.New("provider timeout"))
	if err != nil {
		t.Fatalf("Apply() returned error: %v", err)
	}
	if !applied {
		t.Fatal("Apply() did not apply the decision")
	}

	if len(storage.applied) != 1 {
		t.Fatalf("Apply() wrote %d decisions, want 1", len(storage.applied))
	}
	got := storage.applied[0]
	if got.params.Status != orders.StatusFailed {
		t.Errorf("decision status = %q, want %q past the attempt limit", got.params.Status, orders.StatusFailed)
	}
	if got.params.FailureReason == nil || *got.params.FailureReason != "check failed" {
		t.Errorf("decision failure reason = %v, want check failed message", got.params.FailureReason)
	}
}

func TestApplyDroppedOnLostRace(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := &fakeStorage{applyResult: false}
	dispenser := &fakeDispenser{}
	svc := newTestService(storage, dispenser, now)

	applied, err := svc.Apply(context.Background(), pendingOrder(now), OutcomeSucceeded, nil)
	if err != nil {
		t.Fatalf("Apply() returned error: %v", err)
	}
	if applied {
		t.Error("Apply() reported applied after losing the conditional update")
	}
	if dispenser.calls != 0 {
		t.Errorf("Apply() dispatched %d commands after lost race, want 0", dispenser.calls)
	}
}

func TestApplyStorageError(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := &fakeStorage{applyErr: errors.New("db locked")}
	svc := newTestService(storage, &fakeDispenser{}, now)

	_, err := svc.Apply(context.Background(), pendingOrder(now), OutcomePending, nil)
	if err == nil {
		t.Fatal("Apply() returned nil error, want storage error")
	}
}

func TestApplyDispatchSuccess(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := &fakeStorage{applyResult: true, transitionResult: true}
	dispenser := &fakeDispenser{}
	svc := newTestService(storage, dispenser, now)

	order := pendingOrder(now)
	applied, err := svc.Apply(context.Background(), order, OutcomeSucceeded, nil)
	if err != nil {
		t.Fatalf("Apply() returned error: %v", err)
	}
	if !applied {
		t.Fatal("Apply() did not apply the decision")
	}

	if dispenser.calls != 1 {
		t.Fatalf("dispenser called %d times, want 1", dispenser.calls)
	}
	if dispenser.deviceID != order.DeviceUUID || dispenser.orderID != order.ID ||
		dispenser.drinkID != order.DrinkNumber || dispenser.size != order.Size ||
		dispenser.price != order.Price {
		t.Errorf("make command sent with %+v, want order fields %+v", dispenser, order)
	}

	if len(storage.transitions) != 1 {
		t.Fatalf("got %d status transitions, want 1", len(storage.transitions))
	}
	tr := storage.transitions[0]
	if tr.expected != orders.StatusPaid || tr.next != orders.StatusMakePending {
		t.Errorf("transition = %q -> %q, want paid -> make_pending", tr.expected, tr.next)
	}
	if tr.failureReason != nil {
		t.Errorf("transition failure reason = %v, want nil", tr.failureReason)
	}
}

func TestApplyDispatchFailure(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := &fakeStorage{applyResult: true, transitionResult: true}
	dispenser := &fakeDispenser{err: errors.New("commander unavailable")}
	svc := newTestService(storage, dispenser, now)

	applied, err := svc.Apply(context.Background(), pendingOrder(now), OutcomeSucceeded, nil)
	if err != nil {
		t.Fatalf("Apply() returned error: %v", err)
	}
	if !applied {
		t.Fatal("Apply() did not apply the decision")
	}

	if len(storage.transitions) != 1 {
		t.Fatalf("got %d status transitions, want 1", len(storage.transitions))
	}
	tr := storage.transitions[0]
	if tr.expected != orders.StatusPaid || tr.next != orders.StatusMakeFailed {
		t.Errorf("transition = %q -> %q, want paid -> make_failed", tr.expected, tr.next)
	}
	if tr.failureReason == nil || *tr.failureReason != "make failed" {
		t.Errorf("transition failure reason = %v, want make failed message", tr.failureReason)
	}

	// One command, one terminal write; dispense is never retried.
	if dispenser.calls != 1 {
		t.Errorf("dispenser called %d times, want 1", dispenser.calls)
	}
}

func TestApplySlowTrackSuccessSkipsDispatch(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	storage := &fakeStorage{applyResult: true}
	dispenser := &fakeDispenser{}
	svc := newTestService(storage, dispenser, now)

	order := pendingOrder(now)
	started := now.Add(-20 * time.Minute)
	order.PaymentStartedAt = &started

	applied, err := svc.Apply(context.Background(), order, OutcomeSucceeded, nil)
	if err != nil {
		t.Fatalf("Apply() returned error: %v", err)
	}
	if !applied {
		t.Fatal("Apply() did not apply the decision")
	}

	if storage.applied[0].params.Status != orders.StatusManualMake {
		t.Errorf("decision status = %q, want %q", storage.applied[0].params.Status, orders.StatusManualMake)
	}
	if dispenser.calls != 0 {
		t.Errorf("dispenser called %d times for a late payment, want 0", dispenser.calls)
	}
}

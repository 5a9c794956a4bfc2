package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/metrics"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
)

// Service applies policy decisions to orders. It is the single write path of
// the engine: the poll loop and the webhook ingress both end up in Apply, so
// an order can never be advanced twice for the same learned outcome.
type Service struct {
	storage         Storage
	dispenser       DispenseClient
	cfg             Config
	dispatchTimeout time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// NewService creates a new reconciliation service
func NewService(storage Storage, dispenser DispenseClient, cfg Config, dispatchTimeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		storage:         storage,
		dispenser:       dispenser,
		cfg:             cfg,
		dispatchTimeout: dispatchTimeout,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Config exposes the policy constants the service was built with.
func (s *Service) Config() Config {
	return s.cfg
}

// Apply runs the decision function on a snapshot of the order and persists
// the result with a compare-and-set on the snapshot's status. A lost race is
// not an error: the concurrent winner already superseded this outcome.
// Returns whether the decision was applied.
func (s *Service) Apply(ctx context.Context, order *orders.Order, outcome Outcome, checkErr error) (bool, error) {
	if order.Status != orders.StatusPending {
		// Replayed webhook or stale poll result for a settled order.
		s.logger.Debug("Skipping reconciliation for non-pending order",
			"order_id", order.ID,
			"status", order.Status)
		return false, nil
	}

	now := s.now()
	if order.Expired(now) {
		// The poll loop filters expired orders in SQL; the webhook ingress
		// does not, so the guard lives here where both paths converge. A
		// late success must never pour a drink for a dead order.
		s.logger.Debug("Skipping reconciliation for expired order",
			"order_id", order.ID,
			"expires_at", order.ExpiresAt)
		return false, nil
	}
	if checkErr != nil {
		s.logger.Warn("Payment status check failed",
			"order_id", order.ID,
			"check_attempts", order.CheckAttempts+1,
			"error", checkErr)
	}

	decision := Decide(Input{
		Status:           order.Status,
		PaymentStartedAt: order.PaymentStartedAt,
		CheckAttempts:    order.CheckAttempts + 1,
		Outcome:          outcome,
		CheckFailed:      checkErr != nil,
		Now:              now,
	}, s.cfg)

	params := DecisionParams{
		Status:      decision.Status,
		NextCheckAt: decision.NextCheckAt,
		LastCheckAt: now,
	}
	if decision.FailureReason != "" {
		reason := decision.FailureReason
		params.FailureReason = &reason
	}

	applied, err := s.storage.ApplyDecision(ctx, order.ID, order.Status, params)
	if err != nil {
		return false, fmt.Errorf("apply decision: %w", err)
	}
	if !applied {
		metrics.ReconcileLostRaces.Inc()
		s.logger.Debug("Decision dropped, order state superseded concurrently",
			"order_id", order.ID,
			"expected_status", order.Status)
		return false, nil
	}

	metrics.ReconcileDecisions.WithLabelValues(string(decision.Status)).Inc()
	s.logger.Info("Order reconciled",
		"order_id", order.ID,
		"outcome", outcome,
		"new_status", decision.Status,
		"next_check_at", decision.NextCheckAt,
		"dispatch", decision.Dispatch)

	if decision.Dispatch {
		s.dispatch(ctx, order)
	}

	return true, nil
}

// dispatch sends the make command and settles the order into make_pending or
// make_failed. Dispense failures are terminal and never retried here; any
// error class maps to make_failed with a user-presentable reason.
func (s *Service) dispatch(ctx context.Context, order *orders.Order) {
	// The command gets its own deadline so a hung device call cannot hold
	// the caller; the terminal write below uses the parent context so it
	// still lands after a command timeout.
	cmdCtx, cancel := context.WithTimeout(ctx, s.dispatchTimeout)
	defer cancel()

	err := s.dispenser.SendMakeCommand(cmdCtx, order.DeviceUUID, order.ID, order.DrinkNumber, order.Size, order.Price)
	if err != nil {
		metrics.DispatchTotal.WithLabelValues("error").Inc()
		s.logger.Error("Failed to send make command",
			"order_id", order.ID,
			"device_uuid", order.DeviceUUID,
			"error", err)

		reason := s.cfg.Messages.MakeFailed
		if _, terr := s.storage.TransitionStatus(ctx, order.ID, orders.StatusPaid, orders.StatusMakeFailed, &reason); terr != nil {
			s.logger.Error("Failed to persist make_failed status",
				"order_id", order.ID,
				"error", terr)
		}
		return
	}

	metrics.DispatchTotal.WithLabelValues("ok").Inc()
	if _, terr := s.storage.TransitionStatus(ctx, order.ID, orders.StatusPaid, orders.StatusMakePending, nil); terr != nil {
		s.logger.Error("Failed to persist make_pending status",
			"order_id", order.ID,
			"error", terr)
		return
	}

	s.logger.Info("Make command sent",
		"order_id", order.ID,
		"device_uuid", order.DeviceUUID)
}

package paymentcheck

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/metrics"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/merchants"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/reconcile"
)

// Worker is the polling half of payment reconciliation: on a fixed cadence
// it picks up pending polling-tracked orders whose next check is due, asks
// the provider for their status, and feeds the answer (or the failure) into
// the reconciliation service.
type Worker struct {
	orderStorage       OrderStorage
	credentialsStorage CredentialsStorage
	statusClient       StatusClient
	reconciler         Reconciler

	interval   time.Duration
	apiTimeout time.Duration
	// Fallback shop credentials for merchants without their own row.
	defaultShopID    string
	defaultSecretKey string

	logger *slog.Logger
	cron   *cron.Cron
	now    func() time.Time
}

// NewWorker creates a new payment check worker
func NewWorker(
	orderStorage OrderStorage,
	credentialsStorage CredentialsStorage,
	statusClient StatusClient,
	reconciler Reconciler,
	interval time.Duration,
	apiTimeout time.Duration,
	defaultShopID string,
	defaultSecretKey string,
	logger *slog.Logger,
) *Worker {
	return &Worker{
		orderStorage:       orderStorage,
		credentialsStorage: credentialsStorage,
		statusClient:       statusClient,
		reconciler:         reconciler,
		interval:           interval,
		apiTimeout:         apiTimeout,
		defaultShopID:      defaultShopID,
		defaultSecretKey:   defaultSecretKey,
		logger:             logger,
		cron:               cron.New(),
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// Name returns the worker name
func (w *Worker) Name() string {
	return "payment-check"
}

// Start schedules the poll loop
func (w *Worker) Start() error {
	spec := fmt.Sprintf("@every %s", w.interval)
	_, err := w.cron.AddFunc(spec, func() {
		defer func() {
			if r := recover(); r != nil {
				w.logger.Error("Panic in payment check worker", "panic", r)
			}
		}()
		ctx := context.Background()
		if err := w.run(ctx); err != nil {
			w.logger.Error("Payment check cycle failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("failed to schedule payment check worker: %w", err)
	}

	w.cron.Start()
	w.logger.Info("Payment check worker started", "interval", w.interval)
	return nil
}

// Stop stops the worker
func (w *Worker) Stop() {
	w.cron.Stop()
}

// run executes one poll cycle. Orders are processed sequentially; a failed
// check of one order feeds the policy and never aborts the rest of the
// batch.
func (w *Worker) run(ctx context.Context) error {
	started := time.Now()
	defer func() {
		metrics.PollCycleDuration.Observe(time.Since(started).Seconds())
	}()

	candidates, err := w.orderStorage.ListPollableOrders(ctx, w.now())
	if err != nil {
		return fmt.Errorf("list pollable orders: %w", err)
	}
	if len(candidates) == 0 {
		return nil
	}

	w.logger.Info("Found orders due for payment check", "count", len(candidates))

	for _, order := range candidates {
		if err := w.checkOrder(ctx, order); err != nil {
			w.logger.Error("Failed to process order",
				"order_id", order.ID,
				"error", err)
		}
	}

	return nil
}

// checkOrder queries the provider for one order and applies the outcome.
// Only persistence problems surface as errors; provider failures are policy
// input.
func (w *Worker) checkOrder(ctx context.Context, order *orders.Order) error {
	status, checkErr := w.fetchStatus(ctx, order)

	var outcome reconcile.Outcome
	if checkErr != nil {
		metrics.StatusChecksTotal.WithLabelValues("error").Inc()
	} else {
		metrics.StatusChecksTotal.WithLabelValues("ok").Inc()
		outcome = reconcile.OutcomeFromProviderStatus(status)
	}

	if _, err := w.reconciler.Apply(ctx, order, outcome, checkErr); err != nil {
		return fmt.Errorf("apply outcome: %w", err)
	}
	return nil
}

func (w *Worker) fetchStatus(ctx context.Context, order *orders.Order) (string, error) {
	if order.PaymentReferenceID == nil || *order.PaymentReferenceID == "" {
		return "", fmt.Errorf("order %s has no payment reference", order.ID)
	}

	shopID, secretKey := w.defaultShopID, w.defaultSecretKey
	creds, err := w.credentialsStorage.GetMerchantCredentials(ctx, merchants.GetCriteria{MerchantID: &order.MerchantID})
	if err != nil {
		return "", fmt.Errorf("get merchant credentials: %w", err)
	}
	if creds != nil {
		shopID, secretKey = creds.ShopID, creds.SecretKey
	}

	checkCtx, cancel := context.WithTimeout(ctx, w.apiTimeout)
	defer cancel()

	return w.statusClient.GetPaymentStatus(checkCtx, shopID, secretKey, *order.PaymentReferenceID)
}

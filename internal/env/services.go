package environment

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/config"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/server"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/storage"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/payments"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/reconcile"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/usermsg"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/workers"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/workers/paymentcheck"
)

type Services struct {
	Orders     *orders.Service
	Payments   *payments.Service
	Reconciler *reconcile.Service

	WorkerManager *workers.Manager
	APIHandler    *server.Handler
}

func newServices(ctx context.Context, clients *Clients, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	var s Services

	storageImpl := storage.New(clients.SQLiteDB.DB)
	if err := storageImpl.Migrate(ctx); err != nil {
		return nil, errors.Wrap(err, "failed to run migrations")
	}

	messages, err := usermsg.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user messages")
	}

	orderService := orders.NewService(
		storageImpl,
		storageImpl,
		cfg.PaymentCheck.FastInterval,
		cfg.PaymentCheck.OrderExpiration,
		logger,
	)
	s.Orders = orderService

	reconcileCfg := reconcile.Config{
		FastLimit:    cfg.PaymentCheck.FastLimit,
		FastInterval: cfg.PaymentCheck.FastInterval,
		SlowInterval: cfg.PaymentCheck.SlowInterval,
		AttemptLimit: cfg.PaymentCheck.AttemptLimit,
		Messages: reconcile.Messages{
			CheckFailed:   messages.Get("check_failed"),
			ManualCapture: messages.Get("manual_capture"),
			MakeFailed:    messages.Get("make_failed"),
		},
	}

	reconciler := reconcile.NewService(
		storageImpl,
		clients.Tmetr,
		reconcileCfg,
		cfg.Tmetr.Timeout,
		logger,
	)
	s.Reconciler = reconciler

	paymentService := payments.NewService(
		orderService,
		storageImpl,
		clients.YooKassa,
		cfg.PaymentCheck.APITimeout,
		cfg.YooKassa.ShopID,
		cfg.YooKassa.SecretKey,
		logger,
	)
	s.Payments = paymentService

	paymentCheckWorker := paymentcheck.NewWorker(
		storageImpl,
		storageImpl,
		clients.YooKassa,
		reconciler,
		cfg.PaymentCheck.Interval,
		cfg.PaymentCheck.APITimeout,
		cfg.YooKassa.ShopID,
		cfg.YooKassa.SecretKey,
		logger,
	)

	s.WorkerManager = workers.NewManager(logger, paymentCheckWorker)

	s.APIHandler = server.NewHandler(orderService, paymentService, reconciler, messages, logger)

	return &s, nil
}

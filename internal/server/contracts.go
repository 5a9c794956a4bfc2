package server

import (
	"context"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/payments"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/reconcile"
)

type (
	// OrderService provides order lifecycle operations
	OrderService interface {
		CreateOrder(ctx context.Context, req orders.CreateOrderRequest) (*orders.Order, error)
		GetOrder(ctx context.Context, orderID string) (*orders.Order, error)
		GetOrderByPaymentReference(ctx context.Context, paymentReferenceID string) (*orders.Order, error)
	}

	// PaymentService initiates provider payments
	PaymentService interface {
		InitiatePayment(ctx context.Context, orderID string) (*payments.InitiatedPayment, error)
	}

	// Reconciler applies a learned outcome to an order
	Reconciler interface {
		Apply(ctx context.Context, order *orders.Order, outcome reconcile.Outcome, checkErr error) (bool, error)
	}
)

package paymentcheck

import (
	"context"
	"time"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/merchants"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/reconcile"
)

type (
	// OrderStorage provides the poll candidate selection
	OrderStorage interface {
		ListPollableOrders(ctx context.Context, now time.Time) ([]*orders.Order, error)
	}

	// CredentialsStorage provides merchant payment credentials
	CredentialsStorage interface {
		GetMerchantCredentials(ctx context.Context, criteria merchants.GetCriteria) (*merchants.Credentials, error)
	}

	// StatusClient queries the payment provider for a payment's status
	StatusClient interface {
		GetPaymentStatus(ctx context.Context, shopID, secretKey, paymentID string) (string, error)
	}

	// Reconciler applies a learned outcome to an order
	Reconciler interface {
		Apply(ctx context.Context, order *orders.Order, outcome reconcile.Outcome, checkErr error) (bool, error)
	}
)

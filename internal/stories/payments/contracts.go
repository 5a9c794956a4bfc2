package payments

import (
	"context"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/infra/yookassa"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/merchants"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
)

type (
	// OrderService provides order lifecycle operations
	OrderService interface {
		GetOrder(ctx context.Context, orderID string) (*orders.Order, error)
		RegisterPayment(ctx context.Context, orderID, paymentReferenceID string) (*orders.Order, error)
	}

	// CredentialsStorage provides merchant payment credentials
	CredentialsStorage interface {
		GetMerchantCredentials(ctx context.Context, criteria merchants.GetCriteria) (*merchants.Credentials, error)
	}

	// ProviderClient creates payments with the payment provider
	ProviderClient interface {
		CreatePayment(ctx context.Context, shopID, secretKey string, amount int64, description string, metadata map[string]string) (*yookassa.CreatedPayment, error)
	}
)

package orders

import (
	"context"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/merchants"
)

type (
	// Storage provides database operations for orders
	Storage interface {
		CreateOrder(ctx context.Context, order Order) (*Order, error)
		GetOrder(ctx context.Context, criteria GetCriteria) (*Order, error)
		UpdateOrder(ctx context.Context, criteria GetCriteria, params UpdateParams) (*Order, error)
	}

	// MerchantStorage provides read access to merchant payment configuration
	MerchantStorage interface {
		GetMerchantCredentials(ctx context.Context, criteria merchants.GetCriteria) (*merchants.Credentials, error)
	}
)

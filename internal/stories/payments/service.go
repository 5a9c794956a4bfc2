package payments

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/merchants"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
)

// Service creates provider payments for created orders and hands the order
// over to the reconciliation engine.
type Service struct {
	orderService       OrderService
	credentialsStorage CredentialsStorage
	provider           ProviderClient

	apiTimeout       time.Duration
	defaultShopID    string
	defaultSecretKey string

	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new payment initiation service
func NewService(
	orderService OrderService,
	credentialsStorage CredentialsStorage,
	provider ProviderClient,
	apiTimeout time.Duration,
	defaultShopID string,
	defaultSecretKey string,
	logger *slog.Logger,
) *Service {
	return &Service{
		orderService:       orderService,
		credentialsStorage: credentialsStorage,
		provider:           provider,
		apiTimeout:         apiTimeout,
		defaultShopID:      defaultShopID,
		defaultSecretKey:   defaultSecretKey,
		logger:             logger,
		now:                func() time.Time { return time.Now().UTC() },
	}
}

// InitiatePayment creates a YooKassa payment for an order in status
// "created" and registers it, which moves the order to "pending" and
// schedules the first status check.
func (s *Service) InitiatePayment(ctx context.Context, orderID string) (*InitiatedPayment, error) {
	order, err := s.orderService.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if order.Expired(s.now()) {
		return nil, ErrOrderExpired
	}
	if order.Status != orders.StatusCreated {
		return nil, ErrAlreadyInitiated
	}

	shopID, secretKey := s.defaultShopID, s.defaultSecretKey
	creds, err := s.credentialsStorage.GetMerchantCredentials(ctx, merchants.GetCriteria{MerchantID: &order.MerchantID})
	if err != nil {
		return nil, fmt.Errorf("get merchant credentials: %w", err)
	}
	if creds != nil {
		shopID, secretKey = creds.ShopID, creds.SecretKey
	}

	createCtx, cancel := context.WithTimeout(ctx, s.apiTimeout)
	defer cancel()

	metadata := map[string]string{
		"order_uuid":   order.ID,
		"drink_number": order.DrinkNumber,
		"size":         fmt.Sprintf("%d", order.Size),
	}
	description := fmt.Sprintf("Оплата напитка: %s", order.DrinkName)

	created, err := s.provider.CreatePayment(createCtx, shopID, secretKey, order.Price, description, metadata)
	if err != nil {
		s.logger.Error("Failed to create payment with provider",
			"order_id", order.ID,
			"error", err)
		return nil, fmt.Errorf("create provider payment: %w", err)
	}

	if _, err := s.orderService.RegisterPayment(ctx, order.ID, created.ID); err != nil {
		return nil, fmt.Errorf("register payment: %w", err)
	}

	s.logger.Info("Payment initiated",
		"order_id", order.ID,
		"payment_id", created.ID)

	return &InitiatedPayment{
		PaymentID:       created.ID,
		ConfirmationURL: created.ConfirmationURL,
	}, nil
}

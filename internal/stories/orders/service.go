package orders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samber/lo"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/merchants"
)

// Service provides business logic for order lifecycle operations up to the
// point where the reconciliation engine takes over.
type Service struct {
	storage         Storage
	merchantStorage MerchantStorage
	fastInterval    time.Duration
	expiration      time.Duration
	logger          *slog.Logger
	now             func() time.Time
}

// NewService creates a new order service
func NewService(storage Storage, merchantStorage MerchantStorage, fastInterval, expiration time.Duration, logger *slog.Logger) *Service {
	return &Service{
		storage:         storage,
		merchantStorage: merchantStorage,
		fastInterval:    fastInterval,
		expiration:      expiration,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// CreateOrder registers a machine-assigned order in status "created".
// The merchant's current status check type is snapshotted into the order
// here; later configuration edits never touch orders already in flight.
func (s *Service) CreateOrder(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	if req.ID == "" {
		return nil, fmt.Errorf("order id is required")
	}
	if req.Size < 1 || req.Size > 3 {
		return nil, fmt.Errorf("invalid drink size: %d", req.Size)
	}

	checkType := CheckTypePolling
	creds, err := s.merchantStorage.GetMerchantCredentials(ctx, merchants.GetCriteria{MerchantID: &req.MerchantID})
	if err != nil {
		return nil, fmt.Errorf("get merchant credentials: %w", err)
	}
	if creds != nil && creds.StatusCheckType != "" {
		checkType = CheckType(creds.StatusCheckType)
	}

	now := s.now()
	order := Order{
		ID:              req.ID,
		DeviceUUID:      req.DeviceUUID,
		MerchantID:      req.MerchantID,
		DrinkNumber:     req.DrinkNumber,
		DrinkName:       req.DrinkName,
		Size:            req.Size,
		Price:           req.Price,
		Status:          StatusCreated,
		StatusCheckType: checkType,
		ExpiresAt:       now.Add(s.expiration),
	}

	created, err := s.storage.CreateOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("create order in storage: %w", err)
	}

	s.logger.Info("Order created",
		"order_id", created.ID,
		"device_uuid", created.DeviceUUID,
		"status_check_type", created.StatusCheckType)

	return created, nil
}

// RegisterPayment moves an order into "pending" the moment a provider payment
// has been created for it. Polling-tracked orders get their first check
// scheduled one fast-track interval from now; webhook and none orders are
// never picked up by the poll loop.
func (s *Service) RegisterPayment(ctx context.Context, orderID, paymentReferenceID string) (*Order, error) {
	order, err := s.storage.GetOrder(ctx, GetCriteria{ID: &orderID})
	if err != nil {
		return nil, fmt.Errorf("get order from storage: %w", err)
	}
	if order == nil {
		return nil, fmt.Errorf("order not found: %s", orderID)
	}

	now := s.now()
	if order.Expired(now) {
		return nil, fmt.Errorf("order %s has expired", orderID)
	}

	params := UpdateParams{
		Status:             lo.ToPtr(StatusPending),
		PaymentReferenceID: &paymentReferenceID,
		PaymentStartedAt:   &now,
		CheckAttempts:      lo.ToPtr(0),
	}
	if order.StatusCheckType == CheckTypePolling {
		params.NextCheckAt = lo.ToPtr(now.Add(s.fastInterval))
	}

	updated, err := s.storage.UpdateOrder(ctx, GetCriteria{ID: &orderID}, params)
	if err != nil {
		return nil, fmt.Errorf("update order with payment data: %w", err)
	}

	s.logger.Info("Payment registered for order",
		"order_id", orderID,
		"payment_reference_id", paymentReferenceID,
		"next_check_at", params.NextCheckAt)

	return updated, nil
}

// GetOrder returns an order for display. Nil without error when not found.
func (s *Service) GetOrder(ctx context.Context, orderID string) (*Order, error) {
	order, err := s.storage.GetOrder(ctx, GetCriteria{ID: &orderID})
	if err != nil {
		return nil, fmt.Errorf("get order from storage: %w", err)
	}
	return order, nil
}

// GetOrderByPaymentReference resolves an order from the provider's payment
// identifier; used by the webhook ingress when a notification carries no
// order metadata. Nil without error when not found.
func (s *Service) GetOrderByPaymentReference(ctx context.Context, paymentReferenceID string) (*Order, error) {
	order, err := s.storage.GetOrder(ctx, GetCriteria{PaymentReferenceID: &paymentReferenceID})
	if err != nil {
		return nil, fmt.Errorf("get order from storage: %w", err)
	}
	return order, nil
}

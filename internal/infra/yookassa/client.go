package yookassa

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rvinnie/yookassa-sdk-go/yookassa"
	yoocommon "github.com/rvinnie/yookassa-sdk-go/yookassa/common"
	yoopayment "github.com/rvinnie/yookassa-sdk-go/yookassa/payment"
)

// Client wraps the YooKassa SDK. Credentials are passed per call because
// each merchant owns its own shop; the SDK client is cheap to construct.
type Client struct {
	logger      *slog.Logger
	returnURL   string
	mockPayment bool
}

// CreatedPayment is the slice of the provider response the rest of the
// system needs.
type CreatedPayment struct {
	ID              string
	ConfirmationURL string
}

// NewClient creates a new YooKassa client wrapper
func NewClient(returnURL string, mockPayment bool, logger *slog.Logger) *Client {
	return &Client{
		logger:      logger,
		returnURL:   returnURL,
		mockPayment: mockPayment,
	}
}

// CreatePayment creates a new payment in YooKassa. amount is in kopecks.
func (c *Client) CreatePayment(ctx context.Context, shopID, secretKey string, amount int64, description string, metadata map[string]string) (*CreatedPayment, error) {
	if c.mockPayment {
		id := fmt.Sprintf("mock-%s", uuid.New().String())
		c.logger.Info("Mock payment mode enabled, skipping YooKassa call", "payment_id", id)
		return &CreatedPayment{ID: id, ConfirmationURL: c.returnURL}, nil
	}

	c.logger.Info("Creating payment in YooKassa", "amount", amount)

	idempotenceKey := fmt.Sprintf("%s_%d", uuid.New().String(), time.Now().Unix())

	payment := &yoopayment.Payment{
		Amount: &yoocommon.Amount{
			Value:    fmt.Sprintf("%.2f", float64(amount)/100),
			Currency: "RUB",
		},
		Confirmation: &yoopayment.Redirect{
			Type:      yoopayment.TypeRedirect,
			ReturnURL: c.returnURL,
		},
		Description: description,
		Metadata:    metadata,
		Capture:     true, // auto-capture; waiting_for_capture is a dead end for us
	}

	type result struct {
		payment *yoopayment.Payment
		err     error
	}
	done := make(chan result, 1)
	go func() {
		handler := yookassa.NewPaymentHandler(yookassa.NewClient(shopID, secretKey)).WithIdempotencyKey(idempotenceKey)
		p, err := handler.CreatePayment(payment)
		done <- result{payment: p, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("create payment: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			c.logger.Error("Failed to create payment in YooKassa", "error", res.err)
			return nil, fmt.Errorf("failed to create payment: %w", res.err)
		}

		created := &CreatedPayment{ID: res.payment.ID}
		if redirect, ok := res.payment.Confirmation.(*yoopayment.Redirect); ok {
			created.ConfirmationURL = redirect.ConfirmationURL
		} else if confMap, ok := res.payment.Confirmation.(map[string]interface{}); ok {
			if url, exists := confMap["confirmation_url"].(string); exists {
				created.ConfirmationURL = url
			}
		}

		c.logger.Info("Payment created successfully in YooKassa",
			"payment_id", created.ID,
			"status", res.payment.Status)
		return created, nil
	}
}

// GetPaymentStatus queries the payment status from YooKassa, bounded by the
// context deadline. The SDK call itself has no context support, so a hung
// request is abandoned rather than awaited.
func (c *Client) GetPaymentStatus(ctx context.Context, shopID, secretKey, paymentID string) (string, error) {
	if c.mockPayment {
		c.logger.Info("Mock payment mode enabled, returning succeeded status", "payment_id", paymentID)
		return string(yoopayment.Succeeded), nil
	}

	type result struct {
		payment *yoopayment.Payment
		err     error
	}
	done := make(chan result, 1)
	go func() {
		handler := yookassa.NewPaymentHandler(yookassa.NewClient(shopID, secretKey))
		p, err := handler.FindPayment(paymentID)
		done <- result{payment: p, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("get payment status: %w", ctx.Err())
	case res := <-done:
		if res.err != nil {
			return "", fmt.Errorf("failed to get payment status: %w", res.err)
		}
		c.logger.Debug("Payment status retrieved",
			"payment_id", paymentID,
			"status", res.payment.Status)
		return string(res.payment.Status), nil
	}
}

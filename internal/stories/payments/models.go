package payments

import "errors"

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderExpired     = errors.New("order expired")
	ErrAlreadyInitiated = errors.New("payment already initiated for order")
)

// InitiatedPayment is what the status page needs to hand the customer off
// to the provider.
type InitiatedPayment struct {
	PaymentID       string
	ConfirmationURL string
}

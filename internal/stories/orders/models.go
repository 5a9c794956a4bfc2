package orders

import "time"

type Status string

const (
	// StatusCreated is the pre-payment state: the machine registered the
	// order but the customer has not been handed off to the provider yet.
	StatusCreated Status = "created"
	// StatusPending means a provider payment exists and its outcome is
	// still unknown. The only state the reconciliation loop revisits.
	StatusPending Status = "pending"
	// StatusPaid is transitional: payment confirmed, dispense command not
	// yet attempted.
	StatusPaid Status = "paid"
	// StatusMakePending means the machine accepted the make command.
	StatusMakePending Status = "make_pending"
	// StatusManualMake means payment succeeded too late for automatic
	// dispensing; staff prepare the drink by hand.
	StatusManualMake Status = "manual_make"
	// StatusNotPaid means the provider reported the payment canceled.
	StatusNotPaid Status = "not_paid"
	// StatusMakeFailed means the make command was rejected or errored.
	StatusMakeFailed Status = "make_failed"
	// StatusFailed covers unexpected provider outcomes and exhausted
	// check retries.
	StatusFailed Status = "failed"
)

// Terminal reports whether the reconciliation engine performs no further
// automatic transitions from s.
func (s Status) Terminal() bool {
	switch s {
	case StatusMakePending, StatusManualMake, StatusNotPaid, StatusMakeFailed, StatusFailed:
		return true
	}
	return false
}

// CheckType selects how an order learns its payment outcome. Snapshotted
// from the merchant configuration at order creation and never changed, so a
// configuration edit cannot alter the contract of an order already in flight.
type CheckType string

const (
	CheckTypePolling CheckType = "polling"
	CheckTypeWebhook CheckType = "webhook"
	CheckTypeNone    CheckType = "none"
)

type Order struct {
	ID                 string
	DeviceUUID         string
	MerchantID         string
	DrinkNumber        string
	DrinkName          string
	Size               int
	Price              int64 // kopecks
	Status             Status
	PaymentReferenceID *string
	PaymentStartedAt   *time.Time
	NextCheckAt        *time.Time
	LastCheckAt        *time.Time
	CheckAttempts      int
	FailureReason      *string
	StatusCheckType    CheckType
	ExpiresAt          time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

func (o *Order) Expired(now time.Time) bool {
	return !now.Before(o.ExpiresAt)
}

type GetCriteria struct {
	ID                 *string
	PaymentReferenceID *string
}

type CreateOrderRequest struct {
	ID          string
	DeviceUUID  string
	MerchantID  string
	DrinkNumber string
	DrinkName   string
	Size        int
	Price       int64
}

type UpdateParams struct {
	Status             *Status
	PaymentReferenceID *string
	PaymentStartedAt   *time.Time
	NextCheckAt        *time.Time
	CheckAttempts      *int
}

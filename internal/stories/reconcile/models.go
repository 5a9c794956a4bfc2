package reconcile

import (
	"time"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
)

// Outcome is the payment status reported by the provider, reduced to the
// small set the state machine cares about. Both the poll loop and the
// webhook ingress normalize into it, which is what keeps the two paths on
// one code path.
type Outcome string

const (
	OutcomePending           Outcome = "pending"
	OutcomeSucceeded         Outcome = "succeeded"
	OutcomeCanceled          Outcome = "canceled"
	OutcomeWaitingForCapture Outcome = "waiting_for_capture"
	// OutcomeUnknown covers unrecognized provider statuses; treated like a
	// transient check failure and retried.
	OutcomeUnknown Outcome = "unknown"
)

// OutcomeFromProviderStatus maps a raw provider status string to an Outcome.
func OutcomeFromProviderStatus(status string) Outcome {
	switch status {
	case "pending":
		return OutcomePending
	case "succeeded":
		return OutcomeSucceeded
	case "canceled":
		return OutcomeCanceled
	case "waiting_for_capture":
		return OutcomeWaitingForCapture
	default:
		return OutcomeUnknown
	}
}

// Config holds the time and retry constants of the reconciliation policy.
// Messages are the user-presentable failure texts; transport details never
// end up in an order's failure reason.
type Config struct {
	FastLimit    time.Duration
	FastInterval time.Duration
	SlowInterval time.Duration
	AttemptLimit int

	Messages Messages
}

type Messages struct {
	CheckFailed   string
	ManualCapture string
	MakeFailed    string
}

// Input is the value snapshot Decide works on. CheckAttempts already counts
// the attempt being decided.
type Input struct {
	Status           orders.Status
	PaymentStartedAt *time.Time
	CheckAttempts    int
	Outcome          Outcome
	CheckFailed      bool
	Now              time.Time
}

// Decision is what should happen to the order: its next status, when (if
// ever) to poll again, and whether to send the make command to the machine.
type Decision struct {
	Status        orders.Status
	NextCheckAt   *time.Time
	Dispatch      bool
	FailureReason string
}

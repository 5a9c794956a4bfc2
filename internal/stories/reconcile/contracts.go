package reconcile

import (
	"context"
	"time"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
)

// DecisionParams is the atomic write produced by one decision: status,
// scheduling and tracking fields go into the database together, guarded by
// the status observed when the decision was made.
type DecisionParams struct {
	Status        orders.Status
	NextCheckAt   *time.Time // nil clears the schedule
	LastCheckAt   time.Time
	FailureReason *string
}

type (
	// Storage provides the conditional-update persistence for decisions
	Storage interface {
		// ApplyDecision performs the guarded write for a decision and bumps
		// check_attempts by one. Returns false when the order's status no
		// longer matches expected (a concurrent path won the race).
		ApplyDecision(ctx context.Context, orderID string, expected orders.Status, params DecisionParams) (bool, error)

		// TransitionStatus performs a guarded status change without touching
		// the check counters; used for the dispatch result write.
		TransitionStatus(ctx context.Context, orderID string, expected, next orders.Status, failureReason *string) (bool, error)
	}

	// DispenseClient sends the prepare-drink command to the machine
	DispenseClient interface {
		SendMakeCommand(ctx context.Context, deviceID, orderID, drinkID string, size int, price int64) error
	}
)

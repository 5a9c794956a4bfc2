package reconcile

import (
	"time"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
)

// Decide computes the next order state for a freshly learned provider
// outcome (or a failed status check). Pure function over value types: the
// poll loop and the webhook adapter call it with identical semantics, so a
// status learned either way converges on the same result.
func Decide(in Input, cfg Config) Decision {
	if in.CheckFailed || in.Outcome == OutcomeUnknown {
		return decideCheckFailure(in, cfg)
	}

	var elapsed time.Duration
	if in.PaymentStartedAt != nil {
		elapsed = in.Now.Sub(*in.PaymentStartedAt)
	}
	fastTrack := elapsed <= cfg.FastLimit

	switch in.Outcome {
	case OutcomePending:
		next := in.Now.Add(cfg.SlowInterval)
		if fastTrack {
			next = in.Now.Add(cfg.FastInterval)
		}
		return Decision{Status: in.Status, NextCheckAt: &next}

	case OutcomeSucceeded:
		if fastTrack {
			return Decision{Status: orders.StatusPaid, Dispatch: true}
		}
		// Too late for automatic dispensing: the customer has likely
		// walked away, staff take over.
		return Decision{Status: orders.StatusManualMake}

	case OutcomeCanceled:
		return Decision{Status: orders.StatusNotPaid}

	case OutcomeWaitingForCapture:
		// The shop is configured without auto-capture; this engine never
		// captures payments, so the order cannot proceed.
		return Decision{Status: orders.StatusFailed, FailureReason: cfg.Messages.ManualCapture}
	}

	return decideCheckFailure(in, cfg)
}

func decideCheckFailure(in Input, cfg Config) Decision {
	if in.CheckAttempts <= cfg.AttemptLimit {
		next := in.Now.Add(cfg.FastInterval)
		return Decision{Status: in.Status, NextCheckAt: &next}
	}
	return Decision{Status: orders.StatusFailed, FailureReason: cfg.Messages.CheckFailed}
}

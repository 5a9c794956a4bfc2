package reconcile

import (
	"testing"
	"time"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
)

func testConfig() Config {
	return Config{
		FastLimit:    5 * time.Minute,
		FastInterval: 5 * time.Second,
		SlowInterval: 60 * time.Second,
		AttemptLimit: 50,
		Messages: Messages{
			CheckFailed:   "check failed",
			ManualCapture: "manual capture",
			MakeFailed:    "make failed",
		},
	}
}

func TestDecide(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	startedJustNow := now.Add(-30 * time.Second)
	startedLongAgo := now.Add(-10 * time.Minute)
	startedAtLimit := now.Add(-5 * time.Minute)

	tests := []struct {
		name string
		in   Input

		wantStatus      orders.Status
		wantNextCheckIn time.Duration
		wantNoNextCheck bool
		wantDispatch    bool
		wantReason      string
	}{
		{
			name: "succeeded within fast window dispatches",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedJustNow,
				CheckAttempts:    3,
				Outcome:          OutcomeSucceeded,
				Now:              now,
			},
			wantStatus:      orders.StatusPaid,
			wantNoNextCheck: true,
			wantDispatch:    true,
		},
		{
			name: "succeeded exactly at fast limit still dispatches",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedAtLimit,
				CheckAttempts:    10,
				Outcome:          OutcomeSucceeded,
				Now:              now,
			},
			wantStatus:      orders.StatusPaid,
			wantNoNextCheck: true,
			wantDispatch:    true,
		},
		{
			name: "succeeded after fast window goes to staff",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedLongAgo,
				CheckAttempts:    20,
				Outcome:          OutcomeSucceeded,
				Now:              now,
			},
			wantStatus:      orders.StatusManualMake,
			wantNoNextCheck: true,
			wantDispatch:    false,
		},
		{
			name: "pending within fast window reschedules at fast interval",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedJustNow,
				CheckAttempts:    1,
				Outcome:          OutcomePending,
				Now:              now,
			},
			wantStatus:      orders.StatusPending,
			wantNextCheckIn: 5 * time.Second,
		},
		{
			name: "pending after fast window drops to slow cadence",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedLongAgo,
				CheckAttempts:    40,
				Outcome:          OutcomePending,
				Now:              now,
			},
			wantStatus:      orders.StatusPending,
			wantNextCheckIn: 60 * time.Second,
		},
		{
			name: "canceled settles as not paid",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedJustNow,
				CheckAttempts:    2,
				Outcome:          OutcomeCanceled,
				Now:              now,
			},
			wantStatus:      orders.StatusNotPaid,
			wantNoNextCheck: true,
		},
		{
			name: "waiting for capture fails with manual capture reason",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedJustNow,
				CheckAttempts:    2,
				Outcome:          OutcomeWaitingForCapture,
				Now:              now,
			},
			wantStatus:      orders.StatusFailed,
			wantNoNextCheck: true,
			wantReason:      "manual capture",
		},
		{
			name: "check failure below limit retries on fast interval",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedLongAgo,
				CheckAttempts:    7,
				CheckFailed:      true,
				Now:              now,
			},
			wantStatus:      orders.StatusPending,
			wantNextCheckIn: 5 * time.Second,
		},
		{
			name: "check failure at limit still retries",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedJustNow,
				CheckAttempts:    50,
				CheckFailed:      true,
				Now:              now,
			},
			wantStatus:      orders.StatusPending,
			wantNextCheckIn: 5 * time.Second,
		},
		{
			name: "check failure over limit gives up",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedJustNow,
				CheckAttempts:    51,
				CheckFailed:      true,
				Now:              now,
			},
			wantStatus:      orders.StatusFailed,
			wantNoNextCheck: true,
			wantReason:      "check failed",
		},
		{
			name: "unknown provider status treated as failed check",
			in: Input{
				Status:           orders.StatusPending,
				PaymentStartedAt: &startedJustNow,
				CheckAttempts:    1,
				Outcome:          OutcomeUnknown,
				Now:              now,
			},
			wantStatus:      orders.StatusPending,
			wantNextCheckIn: 5 * time.Second,
		},
		{
			name: "succeeded without payment start time dispatches",
			in: Input{
				Status:        orders.StatusPending,
				CheckAttempts: 1,
				Outcome:       OutcomeSucceeded,
				Now:           now,
			},
			wantStatus:      orders.StatusPaid,
			wantNoNextCheck: true,
			wantDispatch:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.in, testConfig())

			if d.Status != tt.wantStatus {
				t.Errorf("Decide() status = %q, want %q", d.Status, tt.wantStatus)
			}
			if d.Dispatch != tt.wantDispatch {
				t.Errorf("Decide() dispatch = %v, want %v", d.Dispatch, tt.wantDispatch)
			}
			if d.FailureReason != tt.wantReason {
				t.Errorf("Decide() failure reason = %q, want %q", d.FailureReason, tt.wantReason)
			}

			if tt.wantNoNextCheck {
				if d.NextCheckAt != nil {
					t.Errorf("Decide() next check at = %v, want nil", d.NextCheckAt)
				}
				return
			}
			if d.NextCheckAt == nil {
				t.Fatalf("Decide() next check at = nil, want %v from now", tt.wantNextCheckIn)
			}
			if got := d.NextCheckAt.Sub(now); got != tt.wantNextCheckIn {
				t.Errorf("Decide() next check in = %v, want %v", got, tt.wantNextCheckIn)
			}
		})
	}
}

func TestDecideConvergesForBothPaths(t *testing.T) {
	// The poll loop and the webhook adapter feed the same inputs in; the
	// decision must not depend on which path learned the status first.
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-time.Minute)

	in := Input{
		Status:           orders.StatusPending,
		PaymentStartedAt: &started,
		CheckAttempts:    4,
		Outcome:          OutcomeSucceeded,
		Now:              now,
	}

	first := Decide(in, testConfig())
	second := Decide(in, testConfig())

	if first.Status != second.Status || first.Dispatch != second.Dispatch {
		t.Errorf("Decide() not deterministic: %+v vs %+v", first, second)
	}
	if first.Status != orders.StatusPaid || !first.Dispatch {
		t.Errorf("Decide() = %+v, want paid with dispatch", first)
	}
}

func TestOutcomeFromProviderStatus(t *testing.T) {
	tests := []struct {
		status string
		want   Outcome
	}{
		{"pending", OutcomePending},
		{"succeeded", OutcomeSucceeded},
		{"canceled", OutcomeCanceled},
		{"waiting_for_capture", OutcomeWaitingForCapture},
		{"refunded", OutcomeUnknown},
		{"", OutcomeUnknown},
	}

	for _, tt := range tests {
		if got := OutcomeFromProviderStatus(tt.status); got != tt.want {
			t.Errorf("OutcomeFromProviderStatus(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}

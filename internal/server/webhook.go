package server

import (
	"encoding/json"
	"net/http"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/metrics"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/reconcile"
)

// webhookNotification is the slice of a YooKassa notification body the
// engine needs; everything else in the payload is ignored.
type webhookNotification struct {
	Event  string `json:"event"`
	Object struct {
		ID       string            `json:"id"`
		Status   string            `json:"status"`
		Metadata map[string]string `json:"metadata"`
	} `json:"object"`
}

// handleWebhook ingests a provider notification and routes it through the
// same reconciliation path the poll loop uses. Recognized or not, a parsed
// notification is always acknowledged with 200: an unacked delivery would
// only make the provider retry and re-trigger work that already happened.
func (h *Handler) handleWebhook(w http.ResponseWriter, r *http.Request) {
	var notification webhookNotification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil {
		metrics.WebhookNotifications.WithLabelValues("malformed").Inc()
		h.logger.Warn("Malformed webhook notification", "error", err)
		http.Error(w, "invalid notification body", http.StatusBadRequest)
		return
	}

	outcome := notificationOutcome(notification)
	ctx := r.Context()

	order, err := h.findNotifiedOrder(r, notification)
	if err != nil {
		metrics.WebhookNotifications.WithLabelValues("error").Inc()
		h.logger.Error("Failed to load order for webhook", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if order == nil {
		// Ack anyway: retrying cannot make an unknown order appear.
		metrics.WebhookNotifications.WithLabelValues("unknown_order").Inc()
		h.logger.Warn("Webhook for unknown order",
			"event", notification.Event,
			"payment_id", notification.Object.ID)
		w.WriteHeader(http.StatusOK)
		return
	}

	applied, err := h.reconciler.Apply(ctx, order, outcome, nil)
	if err != nil {
		metrics.WebhookNotifications.WithLabelValues("error").Inc()
		h.logger.Error("Failed to apply webhook outcome",
			"order_id", order.ID,
			"error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if applied {
		metrics.WebhookNotifications.WithLabelValues("applied").Inc()
	} else {
		metrics.WebhookNotifications.WithLabelValues("superseded").Inc()
	}

	h.logger.Info("Webhook processed",
		"order_id", order.ID,
		"event", notification.Event,
		"outcome", outcome,
		"applied", applied)

	w.WriteHeader(http.StatusOK)
}

// findNotifiedOrder resolves the order a notification refers to: by the
// order id carried in the payment metadata, or by the payment reference as
// a fallback.
func (h *Handler) findNotifiedOrder(r *http.Request, notification webhookNotification) (*orders.Order, error) {
	ctx := r.Context()

	if orderID := notification.Object.Metadata["order_uuid"]; orderID != "" {
		return h.orderService.GetOrder(ctx, orderID)
	}
	if notification.Object.ID != "" {
		return h.orderService.GetOrderByPaymentReference(ctx, notification.Object.ID)
	}
	return nil, nil
}

// notificationOutcome normalizes a notification to a provider outcome. The
// object status is authoritative when present; otherwise the event name
// carries the same information.
func notificationOutcome(n webhookNotification) reconcile.Outcome {
	if n.Object.Status != "" {
		return reconcile.OutcomeFromProviderStatus(n.Object.Status)
	}
	switch n.Event {
	case "payment.succeeded":
		return reconcile.OutcomeSucceeded
	case "payment.canceled":
		return reconcile.OutcomeCanceled
	case "payment.waiting_for_capture":
		return reconcile.OutcomeWaitingForCapture
	default:
		return reconcile.OutcomeUnknown
	}
}

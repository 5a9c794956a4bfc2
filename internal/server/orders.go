package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/orders"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/stories/payments"
)

type createOrderRequest struct {
	ID          string `json:"id"`
	DeviceUUID  string `json:"device_uuid"`
	MerchantID  string `json:"merchant_id"`
	DrinkNumber string `json:"drink_number"`
	DrinkName   string `json:"drink_name"`
	Size        int    `json:"size"`
	Price       int64  `json:"price"`
}

type orderStatusResponse struct {
	ID            string     `json:"id"`
	Status        string     `json:"status"`
	FailureReason *string    `json:"failure_reason,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at"`
	LastCheckAt   *time.Time `json:"last_check_at,omitempty"`
}

// handleCreateOrder registers a machine-assigned order. The device posts it
// right after the QR code is scanned, before the customer is sent to the
// provider.
func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	order, err := h.orderService.CreateOrder(r.Context(), orders.CreateOrderRequest{
		ID:          req.ID,
		DeviceUUID:  req.DeviceUUID,
		MerchantID:  req.MerchantID,
		DrinkNumber: req.DrinkNumber,
		DrinkName:   req.DrinkName,
		Size:        req.Size,
		Price:       req.Price,
	})
	if err != nil {
		h.logger.Warn("Failed to create order", "order_id", req.ID, "error", err)
		http.Error(w, "failed to create order", http.StatusBadRequest)
		return
	}

	h.writeJSON(w, http.StatusCreated, orderStatusResponse{
		ID:        order.ID,
		Status:    string(order.Status),
		ExpiresAt: order.ExpiresAt,
	})
}

// handleInitiatePayment creates the provider payment for an order and
// returns the confirmation URL the browser should be redirected to.
func (h *Handler) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order_id")
	if orderID == "" {
		http.Error(w, "missing order_id parameter", http.StatusBadRequest)
		return
	}

	initiated, err := h.paymentService.InitiatePayment(r.Context(), orderID)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrOrderNotFound):
			http.Error(w, h.messages.Get("order_not_found"), http.StatusNotFound)
		case errors.Is(err, payments.ErrOrderExpired):
			http.Error(w, h.messages.Get("order_expired"), http.StatusGone)
		case errors.Is(err, payments.ErrAlreadyInitiated):
			http.Error(w, "payment already initiated", http.StatusConflict)
		default:
			h.logger.Error("Failed to initiate payment", "order_id", orderID, "error", err)
			http.Error(w, h.messages.Get("payment_creation_failed"), http.StatusBadGateway)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"payment_id":       initiated.PaymentID,
		"confirmation_url": initiated.ConfirmationURL,
	})
}

// handleOrderStatus serves the order state for the status page the customer
// lands on after payment.
func (h *Handler) handleOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID := r.PathValue("orderID")

	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		h.logger.Error("Failed to get order", "order_id", orderID, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if order == nil {
		http.Error(w, h.messages.Get("order_not_found"), http.StatusNotFound)
		return
	}

	h.writeJSON(w, http.StatusOK, orderStatusResponse{
		ID:            order.ID,
		Status:        string(order.Status),
		FailureReason: order.FailureReason,
		ExpiresAt:     order.ExpiresAt,
		LastCheckAt:   order.LastCheckAt,
	})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

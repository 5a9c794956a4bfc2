package server

import (
	"log/slog"
	"net/http"

	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/config"
	"github.com/LeonardoReMake/Coffee-Payments-Server-sub000/internal/usermsg"
)

// Handler bundles the HTTP surface of the payment server: the provider
// webhook ingress plus the small order API the machine and the status page
// use.
type Handler struct {
	orderService   OrderService
	paymentService PaymentService
	reconciler     Reconciler
	messages       *usermsg.Catalog
	logger         *slog.Logger
}

// NewHandler creates a new API handler
func NewHandler(orderService OrderService, paymentService PaymentService, reconciler Reconciler, messages *usermsg.Catalog, logger *slog.Logger) *Handler {
	return &Handler{
		orderService:   orderService,
		paymentService: paymentService,
		reconciler:     reconciler,
		messages:       messages,
		logger:         logger,
	}
}

// Mux returns the route table.
func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/yook-pay-webhook", h.handleWebhook)
	mux.HandleFunc("POST /v1/orders", h.handleCreateOrder)
	mux.HandleFunc("POST /v1/initiate-payment", h.handleInitiatePayment)
	mux.HandleFunc("GET /v1/order-status/{orderID}", h.handleOrderStatus)
	return mux
}

// NewServer builds the API http.Server from config.
func NewServer(cfg config.APIHTTPConfig, handler *Handler) *http.Server {
	return &http.Server{
		Handler:           handler.Mux(),
		Addr:              cfg.ADDR(),
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
	}
}

// Package handler serves the ERP HTTP API.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/xenking/erp-inventory/internal/agent"
	"github.com/xenking/erp-inventory/internal/domain/order"
	"github.com/xenking/erp-inventory/internal/domain/product"
	"github.com/xenking/erp-inventory/internal/domain/report"
	"github.com/xenking/erp-inventory/pkg/health"
	"github.com/xenking/erp-inventory/pkg/httpmiddleware"
)

// Handler serves the API by delegating to the domain services.
type Handler struct {
	products *product.Service
	orders   *order.Service
	reports  *report.Service
	commands *agent.Executor
	llm      *agent.LLM
}

// New creates a Handler. llm may be nil, in which case the chat endpoints
// answer 503.
func New(
	products *product.Service,
	orders *order.Service,
	reports *report.Service,
	commands *agent.Executor,
	llm *agent.LLM,
) *Handler {
	return &Handler{
		products: products,
		orders:   orders,
		reports:  reports,
		commands: commands,
		llm:      llm,
	}
}

// RouterConfig holds the optional parts of the router.
type RouterConfig struct {
	// Security authenticates write routes. Nil disables authentication.
	Security *SecurityHandler
	// AgentLimiter limits requests to the agent routes. Nil disables limiting.
	AgentLimiter *httpmiddleware.Limiter
	// Health serves /livez and /readyz when set.
	Health *health.Health
}

// Router returns the routes of the API under /api.
func (h *Handler) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(httpmiddleware.LogRequests(), httpmiddleware.Labeler())
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeErrorBody(w, http.StatusNotFound, "not_found", "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeErrorBody(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})

	if cfg.Health != nil {
		r.Get("/livez", cfg.Health.LiveEndpoint)
		r.Get("/readyz", cfg.Health.ReadyEndpoint)
	}

	write := func(next http.Handler) http.Handler { return next }
	if cfg.Security != nil {
		write = cfg.Security.Require
	}

	r.Route("/api", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Get("/{id}", h.GetProduct)
			r.With(write).Post("/", h.CreateProduct)
			r.With(write).Put("/{id}", h.UpdateProduct)
			r.With(write).Delete("/{id}", h.DeleteProduct)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
			r.With(write).Post("/", h.CreateOrder)
			r.With(write).Put("/{id}", h.SetOrderStatus)
			r.With(write).Delete("/{id}", h.DeleteOrder)
		})
		r.Route("/inventory", func(r chi.Router) {
			r.Get("/alerts", h.StockAlerts)
			r.Get("/movements", h.Movements)
			r.With(write).Post("/restock/{id}", h.Restock)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/sales", h.SalesReport)
			r.Get("/inventory", h.InventoryReport)
		})
		r.Route("/agent", func(r chi.Router) {
			if cfg.AgentLimiter != nil {
				r.Use(cfg.AgentLimiter.Middleware())
			}
			r.Use(write)
			r.Post("/command", h.Command)
			r.Post("/chat", h.Chat)
			r.Post("/reset", h.ResetChat)
		})
	})
	return r
}

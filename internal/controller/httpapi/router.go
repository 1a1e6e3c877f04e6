// Package httpapi принимает webhook оплаты и обслуживает JSON-админку.
package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger проверка готовности хранилища
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps всё, что нужно роутеру
type Deps struct {
	WebhookSecret string
	AdminToken    string

	Store         Pinger
	Billing       BillingLedger
	Connections   ConnectionAdmin
	Messages      MessageAdmin
	Usage         UsageAdmin
	Subscriptions SubscriptionAdmin
	Overview      OverviewAdmin
	Limits        LimitsReloader

	Logger *zap.Logger
}

func NewRouter(deps Deps) http.Handler {
	logger := deps.Logger.Named("http")

	webhooks := &webhookHandler{
		secret: []byte(deps.WebhookSecret),
		ledger: deps.Billing,
		logger: logger,
	}
	admin := &adminHandler{
		connections:   deps.Connections,
		messages:      deps.Messages,
		usage:         deps.Usage,
		subscriptions: deps.Subscriptions,
		overview:      deps.Overview,
		limits:        deps.Limits,
		logger:        logger,
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { writeMessage(w, http.StatusOK, "ok") })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := deps.Store.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "not_ready", "database unavailable")
			return
		}
		writeMessage(w, http.StatusOK, "ready")
	})

	r.Post("/webhooks/billing", webhooks.billing)

	r.Route("/admin", func(r chi.Router) {
		r.Use(adminAuthMiddleware(deps.AdminToken))

		r.Get("/stats", admin.stats)
		r.Get("/connections", admin.listConnections)
		r.Post("/connections/{id}/retire", admin.retireConnection)
		r.Delete("/connections/{id}/messages", admin.purgeMessages)
		r.Get("/activity", admin.activity)
		r.Get("/usage/blocked", admin.blockedUsage)
		r.Post("/usage/{id}/reset", admin.usageAction(deps.Usage.Reset))
		r.Post("/usage/{id}/block", admin.usageAction(deps.Usage.Block))
		r.Post("/usage/{id}/unblock", admin.usageAction(deps.Usage.Unblock))
		r.Get("/subscriptions", admin.listSubscriptions)
		r.Get("/feedback", admin.listFeedback)
		r.Post("/feedback/{id}/read", admin.markFeedbackRead)
		r.Post("/config/reload", admin.reloadConfig)
	})

	return r
}

package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Freeeeeet/relay_bot/internal/config"
	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

type ConnectionAdmin interface {
	ListActive(ctx context.Context) ([]*model.Connection, error)
	Retire(ctx context.Context, id int64) (*model.Connection, error)
}

type MessageAdmin interface {
	RecentActivity(ctx context.Context, limit int) ([]*model.Activity, error)
	DeleteForConnection(ctx context.Context, connectionID int64) (int64, error)
}

type UsageAdmin interface {
	ListBlocked(ctx context.Context) ([]*model.UsageRecord, error)
	Reset(ctx context.Context, supervisorID int64) (*model.UsageRecord, error)
	Block(ctx context.Context, supervisorID int64) (*model.UsageRecord, error)
	Unblock(ctx context.Context, supervisorID int64) (*model.UsageRecord, error)
}

type SubscriptionAdmin interface {
	ListActive(ctx context.Context) ([]*model.Subscription, error)
}

type OverviewAdmin interface {
	Stats(ctx context.Context) (*model.Stats, error)
	ListFeedback(ctx context.Context, unreadOnly bool, limit int) ([]*model.Feedback, error)
	MarkFeedbackRead(ctx context.Context, id int64) (*model.Feedback, error)
}

// LimitsReloader перечитывает лимиты без рестарта
type LimitsReloader interface {
	Reload() (config.Limits, error)
}

type adminHandler struct {
	connections   ConnectionAdmin
	messages      MessageAdmin
	usage         UsageAdmin
	subscriptions SubscriptionAdmin
	overview      OverviewAdmin
	limits        LimitsReloader
	logger        *zap.Logger
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer")
		return 0, false
	}
	return id, true
}

func queryLimit(r *http.Request) int {
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultListLimit
	}
	return min(limit, maxListLimit)
}

func (h *adminHandler) stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.overview.Stats(r.Context())
	if err != nil {
		h.fail(w, r, "stats", err)
		return
	}
	writeSuccess(w, http.StatusOK, st)
}

func (h *adminHandler) listConnections(w http.ResponseWriter, r *http.Request) {
	list, err := h.connections.ListActive(r.Context())
	if err != nil {
		h.fail(w, r, "list connections", err)
		return
	}
	writeSuccess(w, http.StatusOK, nonNil(list))
}

func (h *adminHandler) retireConnection(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	conn, err := h.connections.Retire(r.Context(), id)
	if err != nil {
		h.fail(w, r, "retire connection", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"changed":    conn != nil,
		"connection": conn,
	})
}

func (h *adminHandler) purgeMessages(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	n, err := h.messages.DeleteForConnection(r.Context(), id)
	if err != nil {
		h.fail(w, r, "purge messages", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{"deleted": n})
}

func (h *adminHandler) activity(w http.ResponseWriter, r *http.Request) {
	list, err := h.messages.RecentActivity(r.Context(), queryLimit(r))
	if err != nil {
		h.fail(w, r, "recent activity", err)
		return
	}
	writeSuccess(w, http.StatusOK, nonNil(list))
}

func (h *adminHandler) blockedUsage(w http.ResponseWriter, r *http.Request) {
	list, err := h.usage.ListBlocked(r.Context())
	if err != nil {
		h.fail(w, r, "list blocked", err)
		return
	}
	writeSuccess(w, http.StatusOK, nonNil(list))
}

func (h *adminHandler) usageAction(action func(context.Context, int64) (*model.UsageRecord, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := pathID(w, r)
		if !ok {
			return
		}

		rec, err := action(r.Context(), id)
		if err != nil {
			h.fail(w, r, "usage action", err)
			return
		}
		writeSuccess(w, http.StatusOK, rec)
	}
}

func (h *adminHandler) listSubscriptions(w http.ResponseWriter, r *http.Request) {
	list, err := h.subscriptions.ListActive(r.Context())
	if err != nil {
		h.fail(w, r, "list subscriptions", err)
		return
	}
	writeSuccess(w, http.StatusOK, nonNil(list))
}

func (h *adminHandler) listFeedback(w http.ResponseWriter, r *http.Request) {
	unread, _ := strconv.ParseBool(r.URL.Query().Get("unread"))
	list, err := h.overview.ListFeedback(r.Context(), unread, queryLimit(r))
	if err != nil {
		h.fail(w, r, "list feedback", err)
		return
	}
	writeSuccess(w, http.StatusOK, nonNil(list))
}

func (h *adminHandler) markFeedbackRead(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	fb, err := h.overview.MarkFeedbackRead(r.Context(), id)
	if err != nil {
		h.fail(w, r, "mark feedback read", err)
		return
	}
	writeSuccess(w, http.StatusOK, map[string]any{
		"changed":  fb != nil,
		"feedback": fb,
	})
}

func (h *adminHandler) reloadConfig(w http.ResponseWriter, r *http.Request) {
	limits, err := h.limits.Reload()
	if err != nil {
		h.logger.Warn("Limits reload failed, keeping previous values", zap.Error(err))
		writeError(w, http.StatusUnprocessableEntity, "invalid_config", err.Error())
		return
	}

	h.logger.Info("Limits reloaded",
		zap.Int64("free_message_limit", limits.FreeMessageLimit),
		zap.Bool("enabled", limits.Enabled),
		zap.Int("retention_days", limits.RetentionDays),
	)
	writeSuccess(w, http.StatusOK, map[string]any{
		"free_message_limit": limits.FreeMessageLimit,
		"limit_enabled":      limits.Enabled,
		"retention_days":     limits.RetentionDays,
		"bypass_ids":         len(limits.BypassIDs),
	})
}

func (h *adminHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	h.logger.Error("Admin request failed",
		zap.String("request_id", requestIDFromContext(r.Context())),
		zap.String("op", op),
		zap.Error(err),
	)
	writeStoreError(w, err)
}

// nonNil чтобы пустой список кодировался как [], а не null
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

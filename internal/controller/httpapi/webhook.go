package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/service"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxWebhookBody = 1 << 20

// BillingLedger применяет проверенные события оплаты
type BillingLedger interface {
	Apply(ctx context.Context, ev *model.BillingEvent) (*model.Subscription, error)
}

// personID принимает id и числом, и строкой: custom_data провайдер отдаёт как есть
type personID int64

func (p *personID) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if raw == "" || raw == "null" {
		*p = 0
		return nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return fmt.Errorf("parse user id %q: %w", raw, err)
	}
	*p = personID(id)
	return nil
}

type billingPayload struct {
	Meta struct {
		EventName  string `json:"event_name"`
		CustomData struct {
			UserID personID `json:"user_id"`
		} `json:"custom_data"`
	} `json:"meta"`
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Status   string     `json:"status"`
			RenewsAt *time.Time `json:"renews_at"`
			EndsAt   *time.Time `json:"ends_at"`
			URLs     struct {
				CustomerPortal string `json:"customer_portal"`
			} `json:"urls"`
		} `json:"attributes"`
	} `json:"data"`
}

type webhookHandler struct {
	secret []byte
	ledger BillingLedger
	logger *zap.Logger
}

func (h *webhookHandler) billing(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "could not read body")
		return
	}

	if err := VerifyWebhookHMAC(h.secret, body, r.Header.Get(SignatureHeader)); err != nil {
		h.logger.Warn("Billing webhook rejected",
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
		writeError(w, http.StatusUnauthorized, "invalid_signature", "signature verification failed")
		return
	}

	var payload billingPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	kind := model.ParseEventKind(payload.Meta.EventName)
	if kind == model.EventUnknown {
		h.logger.Info("Billing webhook ignored", zap.String("event", payload.Meta.EventName))
		writeJSON(w, http.StatusOK, map[string]any{"status": "ignored"})
		return
	}

	if payload.Meta.CustomData.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "missing_user_id", "meta.custom_data.user_id is required")
		return
	}

	attrs := payload.Data.Attributes
	ev := &model.BillingEvent{
		ID:             uuid.New(),
		Name:           payload.Meta.EventName,
		Kind:           kind,
		PersonID:       int64(payload.Meta.CustomData.UserID),
		ExternalID:     payload.Data.ID,
		ProviderStatus: attrs.Status,
		RenewsAt:       attrs.RenewsAt,
		EndsAt:         attrs.EndsAt,
		PortalURL:      attrs.URLs.CustomerPortal,
		Payload:        body,
	}

	sub, err := h.ledger.Apply(r.Context(), ev)
	if err != nil {
		if errors.Is(err, service.ErrUnknownEvent) {
			writeJSON(w, http.StatusOK, map[string]any{"status": "ignored"})
			return
		}
		h.logger.Error("Failed to apply billing event",
			zap.String("event_id", ev.ID.String()),
			zap.String("event", ev.Name),
			zap.Int64("supervisor_id", ev.PersonID),
			zap.Error(err),
		)
		writeStoreError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{
		"event_id":     ev.ID,
		"subscription": sub,
	})
}

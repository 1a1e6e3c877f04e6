package httpapi

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Freeeeeet/relay_bot/internal/config"
	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "whsec"
	testToken  = "admin-token"
)

type fakeLedger struct {
	events []*model.BillingEvent
	err    error
}

func (f *fakeLedger) Apply(_ context.Context, ev *model.BillingEvent) (*model.Subscription, error) {
	f.events = append(f.events, ev)
	if f.err != nil {
		return nil, f.err
	}
	return &model.Subscription{SupervisorID: ev.PersonID, Status: model.SubscriptionStatusActive}, nil
}

type fakeStore struct{ err error }

func (f fakeStore) Ping(context.Context) error { return f.err }

type fakeConnections struct {
	retired map[int64]bool
}

func (f *fakeConnections) ListActive(context.Context) ([]*model.Connection, error) {
	return nil, nil
}

func (f *fakeConnections) Retire(_ context.Context, id int64) (*model.Connection, error) {
	if f.retired[id] {
		return nil, nil
	}
	f.retired[id] = true
	return &model.Connection{ID: id, Status: model.ConnectionStatusRetired}, nil
}

type fakeMessages struct{}

func (fakeMessages) RecentActivity(_ context.Context, limit int) ([]*model.Activity, error) {
	out := make([]*model.Activity, 0, limit)
	for i := 0; i < min(limit, 3); i++ {
		out = append(out, &model.Activity{Slot: 1})
	}
	return out, nil
}

func (fakeMessages) DeleteForConnection(context.Context, int64) (int64, error) {
	return 7, nil
}

type fakeUsage struct {
	err error
}

func (f fakeUsage) ListBlocked(context.Context) ([]*model.UsageRecord, error) { return nil, f.err }

func (f fakeUsage) Reset(_ context.Context, id int64) (*model.UsageRecord, error) {
	return &model.UsageRecord{SupervisorID: id}, f.err
}

func (f fakeUsage) Block(_ context.Context, id int64) (*model.UsageRecord, error) {
	return &model.UsageRecord{SupervisorID: id, IsBlocked: true}, f.err
}

func (f fakeUsage) Unblock(_ context.Context, id int64) (*model.UsageRecord, error) {
	return &model.UsageRecord{SupervisorID: id}, f.err
}

type fakeSubscriptions struct{}

func (fakeSubscriptions) ListActive(context.Context) ([]*model.Subscription, error) { return nil, nil }

type fakeOverview struct{}

func (fakeOverview) Stats(context.Context) (*model.Stats, error) {
	return &model.Stats{ActiveConnections: 2}, nil
}

func (fakeOverview) ListFeedback(context.Context, bool, int) ([]*model.Feedback, error) {
	return nil, nil
}

func (fakeOverview) MarkFeedbackRead(context.Context, int64) (*model.Feedback, error) {
	return nil, nil
}

type fakeReloader struct{ err error }

func (f fakeReloader) Reload() (config.Limits, error) {
	return config.Limits{FreeMessageLimit: 10, Enabled: true, RetentionDays: 7}, f.err
}

type testEnv struct {
	router http.Handler
	ledger *fakeLedger
	conns  *fakeConnections
}

func newTestEnv(t *testing.T, mutate ...func(*Deps)) *testEnv {
	t.Helper()
	env := &testEnv{
		ledger: &fakeLedger{},
		conns:  &fakeConnections{retired: map[int64]bool{}},
	}
	deps := Deps{
		WebhookSecret: testSecret,
		AdminToken:    testToken,
		Store:         fakeStore{},
		Billing:       env.ledger,
		Connections:   env.conns,
		Messages:      fakeMessages{},
		Usage:         fakeUsage{},
		Subscriptions: fakeSubscriptions{},
		Overview:      fakeOverview{},
		Limits:        fakeReloader{},
		Logger:        zap.NewNop(),
	}
	for _, m := range mutate {
		m(&deps)
	}
	env.router = NewRouter(deps)
	return env
}

func (e *testEnv) do(method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) webhook(body, signature string) *httptest.ResponseRecorder {
	return e.do(http.MethodPost, "/webhooks/billing", body, map[string]string{SignatureHeader: signature})
}

func (e *testEnv) admin(method, path string) *httptest.ResponseRecorder {
	return e.do(method, path, "", map[string]string{"Authorization": "Bearer " + testToken})
}

func sign(body string) string {
	return "sha256=" + hex.EncodeToString(SignBody([]byte(testSecret), []byte(body)))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	rec = env.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	down := newTestEnv(t, func(d *Deps) { d.Store = fakeStore{err: errors.New("down")} })
	rec = down.do(http.MethodGet, "/readyz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestBillingWebhookAppliesEvent(t *testing.T) {
	env := newTestEnv(t)
	body := `{
		"meta": {"event_name": "subscription_updated", "custom_data": {"user_id": "1001"}},
		"data": {"id": "sub_42", "attributes": {
			"status": "cancelled",
			"renews_at": "2026-11-01T10:00:00Z",
			"ends_at": "2026-11-15T10:00:00Z",
			"urls": {"customer_portal": "https://billing.example/p/42"}
		}}
	}`

	rec := env.webhook(body, sign(body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", decode(t, rec)["status"])

	require.Len(t, env.ledger.events, 1)
	ev := env.ledger.events[0]
	assert.Equal(t, model.EventUpdated, ev.Kind)
	assert.Equal(t, int64(1001), ev.PersonID)
	assert.Equal(t, "sub_42", ev.ExternalID)
	assert.True(t, ev.ProviderCancelled())
	require.NotNil(t, ev.EndsAt)
	assert.Equal(t, 15, ev.EndsAt.Day())
	assert.Equal(t, "https://billing.example/p/42", ev.PortalURL)
	assert.JSONEq(t, body, string(ev.Payload))
}

func TestBillingWebhookRejections(t *testing.T) {
	valid := `{"meta":{"event_name":"subscription_created","custom_data":{"user_id":1001}},"data":{"id":"s"}}`

	tests := []struct {
		name       string
		body       string
		signature  string
		wantStatus int
		wantCode   string
	}{
		{name: "missing signature", body: valid, signature: "", wantStatus: http.StatusUnauthorized, wantCode: "invalid_signature"},
		{name: "wrong signature", body: valid, signature: sign(valid + " "), wantStatus: http.StatusUnauthorized, wantCode: "invalid_signature"},
		{name: "malformed json", body: `{"meta":`, signature: sign(`{"meta":`), wantStatus: http.StatusBadRequest, wantCode: "invalid_json"},
		{name: "missing user id", body: `{"meta":{"event_name":"subscription_created"}}`, signature: sign(`{"meta":{"event_name":"subscription_created"}}`), wantStatus: http.StatusBadRequest, wantCode: "missing_user_id"},
		{name: "non numeric user id", body: `{"meta":{"event_name":"subscription_created","custom_data":{"user_id":"abc"}}}`, signature: sign(`{"meta":{"event_name":"subscription_created","custom_data":{"user_id":"abc"}}}`), wantStatus: http.StatusBadRequest, wantCode: "invalid_json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			rec := env.webhook(tt.body, tt.signature)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantCode, decode(t, rec)["code"])
			assert.Empty(t, env.ledger.events, "no state change")
		})
	}
}

func TestBillingWebhookUnknownEventIgnored(t *testing.T) {
	env := newTestEnv(t)
	body := `{"meta":{"event_name":"order_created","custom_data":{"user_id":"1001"}}}`

	rec := env.webhook(body, sign(body))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ignored", decode(t, rec)["status"])
	assert.Empty(t, env.ledger.events)
}

func TestBillingWebhookPoolExhausted(t *testing.T) {
	env := newTestEnv(t)
	env.ledger.err = fmt.Errorf("apply created event: %w", base.ErrPoolExhausted)
	body := `{"meta":{"event_name":"subscription_created","custom_data":{"user_id":"1001"}}}`

	rec := env.webhook(body, sign(body))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "pool_exhausted", decode(t, rec)["code"])
}

func TestAdminRequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/admin/stats", "", map[string]string{"Authorization": "Bearer wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.admin(http.MethodGet, "/admin/stats")
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec)["data"].(map[string]any)
	assert.Equal(t, float64(2), data["active_connections"])

	closed := newTestEnv(t, func(d *Deps) { d.AdminToken = "" })
	rec = closed.do(http.MethodGet, "/admin/stats", "", map[string]string{"Authorization": "Bearer "})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRetireConnectionIdempotent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.admin(http.MethodPost, "/admin/connections/5/retire")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["data"].(map[string]any)["changed"])

	rec = env.admin(http.MethodPost, "/admin/connections/5/retire")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["data"].(map[string]any)["changed"])

	rec = env.admin(http.MethodPost, "/admin/connections/abc/retire")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAdminActions(t *testing.T) {
	env := newTestEnv(t)

	rec := env.admin(http.MethodPost, "/admin/usage/1001/block")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["data"].(map[string]any)["is_blocked"])

	rec = env.admin(http.MethodDelete, "/admin/connections/3/messages")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(7), decode(t, rec)["data"].(map[string]any)["deleted"])

	rec = env.admin(http.MethodGet, "/admin/activity?limit=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 2)

	rec = env.admin(http.MethodGet, "/admin/feedback?unread=true")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, decode(t, rec)["data"])

	rec = env.admin(http.MethodPost, "/admin/feedback/9/read")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["data"].(map[string]any)["changed"])
}

func TestAdminUsageStoreError(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.Usage = fakeUsage{err: errors.New("boom")} })

	rec := env.admin(http.MethodPost, "/admin/usage/1001/reset")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal", decode(t, rec)["code"])
}

func TestAdminConfigReload(t *testing.T) {
	env := newTestEnv(t)
	rec := env.admin(http.MethodPost, "/admin/config/reload")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(10), decode(t, rec)["data"].(map[string]any)["free_message_limit"])

	broken := newTestEnv(t, func(d *Deps) { d.Limits = fakeReloader{err: errors.New("RETENTION_DAYS must be at least 1")} })
	rec = broken.admin(http.MethodPost, "/admin/config/reload")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

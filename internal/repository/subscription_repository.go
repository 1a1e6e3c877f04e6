package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `supervisor_id, external_id, status, renews_at, ends_at, cancelled_at, portal_url, created_at, updated_at`

// SubscriptionRepository: каждый переход одним upsert, поэтому повтор события безопасен,
// а событие без записи создаёт её так, будто сначала пришёл created.
type SubscriptionRepository struct {
	*base.Repository
}

func NewSubscriptionRepository(db base.DBTX) *SubscriptionRepository {
	return &SubscriptionRepository{Repository: base.NewRepository(db)}
}

func scanSubscription(row pgx.Row) (*model.Subscription, error) {
	var s model.Subscription
	err := row.Scan(
		&s.SupervisorID,
		&s.ExternalID,
		&s.Status,
		&s.RenewsAt,
		&s.EndsAt,
		&s.CancelledAt,
		&s.PortalURL,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SubscriptionRepository) upsert(ctx context.Context, op, query string, args ...any) (*model.Subscription, error) {
	sub, err := scanSubscription(r.QueryRow(ctx, query+` RETURNING `+subscriptionColumns, args...))
	if err != nil {
		return nil, fmt.Errorf("%s subscription: %w", op, err)
	}
	return sub, nil
}

// ApplyCreated status=active, реквизиты из события
func (r *SubscriptionRepository) ApplyCreated(ctx context.Context, ev *model.BillingEvent) (*model.Subscription, error) {
	return r.upsert(ctx, "create", `
		INSERT INTO subscriptions (supervisor_id, external_id, status, renews_at, ends_at, portal_url)
		VALUES ($1, $2, 'active', $3, $4, $5)
		ON CONFLICT (supervisor_id) DO UPDATE
		SET external_id = EXCLUDED.external_id,
		    status = 'active',
		    renews_at = EXCLUDED.renews_at,
		    ends_at = EXCLUDED.ends_at,
		    cancelled_at = NULL,
		    portal_url = EXCLUDED.portal_url,
		    updated_at = NOW()`,
		ev.PersonID, ev.ExternalID, ev.RenewsAt, ev.EndsAt, ev.PortalURL)
}

// ApplyUpdated обновляет даты и портал; если провайдер пометил подписку отменённой,
// переводит в cancelled и ставит cancelled_at только один раз.
// Пустые даты в событии не затирают сохранённые: ends_at после cancelled остаётся.
func (r *SubscriptionRepository) ApplyUpdated(ctx context.Context, ev *model.BillingEvent) (*model.Subscription, error) {
	return r.upsert(ctx, "update", `
		INSERT INTO subscriptions (supervisor_id, external_id, status, renews_at, ends_at, cancelled_at, portal_url)
		VALUES ($1, $2,
		        CASE WHEN $6::BOOLEAN THEN 'cancelled' ELSE 'active' END,
		        $3, $4,
		        CASE WHEN $6::BOOLEAN THEN NOW() END,
		        $5)
		ON CONFLICT (supervisor_id) DO UPDATE
		SET external_id = COALESCE(NULLIF(EXCLUDED.external_id, ''), subscriptions.external_id),
		    renews_at = COALESCE(EXCLUDED.renews_at, subscriptions.renews_at),
		    ends_at = COALESCE(EXCLUDED.ends_at, subscriptions.ends_at),
		    portal_url = COALESCE(NULLIF(EXCLUDED.portal_url, ''), subscriptions.portal_url),
		    status = CASE WHEN $6::BOOLEAN THEN 'cancelled' ELSE subscriptions.status END,
		    cancelled_at = CASE WHEN $6::BOOLEAN THEN COALESCE(subscriptions.cancelled_at, NOW())
		                        ELSE subscriptions.cancelled_at END,
		    updated_at = NOW()`,
		ev.PersonID, ev.ExternalID, ev.RenewsAt, ev.EndsAt, ev.PortalURL, ev.ProviderCancelled())
}

// ApplyCancelled status=cancelled, доступ сохраняется до ends_at.
// Без ends_at в событии берём конец оплаченного периода.
func (r *SubscriptionRepository) ApplyCancelled(ctx context.Context, ev *model.BillingEvent) (*model.Subscription, error) {
	return r.upsert(ctx, "cancel", `
		INSERT INTO subscriptions (supervisor_id, external_id, status, renews_at, ends_at, cancelled_at, portal_url)
		VALUES ($1, $2, 'cancelled', $3, COALESCE($4::TIMESTAMPTZ, $3::TIMESTAMPTZ), NOW(), $5)
		ON CONFLICT (supervisor_id) DO UPDATE
		SET status = 'cancelled',
		    ends_at = COALESCE(EXCLUDED.ends_at, subscriptions.ends_at, subscriptions.renews_at),
		    cancelled_at = COALESCE(subscriptions.cancelled_at, NOW()),
		    portal_url = COALESCE(NULLIF(EXCLUDED.portal_url, ''), subscriptions.portal_url),
		    updated_at = NOW()`,
		ev.PersonID, ev.ExternalID, ev.RenewsAt, ev.EndsAt, ev.PortalURL)
}

// ApplyResumed status=active, отмена снимается
func (r *SubscriptionRepository) ApplyResumed(ctx context.Context, ev *model.BillingEvent) (*model.Subscription, error) {
	return r.upsert(ctx, "resume", `
		INSERT INTO subscriptions (supervisor_id, external_id, status, renews_at, portal_url)
		VALUES ($1, $2, 'active', $3, $4)
		ON CONFLICT (supervisor_id) DO UPDATE
		SET status = 'active',
		    cancelled_at = NULL,
		    ends_at = NULL,
		    renews_at = COALESCE(EXCLUDED.renews_at, subscriptions.renews_at),
		    portal_url = COALESCE(NULLIF(EXCLUDED.portal_url, ''), subscriptions.portal_url),
		    updated_at = NOW()`,
		ev.PersonID, ev.ExternalID, ev.RenewsAt, ev.PortalURL)
}

// ApplyStatus ставит expired или paused. Запись без истории синтезируется как created
// и сразу получает новый статус.
func (r *SubscriptionRepository) ApplyStatus(ctx context.Context, ev *model.BillingEvent, status model.SubscriptionStatus) (*model.Subscription, error) {
	return r.upsert(ctx, "set status of", `
		INSERT INTO subscriptions (supervisor_id, external_id, status, renews_at, ends_at, portal_url)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (supervisor_id) DO UPDATE
		SET status = EXCLUDED.status,
		    ends_at = COALESCE(EXCLUDED.ends_at, subscriptions.ends_at),
		    portal_url = COALESCE(NULLIF(EXCLUDED.portal_url, ''), subscriptions.portal_url),
		    updated_at = NOW()`,
		ev.PersonID, ev.ExternalID, status, ev.RenewsAt, ev.EndsAt, ev.PortalURL)
}

// Ensure создаёт запись как после created, если её нет; существующую не меняет
func (r *SubscriptionRepository) Ensure(ctx context.Context, ev *model.BillingEvent) (*model.Subscription, error) {
	// DO UPDATE без изменений нужен, чтобы RETURNING отдал существующую строку
	return r.upsert(ctx, "ensure", `
		INSERT INTO subscriptions (supervisor_id, external_id, status, renews_at, ends_at, portal_url)
		VALUES ($1, $2, 'active', $3, $4, $5)
		ON CONFLICT (supervisor_id) DO UPDATE
		SET supervisor_id = subscriptions.supervisor_id`,
		ev.PersonID, ev.ExternalID, ev.RenewsAt, ev.EndsAt, ev.PortalURL)
}

// RecoverPaused paused -> active. nil, если подписка не была на паузе.
func (r *SubscriptionRepository) RecoverPaused(ctx context.Context, supervisorID int64) (*model.Subscription, error) {
	sub, err := scanSubscription(r.QueryRow(ctx, `
		UPDATE subscriptions
		SET status = 'active', updated_at = NOW()
		WHERE supervisor_id = $1 AND status = 'paused'
		RETURNING `+subscriptionColumns, supervisorID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("recover paused subscription: %w", err)
	}
	return sub, nil
}

// Get получает подписку руководителя (nil, если её не было)
func (r *SubscriptionRepository) Get(ctx context.Context, supervisorID int64) (*model.Subscription, error) {
	sub, err := scanSubscription(r.QueryRow(ctx,
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE supervisor_id = $1`, supervisorID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

// ListGrantingAccess получает подписки, дающие доступ сейчас (active или cancelled до ends_at)
func (r *SubscriptionRepository) ListGrantingAccess(ctx context.Context) ([]*model.Subscription, error) {
	rows, err := r.Query(ctx, `
		SELECT `+subscriptionColumns+`
		FROM subscriptions
		WHERE status = 'active' OR (status = 'cancelled' AND ends_at > NOW())
		ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list active subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*model.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate subscriptions: %w", err)
	}

	return subs, nil
}

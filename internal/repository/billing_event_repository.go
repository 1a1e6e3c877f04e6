package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
)

type BillingEventRepository struct {
	*base.Repository
}

func NewBillingEventRepository(db base.DBTX) *BillingEventRepository {
	return &BillingEventRepository{Repository: base.NewRepository(db)}
}

// Append сохраняет проверенное событие в журнал
func (r *BillingEventRepository) Append(ctx context.Context, ev *model.BillingEvent) error {
	payload := ev.Payload
	if len(payload) == 0 {
		payload = []byte(`{}`)
	}

	err := r.QueryRow(ctx, `
		INSERT INTO billing_events (id, event_name, person_id, payload)
		VALUES ($1, $2, $3, $4::JSONB)
		RETURNING received_at
	`, ev.ID, ev.Name, ev.PersonID, string(payload)).Scan(&ev.ReceivedAt)
	if err != nil {
		return fmt.Errorf("append billing event: %w", err)
	}

	return nil
}

// ListByPerson получает последние события по человеку, новые первыми
func (r *BillingEventRepository) ListByPerson(ctx context.Context, personID int64, limit int) ([]*model.BillingEvent, error) {
	rows, err := r.Query(ctx, `
		SELECT id, event_name, person_id, received_at
		FROM billing_events
		WHERE person_id = $1
		ORDER BY received_at DESC
		LIMIT $2
	`, personID, limit)
	if err != nil {
		return nil, fmt.Errorf("list billing events: %w", err)
	}
	defer rows.Close()

	var events []*model.BillingEvent
	for rows.Next() {
		var ev model.BillingEvent
		if err := rows.Scan(&ev.ID, &ev.Name, &ev.PersonID, &ev.ReceivedAt); err != nil {
			return nil, fmt.Errorf("scan billing event: %w", err)
		}
		ev.Kind = model.ParseEventKind(ev.Name)
		events = append(events, &ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate billing events: %w", err)
	}

	return events, nil
}

package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const usageColumns = `supervisor_id, messages_sent, is_blocked, first_message_at, last_message_at`

type UsageRepository struct {
	*base.Repository
}

func NewUsageRepository(db base.DBTX) *UsageRepository {
	return &UsageRepository{Repository: base.NewRepository(db)}
}

func scanUsage(row pgx.Row) (*model.UsageRecord, error) {
	var u model.UsageRecord
	err := row.Scan(
		&u.SupervisorID,
		&u.MessagesSent,
		&u.IsBlocked,
		&u.FirstMessageAt,
		&u.LastMessageAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Ensure создаёт пустую запись, если её ещё нет
func (r *UsageRepository) Ensure(ctx context.Context, supervisorID int64) error {
	_, err := r.DB().Exec(ctx, `
		INSERT INTO usage_records (supervisor_id)
		VALUES ($1)
		ON CONFLICT (supervisor_id) DO NOTHING
	`, supervisorID)
	if err != nil {
		return fmt.Errorf("ensure usage record: %w", err)
	}
	return nil
}

// IncrementUnlessBlocked одним UPDATE увеличивает счётчик и ставит блокировку, если счётчик
// дошёл до ceiling. Заблокированную запись не трогает: ok=false.
// Блокировка строки сериализует конкурентные вызовы для одного руководителя.
func (r *UsageRepository) IncrementUnlessBlocked(ctx context.Context, supervisorID, ceiling int64) (rec *model.UsageRecord, ok bool, err error) {
	query := `
		UPDATE usage_records
		SET messages_sent = messages_sent + 1,
		    is_blocked = (messages_sent + 1) >= $2,
		    first_message_at = COALESCE(first_message_at, NOW()),
		    last_message_at = NOW()
		WHERE supervisor_id = $1 AND NOT is_blocked
		RETURNING ` + usageColumns

	rec, err = scanUsage(r.QueryRow(ctx, query, supervisorID, ceiling))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("increment usage: %w", err)
	}

	return rec, true, nil
}

// Increment увеличивает счётчик без проверки лимита (лимит выключен или id в исключениях)
func (r *UsageRepository) Increment(ctx context.Context, supervisorID int64) (*model.UsageRecord, error) {
	query := `
		UPDATE usage_records
		SET messages_sent = messages_sent + 1,
		    first_message_at = COALESCE(first_message_at, NOW()),
		    last_message_at = NOW()
		WHERE supervisor_id = $1
		RETURNING ` + usageColumns

	rec, err := scanUsage(r.QueryRow(ctx, query, supervisorID))
	if err != nil {
		return nil, fmt.Errorf("increment usage: %w", err)
	}

	return rec, nil
}

// Get получает запись (nil, если руководитель ещё ничего не отправлял)
func (r *UsageRepository) Get(ctx context.Context, supervisorID int64) (*model.UsageRecord, error) {
	rec, err := scanUsage(r.QueryRow(ctx,
		`SELECT `+usageColumns+` FROM usage_records WHERE supervisor_id = $1`, supervisorID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get usage: %w", err)
	}
	return rec, nil
}

// Reset обнуляет счётчик и снимает блокировку
func (r *UsageRepository) Reset(ctx context.Context, supervisorID int64) (*model.UsageRecord, error) {
	query := `
		INSERT INTO usage_records (supervisor_id)
		VALUES ($1)
		ON CONFLICT (supervisor_id) DO UPDATE
		SET messages_sent = 0, is_blocked = FALSE
		RETURNING ` + usageColumns

	rec, err := scanUsage(r.QueryRow(ctx, query, supervisorID))
	if err != nil {
		return nil, fmt.Errorf("reset usage: %w", err)
	}
	return rec, nil
}

// SetBlocked ставит или снимает блокировку, счётчик не меняется
func (r *UsageRepository) SetBlocked(ctx context.Context, supervisorID int64, blocked bool) (*model.UsageRecord, error) {
	query := `
		INSERT INTO usage_records (supervisor_id, is_blocked)
		VALUES ($1, $2)
		ON CONFLICT (supervisor_id) DO UPDATE
		SET is_blocked = EXCLUDED.is_blocked
		RETURNING ` + usageColumns

	rec, err := scanUsage(r.QueryRow(ctx, query, supervisorID, blocked))
	if err != nil {
		return nil, fmt.Errorf("set usage blocked: %w", err)
	}
	return rec, nil
}

// ListBlocked получает заблокированных руководителей
func (r *UsageRepository) ListBlocked(ctx context.Context) ([]*model.UsageRecord, error) {
	rows, err := r.Query(ctx, `
		SELECT `+usageColumns+`
		FROM usage_records
		WHERE is_blocked
		ORDER BY last_message_at DESC NULLS LAST
	`)
	if err != nil {
		return nil, fmt.Errorf("list blocked usage: %w", err)
	}
	defer rows.Close()

	var records []*model.UsageRecord
	for rows.Next() {
		rec, err := scanUsage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage: %w", err)
	}

	return records, nil
}

// CountBlocked подсчитывает заблокированных руководителей
func (r *UsageRepository) CountBlocked(ctx context.Context) (int, error) {
	var count int
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM usage_records WHERE is_blocked`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count blocked usage: %w", err)
	}
	return count, nil
}

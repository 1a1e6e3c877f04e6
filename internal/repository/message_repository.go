package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// MaxHistory верхняя граница выдачи истории по связи
const MaxHistory = 500

const messageColumns = `m.id, m.connection_id, m.sender_id, m.original_text, m.translated_text, m.sent_at`

type MessageRepository struct {
	*base.Repository
}

func NewMessageRepository(db base.DBTX) *MessageRepository {
	return &MessageRepository{Repository: base.NewRepository(db)}
}

func scanMessage(row pgx.Row) (*model.Message, error) {
	var m model.Message
	err := row.Scan(
		&m.ID,
		&m.ConnectionID,
		&m.SenderID,
		&m.OriginalText,
		&m.TranslatedText,
		&m.SentAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMessages(rows pgx.Rows) ([]*model.Message, error) {
	defer rows.Close()

	var messages []*model.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		messages = append(messages, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}

// Create добавляет сообщение в журнал связи
func (r *MessageRepository) Create(ctx context.Context, msg *model.Message) error {
	query := `
		INSERT INTO messages AS m (connection_id, sender_id, original_text, translated_text)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + messageColumns

	created, err := scanMessage(r.QueryRow(ctx, query, msg.ConnectionID, msg.SenderID, msg.OriginalText, msg.TranslatedText))
	if err != nil {
		if base.IsForeignKeyViolation(err) {
			return ErrConnectionNotActive
		}
		return fmt.Errorf("create message: %w", err)
	}

	*msg = *created
	return nil
}

// ListSince получает сообщения связи начиная с момента since, старые первыми
func (r *MessageRepository) ListSince(ctx context.Context, connectionID int64, since time.Time) ([]*model.Message, error) {
	query := `
		SELECT ` + messageColumns + `
		FROM messages m
		WHERE m.connection_id = $1 AND m.sent_at >= $2
		ORDER BY m.sent_at, m.id
	`

	rows, err := r.Query(ctx, query, connectionID, since)
	if err != nil {
		return nil, fmt.Errorf("list recent messages: %w", err)
	}

	return collectMessages(rows)
}

// History получает последние limit сообщений связи (не больше MaxHistory), старые первыми
func (r *MessageRepository) History(ctx context.Context, connectionID int64, limit int) ([]*model.Message, error) {
	if limit <= 0 || limit > MaxHistory {
		limit = MaxHistory
	}

	query := `
		SELECT * FROM (
			SELECT ` + messageColumns + `
			FROM messages m
			WHERE m.connection_id = $1
			ORDER BY m.sent_at DESC, m.id DESC
			LIMIT $2
		) latest
		ORDER BY sent_at, id
	`

	rows, err := r.Query(ctx, query, connectionID, limit)
	if err != nil {
		return nil, fmt.Errorf("get message history: %w", err)
	}

	return collectMessages(rows)
}

// Count считает сообщения связи; connectionID == 0 значит по всей системе
func (r *MessageRepository) Count(ctx context.Context, connectionID int64) (int64, error) {
	var n int64
	err := r.QueryRow(ctx, `
		SELECT COUNT(*) FROM messages WHERE $1::BIGINT = 0 OR connection_id = $1::BIGINT
	`, connectionID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

// RecentActivity последние сообщения по всем связям для мониторинга
func (r *MessageRepository) RecentActivity(ctx context.Context, limit int) ([]*model.Activity, error) {
	query := `
		SELECT ` + messageColumns + `, c.supervisor_id, c.subordinate_id, c.slot
		FROM messages m
		JOIN connections c ON c.id = m.connection_id
		ORDER BY m.sent_at DESC, m.id DESC
		LIMIT $1
	`

	rows, err := r.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent activity: %w", err)
	}
	defer rows.Close()

	var activity []*model.Activity
	for rows.Next() {
		var a model.Activity
		err := rows.Scan(
			&a.ID,
			&a.ConnectionID,
			&a.SenderID,
			&a.OriginalText,
			&a.TranslatedText,
			&a.SentAt,
			&a.SupervisorID,
			&a.SubordinateID,
			&a.Slot,
		)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activity = append(activity, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate activity: %w", err)
	}

	return activity, nil
}

// DeleteByConnection удаляет историю связи
func (r *MessageRepository) DeleteByConnection(ctx context.Context, connectionID int64) (int64, error) {
	n, err := r.ExecAffected(ctx, `DELETE FROM messages WHERE connection_id = $1`, connectionID)
	if err != nil {
		return 0, fmt.Errorf("delete connection messages: %w", err)
	}
	return n, nil
}

// DeleteExpired удаляет сообщения старше retention относительно времени БД
func (r *MessageRepository) DeleteExpired(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := r.ExecAffected(ctx, `
		DELETE FROM messages
		WHERE sent_at < NOW() - make_interval(secs => $1)
	`, retention.Seconds())
	if err != nil {
		return 0, fmt.Errorf("delete expired messages: %w", err)
	}
	return n, nil
}

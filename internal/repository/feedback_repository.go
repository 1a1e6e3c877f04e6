package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const feedbackColumns = `id, person_id, text, is_read, created_at, read_at`

type FeedbackRepository struct {
	*base.Repository
}

func NewFeedbackRepository(db base.DBTX) *FeedbackRepository {
	return &FeedbackRepository{Repository: base.NewRepository(db)}
}

func scanFeedback(row pgx.Row) (*model.Feedback, error) {
	var f model.Feedback
	if err := row.Scan(&f.ID, &f.PersonID, &f.Text, &f.IsRead, &f.CreatedAt, &f.ReadAt); err != nil {
		return nil, err
	}
	return &f, nil
}

// Create сохраняет отзыв
func (r *FeedbackRepository) Create(ctx context.Context, fb *model.Feedback) error {
	created, err := scanFeedback(r.QueryRow(ctx, `
		INSERT INTO feedback (person_id, text)
		VALUES ($1, $2)
		RETURNING `+feedbackColumns, fb.PersonID, fb.Text))
	if err != nil {
		if base.IsForeignKeyViolation(err) {
			return ErrUnknownParticipant
		}
		return fmt.Errorf("create feedback: %w", err)
	}

	*fb = *created
	return nil
}

// List получает отзывы, новые первыми
func (r *FeedbackRepository) List(ctx context.Context, unreadOnly bool, limit int) ([]*model.Feedback, error) {
	rows, err := r.Query(ctx, `
		SELECT `+feedbackColumns+`
		FROM feedback
		WHERE NOT $1::BOOLEAN OR NOT is_read
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, unreadOnly, limit)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()

	var list []*model.Feedback
	for rows.Next() {
		f, err := scanFeedback(rows)
		if err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		list = append(list, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback: %w", err)
	}

	return list, nil
}

// MarkRead помечает отзыв прочитанным; nil, если он не найден или уже прочитан
func (r *FeedbackRepository) MarkRead(ctx context.Context, id int64) (*model.Feedback, error) {
	f, err := scanFeedback(r.QueryRow(ctx, `
		UPDATE feedback
		SET is_read = TRUE, read_at = NOW()
		WHERE id = $1 AND NOT is_read
		RETURNING `+feedbackColumns, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("mark feedback read: %w", err)
	}
	return f, nil
}

// CountUnread считает непрочитанные отзывы
func (r *FeedbackRepository) CountUnread(ctx context.Context) (int64, error) {
	var n int64
	if err := r.QueryRow(ctx, `SELECT COUNT(*) FROM feedback WHERE NOT is_read`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count unread feedback: %w", err)
	}
	return n, nil
}

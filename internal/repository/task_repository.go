package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const taskColumns = `t.id, t.connection_id, t.description, t.description_translated, t.status, t.created_at, t.completed_at`

type TaskRepository struct {
	*base.Repository
}

func NewTaskRepository(db base.DBTX) *TaskRepository {
	return &TaskRepository{Repository: base.NewRepository(db)}
}

func scanTask(row pgx.Row, extra ...any) (*model.Task, error) {
	var t model.Task
	dest := []any{
		&t.ID,
		&t.ConnectionID,
		&t.Description,
		&t.DescriptionTranslated,
		&t.Status,
		&t.CreatedAt,
		&t.CompletedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &t, nil
}

// collectTasksWithSlot читает строки вида taskColumns + c.slot
func collectTasksWithSlot(rows pgx.Rows) ([]*model.Task, error) {
	defer rows.Close()

	var tasks []*model.Task
	for rows.Next() {
		var slot int
		t, err := scanTask(rows, &slot)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Slot = slot
		tasks = append(tasks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

// Create создаёт задачу для связи. Задачу можно поставить только на активную связь.
func (r *TaskRepository) Create(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks AS t (connection_id, description, description_translated)
		SELECT $1::BIGINT, $2::TEXT, $3::TEXT
		WHERE EXISTS (SELECT 1 FROM connections WHERE id = $1 AND status = 'active')
		RETURNING ` + taskColumns

	created, err := scanTask(r.QueryRow(ctx, query, task.ConnectionID, task.Description, task.DescriptionTranslated))
	if err != nil {
		if base.IsNotFound(err) || base.IsForeignKeyViolation(err) {
			return ErrConnectionNotActive
		}
		return fmt.Errorf("create task: %w", err)
	}

	*task = *created
	return nil
}

// Complete pending -> completed одним условным UPDATE.
// nil, если задачи нет или она уже выполнена.
func (r *TaskRepository) Complete(ctx context.Context, id int64) (*model.Task, error) {
	query := `
		UPDATE tasks AS t
		SET status = 'completed', completed_at = NOW()
		WHERE t.id = $1 AND t.status = 'pending'
		RETURNING ` + taskColumns

	task, err := scanTask(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("complete task: %w", err)
	}

	return task, nil
}

// GetByID получает задачу вместе со слотом её связи
func (r *TaskRepository) GetByID(ctx context.Context, id int64) (*model.Task, error) {
	query := `
		SELECT ` + taskColumns + `, c.slot
		FROM tasks t
		JOIN connections c ON c.id = t.connection_id
		WHERE t.id = $1
	`

	var slot int
	task, err := scanTask(r.QueryRow(ctx, query, id), &slot)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}
	task.Slot = slot

	return task, nil
}

// ListForSupervisor получает задачи всех связей руководителя, включая закрытые связи
func (r *TaskRepository) ListForSupervisor(ctx context.Context, supervisorID int64, status model.TaskStatus) ([]*model.Task, error) {
	query := `
		SELECT ` + taskColumns + `, c.slot
		FROM tasks t
		JOIN connections c ON c.id = t.connection_id
		WHERE c.supervisor_id = $1 AND ($2::TEXT = '' OR t.status = $2::TEXT)
		ORDER BY t.created_at DESC, t.id DESC
	`

	rows, err := r.Query(ctx, query, supervisorID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list supervisor tasks: %w", err)
	}

	return collectTasksWithSlot(rows)
}

// ListForSubordinate получает задачи подчинённого
func (r *TaskRepository) ListForSubordinate(ctx context.Context, subordinateID int64, status model.TaskStatus) ([]*model.Task, error) {
	query := `
		SELECT ` + taskColumns + `, c.slot
		FROM tasks t
		JOIN connections c ON c.id = t.connection_id
		WHERE c.subordinate_id = $1 AND ($2::TEXT = '' OR t.status = $2::TEXT)
		ORDER BY t.created_at DESC, t.id DESC
	`

	rows, err := r.Query(ctx, query, subordinateID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list subordinate tasks: %w", err)
	}

	return collectTasksWithSlot(rows)
}

// ListByConnection получает задачи одной связи в порядке создания
func (r *TaskRepository) ListByConnection(ctx context.Context, connectionID int64) ([]*model.Task, error) {
	query := `
		SELECT ` + taskColumns + `, c.slot
		FROM tasks t
		JOIN connections c ON c.id = t.connection_id
		WHERE t.connection_id = $1
		ORDER BY t.created_at, t.id
	`

	rows, err := r.Query(ctx, query, connectionID)
	if err != nil {
		return nil, fmt.Errorf("list connection tasks: %w", err)
	}

	return collectTasksWithSlot(rows)
}

// CountByStatus считает задачи по статусам
func (r *TaskRepository) CountByStatus(ctx context.Context) (map[model.TaskStatus]int64, error) {
	rows, err := r.Query(ctx, `SELECT status, COUNT(*) FROM tasks GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count tasks: %w", err)
	}
	defer rows.Close()

	counts := map[model.TaskStatus]int64{
		model.TaskStatusPending:   0,
		model.TaskStatusCompleted: 0,
	}
	for rows.Next() {
		var status model.TaskStatus
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan task count: %w", err)
		}
		counts[status] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate task counts: %w", err)
	}

	return counts, nil
}

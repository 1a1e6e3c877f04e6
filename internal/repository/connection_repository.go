package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

const connectionColumns = `id, supervisor_id, subordinate_id, slot, status, paired_at, retired_at`

type ConnectionRepository struct {
	*base.Repository
}

func NewConnectionRepository(db base.DBTX) *ConnectionRepository {
	return &ConnectionRepository{Repository: base.NewRepository(db)}
}

func scanConnection(row pgx.Row) (*model.Connection, error) {
	var c model.Connection
	err := row.Scan(
		&c.ID,
		&c.SupervisorID,
		&c.SubordinateID,
		&c.Slot,
		&c.Status,
		&c.PairedAt,
		&c.RetiredAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func collectConnections(rows pgx.Rows) ([]*model.Connection, error) {
	defer rows.Close()

	var connections []*model.Connection
	for rows.Next() {
		c, err := scanConnection(rows)
		if err != nil {
			return nil, fmt.Errorf("scan connection: %w", err)
		}
		connections = append(connections, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate connections: %w", err)
	}

	return connections, nil
}

// Create создаёт активную связь. Эксклюзивность слота и подчинённого обеспечивают
// частичные уникальные индексы, нарушение переводится в ErrSlotOccupied / ErrSubordinateAlreadyPaired.
func (r *ConnectionRepository) Create(ctx context.Context, conn *model.Connection) error {
	query := `
		INSERT INTO connections (supervisor_id, subordinate_id, slot)
		SELECT $1::BIGINT, $2::BIGINT, $3::SMALLINT
		WHERE EXISTS (SELECT 1 FROM supervisors WHERE id = $1 AND deleted_at IS NULL)
		  AND EXISTS (SELECT 1 FROM subordinates WHERE id = $2 AND deleted_at IS NULL)
		RETURNING ` + connectionColumns

	created, err := scanConnection(r.QueryRow(ctx, query, conn.SupervisorID, conn.SubordinateID, conn.Slot))
	if err != nil {
		if base.IsNotFound(err) {
			return ErrUnknownParticipant
		}
		if constraint, ok := base.UniqueViolation(err); ok {
			switch constraint {
			case constraintActiveSlot:
				return ErrSlotOccupied
			case constraintActiveSubordinate:
				return ErrSubordinateAlreadyPaired
			}
		}
		if base.IsCheckViolation(err) {
			return ErrInvalidSlot
		}
		if base.IsForeignKeyViolation(err) {
			return ErrUnknownParticipant
		}
		return fmt.Errorf("create connection: %w", err)
	}

	*conn = *created
	return nil
}

// Retire переводит active -> retired. Возвращает nil, если связь не найдена или уже retired.
func (r *ConnectionRepository) Retire(ctx context.Context, id int64) (*model.Connection, error) {
	query := `
		UPDATE connections
		SET status = 'retired', retired_at = NOW()
		WHERE id = $1 AND status = 'active'
		RETURNING ` + connectionColumns

	conn, err := scanConnection(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("retire connection: %w", err)
	}

	return conn, nil
}

// RetireAllForPerson закрывает все активные связи, где человек участвует в любой роли
func (r *ConnectionRepository) RetireAllForPerson(ctx context.Context, personID int64) ([]*model.Connection, error) {
	query := `
		UPDATE connections
		SET status = 'retired', retired_at = NOW()
		WHERE (supervisor_id = $1 OR subordinate_id = $1) AND status = 'active'
		RETURNING ` + connectionColumns

	rows, err := r.Query(ctx, query, personID)
	if err != nil {
		return nil, fmt.Errorf("retire person connections: %w", err)
	}

	return collectConnections(rows)
}

// GetByID получает связь по ID (в любом статусе)
func (r *ConnectionRepository) GetByID(ctx context.Context, id int64) (*model.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE id = $1`

	conn, err := scanConnection(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get connection by id: %w", err)
	}

	return conn, nil
}

// GetActiveBySlot получает активную связь руководителя на слоте
func (r *ConnectionRepository) GetActiveBySlot(ctx context.Context, supervisorID int64, slot int) (*model.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE supervisor_id = $1 AND slot = $2 AND status = 'active'
	`

	conn, err := scanConnection(r.QueryRow(ctx, query, supervisorID, slot))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active connection by slot: %w", err)
	}

	return conn, nil
}

// GetActiveBySubordinate получает единственную активную связь подчинённого (или nil)
func (r *ConnectionRepository) GetActiveBySubordinate(ctx context.Context, subordinateID int64) (*model.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE subordinate_id = $1 AND status = 'active'
	`

	conn, err := scanConnection(r.QueryRow(ctx, query, subordinateID))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get active connection by subordinate: %w", err)
	}

	return conn, nil
}

// ListActiveBySupervisor получает все активные связи руководителя по возрастанию слота
func (r *ConnectionRepository) ListActiveBySupervisor(ctx context.Context, supervisorID int64) ([]*model.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE supervisor_id = $1 AND status = 'active'
		ORDER BY slot
	`

	rows, err := r.Query(ctx, query, supervisorID)
	if err != nil {
		return nil, fmt.Errorf("list supervisor connections: %w", err)
	}

	return collectConnections(rows)
}

// ListActive получает все активные связи (для админки)
func (r *ConnectionRepository) ListActive(ctx context.Context) ([]*model.Connection, error) {
	query := `
		SELECT ` + connectionColumns + `
		FROM connections
		WHERE status = 'active'
		ORDER BY paired_at DESC
	`

	rows, err := r.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active connections: %w", err)
	}

	return collectConnections(rows)
}

// CountActive подсчитывает активные связи
func (r *ConnectionRepository) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.QueryRow(ctx, `SELECT COUNT(*) FROM connections WHERE status = 'active'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active connections: %w", err)
	}
	return count, nil
}

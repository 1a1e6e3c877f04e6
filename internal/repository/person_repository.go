package repository

import (
	"context"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
)

type PersonRepository struct {
	*base.Repository
}

func NewPersonRepository(db base.DBTX) *PersonRepository {
	return &PersonRepository{Repository: base.NewRepository(db)}
}

// Upsert создаёт пользователя или обновляет имя и язык существующего
func (r *PersonRepository) Upsert(ctx context.Context, person *model.Person) error {
	query := `
		INSERT INTO persons (id, display_name, language_code, gender)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET display_name = EXCLUDED.display_name,
		    language_code = EXCLUDED.language_code,
		    gender = CASE WHEN EXCLUDED.gender = '' THEN persons.gender ELSE EXCLUDED.gender END,
		    updated_at = NOW()
		RETURNING gender, created_at, updated_at
	`

	err := r.QueryRow(
		ctx, query,
		person.ID,
		person.DisplayName,
		person.LanguageCode,
		person.Gender,
	).Scan(&person.Gender, &person.CreatedAt, &person.UpdatedAt)

	if err != nil {
		return fmt.Errorf("upsert person: %w", err)
	}

	return nil
}

// GetByID получает пользователя по Telegram ID
func (r *PersonRepository) GetByID(ctx context.Context, id int64) (*model.Person, error) {
	query := `
		SELECT id, display_name, language_code, gender, created_at, updated_at
		FROM persons
		WHERE id = $1
	`

	var p model.Person
	err := r.QueryRow(ctx, query, id).Scan(
		&p.ID,
		&p.DisplayName,
		&p.LanguageCode,
		&p.Gender,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil // Пользователь не найден
		}
		return nil, fmt.Errorf("get person by id: %w", err)
	}

	return &p, nil
}

// UpdateLanguage меняет язык пользователя
func (r *PersonRepository) UpdateLanguage(ctx context.Context, id int64, languageCode string) error {
	affected, err := r.ExecAffected(ctx,
		`UPDATE persons SET language_code = $1, updated_at = NOW() WHERE id = $2`,
		languageCode, id)
	if err != nil {
		return fmt.Errorf("update language: %w", err)
	}

	if affected == 0 {
		return ErrPersonNotFound
	}

	return nil
}

// CreateSupervisor делает пользователя руководителем. Повторный вызов восстанавливает
// удалённого руководителя и сохраняет его старый invite-код.
func (r *PersonRepository) CreateSupervisor(ctx context.Context, s *model.Supervisor) error {
	query := `
		INSERT INTO supervisors (id, invite_code, category)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET category = CASE WHEN EXCLUDED.category = '' THEN supervisors.category ELSE EXCLUDED.category END,
		    deleted_at = NULL
		RETURNING invite_code, category, deleted_at, created_at
	`

	err := r.QueryRow(ctx, query, s.ID, s.InviteCode, s.Category).
		Scan(&s.InviteCode, &s.Category, &s.DeletedAt, &s.CreatedAt)
	if err != nil {
		if constraint, ok := base.UniqueViolation(err); ok && constraint == constraintInviteCode {
			return ErrInviteCodeTaken
		}
		if base.IsForeignKeyViolation(err) {
			return ErrUnknownParticipant
		}
		return fmt.Errorf("create supervisor: %w", err)
	}

	return nil
}

const supervisorColumns = `id, invite_code, category, deleted_at, created_at`

// GetSupervisor получает запись руководителя (включая удалённых)
func (r *PersonRepository) GetSupervisor(ctx context.Context, id int64) (*model.Supervisor, error) {
	return r.getSupervisor(ctx, `SELECT `+supervisorColumns+` FROM supervisors WHERE id = $1`, id)
}

// GetSupervisorByInviteCode получает действующего руководителя по коду
func (r *PersonRepository) GetSupervisorByInviteCode(ctx context.Context, code string) (*model.Supervisor, error) {
	return r.getSupervisor(ctx,
		`SELECT `+supervisorColumns+` FROM supervisors WHERE invite_code = $1 AND deleted_at IS NULL`, code)
}

func (r *PersonRepository) getSupervisor(ctx context.Context, query string, arg any) (*model.Supervisor, error) {
	var s model.Supervisor
	err := r.QueryRow(ctx, query, arg).Scan(
		&s.ID,
		&s.InviteCode,
		&s.Category,
		&s.DeletedAt,
		&s.CreatedAt,
	)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get supervisor: %w", err)
	}

	return &s, nil
}

// CreateSubordinate делает пользователя подчинённым (идемпотентно, снимает soft delete)
func (r *PersonRepository) CreateSubordinate(ctx context.Context, s *model.Subordinate) error {
	query := `
		INSERT INTO subordinates (id)
		VALUES ($1)
		ON CONFLICT (id) DO UPDATE SET deleted_at = NULL
		RETURNING deleted_at, created_at
	`

	err := r.QueryRow(ctx, query, s.ID).Scan(&s.DeletedAt, &s.CreatedAt)
	if err != nil {
		if base.IsForeignKeyViolation(err) {
			return ErrUnknownParticipant
		}
		return fmt.Errorf("create subordinate: %w", err)
	}

	return nil
}

// GetSubordinate получает запись подчинённого (включая удалённых)
func (r *PersonRepository) GetSubordinate(ctx context.Context, id int64) (*model.Subordinate, error) {
	var s model.Subordinate
	err := r.QueryRow(ctx, `SELECT id, deleted_at, created_at FROM subordinates WHERE id = $1`, id).
		Scan(&s.ID, &s.DeletedAt, &s.CreatedAt)

	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subordinate: %w", err)
	}

	return &s, nil
}

// SoftDeleteSupervisor помечает руководителя удалённым. false, если уже удалён или не найден.
func (r *PersonRepository) SoftDeleteSupervisor(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE supervisors SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("soft delete supervisor: %w", err)
	}
	return affected > 0, nil
}

// SoftDeleteSubordinate помечает подчинённого удалённым. false, если уже удалён или не найден.
func (r *PersonRepository) SoftDeleteSubordinate(ctx context.Context, id int64) (bool, error) {
	affected, err := r.ExecAffected(ctx,
		`UPDATE subordinates SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`, id)
	if err != nil {
		return false, fmt.Errorf("soft delete subordinate: %w", err)
	}
	return affected > 0, nil
}

// CountByRole подсчитывает людей, руководителей и подчинённых (без удалённых)
func (r *PersonRepository) CountByRole(ctx context.Context) (persons, supervisors, subordinates int, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM persons),
			(SELECT COUNT(*) FROM supervisors WHERE deleted_at IS NULL),
			(SELECT COUNT(*) FROM subordinates WHERE deleted_at IS NULL)
	`

	err = r.QueryRow(ctx, query).Scan(&persons, &supervisors, &subordinates)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("count persons by role: %w", err)
	}

	return persons, supervisors, subordinates, nil
}

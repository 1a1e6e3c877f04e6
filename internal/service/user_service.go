package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"

	"github.com/Freeeeeet/relay_bot/internal/model"
	"github.com/Freeeeeet/relay_bot/internal/repository"
	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	inviteCodeBytes    = 5 // 8 символов base32
	inviteCodeAttempts = 5
)

// Profile пользователь вместе с его ролями
type Profile struct {
	Person      *model.Person
	Supervisor  *model.Supervisor
	Subordinate *model.Subordinate
}

// Role основная роль: руководитель важнее подчинённого
func (p *Profile) Role() model.Role {
	switch {
	case p.Supervisor != nil && !p.Supervisor.IsDeleted():
		return model.RoleSupervisor
	case p.Subordinate != nil && !p.Subordinate.IsDeleted():
		return model.RoleSubordinate
	}
	return model.RoleNone
}

type UserService struct {
	coord  *base.Coordinator
	logger *zap.Logger
}

func NewUserService(coord *base.Coordinator, logger *zap.Logger) *UserService {
	return &UserService{
		coord:  coord,
		logger: logger,
	}
}

// Register регистрирует или обновляет пользователя
func (s *UserService) Register(ctx context.Context, person *model.Person) error {
	err := s.coord.Run(ctx, func(tx pgx.Tx) error {
		return repository.NewPersonRepository(tx).Upsert(ctx, person)
	})
	if err != nil {
		return err
	}

	if person.CreatedAt.Equal(person.UpdatedAt) {
		s.logger.Info("New person registered",
			zap.Int64("person_id", person.ID),
			zap.String("language", person.LanguageCode),
		)
	}

	return nil
}

// GetProfile получает пользователя с ролями (nil, если не зарегистрирован)
func (s *UserService) GetProfile(ctx context.Context, id int64) (*Profile, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (*Profile, error) {
		repo := repository.NewPersonRepository(tx)

		person, err := repo.GetByID(ctx, id)
		if err != nil || person == nil {
			return nil, err
		}

		p := &Profile{Person: person}
		if p.Supervisor, err = repo.GetSupervisor(ctx, id); err != nil {
			return nil, err
		}
		if p.Subordinate, err = repo.GetSubordinate(ctx, id); err != nil {
			return nil, err
		}
		return p, nil
	})
}

// SetLanguage меняет язык перевода пользователя
func (s *UserService) SetLanguage(ctx context.Context, id int64, languageCode string) error {
	tag := model.NormalizeLanguage(languageCode)
	return s.coord.Run(ctx, func(tx pgx.Tx) error {
		return repository.NewPersonRepository(tx).UpdateLanguage(ctx, id, tag.String())
	})
}

// BecomeSupervisor делает пользователя руководителем и выдаёт invite-код.
// Повторный вызов возвращает уже выданный код.
func (s *UserService) BecomeSupervisor(ctx context.Context, id int64, category string) (*model.Supervisor, error) {
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := newInviteCode()
		if err != nil {
			return nil, err
		}

		sup := &model.Supervisor{ID: id, InviteCode: code, Category: category}
		err = s.coord.Run(ctx, func(tx pgx.Tx) error {
			return repository.NewPersonRepository(tx).CreateSupervisor(ctx, sup)
		})
		if errors.Is(err, repository.ErrInviteCodeTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}

		s.logger.Info("Person became supervisor",
			zap.Int64("person_id", id),
			zap.String("category", sup.Category),
		)
		return sup, nil
	}

	return nil, ErrInviteCodeExhausted
}

// BecomeSubordinate делает пользователя подчинённым
func (s *UserService) BecomeSubordinate(ctx context.Context, id int64) (*model.Subordinate, error) {
	sub := &model.Subordinate{ID: id}
	err := s.coord.Run(ctx, func(tx pgx.Tx) error {
		return repository.NewPersonRepository(tx).CreateSubordinate(ctx, sub)
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// FindSupervisorByInviteCode действующий руководитель по коду (nil, если код неизвестен)
func (s *UserService) FindSupervisorByInviteCode(ctx context.Context, code string) (*model.Supervisor, error) {
	return inTx(ctx, s.coord, func(tx pgx.Tx) (*model.Supervisor, error) {
		return repository.NewPersonRepository(tx).GetSupervisorByInviteCode(ctx, code)
	})
}

// SoftDelete закрывает все связи пользователя и помечает обе роли удалёнными одной единицей работы
func (s *UserService) SoftDelete(ctx context.Context, id int64) ([]*model.Connection, error) {
	retired, err := inTx(ctx, s.coord, func(tx pgx.Tx) ([]*model.Connection, error) {
		retired, err := repository.NewConnectionRepository(tx).RetireAllForPerson(ctx, id)
		if err != nil {
			return nil, err
		}

		people := repository.NewPersonRepository(tx)
		if _, err := people.SoftDeleteSupervisor(ctx, id); err != nil {
			return nil, err
		}
		if _, err := people.SoftDeleteSubordinate(ctx, id); err != nil {
			return nil, err
		}
		return retired, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Person soft deleted",
		zap.Int64("person_id", id),
		zap.Int("retired_connections", len(retired)),
	)
	return retired, nil
}

func newInviteCode() (string, error) {
	buf := make([]byte, inviteCodeBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	return base32.StdEncoding.WithPadding(base32.NoPadding).EncodeToString(buf), nil
}

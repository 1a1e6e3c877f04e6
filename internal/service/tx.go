package service

import (
	"context"

	"github.com/Freeeeeet/relay_bot/internal/repository/base"
	"github.com/jackc/pgx/v5"
)

// inTx выполняет fn одной единицей работы и возвращает её результат
func inTx[T any](ctx context.Context, coord *base.Coordinator, fn func(tx pgx.Tx) (T, error)) (T, error) {
	var out T
	err := coord.Run(ctx, func(tx pgx.Tx) error {
		var err error
		out, err = fn(tx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

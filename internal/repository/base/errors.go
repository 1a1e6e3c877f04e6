package base

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPoolExhausted возвращается, когда свободное соединение не появилось за время ожидания
var ErrPoolExhausted = errors.New("connection pool exhausted")

// SQLSTATE коды, которые мы различаем
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeCheckViolation       = "23514"
	CodeSerializationFailure = "40001"
	CodeDeadlockDetected     = "40P01"
)

// PgError достаёт *pgconn.PgError из цепочки ошибок
func PgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}
	return nil, false
}

// UniqueViolation возвращает имя нарушенного уникального индекса/ограничения
func UniqueViolation(err error) (string, bool) {
	pgErr, ok := PgError(err)
	if !ok || pgErr.Code != CodeUniqueViolation {
		return "", false
	}
	return pgErr.ConstraintName, true
}

// IsForeignKeyViolation проверяет нарушение внешнего ключа
func IsForeignKeyViolation(err error) bool {
	pgErr, ok := PgError(err)
	return ok && pgErr.Code == CodeForeignKeyViolation
}

// IsCheckViolation проверяет нарушение CHECK ограничения
func IsCheckViolation(err error) bool {
	pgErr, ok := PgError(err)
	return ok && pgErr.Code == CodeCheckViolation
}

// IsTransient сообщает, что всю единицу работы можно безопасно повторить
func IsTransient(err error) bool {
	pgErr, ok := PgError(err)
	if !ok {
		return false
	}
	return pgErr.Code == CodeSerializationFailure || pgErr.Code == CodeDeadlockDetected
}

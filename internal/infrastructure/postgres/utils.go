package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/stock-api/internal/domain"
)

// Códigos SQLSTATE relevantes.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeCheckViolation       = "23514"
	codeLockNotAvailable     = "55P03"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeQueryCanceled        = "57014"
	codeInvalidTextRep       = "22P02" // p. ej. id que no es UUID
	codeStringTooLong        = "22001"
	codeNumericOutOfRange    = "22003"
)

// psql builder de squirrel con placeholders $n.
var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)

// classifyError traduce errores del driver a la taxonomía de dominio.
// Espera de bloqueo agotada, serialización, deadlock y plazo vencido son transitorios;
// valores que la columna no admite son entrada inválida.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.NewTransient(op, err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeLockNotAvailable, codeSerializationFailure, codeDeadlockDetected, codeQueryCanceled:
			return domain.NewTransient(op, err)
		case codeForeignKeyViolation, codeCheckViolation:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrIntegrity, pgErr.Message)
		case codeUniqueViolation:
			return fmt.Errorf("%s: %w", op, domain.ErrDuplicate)
		case codeInvalidTextRep, codeStringTooLong, codeNumericOutOfRange:
			return fmt.Errorf("%s: %w: %s", op, domain.ErrInvalidInput, pgErr.Message)
		}
	}
	if pgconn.Timeout(err) {
		return domain.NewTransient(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

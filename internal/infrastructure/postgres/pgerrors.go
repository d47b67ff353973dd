package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/retail-pos/internal/domain"
)

// Códigos SQLSTATE relevantes. Se comparan códigos, nunca substrings del
// mensaje ni nombres de constraints.
const (
	codeUniqueViolation = "23505"
	codeCheckViolation  = "23514"
	codeLockNotAvail    = "55P03"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeUniqueViolation
}

// isCheckViolation verifica si un error es una violación de CHECK (23514),
// p. ej. el respaldo quantity >= 0 del ledger.
func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeCheckViolation
}

// isLockTimeout verifica si un error es lock_timeout agotado (55P03).
func isLockTimeout(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeLockNotAvail
}

// isConnectionFailure verifica errores de la clase 08 (fallo de conexión).
func isConnectionFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && len(pgErr.Code) >= 2 && pgErr.Code[:2] == "08"
}

// mapTxError traduce errores de infraestructura a errores de dominio al cierre
// de una transacción. Los errores de dominio ya mapeados pasan sin cambios.
func mapTxError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case isLockTimeout(err):
		return domain.ErrLockTimeout
	case isConnectionFailure(err):
		return domain.ErrStorageUnavailable
	}
	return err
}

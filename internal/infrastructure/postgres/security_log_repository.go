package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
)

var _ repository.SecurityLogRepository = (*SecurityLogRepo)(nil)

// SecurityLogRepo implementación del log de seguridad sobre PostgreSQL (append-only).
type SecurityLogRepo struct {
	q Querier
}

// NewSecurityLogRepository construye el adaptador.
func NewSecurityLogRepository(q Querier) *SecurityLogRepo {
	return &SecurityLogRepo{q: q}
}

// Create persiste un evento de seguridad.
func (r *SecurityLogRepo) Create(log *entity.SecurityLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO security_log (id, user_id, action, details, ip_address, success, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	userID := (*string)(nil)
	if log.UserID != "" {
		userID = &log.UserID
	}
	_, err := r.q.Exec(context.Background(), query,
		log.ID, userID, log.Action, log.Details, log.IPAddress, log.Success, log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create security log: %w", err)
	}
	return nil
}

// List lista los eventos más recientes.
func (r *SecurityLogRepo) List(limit, offset int) ([]*entity.SecurityLog, error) {
	query := securityLogSelect + ` ORDER BY sl.created_at DESC LIMIT $1 OFFSET $2`
	return r.list(query, limit, offset)
}

// ListFailedLogins lista intentos de login fallidos.
func (r *SecurityLogRepo) ListFailedLogins(limit, offset int) ([]*entity.SecurityLog, error) {
	query := securityLogSelect + `
		WHERE sl.action = $1 AND NOT sl.success
		ORDER BY sl.created_at DESC LIMIT $2 OFFSET $3`
	return r.list(query, entity.SecurityActionLoginFailed, limit, offset)
}

// ListByPeriod lista eventos dentro de un rango de fechas.
func (r *SecurityLogRepo) ListByPeriod(from, to time.Time, limit, offset int) ([]*entity.SecurityLog, error) {
	query := securityLogSelect + `
		WHERE sl.created_at >= $1 AND sl.created_at <= $2
		ORDER BY sl.created_at DESC LIMIT $3 OFFSET $4`
	return r.list(query, from, to, limit, offset)
}

const securityLogSelect = `
	SELECT sl.id, COALESCE(sl.user_id::text, ''), sl.action, sl.details, sl.ip_address, sl.success, sl.created_at,
	       COALESCE(u.login, ''), COALESCE(u.full_name, '')
	FROM security_log sl
	LEFT JOIN users u ON u.id = sl.user_id`

func (r *SecurityLogRepo) list(query string, args ...any) ([]*entity.SecurityLog, error) {
	rows, err := r.q.Query(context.Background(), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list security log: %w", err)
	}
	defer rows.Close()
	var list []*entity.SecurityLog
	for rows.Next() {
		var l entity.SecurityLog
		if err := rows.Scan(&l.ID, &l.UserID, &l.Action, &l.Details, &l.IPAddress, &l.Success,
			&l.CreatedAt, &l.UserLogin, &l.UserName); err != nil {
			return nil, fmt.Errorf("scan security log: %w", err)
		}
		list = append(list, &l)
	}
	return list, rows.Err()
}

package repository

import (
	"time"

	"github.com/jhoicas/retail-pos/internal/domain/entity"
)

// SecurityLogRepository define el puerto del log de seguridad (append-only).
type SecurityLogRepository interface {
	Create(log *entity.SecurityLog) error
	List(limit, offset int) ([]*entity.SecurityLog, error)
	ListFailedLogins(limit, offset int) ([]*entity.SecurityLog, error)
	ListByPeriod(from, to time.Time, limit, offset int) ([]*entity.SecurityLog, error)
}

package repository

import "github.com/jhoicas/retail-pos/internal/domain/entity"

// UserRepository define el puerto de persistencia para usuarios.
// No hay Delete: la baja es un cambio de estado a DELETED.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id string) (*entity.User, error)
	GetByLogin(login string) (*entity.User, error)
	Update(user *entity.User) error
	UpdatePassword(userID, passwordHash string) error
	UpdateStatus(userID, status string) error
	List(limit, offset int) ([]*entity.User, error)
}

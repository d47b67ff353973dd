package entity

import "time"

// Roles de usuario.
const (
	RoleAdmin    = "ADMIN"
	RoleManager  = "MANAGER"
	RoleEmployee = "EMPLOYEE"
)

// Estados de usuario. DELETED es un borrado lógico: la fila nunca se elimina.
const (
	UserStatusActive  = "ACTIVE"
	UserStatusBlocked = "BLOCKED"
	UserStatusDeleted = "DELETED"
)

// User representa un usuario del back-office (cajero, gerente o administrador).
type User struct {
	ID           string
	Login        string
	PasswordHash string
	FullName     string
	Role         string
	Status       string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsValidRole verifica que el rol sea uno de los conocidos.
func IsValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleManager, RoleEmployee:
		return true
	}
	return false
}

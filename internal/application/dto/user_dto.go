package dto

import "time"

// LoginRequest credenciales de acceso.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse token y usuario autenticado.
type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

// ChangePasswordRequest cambio de contraseña del usuario autenticado.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// CreateUserRequest alta de usuario (solo ADMIN).
type CreateUserRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// UpdateUserRequest actualización de nombre y rol.
type UpdateUserRequest struct {
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// UserResponse usuario para respuestas (nunca incluye el hash).
type UserResponse struct {
	ID        string    `json:"id"`
	Login     string    `json:"login"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// SecurityLogResponse evento de seguridad para listados.
type SecurityLogResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id,omitempty"`
	UserLogin string    `json:"user_login,omitempty"`
	UserName  string    `json:"user_name,omitempty"`
	Action    string    `json:"action"`
	Details   string    `json:"details,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Success   bool      `json:"success"`
	CreatedAt time.Time `json:"created_at"`
}

package entity

import "time"

// Acciones registradas en el log de seguridad.
const (
	SecurityActionLogin          = "LOGIN"
	SecurityActionLoginFailed    = "LOGIN_FAILED"
	SecurityActionPasswordChange = "PASSWORD_CHANGE"
	SecurityActionUserBlocked    = "USER_BLOCKED"
)

// SecurityLog evento de seguridad (append-only): intentos de login,
// cambios de contraseña, bloqueos de usuario.
type SecurityLog struct {
	ID        string
	UserID    string // vacío si el login falló contra un usuario inexistente
	Action    string
	Details   string
	IPAddress string
	Success   bool
	CreatedAt time.Time

	// Denormalizado para listados
	UserLogin string
	UserName  string
}

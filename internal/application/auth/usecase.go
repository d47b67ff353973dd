package auth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
	"github.com/jhoicas/retail-pos/pkg/jwt"
	"github.com/jhoicas/retail-pos/pkg/logger"
)

// Config parámetros de emisión de tokens.
type Config struct {
	JWTSecret  string
	Issuer     string
	ExpMinutes int
}

// UseCase autenticación con log de seguridad: cada intento de login, exitoso o
// no, deja un evento append-only con la IP de origen.
type UseCase struct {
	users       repository.UserRepository
	securityLog repository.SecurityLogRepository
	cfg         Config
	log         *logger.Logger
}

// NewUseCase crea el caso de uso de autenticación.
func NewUseCase(users repository.UserRepository, securityLog repository.SecurityLogRepository, cfg Config, log *logger.Logger) *UseCase {
	return &UseCase{users: users, securityLog: securityLog, cfg: cfg, log: log}
}

// Login valida credenciales y emite un JWT con el rol embebido.
// Usuarios BLOCKED o DELETED no pueden autenticarse aunque la contraseña sea correcta.
func (uc *UseCase) Login(ctx context.Context, req dto.LoginRequest, ip string) (*dto.LoginResponse, error) {
	if req.Login == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: login y contraseña requeridos", domain.ErrInvalidInput)
	}

	user, err := uc.users.GetByLogin(req.Login)
	if err != nil {
		return nil, err
	}
	if user == nil {
		uc.audit("", entity.SecurityActionLoginFailed, fmt.Sprintf("login desconocido: %s", req.Login), ip, false)
		return nil, domain.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		uc.audit(user.ID, entity.SecurityActionLoginFailed, "contraseña incorrecta", ip, false)
		return nil, domain.ErrUnauthorized
	}

	if user.Status != entity.UserStatusActive {
		uc.audit(user.ID, entity.SecurityActionLoginFailed, fmt.Sprintf("usuario en estado %s", user.Status), ip, false)
		return nil, domain.ErrUserBlocked
	}

	token, err := jwt.Generate(uc.cfg.JWTSecret, user.ID, user.Role, uc.cfg.Issuer, uc.cfg.ExpMinutes)
	if err != nil {
		return nil, fmt.Errorf("generando token: %w", err)
	}

	uc.audit(user.ID, entity.SecurityActionLogin, "", ip, true)
	uc.log.Info().Str("user_id", user.ID).Str("login", user.Login).Msg("login exitoso")

	return &dto.LoginResponse{
		Token: token,
		User:  toUserResponse(user),
	}, nil
}

// ChangePassword cambia la contraseña del usuario autenticado, verificando la actual.
func (uc *UseCase) ChangePassword(ctx context.Context, userID string, req dto.ChangePasswordRequest, ip string) error {
	if len(req.NewPassword) < 8 {
		return fmt.Errorf("%w: la nueva contraseña debe tener al menos 8 caracteres", domain.ErrInvalidInput)
	}

	user, err := uc.users.GetByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		uc.audit(user.ID, entity.SecurityActionPasswordChange, "contraseña actual incorrecta", ip, false)
		return domain.ErrUnauthorized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("generando hash: %w", err)
	}
	if err := uc.users.UpdatePassword(user.ID, string(hash)); err != nil {
		return err
	}

	uc.audit(user.ID, entity.SecurityActionPasswordChange, "", ip, true)
	return nil
}

// ListSecurityLog eventos de seguridad, del más reciente al más antiguo.
func (uc *UseCase) ListSecurityLog(ctx context.Context, page dto.PageRequest) ([]*dto.SecurityLogResponse, error) {
	logs, err := uc.securityLog.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toSecurityLogResponses(logs), nil
}

// ListFailedLogins solo los intentos de login fallidos.
func (uc *UseCase) ListFailedLogins(ctx context.Context, page dto.PageRequest) ([]*dto.SecurityLogResponse, error) {
	logs, err := uc.securityLog.ListFailedLogins(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	return toSecurityLogResponses(logs), nil
}

// audit registra el evento de seguridad. Un fallo al auditar no aborta la
// operación principal; se deja constancia en el log de aplicación.
func (uc *UseCase) audit(userID, action, details, ip string, success bool) {
	err := uc.securityLog.Create(&entity.SecurityLog{
		UserID:    userID,
		Action:    action,
		Details:   details,
		IPAddress: ip,
		Success:   success,
	})
	if err != nil {
		uc.log.Error().Err(err).Str("action", action).Msg("no se pudo registrar el evento de seguridad")
	}
}

func toUserResponse(u *entity.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Login:     u.Login,
		FullName:  u.FullName,
		Role:      u.Role,
		Status:    u.Status,
		CreatedAt: u.CreatedAt,
	}
}

func toSecurityLogResponses(logs []*entity.SecurityLog) []*dto.SecurityLogResponse {
	out := make([]*dto.SecurityLogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, &dto.SecurityLogResponse{
			ID:        l.ID,
			UserID:    l.UserID,
			UserLogin: l.UserLogin,
			UserName:  l.UserName,
			Action:    l.Action,
			Details:   l.Details,
			IPAddress: l.IPAddress,
			Success:   l.Success,
			CreatedAt: l.CreatedAt,
		})
	}
	return out
}

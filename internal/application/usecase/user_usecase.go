package usecase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/internal/domain/repository"
	"github.com/jhoicas/retail-pos/pkg/logger"
)

// UserUseCase administración de usuarios (solo ADMIN desde el router).
// No existe borrado físico: la baja es un cambio de estado a DELETED, y los
// bloqueos quedan registrados en el log de seguridad.
type UserUseCase struct {
	users       repository.UserRepository
	securityLog repository.SecurityLogRepository
	log         *logger.Logger
}

// NewUserUseCase crea el caso de uso de administración de usuarios.
func NewUserUseCase(users repository.UserRepository, securityLog repository.SecurityLogRepository, log *logger.Logger) *UserUseCase {
	return &UserUseCase{users: users, securityLog: securityLog, log: log}
}

// CreateUser da de alta un usuario con rol válido y contraseña hasheada.
func (uc *UserUseCase) CreateUser(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if req.Login == "" || req.FullName == "" {
		return nil, fmt.Errorf("%w: login y nombre requeridos", domain.ErrInvalidInput)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: la contraseña debe tener al menos 8 caracteres", domain.ErrInvalidInput)
	}
	if !entity.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, req.Role)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("generando hash: %w", err)
	}

	user := &entity.User{
		ID:           uuid.NewString(),
		Login:        req.Login,
		PasswordHash: string(hash),
		FullName:     req.FullName,
		Role:         req.Role,
		Status:       entity.UserStatusActive,
	}
	if err := uc.users.Create(user); err != nil {
		return nil, err
	}

	uc.log.Info().Str("user_id", user.ID).Str("login", user.Login).Str("role", user.Role).Msg("usuario creado")
	resp := toUserResponse(user)
	return &resp, nil
}

// GetUser devuelve un usuario por ID.
func (uc *UserUseCase) GetUser(ctx context.Context, id string) (*dto.UserResponse, error) {
	user, err := uc.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// UpdateUser actualiza nombre y rol.
func (uc *UserUseCase) UpdateUser(ctx context.Context, id string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := uc.users.GetByID(id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if req.FullName == "" {
		return nil, fmt.Errorf("%w: nombre requerido", domain.ErrInvalidInput)
	}
	if !entity.IsValidRole(req.Role) {
		return nil, fmt.Errorf("%w: rol desconocido %q", domain.ErrInvalidInput, req.Role)
	}

	user.FullName = req.FullName
	user.Role = req.Role
	if err := uc.users.Update(user); err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// BlockUser bloquea un usuario y deja el evento en el log de seguridad.
func (uc *UserUseCase) BlockUser(ctx context.Context, id, actorID string) error {
	return uc.setStatus(ctx, id, actorID, entity.UserStatusBlocked)
}

// UnblockUser reactiva un usuario bloqueado.
func (uc *UserUseCase) UnblockUser(ctx context.Context, id, actorID string) error {
	return uc.setStatus(ctx, id, actorID, entity.UserStatusActive)
}

// DeleteUser baja lógica: el registro queda, el acceso no.
func (uc *UserUseCase) DeleteUser(ctx context.Context, id, actorID string) error {
	return uc.setStatus(ctx, id, actorID, entity.UserStatusDeleted)
}

func (uc *UserUseCase) setStatus(ctx context.Context, id, actorID, status string) error {
	user, err := uc.users.GetByID(id)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if user.ID == actorID && status != entity.UserStatusActive {
		return fmt.Errorf("%w: un usuario no puede bloquearse o eliminarse a sí mismo", domain.ErrInvalidInput)
	}
	if err := uc.users.UpdateStatus(id, status); err != nil {
		return err
	}

	if status == entity.UserStatusBlocked {
		auditErr := uc.securityLog.Create(&entity.SecurityLog{
			UserID:  user.ID,
			Action:  entity.SecurityActionUserBlocked,
			Details: fmt.Sprintf("bloqueado por %s", actorID),
			Success: true,
		})
		if auditErr != nil {
			uc.log.Error().Err(auditErr).Str("user_id", user.ID).Msg("no se pudo registrar el bloqueo")
		}
	}

	uc.log.Info().Str("user_id", user.ID).Str("status", status).Str("actor_id", actorID).Msg("estado de usuario actualizado")
	return nil
}

// ListUsers listado paginado de usuarios.
func (uc *UserUseCase) ListUsers(ctx context.Context, page dto.PageRequest) ([]*dto.UserResponse, error) {
	users, err := uc.users.List(page.Limit, page.Offset)
	if err != nil {
		return nil, err
	}
	out := make([]*dto.UserResponse, 0, len(users))
	for _, u := range users {
		resp := toUserResponse(u)
		out = append(out, &resp)
	}
	return out, nil
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

package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/retail-pos/internal/application/auth"
	"github.com/jhoicas/retail-pos/internal/application/dto"
	"github.com/jhoicas/retail-pos/internal/domain"
	"github.com/jhoicas/retail-pos/internal/domain/entity"
	"github.com/jhoicas/retail-pos/pkg/jwt"
	"github.com/jhoicas/retail-pos/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria
// ──────────────────────────────────────────────────────────────────────────────

type fakeUserRepo struct {
	byLogin map[string]*entity.User
	byID    map[string]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byLogin: map[string]*entity.User{}, byID: map[string]*entity.User{}}
}

func (r *fakeUserRepo) Create(u *entity.User) error {
	r.byLogin[u.Login] = u
	r.byID[u.ID] = u
	return nil
}
func (r *fakeUserRepo) GetByID(id string) (*entity.User, error)       { return r.byID[id], nil }
func (r *fakeUserRepo) GetByLogin(login string) (*entity.User, error) { return r.byLogin[login], nil }
func (r *fakeUserRepo) Update(u *entity.User) error                   { return r.Create(u) }
func (r *fakeUserRepo) UpdatePassword(userID, hash string) error {
	r.byID[userID].PasswordHash = hash
	return nil
}
func (r *fakeUserRepo) UpdateStatus(userID, status string) error {
	r.byID[userID].Status = status
	return nil
}
func (r *fakeUserRepo) List(limit, offset int) ([]*entity.User, error) { return nil, nil }

type fakeSecurityLogRepo struct {
	events []*entity.SecurityLog
}

func (r *fakeSecurityLogRepo) Create(l *entity.SecurityLog) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	l.CreatedAt = time.Now()
	r.events = append(r.events, l)
	return nil
}
func (r *fakeSecurityLogRepo) List(limit, offset int) ([]*entity.SecurityLog, error) {
	return r.events, nil
}
func (r *fakeSecurityLogRepo) ListFailedLogins(limit, offset int) ([]*entity.SecurityLog, error) {
	var out []*entity.SecurityLog
	for _, e := range r.events {
		if e.Action == entity.SecurityActionLoginFailed {
			out = append(out, e)
		}
	}
	return out, nil
}
func (r *fakeSecurityLogRepo) ListByPeriod(from, to time.Time, limit, offset int) ([]*entity.SecurityLog, error) {
	return r.events, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

const testSecret = "secret-para-tests"

func newTestAuth(t *testing.T) (*auth.UseCase, *fakeUserRepo, *fakeSecurityLogRepo) {
	t.Helper()
	users := newFakeUserRepo()
	audit := &fakeSecurityLogRepo{}
	log := logger.New(logger.Config{Env: "development", Level: "error"})
	uc := auth.NewUseCase(users, audit, auth.Config{
		JWTSecret:  testSecret,
		Issuer:     "retail-pos-test",
		ExpMinutes: 60,
	}, log)
	return uc, users, audit
}

func seedUser(t *testing.T, users *fakeUserRepo, login, password, role, status string) *entity.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &entity.User{
		ID:           uuid.NewString(),
		Login:        login,
		PasswordHash: string(hash),
		FullName:     "Usuario " + login,
		Role:         role,
		Status:       status,
	}
	require.NoError(t, users.Create(u))
	return u
}

// ──────────────────────────────────────────────────────────────────────────────
// Login
// ──────────────────────────────────────────────────────────────────────────────

func TestLogin_Exitoso_EmiteTokenConRol(t *testing.T) {
	uc, users, audit := newTestAuth(t)
	u := seedUser(t, users, "cajero1", "contraseña-segura", entity.RoleEmployee, entity.UserStatusActive)

	out, err := uc.Login(context.Background(), dto.LoginRequest{
		Login: "cajero1", Password: "contraseña-segura",
	}, "10.0.0.5")
	require.NoError(t, err)

	userID, role, err := jwt.Parse(testSecret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, userID)
	assert.Equal(t, entity.RoleEmployee, role)
	assert.Equal(t, "cajero1", out.User.Login)

	require.Len(t, audit.events, 1)
	assert.Equal(t, entity.SecurityActionLogin, audit.events[0].Action)
	assert.True(t, audit.events[0].Success)
	assert.Equal(t, "10.0.0.5", audit.events[0].IPAddress)
}

func TestLogin_ContraseñaIncorrecta_DejaEventoFallido(t *testing.T) {
	uc, users, audit := newTestAuth(t)
	u := seedUser(t, users, "cajero1", "correcta", entity.RoleEmployee, entity.UserStatusActive)

	_, err := uc.Login(context.Background(), dto.LoginRequest{
		Login: "cajero1", Password: "incorrecta",
	}, "10.0.0.5")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.Len(t, audit.events, 1)
	assert.Equal(t, entity.SecurityActionLoginFailed, audit.events[0].Action)
	assert.False(t, audit.events[0].Success)
	assert.Equal(t, u.ID, audit.events[0].UserID)
}

func TestLogin_UsuarioDesconocido_AuditaSinUserID(t *testing.T) {
	uc, _, audit := newTestAuth(t)

	_, err := uc.Login(context.Background(), dto.LoginRequest{
		Login: "nadie", Password: "x",
	}, "10.0.0.5")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	require.Len(t, audit.events, 1)
	assert.Empty(t, audit.events[0].UserID)
}

func TestLogin_UsuarioBloqueadoOEliminado_NoAccede(t *testing.T) {
	uc, users, _ := newTestAuth(t)
	seedUser(t, users, "bloqueado", "clave-valida", entity.RoleEmployee, entity.UserStatusBlocked)
	seedUser(t, users, "borrado", "clave-valida", entity.RoleEmployee, entity.UserStatusDeleted)

	for _, login := range []string{"bloqueado", "borrado"} {
		_, err := uc.Login(context.Background(), dto.LoginRequest{
			Login: login, Password: "clave-valida",
		}, "")
		assert.ErrorIs(t, err, domain.ErrUserBlocked,
			"aunque la contraseña sea correcta, %s no debe entrar", login)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// ChangePassword
// ──────────────────────────────────────────────────────────────────────────────

func TestChangePassword(t *testing.T) {
	uc, users, audit := newTestAuth(t)
	u := seedUser(t, users, "cajero1", "clave-antigua", entity.RoleEmployee, entity.UserStatusActive)

	// Contraseña actual incorrecta
	err := uc.ChangePassword(context.Background(), u.ID, dto.ChangePasswordRequest{
		CurrentPassword: "equivocada", NewPassword: "clave-nueva-larga",
	}, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Nueva demasiado corta
	err = uc.ChangePassword(context.Background(), u.ID, dto.ChangePasswordRequest{
		CurrentPassword: "clave-antigua", NewPassword: "corta",
	}, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	// Cambio correcto: el login funciona con la nueva y falla con la antigua
	err = uc.ChangePassword(context.Background(), u.ID, dto.ChangePasswordRequest{
		CurrentPassword: "clave-antigua", NewPassword: "clave-nueva-larga",
	}, "")
	require.NoError(t, err)

	_, err = uc.Login(context.Background(), dto.LoginRequest{Login: "cajero1", Password: "clave-nueva-larga"}, "")
	assert.NoError(t, err)
	_, err = uc.Login(context.Background(), dto.LoginRequest{Login: "cajero1", Password: "clave-antigua"}, "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// El cambio exitoso quedó auditado
	var changed bool
	for _, e := range audit.events {
		if e.Action == entity.SecurityActionPasswordChange && e.Success {
			changed = true
		}
	}
	assert.True(t, changed, "el cambio de contraseña debe quedar en el log de seguridad")
}

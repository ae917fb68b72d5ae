package auth_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/dian-resoluciones/internal/application/auth"
	"github.com/jhoicas/dian-resoluciones/internal/application/dto"
	"github.com/jhoicas/dian-resoluciones/internal/domain"
	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
	"github.com/jhoicas/dian-resoluciones/pkg/jwt"
)

type fakeUsers map[string]*entity.User

func (f fakeUsers) FindByID(_ context.Context, id string) (*entity.User, error) {
	for _, u := range f {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, nil
}

func (f fakeUsers) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	return f[email], nil
}

func newUseCase(t *testing.T, status string) *auth.AuthUseCase {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secreto"), bcrypt.MinCost)
	require.NoError(t, err)
	users := fakeUsers{
		"admin@empresa.co": {
			ID: "u-1", CompanyID: "c-1", Email: "admin@empresa.co", Name: "Admin",
			PasswordHash: string(hash), Role: entity.RoleAdmin, Status: status,
		},
	}
	return auth.NewAuthUseCase(users, auth.JWTConfig{Secret: "s", ExpMinutes: 60, Issuer: "test"})
}

func TestLogin_Exitoso(t *testing.T) {
	uc := newUseCase(t, entity.UserStatusActive)

	out, err := uc.Login(context.Background(), dto.LoginRequest{Email: "admin@empresa.co", Password: "secreto"})
	require.NoError(t, err)
	assert.Equal(t, "u-1", out.User.ID)

	id, err := jwt.Parse("s", out.Token)
	require.NoError(t, err)
	assert.Equal(t, "c-1", id.CompanyID)
	assert.Equal(t, entity.RoleAdmin, id.Role)
}

func TestLogin_PasswordIncorrecto(t *testing.T) {
	uc := newUseCase(t, entity.UserStatusActive)

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "admin@empresa.co", Password: "otro"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioInexistente(t *testing.T) {
	uc := newUseCase(t, entity.UserStatusActive)

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "nadie@empresa.co", Password: "secreto"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_UsuarioSuspendido(t *testing.T) {
	uc := newUseCase(t, entity.UserStatusSuspended)

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "admin@empresa.co", Password: "secreto"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestLogin_RequestInvalido(t *testing.T) {
	uc := newUseCase(t, entity.UserStatusActive)

	_, err := uc.Login(context.Background(), dto.LoginRequest{Email: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
	"github.com/jhoicas/dian-resoluciones/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo usuarios en memoria, indexados por email.
type UserRepo struct {
	mu    sync.RWMutex
	users map[string]*entity.User
}

// NewUserRepo crea un repositorio de usuarios vacío.
func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[string]*entity.User)}
}

// Add registra un usuario activo con la contraseña hasheada (bcrypt).
func (r *UserRepo) Add(companyID, email, password, role string) (*entity.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	u := &entity.User{
		ID:           uuid.New().String(),
		CompanyID:    companyID,
		Email:        strings.ToLower(email),
		PasswordHash: string(hash),
		Name:         email,
		Role:         role,
		Status:       entity.UserStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.mu.Lock()
	r.users[u.Email] = u
	r.mu.Unlock()
	return u, nil
}

func (r *UserRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

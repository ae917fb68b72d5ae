package repository

import (
	"context"

	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Los métodos devuelven nil, nil cuando el usuario no existe.
type UserRepository interface {
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
}

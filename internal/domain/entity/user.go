package entity

import "time"

// Roles válidos para User. Solo admin modifica resoluciones; operador consulta y emite.
const (
	RoleAdmin    = "admin"
	RoleOperador = "operador"
)

// Estados de usuario.
const (
	UserStatusActive    = "active"
	UserStatusSuspended = "suspended"
)

// User representa un usuario del sistema (pertenece a una empresa/tenant).
type User struct {
	ID           string
	CompanyID    string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, operador
	Status       string // active, inactive, suspended
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
	"github.com/jhoicas/dian-resoluciones/pkg/dian"
)

// SeriesKey identifica una serie de numeración: empresa + tipo de documento + prefijo.
type SeriesKey struct {
	CompanyID    string
	DocumentType dian.DocumentType
	Prefix       string
}

// ResolutionUsage resolución con su porcentaje de uso calculado por la base de datos.
type ResolutionUsage struct {
	Resolution   *entity.Resolution
	UsagePercent decimal.Decimal
}

// IssuedNumber número tomado de una resolución al emitir un documento.
type IssuedNumber struct {
	ResolutionID string
	Prefix       string
	Number       int64
	Remaining    int64
}

// ResolutionRepository define el puerto de persistencia para resoluciones DIAN.
// GetByID devuelve nil, nil si no existe.
type ResolutionRepository interface {
	Create(ctx context.Context, res *entity.Resolution) error
	GetByID(ctx context.Context, id string) (*entity.Resolution, error)

	// ListByCompany lista todas las resoluciones de una empresa (activas e inactivas).
	ListByCompany(ctx context.Context, companyID string) ([]*entity.Resolution, error)

	Update(ctx context.Context, res *entity.Resolution) error
	Delete(ctx context.Context, id string) error

	// ExistsActive indica si hay otra resolución activa en la serie. excludeID vacío = sin exclusión.
	ExistsActive(ctx context.Context, key SeriesKey, excludeID string) (bool, error)

	// HasRangeOverlap indica si [from, to] se cruza con otra resolución activa de la serie.
	HasRangeOverlap(ctx context.Context, key SeriesKey, from, to int64, excludeID string) (bool, error)

	// IssueNext toma el número actual de la resolución activa y vigente en asOf y avanza el cursor
	// en una sola operación atómica. Devuelve nil, nil si no hay resolución con números disponibles.
	IssueNext(ctx context.Context, key SeriesKey, asOf time.Time) (*IssuedNumber, error)

	// ListUsage devuelve las resoluciones activas no vencidas en asOf con su porcentaje de uso.
	ListUsage(ctx context.Context, asOf time.Time) ([]ResolutionUsage, error)
}

package usecase

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
	"github.com/jhoicas/dian-resoluciones/internal/domain/repository"
)

// ResolutionTxRunner ejecuta fn con un repositorio atado a una transacción.
// Si fn retorna error se hace rollback.
type ResolutionTxRunner interface {
	RunResolution(ctx context.Context, fn func(repo repository.ResolutionRepository) error) error
}

// ResolutionCache cache de la lista completa de resoluciones por empresa.
// Se invalida después de cada escritura; nunca se parcha.
//
// GetList devuelve también la generación vigente de la empresa, leída antes de consultar la
// base de datos. SetList guarda la lista bajo esa generación: si hubo un Invalidate entre medio,
// la lista queda en una generación que ya nadie lee.
type ResolutionCache interface {
	GetList(ctx context.Context, companyID string) (list []*entity.Resolution, gen int64, hit bool, err error)
	SetList(ctx context.Context, companyID string, gen int64, list []*entity.Resolution) error
	Invalidate(ctx context.Context, companyID string) error
}

// UsageRecorder publica el uso de cada resolución (métricas).
// ResetUsage se llama al inicio de cada barrido para descartar resoluciones que ya no aplican.
type UsageRecorder interface {
	ResetUsage()
	ObserveUsage(res *entity.Resolution, usagePercent decimal.Decimal)
}

// noCache se usa cuando no hay Redis configurado.
type noCache struct{}

func (noCache) GetList(context.Context, string) ([]*entity.Resolution, int64, bool, error) {
	return nil, 0, false, nil
}
func (noCache) SetList(context.Context, string, int64, []*entity.Resolution) error { return nil }
func (noCache) Invalidate(context.Context, string) error                         { return nil }

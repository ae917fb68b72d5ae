package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/dian-resoluciones/internal/domain/entity"
	"github.com/jhoicas/dian-resoluciones/internal/domain/numbering"
	"github.com/jhoicas/dian-resoluciones/internal/domain/repository"
)

// Tipos de alerta del monitor.
const (
	AlertNearExhaustion = "near_exhaustion"
	AlertExpiring       = "expiring"
)

// UsageAlert resolución que requiere atención del administrador.
type UsageAlert struct {
	Kind         string
	ResolutionID string
	CompanyID    string
	Prefix       string
	UsagePercent decimal.Decimal
	Remaining    int64
	DaysLeft     int
}

// MonitorConfig umbrales del monitor.
type MonitorConfig struct {
	UsageWarnPercent  int // por defecto numbering.NearExhaustionThreshold
	ExpiryWarningDays int
}

// ResolutionMonitor revisa periódicamente el uso y la vigencia de las resoluciones activas.
type ResolutionMonitor struct {
	repo     repository.ResolutionRepository
	recorder UsageRecorder
	cfg      MonitorConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewResolutionMonitor construye el monitor. recorder puede ser nil.
func NewResolutionMonitor(repo repository.ResolutionRepository, recorder UsageRecorder, cfg MonitorConfig, log zerolog.Logger) *ResolutionMonitor {
	if cfg.UsageWarnPercent <= 0 {
		cfg.UsageWarnPercent = numbering.NearExhaustionThreshold
	}
	return &ResolutionMonitor{
		repo:     repo,
		recorder: recorder,
		cfg:      cfg,
		log:      log.With().Str("component", "resolution_monitor").Logger(),
		now:      time.Now,
	}
}

// WithClock reemplaza el reloj (tests).
func (m *ResolutionMonitor) WithClock(now func() time.Time) *ResolutionMonitor {
	m.now = now
	return m
}

// Sweep publica el uso de cada resolución vigente y devuelve las alertas encontradas.
func (m *ResolutionMonitor) Sweep(ctx context.Context) ([]UsageAlert, error) {
	today := entity.DateOnly(m.now())
	usages, err := m.repo.ListUsage(ctx, today)
	if err != nil {
		return nil, err
	}

	if m.recorder != nil {
		m.recorder.ResetUsage()
	}
	threshold := decimal.NewFromInt(int64(m.cfg.UsageWarnPercent))
	var alerts []UsageAlert
	for _, u := range usages {
		res := u.Resolution
		if m.recorder != nil {
			m.recorder.ObserveUsage(res, u.UsagePercent)
		}

		if u.UsagePercent.GreaterThan(threshold) {
			a := m.alert(AlertNearExhaustion, u, today)
			m.log.Warn().Str("company_id", res.CompanyID).Str("resolution_id", res.ID).
				Str("prefix", res.Prefix).Str("usage_percent", u.UsagePercent.StringFixed(2)).
				Int64("remaining", a.Remaining).Msg("resolución cerca de agotarse")
			alerts = append(alerts, a)
		}
		if m.cfg.ExpiryWarningDays > 0 {
			a := m.alert(AlertExpiring, u, today)
			if a.DaysLeft <= m.cfg.ExpiryWarningDays {
				m.log.Warn().Str("company_id", res.CompanyID).Str("resolution_id", res.ID).
					Str("prefix", res.Prefix).Int("days_left", a.DaysLeft).Msg("resolución próxima a vencer")
				alerts = append(alerts, a)
			}
		}
	}

	m.log.Debug().Int("resolutions", len(usages)).Int("alerts", len(alerts)).Msg("barrido de resoluciones")
	return alerts, nil
}

func (m *ResolutionMonitor) alert(kind string, u repository.ResolutionUsage, today time.Time) UsageAlert {
	res := u.Resolution
	return UsageAlert{
		Kind:         kind,
		ResolutionID: res.ID,
		CompanyID:    res.CompanyID,
		Prefix:       res.Prefix,
		UsagePercent: u.UsagePercent,
		Remaining:    res.RemainingNumbers(),
		DaysLeft:     int(entity.DateOnly(res.ValidTo).Sub(today).Hours() / 24),
	}
}

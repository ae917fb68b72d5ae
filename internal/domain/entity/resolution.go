package entity

import (
	"time"

	"github.com/jhoicas/dian-resoluciones/pkg/dian"
)

// Resolution representa una resolución de numeración autorizada por la DIAN.
// Cada empresa puede tener varias resoluciones por tipo de documento y prefijo;
// solo una activa por serie (empresa + tipo + prefijo).
//
// CurrentNumber es el siguiente número a emitir: RangeFrom <= CurrentNumber <= RangeTo+1.
// Vale RangeTo+1 cuando el rango está agotado. Solo lo avanza la emisión de documentos.
type Resolution struct {
	ID               string
	CompanyID        string
	DocumentType     dian.DocumentType
	Prefix           string // Prefijo autorizado (ej: "SETP", "FE")
	RangeFrom        int64  // Número inicial del rango autorizado
	RangeTo          int64  // Número final del rango autorizado
	CurrentNumber    int64
	TechnicalKey     string    // Clave técnica (obligatoria para el CUFE)
	ResolutionNumber string    // Número de resolución (ej: "18764000000001"), opcional
	ValidFrom        time.Time // Fecha de inicio de vigencia
	ValidTo          time.Time // Fecha de vencimiento
	IsActive         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// RemainingNumbers cuántos números quedan por emitir (nunca negativo).
func (r *Resolution) RemainingNumbers() int64 {
	n := r.RangeTo - r.CurrentNumber + 1
	if n < 0 {
		return 0
	}
	return n
}

// HasAvailableNumbers indica si aún queda al menos un número.
func (r *Resolution) HasAvailableNumbers() bool {
	return r.CurrentNumber <= r.RangeTo
}

// Used indica si ya se emitió algún número con esta resolución.
func (r *Resolution) Used() bool {
	return r.CurrentNumber != r.RangeFrom
}

// IsValidOn indica si la resolución está activa y vigente en la fecha dada.
// La comparación es por día calendario, sin hora.
func (r *Resolution) IsValidOn(day time.Time) bool {
	if !r.IsActive || r.ValidFrom.IsZero() || r.ValidTo.IsZero() {
		return false
	}
	d := DateOnly(day)
	return !d.Before(DateOnly(r.ValidFrom)) && !d.After(DateOnly(r.ValidTo))
}

// DateOnly trunca t a medianoche UTC de su fecha calendario.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

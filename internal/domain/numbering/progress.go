// Package numbering calcula métricas de uso de un rango de numeración autorizado.
// Las funciones son puras: no mutan la entrada ni comparten estado.
package numbering

import (
	"errors"

	"github.com/shopspring/decimal"
)

// NearExhaustionThreshold porcentaje a partir del cual (estrictamente mayor) el rango
// se muestra como próximo a agotarse. Es política de presentación.
const NearExhaustionThreshold = 80

// ErrInvalidSpan el rango no tiene al menos un número o sus límites son menores a 1.
var ErrInvalidSpan = errors.New("numbering: rango inválido")

var (
	hundred = decimal.NewFromInt(100)
	limit   = decimal.NewFromInt(NearExhaustionThreshold)
)

// Span límites inclusivos de un rango y su cursor (siguiente número a emitir).
type Span struct {
	From    int64
	To      int64
	Current int64
}

// Progress métricas derivadas de un Span.
type Progress struct {
	Percent        float64 // 0..100, dos decimales
	Used           int64
	Total          int64
	Remaining      int64
	NearExhaustion bool
}

// Display porcentaje entero para mostrar en listados.
func (p Progress) Display() int64 {
	return decimal.NewFromFloat(p.Percent).Round(0).IntPart()
}

// Calculate devuelve el porcentaje de uso ((Current-From)/(To-From+1))*100 acotado a [0,100]
// y los números restantes To-Current+1 (nunca negativos).
func Calculate(s Span) (Progress, error) {
	if s.From < 1 || s.To < 1 {
		return Progress{}, ErrInvalidSpan
	}
	total := s.To - s.From + 1
	if total < 1 {
		return Progress{}, ErrInvalidSpan
	}

	used := s.Current - s.From
	if used < 0 {
		used = 0
	}
	if used > total {
		used = total
	}
	pct := decimal.NewFromInt(used).Mul(hundred).Div(decimal.NewFromInt(total))
	if pct.LessThan(decimal.Zero) {
		pct = decimal.Zero
	}
	if pct.GreaterThan(hundred) {
		pct = hundred
	}
	pct = pct.Round(2)

	remaining := s.To - s.Current + 1
	if remaining < 0 {
		remaining = 0
	}
	if remaining > total {
		remaining = total
	}

	return Progress{
		Percent:        pct.InexactFloat64(),
		Used:           used,
		Total:          total,
		Remaining:      remaining,
		NearExhaustion: pct.GreaterThan(limit),
	}, nil
}

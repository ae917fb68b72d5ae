package dto

import (
	"time"

	"github.com/jhoicas/dian-resoluciones/pkg/dian"
)

// DateLayout formato de fechas de vigencia en la API (YYYY-MM-DD).
const DateLayout = "2006-01-02"

// ResolutionRequest body para POST y PUT /api/dian/resolutions.
// Refleja la resolución sin los campos que calcula el registro (id, current_number,
// remaining_numbers, is_valid). Active nil equivale a true.
type ResolutionRequest struct {
	CompanyID        string            `json:"company_id" validate:"required"`
	DocumentType     dian.DocumentType `json:"document_type" validate:"required,dian_doctype"`
	Prefix           string            `json:"prefix" validate:"required,dian_prefix"`
	NumberRangeFrom  int64             `json:"number_range_from" validate:"required,min=1"`
	NumberRangeTo    int64             `json:"number_range_to" validate:"required,min=1"`
	TechnicalKey     string            `json:"technical_key" validate:"required,max=200"`
	ResolutionNumber string            `json:"resolution_number,omitempty" validate:"omitempty,max=50"`
	ValidFrom        string            `json:"valid_from" validate:"required,datetime=2006-01-02"`
	ValidTo          string            `json:"valid_to" validate:"required,datetime=2006-01-02"`
	Active           *bool             `json:"active,omitempty"`
}

// IsActive devuelve el valor efectivo de Active (true por defecto).
func (r ResolutionRequest) IsActive() bool {
	return r.Active == nil || *r.Active
}

// Dates parsea las fechas de vigencia. Llamar después de validar.
func (r ResolutionRequest) Dates() (from, to time.Time, err error) {
	from, err = time.Parse(DateLayout, r.ValidFrom)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err = time.Parse(DateLayout, r.ValidTo)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return from, to, nil
}

// ResolutionResponse resolución en respuestas, con los campos derivados del registro.
type ResolutionResponse struct {
	ID               string            `json:"id"`
	CompanyID        string            `json:"company_id"`
	DocumentType     dian.DocumentType `json:"document_type"`
	Prefix           string            `json:"prefix"`
	NumberRangeFrom  int64             `json:"number_range_from"`
	NumberRangeTo    int64             `json:"number_range_to"`
	CurrentNumber    int64             `json:"current_number"`
	TechnicalKey     string            `json:"technical_key"`
	ResolutionNumber string            `json:"resolution_number,omitempty"`
	ValidFrom        string            `json:"valid_from"`
	ValidTo          string            `json:"valid_to"`
	Active           bool              `json:"active"`
	IsValid          bool              `json:"is_valid"`
	RemainingNumbers int64             `json:"remaining_numbers"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ToRequest reconstruye el request de edición a partir de una resolución existente.
func (r ResolutionResponse) ToRequest() ResolutionRequest {
	active := r.Active
	return ResolutionRequest{
		CompanyID:        r.CompanyID,
		DocumentType:     r.DocumentType,
		Prefix:           r.Prefix,
		NumberRangeFrom:  r.NumberRangeFrom,
		NumberRangeTo:    r.NumberRangeTo,
		TechnicalKey:     r.TechnicalKey,
		ResolutionNumber: r.ResolutionNumber,
		ValidFrom:        r.ValidFrom,
		ValidTo:          r.ValidTo,
		Active:           &active,
	}
}

// IssueRequest body para POST /api/dian/resolutions/issue.
type IssueRequest struct {
	DocumentType dian.DocumentType `json:"document_type" validate:"required,dian_doctype"`
	Prefix       string            `json:"prefix" validate:"required,dian_prefix"`
}

// IssuedNumberResponse número asignado a un documento.
type IssuedNumberResponse struct {
	ResolutionID string `json:"resolution_id"`
	Number       int64  `json:"number"`
	FullNumber   string `json:"full_number"` // prefijo + número, ej. "FE901"
	Remaining    int64  `json:"remaining_numbers"`
}

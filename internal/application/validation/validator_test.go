package validation_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/dian-resoluciones/internal/application/dto"
	"github.com/jhoicas/dian-resoluciones/internal/application/validation"
	"github.com/jhoicas/dian-resoluciones/internal/domain"
	"github.com/jhoicas/dian-resoluciones/pkg/dian"
)

func validRequest() dto.ResolutionRequest {
	return dto.ResolutionRequest{
		CompanyID:        "00000000-0000-0000-0000-000000000002",
		DocumentType:     dian.DocumentInvoice,
		Prefix:           "FE",
		NumberRangeFrom:  1,
		NumberRangeTo:    1000,
		TechnicalKey:     "fc8eac422eba16e22ffd8c6f94b3f40a6e38162c",
		ResolutionNumber: "18764000000001",
		ValidFrom:        "2026-01-01",
		ValidTo:          "2026-12-31",
	}
}

func fieldsOf(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	return verr.Fields
}

func TestValidateResolution_RequestValido(t *testing.T) {
	assert.NoError(t, validation.ValidateResolution(validRequest()))
}

func TestValidateResolution_ResolutionNumberOpcional(t *testing.T) {
	req := validRequest()
	req.ResolutionNumber = ""
	assert.NoError(t, validation.ValidateResolution(req))
}

func TestValidateResolution_CamposRequeridos(t *testing.T) {
	fields := fieldsOf(t, validation.ValidateResolution(dto.ResolutionRequest{}))

	for _, f := range []string{
		"company_id", "document_type", "prefix", "number_range_from",
		"number_range_to", "technical_key", "valid_from", "valid_to",
	} {
		assert.Contains(t, fields, f, "falta error para %s", f)
	}
	assert.NotContains(t, fields, "resolution_number")
}

// Escenario D: rango final menor que el inicial.
func TestValidateResolution_RangoInvertido(t *testing.T) {
	req := validRequest()
	req.NumberRangeFrom = 500
	req.NumberRangeTo = 100

	fields := fieldsOf(t, validation.ValidateResolution(req))
	assert.Equal(t, "el rango final debe ser mayor o igual al rango inicial", fields["number_range_to"])
}

func TestValidateResolution_LimitesNoPositivos(t *testing.T) {
	req := validRequest()
	req.NumberRangeFrom = -5
	fields := fieldsOf(t, validation.ValidateResolution(req))
	assert.Equal(t, "el rango inicial debe ser mayor a 0", fields["number_range_from"])
}

func TestValidateResolution_FechasInvertidas(t *testing.T) {
	req := validRequest()
	req.ValidFrom = "2026-12-31"
	req.ValidTo = "2026-01-01"

	fields := fieldsOf(t, validation.ValidateResolution(req))
	assert.Contains(t, fields, "valid_to")
}

func TestValidateResolution_FechaMalFormada(t *testing.T) {
	req := validRequest()
	req.ValidFrom = "31/12/2026"

	fields := fieldsOf(t, validation.ValidateResolution(req))
	assert.Equal(t, "fecha inválida, formato YYYY-MM-DD", fields["valid_from"])
}

func TestValidateResolution_CatalogoYPrefijo(t *testing.T) {
	req := validRequest()
	req.DocumentType = "RECEIPT"
	req.Prefix = "FE-01"

	fields := fieldsOf(t, validation.ValidateResolution(req))
	assert.Equal(t, "tipo de documento no soportado", fields["document_type"])
	assert.Contains(t, fields, "prefix")
}

func TestValidateResolution_Longitudes(t *testing.T) {
	req := validRequest()
	req.TechnicalKey = strings.Repeat("k", 201)
	req.ResolutionNumber = strings.Repeat("9", 51)

	fields := fieldsOf(t, validation.ValidateResolution(req))
	assert.Contains(t, fields, "technical_key")
	assert.Contains(t, fields, "resolution_number")
}

func TestValidateIssue(t *testing.T) {
	assert.NoError(t, validation.ValidateIssue(dto.IssueRequest{DocumentType: dian.DocumentCreditNote, Prefix: "NC"}))

	fields := fieldsOf(t, validation.ValidateIssue(dto.IssueRequest{}))
	assert.Contains(t, fields, "document_type")
	assert.Contains(t, fields, "prefix")
}

func TestValidateLogin(t *testing.T) {
	assert.NoError(t, validation.ValidateLogin(dto.LoginRequest{Email: "admin@empresa.co", Password: "x"}))

	fields := fieldsOf(t, validation.ValidateLogin(dto.LoginRequest{Email: "no-es-email"}))
	assert.Equal(t, "email inválido", fields["email"])
	assert.Equal(t, "la contraseña es requerida", fields["password"])
}

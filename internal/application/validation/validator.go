// Package validation valida los requests de resoluciones antes de tocar red o base de datos.
// La usan tanto el cliente de administración como el registro, con las mismas reglas.
package validation

import (
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/jhoicas/dian-resoluciones/internal/application/dto"
	"github.com/jhoicas/dian-resoluciones/internal/domain"
	"github.com/jhoicas/dian-resoluciones/pkg/dian"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Los errores se reportan con el nombre JSON del campo.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = v.RegisterValidation("dian_doctype", func(fl validator.FieldLevel) bool {
		return dian.DocumentType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("dian_prefix", func(fl validator.FieldLevel) bool {
		return dian.ValidPrefix(fl.Field().String())
	})

	v.RegisterStructValidation(resolutionStructLevel, dto.ResolutionRequest{})
	return v
}

// resolutionStructLevel reglas entre campos: orden del rango y de las fechas.
func resolutionStructLevel(sl validator.StructLevel) {
	req := sl.Current().Interface().(dto.ResolutionRequest)

	if req.NumberRangeFrom >= 1 && req.NumberRangeTo >= 1 && req.NumberRangeTo < req.NumberRangeFrom {
		sl.ReportError(req.NumberRangeTo, "number_range_to", "NumberRangeTo", "gtefield", "number_range_from")
	}

	from, errFrom := time.Parse(dto.DateLayout, req.ValidFrom)
	to, errTo := time.Parse(dto.DateLayout, req.ValidTo)
	if errFrom == nil && errTo == nil && to.Before(from) {
		sl.ReportError(req.ValidTo, "valid_to", "ValidTo", "gtefield", "valid_from")
	}
}

var messages = map[string]string{
	"company_id.required":        "el ID de la compañía es requerido",
	"document_type.required":     "el tipo de documento es requerido",
	"document_type.dian_doctype": "tipo de documento no soportado",
	"prefix.required":            "el prefijo es requerido",
	"prefix.dian_prefix":         "el prefijo debe ser alfanumérico de máximo 10 caracteres",
	"number_range_from.required": "el rango inicial debe ser mayor a 0",
	"number_range_from.min":      "el rango inicial debe ser mayor a 0",
	"number_range_to.required":   "el rango final debe ser mayor a 0",
	"number_range_to.min":        "el rango final debe ser mayor a 0",
	"number_range_to.gtefield":   "el rango final debe ser mayor o igual al rango inicial",
	"technical_key.required":     "la clave técnica es requerida",
	"technical_key.max":          "la clave técnica no puede exceder 200 caracteres",
	"resolution_number.max":      "el número de resolución no puede exceder 50 caracteres",
	"valid_from.required":        "la fecha inicio de vigencia es requerida",
	"valid_from.datetime":        "fecha inválida, formato YYYY-MM-DD",
	"valid_to.required":          "la fecha fin de vigencia es requerida",
	"valid_to.datetime":          "fecha inválida, formato YYYY-MM-DD",
	"valid_to.gtefield":          "la fecha fin debe ser posterior o igual a la fecha inicio",
	"email.required":             "el email es requerido",
	"email.email":                "email inválido",
	"password.required":          "la contraseña es requerida",
}

// ValidateResolution valida un ResolutionRequest. Devuelve *domain.ValidationError con un
// mensaje por campo, o nil.
func ValidateResolution(req dto.ResolutionRequest) error {
	return toDomain(validate.Struct(req))
}

// ValidateIssue valida un IssueRequest.
func ValidateIssue(req dto.IssueRequest) error {
	return toDomain(validate.Struct(req))
}

// ValidateLogin valida las credenciales de login.
func ValidateLogin(req dto.LoginRequest) error {
	return toDomain(validate.Struct(req))
}

func toDomain(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &domain.ValidationError{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out.Fields[field]; seen {
			continue
		}
		msg, ok := messages[field+"."+fe.Tag()]
		if !ok {
			msg = "valor inválido"
		}
		out.Fields[field] = msg
	}
	return out
}

// Package dian contiene catálogos alineados al Anexo Técnico de Factura Electrónica
// de Venta DIAN (Colombia) v1.9 que usa el registro de numeración.
package dian

import (
	"regexp"
	"sort"
)

// DocumentType tipo de documento electrónico que consume numeración autorizada.
type DocumentType string

// =============================================================================
// Tipos de documento con numeración propia (Tabla 13.1.3 - Tipo de documento)
// =============================================================================

const (
	DocumentInvoice         DocumentType = "INVOICE"          // 01 Factura electrónica de venta
	DocumentCreditNote      DocumentType = "CREDIT_NOTE"      // 91 Nota crédito
	DocumentDebitNote       DocumentType = "DEBIT_NOTE"       // 92 Nota débito
	DocumentSupportDocument DocumentType = "SUPPORT_DOCUMENT" // 05 Documento soporte
	DocumentPayroll         DocumentType = "PAYROLL"          // 102 Nómina electrónica
)

type documentInfo struct {
	code  string
	label string
}

var documentTypes = map[DocumentType]documentInfo{
	DocumentInvoice:         {code: "01", label: "Factura de Venta"},
	DocumentCreditNote:      {code: "91", label: "Nota Crédito"},
	DocumentDebitNote:       {code: "92", label: "Nota Débito"},
	DocumentSupportDocument: {code: "05", label: "Documento Soporte"},
	DocumentPayroll:         {code: "102", label: "Nómina Electrónica"},
}

// Valid indica si el tipo pertenece al catálogo.
func (t DocumentType) Valid() bool {
	_, ok := documentTypes[t]
	return ok
}

// Code devuelve el código DIAN del tipo (ej. "01"); vacío si no existe.
func (t DocumentType) Code() string { return documentTypes[t].code }

// Label devuelve la etiqueta legible en español.
func (t DocumentType) Label() string {
	if info, ok := documentTypes[t]; ok {
		return info.label
	}
	return string(t)
}

// DocumentTypes lista los tipos del catálogo en orden estable.
func DocumentTypes() []DocumentType {
	out := make([]DocumentType, 0, len(documentTypes))
	for t := range documentTypes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// =============================================================================
// Prefijos de numeración
// La DIAN autoriza prefijos alfanuméricos de hasta 4 caracteres en la resolución;
// se aceptan hasta 10 para series internas (documento soporte, nómina).
// =============================================================================

// MaxPrefixLength longitud máxima del prefijo.
const MaxPrefixLength = 10

var prefixPattern = regexp.MustCompile(`^[A-Za-z0-9]{1,10}$`)

// ValidPrefix indica si el prefijo es alfanumérico y de longitud permitida.
func ValidPrefix(prefix string) bool {
	return prefixPattern.MatchString(prefix)
}

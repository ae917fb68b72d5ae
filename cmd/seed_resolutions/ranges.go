package main

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/jhoicas/dian-resoluciones/pkg/dian"
)

// numberRange un rango de numeración de la respuesta GetNumberingRange de la DIAN.
type numberRange struct {
	ResolutionNumber string `xml:"ResolutionNumber"`
	ResolutionDate   string `xml:"ResolutionDate"`
	Prefix           string `xml:"Prefix"`
	FromNumber       int64  `xml:"FromNumber"`
	ToNumber         int64  `xml:"ToNumber"`
	ValidDateFrom    string `xml:"ValidDateFrom"`
	ValidDateTo      string `xml:"ValidDateTo"`
	TechnicalKey     string `xml:"TechnicalKey"`
}

const dateLayout = "2006-01-02"

// parseRanges extrae los NumberRangeResponse del XML (con o sin sobre SOAP).
// La DIAN suele responder en ISO-8859-1.
func parseRanges(r io.Reader) ([]numberRange, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		switch strings.ToUpper(charset) {
		case "ISO-8859-1", "ISO8859-1", "LATIN1":
			return transform.NewReader(input, charmap.ISO8859_1.NewDecoder()), nil
		case "WINDOWS-1252":
			return transform.NewReader(input, charmap.Windows1252.NewDecoder()), nil
		}
		return input, nil
	}

	var out []numberRange
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decodificar XML: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "NumberRangeResponse" {
			continue
		}
		var nr numberRange
		if err := dec.DecodeElement(&nr, &start); err != nil {
			return nil, fmt.Errorf("decodificar NumberRangeResponse: %w", err)
		}
		nr.Prefix = strings.TrimSpace(nr.Prefix)
		nr.TechnicalKey = strings.TrimSpace(nr.TechnicalKey)
		nr.ResolutionNumber = strings.TrimSpace(nr.ResolutionNumber)
		out = append(out, nr)
	}
	return out, nil
}

// validate revisa un rango con las mismas reglas que el registro.
func (nr numberRange) validate() error {
	if !dian.ValidPrefix(nr.Prefix) {
		return fmt.Errorf("prefijo inválido %q", nr.Prefix)
	}
	if nr.FromNumber < 1 || nr.ToNumber < nr.FromNumber {
		return fmt.Errorf("rango inválido %d-%d", nr.FromNumber, nr.ToNumber)
	}
	if nr.TechnicalKey == "" {
		return errors.New("sin clave técnica")
	}
	from, err := time.Parse(dateLayout, nr.ValidDateFrom)
	if err != nil {
		return fmt.Errorf("ValidDateFrom: %w", err)
	}
	to, err := time.Parse(dateLayout, nr.ValidDateTo)
	if err != nil {
		return fmt.Errorf("ValidDateTo: %w", err)
	}
	if to.Before(from) {
		return errors.New("ValidDateTo anterior a ValidDateFrom")
	}
	return nil
}

// writeSQL escribe un script idempotente: un rango ya cargado (misma serie y límites) no se
// duplica, y solo queda activo si la serie no tiene otra resolución activa.
// Por prefijo se inserta primero el rango de vigencia más reciente.
func writeSQL(w io.Writer, companyID string, docType dian.DocumentType, ranges []numberRange) (int, error) {
	sorted := make([]numberRange, len(ranges))
	copy(sorted, ranges)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Prefix != sorted[j].Prefix {
			return sorted[i].Prefix < sorted[j].Prefix
		}
		return sorted[i].ValidDateTo > sorted[j].ValidDateTo
	})

	var b strings.Builder
	b.WriteString("-- Resoluciones de numeración DIAN (GetNumberingRange)\n")
	fmt.Fprintf(&b, "-- Empresa %s, tipo %s (%s)\n\n", companyID, docType, docType.Label())

	n := 0
	for _, nr := range sorted {
		if err := nr.validate(); err != nil {
			return n, fmt.Errorf("resolución %s prefijo %s: %w", nr.ResolutionNumber, nr.Prefix, err)
		}
		series := fmt.Sprintf("company_id = '%s' AND document_type = '%s' AND prefix = '%s'",
			escapeSQL(companyID), docType, escapeSQL(nr.Prefix))

		fmt.Fprintf(&b, "INSERT INTO dian_resolutions (id, company_id, document_type, prefix, range_from, range_to,\n")
		b.WriteString("    current_number, technical_key, resolution_number, valid_from, valid_to, is_active)\n")
		fmt.Fprintf(&b, "SELECT '%s', '%s', '%s', '%s', %d, %d, %d, '%s', '%s', '%s', '%s',\n",
			uuid.New(), escapeSQL(companyID), docType, escapeSQL(nr.Prefix),
			nr.FromNumber, nr.ToNumber, nr.FromNumber,
			escapeSQL(nr.TechnicalKey), escapeSQL(nr.ResolutionNumber), nr.ValidDateFrom, nr.ValidDateTo)
		fmt.Fprintf(&b, "    NOT EXISTS (SELECT 1 FROM dian_resolutions WHERE %s AND is_active)\n", series)
		fmt.Fprintf(&b, "WHERE NOT EXISTS (SELECT 1 FROM dian_resolutions WHERE %s\n", series)
		fmt.Fprintf(&b, "    AND range_from = %d AND range_to = %d);\n\n", nr.FromNumber, nr.ToNumber)
		n++
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return 0, err
	}
	return n, nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func parseDocumentType(s string) (dian.DocumentType, error) {
	t := dian.DocumentType(strings.ToUpper(strings.TrimSpace(s)))
	if t.Valid() {
		return t, nil
	}
	for _, known := range dian.DocumentTypes() {
		if known.Code() == s {
			return known, nil
		}
	}
	return "", fmt.Errorf("tipo de documento desconocido: %s", s)
}

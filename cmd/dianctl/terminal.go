package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/jhoicas/dian-resoluciones/internal/admin"
)

// terminal implementa admin.Notifier y admin.Confirmer sobre stdin/stdout.
type terminal struct {
	in        *bufio.Reader
	out       io.Writer
	errOut    io.Writer
	assumeYes bool
}

var (
	_ admin.Notifier  = (*terminal)(nil)
	_ admin.Confirmer = (*terminal)(nil)
)

func newTerminal(in io.Reader, out, errOut io.Writer, assumeYes bool) *terminal {
	return &terminal{in: bufio.NewReader(in), out: out, errOut: errOut, assumeYes: assumeYes}
}

func (t *terminal) Alert(msg string) {
	fmt.Fprintln(t.errOut, "Error:", msg)
}

func (t *terminal) Toast(msg string) {
	fmt.Fprintln(t.errOut, msg)
}

// Confirm pregunta s/N. Sin respuesta (EOF) equivale a no.
func (t *terminal) Confirm(ctx context.Context, msg string) bool {
	if t.assumeYes {
		return true
	}
	if ctx.Err() != nil {
		return false
	}
	answer, err := t.prompt(msg + " [s/N]: ")
	if err != nil {
		return false
	}
	switch strings.ToLower(answer) {
	case "s", "si", "sí", "y", "yes":
		return true
	}
	return false
}

func (t *terminal) prompt(label string) (string, error) {
	fmt.Fprint(t.out, label)
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// formErrors muestra el error del diálogo y los errores por campo en orden estable.
func (t *terminal) formErrors(d admin.Dialog) {
	if d.Error != "" {
		fmt.Fprintln(t.errOut, "No se guardó la resolución:", d.Error)
	}
	fields := make([]string, 0, len(d.FieldErrors))
	for f := range d.FieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(t.errOut, "  %s: %s\n", f, d.FieldErrors[f])
	}
}

// renderTable imprime la lista con el uso del rango; "!" marca las que están por agotarse.
func renderTable(w io.Writer, rows []admin.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No hay resoluciones registradas.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTIPO\tPREFIJO\tRANGO\tSIGUIENTE\tUSO\tRESTANTES\tVIGENCIA\tESTADO")
	for _, r := range rows {
		usage := fmt.Sprintf("%d%%", r.Progress.Display())
		if r.Progress.NearExhaustion {
			usage += " !"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d-%d\t%d\t%s\t%d\t%s a %s\t%s\n",
			r.ID, r.DocumentType, r.Prefix, r.NumberRangeFrom, r.NumberRangeTo, r.CurrentNumber,
			usage, r.Progress.Remaining, r.ValidFrom, r.ValidTo, status(r))
	}
	_ = tw.Flush()
}

func status(r admin.Row) string {
	switch {
	case !r.Active:
		return "inactiva"
	case !r.IsValid:
		return "fuera de vigencia"
	default:
		return "activa"
	}
}

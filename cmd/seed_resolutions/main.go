// seed_resolutions genera un script SQL con las resoluciones de numeración de una empresa
// a partir de la respuesta XML del servicio GetNumberingRange de la DIAN.
//
// Uso: go run ./cmd/seed_resolutions --company <uuid> [--document-type INVOICE] [--out archivo.sql] respuesta.xml
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		companyID string
		docType   string
		outPath   string
	)
	cmd := &cobra.Command{
		Use:          "seed_resolutions [respuesta.xml]",
		Short:        "Genera SQL con las resoluciones DIAN de una empresa",
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := uuid.Parse(companyID); err != nil {
				return fmt.Errorf("--company debe ser un UUID: %w", err)
			}
			t, err := parseDocumentType(docType)
			if err != nil {
				return err
			}

			var in io.Reader = cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("abrir XML: %w", err)
				}
				defer f.Close()
				in = f
			}
			ranges, err := parseRanges(in)
			if err != nil {
				return err
			}
			if len(ranges) == 0 {
				return fmt.Errorf("el XML no contiene NumberRangeResponse")
			}

			var out io.Writer = cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("crear archivo: %w", err)
				}
				defer f.Close()
				out = f
			}
			n, err := writeSQL(out, companyID, t, ranges)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Generadas %d resoluciones\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "ID de la empresa (UUID)")
	cmd.Flags().StringVar(&docType, "document-type", "INVOICE", "tipo de documento (INVOICE, CREDIT_NOTE, ... o código DIAN 01, 91, ...)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "archivo de salida (por defecto stdout)")
	_ = cmd.MarkFlagRequired("company")
	return cmd
}

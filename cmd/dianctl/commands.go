package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jhoicas/dian-resoluciones/internal/admin"
	"github.com/jhoicas/dian-resoluciones/internal/application/dto"
	"github.com/jhoicas/dian-resoluciones/pkg/dian"
)

func newLoginCmd(c *cli) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Inicia sesión y guarda el token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ui := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), false)
			var err error
			if email == "" {
				if email, err = ui.prompt("Email: "); err != nil {
					return fmt.Errorf("leer email: %w", err)
				}
			}
			if password == "" {
				if password, err = ui.prompt("Contraseña: "); err != nil {
					return fmt.Errorf("leer contraseña: %w", err)
				}
			}

			out, err := c.client(nil).Login(cmd.Context(), email, password)
			if errors.Is(err, admin.ErrAuth) {
				return errors.New("credenciales inválidas")
			}
			if err != nil {
				return err
			}
			if err := c.tokens().Save(out.Token); err != nil {
				return fmt.Errorf("guardar sesión: %w", err)
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Sesión iniciada como %s (%s), expira %s.\n",
				out.User.Email, out.User.Role, out.ExpiresAt.Local().Format("2006-01-02 15:04"))
			if c.cfg.Client.CompanyID == "" {
				fmt.Fprintf(w, "Empresa: %s (export DIANCTL_COMPANY_ID=%s)\n", out.User.CompanyID, out.User.CompanyID)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "email del usuario")
	cmd.Flags().StringVar(&password, "password", "", "contraseña (si se omite se pide por stdin)")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Borra la sesión guardada",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := c.tokens().Clear(); err != nil {
				return fmt.Errorf("borrar sesión: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Sesión cerrada.")
			return nil
		},
	}
}

func newListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Lista las resoluciones con el uso de su rango",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, _ := c.view(cmd, false)
			if err := v.Load(cmd.Context()); err != nil {
				return reported(err)
			}
			renderTable(cmd.OutOrStdout(), v.Rows())
			return nil
		},
	}
}

// formFlags campos del formulario de resolución. Solo se aplican los flags indicados.
type formFlags struct {
	documentType     string
	prefix           string
	from             int64
	to               int64
	technicalKey     string
	resolutionNumber string
	validFrom        string
	validTo          string
	active           bool
}

func (f *formFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.documentType, "document-type", string(dian.DocumentInvoice), "tipo de documento (INVOICE, CREDIT_NOTE, DEBIT_NOTE, SUPPORT_DOCUMENT, PAYROLL)")
	fs.StringVar(&f.prefix, "prefix", "", "prefijo autorizado")
	fs.Int64Var(&f.from, "from", 1, "primer número autorizado")
	fs.Int64Var(&f.to, "to", 1000, "último número autorizado")
	fs.StringVar(&f.technicalKey, "technical-key", "", "clave técnica de la resolución")
	fs.StringVar(&f.resolutionNumber, "resolution-number", "", "número de la resolución DIAN")
	fs.StringVar(&f.validFrom, "valid-from", "", "inicio de vigencia (YYYY-MM-DD)")
	fs.StringVar(&f.validTo, "valid-to", "", "fin de vigencia (YYYY-MM-DD)")
	fs.BoolVar(&f.active, "active", true, "resolución activa")
}

func (f *formFlags) apply(cmd *cobra.Command, req *dto.ResolutionRequest) {
	fs := cmd.Flags()
	if fs.Changed("document-type") {
		req.DocumentType = dian.DocumentType(strings.ToUpper(f.documentType))
	}
	if fs.Changed("prefix") {
		req.Prefix = f.prefix
	}
	if fs.Changed("from") {
		req.NumberRangeFrom = f.from
	}
	if fs.Changed("to") {
		req.NumberRangeTo = f.to
	}
	if fs.Changed("technical-key") {
		req.TechnicalKey = f.technicalKey
	}
	if fs.Changed("resolution-number") {
		req.ResolutionNumber = f.resolutionNumber
	}
	if fs.Changed("valid-from") {
		req.ValidFrom = f.validFrom
	}
	if fs.Changed("valid-to") {
		req.ValidTo = f.validTo
	}
	if fs.Changed("active") {
		active := f.active
		req.Active = &active
	}
}

// submit envía el diálogo abierto y muestra el resultado o los errores del formulario.
func submit(cmd *cobra.Command, v *admin.View, ui *terminal, req dto.ResolutionRequest, done string) error {
	if err := v.Submit(cmd.Context(), req); err != nil {
		ui.formErrors(v.Dialog())
		return reported(err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), done)
	renderTable(cmd.OutOrStdout(), v.Rows())
	return nil
}

func newCreateCmd(c *cli) *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Registra una resolución",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if c.cfg.Client.CompanyID == "" {
				return errNoCompany
			}
			v, ui := c.view(cmd, false)
			req := v.OpenCreate().Form
			f.apply(cmd, &req)
			return submit(cmd, v, ui, req, "Resolución creada.")
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCmd(c *cli) *cobra.Command {
	var f formFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Modifica una resolución; los campos omitidos conservan su valor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Client.CompanyID == "" {
				return errNoCompany
			}
			v, ui := c.view(cmd, false)
			if err := v.Load(cmd.Context()); err != nil {
				return reported(err)
			}
			d, err := v.OpenEdit(args[0])
			if err != nil {
				return err
			}
			req := d.Form
			f.apply(cmd, &req)
			return submit(cmd, v, ui, req, "Resolución actualizada.")
		},
	}
	f.register(cmd)
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Elimina una resolución sin números emitidos",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, _ := c.view(cmd, yes)
			confirmed, err := v.Delete(cmd.Context(), args[0])
			if err != nil {
				return reported(err)
			}
			if !confirmed {
				fmt.Fprintln(cmd.OutOrStdout(), "Cancelado.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Resolución eliminada.")
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "no pedir confirmación")
	return cmd
}

func newWatchCmd(c *cli) *cobra.Command {
	var interval time.Duration
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Muestra la lista y la recarga periódicamente hasta Ctrl+C",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if interval <= 0 {
				return errors.New("--interval debe ser mayor a 0")
			}
			w := cmd.OutOrStdout()
			v, _ := c.view(cmd, false)
			v.OnLoad(func(rows []admin.Row) {
				fmt.Fprintf(w, "\n%s\n", time.Now().Format("2006-01-02 15:04:05"))
				renderTable(w, rows)
			})
			err := v.Watch(cmd.Context(), interval)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "intervalo de recarga")
	return cmd
}

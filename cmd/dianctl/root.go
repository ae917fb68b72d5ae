package main

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jhoicas/dian-resoluciones/internal/admin"
	"github.com/jhoicas/dian-resoluciones/pkg/config"
	"github.com/jhoicas/dian-resoluciones/pkg/logger"
)

// errReported marca errores que ya se mostraron al usuario (alerta, toast o errores del formulario).
var errReported = errors.New("error ya informado")

func reported(err error) error {
	return fmt.Errorf("%w: %w", errReported, err)
}

var errNoCompany = errors.New("defina la empresa con --company o DIANCTL_COMPANY_ID")

// cli estado compartido por los subcomandos; se completa en PersistentPreRunE.
type cli struct {
	cfgFile   string
	apiURL    string
	companyID string
	tokenFile string
	verbose   bool

	cfg *config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "dianctl",
		Short:         "Administra las resoluciones de numeración DIAN",
		Long:          "Cliente del registro de resoluciones DIAN: sesión, listado con uso del rango, alta, edición, baja y monitoreo.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&c.cfgFile, "config", "", "archivo de configuración (por defecto .env y variables de entorno)")
	pf.StringVar(&c.apiURL, "api-url", "", "URL del registro (DIANCTL_API_URL)")
	pf.StringVar(&c.companyID, "company", "", "ID de la empresa (DIANCTL_COMPANY_ID)")
	pf.StringVar(&c.tokenFile, "token-file", "", "archivo de sesión (DIANCTL_TOKEN_FILE)")
	pf.BoolVarP(&c.verbose, "verbose", "v", false, "log de depuración en stderr")

	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newListCmd(c),
		newCreateCmd(c),
		newUpdateCmd(c),
		newDeleteCmd(c),
		newWatchCmd(c),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := config.LoadFile(c.cfgFile)
	if err != nil {
		return err
	}
	if c.apiURL != "" {
		cfg.Client.APIURL = c.apiURL
	}
	if c.companyID != "" {
		cfg.Client.CompanyID = c.companyID
	}
	if c.tokenFile != "" {
		cfg.Client.TokenFile = c.tokenFile
	}
	c.cfg = cfg

	level := "warn"
	if c.verbose {
		level = "debug"
	}
	c.log = logger.New(logger.Config{Env: "development", Level: level, Output: cmd.ErrOrStderr()}).Zerolog()
	return nil
}

func (c *cli) tokens() *admin.FileTokenStore {
	return admin.NewFileTokenStore(c.cfg.Client.TokenFile)
}

func (c *cli) client(creds admin.CredentialProvider) *admin.Client {
	return admin.NewClient(admin.ClientConfig{
		BaseURL:   c.cfg.Client.APIURL,
		CompanyID: c.cfg.Client.CompanyID,
		Timeout:   c.cfg.Client.Timeout,
	}, creds, c.log)
}

// view arma la vista de administración con la sesión guardada y la terminal como UI.
func (c *cli) view(cmd *cobra.Command, assumeYes bool) (*admin.View, *terminal) {
	ui := newTerminal(cmd.InOrStdin(), cmd.OutOrStdout(), cmd.ErrOrStderr(), assumeYes)
	return admin.NewView(c.client(c.tokens()), c.cfg.Client.CompanyID, ui, ui, c.log), ui
}

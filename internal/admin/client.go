// Package admin es el cliente de administración de resoluciones DIAN: cliente REST,
// vista con el estado de la lista y del diálogo de edición, y credenciales de sesión.
package admin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/dian-resoluciones/internal/application/dto"
	"github.com/jhoicas/dian-resoluciones/internal/domain"
)

// Errores del cliente. Los de negocio llegan como *domain.ValidationError,
// *domain.ConflictError o domain.ErrNotFound.
var (
	ErrNetwork = errors.New("no se pudo contactar el servidor")
	ErrAuth    = errors.New("sesión inválida o sin permisos")
)

const resolutionsPath = "/api/dian/resolutions"

// ClientConfig configuración del cliente REST.
type ClientConfig struct {
	BaseURL   string
	CompanyID string // se envía como ?companyId= al listar
	Timeout   time.Duration
}

// Client cliente REST del registro de resoluciones. No reintenta.
type Client struct {
	baseURL    string
	companyID  string
	creds      CredentialProvider
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient construye el cliente. creds puede ser nil si solo se usa Login.
func NewClient(cfg ClientConfig, creds CredentialProvider, log zerolog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		companyID:  cfg.CompanyID,
		creds:      creds,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.With().Str("component", "admin_client").Logger(),
	}
}

// Login autentica con email y contraseña. No usa el CredentialProvider.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var out dto.LoginResponse
	in := dto.LoginRequest{Email: email, Password: password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", false, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List devuelve todas las resoluciones de la empresa.
func (c *Client) List(ctx context.Context) ([]dto.ResolutionResponse, error) {
	path := resolutionsPath
	if c.companyID != "" {
		path += "?companyId=" + url.QueryEscape(c.companyID)
	}
	var out []dto.ResolutionResponse
	if err := c.do(ctx, http.MethodGet, path, true, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Get obtiene una resolución por ID.
func (c *Client) Get(ctx context.Context, id string) (*dto.ResolutionResponse, error) {
	var out dto.ResolutionResponse
	if err := c.do(ctx, http.MethodGet, resolutionsPath+"/"+url.PathEscape(id), true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Create registra una resolución.
func (c *Client) Create(ctx context.Context, req dto.ResolutionRequest) (*dto.ResolutionResponse, error) {
	var out dto.ResolutionResponse
	if err := c.do(ctx, http.MethodPost, resolutionsPath, true, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update reemplaza los campos editables de una resolución.
func (c *Client) Update(ctx context.Context, id string, req dto.ResolutionRequest) (*dto.ResolutionResponse, error) {
	var out dto.ResolutionResponse
	if err := c.do(ctx, http.MethodPut, resolutionsPath+"/"+url.PathEscape(id), true, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete elimina una resolución sin números emitidos.
func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, resolutionsPath+"/"+url.PathEscape(id), true, nil, nil)
}

// Issue toma el siguiente número de una serie.
func (c *Client) Issue(ctx context.Context, req dto.IssueRequest) (*dto.IssuedNumberResponse, error) {
	var out dto.IssuedNumberResponse
	if err := c.do(ctx, http.MethodPost, resolutionsPath+"/issue", true, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("serializar request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth {
		if c.creds == nil {
			return fmt.Errorf("%w: sin credenciales", ErrAuth)
		}
		tok, err := c.creds.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()
	c.log.Debug().Str("method", method).Str("path", path).Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).Msg("petición al registro")

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: leer respuesta: %v", ErrNetwork, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%w: respuesta inválida: %v", ErrNetwork, err)
		}
		return nil
	}
	return classify(resp.StatusCode, raw)
}

// classify convierte una respuesta de error en el error tipado correspondiente.
func classify(status int, raw []byte) error {
	var e dto.ErrorResponse
	_ = json.Unmarshal(raw, &e)
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}

	switch {
	case status == http.StatusBadRequest:
		if len(e.Fields) > 0 {
			return &domain.ValidationError{Fields: e.Fields}
		}
		return domain.NewValidationError("body", e.Message)
	case status == http.StatusConflict:
		return domain.NewConflict(e.Code, e.Message)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrAuth, e.Message)
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", domain.ErrNotFound, e.Message)
	default:
		return fmt.Errorf("%w: HTTP %d: %s", ErrNetwork, status, e.Message)
	}
}

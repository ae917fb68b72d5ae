package admin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CredentialProvider entrega el token Bearer de la sesión actual.
// El cliente lo pide en cada petición; nunca lo cachea.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken token fijo (tests, scripts con DIANCTL_TOKEN).
type StaticToken string

func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", fmt.Errorf("%w: token vacío", ErrAuth)
	}
	return string(t), nil
}

// FileTokenStore guarda el token de sesión en un archivo del usuario (permisos 0600).
type FileTokenStore struct {
	path string
}

// NewFileTokenStore crea el store sobre path. El archivo se crea en el primer Save.
func NewFileTokenStore(path string) *FileTokenStore {
	return &FileTokenStore{path: path}
}

// Path ruta del archivo de token.
func (s *FileTokenStore) Path() string { return s.path }

// Token lee el token guardado. Sin sesión devuelve ErrAuth.
func (s *FileTokenStore) Token(context.Context) (string, error) {
	raw, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("%w: no hay sesión, ejecute dianctl login", ErrAuth)
	}
	if err != nil {
		return "", fmt.Errorf("leer token: %w", err)
	}
	tok := strings.TrimSpace(string(raw))
	if tok == "" {
		return "", fmt.Errorf("%w: no hay sesión, ejecute dianctl login", ErrAuth)
	}
	return tok, nil
}

// Save persiste el token (login).
func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("crear directorio de token: %w", err)
	}
	if err := os.WriteFile(s.path, []byte(token+"\n"), 0o600); err != nil {
		return fmt.Errorf("guardar token: %w", err)
	}
	return nil
}

// Clear borra el token (logout). Sin sesión no es error.
func (s *FileTokenStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("borrar token: %w", err)
	}
	return nil
}

package postgres

import (
	"context"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDsnWithIPv4_IPLiteralSinCambios(t *testing.T) {
	dsn := "postgres://u:p@127.0.0.1:5433/db?sslmode=disable"
	assert.Equal(t, dsn, dsnWithIPv4(dsn))
}

func TestDsnWithIPv4_FormatoKeyValue(t *testing.T) {
	dsn := "host=localhost port=5432 dbname=x"
	assert.Equal(t, dsn, dsnWithIPv4(dsn))
}

func TestResolveIPv4_RechazaIPv6(t *testing.T) {
	_, err := resolveIPv4(context.Background(), "::1")
	assert.Error(t, err)
}

func TestMigraciones_Embebidas(t *testing.T) {
	names, err := fs.Glob(migrationsFS, "migrations/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, names)

	script, err := migrationsFS.ReadFile(names[0])
	require.NoError(t, err)
	assert.Contains(t, string(script), "dian_resolutions")
	assert.Contains(t, string(script), "ux_dian_resolutions_active_series")
}

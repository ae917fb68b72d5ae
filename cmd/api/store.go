package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jhoicas/dian-resoluciones/internal/application/usecase"
	"github.com/jhoicas/dian-resoluciones/internal/domain/repository"
	"github.com/jhoicas/dian-resoluciones/internal/infrastructure/memory"
	"github.com/jhoicas/dian-resoluciones/internal/infrastructure/postgres"
	"github.com/jhoicas/dian-resoluciones/pkg/config"
)

// store repositorios según DB_DRIVER.
type store struct {
	resolutions repository.ResolutionRepository
	tx          usecase.ResolutionTxRunner
	users       repository.UserRepository
	close       func()
}

func openStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*store, error) {
	if cfg.DB.Driver == "memory" {
		return openMemory(cfg.Demo, log)
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("conexión a PostgreSQL: %w", err)
	}
	if cfg.DB.AutoMigrate {
		if err := postgres.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &store{
		resolutions: postgres.NewResolutionRepository(pool),
		tx:          postgres.NewTxRunner(pool),
		users:       postgres.NewUserRepository(pool),
		close:       pool.Close,
	}, nil
}

// openMemory store sin persistencia para demos; crea los usuarios de DemoConfig.
func openMemory(demo config.DemoConfig, log zerolog.Logger) (*store, error) {
	st := memory.NewStore()
	users := memory.NewUserRepo()

	seed := []struct{ email, password, role string }{
		{demo.AdminEmail, demo.AdminPassword, "admin"},
		{demo.OperatorEmail, demo.OperatorPassword, "operador"},
	}
	for _, u := range seed {
		if u.password == "" {
			continue
		}
		if _, err := users.Add(demo.CompanyID, u.email, u.password, u.role); err != nil {
			return nil, fmt.Errorf("crear usuario demo %s: %w", u.email, err)
		}
		log.Info().Str("email", u.email).Str("role", u.role).Str("company_id", demo.CompanyID).Msg("usuario demo creado")
	}
	log.Warn().Msg("DB_DRIVER=memory: los datos se pierden al reiniciar")

	return &store{resolutions: st, tx: st, users: users, close: func() {}}, nil
}

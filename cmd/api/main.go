package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/dian-resoluciones/internal/application/auth"
	"github.com/jhoicas/dian-resoluciones/internal/application/usecase"
	"github.com/jhoicas/dian-resoluciones/internal/infrastructure/cache"
	"github.com/jhoicas/dian-resoluciones/internal/infrastructure/metrics"
	"github.com/jhoicas/dian-resoluciones/internal/infrastructure/scheduler"
	httpRouter "github.com/jhoicas/dian-resoluciones/internal/interfaces/http"
	"github.com/jhoicas/dian-resoluciones/pkg/config"
	"github.com/jhoicas/dian-resoluciones/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("db_driver", cfg.DB.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es requerido")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, log.Zerolog())
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	// Redis es opcional: si no conecta, se sirve sin cache.
	var resolutionCache usecase.ResolutionCache
	redisCache, err := cache.NewRedisCache(ctx, cfg.Redis)
	switch {
	case err != nil:
		log.Warn().Err(err).Msg("Redis no disponible, se continúa sin cache")
	case redisCache.Enabled():
		resolutionCache = redisCache
		defer redisCache.Close()
	}

	m := metrics.New()
	resolutionUC := usecase.NewResolutionUseCase(st.resolutions, st.tx, resolutionCache, log.Zerolog())
	authUC := auth.NewAuthUseCase(st.users, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 10,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "DIAN Resoluciones API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		ServiceName:  cfg.App.Name,
		ResolutionUC: resolutionUC,
		AuthUC:       authUC,
		JWTSecret:    cfg.JWT.Secret,
		Metrics:      m,
		Logger:       log.Zerolog(),
		RateLimit:    cfg.RateLimit,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", cfg.HTTP.Addr()).Msg("servidor HTTP escuchando")
		return app.Listen(cfg.HTTP.Addr())
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("señal de apagado recibida, cerrando servidor...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if cfg.Monitor.Enabled {
		monitor := usecase.NewResolutionMonitor(st.resolutions, m, usecase.MonitorConfig{
			UsageWarnPercent:  cfg.Monitor.UsageWarnThreshold,
			ExpiryWarningDays: cfg.Monitor.ExpiryWarningDays,
		}, log.Zerolog())
		g.Go(func() error {
			return scheduler.Run(gctx, "resolution_monitor", cfg.Monitor.Interval, func(ctx context.Context) error {
				_, err := monitor.Sweep(ctx)
				return err
			}, log.Zerolog())
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error().Err(err).Msg("aplicación finalizada con error")
		return
	}
	log.Info().Msg("aplicación detenida")
}

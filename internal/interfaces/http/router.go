package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/dian-resoluciones/internal/application/auth"
	"github.com/jhoicas/dian-resoluciones/internal/application/usecase"
	"github.com/jhoicas/dian-resoluciones/internal/infrastructure/metrics"
	"github.com/jhoicas/dian-resoluciones/pkg/config"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	ServiceName  string
	ResolutionUC *usecase.ResolutionUseCase
	AuthUC       *auth.AuthUseCase
	JWTSecret    string
	Metrics      *metrics.Metrics // nil = sin /metrics
	Logger       zerolog.Logger
	RateLimit    config.RateLimitConfig
}

// Router registra middlewares globales y rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Use(requestid.New())
	if deps.Metrics != nil {
		app.Use(Metrics(deps.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(deps.Metrics.Handler()))
	}
	app.Use(RequestLogger(deps.Logger))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.ServiceName})
	})

	limiter := NewRateLimiter(deps.RateLimit.RPS, deps.RateLimit.Burst, KeyByCompanyOrIP)
	api := app.Group("/api")

	// Auth (público, limitado por IP)
	authHandler := NewAuthHandler(deps.AuthUC)
	api.Post("/auth/login", limiter.Handler(), authHandler.Login)

	// Resoluciones DIAN (protegido). Escrituras solo para admin.
	resolutions := api.Group("/dian/resolutions", AuthMiddleware(deps.JWTSecret), limiter.Handler())
	h := NewResolutionHandler(deps.ResolutionUC)
	adminOnly := RequireRole(RoleAdmin)
	anyRole := RequireRole(RoleAdmin, RoleOperador)

	resolutions.Get("", anyRole, h.List)
	resolutions.Post("/issue", anyRole, h.Issue)
	resolutions.Get("/:id", anyRole, h.Get)
	resolutions.Post("", adminOnly, h.Create)
	resolutions.Put("/:id", adminOnly, h.Update)
	resolutions.Delete("/:id", adminOnly, h.Delete)
}

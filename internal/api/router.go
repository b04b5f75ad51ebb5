package api

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/prestalink/lending-bot/internal/api/handler"
)

// Deps carries what the HTTP surface needs from the rest of the process.
type Deps struct {
	Queue         handler.Enqueuer
	Dedup         handler.DedupChecker
	WebhookSecret string
	Mongo         *mongo.Database
	Postgres      *pgxpool.Pool
	Redis         *redis.Client
	Log           zerolog.Logger
}

// NewRouter builds the Echo instance with all routes registered. The only
// business endpoint is the webhook; the rest are probes and metrics.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echoprometheus.NewMiddleware("lendingbot_http"))

	e.Validator = handler.NewValidator()

	updateHandler := handler.NewUpdateHandler(deps.Queue, deps.Dedup, deps.WebhookSecret, deps.Log)
	e.POST("/webhook", updateHandler.Receive)

	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Postgres, deps.Redis)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}

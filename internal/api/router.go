package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/updoot/discussion-backend/internal/api/handler"
	"github.com/updoot/discussion-backend/internal/api/middleware"
	"github.com/updoot/discussion-backend/internal/core/ports"
	"github.com/updoot/discussion-backend/internal/core/service"
	mongodb "github.com/updoot/discussion-backend/internal/infrastructure/db/mongo"
	redisdb "github.com/updoot/discussion-backend/internal/infrastructure/db/redis"
	"github.com/updoot/discussion-backend/internal/pkg/config"
)

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(db *mongo.Database, rdb *redis.Client, cfg *config.Config, mail ports.MailDispatcher, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())

	// --- Dependencies ---
	userRepo := mongodb.NewUserRepository(db)
	postRepo := mongodb.NewPostRepository(db)
	updootRepo := mongodb.NewUpdootRepository(db)
	sessionStore := redisdb.NewSessionStore(rdb)
	tokenStore := redisdb.NewResetTokenStore(rdb)

	authService := service.NewAuthService(
		userRepo, sessionStore, tokenStore,
		service.BcryptHasher{}, mail, cfg.FrontendURL, log,
	)
	postService := service.NewPostService(postRepo, updootRepo, log)

	authHandler := handler.NewAuthHandler(authService)
	postHandler := handler.NewPostHandler(postService)

	sessionMW := middleware.Session(sessionStore, middleware.SessionConfig{
		CookieName: cfg.Session.CookieName,
		Secure:     cfg.Session.Secure,
	}, log)
	loadersMW := middleware.WithLoaders(userRepo, updootRepo)
	e.Use(sessionMW)

	// --- Auth routes ---
	e.POST("/auth/register", authHandler.Register)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.POST("/auth/forgot-password", authHandler.ForgotPassword)
	e.POST("/auth/change-password", authHandler.ChangePassword)
	e.GET("/auth/me", authHandler.Me)

	// --- Post routes ---
	e.GET("/posts", postHandler.List, loadersMW)
	e.GET("/posts/:id", postHandler.Get, loadersMW)
	e.POST("/posts", postHandler.Create, middleware.RequireAuth())
	e.POST("/posts/:id/vote", postHandler.Vote, middleware.RequireAuth())

	// --- Health probes (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?

	// --- Metrics ---
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

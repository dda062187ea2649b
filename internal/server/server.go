// Package server contains the HTTP and WebSocket handlers for the recipebox API and page views.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "recipebox/docs" // swagger docs
	"recipebox/internal/actions"
	"recipebox/internal/cache"
	"recipebox/internal/config"
	"recipebox/internal/content"
	"recipebox/internal/database"
	"recipebox/internal/featureflags"
	"recipebox/internal/middleware"
	"recipebox/internal/models"
	"recipebox/internal/notifications"
	"recipebox/internal/repository"
	"recipebox/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	actions        *actions.Actions
	auth           *service.AuthService
	images         *service.ImageService
	site           *content.Site
	notifier       *notifications.Notifier
	hub            *notifications.Hub
	featureFlags   *featureflags.Manager
	limiter        *middleware.RateLimiter
	cookieName     string
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.Connect(context.Background(), cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// redisClient may be nil: caching, rate limiting and token revocation are then skipped
// and catalog events are delivered in-process.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	site, err := content.Load(cfg.SiteContentPath)
	if err != nil {
		return nil, err
	}

	userRepo := repository.NewUserRepository(db)
	ingredientRepo := repository.NewIngredientRepository(db)
	recipeRepo := repository.NewRecipeRepository(db)

	auth := service.NewAuthService(userRepo, redisClient, service.AuthConfig{
		Secret: cfg.JWTSecret,
		MaxAge: time.Duration(cfg.SessionMaxAge) * time.Second,
	})
	images := service.NewImageService(cfg.ImageUploadDir, cfg.ImageMaxUploadSizeMB)
	flags := featureflags.NewManager(cfg.FeatureFlags)
	notifier := notifications.NewNotifier(redisClient)

	s := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("recipebox-api"),
		auth:           auth,
		images:         images,
		site:           site,
		notifier:       notifier,
		hub:            notifications.NewHub(),
		featureFlags:   flags,
		limiter:        middleware.NewRateLimiter(redisClient, cfg.Env != "test" && cfg.Env != "development"),
		cookieName:     middleware.SessionCookieName(cfg.IsProduction()),
	}
	s.actions = actions.New(actions.Deps{
		Ingredients: service.NewIngredientService(ingredientRepo),
		Recipes:     service.NewRecipeService(recipeRepo, ingredientRepo, cfg.AllowedImageHosts()),
		Auth:        auth,
		Images:      images,
		Events:      notifier,
		Flags:       flags,
	})
	s.shutdownCtx, s.shutdownFn = context.WithCancel(context.Background())
	return s, nil
}

// Actions exposes the server actions, e.g. for in-process stores.
func (s *Server) Actions() *actions.Actions {
	return s.actions
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Recipebox API",
		BodyLimit:    int(s.images.MaxUploadBytes()) + 1024*1024,
		ErrorHandler: s.errorHandler,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound, fiber.StatusMethodNotAllowed:
			return models.RespondWithError(c, fe.Code, &models.AppError{Code: models.CodeNotFound, Message: "Route not found"})
		case fiber.StatusRequestEntityTooLarge:
			return models.RespondWithError(c, fe.Code, models.NewValidationError("Request body too large"))
		}
	}
	middleware.Logger.ErrorContext(c.UserContext(), "unhandled request error",
		slog.String("path", c.Path()),
		slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

const corsHeaders = "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version"

// SetupMiddleware installs the global chain. Order matters: request ids and
// tracing come before logging so every access line carries both.
func (s *Server) SetupMiddleware(app *fiber.App) {
	chain := []fiber.Handler{
		recover.New(recover.Config{EnableStackTrace: !s.config.IsProduction()}),
		requestid.New(),
		middleware.ContextMiddleware(),
		middleware.TracingMiddleware(),
	}
	if s.promMiddleware != nil {
		chain = append(chain, middleware.MetricsMiddleware(s.promMiddleware))
	}
	chain = append(chain,
		helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}),
		middleware.StructuredLogger(),
		cors.New(cors.Config{
			AllowOrigins:     s.allowedOrigins(),
			AllowHeaders:     corsHeaders,
			AllowCredentials: true,
			MaxAge:           int((24 * time.Hour).Seconds()),
		}),
		s.globalLimiter(),
		middleware.PageGate(s.auth, s.cookieName),
	)
	for _, h := range chain {
		app.Use(h)
	}
}

func (s *Server) allowedOrigins() string {
	if s.config.AllowedOrigins != "" {
		return s.config.AllowedOrigins
	}
	return "http://localhost:3000,http://127.0.0.1:3000"
}

// globalLimiter caps each address at 100 requests a minute in process memory,
// independent of the Redis-backed per-route rules.
func (s *Server) globalLimiter() fiber.Handler {
	return limiter.New(limiter.Config{
		Max:        100,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || strings.HasPrefix(c.Path(), "/health/")
		},
		KeyGenerator: func(c *fiber.Ctx) string { return c.IP() },
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
				Code:  "RATE_LIMITED",
			})
		},
	})
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static("/uploads", s.images.UploadDir(), fiber.Static{MaxAge: 86400})

	api := app.Group("/api")
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Recipebox Metrics Dashboard",
	}))
	api.Get("/swagger/*", swagger.HandlerDefault)

	auth := api.Group("/auth")
	auth.Post("/register", s.limiter.Handler(middleware.Rule{Name: "register", Limit: 5, Window: 10 * time.Minute}), s.Register)
	auth.Post("/signin", s.limiter.Handler(middleware.Rule{Name: "signin", Limit: 10, Window: 5 * time.Minute}), s.SignIn)
	auth.Post("/signout", s.SignOut)
	auth.Get("/session", s.GetSession)

	api.Get("/pages", s.GetPage)

	recipes := api.Group("/recipes")
	recipes.Get("/", s.GetRecipes)
	recipes.Get("/:id", s.GetRecipe)

	protected := api.Group("", s.AuthRequired())
	protected.Get("/feature-flags", s.GetFeatureFlags)

	ingredients := protected.Group("/ingredients")
	ingredients.Get("/", s.GetIngredients)
	ingredients.Post("/", s.CreateIngredient)
	ingredients.Delete("/:id", s.DeleteIngredient)

	myRecipes := protected.Group("/recipes")
	myRecipes.Post("/", s.CreateRecipe)
	myRecipes.Post("/:id/image", s.limiter.Handler(middleware.Rule{Name: "recipe_image", Limit: 10, Window: time.Minute}), s.UploadRecipeImage)
	myRecipes.Put("/:id", s.UpdateRecipe)
	myRecipes.Delete("/:id", s.DeleteRecipe)

	protected.Get("/ws", s.CatalogWebsocket())

	s.setupPages(app)
}

// AuthRequired returns the API authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.RequireSession(s.auth, s.cookieName)
}

// WireNotifications connects the websocket hub to catalog events until shutdown.
func (s *Server) WireNotifications() error {
	return s.hub.StartWiring(s.shutdownCtx, s.notifier)
}

// Start wires catalog notifications and listens on the configured port.
func (s *Server) Start() error {
	app := s.NewApp()

	if err := s.WireNotifications(); err != nil {
		middleware.Logger.Warn("catalog notifications unavailable", slog.String("error", err.Error()))
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// Shutdown stops accepting requests, closes watcher connections and then
// releases the database and Redis. Every step runs even if an earlier one fails.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	// Watchers hold hijacked connections the HTTP server does not track.
	errs := []error{wrapStep("catalog hub", s.hub.Shutdown(ctx))}
	if s.app != nil {
		errs = append(errs, wrapStep("http server", s.app.ShutdownWithContext(ctx)))
	}
	if sqlDB, err := s.db.DB(); err == nil {
		errs = append(errs, wrapStep("database", sqlDB.Close()))
	}
	if s.redis != nil {
		errs = append(errs, wrapStep("redis", s.redis.Close()))
	}

	err := errors.Join(errs...)
	if err != nil {
		middleware.Logger.Error("shutdown finished with errors", slog.String("error", err.Error()))
		return err
	}
	middleware.Logger.Info("server shutdown complete")
	return nil
}

func wrapStep(step string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("close %s: %w", step, err)
}

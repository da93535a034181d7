// routes.go - Route registration helpers
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/synthgen/backend/internal/generator"
	"github.com/synthgen/backend/internal/history"
	"github.com/synthgen/backend/internal/storage"
	"go.uber.org/zap"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store             storage.Store
	History           history.Store
	Generator         *generator.Generator
	Logger            *zap.Logger
	Version           string
	AllowedExtensions []string
	DefaultRecords    int
	MaxRecords        int
}

// Handlers holds all handler instances
type Handlers struct {
	Health   HealthHandler
	Upload   UploadHandler
	Generate GenerateHandler
	Runs     RunHandler
	Files    FileHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		Health:   NewHealthHandler(deps.Version, deps.Generator, deps.History, logger.Named("health")),
		Upload:   NewUploadHandler(deps.Store, deps.History, deps.Generator, deps.AllowedExtensions, logger.Named("upload")),
		Generate: NewGenerateHandler(deps.Generator, deps.History, deps.DefaultRecords, deps.MaxRecords, logger.Named("generate")),
		Runs:     NewRunHandler(deps.History, deps.Store, logger.Named("runs")),
		Files:    NewFileHandler(deps.Store, logger.Named("files")),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// The browser form posts here
	e.POST("/upload", handlers.Upload.HandleUpload)

	apiGroup := e.Group("/api")
	apiGroup.GET("/health", handlers.Health.HandleHealth)
	apiGroup.POST("/upload", handlers.Upload.HandleUpload)

	apiGroup.GET("/profiles", handlers.Generate.HandleListProfiles)
	apiGroup.POST("/generate", handlers.Generate.HandleGenerate)
	apiGroup.POST("/anonymize", handlers.Generate.HandleAnonymize)

	runGroup := apiGroup.Group("/runs")
	runGroup.GET("", handlers.Runs.HandleListRuns)
	runGroup.GET("/:id", handlers.Runs.HandleGetRun)
	runGroup.GET("/:id/download", handlers.Runs.HandleDownloadRun)
	runGroup.DELETE("/:id", handlers.Runs.HandleDeleteRun)

	fileGroup := apiGroup.Group("/files")
	fileGroup.GET("", handlers.Files.HandleListFiles)
	fileGroup.GET("/:id", handlers.Files.HandleGetFile)
	fileGroup.GET("/:id/download", handlers.Files.HandleDownloadFile)
	fileGroup.DELETE("/:id", handlers.Files.HandleDeleteFile)
}

// MiddlewareOptions selects the optional middleware
type MiddlewareOptions struct {
	Logger         *zap.Logger
	RequestLogging bool
	BodyLimit      string
	EnableCORS     bool
	AllowOrigins   string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, opts MiddlewareOptions) {
	e.HTTPErrorHandler = ErrorHandler

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		Skipper: func(c echo.Context) bool {
			return !opts.RequestLogging || c.Request().URL.Path == "/api/health"
		},
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
			}
			if v.Error != nil {
				logger.Warn("request failed", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			logger.Error("panic recovered", zap.Error(err), zap.ByteString("stack", stack))
			return err
		},
	}))

	if opts.BodyLimit != "" {
		e.Use(middleware.BodyLimit(opts.BodyLimit))
	}

	if opts.EnableCORS {
		origins := splitOrigins(opts.AllowOrigins)
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, o := range strings.Split(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return origins
}

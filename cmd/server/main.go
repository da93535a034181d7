package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"github.com/synthgen/backend/internal/api"
	"github.com/synthgen/backend/internal/config"
	"github.com/synthgen/backend/internal/generator"
	"github.com/synthgen/backend/internal/history"
	"github.com/synthgen/backend/internal/logging"
	"github.com/synthgen/backend/internal/storage"
	"github.com/synthgen/backend/internal/web"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

const configFileName = "synthgen.config.xml"

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "synthgen-server",
	Short: "Synthetic JSON data server",
	Long: `Serves the upload page and the synthetic data API.

POST /upload takes a JSON file and answers with fake data of the same shape.
The /api group adds profile-based generation, anonymization and a run history.`,
	SilenceUsage: true,
	RunE:         runServer,
}

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "XML config file (default: next to the executable)")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Override the configured log level")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultConfigPath() (string, error) {
	exePath, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}
	return filepath.Join(filepath.Dir(exePath), configFileName), nil
}

func runServer(cmd *cobra.Command, _ []string) error {
	if configPath == "" {
		p, err := defaultConfigPath()
		if err != nil {
			return err
		}
		configPath = p
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	level := cfg.Advanced.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger, err := logging.New(level)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	fileStore, err := storage.NewLocalStore(cfg.GetUploadDir())
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	hist, err := history.Open(cfg.Storage.HistoryDatabase, history.Options{
		Threads:     cfg.Advanced.DuckDBThreads,
		MemoryLimit: cfg.Advanced.DuckDBMemoryLimit,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to open history: %w", err)
	}
	defer hist.Close()

	registry, err := generator.NewRegistry()
	if err != nil {
		return fmt.Errorf("failed to load built-in profiles: %w", err)
	}
	seed := cfg.Generation.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	gen := generator.New(seed, registry)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	profilesDir := cfg.Storage.ProfilesDirectory
	if cfg.Generation.WatchProfiles {
		watcher, err := generator.NewProfileWatcher(profilesDir, registry, logger)
		if err != nil {
			return fmt.Errorf("failed to create profile watcher: %w", err)
		}
		if err := watcher.Start(gctx); err != nil {
			watcher.Stop()
			return fmt.Errorf("failed to watch profiles: %w", err)
		}
		defer watcher.Stop()
	} else if n, err := registry.LoadDir(profilesDir); err != nil {
		logger.Warn("some profiles failed to load", zap.String("dir", profilesDir), zap.Error(err))
	} else {
		logger.Info("profiles loaded", zap.Int("files", n))
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	api.SetupMiddleware(e, api.MiddlewareOptions{
		Logger:         logger.Named("http"),
		RequestLogging: cfg.Advanced.EnableRequestLogging,
		BodyLimit:      cfg.Server.BodyLimit,
		EnableCORS:     cfg.Server.EnableCORS,
		AllowOrigins:   cfg.Server.AllowOrigins,
	})
	api.RegisterRoutes(e, api.NewHandlers(&api.Dependencies{
		Store:             fileStore,
		History:           hist,
		Generator:         gen,
		Logger:            logger,
		Version:           Version,
		AllowedExtensions: cfg.AllowedExtensions(),
		DefaultRecords:    cfg.Generation.DefaultRecords,
		MaxRecords:        cfg.Generation.MaxRecords,
	}))

	embeddedMode := web.HasEmbeddedFiles()
	if embeddedMode {
		if err := web.RegisterStaticRoutes(e); err != nil {
			logger.Warn("failed to register static routes", zap.Error(err))
			embeddedMode = false
		}
	}

	s := &http.Server{
		Addr:         cfg.GetServerAddr(),
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	printBanner(cfg, embeddedMode)

	g.Go(func() error {
		if err := e.StartServer(s); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		return history.RunRetention(gctx, hist, fileStore, cfg.RunRetention(), cfg.CleanupInterval(), logger)
	})

	return g.Wait()
}

func printBanner(cfg *config.AppConfig, embeddedMode bool) {
	frontend := "API only"
	if embeddedMode {
		frontend = "Embedded upload page"
	}

	fmt.Printf("\n")
	fmt.Printf("╔═══════════════════════════════════════════════════════════╗\n")
	fmt.Printf("║           Synthetic Data Server                           ║\n")
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Version:    %-45s║\n", Version)
	fmt.Printf("║  Build Time: %-45s║\n", BuildTime)
	fmt.Printf("║  Frontend:   %-45s║\n", frontend)
	fmt.Printf("╠═══════════════════════════════════════════════════════════╣\n")
	fmt.Printf("║  Config:    %-46s║\n", configPath)
	fmt.Printf("║  Listen:    http://%-38s║\n", cfg.GetServerAddr())
	fmt.Printf("║  Data Dir:  %-46s║\n", cfg.GetDataDir())
	fmt.Printf("║  History:   %-46s║\n", cfg.Storage.HistoryDatabase)
	fmt.Printf("╚═══════════════════════════════════════════════════════════╝\n")
	fmt.Printf("\n")

	if embeddedMode {
		fmt.Printf("Open http://localhost:%d in your browser\n\n", cfg.Server.Port)
	}
}

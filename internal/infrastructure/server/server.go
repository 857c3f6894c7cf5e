package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	nethttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/api/http"
	"github.com/GriffinCanCode/mirrordeck/internal/api/middleware"
	"github.com/GriffinCanCode/mirrordeck/internal/api/ws"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/events"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/launcher"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/mirror"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/profile"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/session"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/supervisor"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/config"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/logging"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/adb"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/process"
	"github.com/GriffinCanCode/mirrordeck/internal/providers/window"
)

// Dependencies replaces the OS-facing providers. Zero fields use the
// real adb, process and window backends.
type Dependencies struct {
	Runner  adb.Runner
	Spawner process.Spawner
	Windows window.Manager
	Logger  *logging.Logger
}

// Server wraps the HTTP server and dependencies
type Server struct {
	router  *gin.Engine
	http    *nethttp.Server
	mirror  *mirror.Service
	bus     *events.Bus
	watcher *profile.Watcher
	tracer  *tracing.Tracer
	cancel  context.CancelFunc
	logger  *logging.Logger
	config  *config.Config
	metrics *monitoring.Metrics
}

// NewServer creates a server backed by the host's adb, scrcpy and window
// system.
func NewServer(cfg *config.Config) (*Server, error) {
	return New(cfg, Dependencies{})
}

// New creates a server with the given providers.
func New(cfg *config.Config, deps Dependencies) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = logging.FromSettings(cfg.Logging.Level, cfg.Logging.Development, cfg.Logging.File)
	}
	root := logger.Logger

	logger.Info("Initializing MirrorDeck server",
		zap.String("addr", net.JoinHostPort(cfg.Server.Host, cfg.Server.Port)),
		zap.String("scrcpy", cfg.Mirror.ScrcpyPath),
		zap.String("adb", cfg.Mirror.AdbPath),
	)

	// Initialize metrics first (needed by other components)
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := monitoring.NewMetrics(reg)

	catalog, err := loadCatalog(cfg)
	if err != nil {
		return nil, err
	}
	logger.Info("Profile loaded",
		zap.String("path", cfg.Mirror.ProfilePath),
		zap.String("preset", catalog.Preset),
		zap.Int("device_overrides", len(catalog.Devices)))

	spawner := deps.Spawner
	if spawner == nil {
		spawner = process.NewExecSpawner(root)
	}
	windows := deps.Windows
	if windows == nil {
		windows = window.NewManager()
	}

	bridge := adb.New(adb.Options{
		Path:            cfg.Mirror.AdbPath,
		Timeout:         cfg.Mirror.AdbTimeout,
		BreakerFailures: cfg.Bridge.BreakerFailures,
		BreakerTimeout:  cfg.Bridge.BreakerTimeout,
	}, deps.Runner, metrics, root)

	bus := events.NewBus(events.DefaultBuffer, root)
	registry := session.NewRegistry().WithMetrics(metrics)
	locator := window.NewLocator(windows, root)
	controller := window.NewController(windows, root)

	supervisors := supervisor.NewGroup(supervisor.Config{
		Grace:     cfg.Supervisor.Grace,
		Interval:  cfg.Supervisor.Interval,
		Tolerance: cfg.Supervisor.Tolerance,
	}, registry, locator, controller, bridge, root).WithMetrics(metrics)

	mirrorSvc := mirror.New(mirror.Deps{
		Launcher:    launcher.New(cfg.Mirror.ScrcpyPath, spawner, registry, bridge, bus, root).WithMetrics(metrics),
		Registry:    registry,
		Supervisors: supervisors,
		Locator:     locator,
		Controller:  controller,
		Bridge:      bridge,
		Bus:         bus,
		Catalog:     catalog,
		Logger:      root,
	}).WithMetrics(metrics)

	// Create router
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware
	tracer := tracing.New("mirrordeck", root.Named("trace"))
	router.Use(middleware.Recovery(root))
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(middleware.Logger(root))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	// Register routes
	handlers := http.NewHandlers(mirrorSvc, bridge, metrics, root)
	http.RegisterRoutes(router, handlers)
	router.GET("/stream", ws.NewHandler(bus, root).WithMetrics(metrics).HandleConnection)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})))

	s := &Server{
		router:  router,
		mirror:  mirrorSvc,
		bus:     bus,
		tracer:  tracer,
		logger:  logger,
		config:  cfg,
		metrics: metrics,
	}
	s.http = &nethttp.Server{
		Addr:              net.JoinHostPort(cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.Mirror.ProfilePath != "" && cfg.Mirror.ProfileWatch {
		s.watchProfile(catalog)
	}

	logger.Info("Server initialized successfully")
	return s, nil
}

func loadCatalog(cfg *config.Config) (*profile.Catalog, error) {
	if cfg.Mirror.ProfilePath == "" {
		c, err := profile.Builtin(cfg.Mirror.DefaultPreset)
		if err != nil {
			return nil, fmt.Errorf("default preset: %w", err)
		}
		return c, nil
	}
	c, err := profile.Load(cfg.Mirror.ProfilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}
	return c, nil
}

// watchProfile hot-reloads the profile. A watcher that cannot start is
// logged and skipped.
func (s *Server) watchProfile(catalog *profile.Catalog) {
	ctx, cancel := context.WithCancel(context.Background())
	w, err := profile.NewWatcher(s.config.Mirror.ProfilePath, catalog.Digest, func(c *profile.Catalog) {
		s.mirror.ReloadProfile(ctx, c)
	}, s.logger.Logger)
	if err != nil {
		cancel()
		s.logger.Warn("Profile hot reload disabled", zap.Error(err))
		return
	}
	s.watcher = w
	s.cancel = cancel
	go w.Run(ctx)
	s.logger.Info("Watching profile for changes", zap.String("path", s.config.Mirror.ProfilePath))
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() nethttp.Handler {
	return s.router
}

// Mirror returns the mirroring service.
func (s *Server) Mirror() *mirror.Service {
	return s.mirror
}

// Run starts the HTTP server and blocks until it stops. It returns nil
// after Close.
func (s *Server) Run() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.http.Addr))
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, nethttp.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Close stops accepting requests, terminates every mirroring session and
// flushes the logger.
func (s *Server) Close(ctx context.Context) error {
	s.logger.Info("Shutting down server...")

	var errs []error
	if err := s.http.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP shutdown incomplete", zap.Error(err))
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if s.watcher != nil {
		s.cancel()
		if err := s.watcher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close profile watcher: %w", err))
		}
	}

	s.mirror.Shutdown()
	s.bus.Close()
	s.tracer.Close()
	s.logger.Info("Server stopped")

	// Sync logger before exit
	_ = s.logger.Sync()
	return errors.Join(errs...)
}

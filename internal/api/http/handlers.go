package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/mirrordeck/internal/domain/command"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/launcher"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/mirror"
	"github.com/GriffinCanCode/mirrordeck/internal/domain/session"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/mirrordeck/internal/infrastructure/resilience"
)

// MirrorService is the control surface the handlers drive.
type MirrorService interface {
	StartSession(ctx context.Context, serial string) (session.Snapshot, error)
	StopSession(serial string) bool
	RestartSession(ctx context.Context, serial string) (session.Snapshot, error)
	Sessions() []session.Snapshot
	Session(serial string) (session.Snapshot, error)

	SetAlwaysOnTop(serial string, enabled bool) (bool, error)
	SetFullscreen(serial string, enabled bool) (bool, error)
	SetBorderless(serial string, enabled bool) (bool, error)
	SetAspectLock(serial string, enabled bool) (bool, error)
	Focus(serial string) (bool, error)
	Minimize(serial string) (bool, error)
	Restore(serial string) (bool, error)

	Options() command.Options
	UpdateOptions(ctx context.Context, opts command.Options) (command.Options, error)
	ApplyPolicy(ctx context.Context, name string, enabled bool) (int, error)

	Devices(ctx context.Context) []mirror.DeviceStatus
	EnableTCPMode(ctx context.Context, serial string, port int) (bool, error)
	ConnectWireless(ctx context.Context, address string, port int) (string, bool, error)
	DisconnectWireless(ctx context.Context, address string) (string, bool, error)
	SendKeyEvent(ctx context.Context, serial, keycode string) (bool, error)
	DeviceIP(ctx context.Context, serial string) (string, error)
}

// BridgeStatus exposes the adb circuit breaker state.
type BridgeStatus interface {
	BreakerState() resilience.State
}

// Handlers serves the control API.
type Handlers struct {
	svc     MirrorService
	bridge  BridgeStatus
	metrics *monitoring.Metrics
	logger  *zap.Logger
	started time.Time
	version string
}

// NewHandlers creates the API handlers. bridge and metrics may be nil.
func NewHandlers(svc MirrorService, bridge BridgeStatus, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		svc:     svc,
		bridge:  bridge,
		metrics: metrics,
		logger:  logger.Named("api"),
		started: time.Now(),
		version: "1.0.0",
	}
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	var spawnErr *launcher.SpawnError
	switch {
	case errors.Is(err, mirror.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, mirror.ErrInvalidInput),
		errors.Is(err, mirror.ErrUnknownPolicy),
		errors.Is(err, command.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.As(err, &spawnErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   "Invalid request: " + err.Error(),
	})
}

// bridgeResult reports a device command. adb failures are degraded
// results, not server errors, so they answer 502 with success=false.
func bridgeResult(c *gin.Context, ok bool, body gin.H) {
	body["success"] = ok
	if !ok {
		body["error"] = "adb command failed"
		c.JSON(http.StatusBadGateway, body)
		return
	}
	c.JSON(http.StatusOK, body)
}

// Root describes the service.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "mirrordeck",
		"version": h.version,
		"endpoints": gin.H{
			"devices":  "/devices",
			"sessions": "/sessions",
			"options":  "/options",
			"policies": "/policies/:name",
			"stream":   "/stream",
			"metrics":  "/metrics",
		},
	})
}

// Health reports liveness and the adb breaker state.
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":         "healthy",
		"sessions":       len(h.svc.Sessions()),
		"uptime_seconds": int(time.Since(h.started).Seconds()),
	}
	if h.bridge != nil {
		state := h.bridge.BreakerState()
		body["adb"] = state.String()
		if state == resilience.StateOpen {
			body["status"] = "degraded"
		}
	}
	c.JSON(http.StatusOK, body)
}

// Status returns a JSON summary of the service metrics.
func (h *Handlers) Status(c *gin.Context) {
	body := gin.H{
		"timestamp": time.Now(),
		"metrics":   h.metrics.Snapshot(),
		"sessions":  h.svc.Sessions(),
		"options":   h.svc.Options(),
	}
	if h.bridge != nil {
		body["adb"] = h.bridge.BreakerState().String()
	}
	c.JSON(http.StatusOK, body)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"stockwatch/internal/models"
	"stockwatch/internal/monitor"
	"stockwatch/internal/registry"
)

// LogLimit is how many activity entries GET /api/logs returns.
const LogLimit = 50

// Monitor is the engine surface the handlers depend on.
type Monitor interface {
	Targets() []models.TargetStatus
	AddTarget(ctx context.Context, url, title, memo string) error
	RemoveTarget(ctx context.Context, index int) (models.Target, error)
	Start() error
	Stop()
	Status() monitor.Status
	Logs(n int) []models.LogEntry
	TestNotification(ctx context.Context) bool
}

// Error kinds returned in the "kind" field of error payloads.
const (
	KindInvalidRequest  = "InvalidRequest"
	KindInvalidURL      = "InvalidURL"
	KindDuplicateURL    = "DuplicateURL"
	KindIndexOutOfRange = "IndexOutOfRange"
	KindInvalidAction   = "InvalidAction"
	KindAlreadyRunning  = "AlreadyRunning"
	KindNoTargets       = "NoTargets"
	KindNotifyFailure   = "NotifyFailure"
	KindInternal        = "Internal"
)

type errorResp struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

type okResp struct {
	Success bool   `json:"success"`
	Status  string `json:"status,omitempty"`
}

// Handlers holds dependencies for the API handlers.
type Handlers struct {
	monitor Monitor
	log     zerolog.Logger
}

func NewHandlers(m Monitor, logger zerolog.Logger) *Handlers {
	return &Handlers{monitor: m, log: logger}
}

// ListTargets returns every target with its last observed status.
func (h *Handlers) ListTargets(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.monitor.Targets())
}

// CreateTarget registers a new URL.
func (h *Handlers) CreateTarget(c *gin.Context) {
	var req struct {
		URL   string `json:"url"`
		Title string `json:"title"`
		Memo  string `json:"memo"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "invalid JSON: " + err.Error(), Kind: KindInvalidRequest})
		return
	}
	if err := h.monitor.AddTarget(c.Request.Context(), req.URL, req.Title, req.Memo); err != nil {
		h.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{Success: true})
}

// DeleteTarget removes the target at the path index.
func (h *Handlers) DeleteTarget(c *gin.Context) {
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "index must be an integer", Kind: KindIndexOutOfRange})
		return
	}
	if _, err := h.monitor.RemoveTarget(c.Request.Context(), index); err != nil {
		h.writeError(c, err)
		return
	}
	writeJSON(c, http.StatusOK, okResp{Success: true})
}

// ToggleMonitoring starts or stops the polling loop.
func (h *Handlers) ToggleMonitoring(c *gin.Context) {
	var req struct {
		Action string `json:"action"`
	}
	_ = c.ShouldBindJSON(&req)

	switch req.Action {
	case "start":
		if err := h.monitor.Start(); err != nil {
			h.writeError(c, err)
			return
		}
		writeJSON(c, http.StatusOK, okResp{Success: true, Status: "running"})
	case "stop":
		h.monitor.Stop()
		writeJSON(c, http.StatusOK, okResp{Success: true, Status: "stopped"})
	default:
		writeJSON(c, http.StatusBadRequest, errorResp{Error: "action must be start or stop", Kind: KindInvalidAction})
	}
}

func (h *Handlers) Status(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.monitor.Status())
}

// Logs returns the most recent activity entries, oldest first.
func (h *Handlers) Logs(c *gin.Context) {
	writeJSON(c, http.StatusOK, h.monitor.Logs(LogLimit))
}

// TestTelegram sends a test notification through the configured transport.
func (h *Handlers) TestTelegram(c *gin.Context) {
	if !h.monitor.TestNotification(c.Request.Context()) {
		writeJSON(c, http.StatusInternalServerError, errorResp{Error: "notification could not be delivered", Kind: KindNotifyFailure})
		return
	}
	writeJSON(c, http.StatusOK, okResp{Success: true})
}

// Healthz is a simple health check endpoint.
func (h *Handlers) Healthz(c *gin.Context) {
	c.Status(http.StatusOK)
}

func (h *Handlers) writeError(c *gin.Context, err error) {
	kind := errorKind(err)
	code := http.StatusBadRequest
	if kind == KindInternal {
		code = http.StatusInternalServerError
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	writeJSON(c, code, errorResp{Error: err.Error(), Kind: kind})
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, registry.ErrInvalidURL):
		return KindInvalidURL
	case errors.Is(err, registry.ErrDuplicateURL):
		return KindDuplicateURL
	case errors.Is(err, registry.ErrIndexOutOfRange):
		return KindIndexOutOfRange
	case errors.Is(err, monitor.ErrAlreadyRunning):
		return KindAlreadyRunning
	case errors.Is(err, monitor.ErrNoTargets):
		return KindNoTargets
	default:
		return KindInternal
	}
}

func writeJSON(c *gin.Context, code int, v any) {
	c.Header("Content-Type", "application/json")
	c.Status(code)
	enc := json.NewEncoder(c.Writer)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

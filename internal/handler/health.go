package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/nzoschke/cadence/internal/ctxkeys"
	"github.com/nzoschke/cadence/internal/llm"
)

// Pinger is satisfied by *sqlx.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db  Pinger
	llm llm.Client
}

func NewHealthHandler(db Pinger, client llm.Client) *HealthHandler {
	return &HealthHandler{
		db:  db,
		llm: client,
	}
}

type healthResponse struct {
	Status       string `json:"status"`
	App          string `json:"app,omitempty"`
	Environment  string `json:"environment,omitempty"`
	Database     string `json:"database"`
	LLMAvailable bool   `json:"llm_available"`
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:       "ok",
		Database:     "ok",
		LLMAvailable: h.llm.Available(),
	}
	if cfg := ctxkeys.Config(r.Context()); cfg != nil {
		resp.App = cfg.AppName
		resp.Environment = cfg.AppEnv
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		slog.Error("health check database ping failed", "error", err)
		resp.Status = "degraded"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, resp)
}

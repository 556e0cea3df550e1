package handlers

import (
	"context"
	"net/http"
	"time"

	httperrors "github.com/Taniishaaa/censor-pro/internal/transport/http/errors"
)

const healthProbeTimeout = 2 * time.Second

// Pinger reports whether one backing dependency answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	postgres Pinger
	redis    Pinger
}

type healthResponse struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

func NewHealthHandler(postgres, redis Pinger) *HealthHandler {
	return &HealthHandler{
		postgres: postgres,
		redis:    redis,
	}
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
	defer cancel()

	resp := healthResponse{
		Status:   "ok",
		Postgres: probe(ctx, h.postgres),
		Redis:    probe(ctx, h.redis),
	}

	status := http.StatusOK
	if resp.Postgres == "down" {
		resp.Status = "degraded"
		status = http.StatusServiceUnavailable
	}

	httperrors.Write(w, status, resp)
}

func probe(ctx context.Context, p Pinger) string {
	if p == nil {
		return "disabled"
	}
	if err := p.Ping(ctx); err != nil {
		return "down"
	}
	return "up"
}

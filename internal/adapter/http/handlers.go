package http

import (
	"context"
	"net/http"
	"time"

	"github.com/Strob0t/ProposalForge/internal/port/messagequeue"
	"github.com/Strob0t/ProposalForge/internal/service"
)

const healthTimeout = 2 * time.Second

// Pinger reports whether the database answers. *pgxpool.Pool implements it.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Proposals   *service.ProposalService
	Preferences *service.PreferencesService
	Adjustments *service.AdjustmentService
	DB          Pinger
	Queue       messagequeue.Queue // nil when NATS is disabled
}

type healthStatus struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres"`
	NATS     string `json:"nats"`
}

// Health handles GET /health. The service is degraded without postgres;
// NATS only carries best-effort traffic and never fails the probe.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	st := healthStatus{Status: "ok", Postgres: "up", NATS: "disabled"}
	if h.DB == nil || h.DB.Ping(ctx) != nil {
		st.Status, st.Postgres = "degraded", "down"
	}
	if h.Queue != nil {
		st.NATS = "up"
		if !h.Queue.IsConnected() {
			st.NATS = "down"
		}
	}

	status := http.StatusOK
	if st.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}

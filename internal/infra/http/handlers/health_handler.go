package handlers

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"
)

const (
	depHealthy       = "healthy"
	depNotConfigured = "not configured"
)

// Broker reports whether the message broker connection is gone.
type Broker interface {
	IsClosed() bool
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// dependencyCheck is nil for a dependency the service runs without.
type dependencyCheck struct {
	name  string
	check func(ctx context.Context) error
}

type HealthHandler struct {
	checks  []dependencyCheck
	version string
	started time.Time
}

type HealthResponse struct {
	Status       string            `json:"status"`
	Version      string            `json:"version"`
	Uptime       string            `json:"uptime"`
	Dependencies map[string]string `json:"dependencies"`
}

// NewHealthHandler takes an optional broker and cache. A nil value is
// reported as not configured and never degrades the status.
func NewHealthHandler(db *sql.DB, broker Broker, cache Pinger, version string) *HealthHandler {
	h := &HealthHandler{version: version, started: time.Now()}

	database := dependencyCheck{name: "database"}
	if db != nil {
		database.check = db.PingContext
	}
	rabbit := dependencyCheck{name: "rabbitmq"}
	if broker != nil {
		rabbit.check = func(context.Context) error {
			if broker.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}
	}
	redis := dependencyCheck{name: "redis"}
	if cache != nil {
		redis.check = cache.Ping
	}

	h.checks = []dependencyCheck{database, rabbit, redis}
	return h
}

func (h *HealthHandler) Handle(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	res := HealthResponse{
		Status:       "healthy",
		Version:      h.version,
		Uptime:       time.Since(h.started).Round(time.Second).String(),
		Dependencies: make(map[string]string, len(h.checks)),
	}
	for _, c := range h.checks {
		if c.check == nil {
			res.Dependencies[c.name] = depNotConfigured
			continue
		}
		if err := c.check(ctx); err != nil {
			res.Dependencies[c.name] = "unhealthy: " + err.Error()
			res.Status = "degraded"
			continue
		}
		res.Dependencies[c.name] = depHealthy
	}

	status := http.StatusOK
	if res.Status == "degraded" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, res)
}

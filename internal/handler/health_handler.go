package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/primepath/primepath-backend/internal/service"
	"github.com/redis/go-redis/v9"
)

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	registry *service.Registry
	db       *pgxpool.Pool
	rdb      *redis.Client
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(registry *service.Registry, db *pgxpool.Pool, rdb *redis.Client) *HealthHandler {
	return &HealthHandler{registry: registry, db: db, rdb: rdb}
}

// Health godoc
// GET /health
// Lists the registered services and OAuth providers and pings PostgreSQL and Redis.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	checks := gin.H{"postgres": "ok", "redis": "ok"}
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		checks["postgres"] = err.Error()
		status = http.StatusServiceUnavailable
	}
	if err := h.rdb.Ping(ctx).Err(); err != nil {
		checks["redis"] = err.Error()
		status = http.StatusServiceUnavailable
	}

	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	body := h.serviceReport()
	body["status"] = state
	body["checks"] = checks
	c.JSON(status, body)
}

type providerLister interface {
	Providers() []string
}

// serviceReport lists the registered services and the sign-in providers the
// oauth service was configured with.
func (h *HealthHandler) serviceReport() gin.H {
	providers := []string{}
	if oauth, ok := service.LookupAs[providerLister](h.registry, "oauth"); ok {
		providers = oauth.Providers()
	}
	return gin.H{
		"services":        h.registry.Names(),
		"oauth_providers": providers,
	}
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const serviceName = "commerce-api"

type HealthHandler struct {
	dbPool      *pgxpool.Pool
	redisClient *redis.Client
	amqpConn    *amqp.Connection
}

func NewHealthHandler(dbPool *pgxpool.Pool, redisClient *redis.Client, amqpConn *amqp.Connection) *HealthHandler {
	return &HealthHandler{dbPool: dbPool, redisClient: redisClient, amqpConn: amqpConn}
}

// Healthz reports liveness only: the process is up and serving.
func (h *HealthHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"service": serviceName, "status": "ok"})
}

// Readyz reports whether every backing dependency is reachable. All
// checks run even after the first failure so the response names each
// broken dependency, not just the first one.
func (h *HealthHandler) Readyz(c *gin.Context) {
	ctx := c.Request.Context()

	checks := []struct {
		name string
		ping func(context.Context) error
	}{
		{"postgres", h.dbPool.Ping},
		{"redis", func(ctx context.Context) error { return h.redisClient.Ping(ctx).Err() }},
		{"rabbitmq", func(context.Context) error {
			if h.amqpConn.IsClosed() {
				return amqp.ErrClosed
			}
			return nil
		}},
	}

	resp := gin.H{"service": serviceName, "status": "ok"}
	healthy := true
	for _, check := range checks {
		if err := check.ping(ctx); err != nil {
			resp[check.name] = "unavailable"
			healthy = false
		} else {
			resp[check.name] = "connected"
		}
	}

	if !healthy {
		resp["status"] = "error"
		c.JSON(http.StatusServiceUnavailable, resp)
		return
	}
	c.JSON(http.StatusOK, resp)
}

package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const serviceName = "tradenet"

// Health reports per-dependency readiness. The node and product APIs only
// need Postgres; Redis backs the public factory cache, so a Redis outage
// degrades the service rather than taking it down.
func Health(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		checks := gin.H{
			"postgres": checkPostgres(ctx, db),
			"redis":    checkRedis(ctx, rdb),
		}

		status := http.StatusOK
		state := "ok"
		if checks["postgres"] != "up" {
			status = http.StatusServiceUnavailable
			state = "down"
		} else if checks["redis"] != "up" {
			state = "degraded"
		}

		c.JSON(status, gin.H{
			"service": serviceName,
			"status":  state,
			"checks":  checks,
		})
	}
}

func checkPostgres(ctx context.Context, db *gorm.DB) string {
	sqlDB, err := db.DB()
	if err != nil {
		return "down"
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return "down"
	}
	return "up"
}

func checkRedis(ctx context.Context, rdb *redis.Client) string {
	if rdb == nil {
		return "disabled"
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		return "down"
	}
	return "up"
}

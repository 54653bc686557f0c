package handler

import (
	"net/http"

	"platepos/internal/infra"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Health reports liveness plus the status of the backing services. Degraded
// dependencies are reported but do not fail the endpoint — the process is
// still serving.
func Health(db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := gin.H{"status": "ok"}

		dbStatus := "ok"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			dbStatus = "down"
		}
		status["database"] = dbStatus

		redisStatus := "ok"
		if err := rdb.Ping(c.Request.Context()).Err(); err != nil {
			redisStatus = "down"
		}
		status["redis"] = redisStatus

		if mailer != nil {
			status["smtp_breaker"] = mailer.BreakerState().String()
		}

		c.JSON(http.StatusOK, status)
	}
}

package controllers

import (
	"github.com/gofiber/fiber/v2"
	dbservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/db"
	redisservice "github.com/mynaparrot/plugnmeet-meetings/pkg/services/redis"
	"github.com/sirupsen/logrus"
)

// HealthCheckController holds dependencies for the health check handler.
type HealthCheckController struct {
	ds     *dbservice.DatabaseService
	rs     *redisservice.RedisService
	logger *logrus.Entry
}

// NewHealthCheckController creates a new HealthCheckController.
func NewHealthCheckController(ds *dbservice.DatabaseService, rs *redisservice.RedisService, logger *logrus.Logger) *HealthCheckController {
	return &HealthCheckController{
		ds:     ds,
		rs:     rs,
		logger: logger.WithField("controller", "health_check"),
	}
}

// HandleHealthCheck reports unhealthy when either the database or redis
// cannot be reached.
func (hc *HealthCheckController) HandleHealthCheck(c *fiber.Ctx) error {
	if err := hc.ds.Ping(); err != nil {
		hc.logger.WithError(err).Errorln("database ping failed")
		return c.Status(fiber.StatusServiceUnavailable).SendString("database unavailable")
	}
	if err := hc.rs.Ping(c.UserContext()); err != nil {
		hc.logger.WithError(err).Errorln("redis ping failed")
		return c.Status(fiber.StatusServiceUnavailable).SendString("redis unavailable")
	}

	return c.Status(fiber.StatusOK).SendString("Healthy")
}

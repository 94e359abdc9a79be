package handler

import (
	"context"
	"time"

	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/dto"
	"quiz-assessment/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthCheck godoc
// @Summary Liveness probe
// @Description Reports "degraded" when the cache cannot be reached; the API still serves requests without it
// @Tags health
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Router /health [get]
func HealthCheck(cache domain.Cache) fiber.Handler {
	return func(c *fiber.Ctx) error {
		status := "ok"
		if cache != nil {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()
			if err := cache.Ping(ctx); err != nil {
				logger.Get().Warn("Health check: cache unreachable", zap.Error(err))
				status = "degraded"
			}
		}
		return c.JSON(dto.HealthResponse{Status: status})
	}
}

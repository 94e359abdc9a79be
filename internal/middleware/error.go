package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"quiz-assessment/internal/domain"
	"quiz-assessment/internal/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// rateLimitCode is the upstream code that is passed through as 429.
const rateLimitCode = "RATE_LIMIT_EXCEEDED"

// ErrorResponse represents the standard error response structure
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler is a centralized error handling middleware
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		log := logger.Get()

		var domainErr *domain.DomainError
		if errors.As(err, &domainErr) {
			statusCode := StatusFor(domainErr)
			response := ErrorResponse{
				Code:    string(domainErr.Code),
				Message: domainErr.Message,
				Status:  statusCode,
			}
			if len(domainErr.Context) > 0 {
				response.Details = make(map[string]any, len(domainErr.Context))
				for k, v := range domainErr.Context {
					response.Details[k] = v
				}
			}

			if upErr, ok := domain.AsUpstreamError(domainErr); ok {
				if response.Details == nil {
					response.Details = make(map[string]any)
				}
				response.Details["service"] = string(upErr.Service)
				response.Details["kind"] = string(upErr.Kind)
				if upErr.Code != "" {
					response.Details["upstreamCode"] = upErr.Code
				}
				if upErr.Message != "" {
					response.Details["upstreamMessage"] = upErr.Message
				}
				if upErr.RetryAfter > 0 {
					seconds := int(upErr.RetryAfter.Seconds())
					response.Details["retryAfter"] = seconds
					c.Set(fiber.HeaderRetryAfter, strconv.Itoa(seconds))
				}
			}

			fields := []zap.Field{
				zap.String("code", string(domainErr.Code)),
				zap.String("message", domainErr.Message),
				zap.Int("status", statusCode),
				zap.String("path", c.Path()),
				zap.Error(domainErr.Err),
			}
			if statusCode >= http.StatusInternalServerError {
				log.Error("Domain error occurred", fields...)
			} else {
				log.Warn("Domain error occurred", fields...)
			}

			return c.Status(statusCode).JSON(response)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			log.Warn("Fiber error occurred",
				zap.Int("code", fiberErr.Code),
				zap.String("message", fiberErr.Message),
			)
			return c.Status(fiberErr.Code).JSON(ErrorResponse{
				Code:    "HTTP_ERROR",
				Message: fiberErr.Message,
				Status:  fiberErr.Code,
			})
		}

		log.Error("Unknown error occurred",
			zap.String("path", c.Path()),
			zap.Error(err),
		)
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Code:    string(domain.ErrInternal),
			Message: "Internal server error",
			Status:  http.StatusInternalServerError,
		})
	}
}

// StatusFor maps a domain error to its HTTP status code.
func StatusFor(err *domain.DomainError) int {
	switch err.Code {
	case domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrAccessDenied:
		return http.StatusForbidden
	case domain.ErrNotFound:
		return http.StatusNotFound
	case domain.ErrConflict:
		return http.StatusConflict
	case domain.ErrUpstream:
		upErr, ok := domain.AsUpstreamError(err)
		if !ok {
			return http.StatusBadGateway
		}
		switch upErr.Kind {
		case domain.UpstreamUnavailable:
			return http.StatusServiceUnavailable
		case domain.UpstreamTimeout:
			return http.StatusGatewayTimeout
		case domain.UpstreamRejected:
			if upErr.Code == rateLimitCode {
				return http.StatusTooManyRequests
			}
			return http.StatusBadGateway
		default:
			return http.StatusBadGateway
		}
	default:
		return http.StatusInternalServerError
	}
}

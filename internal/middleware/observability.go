package middleware

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/kuis-go-api/internal/observability"
)

// Observability records request metrics and emits one structured log line per
// API request. Non-API routes such as /metrics are skipped to keep the
// cardinality of the route label bounded.
func Observability(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		path := c.Path()
		if !strings.HasPrefix(path, "/api") {
			return err
		}

		status := c.Response().StatusCode()
		if err != nil {
			if fiberErr, ok := err.(*fiber.Error); ok {
				status = fiberErr.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		route := routeTemplate(c)
		method := c.Method()
		elapsed := time.Since(start)

		observability.APIRequests().WithLabelValues(method, route, fmt.Sprintf("%d", status)).Inc()
		observability.APILatency().WithLabelValues(method, route).Observe(elapsed.Seconds())

		event := log.Info()
		if status >= fiber.StatusInternalServerError {
			event = log.Error()
		} else if status >= fiber.StatusBadRequest {
			event = log.Warn()
		}

		event.
			Str("method", method).
			Str("route", route).
			Int("status", status).
			Dur("latency", elapsed).
			Str("latency_bucket", latencyBucket(elapsed)).
			Str("correlation_id", GetCorrelationID(c)).
			Msg("api request")

		return err
	}
}

// routeTemplate prefers the registered route pattern over the raw path so
// /api/v2/quizzes/42 and /api/v2/quizzes/43 share a metric series.
func routeTemplate(c *fiber.Ctx) string {
	if route := c.Route(); route != nil && route.Path != "" && route.Path != "/" {
		return route.Path
	}
	return c.Path()
}

func latencyBucket(d time.Duration) string {
	switch {
	case d < 50*time.Millisecond:
		return "fast"
	case d < 250*time.Millisecond:
		return "normal"
	case d < time.Second:
		return "slow"
	default:
		return "very_slow"
	}
}

package server

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const probeTimeout = 3 * time.Second

// dependency is one backing service the readiness probe pings.
// An optional dependency that is down degrades the server but keeps it ready.
type dependency struct {
	name     string
	optional bool
	ping     func(context.Context) error // nil when not configured
}

func (s *Server) dependencies() []dependency {
	deps := []dependency{{
		name: "database",
		ping: func(ctx context.Context) error {
			sqlDB, err := s.db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	redisDep := dependency{name: "redis", optional: true}
	if s.redis != nil {
		redisDep.ping = func(ctx context.Context) error { return s.redis.Ping(ctx).Err() }
	}
	return append(deps, redisDep)
}

// LivenessCheck handles GET /health/live.
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "up", "time": time.Now().UTC()})
}

// ReadinessCheck handles GET /health/ready. Only required dependencies decide readiness;
// Redis is optional.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), probeTimeout)
	defer cancel()

	checks := fiber.Map{}
	overall, code := "healthy", fiber.StatusOK
	for _, dep := range s.dependencies() {
		state := "healthy"
		switch {
		case dep.ping == nil:
			state = "disabled"
		case dep.ping(ctx) != nil:
			state = "unhealthy"
			if !dep.optional {
				overall, code = "unhealthy", fiber.StatusServiceUnavailable
			} else if overall == "healthy" {
				overall = "degraded"
			}
		}
		checks[dep.name] = state
	}

	return c.Status(code).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
		"time":   time.Now().UTC(),
	})
}

package app

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/adeilh/go-rakh-starter/httpx"
)

type healthStatus struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// health reports liveness plus the reachability of Postgres and Redis.
func (s *State) health(c httpx.Context) error {
	ctx := c.Request().Context()
	out := healthStatus{Status: "ok", Checks: map[string]string{}}
	for name, p := range map[string]Pinger{"postgres": s.db, "redis": s.cachePing} {
		if p == nil {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", zap.String("dependency", name), zap.Error(err))
			out.Status = "degraded"
			out.Checks[name] = "unavailable"
			continue
		}
		out.Checks[name] = "ok"
	}

	code := http.StatusOK
	if out.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return httpx.OK(out).WithMessage(out.Status).JSON(c, code)
}

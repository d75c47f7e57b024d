package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

func (s *Server) registerHealthRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "healthCheck",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns server health status with component checks",
		Tags:        []string{"Health"},
	}, s.handleHealthCheck)
}

// Component statuses.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, unhealthy or disabled"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(ctx context.Context, _ *struct{}) (*HealthOutput, error) {
	components := map[string]ComponentHealth{
		"cache":     s.checkCache(ctx),
		"tag_index": s.checkTagIndex(),
		"runner":    s.checkRunner(),
	}

	overall := statusHealthy
	for _, c := range components {
		switch c.Status {
		case statusUnhealthy:
			overall = statusUnhealthy
		case statusDegraded:
			if overall == statusHealthy {
				overall = statusDegraded
			}
		}
	}

	return &HealthOutput{
		Body: HealthResponse{
			Status:     overall,
			Components: components,
		},
	}, nil
}

// checkCache verifies the cache index answers.
func (s *Server) checkCache(ctx context.Context) ComponentHealth {
	if s.services.Cache == nil {
		return ComponentHealth{Status: statusDegraded, Message: "cache not configured"}
	}

	start := time.Now()
	err := s.services.Cache.Ping(ctx)
	latency := time.Since(start)

	if err != nil {
		s.logger.Warn("cache health check failed", "error", err)
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "cache index read failed",
		}
	}
	return ComponentHealth{Status: statusHealthy, Latency: latency.String()}
}

// checkTagIndex reports the tag index document count.
func (s *Server) checkTagIndex() ComponentHealth {
	if s.services.Tags == nil {
		return ComponentHealth{Status: statusDisabled}
	}

	count, err := s.services.Tags.DocumentCount()
	if err != nil {
		return ComponentHealth{Status: statusDegraded, Message: "tag index unreadable"}
	}
	return ComponentHealth{Status: statusHealthy, Message: strconv.FormatUint(count, 10) + " works indexed"}
}

func (s *Server) checkRunner() ComponentHealth {
	if s.services.Runner == nil {
		return ComponentHealth{Status: statusDisabled}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Message: strconv.Itoa(s.services.Runner.Running()) + " jobs running",
	}
}

package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookwise/bookwise-server/internal/service"
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
)

// ComponentHealth describes the health of a single component.
type ComponentHealth struct {
	Status  string `json:"status" doc:"Component status: healthy, degraded, or unhealthy"`
	Latency string `json:"latency,omitempty" doc:"Response time for this component"`
	Message string `json:"message,omitempty" doc:"Additional status information"`
}

// HealthResponse contains health check data in API responses.
type HealthResponse struct {
	Status     string                     `json:"status" doc:"Overall status: healthy, degraded, or unhealthy"`
	SnapshotID string                     `json:"snapshot_id,omitempty" doc:"Snapshot currently serving queries"`
	Components map[string]ComponentHealth `json:"components" doc:"Individual component statuses"`
}

// HealthOutput wraps the health response for Huma.
type HealthOutput struct {
	Body HealthResponse
}

func (s *Server) handleHealthCheck(_ context.Context, _ *struct{}) (*HealthOutput, error) {
	st := s.catalog.Status()
	components := map[string]ComponentHealth{
		"catalog":    checkCatalog(st),
		"last_build": checkLastBuild(st),
		"suggest":    s.checkSuggestIndex(),
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
			SnapshotID: st.SnapshotID,
			Components: components,
		},
	}, nil
}

// checkCatalog reports whether a snapshot is serving.
func checkCatalog(st service.Status) ComponentHealth {
	if !st.Ready {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Message: "no snapshot built yet",
		}
	}
	return ComponentHealth{
		Status:  statusHealthy,
		Message: strconv.Itoa(st.Books) + " books",
	}
}

// checkLastBuild reports a failed rebuild. The previous snapshot keeps
// serving, so a failure only degrades.
func checkLastBuild(st service.Status) ComponentHealth {
	switch {
	case st.LastAttempt.IsZero():
		return ComponentHealth{Status: statusDegraded, Message: "no build attempted"}
	case st.LastError != "":
		return ComponentHealth{Status: statusDegraded, Message: st.LastError}
	default:
		return ComponentHealth{Status: statusHealthy, Message: "built " + st.BuiltAt.UTC().Format(time.RFC3339)}
	}
}

// checkSuggestIndex verifies the Bleve title index answers.
func (s *Server) checkSuggestIndex() ComponentHealth {
	snap, err := s.catalog.Snapshot()
	if err != nil {
		return ComponentHealth{
			Status:  statusDegraded,
			Message: "title index not built",
		}
	}

	start := time.Now()
	docCount, err := snap.TitleIndex().DocumentCount()
	latency := time.Since(start)

	if err != nil {
		return ComponentHealth{
			Status:  statusUnhealthy,
			Latency: latency.String(),
			Message: "title index unreachable",
		}
	}

	// Index is accessible but might be empty.
	if docCount == 0 {
		return ComponentHealth{
			Status:  statusDegraded,
			Latency: latency.String(),
			Message: "title index empty",
		}
	}

	return ComponentHealth{
		Status:  statusHealthy,
		Latency: latency.String(),
	}
}

package service

import (
	"context"
	"sort"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/domain"
	"github.com/boddenberg/hub-avance-go/internal/port"

	"golang.org/x/sync/errgroup"
)

// HealthService probes the external dependencies for /readyz.
type HealthService struct {
	probes  map[string]port.Pinger
	timeout time.Duration
}

// NewHealthService creates a health service. Nil probes are skipped so
// unconfigured dependencies simply do not appear.
func NewHealthService(probes map[string]port.Pinger, timeout time.Duration) *HealthService {
	active := make(map[string]port.Pinger, len(probes))
	for name, p := range probes {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthService{probes: active, timeout: timeout}
}

// Check pings every dependency concurrently. Status is "healthy" when all
// answer and "degraded" otherwise; a probe failure never aborts the others.
func (s *HealthService) Check(ctx context.Context) *domain.HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	names := make([]string, 0, len(s.probes))
	for name := range s.probes {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]domain.ServiceHealth, len(names))
	var g errgroup.Group
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			start := time.Now()
			err := s.probes[name].Ping(ctx)
			res := domain.ServiceHealth{
				Name:      name,
				Status:    "up",
				LatencyMs: time.Since(start).Milliseconds(),
			}
			if err != nil {
				res.Status = "down"
				res.Error = domain.Truncate(err.Error(), 200)
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	status := &domain.HealthStatus{Status: "healthy", Services: results}
	for _, r := range results {
		if r.Status != "up" {
			status.Status = "degraded"
			break
		}
	}
	return status
}

package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/hub-avance-go/internal/port"
	"github.com/boddenberg/hub-avance-go/internal/service"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	svc := service.NewHealthService(map[string]port.Pinger{
		"supabase": pingFunc(func(context.Context) error { return nil }),
		"ledger":   pingFunc(func(context.Context) error { return errors.New("unreachable") }),
		"absent":   nil,
	}, time.Second)

	status := svc.Check(context.Background())

	if status.Status != "degraded" {
		t.Errorf("expected degraded, got %s", status.Status)
	}
	if len(status.Services) != 2 {
		t.Fatalf("expected 2 probed services, got %d", len(status.Services))
	}
	// sorted by name
	if status.Services[0].Name != "ledger" || status.Services[0].Status != "down" || status.Services[0].Error == "" {
		t.Errorf("unexpected ledger result %+v", status.Services[0])
	}
	if status.Services[1].Name != "supabase" || status.Services[1].Status != "up" {
		t.Errorf("unexpected supabase result %+v", status.Services[1])
	}
}

func TestHealthCheck_TimeoutBoundsSlowProbe(t *testing.T) {
	svc := service.NewHealthService(map[string]port.Pinger{
		"slow": pingFunc(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}),
	}, 20*time.Millisecond)

	start := time.Now()
	status := svc.Check(context.Background())
	if time.Since(start) > time.Second {
		t.Error("probe was not bounded by the timeout")
	}
	if status.Status != "degraded" {
		t.Errorf("expected degraded, got %s", status.Status)
	}
}

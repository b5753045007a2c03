package services

import (
	"context"
	"testing"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
)

func TestHealthReportDerivesStatus(t *testing.T) {
	now := time.Date(2026, 8, 1, 7, 0, 0, 0, time.UTC)

	cases := []struct {
		name   string
		checks map[string]domain.SystemHealthCheck
		want   domain.HealthStatus
	}{
		{"all ok", map[string]domain.SystemHealthCheck{
			"firestore": {Status: domain.HealthStatusOK},
			"pubsub":    {Status: domain.HealthStatusOK},
		}, domain.HealthStatusOK},
		{"degraded wins over ok", map[string]domain.SystemHealthCheck{
			"firestore": {Status: domain.HealthStatusOK},
			"pubsub":    {Status: domain.HealthStatusDegraded},
		}, domain.HealthStatusDegraded},
		{"error wins over degraded", map[string]domain.SystemHealthCheck{
			"firestore": {Status: domain.HealthStatusError},
			"pubsub":    {Status: domain.HealthStatusDegraded},
		}, domain.HealthStatusError},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, err := NewSystemService(SystemServiceDeps{
				Health: &stubHealthRepository{
					CollectFn: func(ctx context.Context) (domain.SystemHealthReport, error) {
						return domain.SystemHealthReport{Checks: tc.checks}, nil
					},
				},
				Users: &stubUserRepository{},
				Clock: func() time.Time { return now },
			})
			if err != nil {
				t.Fatalf("new system service: %v", err)
			}

			report, err := svc.HealthReport(context.Background())
			if err != nil {
				t.Fatalf("health report: %v", err)
			}
			if report.Status != tc.want {
				t.Fatalf("expected status %s, got %s", tc.want, report.Status)
			}
			if !report.GeneratedAt.Equal(now) {
				t.Fatalf("expected generated at %s, got %s", now, report.GeneratedAt)
			}
		})
	}
}

func TestUserCountDelegates(t *testing.T) {
	svc, err := NewSystemService(SystemServiceDeps{
		Health: &stubHealthRepository{},
		Users: &stubUserRepository{
			CountFn: func(ctx context.Context) (int64, error) {
				return 42, nil
			},
		},
	})
	if err != nil {
		t.Fatalf("new system service: %v", err)
	}

	count, err := svc.UserCount(context.Background())
	if err != nil {
		t.Fatalf("user count: %v", err)
	}
	if count != 42 {
		t.Fatalf("expected 42 users, got %d", count)
	}
}

package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
)

func newInternalRouter(h *InternalHandlers) chi.Router {
	router := chi.NewRouter()
	router.Route("/internal", h.Routes)
	return router
}

func TestInternalHandlersUserCount(t *testing.T) {
	system := &stubSystemService{
		countFunc: func(context.Context) (int64, error) {
			return 42, nil
		},
	}

	handler := NewInternalHandlers(system, &stubAuditLogService{})
	router := newInternalRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/internal/stats/users", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp userCountPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 42 {
		t.Fatalf("expected count 42, got %d", resp.Count)
	}
}

func TestInternalHandlersUserCountUnavailable(t *testing.T) {
	system := &stubSystemService{
		countFunc: func(context.Context) (int64, error) {
			return 0, errStubUnavailable
		},
	}

	handler := NewInternalHandlers(system, &stubAuditLogService{})
	router := newInternalRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/internal/stats/users", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}

func TestInternalHandlersAuditEntries(t *testing.T) {
	now := time.Date(2025, 4, 6, 15, 0, 0, 0, time.UTC)
	audits := &stubAuditLogService{
		listFunc: func(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error) {
			if targetRef != "lists/list-1" {
				t.Fatalf("unexpected target %q", targetRef)
			}
			if limit != 10 {
				t.Fatalf("unexpected limit %d", limit)
			}
			return []domain.AuditLogEntry{
				{
					ID:        "audit-1",
					Actor:     "users/user-1",
					Action:    "list.update",
					TargetRef: targetRef,
					Metadata:  map[string]string{"title": "Birthday"},
					CreatedAt: now,
				},
			}, nil
		},
	}

	handler := NewInternalHandlers(&stubSystemService{}, audits)
	router := newInternalRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/internal/audit-entries?target=lists/list-1&pageSize=10", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var resp []auditEntryPayload
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Action != "list.update" {
		t.Fatalf("unexpected payload %#v", resp)
	}
}

func TestInternalHandlersAuditEntriesRequireTarget(t *testing.T) {
	handler := NewInternalHandlers(&stubSystemService{}, &stubAuditLogService{})
	router := newInternalRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/internal/audit-entries", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestInternalHandlersAuditEntriesRejectBadPageSize(t *testing.T) {
	handler := NewInternalHandlers(&stubSystemService{}, &stubAuditLogService{})
	router := newInternalRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/internal/audit-entries?target=lists/list-1&pageSize=zero", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestInternalHandlersAuditEntriesCapPageSize(t *testing.T) {
	audits := &stubAuditLogService{
		listFunc: func(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error) {
			if limit != maxAuditEntriesLimit {
				t.Fatalf("expected limit capped at %d, got %d", maxAuditEntriesLimit, limit)
			}
			return nil, nil
		},
	}

	handler := NewInternalHandlers(&stubSystemService{}, audits)
	router := newInternalRouter(handler)

	req := httptest.NewRequest(http.MethodGet, "/internal/audit-entries?target=lists/list-1&pageSize=5000", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
}

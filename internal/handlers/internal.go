package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/edmw/wishlist-sub001/internal/platform/httpx"
	"github.com/edmw/wishlist-sub001/internal/platform/pagination"
	"github.com/edmw/wishlist-sub001/internal/services"
)

const (
	defaultAuditEntriesLimit = 50
	maxAuditEntriesLimit     = 200
)

// InternalHandlers serves the service-to-service surface. Authentication is
// enforced by the OIDC middleware installed on the internal route group.
type InternalHandlers struct {
	system services.SystemService
	audits services.AuditLogService
}

// NewInternalHandlers constructs the internal statistics handlers.
func NewInternalHandlers(system services.SystemService, audits services.AuditLogService) *InternalHandlers {
	return &InternalHandlers{system: system, audits: audits}
}

// Routes wires the internal endpoints onto the provided router.
func (h *InternalHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/stats/users", h.userCount)
	r.Get("/audit-entries", h.auditEntries)
}

type userCountPayload struct {
	Count int64 `json:"count"`
}

func (h *InternalHandlers) userCount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	count, err := h.system.UserCount(ctx)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	writeJSON(w, http.StatusOK, userCountPayload{Count: count})
}

type auditEntryPayload struct {
	ID        string            `json:"id"`
	Actor     string            `json:"actor"`
	Action    string            `json:"action"`
	TargetRef string            `json:"target_ref"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	CreatedAt string            `json:"created_at"`
}

func (h *InternalHandlers) auditEntries(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	targetRef := strings.TrimSpace(r.URL.Query().Get("target"))
	if targetRef == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "target is required", http.StatusBadRequest))
		return
	}

	params, err := pagination.FromRequest(r, pagination.Options{
		DefaultPageSize: defaultAuditEntriesLimit,
		MaxPageSize:     maxAuditEntriesLimit,
	})
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	entries, err := h.audits.ListByTarget(ctx, targetRef, params.PageSize)
	if err != nil {
		writeInfrastructureError(ctx, w, err)
		return
	}

	payload := make([]auditEntryPayload, 0, len(entries))
	for _, entry := range entries {
		payload = append(payload, auditEntryPayload{
			ID:        entry.ID.String(),
			Actor:     entry.Actor,
			Action:    entry.Action,
			TargetRef: entry.TargetRef,
			Metadata:  entry.Metadata,
			CreatedAt: formatTime(entry.CreatedAt),
		})
	}
	writeJSON(w, http.StatusOK, payload)
}

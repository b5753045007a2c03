package services

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	"github.com/edmw/wishlist-sub001/internal/platform/textutil"
	"github.com/edmw/wishlist-sub001/internal/repositories"
)

// AuditLogServiceDeps bundles constructor inputs for the audit writer service.
type AuditLogServiceDeps struct {
	Repository repositories.AuditLogRepository
	Clock      func() time.Time
	Log        Logger
}

type auditLogService struct {
	repo  repositories.AuditLogRepository
	clock func() time.Time
	log   Logger
}

// NewAuditLogService creates an audit log writer backed by the supplied repository.
func NewAuditLogService(deps AuditLogServiceDeps) (AuditLogService, error) {
	if deps.Repository == nil {
		return nil, errors.New("audit log service: repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	log := deps.Log
	if log == nil {
		log = noopLogger
	}

	return &auditLogService{
		repo:  deps.Repository,
		clock: func() time.Time { return clock().UTC() },
		log:   log,
	}, nil
}

// Record persists an audit log entry. Repository failures are logged but do
// not bubble up to callers to avoid interrupting the primary mutation flow.
func (s *auditLogService) Record(ctx context.Context, spec RecordAuditSpecification) {
	entry := domain.AuditLogEntry{
		ID:        domain.NewID(),
		Actor:     strings.TrimSpace(spec.Actor),
		Action:    strings.TrimSpace(spec.Action),
		TargetRef: strings.TrimSpace(spec.TargetRef),
		Metadata:  textutil.NormalizeStringMap(spec.Metadata),
		CreatedAt: s.clock(),
	}
	if entry.Action == "" || entry.TargetRef == "" {
		return
	}
	if err := s.repo.Append(ctx, entry); err != nil {
		s.log(ctx, "audit log append failed", map[string]any{
			"action":    entry.Action,
			"targetRef": entry.TargetRef,
			"error":     err.Error(),
		})
	}
}

// ListByTarget retrieves the most recent entries for one target reference.
func (s *auditLogService) ListByTarget(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error) {
	targetRef = strings.TrimSpace(targetRef)
	if targetRef == "" {
		return nil, errors.New("audit log service: target ref is required")
	}
	if limit <= 0 {
		limit = 50
	}
	return s.repo.ListByTarget(ctx, targetRef, limit)
}

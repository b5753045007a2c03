package firestore

import (
	"context"

	"cloud.google.com/go/firestore"

	domain "github.com/edmw/wishlist-sub001/internal/domain"
	pfirestore "github.com/edmw/wishlist-sub001/internal/platform/firestore"
)

const auditLogsCollection = "auditLogs"

// AuditLogRepository persists append-only audit trail entries.
type AuditLogRepository struct {
	entries *pfirestore.BaseRepository[auditLogDocument]
}

// NewAuditLogRepository constructs a Firestore backed audit log repository.
func NewAuditLogRepository(provider *pfirestore.Provider) *AuditLogRepository {
	return &AuditLogRepository{
		entries: pfirestore.NewBaseRepository[auditLogDocument](provider, auditLogsCollection, nil, nil),
	}
}

func (r *AuditLogRepository) Append(ctx context.Context, entry domain.AuditLogEntry) error {
	_, err := r.entries.Create(ctx, entry.ID.String(), encodeAuditLogEntry(entry))
	return err
}

func (r *AuditLogRepository) ListByTarget(ctx context.Context, targetRef string, limit int) ([]domain.AuditLogEntry, error) {
	docs, err := r.entries.Query(ctx, func(query firestore.Query) firestore.Query {
		q := query.Where("targetRef", "==", targetRef).OrderBy("createdAt", firestore.Desc)
		if limit > 0 {
			q = q.Limit(limit)
		}
		return q
	})
	if err != nil {
		return nil, err
	}
	entries := make([]domain.AuditLogEntry, 0, len(docs))
	for _, doc := range docs {
		entries = append(entries, decodeAuditLogEntry(doc.ID, doc.Data))
	}
	return entries, nil
}

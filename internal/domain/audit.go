package domain

import "time"

// AuditLogEntry records a state-changing action for traceability. Entries
// are append-only.
type AuditLogEntry struct {
	ID        ID
	Actor     string
	Action    string
	TargetRef string
	Metadata  map[string]string
	CreatedAt time.Time
}

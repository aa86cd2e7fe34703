package ports

import (
	"context"

	"github.com/99minutos/auth-system/internal/core/domain"
)

// AuditRepository persists authentication events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditRecorder accepts events for asynchronous persistence. Record must
// not block the calling request.
type AuditRecorder interface {
	Record(event domain.AuthEvent)
}

// AuditService processes a single audit event.
type AuditService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}

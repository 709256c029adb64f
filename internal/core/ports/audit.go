package ports

import (
	"context"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

// AuditStore is append-only: records can be inserted and read, never changed.
type AuditStore interface {
	Insert(ctx context.Context, rec domain.AuditRecord) (domain.AuditRecord, error)
	List(ctx context.Context, page, pageSize int) (domain.AuditPage, error)
	Get(ctx context.Context, id int64) (domain.AuditRecord, error)
}

// RecordNotifier is told about every record after it has been stored.
type RecordNotifier interface {
	Notify(ctx context.Context, summary domain.AuditSummary) error
}

// MutationSource delivers host mutation events for the given models.
type MutationSource interface {
	Subscribe(models []string, handler func(domain.MutationEvent))
}

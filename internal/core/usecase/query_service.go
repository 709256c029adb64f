package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
	"github.com/atvirokodosprendimai/audito/internal/core/ports"
	"github.com/atvirokodosprendimai/audito/internal/core/sanitize"
)

// QueryService serves the read side of the audit trail.
type QueryService struct {
	store ports.AuditStore
}

func NewQueryService(store ports.AuditStore) *QueryService {
	return &QueryService{store: store}
}

// ListSummaries returns one page of record summaries, most recent first.
// Pages below 1 are treated as the first page.
func (s *QueryService) ListSummaries(ctx context.Context, page int) (domain.SummaryPage, error) {
	if page < 1 {
		page = 1
	}
	result, err := s.store.List(ctx, page, domain.PageSize)
	if err != nil {
		return domain.SummaryPage{}, err
	}

	summaries := make([]domain.AuditSummary, 0, len(result.Records))
	for _, rec := range result.Records {
		summaries = append(summaries, rec.Summary())
	}
	return domain.SummaryPage{Results: summaries, Pagination: result.Pagination}, nil
}

// GetChanges returns the sanitized entity state recorded by audit record id.
func (s *QueryService) GetChanges(ctx context.Context, id int64) (any, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: id is required", domain.ErrInvalidRequest)
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("audit record %d: %w", id, domain.ErrNotFound)
		}
		return nil, err
	}
	if rec.Changes == nil {
		return map[string]any{}, nil
	}
	return sanitize.Value(rec.Changes), nil
}

package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

// memAuditStore is an in-memory AuditStore with the same ordering contract as
// the SQLite adapter.
type memAuditStore struct {
	mu       sync.Mutex
	records  []domain.AuditRecord
	now      func() time.Time
	insertFn func(ctx context.Context, rec domain.AuditRecord) error
	listErr  error
	getErr   error
}

func newMemAuditStore() *memAuditStore {
	return &memAuditStore{now: func() time.Time { return time.Now().UTC() }}
}

func (s *memAuditStore) Insert(ctx context.Context, rec domain.AuditRecord) (domain.AuditRecord, error) {
	if s.insertFn != nil {
		if err := s.insertFn(ctx, rec); err != nil {
			return domain.AuditRecord{}, err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = int64(len(s.records) + 1)
	rec.CreatedAt = s.now()
	s.records = append(s.records, rec)
	return rec, nil
}

func (s *memAuditStore) List(_ context.Context, page, pageSize int) (domain.AuditPage, error) {
	if s.listErr != nil {
		return domain.AuditPage{}, s.listErr
	}
	s.mu.Lock()
	sorted := append([]domain.AuditRecord(nil), s.records...)
	s.mu.Unlock()

	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CreatedAt.Equal(sorted[j].CreatedAt) {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		}
		return sorted[i].ID > sorted[j].ID
	})
	p := domain.NewPagination(page, pageSize, int64(len(sorted)))
	start := min(p.Offset(), len(sorted))
	end := min(start+p.PageSize, len(sorted))
	return domain.AuditPage{Records: sorted[start:end], Pagination: p}, nil
}

func (s *memAuditStore) Get(_ context.Context, id int64) (domain.AuditRecord, error) {
	if s.getErr != nil {
		return domain.AuditRecord{}, s.getErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return rec, nil
		}
	}
	return domain.AuditRecord{}, domain.ErrNotFound
}

func (s *memAuditStore) snapshot() []domain.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AuditRecord(nil), s.records...)
}

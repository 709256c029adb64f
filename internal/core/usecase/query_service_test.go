package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

func seedStore(t *testing.T, n int) *memAuditStore {
	t.Helper()
	store := newMemAuditStore()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}
	for i := range n {
		_, err := store.Insert(context.Background(), domain.AuditRecord{
			Action:   domain.ActionCreate,
			RecordID: int64(i + 1),
			UserName: "Unknown ",
			Changes:  map[string]any{"id": float64(i + 1)},
		})
		require.NoError(t, err)
	}
	return store
}

func TestListSummariesSecondPage(t *testing.T) {
	svc := NewQueryService(seedStore(t, 25))

	page, err := svc.ListSummaries(context.Background(), 2)
	require.NoError(t, err)

	assert.Len(t, page.Results, 5)
	assert.Equal(t, domain.Pagination{Page: 2, PageSize: 20, PageCount: 2, Total: 25}, page.Pagination)
	assert.Equal(t, int64(5), page.Results[0].ID)
	assert.Equal(t, int64(1), page.Results[4].ID)
}

func TestListSummariesMostRecentFirst(t *testing.T) {
	svc := NewQueryService(seedStore(t, 30))

	page, err := svc.ListSummaries(context.Background(), 1)
	require.NoError(t, err)

	require.Len(t, page.Results, domain.PageSize)
	for i := 1; i < len(page.Results); i++ {
		assert.False(t, page.Results[i].CreatedAt.After(page.Results[i-1].CreatedAt))
		assert.Less(t, page.Results[i].ID, page.Results[i-1].ID)
	}
}

func TestListSummariesEmptyAndBeyondRange(t *testing.T) {
	svc := NewQueryService(newMemAuditStore())

	page, err := svc.ListSummaries(context.Background(), 1)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Equal(t, domain.Pagination{Page: 1, PageSize: 20, PageCount: 1, Total: 0}, page.Pagination)

	svc = NewQueryService(seedStore(t, 3))
	page, err = svc.ListSummaries(context.Background(), 4)
	require.NoError(t, err)
	assert.Empty(t, page.Results)
	assert.Equal(t, 1, page.Pagination.PageCount)
	assert.Equal(t, int64(3), page.Pagination.Total)
}

func TestListSummariesClampsPage(t *testing.T) {
	svc := NewQueryService(seedStore(t, 2))

	page, err := svc.ListSummaries(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, 1, page.Pagination.Page)
	assert.Len(t, page.Results, 2)
}

func TestListSummariesPropagatesStoreFailure(t *testing.T) {
	store := newMemAuditStore()
	store.listErr = errors.Join(domain.ErrStoreRead, errors.New("database is locked"))

	_, err := NewQueryService(store).ListSummaries(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrStoreRead)
}

func TestGetChangesSanitizes(t *testing.T) {
	store := newMemAuditStore()
	rec, err := store.Insert(context.Background(), domain.AuditRecord{
		Action: domain.ActionUpdate,
		Changes: map[string]any{
			"id":         float64(4),
			"documentId": "doc-4",
			"createdBy":  map[string]any{"firstname": "A", "password": "secret", "resetPasswordToken": "t"},
			"updatedBy":  map[string]any{"firstname": "B", "registrationToken": "r", "locale": "en"},
		},
	})
	require.NoError(t, err)

	got, err := NewQueryService(store).GetChanges(context.Background(), rec.ID)
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"id":        float64(4),
		"createdBy": map[string]any{"firstname": "A"},
		"updatedBy": map[string]any{"firstname": "B"},
	}, got)
	// stored state keeps full fidelity
	stored := store.snapshot()[0].Changes
	assert.Equal(t, "secret", stored["createdBy"].(map[string]any)["password"])
}

func TestGetChangesNotFound(t *testing.T) {
	_, err := NewQueryService(newMemAuditStore()).GetChanges(context.Background(), 99)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetChangesInvalidID(t *testing.T) {
	_, err := NewQueryService(newMemAuditStore()).GetChanges(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidRequest)
}

func TestGetChangesNilChanges(t *testing.T) {
	store := newMemAuditStore()
	rec, err := store.Insert(context.Background(), domain.AuditRecord{Action: domain.ActionDelete})
	require.NoError(t, err)

	got, err := NewQueryService(store).GetChanges(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{}, got)
}

package usecase

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

func testRegistry() *domain.Registry {
	return domain.NewRegistry([]domain.ContentType{
		{UID: "api::article.article", DisplayName: "Article"},
		{UID: "api::author.author", DisplayName: "Author"},
		{UID: domain.AuditModelUID, DisplayName: "Audito"},
	})
}

func TestBuildRecordCreate(t *testing.T) {
	ev := domain.CreateEvent{
		Model:  "api::article.article",
		Result: map[string]any{"id": float64(12), "title": "hello"},
		User:   &domain.Actor{FirstName: "Jane", LastName: "Doe"},
	}

	rec := BuildRecord(ev, testRegistry())

	assert.Equal(t, domain.ActionCreate, rec.Action)
	assert.Equal(t, "Article", rec.ContentTypeName)
	assert.Equal(t, "api::article.article", rec.ModelUID)
	assert.Equal(t, int64(12), rec.RecordID)
	assert.Equal(t, "Jane Doe", rec.UserName)
	assert.Equal(t, map[string]any{"id": float64(12), "title": "hello"}, rec.Changes)
	assert.Zero(t, rec.ID)
	assert.True(t, rec.CreatedAt.IsZero())
}

func TestBuildRecordWithoutActor(t *testing.T) {
	rec := BuildRecord(domain.UpdateEvent{Model: "api::author.author", Result: map[string]any{"id": float64(1)}}, testRegistry())

	assert.Equal(t, "Unknown ", rec.UserName)
	assert.Equal(t, domain.ActionUpdate, rec.Action)
}

func TestBuildRecordPartialActor(t *testing.T) {
	reg := testRegistry()

	assert.Equal(t, "Unknown Doe", BuildRecord(domain.CreateEvent{Model: "api::author.author", User: &domain.Actor{LastName: "Doe"}}, reg).UserName)
	assert.Equal(t, "Jane ", BuildRecord(domain.CreateEvent{Model: "api::author.author", User: &domain.Actor{FirstName: "Jane"}}, reg).UserName)
}

func TestBuildRecordDeleteWithoutState(t *testing.T) {
	rec := BuildRecord(domain.DeleteEvent{Model: "api::article.article"}, testRegistry())

	assert.Equal(t, domain.ActionDelete, rec.Action)
	assert.Equal(t, int64(0), rec.RecordID)
	assert.NotNil(t, rec.Changes)
	assert.Empty(t, rec.Changes)
}

func TestBuildRecordUnknownModel(t *testing.T) {
	rec := BuildRecord(domain.CreateEvent{Model: "api::ghost.ghost", Result: map[string]any{}}, testRegistry())
	assert.Equal(t, "", rec.ContentTypeName)

	rec = BuildRecord(domain.CreateEvent{Model: "api::article.article"}, nil)
	assert.Equal(t, "", rec.ContentTypeName)
}

func TestRecordIDConversions(t *testing.T) {
	tests := []struct {
		in   any
		want int64
	}{
		{in: float64(5), want: 5},
		{in: float64(5.5), want: 0},
		{in: json.Number("42"), want: 42},
		{in: json.Number("4.2"), want: 0},
		{in: "17", want: 17},
		{in: "abc", want: 0},
		{in: 3, want: 3},
		{in: int64(9), want: 9},
		{in: uint64(1) << 63, want: 0},
		{in: nil, want: 0},
		{in: true, want: 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, recordID(tt.in), "input %#v", tt.in)
	}
}

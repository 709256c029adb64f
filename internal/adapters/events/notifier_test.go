package events

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

func testSummary() domain.AuditSummary {
	return domain.AuditSummary{
		ID:              3,
		EventID:         "8f2a6c1e-0000-4000-8000-000000000003",
		Action:          domain.ActionUpdate,
		ContentTypeName: "Article",
		UserName:        "Jane Doe",
		CreatedAt:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestWebhookNotifierSignsPayload(t *testing.T) {
	var gotBody []byte
	var gotHeaders http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeaders = r.Header.Clone()
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	secret := "test-secret"
	n := NewWebhookNotifier(srv.URL, secret, 5*time.Second)
	require.NoError(t, n.Notify(context.Background(), testSummary()))

	assert.Equal(t, "application/json", gotHeaders.Get("Content-Type"))
	assert.Equal(t, "audit.record.created", gotHeaders.Get("X-Audito-Event-Type"))
	assert.Equal(t, testSummary().EventID, gotHeaders.Get("X-Audito-Event-Id"))

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(gotBody)
	assert.Equal(t, "sha256="+hex.EncodeToString(mac.Sum(nil)), gotHeaders.Get("X-Hub-Signature-256"))

	var payload map[string]any
	require.NoError(t, json.Unmarshal(gotBody, &payload))
	assert.Equal(t, "update", payload["action"])
	assert.Equal(t, "Jane Doe", payload["userName"])
	assert.Equal(t, "2026-03-01T12:00:00Z", payload["createdAt"])
	assert.NotContains(t, payload, "changes")
}

func TestWebhookNotifierNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL, "s", 0).Notify(context.Background(), testSummary())
	assert.ErrorContains(t, err, "status 502")
}

func TestWebhookNotifierUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	err := NewWebhookNotifier(url, "s", time.Second).Notify(context.Background(), testSummary())
	assert.Error(t, err)
}

func TestKafkaRecord(t *testing.T) {
	rec, err := kafkaRecord("audit-records", testSummary())
	require.NoError(t, err)

	assert.Equal(t, "audit-records", rec.Topic)
	assert.Equal(t, []byte(testSummary().EventID), rec.Key)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &payload))
	assert.Equal(t, float64(3), payload["id"])
	assert.Equal(t, "audit.record.created", payload["eventType"])
}

func TestNewKafkaNotifierValidatesConfig(t *testing.T) {
	_, err := NewKafkaNotifier(nil, "audit-records")
	assert.Error(t, err)
	_, err = NewKafkaNotifier([]string{"localhost:9092"}, "")
	assert.Error(t, err)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Notify(context.Background(), testSummary()))

	entries := logs.FilterMessage("audit record created").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(3), entries[0].ContextMap()["audit_id"])
	assert.Equal(t, "Article", entries[0].ContextMap()["content_type"])
}

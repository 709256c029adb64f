package events

import "github.com/atvirokodosprendimai/audito/internal/core/domain"

const timeFormat = "2006-01-02T15:04:05.999999999Z07:00"

// recordCreated is the wire form of a stored audit record announcement. It
// carries the summary only, never the recorded entity state.
type recordCreated struct {
	EventType       string `json:"eventType"`
	EventID         string `json:"eventId"`
	ID              int64  `json:"id"`
	Action          string `json:"action"`
	ContentTypeName string `json:"contentTypeName"`
	UserName        string `json:"userName"`
	CreatedAt       string `json:"createdAt"`
}

const eventTypeRecordCreated = "audit.record.created"

func newRecordCreated(s domain.AuditSummary) recordCreated {
	return recordCreated{
		EventType:       eventTypeRecordCreated,
		EventID:         s.EventID,
		ID:              s.ID,
		Action:          string(s.Action),
		ContentTypeName: s.ContentTypeName,
		UserName:        s.UserName,
		CreatedAt:       s.CreatedAt.UTC().Format(timeFormat),
	}
}

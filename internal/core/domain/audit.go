package domain

import (
	"fmt"
	"time"
)

// PageSize is the fixed number of audit records served per page.
const PageSize = 20

type Action string

const (
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

func ParseAction(raw string) (Action, error) {
	switch a := Action(raw); a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return a, nil
	default:
		return "", fmt.Errorf("%w: unknown action %q", ErrInvalidRequest, raw)
	}
}

func (a Action) Valid() bool {
	switch a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// AuditRecord is one immutable entry of the audit trail. ID, EventID and
// CreatedAt are assigned by the store on insert.
type AuditRecord struct {
	ID              int64
	EventID         string
	Action          Action
	ModelUID        string
	ContentTypeName string
	RecordID        int64
	UserName        string
	Changes         map[string]any
	CreatedAt       time.Time
}

func (r AuditRecord) Summary() AuditSummary {
	return AuditSummary{
		ID:              r.ID,
		EventID:         r.EventID,
		Action:          r.Action,
		ContentTypeName: r.ContentTypeName,
		UserName:        r.UserName,
		CreatedAt:       r.CreatedAt,
	}
}

// AuditSummary is the non-sensitive projection of an AuditRecord.
type AuditSummary struct {
	ID              int64
	EventID         string
	Action          Action
	ContentTypeName string
	UserName        string
	CreatedAt       time.Time
}

type Pagination struct {
	Page      int
	PageSize  int
	PageCount int
	Total     int64
}

// NewPagination computes page metadata for total records. PageCount is never
// below 1, even for an empty collection.
func NewPagination(page, pageSize int, total int64) Pagination {
	if pageSize <= 0 {
		pageSize = PageSize
	}
	if page < 1 {
		page = 1
	}
	count := int((total + int64(pageSize) - 1) / int64(pageSize))
	if count < 1 {
		count = 1
	}
	return Pagination{Page: page, PageSize: pageSize, PageCount: count, Total: total}
}

// Offset is the number of records preceding the current page. Pages past
// the last one yield Total, which selects nothing.
func (p Pagination) Offset() int {
	if p.Page > p.PageCount {
		return int(p.Total)
	}
	return (p.Page - 1) * p.PageSize
}

type AuditPage struct {
	Records    []AuditRecord
	Pagination Pagination
}

type SummaryPage struct {
	Results    []AuditSummary
	Pagination Pagination
}

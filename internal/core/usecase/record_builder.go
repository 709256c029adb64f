package usecase

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

const unknownFirstName = "Unknown"

// BuildRecord maps a mutation to the audit record describing it. It never
// fails: unresolved content types yield an empty name, a missing id yields 0
// and a missing actor yields "Unknown ". ID, EventID and CreatedAt are left
// for the store.
func BuildRecord(ev domain.MutationEvent, registry *domain.Registry) domain.AuditRecord {
	state, ok := ev.State()
	if !ok || state == nil {
		state = map[string]any{}
	}

	name := ""
	if ct, found := registry.Lookup(ev.ModelID()); found {
		name = ct.DisplayName
	}

	return domain.AuditRecord{
		Action:          ev.Action(),
		ModelUID:        ev.ModelID(),
		ContentTypeName: name,
		RecordID:        recordID(state["id"]),
		UserName:        userName(ev.Actor()),
		Changes:         state,
	}
}

func userName(actor *domain.Actor) string {
	first, last := unknownFirstName, ""
	if actor != nil {
		if actor.FirstName != "" {
			first = actor.FirstName
		}
		last = actor.LastName
	}
	return first + " " + last
}

func recordID(v any) int64 {
	switch id := v.(type) {
	case int:
		return int64(id)
	case int32:
		return int64(id)
	case int64:
		return id
	case uint:
		return clampUint(uint64(id))
	case uint32:
		return int64(id)
	case uint64:
		return clampUint(id)
	case float64:
		if math.IsNaN(id) || math.IsInf(id, 0) || id != math.Trunc(id) || id >= 1<<63 || id < -(1<<63) {
			return 0
		}
		return int64(id)
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return n
		}
		return 0
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64); err == nil {
			return n
		}
		return 0
	default:
		return 0
	}
}

func clampUint(v uint64) int64 {
	if v > math.MaxInt64 {
		return 0
	}
	return int64(v)
}

package domain

import (
	"sort"
	"strings"
)

const (
	// AuditModelUID identifies the audit record collection in the host registry.
	AuditModelUID = "plugin::audito.audito"
	// AppModelPrefix marks content types owned by the host application.
	AppModelPrefix = "api::"
)

type ContentType struct {
	UID         string
	DisplayName string
}

// Registry is an immutable snapshot of the host's content types taken at
// startup.
type Registry struct {
	byUID map[string]ContentType
}

func NewRegistry(types []ContentType) *Registry {
	m := make(map[string]ContentType, len(types))
	for _, ct := range types {
		if ct.UID == "" {
			continue
		}
		m[ct.UID] = ct
	}
	return &Registry{byUID: m}
}

func (r *Registry) Lookup(uid string) (ContentType, bool) {
	if r == nil {
		return ContentType{}, false
	}
	ct, ok := r.byUID[uid]
	return ct, ok
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.byUID)
}

// Watched returns the set of models whose mutations are audited: every UID
// starting with prefix, never auditUID itself. An empty prefix watches all.
func (r *Registry) Watched(auditUID, prefix string) WatchSet {
	set := WatchSet{models: make(map[string]struct{})}
	if r == nil {
		return set
	}
	for uid := range r.byUID {
		if uid == auditUID || !strings.HasPrefix(uid, prefix) {
			continue
		}
		set.models[uid] = struct{}{}
	}
	set.excluded = auditUID
	return set
}

// WatchSet is the fixed set of watched model UIDs.
type WatchSet struct {
	models   map[string]struct{}
	excluded string
}

func (w WatchSet) Contains(uid string) bool {
	if uid == "" || uid == w.excluded {
		return false
	}
	_, ok := w.models[uid]
	return ok
}

func (w WatchSet) Models() []string {
	out := make([]string, 0, len(w.models))
	for uid := range w.models {
		out = append(out, uid)
	}
	sort.Strings(out)
	return out
}

func (w WatchSet) Len() int {
	return len(w.models)
}

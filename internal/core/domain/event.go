package domain

import "strings"

// Actor is the user a mutation is attributed to.
type Actor struct {
	FirstName string
	LastName  string
}

// MutationEvent is a notification from the host that an entity of a content
// type was created, updated or deleted. The concrete types are CreateEvent,
// UpdateEvent and DeleteEvent.
type MutationEvent interface {
	ModelID() string
	Action() Action
	// State returns the resulting entity; ok is false when the host supplied
	// none, which only DeleteEvent permits.
	State() (state map[string]any, ok bool)
	Actor() *Actor
	mutation()
}

type CreateEvent struct {
	Model  string
	Result map[string]any
	User   *Actor
}

type UpdateEvent struct {
	Model  string
	Result map[string]any
	User   *Actor
}

// DeleteEvent carries the removed entity when the host still has it.
type DeleteEvent struct {
	Model  string
	Result map[string]any
	User   *Actor
}

func (e CreateEvent) ModelID() string { return e.Model }
func (e CreateEvent) Action() Action { return ActionCreate }
func (e CreateEvent) State() (map[string]any, bool) { return e.Result, e.Result != nil }
func (e CreateEvent) Actor() *Actor { return e.User }
func (CreateEvent) mutation() {}

func (e UpdateEvent) ModelID() string { return e.Model }
func (e UpdateEvent) Action() Action { return ActionUpdate }
func (e UpdateEvent) State() (map[string]any, bool) { return e.Result, e.Result != nil }
func (e UpdateEvent) Actor() *Actor { return e.User }
func (UpdateEvent) mutation() {}

func (e DeleteEvent) ModelID() string { return e.Model }
func (e DeleteEvent) Action() Action { return ActionDelete }
func (e DeleteEvent) State() (map[string]any, bool) { return e.Result, e.Result != nil }
func (e DeleteEvent) Actor() *Actor { return e.User }
func (DeleteEvent) mutation() {}

// NewMutationEvent builds the variant matching action.
func NewMutationEvent(action Action, model string, result map[string]any, actor *Actor) (MutationEvent, error) {
	switch action {
	case ActionCreate:
		return CreateEvent{Model: model, Result: result, User: actor}, nil
	case ActionUpdate:
		return UpdateEvent{Model: model, Result: result, User: actor}, nil
	case ActionDelete:
		return DeleteEvent{Model: model, Result: result, User: actor}, nil
	default:
		return nil, ErrInvalidRequest
	}
}

// ActorFromState reads the creator the host embeds in entity state under
// createdBy.firstname / createdBy.lastname. It returns nil when absent.
func ActorFromState(state map[string]any) *Actor {
	by, ok := state["createdBy"].(map[string]any)
	if !ok {
		return nil
	}
	first, _ := by["firstname"].(string)
	last, _ := by["lastname"].(string)
	if strings.TrimSpace(first) == "" && strings.TrimSpace(last) == "" {
		return nil
	}
	return &Actor{FirstName: first, LastName: last}
}

// Snapshot returns a copy of ev that shares no maps, slices or actor with
// the host, so it can be read after the host has moved on.
func Snapshot(ev MutationEvent) MutationEvent {
	if ev == nil {
		return nil
	}
	var actor *Actor
	if a := ev.Actor(); a != nil {
		cp := *a
		actor = &cp
	}
	var result map[string]any
	if state, ok := ev.State(); ok {
		result = cloneObject(state)
	}
	snap, err := NewMutationEvent(ev.Action(), ev.ModelID(), result, actor)
	if err != nil {
		return ev
	}
	return snap
}

func cloneObject(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return cloneObject(t)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// Package lifecycle is the host-side dispatch point for model mutations.
// Data layers call Dispatch after a create, update or delete has committed;
// subscribers registered for that model are invoked synchronously and must
// return quickly.
package lifecycle

import (
	"sync"

	"go.uber.org/zap"

	"github.com/atvirokodosprendimai/audito/internal/core/domain"
)

type Handler func(domain.MutationEvent)

type Hub struct {
	logger *zap.Logger

	mu   sync.RWMutex
	subs map[string][]Handler
}

func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{logger: logger.Named("lifecycle"), subs: make(map[string][]Handler)}
}

// Subscribe registers handler for mutations of each of models.
func (h *Hub) Subscribe(models []string, handler func(domain.MutationEvent)) {
	if handler == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, m := range models {
		h.subs[m] = append(h.subs[m], handler)
	}
}

// Dispatch delivers ev to the subscribers of its model and reports how many
// were invoked. A panicking subscriber is logged and skipped so that it cannot
// fail the caller's write.
func (h *Hub) Dispatch(ev domain.MutationEvent) int {
	if ev == nil {
		return 0
	}
	h.mu.RLock()
	handlers := h.subs[ev.ModelID()]
	h.mu.RUnlock()

	for _, fn := range handlers {
		h.invoke(fn, ev)
	}
	return len(handlers)
}

func (h *Hub) invoke(fn Handler, ev domain.MutationEvent) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("lifecycle subscriber panicked",
				zap.String("model", ev.ModelID()),
				zap.String("action", string(ev.Action())),
				zap.Any("panic", r),
			)
		}
	}()
	fn(ev)
}

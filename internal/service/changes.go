package service

import (
	"sync"

	"go.uber.org/zap"
)

// ChangeHub fans one backend change feed out to every live controller.
// Notifications coalesce: a subscriber that has not consumed the previous
// signal is not signalled twice.
type ChangeHub struct {
	log  *zap.Logger
	mu   sync.Mutex
	next uint64
	subs map[uint64]chan struct{}
}

func NewChangeHub(log *zap.Logger) *ChangeHub {
	return &ChangeHub{log: log, subs: make(map[uint64]chan struct{})}
}

func (h *ChangeHub) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)
	h.mu.Lock()
	h.next++
	id := h.next
	h.subs[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
		})
	}
}

func (h *ChangeHub) Notify() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range h.subs {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	h.log.Debug("promotion change broadcast", zap.Int("subscribers", len(h.subs)))
}

func (h *ChangeHub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

package nserve

import (
	"sync"
	"sync/atomic"
)

var hookCounter int32

// HookOrder says which way the callbacks for a hook run
type HookOrder string

const (
	// ForwardOrder runs callbacks in the order they were added
	ForwardOrder HookOrder = "forward"
	// ReverseOrder runs the most recently added callback first
	ReverseOrder HookOrder = "reverse"
)

type hookID int32

// Hook names a list of callbacks that an App invokes together
type Hook struct {
	ID    hookID
	lock  sync.Mutex
	Name  string
	Order HookOrder
	// InvokeOnError lists hooks to run if this hook's callbacks fail
	InvokeOnError []*Hook
	// ContinuePast keeps running callbacks after one has failed
	ContinuePast  bool
	ErrorCombiner func(first, second error) error
}

// NewHook creates a new category of callbacks
func NewHook(name string, order HookOrder) *Hook {
	return &Hook{
		ID:    hookID(atomic.AddInt32(&hookCounter, 1)),
		Name:  name,
		Order: order,
	}
}

// Copy makes a deep copy of a hook with a new ID.  Callbacks
// registered for h are not registered for the copy.
func (h *Hook) Copy() *Hook {
	h.lock.Lock()
	defer h.lock.Unlock()
	onError := make([]*Hook, len(h.InvokeOnError))
	copy(onError, h.InvokeOnError)
	return &Hook{
		ID:            hookID(atomic.AddInt32(&hookCounter, 1)),
		Name:          h.Name,
		Order:         h.Order,
		InvokeOnError: onError,
		ContinuePast:  h.ContinuePast,
		ErrorCombiner: h.ErrorCombiner,
	}
}

// OnError adds e to the hooks that are invoked when this hook fails.
// Call with nil to clear the list.
func (h *Hook) OnError(e *Hook) *Hook {
	h.lock.Lock()
	defer h.lock.Unlock()
	if e == nil {
		h.InvokeOnError = nil
	} else {
		h.InvokeOnError = append(h.InvokeOnError, e)
	}
	return h
}

// SetErrorCombiner sets how two errors become one when more than one
// callback fails.  Without a combiner the first error is kept.
func (h *Hook) SetErrorCombiner(f func(first, second error) error) *Hook {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.ErrorCombiner = f
	return h
}

// ContinuePastError sets if callbacks should continue to be invoked
// after one has returned an error.
func (h *Hook) ContinuePastError(b bool) *Hook {
	h.lock.Lock()
	defer h.lock.Unlock()
	h.ContinuePast = b
	return h
}

func (h *Hook) settings() (order HookOrder, continuePast bool, combine func(error, error) error, onError []*Hook) {
	h.lock.Lock()
	defer h.lock.Unlock()
	onError = make([]*Hook, len(h.InvokeOnError))
	copy(onError, h.InvokeOnError)
	return h.Order, h.ContinuePast, h.ErrorCombiner, onError
}

func (h *Hook) String() string {
	return "hook " + h.Name
}

// The standard hooks.  A failed Start runs Stop; Stop keeps going past
// errors and then runs Shutdown.
var (
	Shutdown = NewHook("shutdown", ReverseOrder)
	Stop     = NewHook("stop", ReverseOrder).OnError(Shutdown).ContinuePastError(true)
	Start    = NewHook("start", ForwardOrder).OnError(Stop)
)

package navigation

import (
	"sync"

	"go.uber.org/zap"
)

// Navigator is the one thing the transport and the guard need from routing.
type Navigator interface {
	Navigate(path string) bool
}

// Router keeps the current location and its history. Navigating to the
// location that is already current is a no-op.
type Router struct {
	mu        sync.Mutex
	current   string
	history   []string
	listeners []func(path string)
	logger    *zap.Logger
}

func NewRouter(start string, logger *zap.Logger) *Router {
	if start == "" {
		start = "/"
	}
	return &Router{
		current: cleanPath(start),
		history: []string{cleanPath(start)},
		logger:  logger,
	}
}

// Navigate moves to path and reports whether the location changed.
func (r *Router) Navigate(path string) bool {
	path = cleanPath(path)

	r.mu.Lock()
	if r.current == path {
		r.mu.Unlock()
		return false
	}
	from := r.current
	r.current = path
	r.history = append(r.history, path)
	listeners := append([]func(string){}, r.listeners...)
	r.mu.Unlock()

	r.logger.Debug("Navigated", zap.String("from", from), zap.String("to", path))
	for _, fn := range listeners {
		fn(path)
	}
	return true
}

// OnNavigate registers fn to run after every location change.
func (r *Router) OnNavigate(fn func(path string)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

func (r *Router) History() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.history))
	copy(out, r.history)
	return out
}

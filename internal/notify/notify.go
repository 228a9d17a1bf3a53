package notify

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"
)

// Notifier surfaces user-facing outcomes (toasts in the browser client).
type Notifier interface {
	Success(msg string)
	Error(msg string)
}

// Console prints notifications to w and mirrors them to the logger.
type Console struct {
	mu     sync.Mutex
	w      io.Writer
	logger *zap.Logger
}

func NewConsole(w io.Writer, logger *zap.Logger) *Console {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Console{w: w, logger: logger}
}

func (c *Console) Success(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "✓ %s\n", msg)
	c.logger.Info("notification", zap.String("level", "success"), zap.String("message", msg))
}

func (c *Console) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "✗ %s\n", msg)
	c.logger.Warn("notification", zap.String("level", "error"), zap.String("message", msg))
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu        sync.Mutex
	Successes []string
	Errors    []string
}

func (r *Recorder) Success(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Successes = append(r.Successes, msg)
}

func (r *Recorder) Error(msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, msg)
}

func (r *Recorder) ErrorCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Errors)
}

func (r *Recorder) LastError() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[len(r.Errors)-1]
}

func (r *Recorder) LastSuccess() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Successes) == 0 {
		return ""
	}
	return r.Successes[len(r.Successes)-1]
}

// Package logctx provides structured logging for crunchize, with every
// record tagged with the playbook task currently executing.
package logctx

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// current holds the label of the task presently running, guarded by mu since
// the orchestrator sets it while log calls from the fan-out worker goroutines
// read it concurrently.
var (
	mu      sync.Mutex
	current string
)

// SetCurrentTask records the name of the task about to run. Call with an
// empty string to clear it once the task completes.
func SetCurrentTask(name string) {
	mu.Lock()
	current = name
	mu.Unlock()
}

// CurrentTask returns the task name set by the most recent SetCurrentTask call.
func CurrentTask() string {
	mu.Lock()
	defer mu.Unlock()
	return current
}

// taskHandler wraps an slog.Handler and stamps every record with the current
// task label, so logs from deep within a task implementation don't need to
// carry it through every call site by hand.
type taskHandler struct {
	slog.Handler
}

func (h *taskHandler) Handle(ctx context.Context, r slog.Record) error {
	if task := CurrentTask(); task != "" {
		r.AddAttrs(slog.String("task", task))
	}
	return h.Handler.Handle(ctx, r)
}

func (h *taskHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &taskHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *taskHandler) WithGroup(name string) slog.Handler {
	return &taskHandler{Handler: h.Handler.WithGroup(name)}
}

// New builds the logger crunchize uses throughout a run. verbose selects
// slog.LevelDebug over slog.LevelInfo; output is a human-readable text
// handler, matching the teacher's plain-text run logs rather than a
// machine-parsed format. color ANSI-highlights the level attribute on
// warn/error records; callers should only set it when the destination is an
// interactive terminal.
func New(verbose, color bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	base := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	var h slog.Handler = &taskHandler{Handler: base}
	if color {
		h = &colorHandler{Handler: h}
	}
	return slog.New(h)
}

// colorHandler ANSI-highlights warn/error level text, mirroring the
// teacher's useColor-gated transcript coloring.
type colorHandler struct {
	slog.Handler
}

const (
	ansiYellow = "\033[33m"
	ansiRed    = "\033[31m"
	ansiReset  = "\033[0m"
)

func (h *colorHandler) Handle(ctx context.Context, r slog.Record) error {
	switch {
	case r.Level >= slog.LevelError:
		r.Message = fmt.Sprintf("%s%s%s", ansiRed, r.Message, ansiReset)
	case r.Level >= slog.LevelWarn:
		r.Message = fmt.Sprintf("%s%s%s", ansiYellow, r.Message, ansiReset)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *colorHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &colorHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *colorHandler) WithGroup(name string) slog.Handler {
	return &colorHandler{Handler: h.Handler.WithGroup(name)}
}

package hooking

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sarchlab/portsched/sim/naming"
)

// LogHook writes every hook invocation to a structured logger.
type LogHook struct {
	logger *slog.Logger
	level  slog.Level
}

// NewLogHook creates a LogHook that logs at the given level.
func NewLogHook(logger *slog.Logger, level slog.Level) *LogHook {
	return &LogHook{logger: logger, level: level}
}

// Func logs the hook context.
func (h *LogHook) Func(ctx HookCtx) {
	attrs := []any{
		"tick", ctx.Tick,
		"pos", ctx.Pos.Name,
	}

	if named, ok := ctx.Domain.(naming.Named); ok {
		attrs = append(attrs, "where", named.Name())
	}

	if ctx.Item != nil {
		attrs = append(attrs, "item", fmt.Sprintf("%+v", ctx.Item))
	}

	if ctx.Detail != nil {
		attrs = append(attrs, "detail", fmt.Sprintf("%+v", ctx.Detail))
	}

	h.logger.Log(context.Background(), h.level, "hook", attrs...)
}

package main

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/zoobzio/capitan"

	"github.com/zoobzio/enhancer"
)

const envLogLevel = "ENHANCER_LOG_LEVEL"

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

// failureSignals are logged at warn level; everything else at debug.
var failureSignals = map[capitan.Signal]bool{
	enhancer.RequestFailed:      true,
	enhancer.ProviderCallFailed: true,
	enhancer.ConditioningKept:   true,
}

// bridgeEvents forwards enhancer hook events to logger and returns a func
// that detaches the observer.
func bridgeEvents(logger *slog.Logger) func() {
	observer := capitan.Observe(func(ctx context.Context, e *capitan.Event) {
		level := slog.LevelDebug
		if failureSignals[e.Signal()] {
			level = slog.LevelWarn
		}
		logger.Log(ctx, level, e.Signal().Name(), eventAttrs(e)...)
	})
	return func() { observer.Close() }
}

func eventAttrs(e *capitan.Event) []any {
	var attrs []any
	addString := func(name string, v string, ok bool) {
		if ok && v != "" {
			attrs = append(attrs, name, v)
		}
	}
	addInt := func(name string, v int, ok bool) {
		if ok && v != 0 {
			attrs = append(attrs, name, v)
		}
	}

	v, ok := enhancer.RequestIDKey.From(e)
	addString("request_id", v, ok)
	v, ok = enhancer.ProviderKey.From(e)
	addString("provider", v, ok)
	v, ok = enhancer.ModelKey.From(e)
	addString("model", v, ok)
	v, ok = enhancer.FamilyKey.From(e)
	addString("family", v, ok)
	v, ok = enhancer.ErrorKey.From(e)
	addString("error", v, ok)
	v, ok = enhancer.ErrorKindKey.From(e)
	addString("error_kind", v, ok)
	v, ok = enhancer.APIErrorTypeKey.From(e)
	addString("api_error_type", v, ok)

	n, ok := enhancer.HTTPStatusCodeKey.From(e)
	addInt("status", n, ok)
	n, ok = enhancer.DurationMsKey.From(e)
	addInt("duration_ms", n, ok)
	n, ok = enhancer.TotalTokensKey.From(e)
	addInt("total_tokens", n, ok)

	return attrs
}

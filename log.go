// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httpexec

import (
	"context"
	"log/slog"

	"github.com/gogama/httpexec/request"
)

// LogHandlers returns a handler group logging every execution event to
// logger at debug level. Attempt errors are logged at warn level and
// failed executions at error level. Every record carries the execution
// ID under the key "execution_id".
//
// To combine the logging handlers with other handlers, push the other
// handlers onto the returned group.
func LogHandlers(logger *slog.Logger) *request.HandlerGroup {
	if logger == nil {
		panic("httpexec: nil logger")
	}
	g := &request.HandlerGroup{}
	h := request.HandlerFunc(func(evt request.Event, e *request.Execution) {
		logEvent(logger, evt, e)
	})
	for _, evt := range request.Events() {
		g.PushBack(evt, h)
	}
	return g
}

func logEvent(logger *slog.Logger, evt request.Event, e *request.Execution) {
	level := slog.LevelDebug
	attrs := []slog.Attr{slog.String("execution_id", e.ID)}
	switch evt {
	case request.BeforeExecutionStart:
		if e.Request != nil {
			attrs = append(attrs, slog.String("method", e.Request.Method))
			if e.Request.URL != nil {
				attrs = append(attrs, slog.String("url", e.Request.URL.Redacted()))
			}
		}
	case request.AfterRoutePlanned:
		if e.Route != nil {
			attrs = append(attrs, slog.String("route", e.Route.String()))
		}
	case request.AfterConnect:
		if e.Conn != nil {
			attrs = append(attrs, slog.String("conn", e.Conn.String()))
		}
	case request.BeforeAttempt:
		attrs = append(attrs, slog.Int("attempt", e.ExecCount))
	case request.AfterResponse:
		attrs = append(attrs, slog.Int("attempt", e.ExecCount), slog.Int("status", e.StatusCode()))
	case request.AfterAttemptTimeout:
		attrs = append(attrs, slog.Int("attempt", e.ExecCount), slog.Int("timeouts", e.AttemptTimeouts))
	case request.AfterAttemptError:
		level = slog.LevelWarn
		attrs = append(attrs, slog.Int("attempt", e.ExecCount), slog.Any("error", e.Err))
	case request.BeforeRetry:
		attrs = append(attrs, slog.Int("attempt", e.ExecCount))
	case request.AfterRedirect:
		if n := len(e.Redirects); n > 0 {
			attrs = append(attrs, slog.String("location", e.Redirects[n-1].Redacted()))
		}
	case request.AfterExecutionEnd:
		attrs = append(attrs, slog.Duration("duration", e.Duration()))
		if e.Err != nil {
			level = slog.LevelError
			attrs = append(attrs, slog.Any("error", e.Err))
		} else {
			attrs = append(attrs, slog.Int("status", e.StatusCode()))
		}
	}
	logger.LogAttrs(context.Background(), level, evt.Name(), attrs...)
}

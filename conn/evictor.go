// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// ErrEvictorRunning is returned by Evictor.Start if the evictor is
// already running.
var ErrEvictorRunning = errors.New("httpexec/conn: evictor already running")

// An Evictor periodically sweeps a Manager, closing expired connections
// and connections idle for longer than MaxIdle.
type Evictor struct {
	// Manager is the connection manager to sweep.
	Manager Manager
	// Interval is the time between sweeps. It must be positive.
	Interval time.Duration
	// MaxIdle is the idle threshold. If zero or negative, only expired
	// connections are closed.
	MaxIdle time.Duration
	// Logger receives the scheduler's diagnostics.
	Logger *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
}

// every is a cron.Schedule firing at a fixed interval. Unlike
// cron.Every it does not round the interval to whole seconds.
type every time.Duration

func (d every) Next(t time.Time) time.Time {
	return t.Add(time.Duration(d))
}

// Start starts sweeping in the background.
func (ev *Evictor) Start() error {
	if ev.Manager == nil {
		panic("httpexec/conn: nil manager")
	}
	if ev.Interval <= 0 {
		return errors.New("httpexec/conn: evictor interval must be positive")
	}
	ev.mu.Lock()
	defer ev.mu.Unlock()
	if ev.cron != nil {
		return ErrEvictorRunning
	}
	l := cronLogger{ev.logger()}
	c := cron.New(cron.WithLogger(l), cron.WithChain(cron.Recover(l), cron.SkipIfStillRunning(l)))
	c.Schedule(every(ev.Interval), cron.FuncJob(ev.Sweep))
	c.Start()
	ev.cron = c
	return nil
}

// Sweep closes expired connections and, if MaxIdle is positive, idle
// connections.
func (ev *Evictor) Sweep() {
	ev.Manager.CloseExpiredConnections()
	if ev.MaxIdle > 0 {
		ev.Manager.CloseIdleConnections(ev.MaxIdle)
	}
}

// Stop stops the scheduler and waits for a sweep in progress to finish
// or the context to be done, whichever happens first. Stopping an
// evictor which is not running is a no-op.
func (ev *Evictor) Stop(ctx context.Context) error {
	ev.mu.Lock()
	c := ev.cron
	ev.cron = nil
	ev.mu.Unlock()
	if c == nil {
		return nil
	}
	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (ev *Evictor) logger() *slog.Logger {
	if ev.Logger != nil {
		return ev.Logger
	}
	return slog.Default()
}

type cronLogger struct {
	l *slog.Logger
}

func (cl cronLogger) Info(msg string, keysAndValues ...any) {
	cl.l.Debug(msg, keysAndValues...)
}

func (cl cronLogger) Error(err error, msg string, keysAndValues ...any) {
	cl.l.Error(msg, append(keysAndValues, "error", err)...)
}

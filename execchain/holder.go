// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogama/httpexec/conn"
)

// A Holder owns a connection leased for one execution and hands it
// back to its manager exactly once.
//
// Whichever of ReleaseConnection, AbortConnection, Cancel or Close is
// called first takes effect. Later calls do nothing. All methods are
// safe for concurrent use.
type Holder struct {
	manager conn.Manager
	conn    *conn.Conn
	logger  *slog.Logger

	released atomic.Bool

	mu       sync.Mutex
	reusable bool
	state    any
	validFor time.Duration
}

// NewHolder returns a holder for connection c leased from manager m.
// The logger may be nil.
func NewHolder(m conn.Manager, c *conn.Conn, logger *slog.Logger) *Holder {
	if m == nil {
		panic("httpexec/execchain: nil manager")
	}
	if c == nil {
		panic("httpexec/execchain: nil connection")
	}
	return &Holder{
		manager: m,
		conn:    c,
		logger:  logger,
	}
}

// Conn returns the held connection.
func (h *Holder) Conn() *conn.Conn {
	return h.conn
}

// MarkReusable marks the connection as safe to keep for another
// request.
func (h *Holder) MarkReusable() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reusable = true
}

// MarkNonReusable marks the connection as unfit for another request.
func (h *Holder) MarkNonReusable() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reusable = false
}

// IsReusable reports whether the connection is marked reusable.
func (h *Holder) IsReusable() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reusable
}

// SetState sets the state token the connection is released with.
func (h *Holder) SetState(state any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = state
}

// SetValidFor sets how long a reusable connection stays valid in the
// pool. Zero or negative means indefinitely.
func (h *Holder) SetValidFor(d time.Duration) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.validFor = d
}

// IsReleased reports whether the connection has been handed back.
func (h *Holder) IsReleased() bool {
	return h.released.Load()
}

// ReleaseConnection hands the connection back to the manager. A
// reusable connection is kept with its state and validity. Any other
// connection is closed first.
func (h *Holder) ReleaseConnection() {
	if !h.released.CompareAndSwap(false, true) {
		return
	}
	h.mu.Lock()
	reusable, state, validFor := h.reusable, h.state, h.validFor
	h.mu.Unlock()
	if reusable {
		h.manager.ReleaseConnection(h.conn, state, validFor)
		return
	}
	if err := h.conn.Close(); err != nil {
		h.log().Debug("error closing connection", "conn", h.conn.ID(), "err", err)
	}
	h.log().Debug("connection discarded", "conn", h.conn.ID())
	h.manager.ReleaseConnection(h.conn, nil, 0)
}

// AbortConnection shuts the connection down and hands it back to the
// manager for disposal.
func (h *Holder) AbortConnection() {
	h.abort()
}

// Cancel aborts the connection. It reports whether this call aborted
// it.
func (h *Holder) Cancel() bool {
	if !h.abort() {
		return false
	}
	h.log().Debug("request execution cancelled", "conn", h.conn.ID())
	return true
}

// Close aborts the connection.
func (h *Holder) Close() error {
	h.abort()
	return nil
}

func (h *Holder) abort() bool {
	if !h.released.CompareAndSwap(false, true) {
		return false
	}
	if err := h.conn.Shutdown(); err != nil {
		h.log().Debug("error shutting down connection", "conn", h.conn.ID(), "err", err)
	}
	h.log().Debug("connection discarded", "conn", h.conn.ID())
	h.manager.ReleaseConnection(h.conn, nil, 0)
	return true
}

func (h *Holder) log() *slog.Logger {
	return logger(h.logger)
}

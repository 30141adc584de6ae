// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package route

import (
	"errors"
	"net/netip"
)

// Progress is the tagged state of a Tracker. Its only implementations
// are Unconnected and Connected.
type Progress interface {
	progress()
}

// Unconnected means nothing has been established yet.
type Unconnected struct{}

// Connected means the connection to the target is open. Secure tells
// whether the established connection is secure.
type Connected struct {
	Secure bool
}

func (Unconnected) progress() {}
func (Connected) progress()   {}

// ErrAlreadyConnected is returned by Tracker.ConnectTarget when the
// tracker already records an established connection.
var ErrAlreadyConnected = errors.New("httpexec/route: already connected")

// A Tracker records the progress of establishing one route on one
// connection. A Tracker is not safe for concurrent use and is never
// shared between executions.
type Tracker struct {
	target Host
	local  netip.Addr
	state  Progress
}

// NewTracker creates a tracker for the planned route r, in the
// Unconnected state.
func NewTracker(r Route) *Tracker {
	return &Tracker{
		target: r.Target,
		local:  r.Local,
		state:  Unconnected{},
	}
}

// ConnectTarget records that the connection to the target has been
// opened.
func (t *Tracker) ConnectTarget(secure bool) error {
	if _, ok := t.state.(Connected); ok {
		return ErrAlreadyConnected
	}
	t.state = Connected{Secure: secure}
	return nil
}

// Reset returns the tracker to the Unconnected state.
func (t *Tracker) Reset() {
	t.state = Unconnected{}
}

// Progress returns the current tracker state.
func (t *Tracker) Progress() Progress {
	if t.state == nil {
		return Unconnected{}
	}
	return t.state
}

// ToRoute projects the tracker onto a Route snapshot. It returns nil if
// nothing has been established yet.
func (t *Tracker) ToRoute() *Route {
	c, ok := t.state.(Connected)
	if !ok {
		return nil
	}
	return &Route{
		Target: t.target,
		Local:  t.local,
		Secure: c.Secure,
	}
}

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"context"
	"io"
	"net/http"
	"sync"
)

// A Cancellable is an operation in progress which can be cancelled,
// such as a pending connection lease or a leased connection.
type Cancellable interface {
	// Cancel cancels the operation. It reports whether this call
	// cancelled it.
	Cancel() bool
}

// An Aware tracks whether an execution has been aborted, and cancels
// the operation currently in progress when it is.
//
// The nil *Aware is never aborted.
type Aware struct {
	mu      sync.Mutex
	aborted bool
	current Cancellable
	stop    func() bool
}

// NewAware returns an Aware which is aborted when ctx is done. Call
// Release once the execution no longer needs watching.
func NewAware(ctx context.Context) *Aware {
	a := &Aware{}
	if ctx != nil && ctx.Done() != nil {
		a.stop = context.AfterFunc(ctx, a.Abort)
	}
	return a
}

// IsAborted reports whether the execution has been aborted.
func (a *Aware) IsAborted() bool {
	if a == nil {
		return false
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.aborted
}

// SetCancellable installs c as the operation in progress. If the
// execution is already aborted, c is cancelled at once.
func (a *Aware) SetCancellable(c Cancellable) {
	if a == nil {
		return
	}
	a.mu.Lock()
	if a.aborted {
		a.mu.Unlock()
		if c != nil {
			c.Cancel()
		}
		return
	}
	a.current = c
	a.mu.Unlock()
}

// Abort aborts the execution and cancels the operation in progress.
// Aborting more than once has no further effect.
func (a *Aware) Abort() {
	if a == nil {
		return
	}
	a.mu.Lock()
	if a.aborted {
		a.mu.Unlock()
		return
	}
	a.aborted = true
	c := a.current
	a.current = nil
	a.mu.Unlock()
	if c != nil {
		c.Cancel()
	}
}

// Release stops watching the context passed to NewAware.
func (a *Aware) Release() {
	if a == nil || a.stop == nil {
		return
	}
	a.stop()
}

// ReleaseWith releases a once resp is done with: at once if resp has
// no streaming body, otherwise when the body is read to the end or
// closed. Until then, aborting the execution aborts the connection the
// body is read from.
func (a *Aware) ReleaseWith(resp *http.Response) {
	if resp == nil || resp.Body == nil || resp.Body == http.NoBody {
		a.Release()
		return
	}
	resp.Body = &awareBody{ReadCloser: resp.Body, aware: a}
}

type awareBody struct {
	io.ReadCloser
	aware *Aware
	once  sync.Once
}

func (b *awareBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if err != nil {
		b.once.Do(b.aware.Release)
	}
	return n, err
}

func (b *awareBody) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.aware.Release)
	return err
}

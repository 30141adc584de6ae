// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/gogama/httpexec/route"
)

var (
	// ErrLeaseCancelled is returned by LeaseRequest.Get when the lease
	// request was cancelled.
	ErrLeaseCancelled = errors.New("httpexec/conn: connection lease cancelled")
	// ErrPoolShutdown is returned when leasing from a pool that has been
	// shut down.
	ErrPoolShutdown = errors.New("httpexec/conn: connection pool shut down")
	// ErrNotLeased is returned when an operation that requires a leased
	// connection is given a connection the pool did not lease.
	ErrNotLeased = errors.New("httpexec/conn: connection not leased from this pool")
	// ErrConnShutdown is returned when binding a socket to a connection
	// that was shut down.
	ErrConnShutdown = errors.New("httpexec/conn: connection shut down")
)

// A ConnectTimeoutError is returned when connecting to the last
// resolved address of a host timed out.
type ConnectTimeoutError struct {
	Host  route.Host
	Addrs []netip.Addr
	Err   error
}

func (err *ConnectTimeoutError) Error() string {
	return fmt.Sprintf("httpexec/conn: connect to %s%s failed: connect timed out", err.Host.HostString(), addrList(err.Addrs))
}

// Timeout always returns true.
func (err *ConnectTimeoutError) Timeout() bool {
	return true
}

func (err *ConnectTimeoutError) Unwrap() error {
	return err.Err
}

// A HostConnectError is returned when the connection to the last
// resolved address of a host was refused.
type HostConnectError struct {
	Host  route.Host
	Addrs []netip.Addr
	Err   error
}

func (err *HostConnectError) Error() string {
	return fmt.Sprintf("httpexec/conn: connect to %s%s failed: %v", err.Host.HostString(), addrList(err.Addrs), err.Err)
}

func (err *HostConnectError) Unwrap() error {
	return err.Err
}

// A PoolTimeoutError is returned when no connection could be leased
// within the lease timeout.
type PoolTimeoutError struct {
	Route   route.Route
	Timeout time.Duration
}

func (err *PoolTimeoutError) Error() string {
	return fmt.Sprintf("httpexec/conn: timeout waiting %s for connection from pool (route %s)", err.Timeout, err.Route)
}

// IsTimeout always returns true. It is named so the error is not
// mistaken for a transient network timeout.
func (err *PoolTimeoutError) IsTimeout() bool {
	return true
}

func addrList(addrs []netip.Addr) string {
	if len(addrs) == 0 {
		return ""
	}
	s := make([]string, len(addrs))
	for i := range addrs {
		s[i] = addrs[i].String()
	}
	return " [" + strings.Join(s, ", ") + "]"
}

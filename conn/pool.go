// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"context"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/gogama/httpexec/metrics"
	"github.com/gogama/httpexec/route"
)

const (
	// DefaultMaxTotal is the default limit on connections in a Pool.
	DefaultMaxTotal = 20
	// DefaultMaxPerRoute is the default limit on connections per route.
	DefaultMaxPerRoute = 2
)

// A Pool is a Manager that keeps connections partitioned by route.
//
// Released connections are kept for reuse subject to MaxTotal and the
// per-route limit. When a lease cannot be satisfied immediately, the
// caller waits in line until a connection for its route is released,
// capacity frees up, the lease times out or it is cancelled.
//
// A Pool must not be copied after first use. The zero value is a
// usable pool with a zero-value Operator and the default limits.
type Pool struct {
	// Operator opens sockets. If nil, a zero-value Operator is used.
	Operator *Operator
	// SocketConfig is applied to every socket the pool opens. If nil,
	// DefaultSocketConfig is used.
	SocketConfig *SocketConfig
	// MaxTotal limits the number of connections, leased or available,
	// across all routes. Zero means DefaultMaxTotal.
	MaxTotal int
	// DefaultMaxPerRoute limits the number of connections for a route
	// without an entry in MaxPerRoute. Zero means DefaultMaxPerRoute.
	DefaultMaxPerRoute int
	// MaxPerRoute overrides the per-route limit for specific routes.
	MaxPerRoute map[route.Route]int
	// Logger receives debug output on leases and releases.
	Logger *slog.Logger
	// Metrics, if not nil, counts connections opened and closed,
	// connect failures and lease timeouts.
	Metrics *metrics.Collector

	mu        sync.Mutex
	routes    map[route.Route]*routePool
	leased    map[*Conn]struct{}
	available []*Conn // least recently released first
	pending   []*leaseRequest
	shutdown  bool
}

// NewPool returns a pool using the given operator and limits.
func NewPool(op *Operator, maxTotal, maxPerRoute int) *Pool {
	return &Pool{
		Operator:           op,
		MaxTotal:           maxTotal,
		DefaultMaxPerRoute: maxPerRoute,
	}
}

type routePool struct {
	route     route.Route
	leased    map[*Conn]struct{}
	available []*Conn
	pending   []*leaseRequest
}

func (rp *routePool) allocated() int {
	return len(rp.leased) + len(rp.available)
}

// free removes and returns the most recently released available
// connection whose state matches state, falling back to one released
// without state.
func (rp *routePool) free(state any) *Conn {
	if state != nil {
		for i := len(rp.available) - 1; i >= 0; i-- {
			if sameState(rp.available[i].state, state) {
				return rp.take(i)
			}
		}
	}
	for i := len(rp.available) - 1; i >= 0; i-- {
		if rp.available[i].state == nil {
			return rp.take(i)
		}
	}
	return nil
}

func (rp *routePool) take(i int) *Conn {
	c := rp.available[i]
	rp.available = append(rp.available[:i], rp.available[i+1:]...)
	return c
}

func sameState(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

type leaseRequest struct {
	pool  *Pool
	route route.Route
	state any
	wake  chan struct{}

	// Guarded by pool.mu.
	queued bool
	woken  bool

	mu        sync.Mutex
	cancelled bool
	done      bool
	cancelCh  chan struct{}
}

// RequestConnection returns a lease request for a connection on route
// r. A non-nil state prefers connections released with an equal state.
func (p *Pool) RequestConnection(r route.Route, state any) LeaseRequest {
	return &leaseRequest{
		pool:     p,
		route:    r,
		state:    state,
		wake:     make(chan struct{}, 1),
		cancelCh: make(chan struct{}),
	}
}

func (l *leaseRequest) Get(ctx context.Context, timeout time.Duration) (*Conn, error) {
	return l.pool.lease(ctx, l, timeout)
}

func (l *leaseRequest) Cancel() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.done || l.cancelled {
		return false
	}
	l.cancelled = true
	close(l.cancelCh)
	return true
}

func (l *leaseRequest) signal() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (p *Pool) lease(ctx context.Context, l *leaseRequest, timeout time.Duration) (*Conn, error) {
	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	logger := p.logger()
	for {
		p.mu.Lock()
		c, discard, err := p.tryLeaseLocked(l)
		if c == nil && err == nil {
			// A waiter woken without getting a connection keeps its place.
			p.addWaiterLocked(l, l.woken)
		}
		if (c != nil && p.hasCapacityLocked()) || (err != nil && l.woken) {
			p.notifyLocked(p.routes[l.route])
		}
		p.mu.Unlock()
		p.closeAll(discard)

		if err != nil {
			return nil, err
		}
		if c != nil {
			logger.Debug("connection leased", "conn", c.ID(), "route", l.route.String(), "open", c.IsOpen())
			return c, nil
		}

		var waitErr error
		select {
		case <-l.wake:
		case <-l.cancelCh:
			waitErr = ErrLeaseCancelled
		case <-ctx.Done():
			waitErr = ctx.Err()
		case <-deadline:
			waitErr = &PoolTimeoutError{Route: l.route, Timeout: timeout}
		}

		p.mu.Lock()
		woken := l.woken && !l.queued
		p.removeWaiterLocked(l)
		if waitErr != nil && woken {
			// Pass the wake-up on so another waiter is not stranded.
			p.notifyLocked(p.routes[l.route])
		}
		p.mu.Unlock()

		if waitErr != nil {
			if _, ok := waitErr.(*PoolTimeoutError); ok {
				p.Metrics.LeaseTimeout()
			}
			return nil, waitErr
		}
	}
}

// tryLeaseLocked leases a connection to l if one is available or can
// be created. It returns nil and no error if l has to wait. Connections
// to be closed by the caller, outside the lock, are returned in
// discard.
func (p *Pool) tryLeaseLocked(l *leaseRequest) (c *Conn, discard []*Conn, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancelled {
		return nil, nil, ErrLeaseCancelled
	}
	if p.shutdown {
		return nil, nil, ErrPoolShutdown
	}
	p.initLocked()

	rp := p.routePoolLocked(l.route)
	now := nowFunc()
	for {
		c = rp.free(l.state)
		if c == nil {
			break
		}
		p.removeAvailableLocked(c)
		if c.expiredAt(now) || !c.IsOpen() {
			discard = append(discard, c)
			continue
		}
		p.leaseLocked(rp, c)
		l.done = true
		return c, discard, nil
	}

	maxPerRoute := p.maxPerRouteLocked(l.route)
	for excess := rp.allocated() + 1 - maxPerRoute; excess > 0 && len(rp.available) > 0; excess-- {
		old := rp.take(0)
		p.removeAvailableLocked(old)
		discard = append(discard, old)
	}

	if rp.allocated() < maxPerRoute {
		free := p.maxTotal() - len(p.leased)
		if free > 0 {
			if len(p.available) > 0 && len(p.available) > free-1 {
				old := p.available[0]
				p.available = p.available[1:]
				orp := p.routes[old.route]
				for i := range orp.available {
					if orp.available[i] == old {
						orp.take(i)
						break
					}
				}
				discard = append(discard, old)
			}
			c = NewConn()
			c.pool = p
			c.route = l.route
			c.created = now
			c.updated = now
			p.leaseLocked(rp, c)
			l.done = true
			return c, discard, nil
		}
	}
	return nil, discard, nil
}

func (p *Pool) leaseLocked(rp *routePool, c *Conn) {
	c.leased = true
	rp.leased[c] = struct{}{}
	p.leased[c] = struct{}{}
}

// ReleaseConnection returns c to the pool. An open connection with a
// complete route is kept for reuse; any other connection is closed.
// Releasing a connection that is not currently leased from p is
// logged and otherwise ignored.
func (p *Pool) ReleaseConnection(c *Conn, state any, validFor time.Duration) {
	logger := p.logger()
	p.mu.Lock()
	if c == nil || c.pool != p || !c.leased {
		p.mu.Unlock()
		logger.Warn("release of connection not leased from pool", "conn", c.String())
		return
	}
	rp := p.routes[c.route]
	c.leased = false
	delete(rp.leased, c)
	delete(p.leased, c)

	keep := !p.shutdown && c.routeComplete && c.IsOpen()
	if keep {
		now := nowFunc()
		c.state = state
		c.updated = now
		if validFor > 0 {
			c.expiry = now.Add(validFor)
		} else {
			c.expiry = time.Time{}
		}
		rp.available = append(rp.available, c)
		p.available = append(p.available, c)
	}
	p.notifyLocked(rp)
	p.mu.Unlock()

	if keep {
		if validFor > 0 {
			logger.Debug("connection released", "conn", c.ID(), "route", c.route.String(), "valid_for", validFor)
		} else {
			logger.Debug("connection released", "conn", c.ID(), "route", c.route.String(), "valid_for", "indefinitely")
		}
		return
	}
	p.closeAll([]*Conn{c})
}

// Connect opens the socket of leased connection c using r's target
// and local address.
func (p *Pool) Connect(ctx context.Context, c *Conn, r route.Route, timeout time.Duration) error {
	if !p.isLeased(c) {
		return ErrNotLeased
	}
	op := p.Operator
	if op == nil {
		op = &Operator{Logger: p.Logger}
	}
	cfg := DefaultSocketConfig
	if p.SocketConfig != nil {
		cfg = *p.SocketConfig
	}
	if err := op.Connect(ctx, c, r.Target, r.Local, timeout, cfg); err != nil {
		p.Metrics.ConnectFailure()
		return err
	}
	p.Metrics.ConnectionOpened()
	return nil
}

// RouteComplete marks c's route as established.
func (p *Pool) RouteComplete(c *Conn, r route.Route) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if c == nil || c.pool != p || !c.leased {
		return ErrNotLeased
	}
	c.routeComplete = true
	return nil
}

// CloseExpiredConnections closes available connections whose validity
// has expired.
func (p *Pool) CloseExpiredConnections() {
	now := nowFunc()
	p.closeAvailable(func(c *Conn) bool {
		return c.expiredAt(now)
	})
}

// CloseIdleConnections closes available connections which were
// released more than idle ago. A zero or negative idle closes every
// available connection.
func (p *Pool) CloseIdleConnections(idle time.Duration) {
	if idle < 0 {
		idle = 0
	}
	cutoff := nowFunc().Add(-idle)
	p.closeAvailable(func(c *Conn) bool {
		return !c.updated.After(cutoff)
	})
}

func (p *Pool) closeAvailable(match func(c *Conn) bool) {
	p.mu.Lock()
	var discard []*Conn
	kept := p.available[:0]
	for _, c := range p.available {
		if !match(c) {
			kept = append(kept, c)
			continue
		}
		rp := p.routes[c.route]
		for i := range rp.available {
			if rp.available[i] == c {
				rp.take(i)
				break
			}
		}
		discard = append(discard, c)
	}
	p.available = kept
	for _, c := range discard {
		p.notifyLocked(p.routes[c.route])
	}
	p.mu.Unlock()
	p.closeAll(discard)
}

// Shutdown closes available connections gracefully and shuts down
// leased ones, and fails pending and future leases with
// ErrPoolShutdown.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.shutdown {
		p.mu.Unlock()
		return
	}
	p.shutdown = true
	available := p.available
	p.available = nil
	leased := make([]*Conn, 0, len(p.leased))
	for c := range p.leased {
		leased = append(leased, c)
	}
	for _, rp := range p.routes {
		rp.available = nil
	}
	for _, l := range p.pending {
		l.queued = false
		l.woken = true
		l.signal()
	}
	p.pending = nil
	for _, rp := range p.routes {
		rp.pending = nil
	}
	p.mu.Unlock()

	p.closeAll(available)
	for _, c := range leased {
		_ = c.Shutdown()
	}
	p.logger().Debug("connection pool shut down", "available", len(available), "leased", len(leased))
}

// Stats returns the pool's current totals.
func (p *Pool) Stats() metrics.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return metrics.PoolStats{
		Leased:    len(p.leased),
		Available: len(p.available),
		Pending:   len(p.pending),
		Max:       p.maxTotal(),
	}
}

// RouteStats returns the current totals for route r.
func (p *Pool) RouteStats(r route.Route) metrics.PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := metrics.PoolStats{Max: p.maxPerRouteLocked(r)}
	if rp := p.routes[r]; rp != nil {
		s.Leased = len(rp.leased)
		s.Available = len(rp.available)
		s.Pending = len(rp.pending)
	}
	return s
}

func (p *Pool) initLocked() {
	if p.routes == nil {
		p.routes = make(map[route.Route]*routePool)
		p.leased = make(map[*Conn]struct{})
	}
}

func (p *Pool) routePoolLocked(r route.Route) *routePool {
	rp := p.routes[r]
	if rp == nil {
		rp = &routePool{route: r, leased: make(map[*Conn]struct{})}
		p.routes[r] = rp
	}
	return rp
}

func (p *Pool) removeAvailableLocked(c *Conn) {
	for i := range p.available {
		if p.available[i] == c {
			p.available = append(p.available[:i], p.available[i+1:]...)
			return
		}
	}
}

// addWaiterLocked queues l behind the other waiters, or ahead of them
// if front is set.
func (p *Pool) addWaiterLocked(l *leaseRequest, front bool) {
	rp := p.routePoolLocked(l.route)
	if front {
		rp.pending = append([]*leaseRequest{l}, rp.pending...)
		p.pending = append([]*leaseRequest{l}, p.pending...)
	} else {
		rp.pending = append(rp.pending, l)
		p.pending = append(p.pending, l)
	}
	l.queued = true
	l.woken = false
}

func (p *Pool) removeWaiterLocked(l *leaseRequest) {
	if !l.queued {
		return
	}
	if rp := p.routes[l.route]; rp != nil {
		rp.pending = removeWaiter(rp.pending, l)
	}
	p.pending = removeWaiter(p.pending, l)
	l.queued = false
}

func removeWaiter(s []*leaseRequest, l *leaseRequest) []*leaseRequest {
	for i := range s {
		if s[i] == l {
			return append(s[:i], s[i+1:]...)
		}
	}
	return s
}

// notifyLocked dequeues and wakes the first waiter for rp's route, or
// failing that the first waiter on any route. Each call wakes a
// different waiter.
func (p *Pool) notifyLocked(rp *routePool) {
	var l *leaseRequest
	switch {
	case rp != nil && len(rp.pending) > 0:
		l = rp.pending[0]
	case len(p.pending) > 0:
		l = p.pending[0]
	default:
		return
	}
	p.removeWaiterLocked(l)
	l.woken = true
	l.signal()
}

// hasCapacityLocked reports whether another lease could be served
// without waiting for a release.
func (p *Pool) hasCapacityLocked() bool {
	return len(p.pending) > 0 && (len(p.available) > 0 || len(p.leased) < p.maxTotal())
}

func (p *Pool) isLeased(c *Conn) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return c != nil && c.pool == p && c.leased
}

func (p *Pool) maxTotal() int {
	if p.MaxTotal > 0 {
		return p.MaxTotal
	}
	return DefaultMaxTotal
}

func (p *Pool) maxPerRouteLocked(r route.Route) int {
	if n, ok := p.MaxPerRoute[r]; ok && n > 0 {
		return n
	}
	if p.DefaultMaxPerRoute > 0 {
		return p.DefaultMaxPerRoute
	}
	return DefaultMaxPerRoute
}

func (p *Pool) closeAll(conns []*Conn) {
	logger := p.logger()
	for _, c := range conns {
		if err := c.Close(); err != nil {
			logger.Debug("error closing connection", "conn", c.ID(), "error", err)
		}
		if c.bound() {
			p.Metrics.ConnectionClosed()
		}
		logger.Debug("connection discarded", "conn", c.ID(), "route", c.route.String())
	}
}

func (p *Pool) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

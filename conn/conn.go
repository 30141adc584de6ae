// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"bufio"
	"crypto/tls"
	"errors"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogama/httpexec/route"
)

const bufferSize = 8 * 1024

// staleCheckTimeout is the read deadline used when probing an idle
// connection for a pending EOF.
const staleCheckTimeout = time.Millisecond

var connCounter atomic.Int64

// nowFunc returns the current time; it's overridden in tests.
var nowFunc = time.Now

// A Conn is a managed client connection. It wraps a net.Conn with
// buffered reading and writing and applies the socket timeout to every
// read and write as a deadline.
//
// A Conn never dials by itself: it starts out unbound, and the Operator
// binds a socket to it once a connection is established.
type Conn struct {
	id string

	mu            sync.Mutex
	nc            net.Conn
	br            *bufio.Reader
	bw            *bufio.Writer
	socketTimeout time.Duration
	open          bool
	closed        bool
	shut          bool

	// The remaining fields are pool bookkeeping guarded by the owning
	// pool's lock.
	pool          *Pool
	route         route.Route
	state         any
	created       time.Time
	updated       time.Time
	expiry        time.Time
	routeComplete bool
	leased        bool
}

// NewConn returns a new unbound connection.
func NewConn() *Conn {
	return &Conn{
		id: "http-outgoing-" + strconv.FormatInt(connCounter.Add(1)-1, 10),
	}
}

// ID returns the connection's diagnostic identifier.
func (c *Conn) ID() string {
	return c.id
}

func (c *Conn) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.id
}

// Bind binds an established socket to the connection. Any socket
// previously bound is replaced without being closed.
//
// A connection that was shut down cannot be bound again: Bind closes
// nc and returns ErrConnShutdown.
func (c *Conn) Bind(nc net.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.shut {
		_ = nc.Close()
		return ErrConnShutdown
	}
	c.nc = nc
	c.br = bufio.NewReaderSize(deadlineReader{c}, bufferSize)
	c.bw = bufio.NewWriterSize(deadlineWriter{c}, bufferSize)
	c.open = true
	c.closed = false
	return nil
}

// IsOpen reports whether a socket is bound and has not been closed or
// shut down.
func (c *Conn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.open
}

// IsStale reports whether an open connection turns out to be unusable,
// typically because the server closed its end while the connection was
// sitting idle in the pool. A closed connection is always stale.
func (c *Conn) IsStale() bool {
	c.mu.Lock()
	if !c.open {
		c.mu.Unlock()
		return true
	}
	br := c.br
	if br.Buffered() > 0 {
		c.mu.Unlock()
		return false
	}
	saved := c.socketTimeout
	c.socketTimeout = staleCheckTimeout
	c.mu.Unlock()

	_, err := br.Peek(1)

	c.mu.Lock()
	c.socketTimeout = saved
	c.mu.Unlock()

	if err == nil {
		return false
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return false
	}
	return true
}

// SetSocketTimeout sets the deadline applied to each individual read
// and write. Zero means I/O never times out.
func (c *Conn) SetSocketTimeout(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.socketTimeout = d
}

// SocketTimeout returns the current socket timeout.
func (c *Conn) SocketTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.socketTimeout
}

// Reader returns the buffered reader over the bound socket, or nil if
// the connection was never bound.
func (c *Conn) Reader() *bufio.Reader {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.br
}

// Writer returns the buffered writer over the bound socket, or nil if
// the connection was never bound.
func (c *Conn) Writer() *bufio.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.bw
}

// TLSState returns the TLS connection state if the bound socket is a
// TLS connection, and nil otherwise.
func (c *Conn) TLSState() *tls.ConnectionState {
	c.mu.Lock()
	nc := c.nc
	c.mu.Unlock()
	if tc, ok := nc.(*tls.Conn); ok {
		cs := tc.ConnectionState()
		return &cs
	}
	return nil
}

// LocalAddr returns the local address of the bound socket, if any.
func (c *Conn) LocalAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc == nil {
		return nil
	}
	return c.nc.LocalAddr()
}

// RemoteAddr returns the remote address of the bound socket, if any.
func (c *Conn) RemoteAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc == nil {
		return nil
	}
	return c.nc.RemoteAddr()
}

// Route returns the route the connection was leased for.
func (c *Conn) Route() route.Route {
	return c.route
}

// State returns the state token the connection was last released with.
func (c *Conn) State() any {
	return c.state
}

// Close flushes any buffered output and closes the socket gracefully.
// Closing an unbound or already closed connection is a no-op.
func (c *Conn) Close() error {
	c.mu.Lock()
	nc, bw := c.nc, c.bw
	wasClosed := c.closed
	c.open = false
	c.closed = true
	c.mu.Unlock()
	if nc == nil || wasClosed {
		return nil
	}
	ferr := bw.Flush()
	if err := nc.Close(); err != nil {
		return err
	}
	if ferr != nil && !errors.Is(ferr, net.ErrClosed) {
		return ferr
	}
	return nil
}

// Shutdown forcibly closes the socket without flushing buffered output,
// resetting the TCP connection (SO_LINGER 0) where possible. Shutdown
// may be called from any goroutine, and unblocks any read or write in
// progress. A connection that was shut down can't be bound again.
func (c *Conn) Shutdown() error {
	c.mu.Lock()
	nc := c.nc
	wasClosed := c.closed
	c.open = false
	c.closed = true
	c.shut = true
	c.mu.Unlock()
	if nc == nil || wasClosed {
		return nil
	}
	if tcp := tcpConn(nc); tcp != nil {
		_ = tcp.SetLinger(0)
	}
	return nc.Close()
}

func (c *Conn) socket() (net.Conn, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nc == nil || c.closed {
		return nil, 0, net.ErrClosed
	}
	return c.nc, c.socketTimeout, nil
}

func (c *Conn) bound() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nc != nil
}

func (c *Conn) expiredAt(now time.Time) bool {
	return !c.expiry.IsZero() && !now.Before(c.expiry)
}

type deadlineReader struct {
	c *Conn
}

func (r deadlineReader) Read(p []byte) (int, error) {
	nc, d, err := r.c.socket()
	if err != nil {
		return 0, err
	}
	if err = nc.SetReadDeadline(deadline(d)); err != nil {
		return 0, err
	}
	return nc.Read(p)
}

type deadlineWriter struct {
	c *Conn
}

func (w deadlineWriter) Write(p []byte) (int, error) {
	nc, d, err := w.c.socket()
	if err != nil {
		return 0, err
	}
	if err = nc.SetWriteDeadline(deadline(d)); err != nil {
		return 0, err
	}
	return nc.Write(p)
}

func deadline(d time.Duration) time.Time {
	if d <= 0 {
		return time.Time{}
	}
	return time.Now().Add(d)
}

func tcpConn(nc net.Conn) *net.TCPConn {
	for {
		switch x := nc.(type) {
		case *net.TCPConn:
			return x
		case interface{ NetConn() net.Conn }:
			nc = x.NetConn()
		default:
			return nil
		}
	}
}

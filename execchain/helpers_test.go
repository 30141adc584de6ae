// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gogama/httpexec/conn"
	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/route"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockManager struct {
	mock.Mock
}

func (m *mockManager) RequestConnection(r route.Route, state any) conn.LeaseRequest {
	args := m.Called(r, state)
	return args.Get(0).(conn.LeaseRequest)
}

func (m *mockManager) ReleaseConnection(c *conn.Conn, state any, validFor time.Duration) {
	m.Called(c, state, validFor)
}

func (m *mockManager) Connect(ctx context.Context, c *conn.Conn, r route.Route, timeout time.Duration) error {
	args := m.Called(ctx, c, r, timeout)
	return args.Error(0)
}

func (m *mockManager) RouteComplete(c *conn.Conn, r route.Route) error {
	args := m.Called(c, r)
	return args.Error(0)
}

func (m *mockManager) CloseExpiredConnections() {
	m.Called()
}

func (m *mockManager) CloseIdleConnections(idle time.Duration) {
	m.Called(idle)
}

func (m *mockManager) Shutdown() {
	m.Called()
}

type mockLease struct {
	mock.Mock
}

func (l *mockLease) Get(ctx context.Context, timeout time.Duration) (*conn.Conn, error) {
	args := l.Called(ctx, timeout)
	c, _ := args.Get(0).(*conn.Conn)
	return c, args.Error(1)
}

func (l *mockLease) Cancel() bool {
	args := l.Called()
	return args.Bool(0)
}

// countingManager counts connects and releases passing through to a
// real manager.
type countingManager struct {
	conn.Manager
	mu       sync.Mutex
	connects int
	releases []release
}

type release struct {
	conn     *conn.Conn
	state    any
	validFor time.Duration
}

func (m *countingManager) Connect(ctx context.Context, c *conn.Conn, r route.Route, timeout time.Duration) error {
	m.mu.Lock()
	m.connects++
	m.mu.Unlock()
	return m.Manager.Connect(ctx, c, r, timeout)
}

func (m *countingManager) ReleaseConnection(c *conn.Conn, state any, validFor time.Duration) {
	m.mu.Lock()
	m.releases = append(m.releases, release{c, state, validFor})
	m.mu.Unlock()
	m.Manager.ReleaseConnection(c, state, validFor)
}

func (m *countingManager) numConnects() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connects
}

func (m *countingManager) numReleases() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.releases)
}

// pipeConn returns an open connection whose peer is served by serve
// on another goroutine.
func pipeConn(t *testing.T, serve func(br *bufio.Reader, w io.Writer)) *conn.Conn {
	a, b := net.Pipe()
	t.Cleanup(func() {
		_ = a.Close()
		_ = b.Close()
	})
	go serve(bufio.NewReader(b), b)
	c := conn.NewConn()
	require.NoError(t, c.Bind(a))
	return c
}

// respond serves one request on a pipe with a canned response.
func respond(response string) func(br *bufio.Reader, w io.Writer) {
	return func(br *bufio.Reader, w io.Writer) {
		req, err := http.ReadRequest(br)
		if err != nil {
			return
		}
		_, _ = io.Copy(io.Discard, req.Body)
		_, _ = io.WriteString(w, response)
	}
}

func testRoute() route.Route {
	return route.Route{Target: route.Host{Name: "example.com", Port: 80, Scheme: "http"}}
}

func testRequest(t *testing.T, method, url string, body any) *request.Request {
	req, err := request.NewRequest(method, url, body)
	require.NoError(t, err)
	return req.Wrap()
}

func testExecution() *request.Execution {
	e := &request.Execution{Config: request.DefaultConfig}
	e.Config.StaleConnectionCheck = false
	return e
}

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogama/httpexec/conn"
	"github.com/gogama/httpexec/protocol"
	"github.com/gogama/httpexec/request"
	"github.com/gogama/httpexec/retry"
	"github.com/gogama/httpexec/route"
	"github.com/gogama/httpexec/timeout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serverFactory connects every host to one test server over TLS.
type serverFactory struct {
	addr string
}

func (f serverFactory) ConnectSocket(ctx context.Context, d *net.Dialer, host route.Host, _ netip.AddrPort) (net.Conn, error) {
	raw, err := d.DialContext(ctx, "tcp", f.addr)
	if err != nil {
		return nil, err
	}
	tc := tls.Client(raw, &tls.Config{InsecureSkipVerify: true, ServerName: host.Name})
	if err = tc.HandshakeContext(ctx); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return tc, nil
}

func testChain(t *testing.T, srv *httptest.Server, socketTimeout time.Duration, policy retry.Policy) (Executor, *countingManager, *conn.Pool) {
	pool := conn.NewPool(&conn.Operator{
		Registry: conn.Registry{"https": serverFactory{addr: srv.Listener.Addr().String()}},
		Resolver: conn.ResolverFunc(func(context.Context, string) ([]netip.Addr, error) {
			return []netip.Addr{netip.MustParseAddr("192.0.2.10")}, nil
		}),
	}, 10, 1)
	t.Cleanup(pool.Shutdown)
	m := &countingManager{Manager: pool}

	proc := protocol.NewStandard(protocol.Options{UserAgent: "httpexec-test", DisableCookies: true, DisableCompression: true})
	proc.AddRequestLast(protocol.RequestInterceptorFunc(func(req *request.Request, e *request.Execution) error {
		req.Header.Add("X-Attempt", strconv.Itoa(e.ExecCount))
		return nil
	}))
	chain := &RedirectExec{
		Next: &RetryExec{
			Next: &ProtocolExec{
				Next:      &MainExec{Manager: m, Timeouts: timeout.Fixed(socketTimeout)},
				Processor: proc,
			},
			Policy: policy,
		},
	}
	return chain, m, pool
}

func apiRoute(t *testing.T) route.Route {
	r, err := route.DefaultPlanner.Plan(route.Host{Name: "api.example.com", Port: 443, Scheme: "https"}, netip.Addr{})
	require.NoError(t, err)
	return r
}

func TestChain_RetryAfterTimeout(t *testing.T) {
	var calls atomic.Int32
	headers := make(chan *http.Request, 2)
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Clone(context.Background())
		if calls.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(5 * time.Second):
			}
			return
		}
		w.Header().Set("Content-Length", "5")
		_, _ = io.WriteString(w, "hello")
	}))
	defer srv.Close()
	chain, m, pool := testChain(t, srv, 200*time.Millisecond,
		retry.NewPolicy(retry.Times(1).And(retry.TransientErr), retry.Fixed(0)))

	req, err := request.NewRequest("GET", "https://api.example.com:443/v1/items", nil)
	require.NoError(t, err)
	req.Header.Set("X-Original", "kept")
	e := testExecution()
	aware := NewAware(req.Context())
	defer aware.Release()

	resp, err := chain.Execute(apiRoute(t), req.Wrap(), e, aware)

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 2, e.ExecCount)
	assert.Equal(t, 1, e.AttemptTimeouts)
	assert.Equal(t, 2, m.numConnects())
	assert.Equal(t, 1, m.numReleases(), "first connection released on timeout, second still leased")

	<-headers
	second := <-headers
	assert.Equal(t, "kept", second.Header.Get("X-Original"))
	assert.Equal(t, []string{"2"}, second.Header.Values("X-Attempt"))
	assert.Equal(t, "api.example.com:443", second.Host)
	assert.Equal(t, "/v1/items", second.RequestURI)

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, 2, m.numReleases())
	assert.Equal(t, 1, pool.Stats().Available)
	assert.Equal(t, 0, pool.Stats().Leased)
	assert.Empty(t, req.Header.Values("X-Attempt"))
}

func TestChain_ReusesConnection(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()
	chain, m, _ := testChain(t, srv, time.Second, retry.Never)

	for i := 0; i < 3; i++ {
		req, err := request.NewRequest("GET", "https://api.example.com/", nil)
		require.NoError(t, err)
		resp, err := chain.Execute(apiRoute(t), req.Wrap(), testExecution(), nil)
		require.NoError(t, err)
		_, err = io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, resp.Body.Close())
	}

	assert.Equal(t, 1, m.numConnects())
	assert.Equal(t, 3, m.numReleases())
}

func TestChain_LeaseWaitCancelled(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer srv.Close()
	chain, m, _ := testChain(t, srv, time.Second, retry.Never)

	// Hold the route's only connection.
	first, err := request.NewRequest("GET", "https://api.example.com/", nil)
	require.NoError(t, err)
	resp, err := chain.Execute(apiRoute(t), first.Wrap(), testExecution(), nil)
	require.NoError(t, err)
	defer resp.Body.Close()

	ctx, cancel := context.WithCancel(context.Background())
	second, err := request.NewRequestWithContext(ctx, "GET", "https://api.example.com/", nil)
	require.NoError(t, err)
	aware := NewAware(ctx)
	defer aware.Release()
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err = chain.Execute(apiRoute(t), second.Wrap(), testExecution(), aware)

	var ae *AbortedError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 1, m.numConnects())
}

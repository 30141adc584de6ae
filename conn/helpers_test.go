// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"context"
	"net"
	"net/netip"
	"os"
	"sync"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/httpexec/route"
)

// pipeFactory is a SocketFactory which connects with in-memory pipes
// and fails for the addresses listed in fail.
type pipeFactory struct {
	mu      sync.Mutex
	fail    map[netip.Addr]error
	remotes []netip.AddrPort
	peers   []net.Conn
}

func (f *pipeFactory) ConnectSocket(_ context.Context, _ *net.Dialer, _ route.Host, remote netip.AddrPort) (net.Conn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remotes = append(f.remotes, remote)
	if err := f.fail[remote.Addr()]; err != nil {
		return nil, err
	}
	a, b := net.Pipe()
	f.peers = append(f.peers, b)
	return a, nil
}

func (f *pipeFactory) attempts() []netip.AddrPort {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]netip.AddrPort(nil), f.remotes...)
}

func (f *pipeFactory) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.peers {
		_ = p.Close()
	}
}

func staticResolver(addrs ...string) Resolver {
	return ResolverFunc(func(_ context.Context, _ string) ([]netip.Addr, error) {
		result := make([]netip.Addr, len(addrs))
		for i := range addrs {
			result[i] = netip.MustParseAddr(addrs[i])
		}
		return result, nil
	})
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func dialTimeout() error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: timeoutErr{}}
}

func dialErrno(errno syscall.Errno) error {
	return &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", errno)}
}

func testPool(t *testing.T, maxTotal, maxPerRoute int) (*Pool, *pipeFactory) {
	f := &pipeFactory{}
	t.Cleanup(f.close)
	p := NewPool(&Operator{
		Registry: Registry{"http": f, "https": f},
		Resolver: staticResolver("10.0.0.1"),
	}, maxTotal, maxPerRoute)
	t.Cleanup(p.Shutdown)
	return p, f
}

func testRoute(name string) route.Route {
	return route.Route{Target: route.Host{Name: name, Port: 80, Scheme: "http"}}
}

// leaseOpen leases a connection on r and connects it if needed.
func leaseOpen(t *testing.T, p *Pool, r route.Route, state any) *Conn {
	c, err := p.RequestConnection(r, state).Get(context.Background(), time.Second)
	if err != nil {
		t.Fatalf("lease failed: %v", err)
	}
	if !c.IsOpen() {
		if err = p.Connect(context.Background(), c, r, time.Second); err != nil {
			t.Fatalf("connect failed: %v", err)
		}
		if err = p.RouteComplete(c, r); err != nil {
			t.Fatalf("route complete failed: %v", err)
		}
	}
	return c
}

func setNow(t *testing.T, now *time.Time) {
	old := nowFunc
	nowFunc = func() time.Time { return *now }
	t.Cleanup(func() { nowFunc = old })
}

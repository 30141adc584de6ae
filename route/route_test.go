// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package route

import (
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHost(t *testing.T) {
	t.Run("HostString", func(t *testing.T) {
		assert.Equal(t, "example.com", Host{Name: "example.com"}.HostString())
		assert.Equal(t, "example.com:8080", Host{Name: "example.com", Port: 8080}.HostString())
		assert.Equal(t, "[::1]:443", Host{Name: "::1", Port: 443}.HostString())
	})
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "http://example.com", Host{Name: "example.com"}.String())
		assert.Equal(t, "https://example.com:443", Host{Name: "example.com", Port: 443, Scheme: "https"}.String())
	})
	t.Run("Equal", func(t *testing.T) {
		a := Host{Name: "Example.COM", Port: 80, Scheme: "HTTP"}
		b := Host{Name: "example.com", Port: 80, Scheme: "http"}
		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(Host{Name: "example.com", Port: 81, Scheme: "http"}))
		assert.False(t, a.Equal(Host{Name: "example.org", Port: 80, Scheme: "http"}))
	})
}

func TestRoute(t *testing.T) {
	r1 := Route{Target: Host{Name: "a", Port: 1, Scheme: "http"}}
	r2 := Route{Target: Host{Name: "a", Port: 1, Scheme: "http"}}
	assert.Equal(t, r1, r2)
	m := map[Route]int{r1: 1}
	assert.Equal(t, 1, m[r2], "equal routes must share a map key")
	r3 := r1
	r3.Local = netip.MustParseAddr("10.0.0.1")
	_, ok := m[r3]
	assert.False(t, ok)
	assert.Equal(t, "{}->http://a:1", r1.String())
	r3.Secure = true
	assert.Equal(t, "10.0.0.1->{s}->http://a:1", r3.String())
}

func TestTracker(t *testing.T) {
	r := Route{Target: Host{Name: "api.example.com", Port: 443, Scheme: "https"}, Secure: true}
	tr := NewTracker(r)
	assert.Equal(t, Unconnected{}, tr.Progress())
	assert.Nil(t, tr.ToRoute())

	assert.NoError(t, tr.ConnectTarget(true))
	assert.Equal(t, Connected{Secure: true}, tr.Progress())
	fact := tr.ToRoute()
	if assert.NotNil(t, fact) {
		assert.Equal(t, r, *fact)
	}
	assert.ErrorIs(t, tr.ConnectTarget(true), ErrAlreadyConnected)

	fact.Secure = false
	assert.Equal(t, true, tr.ToRoute().Secure, "snapshot must not alias tracker state")

	tr.Reset()
	assert.Nil(t, tr.ToRoute())
	assert.Equal(t, Unconnected{}, tr.Progress())
}

func TestDirect(t *testing.T) {
	local := netip.MustParseAddr("192.168.1.10")
	other := netip.MustParseAddr("192.168.1.11")
	plan := Route{Target: Host{Name: "h", Port: 80, Scheme: "http"}}
	planLocal := plan
	planLocal.Local = local

	testCases := []struct {
		name string
		plan Route
		fact *Route
		step Step
	}{
		{"nil fact", plan, nil, ConnectTarget},
		{"same", plan, &plan, Complete},
		{"plan local unset, fact local set", plan, &Route{Target: plan.Target, Local: local}, Complete},
		{"plan local equals fact local", planLocal, &Route{Target: plan.Target, Local: local}, Complete},
		{"plan local differs", planLocal, &Route{Target: plan.Target, Local: other}, Unreachable},
		{"plan local set, fact local unset", planLocal, &Route{Target: plan.Target}, Unreachable},
		{"target differs", plan, &Route{Target: Host{Name: "x", Port: 80, Scheme: "http"}}, Unreachable},
		{"port differs", plan, &Route{Target: Host{Name: "h", Port: 81, Scheme: "http"}}, Unreachable},
		{"secure differs", plan, &Route{Target: plan.Target, Secure: true}, Unreachable},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.step, Direct.NextStep(testCase.plan, testCase.fact))
		})
	}
}

func TestStepString(t *testing.T) {
	assert.Equal(t, "Unreachable", Unreachable.String())
	assert.Equal(t, "Complete", Complete.String())
	assert.Equal(t, "ConnectTarget", ConnectTarget.String())
	assert.Equal(t, "Step(?)", Step(99).String())
}

func TestDirectPlanner(t *testing.T) {
	t.Run("default ports", func(t *testing.T) {
		r, err := DefaultPlanner.Plan(Host{Name: "api.example.com", Scheme: "https"}, netip.Addr{})
		assert.NoError(t, err)
		assert.Equal(t, Route{Target: Host{Name: "api.example.com", Port: 443, Scheme: "https"}, Secure: true}, r)

		r, err = DefaultPlanner.Plan(Host{Name: "example.com", Scheme: "http"}, netip.Addr{})
		assert.NoError(t, err)
		assert.Equal(t, 80, r.Target.Port)
		assert.False(t, r.Secure)
	})
	t.Run("explicit port", func(t *testing.T) {
		r, err := DefaultPlanner.Plan(Host{Name: "example.com", Port: 8443, Scheme: "HTTPS"}, netip.Addr{})
		assert.NoError(t, err)
		assert.Equal(t, 8443, r.Target.Port)
		assert.Equal(t, "https", r.Target.Scheme)
		assert.True(t, r.Secure)
	})
	t.Run("local address", func(t *testing.T) {
		local := netip.MustParseAddr("127.0.0.1")
		r, err := DefaultPlanner.Plan(Host{Name: "example.com", Scheme: "http"}, local)
		assert.NoError(t, err)
		assert.Equal(t, local, r.Local)
	})
	t.Run("name normalisation", func(t *testing.T) {
		r, err := DefaultPlanner.Plan(Host{Name: "ExAmple.COM", Scheme: "http"}, netip.Addr{})
		assert.NoError(t, err)
		assert.Equal(t, "example.com", r.Target.Name)
		r, err = DefaultPlanner.Plan(Host{Name: "::1", Scheme: "http"}, netip.Addr{})
		assert.NoError(t, err)
		assert.Equal(t, "::1", r.Target.Name)
	})
	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := DefaultPlanner.Plan(Host{Name: "example.com", Scheme: "gopher"}, netip.Addr{})
		var use *UnsupportedSchemeError
		assert.ErrorAs(t, err, &use)
		assert.Equal(t, "gopher", use.Scheme)
		assert.EqualError(t, err, "httpexec/route: gopher protocol is not supported")
	})
	t.Run("overridden table", func(t *testing.T) {
		p := &DirectPlanner{Ports: SchemePorts{"gopher": 70}}
		r, err := p.Plan(Host{Name: "example.com", Scheme: "gopher"}, netip.Addr{})
		assert.NoError(t, err)
		assert.Equal(t, 70, r.Target.Port)
		_, err = p.Plan(Host{Name: "example.com", Scheme: "http"}, netip.Addr{})
		assert.Error(t, err)
	})
	t.Run("no target", func(t *testing.T) {
		_, err := DefaultPlanner.Plan(Host{Scheme: "http"}, netip.Addr{})
		assert.ErrorIs(t, err, ErrNoTarget)
	})
}

func TestUnreachableError(t *testing.T) {
	plan := Route{Target: Host{Name: "h", Port: 80, Scheme: "http"}}
	err := &UnreachableError{Planned: plan}
	assert.EqualError(t, err, "httpexec/route: unable to establish route: planned = {}->http://h:80; current = <none>")
	err.Current = &Route{Target: plan.Target, Secure: true}
	assert.EqualError(t, err, "httpexec/route: unable to establish route: planned = {}->http://h:80; current = {s}->http://h:80")
}

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/gogama/httpexec/request"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	t.Run("Decider", func(t *testing.T) {
		for i := 1; i <= DefaultTimes; i++ {
			assert.True(t, DefaultPolicy.Decide(&request.Execution{
				Request:   &request.Request{Method: "GET"},
				ExecCount: i,
				Err:       syscall.ECONNRESET,
			}))
		}
		assert.False(t, DefaultPolicy.Decide(&request.Execution{
			Request:   &request.Request{Method: "GET"},
			ExecCount: DefaultTimes + 1,
			Err:       syscall.ETIMEDOUT,
		}))
	})
	t.Run("Waiter", func(t *testing.T) {
		m := []int{50, 100, 200, 400, 800, 1000}
		total := time.Duration(0)
		for i, max := range m {
			e := request.Execution{ExecCount: i + 1}
			w := DefaultPolicy.Wait(&e)
			total += w
			assert.GreaterOrEqual(t, w, time.Duration(0))
			assert.LessOrEqual(t, w, time.Duration(max)*time.Millisecond)
		}
		assert.Greater(t, total, time.Duration(0))
	})
}

func TestNever(t *testing.T) {
	assert.False(t, Never.Decide(&request.Execution{ExecCount: 1, Err: syscall.ECONNRESET}))
	assert.Equal(t, time.Duration(0), Never.Wait(&request.Execution{}))
}

func TestStandard(t *testing.T) {
	post := func(n int, sent bool) *request.Execution {
		return &request.Execution{
			Request:     &request.Request{Method: "POST"},
			ExecCount:   n,
			RequestSent: sent,
			Err:         syscall.ECONNRESET,
		}
	}
	t.Run("sent not idempotent", func(t *testing.T) {
		p := Standard(2, false, Fixed(time.Millisecond))
		assert.True(t, p.Decide(post(1, false)))
		assert.True(t, p.Decide(post(2, false)))
		assert.False(t, p.Decide(post(3, false)))
		assert.False(t, p.Decide(post(1, true)))
		assert.Equal(t, time.Millisecond, p.Wait(post(1, false)))
	})
	t.Run("sent retry", func(t *testing.T) {
		p := Standard(2, true, Fixed(0))
		assert.True(t, p.Decide(post(1, true)))
		assert.False(t, p.Decide(post(3, true)))
	})
	t.Run("not transient", func(t *testing.T) {
		p := Standard(2, true, Fixed(0))
		e := post(1, false)
		e.Err = errors.New("not an I/O error")
		assert.False(t, p.Decide(e))
	})
	t.Run("zero times", func(t *testing.T) {
		assert.False(t, Standard(0, true, Fixed(0)).Decide(post(1, false)))
	})
}

func TestNewPolicy(t *testing.T) {
	p := &testPolicy{}
	t.Run("Bad Args", func(t *testing.T) {
		assert.PanicsWithValue(t, "httpexec/retry: nil decider", func() { NewPolicy(nil, p) })
		assert.PanicsWithValue(t, "httpexec/retry: nil waiter", func() { NewPolicy(p, nil) })
	})
	t.Run("Normal", func(t *testing.T) {
		P := NewPolicy(p, p)
		assert.True(t, P.Decide(&request.Execution{}))
		assert.Equal(t, 1, p.d)
		assert.Equal(t, time.Second, P.Wait(&request.Execution{}))
		assert.Equal(t, 1, p.w)
	})
}

type testPolicy struct {
	d int
	w int
}

func (p *testPolicy) Decide(_ *request.Execution) bool {
	p.d++
	return true
}

func (p *testPolicy) Wait(_ *request.Execution) time.Duration {
	p.w++
	return time.Second
}

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookie

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2021, 6, 1, 12, 0, 0, 0, time.UTC)

func setNow(t *testing.T, now time.Time) {
	old := nowFunc
	nowFunc = func() time.Time { return now }
	t.Cleanup(func() { nowFunc = old })
}

func TestCookie(t *testing.T) {
	c := &Cookie{Name: "a", Domain: "Example.COM", Path: "/"}
	assert.False(t, c.IsExpired(t0))
	assert.False(t, c.Persistent())
	assert.Equal(t, "a;example.com;/", c.Key())
	c.Expires = t0
	assert.True(t, c.IsExpired(t0))
	assert.False(t, c.IsExpired(t0.Add(-time.Nanosecond)))
	assert.True(t, c.Persistent())
}

func TestMemoryStore(t *testing.T) {
	setNow(t, t0)

	t.Run("add and replace", func(t *testing.T) {
		var s MemoryStore
		require.NoError(t, s.Add(&Cookie{Name: "a", Value: "1", Domain: "x.com", Path: "/", Created: t0}))
		require.NoError(t, s.Add(&Cookie{Name: "b", Value: "2", Domain: "x.com", Path: "/"}))
		require.NoError(t, s.Add(&Cookie{Name: "a", Value: "3", Domain: "x.com", Path: "/", Created: t0.Add(time.Hour)}))
		require.NoError(t, s.Add(nil))

		cookies, err := s.Cookies()
		require.NoError(t, err)
		require.Len(t, cookies, 2)
		assert.Equal(t, "a", cookies[0].Name)
		assert.Equal(t, "3", cookies[0].Value)
		assert.Equal(t, t0, cookies[0].Created)
		assert.Equal(t, "b", cookies[1].Name)

		cookies[0].Value = "mutated"
		again, _ := s.Cookies()
		assert.Equal(t, "3", again[0].Value)
	})
	t.Run("expired cookie removes", func(t *testing.T) {
		var s MemoryStore
		require.NoError(t, s.Add(&Cookie{Name: "a", Domain: "x.com", Path: "/"}))
		require.NoError(t, s.Add(&Cookie{Name: "a", Domain: "x.com", Path: "/", Expires: t0.Add(-time.Second)}))
		cookies, _ := s.Cookies()
		assert.Empty(t, cookies)
	})
	t.Run("clear expired", func(t *testing.T) {
		var s MemoryStore
		require.NoError(t, s.Add(&Cookie{Name: "a", Domain: "x.com", Path: "/", Expires: t0.Add(time.Second)}))
		require.NoError(t, s.Add(&Cookie{Name: "b", Domain: "x.com", Path: "/"}))
		removed, err := s.ClearExpired(t0)
		require.NoError(t, err)
		assert.False(t, removed)
		removed, _ = s.ClearExpired(t0.Add(time.Second))
		assert.True(t, removed)
		cookies, _ := s.Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "b", cookies[0].Name)
		require.NoError(t, s.Clear())
		cookies, _ = s.Cookies()
		assert.Empty(t, cookies)
	})
	t.Run("concurrent", func(t *testing.T) {
		var s MemoryStore
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = s.Add(&Cookie{Name: string(rune('a' + i)), Domain: "x.com", Path: "/"})
				_, _ = s.Cookies()
			}(i)
		}
		wg.Wait()
		cookies, _ := s.Cookies()
		assert.Len(t, cookies, 10)
	})
}

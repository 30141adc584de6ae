// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookie

import (
	"sort"
	"sync"
	"time"
)

// A Store holds cookies between requests. Implementations must be safe
// for concurrent use.
type Store interface {
	// Add adds c, replacing any cookie with the same key. An expired
	// cookie removes the one it replaces and is not stored.
	Add(c *Cookie) error
	// Cookies returns a snapshot of the stored cookies in the order they
	// were created.
	Cookies() ([]*Cookie, error)
	// ClearExpired removes cookies which have expired at now and
	// reports whether any were removed.
	ClearExpired(now time.Time) (bool, error)
	// Clear removes every cookie.
	Clear() error
}

// MemoryStore is an in-memory Store. The zero value is an empty store
// ready to use.
type MemoryStore struct {
	mu      sync.RWMutex
	cookies map[string]*Cookie
	seq     map[string]uint64
	next    uint64
}

// nowFunc returns the current time; it's overridden in tests.
var nowFunc = time.Now

func (s *MemoryStore) Add(c *Cookie) error {
	if c == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	k := c.Key()
	if c.IsExpired(nowFunc()) {
		delete(s.cookies, k)
		delete(s.seq, k)
		return nil
	}
	if s.cookies == nil {
		s.cookies = make(map[string]*Cookie)
		s.seq = make(map[string]uint64)
	}
	cp := *c
	if old, ok := s.cookies[k]; ok && !old.Created.IsZero() {
		cp.Created = old.Created
	}
	s.cookies[k] = &cp
	if _, ok := s.seq[k]; !ok {
		s.seq[k] = s.next
		s.next++
	}
	return nil
}

func (s *MemoryStore) Cookies() ([]*Cookie, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.cookies))
	for k := range s.cookies {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.seq[keys[i]] < s.seq[keys[j]]
	})
	result := make([]*Cookie, len(keys))
	for i, k := range keys {
		cp := *s.cookies[k]
		result[i] = &cp
	}
	return result, nil
}

func (s *MemoryStore) ClearExpired(now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := false
	for k, c := range s.cookies {
		if c.IsExpired(now) {
			delete(s.cookies, k)
			delete(s.seq, k)
			removed = true
		}
	}
	return removed, nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cookies = nil
	s.seq = nil
	return nil
}

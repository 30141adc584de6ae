// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package conn

import (
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tcpPair(t *testing.T) (client net.Conn, server net.Conn) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	accepted := make(chan net.Conn, 1)
	go func() {
		s, _ := ln.Accept()
		accepted <- s
	}()
	client, err = net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	server = <-accepted
	require.NotNil(t, server)
	t.Cleanup(func() {
		_ = client.Close()
		_ = server.Close()
	})
	return
}

func TestConn(t *testing.T) {
	t.Run("unbound", func(t *testing.T) {
		c := NewConn()
		assert.True(t, strings.HasPrefix(c.ID(), "http-outgoing-"))
		assert.False(t, c.IsOpen())
		assert.True(t, c.IsStale())
		assert.Nil(t, c.Reader())
		assert.Nil(t, c.Writer())
		assert.Nil(t, c.TLSState())
		assert.Nil(t, c.LocalAddr())
		assert.NoError(t, c.Close())
		assert.NoError(t, c.Shutdown())
	})
	t.Run("distinct ids", func(t *testing.T) {
		assert.NotEqual(t, NewConn().ID(), NewConn().ID())
	})
	t.Run("read write", func(t *testing.T) {
		client, server := tcpPair(t)
		c := NewConn()
		require.NoError(t, c.Bind(client))
		require.True(t, c.IsOpen())
		assert.NotNil(t, c.LocalAddr())
		assert.Equal(t, server.LocalAddr().String(), c.RemoteAddr().String())

		_, err := c.Writer().WriteString("ping")
		require.NoError(t, err)
		require.NoError(t, c.Writer().Flush())
		buf := make([]byte, 4)
		_, err = io.ReadFull(server, buf)
		require.NoError(t, err)
		assert.Equal(t, "ping", string(buf))

		_, err = server.Write([]byte("pong"))
		require.NoError(t, err)
		_, err = io.ReadFull(c.Reader(), buf)
		require.NoError(t, err)
		assert.Equal(t, "pong", string(buf))

		require.NoError(t, c.Close())
		assert.False(t, c.IsOpen())
		assert.NoError(t, c.Close())
	})
	t.Run("socket timeout", func(t *testing.T) {
		client, _ := tcpPair(t)
		c := NewConn()
		require.NoError(t, c.Bind(client))
		c.SetSocketTimeout(20 * time.Millisecond)
		assert.Equal(t, 20*time.Millisecond, c.SocketTimeout())
		_, err := c.Reader().ReadByte()
		var ne net.Error
		require.True(t, errors.As(err, &ne))
		assert.True(t, ne.Timeout())
	})
	t.Run("stale", func(t *testing.T) {
		client, server := tcpPair(t)
		c := NewConn()
		require.NoError(t, c.Bind(client))
		c.SetSocketTimeout(time.Second)
		assert.False(t, c.IsStale())
		assert.Equal(t, time.Second, c.SocketTimeout())

		require.NoError(t, server.Close())
		assert.Eventually(t, c.IsStale, time.Second, 10*time.Millisecond)
	})
	t.Run("buffered data is not stale", func(t *testing.T) {
		client, server := tcpPair(t)
		c := NewConn()
		require.NoError(t, c.Bind(client))
		_, err := server.Write([]byte("xy"))
		require.NoError(t, err)
		b, err := c.Reader().ReadByte()
		require.NoError(t, err)
		assert.Equal(t, byte('x'), b)
		require.NoError(t, server.Close())
		assert.False(t, c.IsStale())
	})
	t.Run("shutdown unblocks read", func(t *testing.T) {
		client, _ := tcpPair(t)
		c := NewConn()
		require.NoError(t, c.Bind(client))
		done := make(chan error, 1)
		go func() {
			_, err := c.Reader().ReadByte()
			done <- err
		}()
		time.Sleep(20 * time.Millisecond)
		require.NoError(t, c.Shutdown())
		select {
		case err := <-done:
			assert.Error(t, err)
		case <-time.After(time.Second):
			t.Fatal("read not unblocked by shutdown")
		}
		assert.False(t, c.IsOpen())
		assert.NoError(t, c.Shutdown())
		assert.NoError(t, c.Close())
	})
	t.Run("bind after shutdown", func(t *testing.T) {
		c := NewConn()
		require.NoError(t, c.Shutdown())
		client, server := tcpPair(t)

		assert.ErrorIs(t, c.Bind(client), ErrConnShutdown)
		assert.False(t, c.IsOpen())
		assert.Nil(t, c.Reader())
		require.NoError(t, server.SetReadDeadline(time.Now().Add(time.Second)))
		_, err := server.Read(make([]byte, 1))
		assert.ErrorIs(t, err, io.EOF)
	})
	t.Run("bind after close", func(t *testing.T) {
		c := NewConn()
		client, _ := tcpPair(t)
		require.NoError(t, c.Bind(client))
		require.NoError(t, c.Close())
		client2, _ := tcpPair(t)

		require.NoError(t, c.Bind(client2))
		assert.True(t, c.IsOpen())
	})
}

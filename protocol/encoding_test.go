// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcceptEncoding(t *testing.T) {
	r := newTestRequest(t, "GET", "https://example.com", nil)
	require.NoError(t, AcceptEncoding{}.ProcessRequest(r, testExecution()))
	assert.Equal(t, "gzip,deflate", r.Header.Get("Accept-Encoding"))

	r.Header.Set("Accept-Encoding", "br")
	require.NoError(t, AcceptEncoding{}.ProcessRequest(r, testExecution()))
	assert.Equal(t, "br", r.Header.Get("Accept-Encoding"))
}

func TestContentEncoding(t *testing.T) {
	const text = "the quick brown fox jumps over the lazy dog"

	encoders := []struct {
		name     string
		encoding string
		encode   func(io.Writer) io.WriteCloser
	}{
		{"gzip", "gzip", func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) }},
		{"x-gzip", "X-GZIP", func(w io.Writer) io.WriteCloser { return gzip.NewWriter(w) }},
		{"zlib deflate", "deflate", func(w io.Writer) io.WriteCloser { return zlib.NewWriter(w) }},
		{"raw deflate", "deflate", func(w io.Writer) io.WriteCloser {
			fw, _ := flate.NewWriter(w, flate.DefaultCompression)
			return fw
		}},
	}
	for _, enc := range encoders {
		t.Run(enc.name, func(t *testing.T) {
			var buf bytes.Buffer
			w := enc.encode(&buf)
			_, err := w.Write([]byte(text))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			body := &closeRecorder{Reader: &buf}
			resp := &http.Response{
				Header: http.Header{
					"Content-Encoding": []string{enc.encoding},
					"Content-Length":   []string{"99"},
					"Content-Md5":      []string{"x"},
				},
				ContentLength: 99,
				Body:          body,
			}
			require.NoError(t, (&ContentEncoding{}).ProcessResponse(resp, testExecution()))
			assert.True(t, resp.Uncompressed)
			assert.Equal(t, int64(-1), resp.ContentLength)
			assert.Empty(t, resp.Header)

			b, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, text, string(b))
			require.NoError(t, resp.Body.Close())
			assert.True(t, body.closed)
		})
	}
	t.Run("not encoded", func(t *testing.T) {
		body := io.NopCloser(bytes.NewReader(nil))
		resp := &http.Response{Header: http.Header{}, Body: body}
		require.NoError(t, (&ContentEncoding{}).ProcessResponse(resp, testExecution()))
		assert.Same(t, body, resp.Body)
		resp.Header.Set("Content-Encoding", "identity")
		require.NoError(t, (&ContentEncoding{}).ProcessResponse(resp, testExecution()))
		assert.Same(t, body, resp.Body)
	})
	t.Run("no body", func(t *testing.T) {
		resp := &http.Response{Header: http.Header{"Content-Encoding": []string{"gzip"}}, Body: http.NoBody}
		require.NoError(t, (&ContentEncoding{}).ProcessResponse(resp, testExecution()))
		assert.Equal(t, "gzip", resp.Header.Get("Content-Encoding"))
	})
	t.Run("unknown coding", func(t *testing.T) {
		body := io.NopCloser(bytes.NewReader(nil))
		resp := &http.Response{Header: http.Header{"Content-Encoding": []string{"br"}}, Body: body}
		require.NoError(t, (&ContentEncoding{}).ProcessResponse(resp, testExecution()))
		assert.Same(t, body, resp.Body)
		err := (&ContentEncoding{RejectUnknown: true}).ProcessResponse(resp, testExecution())
		assert.EqualError(t, err, "httpexec/protocol: unsupported Content-Encoding: br")
	})
	t.Run("corrupt gzip", func(t *testing.T) {
		resp := &http.Response{
			Header: http.Header{"Content-Encoding": []string{"gzip"}},
			Body:   io.NopCloser(bytes.NewReader([]byte("not gzip"))),
		}
		require.NoError(t, (&ContentEncoding{}).ProcessResponse(resp, testExecution()))
		_, err := io.ReadAll(resp.Body)
		assert.ErrorIs(t, err, gzip.ErrHeader)
		_, err = resp.Body.Read(make([]byte, 1))
		assert.ErrorIs(t, err, gzip.ErrHeader)
	})
}

type closeRecorder struct {
	io.Reader
	closed bool
}

func (r *closeRecorder) Close() error {
	r.closed = true
	return nil
}

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var newRequestTestCases = []struct {
	name    string
	method  string
	url     string
	body    any
	asserts func(*testing.T, *Request, error)
}{
	{
		name:   "empty method means GET",
		method: "",
		url:    "https://foo.com",
		asserts: func(t *testing.T, r *Request, err error) {
			assert.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, "GET", r.Method)
			assert.Equal(t, "https://foo.com", r.URL.String())
			assert.Nil(t, r.Body)
			assert.NotNil(t, r.Header)
		},
	},
	{
		name:   "fake valid extension method",
		method: "Fake",
		url:    "http://baz.com",
		asserts: func(t *testing.T, r *Request, err error) {
			assert.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, "Fake", r.Method)
		},
	},
	{
		name:   "remove empty port",
		method: "GET",
		url:    "http://ham:",
		asserts: func(t *testing.T, r *Request, err error) {
			assert.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, "ham", r.URL.Host)
		},
	},
	{
		name:   "invalid method",
		method: "BAD METHOD",
		url:    "http://foo.com",
		asserts: func(t *testing.T, r *Request, err error) {
			assert.Nil(t, r)
			assert.EqualError(t, err, `httpexec/request: invalid method "BAD METHOD"`)
		},
	},
	{
		name:   "invalid URL",
		method: "GET",
		url:    ":",
		asserts: func(t *testing.T, r *Request, err error) {
			assert.Nil(t, r)
			assert.Error(t, err)
		},
	},
	{
		name:   "string body",
		method: "POST",
		url:    "http://foo.com",
		body:   "hello",
		asserts: func(t *testing.T, r *Request, err error) {
			assert.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, &BytesEntity{Data: []byte("hello")}, r.Body)
			assert.True(t, r.Repeatable())
		},
	},
	{
		name:   "form body",
		method: "POST",
		url:    "http://foo.com",
		body:   url.Values{"a": []string{"1"}},
		asserts: func(t *testing.T, r *Request, err error) {
			assert.NoError(t, err)
			require.NotNil(t, r)
			assert.Equal(t, ContentTypeForm, r.Body.ContentType())
		},
	},
	{
		name:   "reader body",
		method: "POST",
		url:    "http://foo.com",
		body:   strings.NewReader("stream"),
		asserts: func(t *testing.T, r *Request, err error) {
			assert.NoError(t, err)
			require.NotNil(t, r)
			assert.IsType(t, &StreamEntity{}, r.Body)
			assert.Equal(t, int64(-1), r.Body.ContentLength())
		},
	},
	{
		name:   "bad body type",
		method: "POST",
		url:    "http://foo.com",
		body:   123,
		asserts: func(t *testing.T, r *Request, err error) {
			assert.Nil(t, r)
			assert.EqualError(t, err, badBodyTypeMsg)
		},
	},
}

func TestNewRequest(t *testing.T) {
	for _, testCase := range newRequestTestCases {
		t.Run(testCase.name, func(t *testing.T) {
			r, err := NewRequest(testCase.method, testCase.url, testCase.body)
			testCase.asserts(t, r, err)
			if r != nil {
				assert.Equal(t, context.Background(), r.Context())
			}
		})
	}
}

func TestNewRequestWithContext(t *testing.T) {
	type foo struct{}
	ctx := context.WithValue(context.Background(), foo{}, "bar")
	r, err := NewRequestWithContext(ctx, "GET", "http://foo.com", nil)
	require.NoError(t, err)
	assert.Same(t, ctx, r.Context())

	//lint:ignore SA1012 testing nil context
	r, err = NewRequestWithContext(nil, "GET", "http://foo.com", nil)
	assert.Nil(t, r)
	assert.EqualError(t, err, nilCtxMsg)
}

func TestRequest_Context(t *testing.T) {
	r := &Request{}
	assert.Equal(t, context.Background(), r.Context())
}

func TestRequest_WithContext(t *testing.T) {
	r, err := NewRequest("GET", "http://foo.com", nil)
	require.NoError(t, err)
	t.Run("nil context", func(t *testing.T) {
		assert.PanicsWithValue(t, nilCtxMsg, func() {
			//lint:ignore SA1012 testing nil context
			r.WithContext(nil)
		})
	})
	t.Run("valid context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		r2 := r.WithContext(ctx)
		assert.NotSame(t, r, r2)
		assert.Same(t, ctx, r2.Context())
		assert.Same(t, r.URL, r2.URL)
	})
}

func TestRequest_Wrap(t *testing.T) {
	r, err := NewRequest("GET", "http://foo.com/a?b=c", nil)
	require.NoError(t, err)
	r.Header.Set("X-Test", "1")

	w := r.Wrap()
	w.URL.Path = "/rewritten"
	w.Header.Set("X-Test", "2")

	assert.Same(t, r, w.Original())
	assert.Same(t, r, r.Original())
	assert.Equal(t, "/a", r.URL.Path)
	assert.Equal(t, "1", r.Header.Get("X-Test"))
	assert.Same(t, r, w.Wrap().Original())

	empty := (&Request{}).Wrap()
	assert.NotNil(t, empty.Header)
	assert.Nil(t, empty.URL)
}

func TestRequest_AddCookie(t *testing.T) {
	r, err := NewRequest("GET", "http://foo.com", nil)
	require.NoError(t, err)
	r.AddCookie(&http.Cookie{Name: "a", Value: "1", Path: "/ignored"})
	r.AddCookie(&http.Cookie{Name: "b", Value: "2"})
	assert.Equal(t, "a=1; b=2", r.Header.Get("Cookie"))
}

func TestRequest_SetBasicAuth(t *testing.T) {
	r, err := NewRequest("GET", "http://foo.com", nil)
	require.NoError(t, err)
	r.SetBasicAuth("Aladdin", "open sesame")
	assert.Equal(t, "Basic QWxhZGRpbjpvcGVuIHNlc2FtZQ==", r.Header.Get("Authorization"))
}

func TestRequest_ToHTTP(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	t.Run("no body", func(t *testing.T) {
		r := &Request{URL: &url.URL{Path: "/x"}, Host: "foo.com"}
		hr, err := r.ToHTTP(ctx)
		require.NoError(t, err)
		assert.Equal(t, "GET", hr.Method)
		assert.Equal(t, "foo.com", hr.Host)
		assert.Equal(t, 1, hr.ProtoMajor)
		assert.Equal(t, 1, hr.ProtoMinor)
		assert.NotNil(t, hr.Header)
		assert.Nil(t, hr.Body)
		assert.Same(t, ctx, hr.Context())
	})
	t.Run("empty body", func(t *testing.T) {
		r := &Request{Method: "POST", URL: &url.URL{Path: "/"}, Body: &BytesEntity{}}
		hr, err := r.ToHTTP(ctx)
		require.NoError(t, err)
		assert.Equal(t, http.NoBody, hr.Body)
		assert.Equal(t, int64(0), hr.ContentLength)
	})
	t.Run("bytes body", func(t *testing.T) {
		r := &Request{Method: "POST", URL: &url.URL{Path: "/"}, Body: NewStringEntity("hello")}
		hr, err := r.ToHTTP(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(5), hr.ContentLength)
		b, err := io.ReadAll(hr.Body)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(b))
		require.NotNil(t, hr.GetBody)
		rc, err := hr.GetBody()
		require.NoError(t, err)
		b, _ = io.ReadAll(rc)
		assert.Equal(t, "hello", string(b))
	})
	t.Run("stream body", func(t *testing.T) {
		r := &Request{Method: "PUT", URL: &url.URL{Path: "/"}, Body: NewStreamEntity(strings.NewReader("abc"), -1, "")}
		assert.True(t, r.Repeatable())
		hr, err := r.ToHTTP(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(-1), hr.ContentLength)
		assert.Equal(t, []string{"chunked"}, hr.TransferEncoding)
		assert.Nil(t, hr.GetBody)
		assert.False(t, r.Repeatable())

		_, err = r.ToHTTP(ctx)
		assert.ErrorIs(t, err, ErrStreamConsumed)
	})
}

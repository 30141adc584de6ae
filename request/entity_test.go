// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"errors"
	"io"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestBytesEntity(t *testing.T) {
	e := NewBytesEntity([]byte("data"), "application/octet-stream")
	assert.True(t, e.Repeatable())
	assert.Equal(t, int64(4), e.ContentLength())
	assert.Equal(t, "application/octet-stream", e.ContentType())
	for i := 0; i < 2; i++ {
		rc, err := e.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, "data", string(b))
	}

	assert.Equal(t, ContentTypeText, NewStringEntity("x").ContentType())
	form := NewFormEntity(url.Values{"b": []string{"2"}, "a": []string{"1 2"}})
	assert.Equal(t, "a=1+2&b=2", string(form.Data))
	assert.Equal(t, ContentTypeForm, form.ContentType())
}

func TestStreamEntity(t *testing.T) {
	t.Run("single use", func(t *testing.T) {
		e := NewStreamEntity(strings.NewReader("abc"), 3, "text/plain")
		assert.True(t, e.Repeatable())
		assert.Equal(t, int64(3), e.ContentLength())
		assert.Equal(t, "text/plain", e.ContentType())
		rc, err := e.Open()
		require.NoError(t, err)
		assert.False(t, e.Repeatable())
		b, _ := io.ReadAll(rc)
		assert.Equal(t, "abc", string(b))
		_, err = e.Open()
		assert.ErrorIs(t, err, ErrStreamConsumed)
	})
	t.Run("closer passed through", func(t *testing.T) {
		m := &mockReadCloser{}
		m.On("Close").Return(nil).Once()
		e := NewStreamEntity(m, -1, "")
		rc, err := e.Open()
		require.NoError(t, err)
		assert.NoError(t, rc.Close())
		m.AssertExpectations(t)
	})
}

func TestToEntity(t *testing.T) {
	e, err := ToEntity(nil)
	assert.NoError(t, err)
	assert.Nil(t, e)

	be := NewStringEntity("x")
	e, err = ToEntity(be)
	assert.NoError(t, err)
	assert.Same(t, be, e)

	e, err = ToEntity([]byte("y"))
	assert.NoError(t, err)
	assert.Equal(t, &BytesEntity{Data: []byte("y")}, e)

	_, err = ToEntity(1.5)
	assert.EqualError(t, err, badBodyTypeMsg)
}

func TestBodyBytes(t *testing.T) {
	t.Run("happy path", func(t *testing.T) {
		b, err := BodyBytes(strings.NewReader("foo"))
		assert.NoError(t, err)
		assert.Equal(t, []byte("foo"), b)
	})
	t.Run("Read error", func(t *testing.T) {
		expectedErr := errors.New("read")
		m := &mockReadCloser{}
		m.On("Read", mock.Anything).Return(0, expectedErr).Once()
		b, err := BodyBytes(m)
		assert.Nil(t, b)
		assert.Same(t, expectedErr, err)
		m.AssertExpectations(t)
	})
	t.Run("Close error", func(t *testing.T) {
		expectedErr := errors.New("close")
		m := &mockReadCloser{}
		m.On("Read", mock.Anything).Return(0, io.EOF).Once()
		m.On("Close").Return(expectedErr).Once()
		b, err := BodyBytes(m)
		assert.Nil(t, b)
		assert.Same(t, expectedErr, err)
		m.AssertExpectations(t)
	})
	t.Run("Buffered", func(t *testing.T) {
		e, err := Buffered(strings.NewReader("buffered"), "text/plain")
		require.NoError(t, err)
		assert.True(t, e.Repeatable())
		assert.Equal(t, int64(8), e.ContentLength())
		expectedErr := errors.New("buffer")
		m := &mockReadCloser{}
		m.On("Read", mock.Anything).Return(0, expectedErr).Once()
		e, err = Buffered(m, "")
		assert.Nil(t, e)
		assert.Same(t, expectedErr, err)
	})
}

type mockReadCloser struct {
	mock.Mock
}

func (m *mockReadCloser) Read(p []byte) (n int, err error) {
	args := m.Called(p)
	n = args.Int(0)
	err = args.Error(1)
	return
}

func (m *mockReadCloser) Close() error {
	args := m.Called()
	return args.Error(0)
}

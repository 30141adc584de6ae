// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"errors"
	"io"
	"net/url"
	"sync/atomic"
)

// Content types set by the entity constructors.
const (
	ContentTypeText = "text/plain; charset=utf-8"
	ContentTypeForm = "application/x-www-form-urlencoded"
)

const badBodyTypeMsg = "httpexec/request: invalid type (for body use nil, " +
	"Entity, string, []byte, url.Values or io.Reader)"

// ErrStreamConsumed is returned when a StreamEntity is opened a second
// time.
var ErrStreamConsumed = errors.New("httpexec/request: stream entity already consumed")

// An Entity is a request body.
type Entity interface {
	// Open returns a reader over the body content. A repeatable entity
	// may be opened any number of times.
	Open() (io.ReadCloser, error)
	// Repeatable reports whether Open may be called again.
	Repeatable() bool
	// ContentLength is the length of the content in bytes, or -1 if it
	// is not known.
	ContentLength() int64
	// ContentType is the media type of the content, or "" if unknown.
	ContentType() string
}

// BytesEntity is a repeatable entity backed by a byte slice.
type BytesEntity struct {
	Data []byte
	Type string
}

// NewBytesEntity returns an entity sending b with the given content
// type.
func NewBytesEntity(b []byte, contentType string) *BytesEntity {
	return &BytesEntity{Data: b, Type: contentType}
}

// NewStringEntity returns an entity sending s as UTF-8 text.
func NewStringEntity(s string) *BytesEntity {
	return &BytesEntity{Data: []byte(s), Type: ContentTypeText}
}

// NewFormEntity returns an entity sending v URL-encoded.
func NewFormEntity(v url.Values) *BytesEntity {
	return &BytesEntity{Data: []byte(v.Encode()), Type: ContentTypeForm}
}

func (e *BytesEntity) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(e.Data)), nil
}

func (e *BytesEntity) Repeatable() bool {
	return true
}

func (e *BytesEntity) ContentLength() int64 {
	return int64(len(e.Data))
}

func (e *BytesEntity) ContentType() string {
	return e.Type
}

// StreamEntity is a single-use entity backed by a reader. Once opened
// it is no longer repeatable, so a request carrying it cannot be
// retried after its first attempt has started.
type StreamEntity struct {
	r      io.Reader
	length int64
	typ    string
	opened atomic.Bool
}

// NewStreamEntity returns an entity streaming r. Pass -1 as length
// if it is not known. If r is an io.Closer, it is closed with the
// reader returned by Open.
func NewStreamEntity(r io.Reader, length int64, contentType string) *StreamEntity {
	return &StreamEntity{r: r, length: length, typ: contentType}
}

func (e *StreamEntity) Open() (io.ReadCloser, error) {
	if e.opened.Swap(true) {
		return nil, ErrStreamConsumed
	}
	if rc, ok := e.r.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(e.r), nil
}

func (e *StreamEntity) Repeatable() bool {
	return !e.opened.Load()
}

func (e *StreamEntity) ContentLength() int64 {
	return e.length
}

func (e *StreamEntity) ContentType() string {
	return e.typ
}

// ToEntity converts a generic body parameter to an Entity.
//
// The body parameter may be nil, or it may be an Entity, a string,
// []byte, url.Values or io.Reader:
//
// • If body is nil, a nil Entity and no error is returned.
//
// • If body is an Entity, it is returned as is.
//
// • A string or []byte becomes a BytesEntity with no content type.
//
// • A url.Values becomes a form entity.
//
// • An io.Reader becomes a StreamEntity of unknown length.
//
// • Any other type is an error.
func ToEntity(body any) (Entity, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case Entity:
		return x, nil
	case string:
		return &BytesEntity{Data: []byte(x)}, nil
	case []byte:
		return &BytesEntity{Data: x}, nil
	case url.Values:
		return NewFormEntity(x), nil
	case io.Reader:
		return NewStreamEntity(x, -1, ""), nil
	default:
		return nil, errors.New(badBodyTypeMsg)
	}
}

// BodyBytes reads the whole content of a reader, closing it if it
// implements io.Closer. It is used to buffer a stream into a
// repeatable entity.
func BodyBytes(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if c, ok := r.(io.Closer); ok {
		if err = c.Close(); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Buffered returns a repeatable entity holding the remaining content of
// r.
func Buffered(r io.Reader, contentType string) (*BytesEntity, error) {
	b, err := BodyBytes(r)
	if err != nil {
		return nil, err
	}
	return NewBytesEntity(b, contentType), nil
}

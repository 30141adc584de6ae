// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"strings"

	"github.com/gogama/httpexec/request"
)

// AcceptEncodingValue is the Accept-Encoding header AcceptEncoding
// sends.
const AcceptEncodingValue = "gzip,deflate"

// AcceptEncoding advertises the content codings ContentEncoding can
// decode, unless the request already carries an Accept-Encoding
// header.
type AcceptEncoding struct{}

func (AcceptEncoding) ProcessRequest(req *request.Request, _ *request.Execution) error {
	if req.Header.Get("Accept-Encoding") == "" {
		req.Header.Set("Accept-Encoding", AcceptEncodingValue)
	}
	return nil
}

// ContentEncoding decodes gzip, x-gzip and deflate response bodies.
// Decoding is transparent: the Content-Encoding, Content-Length and
// Content-MD5 headers are removed and Uncompressed is set. Bodies
// with another coding are returned as received, unless
// RejectUnknown is set, in which case they are an error.
type ContentEncoding struct {
	RejectUnknown bool
}

func (i *ContentEncoding) ProcessResponse(resp *http.Response, _ *request.Execution) error {
	if resp.Body == nil || resp.Body == http.NoBody {
		return nil
	}
	ce := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	var open func(io.Reader) (io.ReadCloser, error)
	switch ce {
	case "":
		return nil
	case "gzip", "x-gzip":
		open = func(r io.Reader) (io.ReadCloser, error) { return gzip.NewReader(r) }
	case "deflate":
		open = openDeflate
	case "identity":
		return nil
	default:
		if i.RejectUnknown {
			return &Error{Msg: "unsupported Content-Encoding: " + ce}
		}
		return nil
	}
	resp.Body = &decodingBody{body: resp.Body, open: open}
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.Header.Del("Content-MD5")
	resp.ContentLength = -1
	resp.Uncompressed = true
	return nil
}

// decodingBody defers creating the decoder until the first Read so
// that the coding header is not read before the caller wants the body.
type decodingBody struct {
	body io.ReadCloser
	open func(io.Reader) (io.ReadCloser, error)
	zr   io.ReadCloser
	err  error
}

func (b *decodingBody) Read(p []byte) (int, error) {
	if b.err != nil {
		return 0, b.err
	}
	if b.zr == nil {
		b.zr, b.err = b.open(b.body)
		if b.err != nil {
			return 0, b.err
		}
	}
	return b.zr.Read(p)
}

func (b *decodingBody) Close() error {
	if b.zr != nil {
		_ = b.zr.Close()
	}
	return b.body.Close()
}

// openDeflate accepts both zlib-wrapped and raw deflate streams, as
// servers disagree on what "deflate" means.
func openDeflate(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	h, err := br.Peek(2)
	if err != nil && len(h) < 2 {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	if h[0]&0x0f == 8 && (uint16(h[0])<<8|uint16(h[1]))%31 == 0 {
		return zlib.NewReader(br)
	}
	return flate.NewReader(br), nil
}

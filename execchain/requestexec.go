// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"bufio"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gogama/httpexec/conn"
	"github.com/gogama/httpexec/request"
	"golang.org/x/net/http/httpguts"
)

// DefaultWaitForContinue is the default time to wait for a 100 Continue
// response before sending the request body anyway.
const DefaultWaitForContinue = 3 * time.Second

var (
	errNotOpen       = errors.New("httpexec/execchain: connection is not open")
	errFinalResponse = errors.New("httpexec/execchain: final response received before request body was sent")
)

// A RequestExecutor sends HTTP/1.1 requests over a connection and
// receives their responses.
//
// The zero value is a usable executor.
type RequestExecutor struct {
	// WaitForContinue is the time to wait for the server to answer an
	// "Expect: 100-continue" request before the body is sent anyway.
	// Zero means DefaultWaitForContinue.
	WaitForContinue time.Duration
	// Logger receives debug output on interim responses.
	Logger *slog.Logger
}

// Execute writes hr to c and reads the final response. Interim 1xx
// responses are skipped, except 101 Switching Protocols.
//
// Once the request is completely written, e.RequestSent is set. If the
// server closes the connection before sending any part of a response,
// the error is a *NoResponseError.
func (x *RequestExecutor) Execute(hr *http.Request, c *conn.Conn, e *request.Execution) (*http.Response, error) {
	br, bw := c.Reader(), c.Writer()
	if br == nil || bw == nil || !c.IsOpen() {
		if hr.Body != nil {
			_ = hr.Body.Close()
		}
		return nil, errNotOpen
	}

	var cb *continueBody
	if hr.Body != nil && hr.Body != http.NoBody && httpguts.HeaderValuesContainsToken(hr.Header["Expect"], "100-continue") {
		if hr.ContentLength > 0 {
			cb = &continueBody{ReadCloser: hr.Body, x: x, c: c, br: br, hr: hr}
			hr.Body = cb
		} else {
			// A body of unknown length is read before the headers are
			// flushed, so there is nothing to wait for.
			hr.Header.Del("Expect")
		}
	}

	err := hr.Write(bw)
	if err == nil {
		err = bw.Flush()
	}
	if err != nil {
		if cb != nil && cb.final != nil {
			// The body was cut short, so the connection cannot carry
			// another message.
			cb.final.Close = true
			return cb.final, nil
		}
		if cb != nil && cb.err != nil {
			return nil, cb.err
		}
		return nil, err
	}
	e.RequestSent = true

	return x.receive(br, hr)
}

func (x *RequestExecutor) receive(br *bufio.Reader, hr *http.Request) (*http.Response, error) {
	for {
		if _, err := br.Peek(1); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, &NoResponseError{Err: err}
			}
			return nil, err
		}
		resp, err := http.ReadResponse(br, hr)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode >= http.StatusOK || resp.StatusCode == http.StatusSwitchingProtocols {
			return resp, nil
		}
		logger(x.Logger).Debug("interim response skipped", "status", resp.Status)
	}
}

func (x *RequestExecutor) waitForContinue() time.Duration {
	if x.WaitForContinue > 0 {
		return x.WaitForContinue
	}
	return DefaultWaitForContinue
}

// continueBody holds back the request body until the server answers
// an expect-continue request, or the wait times out. The request line
// and header are flushed before the first Read.
type continueBody struct {
	io.ReadCloser
	x       *RequestExecutor
	c       *conn.Conn
	br      *bufio.Reader
	hr      *http.Request
	checked bool
	final   *http.Response
	err     error
}

func (b *continueBody) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		if err := b.await(); err != nil {
			return 0, err
		}
	}
	return b.ReadCloser.Read(p)
}

func (b *continueBody) await() error {
	saved := b.c.SocketTimeout()
	b.c.SetSocketTimeout(b.x.waitForContinue())
	_, err := b.br.Peek(1)
	b.c.SetSocketTimeout(saved)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil
		}
		if errors.Is(err, io.EOF) {
			err = &NoResponseError{Err: err}
		}
		b.err = err
		return err
	}
	resp, err := http.ReadResponse(b.br, b.hr)
	if err != nil {
		b.err = err
		return err
	}
	if resp.StatusCode == http.StatusContinue {
		return nil
	}
	if resp.StatusCode < http.StatusOK {
		b.err = &ProtocolError{Msg: "unexpected response: " + resp.Status}
		return b.err
	}
	b.final = resp
	return errFinalResponse
}

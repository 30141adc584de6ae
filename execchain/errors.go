// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package execchain

import (
	"github.com/gogama/httpexec/protocol"
)

// A ProtocolError indicates a violation of the HTTP protocol by the
// peer or by the request being sent.
type ProtocolError = protocol.Error

// An AbortedError is returned when an execution is aborted, either
// because its context is done or because it was cancelled explicitly.
type AbortedError struct {
	Msg string
	Err error
}

func (err *AbortedError) Error() string {
	msg := "httpexec/execchain: " + err.Msg
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *AbortedError) Unwrap() error {
	return err.Err
}

// A NonReplayableRequestError is returned when a retry or redirect
// requires sending a request body which cannot be sent again.
type NonReplayableRequestError struct {
	Err error
}

func (err *NonReplayableRequestError) Error() string {
	msg := "httpexec/execchain: cannot retry request with a non-repeatable request entity"
	if err.Err != nil {
		msg += ": " + err.Err.Error()
	}
	return msg
}

func (err *NonReplayableRequestError) Unwrap() error {
	return err.Err
}

// A NoResponseError is returned when the server closed the connection
// without sending any part of a response.
type NoResponseError struct {
	Host string
	Err  error
}

func (err *NoResponseError) Error() string {
	if err.Host == "" {
		return "httpexec/execchain: the target server failed to respond"
	}
	return "httpexec/execchain: " + err.Host + " failed to respond"
}

// NoResponse always returns true.
func (err *NoResponseError) NoResponse() bool {
	return true
}

func (err *NoResponseError) Unwrap() error {
	return err.Err
}

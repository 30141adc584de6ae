// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package protocol

// An Error reports a violation of the HTTP protocol, or an execution
// state that cannot be processed, such as a request that already
// carries framing headers. Protocol errors are never retried.
type Error struct {
	Msg string
	Err error
}

func (err *Error) Error() string {
	if err.Err != nil {
		return "httpexec/protocol: " + err.Msg + ": " + err.Err.Error()
	}
	return "httpexec/protocol: " + err.Msg
}

func (err *Error) Unwrap() error {
	return err.Err
}

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"log/slog"
	"net/http"
)

// Options selects the standard interceptors NewStandard installs.
type Options struct {
	// UserAgent is sent with requests that carry no User-Agent.
	UserAgent string
	// DefaultHeaders are added to requests that do not carry them.
	DefaultHeaders http.Header
	// DisableCookies leaves out cookie management.
	DisableCookies bool
	// DisableCompression leaves out content encoding negotiation.
	DisableCompression bool
	Logger             *slog.Logger
}

// NewStandard returns a processor holding the standard request and
// response interceptors, in this order:
//
//	request:  DefaultHeaders, Content, TargetHost, ClientConnControl,
//	          UserAgent, ExpectContinue, AddCookies, AcceptEncoding
//	response: ProcessCookies, ContentEncoding
func NewStandard(opts Options) *Processor {
	p := &Processor{}
	p.AddRequestLast(&DefaultHeaders{Header: opts.DefaultHeaders.Clone()})
	p.AddRequestLast(Content{})
	p.AddRequestLast(TargetHost{})
	p.AddRequestLast(&ClientConnControl{Logger: opts.Logger})
	p.AddRequestLast(&UserAgent{Agent: opts.UserAgent})
	p.AddRequestLast(ExpectContinue{})
	if !opts.DisableCookies {
		p.AddRequestLast(&AddCookies{Logger: opts.Logger})
		p.AddResponseLast(&ProcessCookies{Logger: opts.Logger})
	}
	if !opts.DisableCompression {
		p.AddRequestLast(AcceptEncoding{})
		p.AddResponseLast(&ContentEncoding{})
	}
	return p
}

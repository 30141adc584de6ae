// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package protocol

import (
	"net/http"

	"github.com/gogama/httpexec/request"
)

// A RequestInterceptor processes a request before it is sent. It may
// modify the request's header and Host.
type RequestInterceptor interface {
	ProcessRequest(req *request.Request, e *request.Execution) error
}

// The RequestInterceptorFunc type is an adapter to allow the use of
// ordinary functions as request interceptors.
type RequestInterceptorFunc func(req *request.Request, e *request.Execution) error

// ProcessRequest calls f(req, e).
func (f RequestInterceptorFunc) ProcessRequest(req *request.Request, e *request.Execution) error {
	return f(req, e)
}

// A ResponseInterceptor processes a response after it is received and
// before it is returned. It may modify the response's header and
// replace its body.
type ResponseInterceptor interface {
	ProcessResponse(resp *http.Response, e *request.Execution) error
}

// The ResponseInterceptorFunc type is an adapter to allow the use of
// ordinary functions as response interceptors.
type ResponseInterceptorFunc func(resp *http.Response, e *request.Execution) error

// ProcessResponse calls f(resp, e).
func (f ResponseInterceptorFunc) ProcessResponse(resp *http.Response, e *request.Execution) error {
	return f(resp, e)
}

// A Processor runs an ordered chain of request interceptors and an
// ordered chain of response interceptors. The zero value is an empty
// processor ready to use. A nil *Processor has no interceptors.
//
// A Processor is not safe for concurrent modification, but once built
// it may be run by any number of goroutines.
type Processor struct {
	requests  []RequestInterceptor
	responses []ResponseInterceptor
}

// AddRequestFirst adds i at the head of the request chain.
func (p *Processor) AddRequestFirst(i RequestInterceptor) {
	mustNotBeNil(i)
	p.requests = append([]RequestInterceptor{i}, p.requests...)
}

// AddRequestLast adds i at the tail of the request chain.
func (p *Processor) AddRequestLast(i RequestInterceptor) {
	mustNotBeNil(i)
	p.requests = append(p.requests, i)
}

// AddResponseFirst adds i at the head of the response chain.
func (p *Processor) AddResponseFirst(i ResponseInterceptor) {
	mustNotBeNil(i)
	p.responses = append([]ResponseInterceptor{i}, p.responses...)
}

// AddResponseLast adds i at the tail of the response chain.
func (p *Processor) AddResponseLast(i ResponseInterceptor) {
	mustNotBeNil(i)
	p.responses = append(p.responses, i)
}

// ProcessRequest runs the request chain in order, stopping at the
// first error.
func (p *Processor) ProcessRequest(req *request.Request, e *request.Execution) error {
	if p == nil {
		return nil
	}
	for _, i := range p.requests {
		if err := i.ProcessRequest(req, e); err != nil {
			return err
		}
	}
	return nil
}

// ProcessResponse runs the response chain in order, stopping at the
// first error.
func (p *Processor) ProcessResponse(resp *http.Response, e *request.Execution) error {
	if p == nil {
		return nil
	}
	for _, i := range p.responses {
		if err := i.ProcessResponse(resp, e); err != nil {
			return err
		}
	}
	return nil
}

// RequestLen returns the length of the request chain.
func (p *Processor) RequestLen() int {
	if p == nil {
		return 0
	}
	return len(p.requests)
}

// ResponseLen returns the length of the response chain.
func (p *Processor) ResponseLen() int {
	if p == nil {
		return 0
	}
	return len(p.responses)
}

func mustNotBeNil(i any) {
	if i == nil {
		panic("httpexec/protocol: nil interceptor")
	}
}

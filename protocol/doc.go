// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package protocol defines the request and response interceptors run
// around every request attempt, and the standard interceptors which
// add default headers, frame the body, manage cookies and negotiate
// content encoding.
//
// A Processor holds two explicitly ordered chains, one of
// RequestInterceptor and one of ResponseInterceptor. NewStandard
// returns a Processor with the standard chains:
//
//	request:  DefaultHeaders, Content, TargetHost, ClientConnControl,
//	          UserAgent, ExpectContinue, AddCookies, AcceptEncoding
//	response: ProcessCookies, ContentEncoding
//
// Custom interceptors may be added at either end of either chain.
package protocol

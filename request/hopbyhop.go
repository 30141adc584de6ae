// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"net/http"
	"net/textproto"
)

// HopByHopRequestHeaders are the request headers a forwarding layer
// must not copy from an inbound request to the outbound one. The
// client sets Content-Type, Cookie and Host itself.
var HopByHopRequestHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate",
	"Proxy-Authorization", "TE", "Trailers",
	"Transfer-Encoding", "Upgrade", "Content-Type", "Cookie", "Host",
	"Content-Length",
}

// HopByHopResponseHeaders are the response headers a forwarding layer
// must not copy from an upstream response to its own response.
var HopByHopResponseHeaders = []string{
	"Connection", "Keep-Alive", "Proxy-Authenticate",
	"Proxy-Authorization", "TE", "Trailers",
	"Transfer-Encoding", "Upgrade",
}

// CopyHeaders adds every header field of src to dst except those named
// in skip, which are matched case-insensitively. Headers listed in a
// Connection header of src are skipped as well.
func CopyHeaders(dst, src http.Header, skip []string) {
	excluded := make(map[string]bool, len(skip))
	for _, name := range skip {
		excluded[textproto.CanonicalMIMEHeaderKey(name)] = true
	}
	for _, v := range src.Values("Connection") {
		for _, name := range splitTokens(v) {
			excluded[textproto.CanonicalMIMEHeaderKey(name)] = true
		}
	}
	for name, values := range src {
		if excluded[textproto.CanonicalMIMEHeaderKey(name)] {
			continue
		}
		for _, v := range values {
			dst.Add(name, v)
		}
	}
}

func splitTokens(v string) []string {
	var tokens []string
	start := 0
	for i := 0; i <= len(v); i++ {
		if i == len(v) || v[i] == ',' {
			t := textproto.TrimString(v[start:i])
			if t != "" {
				tokens = append(tokens, t)
			}
			start = i + 1
		}
	}
	return tokens
}

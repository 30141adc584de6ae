// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package redirect decides which responses are redirects and builds
// the request that follows each redirect.
//
// Use Default to follow redirects the way browsers do for safe
// methods, Lax to also follow them for POST, PUT and DELETE, or
// implement Strategy.
package redirect

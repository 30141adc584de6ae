// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout provides the socket timeout policies the execution
// chain consults before each request attempt, initial or retry.
package timeout

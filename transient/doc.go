// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package transient sorts request attempt errors into transient
// categories. The retry deciders use it to tell a failure worth
// retrying from a permanent one, and the execution chain uses the
// category names as metric labels.
//
// The package depends only on "errors" and "syscall", so it can be
// imported on its own.
package transient

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package route

import "fmt"

// An UnsupportedSchemeError is returned when no port or socket factory
// is registered for a scheme.
type UnsupportedSchemeError struct {
	Scheme string
}

func (err *UnsupportedSchemeError) Error() string {
	return fmt.Sprintf("httpexec/route: %s protocol is not supported", err.Scheme)
}

// An UnreachableError is returned when the director decides the planned
// route cannot be established on a connection.
type UnreachableError struct {
	Planned Route
	Current *Route
}

func (err *UnreachableError) Error() string {
	current := "<none>"
	if err.Current != nil {
		current = err.Current.String()
	}
	return fmt.Sprintf("httpexec/route: unable to establish route: planned = %s; current = %s", err.Planned, current)
}

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package redirect

import (
	"fmt"
	"net/url"
)

// A LimitError is returned when an execution would follow more
// redirects than its configuration allows.
type LimitError struct {
	Max int
}

func (err *LimitError) Error() string {
	return fmt.Sprintf("httpexec/redirect: maximum redirects (%d) exceeded", err.Max)
}

// A CircularRedirectError is returned when a redirect points to a
// location the execution already visited and circular redirects are
// not allowed.
type CircularRedirectError struct {
	Location *url.URL
}

func (err *CircularRedirectError) Error() string {
	return fmt.Sprintf("httpexec/redirect: circular redirect to '%s'", err.Location)
}

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Command httpexec issues HTTP requests through an httpexec client.
//
// Usage:
//
//	# Fetch a URL, printing the body
//	httpexec get https://example.com/
//
//	# Print the status line and headers too
//	httpexec get -i -H "Accept: application/json" https://example.com/api
//
//	# POST a form, using a configuration file
//	httpexec --config client.yaml post https://example.com/form -d "a=1&b=2"
//
//	# POST the contents of a file
//	httpexec post https://example.com/upload -d @payload.json --content-type application/json
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package config loads client configuration from YAML files.

A configuration file has one section per concern:

	pool:
	  max_total: 50
	  max_per_route: 10
	socket:
	  timeout: 30s
	  no_delay: true
	request:
	  connect_timeout: 5s
	  connection_request_timeout: 2s
	  max_redirects: 10
	retry:
	  times: 3
	  wait_base: 50ms
	  wait_max: 1s
	evictor:
	  enabled: true
	  interval: 5s
	  max_idle: 1m
	client:
	  user_agent: my-agent/1.0
	cookies:
	  persist_path: cookies.db
	logging:
	  level: debug
	  format: json
	dns:
	  server: 10.0.0.53:53
	  static_hosts:
	    api.internal: 10.1.2.3

Durations are written in time.ParseDuration syntax. Fields left out
take the defaults in defaults.go.

LoadWithEnvOverrides additionally applies environment variables named
HTTPEXEC_SECTION_FIELD, for example HTTPEXEC_POOL_MAX_TOTAL=100 or
HTTPEXEC_LOGGING_LEVEL=debug. Environment variables take precedence
over the file.
*/
package config

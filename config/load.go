// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment variables read by
// LoadWithEnvOverrides.
const EnvPrefix = "HTTPEXEC_"

// Load reads the YAML configuration file at path, applies defaults and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("httpexec/config: failed to read %q: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("httpexec/config: %q: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML configuration document, applies defaults and
// validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}
	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadWithEnvOverrides loads the configuration like Load and then
// applies environment variables named HTTPEXEC_SECTION_FIELD. An empty
// path skips the file and starts from Default. The result is validated
// again after the overrides.
func LoadWithEnvOverrides(path string) (*Config, error) {
	var cfg *Config
	if path == "" {
		cfg = Default()
	} else {
		var err error
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	}
	if err := ApplyEnvOverrides(cfg, os.LookupEnv); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("httpexec/config: after environment overrides: %w", err)
	}
	return cfg, nil
}

// ApplyEnvOverrides overrides fields of cfg from the variables returned
// by lookup. A variable whose value cannot be parsed is an error.
func ApplyEnvOverrides(cfg *Config, lookup func(string) (string, bool)) error {
	o := overrider{lookup: lookup}

	o.int("POOL_MAX_TOTAL", &cfg.Pool.MaxTotal)
	o.int("POOL_MAX_PER_ROUTE", &cfg.Pool.MaxPerRoute)

	o.duration("SOCKET_TIMEOUT", &cfg.Socket.Timeout)
	o.bool("SOCKET_REUSE_ADDRESS", &cfg.Socket.ReuseAddress)
	o.boolPtr("SOCKET_NO_DELAY", &cfg.Socket.NoDelay)
	o.bool("SOCKET_KEEP_ALIVE", &cfg.Socket.KeepAlive)
	o.intPtr("SOCKET_LINGER", &cfg.Socket.Linger)

	o.duration("REQUEST_CONNECT_TIMEOUT", &cfg.Request.ConnectTimeout)
	o.duration("REQUEST_CONNECTION_REQUEST_TIMEOUT", &cfg.Request.ConnectionRequestTimeout)
	o.durationPtr("REQUEST_SOCKET_TIMEOUT", &cfg.Request.SocketTimeout)
	o.boolPtr("REQUEST_STALE_CONNECTION_CHECK", &cfg.Request.StaleConnectionCheck)
	o.bool("REQUEST_EXPECT_CONTINUE", &cfg.Request.ExpectContinue)
	o.boolPtr("REQUEST_REDIRECTS_ENABLED", &cfg.Request.RedirectsEnabled)
	o.int("REQUEST_MAX_REDIRECTS", &cfg.Request.MaxRedirects)
	o.bool("REQUEST_CIRCULAR_REDIRECTS_ALLOWED", &cfg.Request.CircularRedirectsAllowed)
	o.string("REQUEST_COOKIE_SPEC", &cfg.Request.CookieSpec)
	o.string("REQUEST_LOCAL_ADDRESS", &cfg.Request.LocalAddress)

	o.intPtr("RETRY_TIMES", &cfg.Retry.Times)
	o.duration("RETRY_WAIT_BASE", &cfg.Retry.WaitBase)
	o.duration("RETRY_WAIT_MAX", &cfg.Retry.WaitMax)
	o.bool("RETRY_REQUEST_SENT_RETRY", &cfg.Retry.RequestSentRetry)

	o.bool("EVICTOR_ENABLED", &cfg.Evictor.Enabled)
	o.duration("EVICTOR_INTERVAL", &cfg.Evictor.Interval)
	o.duration("EVICTOR_MAX_IDLE", &cfg.Evictor.MaxIdle)

	o.string("CLIENT_USER_AGENT", &cfg.Client.UserAgent)
	o.bool("CLIENT_DISABLE_COOKIES", &cfg.Client.DisableCookies)
	o.bool("CLIENT_DISABLE_COMPRESSION", &cfg.Client.DisableCompression)
	o.bool("CLIENT_DISABLE_REDIRECTS", &cfg.Client.DisableRedirects)
	o.bool("CLIENT_DISABLE_RETRIES", &cfg.Client.DisableRetries)
	o.bool("CLIENT_LAX_REDIRECTS", &cfg.Client.LaxRedirects)
	o.duration("CLIENT_KEEP_ALIVE_FALLBACK", &cfg.Client.KeepAliveFallback)

	o.string("COOKIES_PERSIST_PATH", &cfg.Cookies.PersistPath)

	o.string("LOGGING_LEVEL", &cfg.Logging.Level)
	o.string("LOGGING_FORMAT", &cfg.Logging.Format)

	o.string("DNS_NETWORK", &cfg.DNS.Network)
	o.string("DNS_SERVER", &cfg.DNS.Server)

	return o.err
}

// overrider records the first parse failure and ignores later
// variables.
type overrider struct {
	lookup func(string) (string, bool)
	err    error
}

func (o *overrider) get(name string) (string, bool) {
	if o.err != nil {
		return "", false
	}
	v, ok := o.lookup(EnvPrefix + name)
	return v, ok && v != ""
}

func (o *overrider) fail(name, v string, err error) {
	o.err = fmt.Errorf("httpexec/config: invalid value %q for %s%s: %w", v, EnvPrefix, name, err)
}

func (o *overrider) string(name string, dst *string) {
	if v, ok := o.get(name); ok {
		*dst = v
	}
}

func (o *overrider) int(name string, dst *int) {
	if v, ok := o.get(name); ok {
		i, err := strconv.Atoi(v)
		if err != nil {
			o.fail(name, v, err)
			return
		}
		*dst = i
	}
}

func (o *overrider) intPtr(name string, dst **int) {
	var i int
	if *dst != nil {
		i = **dst
	}
	if _, ok := o.get(name); ok {
		o.int(name, &i)
		*dst = &i
	}
}

func (o *overrider) bool(name string, dst *bool) {
	if v, ok := o.get(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			o.fail(name, v, err)
			return
		}
		*dst = b
	}
}

func (o *overrider) boolPtr(name string, dst **bool) {
	var b bool
	if _, ok := o.get(name); ok {
		o.bool(name, &b)
		*dst = &b
	}
}

func (o *overrider) duration(name string, dst *time.Duration) {
	if v, ok := o.get(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			o.fail(name, v, err)
			return
		}
		*dst = d
	}
}

func (o *overrider) durationPtr(name string, dst **time.Duration) {
	var d time.Duration
	if _, ok := o.get(name); ok {
		o.duration(name, &d)
		*dst = &d
	}
}

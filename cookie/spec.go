// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package cookie

import (
	"fmt"
	"net/http"
	"net/netip"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/publicsuffix"
)

// Header names used by cookie specifications.
const (
	HeaderSetCookie  = "Set-Cookie"
	HeaderSetCookie2 = "Set-Cookie2"
	HeaderCookie     = "Cookie"
	HeaderCookie2    = "Cookie2"
)

// A Spec is a cookie specification: the rules for parsing, validating,
// matching and formatting cookies.
type Spec interface {
	// Version is the cookie version the spec produces. Specs with a
	// version above zero also process Set-Cookie2 headers.
	Version() int
	// Parse parses one value of the named response header into a
	// cookie received from origin.
	Parse(header, value string, o Origin) (*Cookie, error)
	// Validate reports whether a parsed cookie may be accepted from
	// origin.
	Validate(c *Cookie, o Origin) error
	// Match reports whether c should be sent to origin.
	Match(c *Cookie, o Origin) bool
	// FormatCookies formats matched cookies as values of the Cookie
	// request header.
	FormatCookies(cookies []*Cookie) []string
	// VersionHeader returns the header advertising the spec's version
	// to the server, or empty strings if the spec has none.
	VersionHeader() (name, value string)
}

// A MalformedError is returned when a cookie header cannot be parsed.
type MalformedError struct {
	Header string
	Value  string
	Err    error
}

func (err *MalformedError) Error() string {
	return fmt.Sprintf("httpexec/cookie: malformed %s header %q: %v", err.Header, err.Value, err.Err)
}

func (err *MalformedError) Unwrap() error {
	return err.Err
}

// A RejectedError is returned when a cookie fails validation against
// the origin it was received from.
type RejectedError struct {
	Cookie *Cookie
	Origin Origin
	Reason string
}

func (err *RejectedError) Error() string {
	return fmt.Sprintf("httpexec/cookie: cookie %q rejected for host %s: %s", err.Cookie.Name, err.Origin.Host, err.Reason)
}

// StandardSpec implements RFC 6265.
type StandardSpec struct{}

func (StandardSpec) Version() int {
	return 0
}

func (StandardSpec) Parse(header, value string, o Origin) (*Cookie, error) {
	return parse(header, value, o)
}

func (StandardSpec) Validate(c *Cookie, o Origin) error {
	return validate(c, o, strings.ToLower(o.Host))
}

func (StandardSpec) Match(c *Cookie, o Origin) bool {
	return match(c, o, strings.ToLower(o.Host))
}

func (StandardSpec) FormatCookies(cookies []*Cookie) []string {
	if len(cookies) == 0 {
		return nil
	}
	sorted := sortForHeader(cookies)
	var b strings.Builder
	for i, c := range sorted {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(c.Name)
		b.WriteByte('=')
		b.WriteString(c.Value)
	}
	return []string{b.String()}
}

func (StandardSpec) VersionHeader() (string, string) {
	return "", ""
}

// RFC2965Spec implements RFC 2965 (Set-Cookie2), falling back to RFC
// 6265 formatting for any batch containing version 0 cookies.
type RFC2965Spec struct{}

func (RFC2965Spec) Version() int {
	return 1
}

func (RFC2965Spec) Parse(header, value string, o Origin) (*Cookie, error) {
	c, err := parse(header, value, o)
	if err != nil {
		return nil, err
	}
	if c.HostOnly {
		c.Domain = effectiveHost(c.Domain)
	}
	return c, nil
}

func (RFC2965Spec) Validate(c *Cookie, o Origin) error {
	host := effectiveHost(strings.ToLower(o.Host))
	if err := validate(c, o, host); err != nil {
		return err
	}
	if !c.HostOnly && c.Version > 0 {
		prefix := strings.TrimSuffix(host, "."+c.Domain)
		if prefix != host && strings.Contains(prefix, ".") {
			return &RejectedError{Cookie: c, Origin: o, Reason: "host minus domain may not contain any dots"}
		}
	}
	return nil
}

func (RFC2965Spec) Match(c *Cookie, o Origin) bool {
	return match(c, o, effectiveHost(strings.ToLower(o.Host)))
}

func (RFC2965Spec) FormatCookies(cookies []*Cookie) []string {
	if len(cookies) == 0 {
		return nil
	}
	version := 1
	for _, c := range cookies {
		if c.Version < version {
			version = c.Version
		}
	}
	if version == 0 {
		return StandardSpec{}.FormatCookies(cookies)
	}
	sorted := sortForHeader(cookies)
	var b strings.Builder
	b.WriteString("$Version=")
	b.WriteString(strconv.Itoa(version))
	for _, c := range sorted {
		b.WriteString("; ")
		b.WriteString(c.Name)
		b.WriteString(`="`)
		b.WriteString(c.Value)
		b.WriteByte('"')
		if c.Path != "" {
			b.WriteString(`; $Path="`)
			b.WriteString(c.Path)
			b.WriteByte('"')
		}
		if c.Domain != "" && !c.HostOnly {
			b.WriteString(`; $Domain=".`)
			b.WriteString(c.Domain)
			b.WriteByte('"')
		}
	}
	return []string{b.String()}
}

func (RFC2965Spec) VersionHeader() (string, string) {
	return HeaderCookie2, "$Version=1"
}

// IgnoreSpec accepts no cookies and sends none.
type IgnoreSpec struct{}

func (IgnoreSpec) Version() int { return 0 }

func (IgnoreSpec) Parse(string, string, Origin) (*Cookie, error) { return nil, nil }

func (IgnoreSpec) Validate(*Cookie, Origin) error { return nil }

func (IgnoreSpec) Match(*Cookie, Origin) bool { return false }

func (IgnoreSpec) FormatCookies([]*Cookie) []string { return nil }

func (IgnoreSpec) VersionHeader() (string, string) { return "", "" }

// Names of the specs in DefaultRegistry.
const (
	DefaultSpecName  = "default"
	StandardSpecName = "standard"
	RFC2965SpecName  = "rfc2965"
	IgnoreSpecName   = "ignore"
)

// A Registry maps case-insensitive spec names to specs.
type Registry map[string]Spec

// DefaultRegistry returns a registry holding the standard and RFC 2965
// specs and the ignore spec. The default spec is the standard spec.
func DefaultRegistry() Registry {
	return Registry{
		DefaultSpecName:  StandardSpec{},
		StandardSpecName: StandardSpec{},
		RFC2965SpecName:  RFC2965Spec{},
		IgnoreSpecName:   IgnoreSpec{},
	}
}

// Lookup returns the spec registered under name.
func (r Registry) Lookup(name string) (Spec, bool) {
	s, ok := r[strings.ToLower(name)]
	return s, ok
}

func parse(header, value string, o Origin) (*Cookie, error) {
	hc, err := http.ParseSetCookie(value)
	if err != nil {
		return nil, &MalformedError{Header: header, Value: value, Err: err}
	}
	now := nowFunc()
	c := &Cookie{
		Name:     hc.Name,
		Value:    hc.Value,
		Path:     hc.Path,
		Secure:   hc.Secure,
		HTTPOnly: hc.HttpOnly,
		Cookie2:  strings.EqualFold(header, HeaderSetCookie2),
		Created:  now,
	}
	if hc.Domain == "" {
		c.Domain = strings.ToLower(o.Host)
		c.HostOnly = true
	} else {
		c.Domain = strings.ToLower(strings.TrimPrefix(hc.Domain, "."))
	}
	if c.Path == "" || c.Path[0] != '/' {
		c.Path = defaultPath(o.Path)
	}
	discard := false
	for _, attr := range hc.Unparsed {
		k, v, _ := strings.Cut(attr, "=")
		switch strings.ToLower(strings.TrimSpace(k)) {
		case "version":
			n, err := strconv.Atoi(strings.Trim(strings.TrimSpace(v), `"`))
			if err != nil || n < 0 {
				return nil, &MalformedError{Header: header, Value: value, Err: fmt.Errorf("invalid version %q", v)}
			}
			c.Version = n
		case "discard":
			discard = true
		}
	}
	switch {
	case discard:
	case hc.MaxAge < 0:
		c.Expires = now.Add(-1)
	case hc.MaxAge > 0:
		c.Expires = now.Add(timeSeconds(hc.MaxAge))
	case !hc.Expires.IsZero():
		c.Expires = hc.Expires
	}
	return c, nil
}

func validate(c *Cookie, o Origin, host string) error {
	if c.Name == "" {
		return &RejectedError{Cookie: c, Origin: o, Reason: "cookie name may not be empty"}
	}
	if c.Domain == "" {
		return &RejectedError{Cookie: c, Origin: o, Reason: "cookie domain may not be empty"}
	}
	if c.HostOnly {
		if c.Domain != host {
			return &RejectedError{Cookie: c, Origin: o, Reason: "illegal domain attribute " + strconv.Quote(c.Domain)}
		}
		return nil
	}
	if _, err := netip.ParseAddr(host); err == nil {
		if c.Domain != host {
			return &RejectedError{Cookie: c, Origin: o, Reason: "domain attribute does not match IP host"}
		}
		return nil
	}
	if !domainMatch(host, c.Domain) {
		return &RejectedError{Cookie: c, Origin: o, Reason: "illegal domain attribute " + strconv.Quote(c.Domain)}
	}
	if ps, _ := publicsuffix.PublicSuffix(c.Domain); ps == c.Domain && c.Domain != host {
		return &RejectedError{Cookie: c, Origin: o, Reason: "domain attribute is a public suffix"}
	}
	return nil
}

func match(c *Cookie, o Origin, host string) bool {
	if c.Secure && !o.Secure {
		return false
	}
	if c.HostOnly {
		if c.Domain != host {
			return false
		}
	} else if !domainMatch(host, c.Domain) {
		return false
	}
	return pathMatch(o.Path, c.Path)
}

func domainMatch(host, domain string) bool {
	if host == domain {
		return true
	}
	if !strings.HasSuffix(host, "."+domain) {
		return false
	}
	_, err := netip.ParseAddr(host)
	return err != nil
}

func pathMatch(requestPath, cookiePath string) bool {
	if requestPath == "" {
		requestPath = "/"
	}
	if cookiePath == "" || requestPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(requestPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || requestPath[len(cookiePath)] == '/'
}

func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndexByte(p, '/')
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func effectiveHost(host string) string {
	if host != "" && !strings.Contains(host, ".") {
		if _, err := netip.ParseAddr(host); err != nil {
			return host + ".local"
		}
	}
	return host
}

// sortForHeader orders cookies with longer paths first, and cookies
// with equal paths by creation time.
func sortForHeader(cookies []*Cookie) []*Cookie {
	sorted := append([]*Cookie(nil), cookies...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if len(sorted[i].Path) != len(sorted[j].Path) {
			return len(sorted[i].Path) > len(sorted[j].Path)
		}
		return sorted[i].Created.Before(sorted[j].Created)
	})
	return sorted
}

func timeSeconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

// Copyright (c) 2025 Steve Taranto <staranto@gmail.com>.
// SPDX-License-Identifier: Apache-2.0

package endpoint

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// ErrInvalidEndpoint is wrapped by every Parse failure.
var ErrInvalidEndpoint = errors.New("invalid endpoint")

// Endpoint identifies a remote service by scheme, host and port. It is
// comparable and is used directly as a cache key.
type Endpoint struct {
	Scheme string
	Host   string
	Port   int
}

var schemes = map[string]struct {
	secure bool
	port   int
}{
	"https": {true, 443},
	"grpcs": {true, 443},
	"http":  {false, 80},
	"grpc":  {false, 80},
}

// Parse accepts scheme://host[:port] as well as bare host[:port]. Bare forms
// are assumed to be https.
func Parse(raw string) (Endpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Endpoint{}, fmt.Errorf("%w: empty", ErrInvalidEndpoint)
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Endpoint{}, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}

	scheme := strings.ToLower(u.Scheme)
	def, ok := schemes[scheme]
	if !ok {
		return Endpoint{}, fmt.Errorf("%w: unsupported scheme %q", ErrInvalidEndpoint, u.Scheme)
	}

	if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" || u.User != nil {
		return Endpoint{}, fmt.Errorf("%w: %s must not carry a path, query or userinfo", ErrInvalidEndpoint, raw)
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Endpoint{}, fmt.Errorf("%w: missing host in %s", ErrInvalidEndpoint, raw)
	}

	port := def.port
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil || port <= 0 || port > 65535 {
			return Endpoint{}, fmt.Errorf("%w: bad port %q", ErrInvalidEndpoint, p)
		}
	}

	return Endpoint{Scheme: scheme, Host: host, Port: port}, nil
}

// MustParse is Parse for values known to be good. It panics otherwise.
func MustParse(raw string) Endpoint {
	ep, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return ep
}

// Target returns the host:port form handed to the gRPC dialer.
func (e Endpoint) Target() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Secure reports whether the endpoint requires TLS.
func (e Endpoint) Secure() bool {
	return schemes[e.Scheme].secure
}

// IsZero reports whether e is the zero Endpoint.
func (e Endpoint) IsZero() bool {
	return e == Endpoint{}
}

func (e Endpoint) String() string {
	if e.IsZero() {
		return ""
	}
	return e.Scheme + "://" + e.Target()
}

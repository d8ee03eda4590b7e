package wait

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// endpointURI assembles scheme://host[:port]path. Default ports are omitted.
func endpointURI(tls bool, host string, port int, path string) (*url.URL, error) {
	scheme, defaultPort := "http", 80
	if tls {
		scheme, defaultPort = "https", 443
	}
	if host == "" {
		return nil, fmt.Errorf("%w: empty host", ErrInvalidConfig)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, port)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	authority := strings.Trim(host, "[]")
	if port != defaultPort {
		authority = net.JoinHostPort(authority, strconv.Itoa(port))
	} else if strings.Contains(authority, ":") {
		authority = "[" + authority + "]"
	}

	u, err := url.Parse(scheme + "://" + authority + path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return u, nil
}

// withQuery returns a copy of u carrying params, form-encoded in key order.
func withQuery(u *url.URL, params map[string]string) *url.URL {
	if len(params) == 0 {
		return u
	}
	values := u.Query()
	for k, v := range params {
		values.Set(k, v)
	}
	out := *u
	out.RawQuery = values.Encode()
	return &out
}

// validMethod reports whether method is empty (GET) or an RFC 9110 token.
func validMethod(method string) bool {
	return strings.IndexFunc(method, func(r rune) bool {
		return !isTokenChar(r)
	}) < 0
}

func isTokenChar(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return true
	default:
		return r < 0x80 && strings.ContainsRune("!#$%&'*+-.^_`|~", r)
	}
}

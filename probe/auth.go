package probe

import "encoding/base64"

const (
	headerAuthorization = "Authorization"
	authBasicPrefix     = "Basic "
)

type authKind int

const (
	authNone authKind = iota
	authBasic
	authRaw
)

// Auth describes the Authorization header sent with an HTTP probe. The zero
// value sends no header.
type Auth struct {
	kind     authKind
	username string
	password string
	value    string
}

// BasicAuth authenticates with HTTP Basic credentials. An empty username
// disables authentication.
func BasicAuth(username, password string) Auth {
	if username == "" {
		return Auth{}
	}
	return Auth{kind: authBasic, username: username, password: password}
}

// RawAuthorization sends value verbatim as the Authorization header. An empty
// value disables authentication.
func RawAuthorization(value string) Auth {
	if value == "" {
		return Auth{}
	}
	return Auth{kind: authRaw, value: value}
}

// ResolveAuth picks the effective authentication when both a raw header value
// and basic credentials may be configured. The raw value wins.
func ResolveAuth(raw, username, password string) Auth {
	if auth := RawAuthorization(raw); auth.kind != authNone {
		return auth
	}
	return BasicAuth(username, password)
}

// Header returns the Authorization header value and whether one is set.
func (a Auth) Header() (string, bool) {
	switch a.kind {
	case authBasic:
		return BasicAuthHeader(a.username, a.password), true
	case authRaw:
		return a.value, true
	default:
		return "", false
	}
}

// IsZero reports whether no authentication is configured.
func (a Auth) IsZero() bool {
	return a.kind == authNone
}

// BasicAuthHeader renders "Basic " followed by base64(username:password).
func BasicAuthHeader(username, password string) string {
	return authBasicPrefix + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

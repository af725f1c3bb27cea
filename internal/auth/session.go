// Package auth carries the per-request view of the external authentication
// collaborator: whether the caller is signed in, its bearer token, and the
// guest cart key the browser holds.
package auth

import "strings"

type Session struct {
	token   string
	cartKey string
}

func NewSession(token, cartKey string) Session {
	return Session{token: strings.TrimSpace(token), cartKey: strings.TrimSpace(cartKey)}
}

// IsAuthenticated is the single predicate that selects the server cart over
// the guest cart.
func (s Session) IsAuthenticated() bool {
	return s.token != ""
}

func (s Session) AuthToken() string {
	return s.token
}

func (s Session) CartKey() string {
	return s.cartKey
}

// Guest returns the same session without credentials, as seen before login.
func (s Session) Guest() Session {
	return Session{cartKey: s.cartKey}
}

// TokenFromHeader extracts a bearer token from an Authorization header value.
func TokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

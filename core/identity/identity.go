// Package identity abstracts the external authentication system. The core
// only needs a stable user id to stamp on created documents; it never
// filters by user.
package identity

import "net/http"

// User identifies the current caller. The zero value means "no user".
type User struct {
	ID    string
	Name  string
	Email string
}

// Provider resolves the current user for a request.
type Provider interface {
	CurrentUser(r *http.Request) User
}

// HeaderProvider trusts identity headers set by the auth proxy in front of
// the service.
type HeaderProvider struct{}

// CurrentUser reads the proxy-set identity headers.
func (HeaderProvider) CurrentUser(r *http.Request) User {
	return User{
		ID:    r.Header.Get("X-User-ID"),
		Name:  r.Header.Get("X-User-Name"),
		Email: r.Header.Get("X-User-Email"),
	}
}

// StaticProvider returns a fixed user, for tests and local development.
type StaticProvider struct {
	User User
}

// CurrentUser returns the configured user.
func (p StaticProvider) CurrentUser(*http.Request) User {
	return p.User
}

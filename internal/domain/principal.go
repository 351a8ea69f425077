package domain

import "context"

// Principal is the authenticated caller attached to a request context
type Principal struct {
	UserID string
	Roles  []string
}

// HasRole reports whether the principal holds any of the given roles
func (p Principal) HasRole(roles ...string) bool {
	for _, have := range p.Roles {
		for _, want := range roles {
			if have == want {
				return true
			}
		}
	}
	return false
}

type principalKey struct{}

// WithPrincipal returns a context carrying the principal
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// PrincipalFromContext returns the principal, if any
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

package auth

import "context"

// Claims is the part of a verified access token the handlers rely on.
type Claims struct {
	Subject    string
	EmployeeID *string
	IsAdmin    bool
}

type claimsKey struct{}

func WithClaims(ctx context.Context, c Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

func ClaimsFrom(ctx context.Context) (Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(Claims)
	return c, ok
}

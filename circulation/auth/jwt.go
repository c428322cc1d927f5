package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/shelfwise/circulation/circulation/shared/core"
)

// DefaultLeeway tolerates clock skew between the token issuer and this service.
const DefaultLeeway = 30 * time.Second

var (
	// ErrEmptySecret is returned by NewJWTResolver when no signing secret is configured.
	ErrEmptySecret = errors.New("jwt secret must not be empty")

	// ErrUnknownRole is returned when a token carries, or Issue is asked for, a role other than user or admin.
	ErrUnknownRole = errors.New("unknown role")
)

// ActorResolver resolves the authenticated actor of a token.
type ActorResolver interface {
	ResolveActor(ctx context.Context, token string) (core.Actor, error)
}

type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// JWTResolver verifies HS256 tokens with a shared secret.
type JWTResolver struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// Option configures a JWTResolver.
type Option func(*JWTResolver)

// WithIssuer requires tokens to carry this issuer, and sets it on issued tokens.
func WithIssuer(issuer string) Option {
	return func(r *JWTResolver) {
		r.issuer = issuer
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *JWTResolver) {
		r.now = now
	}
}

// NewJWTResolver creates a JWTResolver.
func NewJWTResolver(secret string, opts ...Option) (*JWTResolver, error) {
	if secret == "" {
		return nil, ErrEmptySecret
	}

	resolver := &JWTResolver{
		secret: []byte(secret),
		now:    time.Now,
	}

	for _, opt := range opts {
		opt(resolver)
	}

	return resolver, nil
}

// ResolveActor verifies the token and returns the actor it was issued for.
// Every failure is an Unauthenticated error; the cause is kept in the message, not returned to clients.
func (r *JWTResolver) ResolveActor(_ context.Context, token string) (core.Actor, error) {
	parserOptions := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(DefaultLeeway),
		jwt.WithTimeFunc(r.now),
		jwt.WithExpirationRequired(),
	}
	if r.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(r.issuer))
	}

	parsed, err := jwt.ParseWithClaims(strings.TrimSpace(token), &claims{}, func(*jwt.Token) (any, error) {
		return r.secret, nil
	}, parserOptions...)
	if err != nil {
		return core.Actor{}, core.NewError(core.KindUnauthenticated, "invalid token: %v", err)
	}

	tokenClaims, ok := parsed.Claims.(*claims)
	if !ok || !parsed.Valid || tokenClaims.Subject == "" {
		return core.Actor{}, core.NewError(core.KindUnauthenticated, "invalid token claims")
	}

	role, err := parseRole(tokenClaims.Role)
	if err != nil {
		return core.Actor{}, core.NewError(core.KindUnauthenticated, "invalid token claims: %v", err)
	}

	return core.Actor{UserID: tokenClaims.Subject, Role: role}, nil
}

// Issue signs a token for actor that expires after ttl.
func (r *JWTResolver) Issue(actor core.Actor, ttl time.Duration) (string, error) {
	if _, err := parseRole(string(actor.Role)); err != nil {
		return "", err
	}

	now := r.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Role: string(actor.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.UserID,
			Issuer:    r.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})

	return token.SignedString(r.secret)
}

func parseRole(role string) (core.Role, error) {
	switch core.Role(role) {
	case core.RoleUser, core.RoleAdmin:
		return core.Role(role), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
}

var _ ActorResolver = (*JWTResolver)(nil)

// Package auth provides optional JWT bearer authentication for the served
// dashboard, backed by the identity provider's JWKS endpoint.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// Config holds identity provider settings.
type Config struct {
	Domain   string // issuer base URL, e.g. "https://yourapp.example.com"
	Audience string // expected audience; empty skips the check
}

// Claims are the JWT claims accepted by the dashboard.
type Claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Verifier validates bearer tokens against the provider's JWKS.
type Verifier struct {
	jwks     keyfunc.Keyfunc
	audience string
	issuer   string
}

// NewVerifier creates a verifier for the given provider. It fetches the
// JWKS eagerly, so a misconfigured domain fails at startup rather than on
// the first request.
func NewVerifier(cfg Config) (*Verifier, error) {
	issuer := strings.TrimSuffix(cfg.Domain, "/")
	jwksURL := fmt.Sprintf("%s/.well-known/jwks.json", issuer)

	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS keyfunc: %w", err)
	}

	return &Verifier{
		jwks:     jwks,
		audience: cfg.Audience,
		issuer:   issuer,
	}, nil
}

// Verify validates a JWT token string and returns its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	parserOpts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256"}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
	}
	if v.audience != "" {
		parserOpts = append(parserOpts, jwt.WithAudience(v.audience))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, v.jwks.Keyfunc, parserOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}

	return claims, nil
}

// Middleware creates HTTP middleware that requires a valid bearer token.
func Middleware(verifier *Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractBearerToken(r)
			if token == "" {
				http.Error(w, "Unauthorized: missing token", http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(token)
			if err != nil {
				http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

type contextKey int

const claimsKey contextKey = iota

// WithClaims returns a new context carrying the given claims.
func WithClaims(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// FromContext returns the claims from ctx, or nil if not authenticated.
func FromContext(ctx context.Context) *Claims {
	claims, _ := ctx.Value(claimsKey).(*Claims)
	return claims
}

// UserID returns the token subject from ctx, or empty when unauthenticated.
func UserID(ctx context.Context) string {
	claims := FromContext(ctx)
	if claims == nil {
		return ""
	}
	return claims.Subject
}

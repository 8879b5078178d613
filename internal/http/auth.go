package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/log"
)

type ownerKey struct{}

// Authenticator verifies HS256 bearer tokens. The token subject is the
// owner every ledger query is scoped to.
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

func NewAuthenticator(secret string) *Authenticator {
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid token")
)

// Owner validates a raw token and returns its subject.
func (a *Authenticator) Owner(raw string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := a.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", errInvalidToken
	}
	owner := strings.TrimSpace(claims.Subject)
	if owner == "" {
		return "", errInvalidToken
	}
	return owner, nil
}

// Issue signs a token for owner. Used by tooling and tests.
func (a *Authenticator) Issue(owner string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   owner,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", errMissingToken
	}
	return strings.TrimSpace(header[len(prefix):]), nil
}

// Middleware rejects requests without a valid token and stores the owner in
// the request context and logger.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="fintrack"`)
			writeMessage(w, http.StatusUnauthorized, err.Error())
			return
		}
		owner, err := a.Owner(raw)
		if err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Rejected bearer token",
				log.FieldErrorType, log.ErrorTypeAuth,
				log.FieldError, err.Error())
			w.Header().Set("WWW-Authenticate", `Bearer realm="fintrack", error="invalid_token"`)
			writeMessage(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), ownerKey{}, owner)
		ctx = log.WithLogger(ctx, log.FromContext(ctx).With(log.FieldOwner, owner))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ownerFrom returns the authenticated owner. Routes behind Middleware always
// have one.
func ownerFrom(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

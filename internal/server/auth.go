package server

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/lucasew/markdown-input/internal/httputil"
)

// ErrUnauthorized is returned for missing or invalid bearer tokens.
var ErrUnauthorized = errors.New("unauthorized")

// Authenticator issues and checks HS256 bearer tokens. With an empty secret
// every request is let through.
type Authenticator struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewAuthenticator(secret string, ttl time.Duration) *Authenticator {
	var key []byte
	if secret != "" {
		key = []byte(secret)
	}
	return &Authenticator{secret: key, ttl: ttl, now: time.Now}
}

// Enabled reports whether a secret is configured.
func (a *Authenticator) Enabled() bool {
	return a != nil && len(a.secret) > 0
}

// Issue signs a token for subject, valid for the configured TTL.
func (a *Authenticator) Issue(subject string) (string, error) {
	if !a.Enabled() {
		return "", errors.New("auth.jwt_secret is not set")
	}
	now := a.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": subject,
		"exp": jwt.NewNumericDate(now.Add(a.ttl)),
		"nbf": jwt.NewNumericDate(now),
		"iat": jwt.NewNumericDate(now),
	})
	return token.SignedString(a.secret)
}

// Validate checks a token and returns its subject.
func (a *Authenticator) Validate(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(a.now))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("%w: invalid token", ErrUnauthorized)
	}
	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", fmt.Errorf("%w: sub claim missing", ErrUnauthorized)
	}
	return subject, nil
}

// extractToken reads the Authorization header, falling back to the token
// query parameter for clients that cannot set headers (browser WebSockets).
func extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if strings.HasPrefix(header, "Bearer ") {
			return strings.TrimPrefix(header, "Bearer ")
		}
		return ""
	}
	return r.URL.Query().Get("token")
}

// RequireBearer protects next when the authenticator is enabled.
func (a *Authenticator) RequireBearer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !a.Enabled() {
			next(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			w.Header().Set("WWW-Authenticate", `Bearer realm="markdown-input"`)
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		if _, err := a.Validate(token); err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="markdown-input", error="invalid_token"`)
			httputil.WriteErrorMessage(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next(w, r)
	}
}

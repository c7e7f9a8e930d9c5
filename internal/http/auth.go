package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"registru/internal/access"
	"registru/internal/audit"
	"registru/internal/services"
)

var errNoToken = errors.New("authorization token not provided")

type sessionClaims struct {
	Login string `json:"login"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func newTokenIssuer(secret []byte, ttl time.Duration) *tokenIssuer {
	return &tokenIssuer{secret: secret, ttl: ttl, now: time.Now}
}

// Issue signs an HS256 token carrying the session identity and role.
func (t *tokenIssuer) Issue(s services.Session) (string, time.Time, error) {
	now := t.now()
	expires := now.Add(t.ttl)
	claims := sessionClaims{
		Login: s.Login,
		Role:  string(s.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   s.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expires, nil
}

// Parse verifies a token and rebuilds the session it describes.
func (t *tokenIssuer) Parse(raw string) (services.Session, error) {
	claims := &sessionClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return services.Session{}, err
	}
	if claims.Subject == "" {
		return services.Session{}, errors.New("token has no subject")
	}

	role := access.ParseRole(claims.Role)
	return services.Session{
		UserID:       claims.Subject,
		Login:        claims.Login,
		Role:         role,
		Capabilities: access.For(role),
	}, nil
}

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errNoToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}

type sessionKey struct{}

func sessionFrom(ctx context.Context) (services.Session, bool) {
	s, ok := ctx.Value(sessionKey{}).(services.Session)
	return s, ok
}

// authenticated rejects requests without a valid token and puts the
// session and audit actor on the request context.
func (s *Server) authenticated(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, err := bearerToken(r)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
			return
		}
		sess, err := s.tokens.Parse(raw)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid or expired token"})
			return
		}

		ctx := context.WithValue(r.Context(), sessionKey{}, sess)
		ctx = audit.WithActor(ctx, sess.UserID)
		next(w, r.WithContext(ctx))
	})
}

// view hides a route from sessions that cannot see v.
func (s *Server) view(v access.View, next http.HandlerFunc) http.Handler {
	return s.authenticated(func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFrom(r.Context())
		if !sess.Capabilities.CanView(v) {
			http.NotFound(w, r)
			return
		}
		next(w, r)
	})
}

// action hides a mutating route unless the session can see v and perform a.
func (s *Server) action(v access.View, a access.Action, next http.HandlerFunc) http.Handler {
	return s.view(v, func(w http.ResponseWriter, r *http.Request) {
		sess, _ := sessionFrom(r.Context())
		if !sess.Capabilities.CanDo(a) {
			http.NotFound(w, r)
			return
		}
		next(w, r)
	})
}

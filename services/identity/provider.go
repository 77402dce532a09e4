// Package identitysvc adapts the external identity provider's session
// tokens into the core.Session handle the resolvers consume. Session
// creation and teardown (login/logout) belong to the provider; this package
// only reads what it issued.
package identitysvc

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/darasa/core"
)

// Claims represents the authorization claims transmitted via a JWT.
// Subject carries the opaque caller identity token.
type Claims struct {
	jwt.StandardClaims
	Username string   `json:"username,omitempty"`
	Email    string   `json:"email,omitempty"`
	IsAdmin  bool     `json:"is_admin,omitempty"`
	Roles    []string `json:"roles,omitempty"`
}

// Session is a live (or anonymous) authentication session backed by
// provider-issued claims. Immutable for its lifetime.
type Session struct {
	claims *Claims
	raw    string
}

var _ core.Session = (*Session)(nil)

func NewSession(claims *Claims, raw string) *Session {
	return &Session{claims: claims, raw: raw}
}

// Anonymous returns an unauthenticated session handle.
func Anonymous() *Session { return &Session{} }

func (s *Session) Authenticated() bool {
	return s.claims != nil && s.claims.Subject != ""
}

func (s *Session) Identity() string {
	if s.claims == nil {
		return ""
	}
	return s.claims.Subject
}

func (s *Session) Email() string {
	if s.claims == nil {
		return ""
	}
	return s.claims.Email
}

func (s *Session) Token() string { return s.raw }

func (s *Session) IsAdmin() bool {
	return s.claims != nil && s.claims.IsAdmin
}

// NewClaims builds session claims for identity. Used by dev/admin tooling;
// production tokens come from the identity provider itself.
func NewClaims(conf *core.Config, identity, username, email string, isAdmin bool, roles ...string) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.New().String(),
			Issuer:    conf.AppName,
			Subject:   identity,
			Audience:  "Darasa",
			ExpiresAt: now.Add(conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		Username: username,
		Email:    email,
		IsAdmin:  isAdmin,
		Roles:    roles,
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(conf *core.Config, claims *Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(conf.SecretKey))
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

// ParseToken verifies a raw token string and returns a Session for it.
func ParseToken(conf *core.Config, raw string) (*Session, error) {
	claims := new(Claims)
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return []byte(conf.SecretKey), nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "parsing token")
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return NewSession(claims, raw), nil
}

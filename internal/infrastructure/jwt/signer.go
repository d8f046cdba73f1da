package jwtinfra

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-member-api/internal/pkg/id"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrExpiredSignature = errors.New("token has expired")
	ErrInvalidSignature = errors.New("token signature is invalid")
)

// Kind tells access tokens and refresh tokens apart. It travels in the typ claim.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

// Claims holds the JWT payload fields. Subject carries the member id.
type Claims struct {
	Roles []string `json:"roles"`
	Kind  Kind     `json:"typ"`
	jwt.RegisteredClaims
}

// Signer signs and verifies HS512 JWTs with a process-wide shared secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

type Option func(*Signer)

// WithClock overrides the time source used for iat/exp and for validation.
func WithClock(now func() time.Time) Option {
	return func(s *Signer) { s.now = now }
}

func NewSigner(secret string, opts ...Option) (*Signer, error) {
	if secret == "" {
		return nil, errors.New("jwt secret must not be empty")
	}
	s := &Signer{secret: []byte(secret), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Signer) Sign(subject string, roles []string, kind Kind, ttl time.Duration) (string, error) {
	if ttl < time.Second {
		return "", fmt.Errorf("token ttl must be at least one second, got %s", ttl)
	}
	now := s.now()
	claims := Claims{
		Roles: roles,
		Kind:  kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ID:        id.New(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify returns the claims of a well-formed, correctly signed, unexpired token.
// Errors wrap ErrExpiredSignature or ErrInvalidSignature.
func (s *Signer) Verify(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpiredSignature, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, fmt.Errorf("%w: invalid token claims", ErrInvalidSignature)
	}
	return claims, nil
}

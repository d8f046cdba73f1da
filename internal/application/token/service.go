package token

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-member-api/internal/domain"
	jwtinfra "github.com/go-member-api/internal/infrastructure/jwt"
)

// RefreshCookieName is the cookie that carries the refresh token.
const RefreshCookieName = "refreshToken"

const bearerPrefix = "Bearer "

type Service interface {
	IssueAccessToken(memberID string, roles []string) (string, error)
	IssueRefreshToken(memberID string, roles []string, w http.ResponseWriter) error
	Refresh(r *http.Request, w http.ResponseWriter) (string, error)
	Logout(r *http.Request, w http.ResponseWriter) error
	ResolveBearer(header string) (string, bool)
	Authenticate(token string) (domain.Identity, error)
}

type signer interface {
	Sign(subject string, roles []string, kind jwtinfra.Kind, ttl time.Duration) (string, error)
	Verify(token string) (*jwtinfra.Claims, error)
}

type service struct {
	signer       signer
	accessTTL    time.Duration
	refreshTTL   time.Duration
	secureCookie bool
}

type ServiceDeps struct {
	Signer       signer
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
	SecureCookie bool
}

func NewService(deps ServiceDeps) Service {
	return &service{
		signer:       deps.Signer,
		accessTTL:    deps.AccessTTL,
		refreshTTL:   deps.RefreshTTL,
		secureCookie: deps.SecureCookie,
	}
}

func (s *service) IssueAccessToken(memberID string, roles []string) (string, error) {
	return s.signer.Sign(memberID, roles, jwtinfra.KindAccess, s.accessTTL)
}

// IssueRefreshToken signs a refresh token and stores it in the refresh cookie.
// Nothing is written to w when signing fails.
func (s *service) IssueRefreshToken(memberID string, roles []string, w http.ResponseWriter) error {
	tok, err := s.signer.Sign(memberID, roles, jwtinfra.KindRefresh, s.refreshTTL)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(tok, int(s.refreshTTL/time.Second)))
	return nil
}

// Refresh rotates the refresh cookie and returns a fresh access token for the
// same subject and roles.
func (s *service) Refresh(r *http.Request, w http.ResponseWriter) (string, error) {
	raw, err := refreshCookie(r)
	if err != nil {
		return "", err
	}
	claims, err := s.verify(raw, jwtinfra.KindRefresh)
	if err != nil {
		slog.Warn("refresh token rejected", "err", err)
		return "", domain.ErrExpiredRefreshToken
	}
	if err := s.IssueRefreshToken(claims.Subject, claims.Roles, w); err != nil {
		return "", fmt.Errorf("rotate refresh token: %w", err)
	}
	return s.IssueAccessToken(claims.Subject, claims.Roles)
}

// Logout expires the refresh cookie on the client. Tokens are not tracked
// server side, so an already issued token stays valid until it expires.
func (s *service) Logout(r *http.Request, w http.ResponseWriter) error {
	if _, err := refreshCookie(r); err != nil {
		return err
	}
	http.SetCookie(w, s.cookie("", -1))
	return nil
}

func (s *service) ResolveBearer(header string) (string, bool) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return "", false
	}
	tok := header[len(bearerPrefix):]
	if tok == "" {
		return "", false
	}
	return tok, true
}

// Authenticate turns a valid access token into an Identity. Any verification
// failure is reported as domain.ErrExpiredAccessToken so the client refreshes.
func (s *service) Authenticate(token string) (domain.Identity, error) {
	claims, err := s.verify(token, jwtinfra.KindAccess)
	if err != nil {
		if !errors.Is(err, jwtinfra.ErrExpiredSignature) {
			slog.Warn("access token rejected", "err", err)
		}
		return domain.Identity{}, domain.ErrExpiredAccessToken
	}
	return domain.Identity{MemberID: claims.Subject, Roles: claims.Roles}, nil
}

// verify checks the signature and expiry, then that the token was issued as kind.
func (s *service) verify(token string, kind jwtinfra.Kind) (*jwtinfra.Claims, error) {
	claims, err := s.signer.Verify(token)
	if err != nil {
		return nil, err
	}
	if claims.Kind != kind {
		return nil, fmt.Errorf("%w: got %q token, want %q", jwtinfra.ErrInvalidSignature, claims.Kind, kind)
	}
	return claims, nil
}

// cookie builds the refresh cookie. maxAge < 0 emits Max-Age=0.
func (s *service) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     RefreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.secureCookie,
	}
}

func refreshCookie(r *http.Request) (string, error) {
	c, err := r.Cookie(RefreshCookieName)
	if err != nil || c.Value == "" {
		return "", domain.ErrMissingRefreshToken
	}
	return c.Value, nil
}

package verification

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-member-api/internal/domain"
	pkgtoken "github.com/go-member-api/internal/pkg/token"
)

const (
	flagPending  = "false"
	flagVerified = "true"
)

// Service runs the email ownership workflow: a code is mailed, checked once
// it comes back, and the resulting verified flag is consumed by exactly one
// sign-up or email change.
type Service interface {
	IssueCode(ctx context.Context, email string) error
	CheckCode(ctx context.Context, email, code string) error
	IsVerified(ctx context.Context, email string) error
	ConsumeVerification(ctx context.Context, email string) error
}

type codeStore interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	ReplaceKeepTTL(ctx context.Context, key, value string) (bool, error)
	CompareAndDelete(ctx context.Context, key, expected string) (bool, error)
	Delete(ctx context.Context, key string) error
}

type mailSender interface {
	Send(ctx context.Context, to, content string, category domain.MailCategory) error
}

type service struct {
	store   codeStore
	mail    mailSender
	ttl     time.Duration
	newCode func() (string, error)
}

type ServiceDeps struct {
	Store codeStore
	Mail  mailSender
	TTL   time.Duration
	// NewCode overrides the code generator. Defaults to pkg/token.NewVerificationCode.
	NewCode func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	gen := deps.NewCode
	if gen == nil {
		gen = pkgtoken.NewVerificationCode
	}
	return &service{store: deps.Store, mail: deps.Mail, ttl: deps.TTL, newCode: gen}
}

// IssueCode stores a fresh code and a pending flag for email, both expiring
// after the configured TTL, then mails the code. A new code replaces any
// earlier one and resets the flag.
func (s *service) IssueCode(ctx context.Context, email string) error {
	code, err := s.newCode()
	if err != nil {
		return err
	}
	if err := s.store.Set(ctx, domain.CodeKeyPrefix+email, code, s.ttl); err != nil {
		return err
	}
	if err := s.store.Set(ctx, domain.FlagKeyPrefix+email, flagPending, s.ttl); err != nil {
		return err
	}
	return s.mail.Send(ctx, email, code, domain.MailAuth)
}

// CheckCode marks email as verified when code matches the stored one. The
// flag keeps its remaining lifetime and the code stays in place until the
// verification is consumed or expires.
func (s *service) CheckCode(ctx context.Context, email, code string) error {
	stored, err := s.store.Get(ctx, domain.CodeKeyPrefix+email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrCodeExpired
	}
	if err != nil {
		return err
	}
	if stored != code {
		return domain.ErrCodeMismatch
	}
	ok, err := s.store.ReplaceKeepTTL(ctx, domain.FlagKeyPrefix+email, flagVerified)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrCodeExpired
	}
	return nil
}

// IsVerified reports domain.ErrEmailNotVerified unless email holds a verified
// flag. It does not consume the flag.
func (s *service) IsVerified(ctx context.Context, email string) error {
	v, err := s.store.Get(ctx, domain.FlagKeyPrefix+email)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrEmailNotVerified
	}
	if err != nil {
		return err
	}
	if v != flagVerified {
		return domain.ErrEmailNotVerified
	}
	return nil
}

// ConsumeVerification atomically removes a verified flag. Only one caller can
// consume a given verification; every other caller gets domain.ErrEmailNotVerified.
// The code is dropped with it so it cannot be replayed within its TTL.
func (s *service) ConsumeVerification(ctx context.Context, email string) error {
	ok, err := s.store.CompareAndDelete(ctx, domain.FlagKeyPrefix+email, flagVerified)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrEmailNotVerified
	}
	if err := s.store.Delete(ctx, domain.CodeKeyPrefix+email); err != nil {
		// The flag is gone already; a stale code expires on its own.
		slog.Warn("failed to delete consumed verification code", "email", email, "err", err)
	}
	return nil
}

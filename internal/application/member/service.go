package member

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-member-api/internal/domain"
	pkgtoken "github.com/go-member-api/internal/pkg/token"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// SignInResult is returned by both password and social sign-in.
// The refresh token has already been written to the response as a cookie.
type SignInResult struct {
	AccessToken string
	UserID      string
	Identity    domain.Identity
}

type Service interface {
	CheckDuplicateID(ctx context.Context, userID string) error
	CheckDuplicateEmail(ctx context.Context, email string) error
	SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.Member, error)
	SignIn(ctx context.Context, req domain.SignInRequest, w http.ResponseWriter) (*SignInResult, error)
	SocialSignIn(ctx context.Context, profile domain.SocialProfile, w http.ResponseWriter) (*SignInResult, error)
	SignOut(r *http.Request, w http.ResponseWriter) error
	FindID(ctx context.Context, email string) (*domain.Member, error)
	FindPassword(ctx context.Context, req domain.FindPasswordRequest) error
	GetMember(ctx context.Context, userID string) (*domain.Member, error)
	ModifyEmail(ctx context.Context, userID string, req domain.ModifyEmailRequest) (*domain.Member, error)
	ModifyPassword(ctx context.Context, userID string, req domain.ModifyPasswordRequest) (*domain.Member, error)
	Delete(ctx context.Context, userID string, r *http.Request, w http.ResponseWriter) (*domain.Member, error)
}

type memberStore interface {
	FindByID(ctx context.Context, userID string) (*domain.Member, error)
	FindByEmail(ctx context.Context, email string) (*domain.Member, error)
	ExistsByID(ctx context.Context, userID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, m *domain.Member) error
	Save(ctx context.Context, m *domain.Member) error
}

type tokenIssuer interface {
	IssueAccessToken(memberID string, roles []string) (string, error)
	IssueRefreshToken(memberID string, roles []string, w http.ResponseWriter) error
	Logout(r *http.Request, w http.ResponseWriter) error
}

type emailVerifier interface {
	IsVerified(ctx context.Context, email string) error
	ConsumeVerification(ctx context.Context, email string) error
}

type mailSender interface {
	Send(ctx context.Context, to, content string, category domain.MailCategory) error
}

type service struct {
	repo         memberStore
	tokens       tokenIssuer
	verification emailVerifier
	mail         mailSender
	now          func() time.Time
	bcryptCost   int
	tempPassword func() (string, error)
}

type ServiceDeps struct {
	MemberRepo   memberStore
	Tokens       tokenIssuer
	Verification emailVerifier
	Mail         mailSender
	// Optional; zero values fall back to time.Now, bcrypt.DefaultCost and
	// pkg/token.NewTemporaryPassword.
	Now          func() time.Time
	BcryptCost   int
	TempPassword func() (string, error)
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		repo:         deps.MemberRepo,
		tokens:       deps.Tokens,
		verification: deps.Verification,
		mail:         deps.Mail,
		now:          deps.Now,
		bcryptCost:   deps.BcryptCost,
		tempPassword: deps.TempPassword,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.bcryptCost == 0 {
		s.bcryptCost = bcrypt.DefaultCost
	}
	if s.tempPassword == nil {
		s.tempPassword = pkgtoken.NewTemporaryPassword
	}
	return s
}

func (s *service) CheckDuplicateID(ctx context.Context, userID string) error {
	exists, err := s.repo.ExistsByID(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicatedID
	}
	return nil
}

func (s *service) CheckDuplicateEmail(ctx context.Context, email string) error {
	exists, err := s.repo.ExistsByEmail(ctx, email)
	if err != nil {
		return err
	}
	if exists {
		return domain.ErrDuplicatedEmail
	}
	return nil
}

// SignUp registers a local member. The email must have been verified; the
// verification is consumed once the request itself is known to be valid and
// neither the user id nor the email is taken. A concurrent sign-up can still
// claim either between these checks and Create, which then fails with
// domain.ErrDuplicateConstraint after the verification is spent.
func (s *service) SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.Member, error) {
	if err := s.verification.IsVerified(ctx, req.Email); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}
	if err := s.CheckDuplicateID(ctx, req.UserID); err != nil {
		return nil, err
	}
	if err := s.CheckDuplicateEmail(ctx, req.Email); err != nil {
		return nil, err
	}
	hash, err := s.hash(req.Password)
	if err != nil {
		return nil, err
	}
	if err := s.verification.ConsumeVerification(ctx, req.Email); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	m := &domain.Member{
		UserID:       req.UserID,
		PasswordHash: hash,
		Email:        req.Email,
		Roles:        []string{domain.RoleUser},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// SignIn checks the password and, only on success, sets the refresh cookie
// and returns an access token.
func (s *service) SignIn(ctx context.Context, req domain.SignInRequest, w http.ResponseWriter) (*SignInResult, error) {
	m, err := s.find(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(req.Password)) != nil {
		return nil, domain.ErrWrongPassword
	}
	return s.issue(m.Identity(), w)
}

// SocialSignIn signs in the member registered under the profile's email,
// creating a social member on first use.
func (s *service) SocialSignIn(ctx context.Context, profile domain.SocialProfile, w http.ResponseWriter) (*SignInResult, error) {
	m, err := s.repo.FindByEmail(ctx, profile.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		m, err = s.createSocial(ctx, profile)
		if err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	}

	id := m.Identity()
	id.Attributes = profile.Attributes
	return s.issue(id, w)
}

func (s *service) SignOut(r *http.Request, w http.ResponseWriter) error {
	return s.tokens.Logout(r, w)
}

func (s *service) FindID(ctx context.Context, email string) (*domain.Member, error) {
	m, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, notFound(err)
	}
	if err := s.mail.Send(ctx, email, m.UserID, domain.MailID); err != nil {
		return nil, err
	}
	return m, nil
}

// FindPassword resets the password of a local member to a temporary one and
// mails it. The supplied email must be the one on file. When the mail cannot
// be sent the previous password is restored.
func (s *service) FindPassword(ctx context.Context, req domain.FindPasswordRequest) error {
	m, err := s.find(ctx, req.UserID)
	if err != nil {
		return err
	}
	if m.Email != req.Email {
		return domain.ErrMemberNotFound
	}
	if m.IsSocial() {
		return domain.ErrSocialUser
	}

	temp, err := s.tempPassword()
	if err != nil {
		return err
	}
	hash, err := s.hash(temp)
	if err != nil {
		return err
	}
	prevHash, prevUpdated := m.PasswordHash, m.UpdatedAt
	m.PasswordHash = hash
	m.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, m); err != nil {
		return err
	}
	if err := s.mail.Send(ctx, req.Email, temp, domain.MailPassword); err != nil {
		m.PasswordHash, m.UpdatedAt = prevHash, prevUpdated
		if rerr := s.repo.Save(ctx, m); rerr != nil {
			slog.Error("failed to restore password after mail failure", "user_id", m.UserID, "err", rerr)
			return errors.Join(err, rerr)
		}
		return err
	}
	return nil
}

func (s *service) GetMember(ctx context.Context, userID string) (*domain.Member, error) {
	return s.find(ctx, userID)
}

// ModifyEmail moves the caller's account from OriginEmail to NewEmail.
// NewEmail must be unused and freshly verified.
func (s *service) ModifyEmail(ctx context.Context, userID string, req domain.ModifyEmailRequest) (*domain.Member, error) {
	m, err := s.repo.FindByEmail(ctx, req.OriginEmail)
	if err != nil {
		return nil, notFound(err)
	}
	if m.UserID != userID {
		return nil, domain.ErrMemberNotFound
	}
	if m.Email == req.NewEmail {
		return nil, domain.ErrSameEmail
	}
	exists, err := s.repo.ExistsByEmail(ctx, req.NewEmail)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicatedEmail
	}
	if err := s.verification.ConsumeVerification(ctx, req.NewEmail); err != nil {
		return nil, err
	}

	m.Email = req.NewEmail
	m.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *service) ModifyPassword(ctx context.Context, userID string, req domain.ModifyPasswordRequest) (*domain.Member, error) {
	m, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(m.PasswordHash), []byte(req.OriginPassword)) != nil {
		return nil, domain.ErrWrongOriginalPassword
	}
	if req.NewPassword != req.ConfirmPassword {
		return nil, domain.ErrPasswordMismatch
	}
	hash, err := s.hash(req.NewPassword)
	if err != nil {
		return nil, err
	}
	m.PasswordHash = hash
	m.UpdatedAt = s.now().UTC()
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// Delete soft-deletes the member and clears the refresh cookie. A request
// without a refresh cookie still deletes the account.
func (s *service) Delete(ctx context.Context, userID string, r *http.Request, w http.ResponseWriter) (*domain.Member, error) {
	m, err := s.find(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	m.DeletedAt = &now
	m.UpdatedAt = now
	if err := s.repo.Save(ctx, m); err != nil {
		return nil, err
	}
	if err := s.tokens.Logout(r, w); err != nil {
		if !errors.Is(err, domain.ErrMissingRefreshToken) {
			return nil, err
		}
		slog.Warn("member deleted without refresh cookie", "user_id", userID)
	}
	return m, nil
}

func (s *service) createSocial(ctx context.Context, profile domain.SocialProfile) (*domain.Member, error) {
	// Social members never sign in with a password; store the hash of a
	// random value nobody knows.
	hash, err := s.hash(uuid.NewString())
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	m := &domain.Member{
		UserID:       profile.Provider + "_" + profile.Subject,
		PasswordHash: hash,
		Email:        profile.Email,
		Roles:        []string{domain.RoleUser},
		Provider:     profile.Provider,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	slog.Info("registered social member", "user_id", m.UserID, "provider", m.Provider)
	return m, nil
}

func (s *service) issue(id domain.Identity, w http.ResponseWriter) (*SignInResult, error) {
	access, err := s.tokens.IssueAccessToken(id.MemberID, id.Roles)
	if err != nil {
		return nil, err
	}
	if err := s.tokens.IssueRefreshToken(id.MemberID, id.Roles, w); err != nil {
		return nil, err
	}
	return &SignInResult{AccessToken: access, UserID: id.MemberID, Identity: id}, nil
}

func (s *service) find(ctx context.Context, userID string) (*domain.Member, error) {
	m, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, notFound(err)
	}
	return m, nil
}

func (s *service) hash(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// notFound maps a store miss to domain.ErrMemberNotFound and passes other
// errors through.
func notFound(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return domain.ErrMemberNotFound
	}
	return err
}

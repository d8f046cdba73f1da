package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-member-api/internal/application/member"
	"github.com/go-member-api/internal/domain"
	"github.com/go-member-api/internal/transport/http/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockMemberSvc struct{ mock.Mock }

func (m *mockMemberSvc) CheckDuplicateID(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}
func (m *mockMemberSvc) CheckDuplicateEmail(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockMemberSvc) SignUp(ctx context.Context, req domain.SignUpRequest) (*domain.Member, error) {
	args := m.Called(ctx, req)
	if u, _ := args.Get(0).(*domain.Member); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemberSvc) SignIn(ctx context.Context, req domain.SignInRequest, w http.ResponseWriter) (*member.SignInResult, error) {
	args := m.Called(ctx, req, w)
	if r, _ := args.Get(0).(*member.SignInResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemberSvc) SocialSignIn(ctx context.Context, p domain.SocialProfile, w http.ResponseWriter) (*member.SignInResult, error) {
	args := m.Called(ctx, p, w)
	if r, _ := args.Get(0).(*member.SignInResult); r != nil {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemberSvc) SignOut(r *http.Request, w http.ResponseWriter) error {
	return m.Called(r, w).Error(0)
}
func (m *mockMemberSvc) FindID(ctx context.Context, email string) (*domain.Member, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.Member); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemberSvc) FindPassword(ctx context.Context, req domain.FindPasswordRequest) error {
	return m.Called(ctx, req).Error(0)
}
func (m *mockMemberSvc) GetMember(ctx context.Context, userID string) (*domain.Member, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.Member); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemberSvc) ModifyEmail(ctx context.Context, userID string, req domain.ModifyEmailRequest) (*domain.Member, error) {
	args := m.Called(ctx, userID, req)
	if u, _ := args.Get(0).(*domain.Member); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemberSvc) ModifyPassword(ctx context.Context, userID string, req domain.ModifyPasswordRequest) (*domain.Member, error) {
	args := m.Called(ctx, userID, req)
	if u, _ := args.Get(0).(*domain.Member); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockMemberSvc) Delete(ctx context.Context, userID string, r *http.Request, w http.ResponseWriter) (*domain.Member, error) {
	args := m.Called(ctx, userID, r, w)
	if u, _ := args.Get(0).(*domain.Member); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}

type mockVerificationSvc struct{ mock.Mock }

func (m *mockVerificationSvc) IssueCode(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockVerificationSvc) CheckCode(ctx context.Context, email, code string) error {
	return m.Called(ctx, email, code).Error(0)
}
func (m *mockVerificationSvc) IsVerified(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}
func (m *mockVerificationSvc) ConsumeVerification(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

type mockRefresher struct{ mock.Mock }

func (m *mockRefresher) Refresh(r *http.Request, w http.ResponseWriter) (string, error) {
	args := m.Called(r, w)
	return args.String(0), args.Error(1)
}

type mockSocialVerifier struct{ mock.Mock }

func (m *mockSocialVerifier) Verify(ctx context.Context, idToken string) (domain.SocialProfile, error) {
	args := m.Called(ctx, idToken)
	return args.Get(0).(domain.SocialProfile), args.Error(1)
}

// --- helpers ---

type handlerFixture struct {
	members *mockMemberSvc
	verify  *mockVerificationSvc
	tokens  *mockRefresher
	google  *mockSocialVerifier
	router  chi.Router
}

// newHandlerFixture mounts the handler on a bare router. Routes under /me get
// a fixed identity for alice instead of the auth middleware.
func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		members: new(mockMemberSvc),
		verify:  new(mockVerificationSvc),
		tokens:  new(mockRefresher),
		google:  new(mockSocialVerifier),
	}
	h := NewMemberHandler(f.members, f.verify, f.tokens, f.google)
	r := chi.NewRouter()
	r.Get("/members/check-id/{userID}", h.CheckID)
	r.Get("/members/check-email", h.CheckEmail)
	r.Post("/members/auth/code", h.SendCode)
	r.Post("/members/auth/check", h.CheckCode)
	r.Post("/members/signup", h.SignUp)
	r.Post("/members/signin", h.SignIn)
	r.Post("/members/signin/google", h.GoogleSignIn)
	r.Post("/members/token", h.Refresh)
	r.Post("/members/find-id", h.FindID)
	r.Group(func(r chi.Router) {
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				id := domain.Identity{MemberID: "alice", Roles: []string{domain.RoleUser}}
				next.ServeHTTP(w, req.WithContext(middleware.WithIdentity(req.Context(), id)))
			})
		})
		r.Get("/members/me", h.Me)
		r.Put("/members/me/email", h.ModifyEmail)
		r.Delete("/members/me", h.Delete)
	})
	f.router = r
	return f
}

func (f *handlerFixture) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	return rr
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder) MessageEnvelope {
	t.Helper()
	var env MessageEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

// --- tests ---

func TestCheckID_Available(t *testing.T) {
	f := newHandlerFixture()
	f.members.On("CheckDuplicateID", mock.Anything, "alice").Return(nil)

	rr := f.do(http.MethodGet, "/members/check-id/alice", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestCheckID_Duplicated(t *testing.T) {
	f := newHandlerFixture()
	f.members.On("CheckDuplicateID", mock.Anything, "alice").Return(domain.ErrDuplicatedID)

	rr := f.do(http.MethodGet, "/members/check-id/alice", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "DUPLICATED_ID", decodeEnvelope(t, rr).Code)
}

func TestCheckID_InvalidFormat(t *testing.T) {
	f := newHandlerFixture()

	rr := f.do(http.MethodGet, "/members/check-id/1alice", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	f.members.AssertNotCalled(t, "CheckDuplicateID", mock.Anything, mock.Anything)
}

func TestCheckEmail_Duplicated(t *testing.T) {
	f := newHandlerFixture()
	f.members.On("CheckDuplicateEmail", mock.Anything, "a@b.com").Return(domain.ErrDuplicatedEmail)

	rr := f.do(http.MethodGet, "/members/check-email?email=a@b.com", nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "DUPLICATED_EMAIL", decodeEnvelope(t, rr).Code)
}

func TestSendCode_MailFailureIs500(t *testing.T) {
	f := newHandlerFixture()
	f.verify.On("IssueCode", mock.Anything, "a@b.com").Return(errors.Join(domain.ErrMailSend, errors.New("smtp down")))

	rr := f.do(http.MethodPost, "/members/auth/code", map[string]string{"email": "a@b.com"})
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.Equal(t, "FAIL_SEND_MAIL", env.Code)
	assert.NotContains(t, env.Error, "smtp down")
}

func TestCheckCode_Mismatch(t *testing.T) {
	f := newHandlerFixture()
	f.verify.On("CheckCode", mock.Anything, "a@b.com", "123456").Return(domain.ErrCodeMismatch)

	rr := f.do(http.MethodPost, "/members/auth/check", map[string]string{"email": "a@b.com", "code": "123456"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "WRONG_AUTH_NUM", decodeEnvelope(t, rr).Code)
}

func TestCheckCode_RejectsMalformedCode(t *testing.T) {
	f := newHandlerFixture()

	rr := f.do(http.MethodPost, "/members/auth/check", map[string]string{"email": "a@b.com", "code": "12ab"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeEnvelope(t, rr).Code)
	f.verify.AssertNotCalled(t, "CheckCode", mock.Anything, mock.Anything, mock.Anything)
}

func TestSignUp_Created(t *testing.T) {
	f := newHandlerFixture()
	req := domain.SignUpRequest{UserID: "alice", Password: "Secret123", ConfirmPassword: "Secret123", Email: "a@b.com"}
	f.members.On("SignUp", mock.Anything, req).Return(&domain.Member{
		UserID: "alice", Email: "a@b.com", Roles: []string{domain.RoleUser}, PasswordHash: "secret-hash",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}, nil)

	rr := f.do(http.MethodPost, "/members/signup", req)
	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret-hash")

	var got MemberEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "alice", got.UserID)
	assert.Equal(t, []string{domain.RoleUser}, got.Roles)
}

func TestSignUp_InvalidBody(t *testing.T) {
	f := newHandlerFixture()
	req := httptest.NewRequest(http.MethodPost, "/members/signup", bytes.NewBufferString("{"))
	rr := httptest.NewRecorder()
	f.router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSignIn_ReturnsAccessToken(t *testing.T) {
	f := newHandlerFixture()
	req := domain.SignInRequest{UserID: "alice", Password: "Secret123"}
	f.members.On("SignIn", mock.Anything, req, mock.Anything).Return(&member.SignInResult{AccessToken: "access", UserID: "alice"}, nil)

	rr := f.do(http.MethodPost, "/members/signin", req)
	assert.Equal(t, http.StatusOK, rr.Code)

	var got SignInEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&got))
	assert.Equal(t, "access", got.AccessToken)
	assert.Equal(t, "alice", got.UserID)
}

func TestSignIn_WrongPassword(t *testing.T) {
	f := newHandlerFixture()
	req := domain.SignInRequest{UserID: "alice", Password: "nope"}
	f.members.On("SignIn", mock.Anything, req, mock.Anything).Return(nil, domain.ErrWrongPassword)

	rr := f.do(http.MethodPost, "/members/signin", req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "WRONG_PASSWORD", decodeEnvelope(t, rr).Code)
}

func TestGoogleSignIn_InvalidToken(t *testing.T) {
	f := newHandlerFixture()
	f.google.On("Verify", mock.Anything, "bad").
		Return(domain.SocialProfile{}, errors.Join(errors.New("invalid google token"), domain.ErrUnauthorized))

	rr := f.do(http.MethodPost, "/members/signin/google", map[string]string{"id_token": "bad"})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	f.members.AssertNotCalled(t, "SocialSignIn", mock.Anything, mock.Anything, mock.Anything)
}

func TestGoogleSignIn_Success(t *testing.T) {
	f := newHandlerFixture()
	profile := domain.SocialProfile{Provider: domain.ProviderGoogle, Subject: "42", Email: "g@b.com"}
	f.google.On("Verify", mock.Anything, "good").Return(profile, nil)
	f.members.On("SocialSignIn", mock.Anything, profile, mock.Anything).
		Return(&member.SignInResult{AccessToken: "access", UserID: "google_42"}, nil)

	rr := f.do(http.MethodPost, "/members/signin/google", map[string]string{"id_token": "good"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestRefresh_ExpiredIs401(t *testing.T) {
	f := newHandlerFixture()
	f.tokens.On("Refresh", mock.Anything, mock.Anything).Return("", domain.ErrExpiredRefreshToken)

	rr := f.do(http.MethodPost, "/members/token", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, "EXPIRED_REFRESH_TOKEN", decodeEnvelope(t, rr).Code)
}

func TestFindID_UnknownEmail(t *testing.T) {
	f := newHandlerFixture()
	f.members.On("FindID", mock.Anything, "x@b.com").Return(nil, domain.ErrMemberNotFound)

	rr := f.do(http.MethodPost, "/members/find-id", map[string]string{"email": "x@b.com"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "NOT_FOUND_MEMBER", decodeEnvelope(t, rr).Code)
}

func TestMe_UsesIdentity(t *testing.T) {
	f := newHandlerFixture()
	f.members.On("GetMember", mock.Anything, "alice").Return(&domain.Member{UserID: "alice", Email: "a@b.com"}, nil)

	rr := f.do(http.MethodGet, "/members/me", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	f.members.AssertExpectations(t)
}

func TestModifyEmail_SameEmail(t *testing.T) {
	f := newHandlerFixture()
	req := domain.ModifyEmailRequest{OriginEmail: "a@b.com", NewEmail: "a@b.com"}
	f.members.On("ModifyEmail", mock.Anything, "alice", req).Return(nil, domain.ErrSameEmail)

	rr := f.do(http.MethodPut, "/members/me/email", req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "ORIGIN_EQUALS_NEW_OF_EMAIL", decodeEnvelope(t, rr).Code)
}

func TestDelete_Success(t *testing.T) {
	f := newHandlerFixture()
	f.members.On("Delete", mock.Anything, "alice", mock.Anything, mock.Anything).Return(&domain.Member{UserID: "alice"}, nil)

	rr := f.do(http.MethodDelete, "/members/me", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHTTPError_UnexpectedErrorIsHidden(t *testing.T) {
	rr := httptest.NewRecorder()
	httpError(rr, errors.New("dynamo: connection reset"))

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	env := decodeEnvelope(t, rr)
	assert.Equal(t, "INTERNAL_ERROR", env.Code)
	assert.NotContains(t, env.Error, "dynamo")
}

func TestHTTPError_ExpiredAccessTokenIs403(t *testing.T) {
	rr := httptest.NewRecorder()
	httpError(rr, domain.ErrExpiredAccessToken)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

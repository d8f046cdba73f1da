package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-member-api/internal/application/member"
	"github.com/go-member-api/internal/application/verification"
	"github.com/go-member-api/internal/domain"
	"github.com/go-member-api/internal/pkg/validate"
	"github.com/go-member-api/internal/transport/http/middleware"
)

type tokenRefresher interface {
	Refresh(r *http.Request, w http.ResponseWriter) (string, error)
}

type socialVerifier interface {
	Verify(ctx context.Context, idToken string) (domain.SocialProfile, error)
}

// MemberHandler serves the /members endpoints.
type MemberHandler struct {
	members      member.Service
	verification verification.Service
	tokens       tokenRefresher
	google       socialVerifier
}

func NewMemberHandler(members member.Service, verification verification.Service, tokens tokenRefresher, google socialVerifier) *MemberHandler {
	return &MemberHandler{members: members, verification: verification, tokens: tokens, google: google}
}

func (h *MemberHandler) CheckID(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	if err := validate.Var(userID, "required,userid"); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := h.members.CheckDuplicateID(r.Context(), userID); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "user id is available"})
}

func (h *MemberHandler) CheckEmail(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if err := validate.Var(email, "required,email"); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return
	}
	if err := h.members.CheckDuplicateEmail(r.Context(), email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email is available"})
}

func (h *MemberHandler) SendCode(w http.ResponseWriter, r *http.Request) {
	var req domain.SendCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.verification.IssueCode(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "verification code sent"})
}

func (h *MemberHandler) CheckCode(w http.ResponseWriter, r *http.Request) {
	var req domain.CheckCodeRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.verification.CheckCode(r.Context(), req.Email, req.Code); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "email verified"})
}

func (h *MemberHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req domain.SignUpRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.members.SignUp(r.Context(), req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMemberEnvelope(m))
}

func (h *MemberHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SignInRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := h.members.SignIn(r.Context(), req, w)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SignInEnvelope{AccessToken: res.AccessToken, UserID: res.UserID})
}

func (h *MemberHandler) GoogleSignIn(w http.ResponseWriter, r *http.Request) {
	var req domain.SocialSignInRequest
	if !decode(w, r, &req) {
		return
	}
	profile, err := h.google.Verify(r.Context(), req.IDToken)
	if err != nil {
		httpError(w, err)
		return
	}
	res, err := h.members.SocialSignIn(r.Context(), profile, w)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SignInEnvelope{AccessToken: res.AccessToken, UserID: res.UserID})
}

func (h *MemberHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	access, err := h.tokens.Refresh(r, w)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SignInEnvelope{AccessToken: access})
}

func (h *MemberHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.members.SignOut(r, w); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "signed out"})
}

func (h *MemberHandler) FindID(w http.ResponseWriter, r *http.Request) {
	var req domain.FindIDRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.members.FindID(r.Context(), req.Email); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "user id sent by email"})
}

func (h *MemberHandler) FindPassword(w http.ResponseWriter, r *http.Request) {
	var req domain.FindPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.members.FindPassword(r.Context(), req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "temporary password sent by email"})
}

func (h *MemberHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	m, err := h.members.GetMember(r.Context(), id.MemberID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberEnvelope(m))
}

func (h *MemberHandler) ModifyEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	var req domain.ModifyEmailRequest
	if !decode(w, r, &req) {
		return
	}
	m, err := h.members.ModifyEmail(r.Context(), id.MemberID, req)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberEnvelope(m))
}

func (h *MemberHandler) ModifyPassword(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	var req domain.ModifyPasswordRequest
	if !decode(w, r, &req) {
		return
	}
	if _, err := h.members.ModifyPassword(r.Context(), id.MemberID, req); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "password changed"})
}

func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
		return
	}
	if _, err := h.members.Delete(r.Context(), id.MemberID, r, w); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageEnvelope{Message: "member deleted"})
}

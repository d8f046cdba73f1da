package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-member-api/internal/domain"
	"github.com/go-member-api/internal/pkg/validate"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
}

// SignInEnvelope wraps sign-in and token refresh responses. The refresh token
// travels in the refreshToken cookie, never in the body.
type SignInEnvelope struct {
	AccessToken string `json:"accessToken"`
	UserID      string `json:"userId,omitempty"`
}

// MemberEnvelope is the public view of a member.
type MemberEnvelope struct {
	UserID   string    `json:"user_id"`
	Email    string    `json:"email"`
	Roles    []string  `json:"roles"`
	Provider string    `json:"provider,omitempty"`
	Created  time.Time `json:"created"`
}

func toMemberEnvelope(m *domain.Member) MemberEnvelope {
	return MemberEnvelope{
		UserID:   m.UserID,
		Email:    m.Email,
		Roles:    m.Roles,
		Provider: m.Provider,
		Created:  m.CreatedAt,
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg, Code: code})
}

// decode reads a JSON body into dst and runs its validate tags.
func decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
		return false
	}
	return true
}

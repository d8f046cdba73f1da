package domain

import "time"

// RoleUser is the role every newly registered member receives.
const RoleUser = "USER"

// Social providers a member may have registered through. Empty means a local account.
const (
	ProviderLocal  = ""
	ProviderKakao  = "kakao"
	ProviderGoogle = "google"
)

type Member struct {
	UserID       string     `json:"user_id" dynamodbav:"user_id"`
	PasswordHash string     `json:"-" dynamodbav:"password_hash"`
	Email        string     `json:"email" dynamodbav:"email"`
	Roles        []string   `json:"roles" dynamodbav:"roles"`
	Provider     string     `json:"provider,omitempty" dynamodbav:"provider,omitempty"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at,omitempty"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

// IsSocial reports whether the member signed up through a social provider
// and therefore has no usable local password.
func (m *Member) IsSocial() bool { return m.Provider != ProviderLocal }

// IsDeleted reports whether the member was soft-deleted.
func (m *Member) IsDeleted() bool { return m.DeletedAt != nil }

// Identity returns the plain identity value for this member.
func (m *Member) Identity() Identity {
	caps := CapPassword
	if m.IsSocial() {
		caps = CapSocial
	}
	roles := make([]string, len(m.Roles))
	copy(roles, m.Roles)
	return Identity{MemberID: m.UserID, Roles: roles, Provider: m.Provider, Capabilities: caps}
}

type SignUpRequest struct {
	UserID          string `json:"user_id" validate:"required,userid"`
	Password        string `json:"password" validate:"required,min=8,max=20"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
}

type SignInRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ModifyEmailRequest struct {
	OriginEmail string `json:"origin_email" validate:"required,email"`
	NewEmail    string `json:"new_email" validate:"required,email"`
}

type ModifyPasswordRequest struct {
	OriginPassword  string `json:"origin_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=20"`
	ConfirmPassword string `json:"confirm_password" validate:"required"`
}

type CheckCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6,numeric"`
}

type FindIDRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type FindPasswordRequest struct {
	UserID string `json:"user_id" validate:"required,userid"`
	Email  string `json:"email" validate:"required,email"`
}

// SocialProfile is an already-verified profile handed over by a social login adapter.
// Attributes holds the provider's raw claims and is passed through untouched.
type SocialProfile struct {
	Provider   string
	Subject    string
	Email      string
	Name       string
	Attributes map[string]any
}

type SocialSignInRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

type SendCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrBadRequest   = errors.New("bad request")
	ErrInternal     = errors.New("internal error")
)

// Error is a catalogued failure with a stable code and a default message.
// It unwraps to one of the category sentinels above.
type Error struct {
	Code     string
	Message  string
	category error
}

func newError(category error, code, msg string) *Error {
	return &Error{Code: code, Message: msg, category: category}
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.category }

// Token layer.
var (
	ErrExpiredAccessToken  = newError(ErrForbidden, "EXPIRED_ACCESS_TOKEN", "access token has expired, refresh it and retry")
	ErrExpiredRefreshToken = newError(ErrUnauthorized, "EXPIRED_REFRESH_TOKEN", "refresh token has expired, sign in again")
	ErrMissingRefreshToken = newError(ErrUnauthorized, "NOT_FOUND_REFRESH_TOKEN", "refresh token does not exist")
)

// Verification layer.
var (
	ErrCodeExpired      = newError(ErrBadRequest, "TIME_OVER_AUTH", "verification code has expired")
	ErrCodeMismatch     = newError(ErrBadRequest, "WRONG_AUTH_NUM", "verification code does not match")
	ErrEmailNotVerified = newError(ErrBadRequest, "NOT_COMPLETED_AUTH", "complete email verification first")
)

// Member layer.
var (
	ErrMemberNotFound        = newError(ErrBadRequest, "NOT_FOUND_MEMBER", "member does not exist")
	ErrDuplicatedID          = newError(ErrBadRequest, "DUPLICATED_ID", "user id is already in use")
	ErrDuplicatedEmail       = newError(ErrBadRequest, "DUPLICATED_EMAIL", "email is already in use")
	ErrWrongPassword         = newError(ErrBadRequest, "WRONG_PASSWORD", "password is incorrect")
	ErrWrongOriginalPassword = newError(ErrBadRequest, "WRONG_ORIGIN_PW", "current password is incorrect")
	ErrPasswordMismatch      = newError(ErrBadRequest, "DIFF_PW_AND_CONFIRM", "password and confirmation do not match")
	ErrSocialUser            = newError(ErrBadRequest, "SOCIAL_USER", "account was registered through a social provider")
	ErrSameEmail             = newError(ErrBadRequest, "ORIGIN_EQUALS_NEW_OF_EMAIL", "new email is the same as the current one")
)

// Collaborator layer.
var (
	ErrDuplicateConstraint = newError(ErrBadRequest, "DUPLICATE_CONSTRAINT", "request violates a uniqueness constraint")
	ErrMailSend            = newError(ErrInternal, "FAIL_SEND_MAIL", "failed to send mail")
)

package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-member-api/internal/domain"
)

// httpError maps a service error onto a status code and writes it. Catalogued
// errors keep their code and message; unexpected errors are logged and
// reported as a generic 500.
func httpError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	var de *domain.Error
	isCatalogued := errors.As(err, &de)

	if status == http.StatusInternalServerError {
		slog.Error("request failed", "err", err)
		code := "INTERNAL_ERROR"
		if isCatalogued {
			code = de.Code
		}
		writeError(w, status, code, "internal server error")
		return
	}
	if isCatalogued {
		writeError(w, status, de.Code, de.Message)
		return
	}
	writeError(w, status, statusCode(status), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// statusCode turns 404 into "NOT_FOUND".
func statusCode(status int) string {
	return strings.ToUpper(strings.ReplaceAll(http.StatusText(status), " ", "_"))
}

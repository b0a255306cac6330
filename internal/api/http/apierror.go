package http

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/comicshelf/comicshelf/internal/api/service"
	"github.com/comicshelf/comicshelf/pkg/httpx"
)

// APIError is the wire shape for every failure the API returns. StatusCode
// and Code stay server side; clients only ever see the message.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"-"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.WriteJSON(w, e.StatusCode, e)
}

var (
	ErrInvalidEmail = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "invalid_email",
		Message:    "Invalid email format",
	}

	ErrInvalidBody = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "invalid_body",
		Message:    "Invalid request body",
	}

	ErrUserExists = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "user_exists",
		Message:    "User already exists",
	}

	ErrUserUnverified = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "user_unverified",
		Message:    "Please verify your email first",
	}

	ErrUserNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       "user_not_found",
		Message:    "User not found",
	}

	ErrInvalidPassword = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       "invalid_password",
		Message:    "Invalid password",
	}

	ErrWrongPassword = &APIError{
		StatusCode: http.StatusUnauthorized,
		Code:       "wrong_password",
		Message:    "Current password is incorrect",
	}

	ErrMissingRegisterFields = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "missing_fields",
		Message:    "Email, password, and name are required",
	}

	ErrMissingPasswordFields = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "missing_fields",
		Message:    "Email, old password, and new password are required",
	}

	ErrWeakPassword = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "weak_password",
		Message:    "New password must be at least 6 characters long",
	}

	ErrAlreadyVerified = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "already_verified",
		Message:    "This account is already verified",
	}

	ErrVerificationMalformed = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "verification_malformed",
		Message:    "Invalid verification link format",
	}

	ErrVerificationNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       "verification_not_found",
		Message:    "Verification record not found",
	}

	ErrVerificationExpired = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "verification_expired",
		Message:    "Verification link has expired",
	}

	ErrVerificationInvalid = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "verification_invalid",
		Message:    "Invalid verification link",
	}

	ErrSlugRequired = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "slug_required",
		Message:    "Slug is required",
	}

	ErrProgressFieldsRequired = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "progress_fields_required",
		Message:    "Slug and chapter are required",
	}

	ErrProgressNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       "progress_not_found",
		Message:    "No reading progress found for this comic",
	}

	ErrFavoriteNotFound = &APIError{
		StatusCode: http.StatusNotFound,
		Code:       "favorite_not_found",
		Message:    "Comic not found in favorites",
	}

	ErrDuplicateRecord = &APIError{
		StatusCode: http.StatusConflict,
		Code:       "duplicate_record",
		Message:    "Duplicate record detected",
	}

	ErrAvatarTooLarge = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "avatar_too_large",
		Message:    "File size should not exceed 500KB",
	}

	ErrAvatarNotImage = &APIError{
		StatusCode: http.StatusBadRequest,
		Code:       "avatar_not_image",
		Message:    "Only image files are allowed",
	}

	ErrEmailDelivery = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       "email_delivery_failed",
		Message:    "Failed to send verification email",
	}

	ErrServerError = &APIError{
		StatusCode: http.StatusInternalServerError,
		Code:       "server_error",
		Message:    "Internal server error",
	}
)

// serviceErrors maps service sentinels onto wire errors. Handlers consult it
// first and fall back to ErrServerError for anything unexpected.
var serviceErrors = []struct {
	sentinel error
	api      *APIError
}{
	{service.ErrInvalidEmail, ErrInvalidEmail},
	{service.ErrMissingFields, ErrMissingPasswordFields},
	{service.ErrWeakPassword, ErrWeakPassword},
	{service.ErrUserExists, ErrUserExists},
	{service.ErrUserUnverified, ErrUserUnverified},
	{service.ErrUserNotFound, ErrUserNotFound},
	{service.ErrInvalidCredentials, ErrInvalidPassword},
	{service.ErrWrongPassword, ErrWrongPassword},
	{service.ErrAlreadyVerified, ErrAlreadyVerified},
	{service.ErrVerificationMissing, ErrVerificationNotFound},
	{service.ErrVerificationExpired, ErrVerificationExpired},
	{service.ErrVerificationInvalid, ErrVerificationInvalid},
	{service.ErrEmailDelivery, ErrEmailDelivery},
	{service.ErrSlugRequired, ErrSlugRequired},
	{service.ErrChapterRequired, ErrProgressFieldsRequired},
	{service.ErrProgressNotFound, ErrProgressNotFound},
	{service.ErrFavoriteNotFound, ErrFavoriteNotFound},
}

// apiErrorFor translates a service error into its wire representation.
func apiErrorFor(err error) (*APIError, bool) {
	for _, m := range serviceErrors {
		if errors.Is(err, m.sentinel) {
			return m.api, true
		}
	}
	return ErrServerError, false
}

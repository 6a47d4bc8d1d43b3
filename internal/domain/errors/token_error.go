package errors

import (
	"fmt"
	"net/http"

	"briefly/internal/domain/entity"
)

// TokenError is the tagged error for token and picker lifecycle failures.
// One kind per variant; callers branch on Kind() exhaustively instead of
// probing string-keyed properties. It implements AppError so the delivery
// layer can translate it without special-casing.
type TokenError struct {
	kind      entity.ErrorKind
	provider  entity.ProviderType
	technical string
	cause     error
}

// NewTokenError creates a TokenError of the given kind.
func NewTokenError(kind entity.ErrorKind, provider entity.ProviderType, technical string, cause error) *TokenError {
	return &TokenError{
		kind:      kind,
		provider:  provider,
		technical: technical,
		cause:     cause,
	}
}

// Kind returns the classified error kind.
func (e *TokenError) Kind() entity.ErrorKind {
	return e.kind
}

// Provider returns the provider the failure belongs to, if any.
func (e *TokenError) Provider() entity.ProviderType {
	return e.provider
}

// Error implements the error interface.
func (e *TokenError) Error() string {
	if e.technical != "" {
		return fmt.Sprintf("%s: %s", e.kind, e.technical)
	}

	return string(e.kind)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *TokenError) Unwrap() error {
	return e.cause
}

// Info classifies the error into the user-facing record.
func (e *TokenError) Info() *entity.ErrorInfo {
	info := Classify(e.kind)
	info.TechnicalMessage = e.technical

	return info
}

// HTTPCode implements AppError.
func (e *TokenError) HTTPCode() int {
	switch e.kind {
	case entity.ErrKindTokenNotFound:
		return http.StatusNotFound
	case entity.ErrKindRefreshTokenExpired, entity.ErrKindPermissionDenied:
		return http.StatusUnauthorized
	case entity.ErrKindInvalidCredentials, entity.ErrKindDeveloperKeyInvalid:
		return http.StatusInternalServerError
	case entity.ErrKindQuotaExceeded:
		return http.StatusTooManyRequests
	case entity.ErrKindNetworkError, entity.ErrKindServiceUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorCode implements AppError.
func (e *TokenError) ErrorCode() string {
	return string(e.kind)
}

// Message implements AppError.
func (e *TokenError) Message() string {
	return Classify(e.kind).UserMessage
}

// Details implements AppError.
func (e *TokenError) Details() string {
	return e.technical
}

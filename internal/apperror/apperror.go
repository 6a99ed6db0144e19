// Package apperror carries HTTP status codes alongside error messages so
// handlers can hand every failure to one error-translating middleware
// instead of formatting responses inline.
package apperror

import "net/http"

type APIError struct {
	Status  int
	Message string
	Details any
}

func (e *APIError) Error() string {
	return e.Message
}

func New(status int, message string) *APIError {
	return &APIError{Status: status, Message: message}
}

func BadRequest(message string) *APIError {
	return New(http.StatusBadRequest, message)
}

func BadRequestDetails(message string, details any) *APIError {
	return &APIError{Status: http.StatusBadRequest, Message: message, Details: details}
}

func Unauthorized(message string) *APIError {
	return New(http.StatusUnauthorized, message)
}

func Forbidden(message string) *APIError {
	return New(http.StatusForbidden, message)
}

func NotFound(message string) *APIError {
	return New(http.StatusNotFound, message)
}

func Conflict(message string) *APIError {
	return New(http.StatusConflict, message)
}

func TooManyRequests(message string) *APIError {
	return New(http.StatusTooManyRequests, message)
}

func Internal(message string) *APIError {
	return New(http.StatusInternalServerError, message)
}

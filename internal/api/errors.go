package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/anditianred/ao3-api/internal/errors"
	"github.com/anditianred/ao3-api/internal/search"
)

// APIError is the error body of every failed request.
// It implements huma.StatusError.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// RegisterErrorHandler makes huma render domain errors with their own code
// and status. Call it before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			if apiErr := fromError(err); apiErr != nil {
				return apiErr
			}
		}

		apiErr := &APIError{
			status:  status,
			Code:    statusToCode(status),
			Message: message,
		}
		if details := errorDetails(errs); len(details) > 0 {
			apiErr.Details = details
		}
		return apiErr
	}
}

// fromError converts errors with a known meaning; it returns nil otherwise.
func fromError(err error) *APIError {
	var domainErr *domainerrors.Error
	switch {
	case errors.As(err, &domainErr):
		return &APIError{
			status:  domainErr.HTTPStatus(),
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		}
	case errors.Is(err, search.ErrJobNotFound):
		return &APIError{
			status:  http.StatusNotFound,
			Code:    string(domainerrors.CodeNotFound),
			Message: err.Error(),
		}
	case errors.Is(err, search.ErrRunnerClosed):
		return &APIError{
			status:  http.StatusServiceUnavailable,
			Code:    string(domainerrors.CodeUnavailable),
			Message: err.Error(),
		}
	case errors.Is(err, context.DeadlineExceeded):
		return &APIError{
			status:  http.StatusGatewayTimeout,
			Code:    string(domainerrors.CodeFetchFailed),
			Message: "catalog did not answer in time",
		}
	default:
		return nil
	}
}

// toAPIError converts any error, falling back to an internal error.
func toAPIError(err error) *APIError {
	if apiErr := fromError(err); apiErr != nil {
		return apiErr
	}
	return &APIError{
		status:  http.StatusInternalServerError,
		Code:    string(domainerrors.CodeInternal),
		Message: "internal error",
	}
}

// errorDetails collects huma's per-field validation messages.
func errorDetails(errs []error) map[string]string {
	details := map[string]string{}
	for _, err := range errs {
		var detail *huma.ErrorDetail
		if errors.As(err, &detail) && detail.Location != "" {
			details[detail.Location] = detail.Message
		}
	}
	return details
}

// statusToCode maps HTTP status codes to domain error codes.
func statusToCode(status int) string {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return string(domainerrors.CodeValidation)
	case http.StatusNotFound:
		return string(domainerrors.CodeNotFound)
	case http.StatusTooManyRequests:
		return string(domainerrors.CodeRateLimited)
	case http.StatusServiceUnavailable:
		return string(domainerrors.CodeUnavailable)
	default:
		return string(domainerrors.CodeInternal)
	}
}

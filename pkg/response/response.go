// Package response defines the JSON envelope returned by every API
// endpoint, together with the fixed payloads for common failures.
// The Code field carries a stable, machine-readable error identifier;
// Message is for humans and may change freely.
package response

import (
	"errors"

	"github.com/go-playground/validator/v10"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Stable error codes surfaced to API clients.
const (
	CodeInvalidURL       = "invalid_url"
	CodeInvalidAlias     = "invalid_alias"
	CodeInvalidExpiry    = "invalid_expiry"
	CodeInvalidShortCode = "invalid_short_code"
	CodeAliasConflict    = "alias_conflict"
	CodeGenerationFailed = "generation_failed"
	CodeURLNotFound      = "url_not_found"
	CodeURLExpired       = "url_expired"
)

type Response struct {
	Status  string `json:"status"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message"`
	Details []any  `json:"details,omitempty"`
	Data    any    `json:"data,omitempty"`
}

var EmptyRequestBodyResponse = Response{
	Status:  StatusError,
	Error:   "Empty Request Body",
	Message: "Request body is empty. Please provide necessary data.",
}

var BadRequestResponse = Response{
	Status:  StatusError,
	Error:   "Bad Request",
	Message: "The request body is malformed.",
}

var ResourceNotFoundResponse = Response{
	Status:  StatusError,
	Code:    CodeURLNotFound,
	Error:   "Resource Not Found",
	Message: "The requested resource was not found.",
}

var ServerErrorResponse = Response{
	Status:  StatusError,
	Error:   "Server Error",
	Message: "An internal server error occurred. Please try again later.",
}

var InvalidURLResponse = Response{
	Status:  StatusError,
	Code:    CodeInvalidURL,
	Error:   "Invalid URL",
	Message: "The original URL must be a valid http or https URL of at most 2048 characters.",
}

var InvalidAliasResponse = Response{
	Status:  StatusError,
	Code:    CodeInvalidAlias,
	Error:   "Invalid Alias",
	Message: "Custom aliases must be 3-50 characters of letters, digits, '_' or '-'.",
}

var InvalidExpiryResponse = Response{
	Status:  StatusError,
	Code:    CodeInvalidExpiry,
	Error:   "Invalid Expiry",
	Message: "The expiry time must be in the future.",
}

var InvalidShortCodeResponse = Response{
	Status:  StatusError,
	Code:    CodeInvalidShortCode,
	Error:   "Invalid Short Code",
	Message: "The short code is malformed.",
}

var AliasConflictResponse = Response{
	Status:  StatusError,
	Code:    CodeAliasConflict,
	Error:   "Alias Conflict",
	Message: "The custom alias is already taken. Please choose a different one.",
}

var GenerationFailedResponse = Response{
	Status:  StatusError,
	Code:    CodeGenerationFailed,
	Error:   "Generation Failed",
	Message: "Failed to generate a unique short code. Please retry the request.",
}

var URLExpiredResponse = Response{
	Status:  StatusError,
	Code:    CodeURLExpired,
	Error:   "URL Expired",
	Message: "The short URL has expired.",
}

func SuccessResponse(msg string, data ...any) Response {
	resp := Response{
		Status:  StatusSuccess,
		Message: msg,
	}

	if len(data) > 0 {
		resp.Data = data[0]
	}

	return resp
}

type validationError struct {
	Field string `json:"field"`
	Value any    `json:"value"`
	Issue string `json:"issue"`
}

func ValidationErrorResponse(err error) Response {
	resp := Response{
		Status:  StatusError,
		Error:   "Validation Error",
		Message: "The request body contains invalid data.",
	}

	for _, ve := range getValidationErrors(err) {
		resp.Details = append(resp.Details, ve)
	}

	return resp
}

func getValidationErrors(err error) []validationError {
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return nil
	}

	var out []validationError
	for _, fe := range errs {
		out = append(out, validationError{
			Field: fe.Field(),
			Value: fe.Value(),
			Issue: issueForTag(fe),
		})
	}

	return out
}

func issueForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "url":
		return "Invalid url."
	case "min":
		return "Value is too short."
	case "max":
		return "Value is too long."
	default:
		return "Invalid value."
	}
}

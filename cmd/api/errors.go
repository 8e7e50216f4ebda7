// cmd/api/errors.go
// This file contains all error-response helpers for the application.
// Keeping error helpers in a dedicated file makes them easy to find and extend.
package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aoideee/bookreviews/internal/auth"
	"github.com/aoideee/bookreviews/internal/data"
	"github.com/aoideee/bookreviews/internal/validator"
)

// logError logs an internal error at ERROR level with the request method and URL for context.
func (app *applicationDependencies) logError(r *http.Request, err error) {
	app.logger.Error(err.Error(),
		slog.String("request_method", r.Method),
		slog.String("request_url", r.URL.String()),
		slog.Any("request_id", r.Context().Value(requestIDKey)),
	)
}

// errorResponse sends a JSON error envelope with the given status code and message.
// It is the low-level building block used by all the specific error helpers below.
func (app *applicationDependencies) errorResponse(w http.ResponseWriter, r *http.Request, status int, message any) {
	env := envelope{"error": message}
	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serverErrorResponse logs a 500-level error and sends a generic message to the client.
// We never expose internal error details to the client for security reasons.
func (app *applicationDependencies) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	app.errorResponse(w, r, http.StatusInternalServerError, "the server encountered a problem and could not process your request")
}

// notFoundResponse sends a 404 Not Found error.
func (app *applicationDependencies) notFoundResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusNotFound, "the requested resource could not be found")
}

// methodNotAllowedResponse sends a 405 Method Not Allowed error.
func (app *applicationDependencies) methodNotAllowedResponse(w http.ResponseWriter, r *http.Request) {
	message := "the " + r.Method + " method is not supported for this resource"
	app.errorResponse(w, r, http.StatusMethodNotAllowed, message)
}

// badRequestResponse sends a 400 Bad Request error with the error message from the caller.
func (app *applicationDependencies) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.errorResponse(w, r, http.StatusBadRequest, err.Error())
}

// failedValidationResponse sends a 422 Unprocessable Entity response containing
// the field-level validation errors collected by a Validator.
func (app *applicationDependencies) failedValidationResponse(w http.ResponseWriter, r *http.Request, errors map[string]string) {
	app.errorResponse(w, r, http.StatusUnprocessableEntity, errors)
}

// rateLimitExceededResponse sends a 429 Too Many Requests error.
func (app *applicationDependencies) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded")
}

// invalidCredentialsResponse sends a 401 with the authenticator's challenge
// so the client can re-prompt for credentials.
func (app *applicationDependencies) invalidCredentialsResponse(w http.ResponseWriter, r *http.Request, challenge string) {
	w.Header().Set("WWW-Authenticate", challenge)
	app.errorResponse(w, r, http.StatusUnauthorized, "incorrect username or password")
}

// editConflictResponse sends a 409 when the store rejected a write.
func (app *applicationDependencies) editConflictResponse(w http.ResponseWriter, r *http.Request) {
	app.errorResponse(w, r, http.StatusConflict, "the request conflicts with a database constraint")
}

// storeUnavailableResponse sends a 503; the operation was rolled back and can be retried.
func (app *applicationDependencies) storeUnavailableResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)
	w.Header().Set("Retry-After", "1")
	app.errorResponse(w, r, http.StatusServiceUnavailable, "the service is temporarily unavailable, please retry")
}

// catalogErrorResponse maps an error from the catalog service onto the
// matching response.
func (app *applicationDependencies) catalogErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *validator.ValidationError
	var unauthorizedErr *auth.UnauthorizedError

	switch {
	case errors.As(err, &validationErr):
		app.failedValidationResponse(w, r, validationErr.Fields)
	case errors.Is(err, data.ErrNoReviews):
		app.errorResponse(w, r, http.StatusNotFound, "no reviews found for this book")
	case errors.Is(err, data.ErrRecordNotFound):
		app.notFoundResponse(w, r)
	case errors.Is(err, data.ErrConstraintViolation):
		app.editConflictResponse(w, r)
	case errors.Is(err, data.ErrStoreUnavailable):
		app.storeUnavailableResponse(w, r, err)
	case errors.As(err, &unauthorizedErr):
		app.invalidCredentialsResponse(w, r, unauthorizedErr.Challenge)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

// badInputResponse sends a readJSON error to the client: field type errors
// become 422 validation failures, everything else a 400.
func (app *applicationDependencies) badInputResponse(w http.ResponseWriter, r *http.Request, err error) {
	var typeErr *fieldTypeError
	if errors.As(err, &typeErr) {
		message := "must be a " + typeErr.expected
		if strings.HasPrefix(typeErr.expected, "int") || strings.HasPrefix(typeErr.expected, "*int") {
			message = "must be an integer"
		}
		app.failedValidationResponse(w, r, map[string]string{typeErr.field: message})
		return
	}
	app.badRequestResponse(w, r, err)
}

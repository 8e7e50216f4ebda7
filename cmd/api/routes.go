// cmd/api/routes.go
package main

import (
	"context"
	"net/http"

	"github.com/julienschmidt/httprouter"
)

// routes registers all HTTP endpoints and returns the configured router wrapped
// in the middleware chain.
//
// Middleware chain (outermost → innermost):
//
//	recoverPanic → requestID → logRequest → rateLimit → router
//
// Every route except the healthcheck is wrapped in requireAuthentication.
//
// Current endpoints:
//
//	GET    /v1/healthcheck          – service status
//	POST   /v1/books                – create a new book
//	GET    /v1/books                – list books (skip/limit paginated)
//	GET    /v1/books/:id            – retrieve a single book by ID
//	PUT    /v1/books/:id            – replace every field of a book
//	DELETE /v1/books/:id            – delete a book and its reviews
//	POST   /v1/books/:id/reviews    – add a review to a book
//	GET    /v1/books/:id/reviews    – list a book's reviews
//	GET    /v1/books/:id/summary    – average rating and joined review text
//
// Background work started by the middleware stops when ctx is cancelled.
func (app *applicationDependencies) routes(ctx context.Context) http.Handler {
	router := httprouter.New()

	// Override the default httprouter error handlers to return JSON responses.
	router.NotFound = http.HandlerFunc(app.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthcheckHandler)

	// Book routes
	router.HandlerFunc(http.MethodPost, "/v1/books", app.requireAuthentication(app.createBookHandler))
	router.HandlerFunc(http.MethodGet, "/v1/books", app.requireAuthentication(app.listBooksHandler))
	router.HandlerFunc(http.MethodGet, "/v1/books/:id", app.requireAuthentication(app.showBookHandler))
	router.HandlerFunc(http.MethodPut, "/v1/books/:id", app.requireAuthentication(app.updateBookHandler))
	router.HandlerFunc(http.MethodDelete, "/v1/books/:id", app.requireAuthentication(app.deleteBookHandler))

	// Review routes
	router.HandlerFunc(http.MethodPost, "/v1/books/:id/reviews", app.requireAuthentication(app.createReviewHandler))
	router.HandlerFunc(http.MethodGet, "/v1/books/:id/reviews", app.requireAuthentication(app.listReviewsHandler))
	router.HandlerFunc(http.MethodGet, "/v1/books/:id/summary", app.requireAuthentication(app.showSummaryHandler))

	// recoverPanic is outermost so it catches panics from every other layer.
	return app.recoverPanic(app.requestID(app.logRequest(app.rateLimit(ctx, router))))
}

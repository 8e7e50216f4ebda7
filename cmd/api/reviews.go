// cmd/api/reviews.go
// This file contains the handlers for reviews, which are nested under a book.
package main

import (
	"net/http"

	"github.com/aoideee/bookreviews/internal/data"
)

// createReviewHandler handles POST /v1/books/:id/reviews.
// Responds 404 if the book does not exist and 422 if the rating is outside 1..5.
func (app *applicationDependencies) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	var input data.ReviewInput
	if err := app.readJSON(w, r, &input); err != nil {
		app.badInputResponse(w, r, err)
		return
	}

	review, err := app.catalog.CreateReview(r.Context(), bookID, input)
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusCreated, envelope{"review": review}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// listReviewsHandler handles GET /v1/books/:id/reviews.
// An unknown book and a book without reviews both give an empty list.
func (app *applicationDependencies) listReviewsHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	reviews, err := app.catalog.ListReviews(r.Context(), bookID)
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"reviews": reviews}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

// showSummaryHandler handles GET /v1/books/:id/summary.
func (app *applicationDependencies) showSummaryHandler(w http.ResponseWriter, r *http.Request) {
	bookID, err := app.readIDParam(r)
	if err != nil {
		app.notFoundResponse(w, r)
		return
	}

	summary, err := app.catalog.Summarize(r.Context(), bookID)
	if err != nil {
		app.catalogErrorResponse(w, r, err)
		return
	}

	err = app.writeJSON(w, http.StatusOK, envelope{"summary": summary}, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}

package data

import (
	"context"
	"fmt"
	"strings"

	"github.com/aoideee/bookreviews/internal/validator"
)

// Rating bounds, mirrored by the CHECK constraint on reviews.rating.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is a reader's rating of a book. Reviews are immutable once created.
type Review struct {
	ID         int64   `json:"id"`
	BookID     int64   `json:"book_id"`
	UserID     int64   `json:"user_id"`
	ReviewText *string `json:"review_text"`
	Rating     int     `json:"rating"`
}

// ReviewInput holds the fields a client supplies when reviewing a book. The
// book id comes from the URL, not the body. Pointers distinguish a missing
// field from a zero value.
type ReviewInput struct {
	UserID     *int64  `json:"user_id"`
	ReviewText *string `json:"review_text"`
	Rating     *int    `json:"rating"`
}

// ValidateReviewInput records every problem with in on v.
func ValidateReviewInput(v *validator.Validator, in ReviewInput) {
	v.Check(in.UserID != nil, "user_id", "must be provided")
	if in.UserID != nil {
		v.Check(*in.UserID > 0, "user_id", "must be a positive integer")
	}

	v.Check(in.Rating != nil, "rating", "must be provided")
	if in.Rating != nil {
		v.Check(validator.Between(*in.Rating, MinRating, MaxRating), "rating",
			fmt.Sprintf("must be between %d and %d", MinRating, MaxRating))
	}
}

// Review converts a validated input into a Review bound to bookID.
func (in ReviewInput) Review(bookID int64) *Review {
	r := &Review{BookID: bookID, ReviewText: in.ReviewText}
	if in.UserID != nil {
		r.UserID = *in.UserID
	}
	if in.Rating != nil {
		r.Rating = *in.Rating
	}
	return r
}

// Summary is the aggregate view of a book's reviews. It is computed on
// demand and never stored.
type Summary struct {
	AverageRating float64 `json:"average_rating"`
	Summary       string  `json:"summary"`
}

// Summarize computes the aggregate over reviews. The average is the plain
// float64 mean with no rounding. Texts are joined with a single space in the
// order given, an empty text included; reviews with no text are skipped.
// Returns ErrNoReviews when reviews is empty.
func Summarize(reviews []*Review) (*Summary, error) {
	if len(reviews) == 0 {
		return nil, ErrNoReviews
	}

	total := 0
	texts := make([]string, 0, len(reviews))
	for _, r := range reviews {
		total += r.Rating
		if r.ReviewText != nil {
			texts = append(texts, *r.ReviewText)
		}
	}

	return &Summary{
		AverageRating: float64(total) / float64(len(reviews)),
		Summary:       strings.Join(texts, " "),
	}, nil
}

// ReviewModel wraps a database handle and provides methods for the
// reviews table.
type ReviewModel struct {
	DB      DBTX
	dialect dialect
}

// Insert adds review and writes the assigned id back into it. A missing
// book or an out of range rating is rejected by the store with
// ErrConstraintViolation.
func (m ReviewModel) Insert(ctx context.Context, review *Review) error {
	query := `
		INSERT INTO reviews (book_id, user_id, review_text, rating)
		VALUES (?, ?, ?, ?)
		RETURNING id`

	args := []any{review.BookID, review.UserID, review.ReviewText, review.Rating}

	err := m.DB.QueryRowContext(ctx, m.dialect.rebind(query), args...).Scan(&review.ID)
	if err != nil {
		return fmt.Errorf("insert review for book %d: %w", review.BookID, classify(err))
	}
	return nil
}

// GetAllForBook returns every review of bookID in insertion order. An
// unknown book yields an empty slice.
func (m ReviewModel) GetAllForBook(ctx context.Context, bookID int64) ([]*Review, error) {
	query := `
		SELECT id, book_id, user_id, review_text, rating
		FROM reviews
		WHERE book_id = ?
		ORDER BY id ASC`

	rows, err := m.DB.QueryContext(ctx, m.dialect.rebind(query), bookID)
	if err != nil {
		return nil, fmt.Errorf("list reviews for book %d: %w", bookID, classify(err))
	}
	defer rows.Close()

	reviews := []*Review{}
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.ID, &r.BookID, &r.UserID, &r.ReviewText, &r.Rating); err != nil {
			return nil, fmt.Errorf("scan review: %w", classify(err))
		}
		reviews = append(reviews, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reviews for book %d: %w", bookID, classify(err))
	}
	return reviews, nil
}

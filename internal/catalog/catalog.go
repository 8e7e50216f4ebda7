// Package catalog implements the book and review operations on top of the
// data models. Every exported operation validates its input, then runs as
// exactly one store transaction bounded by the service timeout.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aoideee/bookreviews/internal/data"
	"github.com/aoideee/bookreviews/internal/validator"
)

// DefaultTimeout bounds an operation when New is given a zero timeout.
const DefaultTimeout = 3 * time.Second

// Service provides book and review lifecycle operations.
type Service struct {
	models  data.Models
	timeout time.Duration
	logger  *slog.Logger
}

// New creates a Service. A nil logger falls back to slog.Default.
func New(models data.Models, timeout time.Duration, logger *slog.Logger) *Service {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{models: models, timeout: timeout, logger: logger}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Books

// CreateBook validates in and inserts it as a new book.
func (s *Service) CreateBook(ctx context.Context, in data.BookInput) (*data.Book, error) {
	v := validator.New()
	data.ValidateBookInput(v, in)
	if err := v.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	book := in.Book()
	err := s.models.Tx(ctx, func(tx data.Models) error {
		return tx.Books.Insert(ctx, book)
	})
	if err != nil {
		return nil, fmt.Errorf("create book: %w", err)
	}

	s.logger.Debug("book created", "book_id", book.ID)
	return book, nil
}

// ListBooks returns a page of books in id order.
func (s *Service) ListBooks(ctx context.Context, filters data.Filters) ([]*data.Book, data.Metadata, error) {
	v := validator.New()
	data.ValidateFilters(v, filters)
	if err := v.Err(); err != nil {
		return nil, data.Metadata{}, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		books    []*data.Book
		metadata data.Metadata
	)
	err := s.models.ReadTx(ctx, func(tx data.Models) error {
		var err error
		books, metadata, err = tx.Books.GetAll(ctx, filters)
		return err
	})
	if err != nil {
		return nil, data.Metadata{}, fmt.Errorf("list books: %w", err)
	}
	return books, metadata, nil
}

// GetBook returns the book with the given id or data.ErrRecordNotFound.
func (s *Service) GetBook(ctx context.Context, id int64) (*data.Book, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var book *data.Book
	err := s.models.ReadTx(ctx, func(tx data.Models) error {
		var err error
		book, err = tx.Books.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return book, nil
}

// UpdateBook replaces every field of the book with in. Fields absent from
// in become unset; partial updates are not supported.
func (s *Service) UpdateBook(ctx context.Context, id int64, in data.BookInput) (*data.Book, error) {
	v := validator.New()
	data.ValidateBookInput(v, in)
	if err := v.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var book *data.Book
	err := s.models.Tx(ctx, func(tx data.Models) error {
		replacement := in.Book()
		replacement.ID = id
		if err := tx.Books.Update(ctx, replacement); err != nil {
			return err
		}
		// Re-read so the caller sees exactly what was committed.
		var err error
		book, err = tx.Books.Get(ctx, id)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update book %d: %w", id, err)
	}

	s.logger.Debug("book updated", "book_id", id)
	return book, nil
}

// DeleteBook removes the book and, through the cascading foreign key, all of
// its reviews.
func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	err := s.models.Tx(ctx, func(tx data.Models) error {
		return tx.Books.Delete(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}

	s.logger.Debug("book deleted", "book_id", id)
	return nil
}

// Reviews

// CreateReview validates in and stores it against bookID. Returns
// data.ErrRecordNotFound if the book does not exist.
func (s *Service) CreateReview(ctx context.Context, bookID int64, in data.ReviewInput) (*data.Review, error) {
	v := validator.New()
	data.ValidateReviewInput(v, in)
	if err := v.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	review := in.Review(bookID)
	err := s.models.Tx(ctx, func(tx data.Models) error {
		exists, err := tx.Books.Exists(ctx, bookID)
		if err != nil {
			return err
		}
		if !exists {
			return data.ErrRecordNotFound
		}
		return tx.Reviews.Insert(ctx, review)
	})
	if err != nil {
		return nil, fmt.Errorf("create review for book %d: %w", bookID, err)
	}

	s.logger.Debug("review created", "book_id", bookID, "review_id", review.ID)
	return review, nil
}

// ListReviews returns the reviews of bookID in insertion order. The result
// is empty, not an error, when the book has no reviews or does not exist.
func (s *Service) ListReviews(ctx context.Context, bookID int64) ([]*data.Review, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var reviews []*data.Review
	err := s.models.ReadTx(ctx, func(tx data.Models) error {
		var err error
		reviews, err = tx.Reviews.GetAllForBook(ctx, bookID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews for book %d: %w", bookID, err)
	}
	return reviews, nil
}

// Summarize computes the average rating and joined review text of bookID.
// A missing book yields data.ErrRecordNotFound; a book without reviews
// yields data.ErrNoReviews, which also matches data.ErrRecordNotFound.
func (s *Service) Summarize(ctx context.Context, bookID int64) (*data.Summary, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var summary *data.Summary
	err := s.models.ReadTx(ctx, func(tx data.Models) error {
		exists, err := tx.Books.Exists(ctx, bookID)
		if err != nil {
			return err
		}
		if !exists {
			return data.ErrRecordNotFound
		}

		reviews, err := tx.Reviews.GetAllForBook(ctx, bookID)
		if err != nil {
			return err
		}
		summary, err = data.Summarize(reviews)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("summarize book %d: %w", bookID, err)
	}
	return summary, nil
}

// Health

// Healthy checks that the store is reachable.
func (s *Service) Healthy(ctx context.Context) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.models.Ping(ctx); err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

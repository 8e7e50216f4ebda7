// Package data provides the data models and database interaction logic
// for the book review service.
package data

import (
	"context"
	"fmt"

	"github.com/aoideee/bookreviews/internal/validator"
)

// Book represents a single book record stored in the database.
// It maps directly to a row in the "books" table. Optional fields are nil
// when unset and are encoded as JSON null.
type Book struct {
	ID            int64   `json:"id"`             // Unique identifier assigned by the database
	Title         string  `json:"title"`          // Title of the book
	Author        string  `json:"author"`         // Author of the book
	Genre         *string `json:"genre"`          // Optional genre
	YearPublished *int    `json:"year_published"` // Optional year of publication
	Summary       *string `json:"summary"`        // Optional free-text summary
}

// BookInput holds the fields a client supplies when creating or replacing a
// book. Updates are full replacements: a field left out of the payload is
// stored as unset, it is never carried over from the previous record.
type BookInput struct {
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Genre         *string `json:"genre"`
	YearPublished *int    `json:"year_published"`
	Summary       *string `json:"summary"`
}

// ValidateBookInput records every problem with in on v.
func ValidateBookInput(v *validator.Validator, in BookInput) {
	v.Check(in.Title != "", "title", "must be provided")
	v.Check(validator.NotBlank(in.Title), "title", "must not be blank")
	v.Check(len(in.Title) <= 500, "title", "must not be more than 500 bytes long")

	v.Check(in.Author != "", "author", "must be provided")
	v.Check(validator.NotBlank(in.Author), "author", "must not be blank")
	v.Check(len(in.Author) <= 500, "author", "must not be more than 500 bytes long")
}

// Book converts a validated input into a Book without an id.
func (in BookInput) Book() *Book {
	return &Book{
		Title:         in.Title,
		Author:        in.Author,
		Genre:         in.Genre,
		YearPublished: in.YearPublished,
		Summary:       in.Summary,
	}
}

// BookModel wraps a database handle and provides methods for
// creating, reading, updating, and deleting book records.
type BookModel struct {
	DB      DBTX // Connection pool or open transaction
	dialect dialect
}

// Insert adds a new book record to the database.
// After a successful insert, the database-assigned id is written back into book.
func (m BookModel) Insert(ctx context.Context, book *Book) error {
	query := `
		INSERT INTO books (title, author, genre, year_published, summary)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`

	args := []any{book.Title, book.Author, book.Genre, book.YearPublished, book.Summary}

	err := m.DB.QueryRowContext(ctx, m.dialect.rebind(query), args...).Scan(&book.ID)
	if err != nil {
		return fmt.Errorf("insert book: %w", classify(err))
	}
	return nil
}

// Get retrieves a single book by its primary key.
// Returns ErrRecordNotFound if no book with the given id exists.
func (m BookModel) Get(ctx context.Context, id int64) (*Book, error) {
	if id < 1 {
		return nil, ErrRecordNotFound
	}

	query := `
		SELECT id, title, author, genre, year_published, summary
		FROM books
		WHERE id = ?`

	var book Book
	err := m.DB.QueryRowContext(ctx, m.dialect.rebind(query), id).Scan(
		&book.ID,
		&book.Title,
		&book.Author,
		&book.Genre,
		&book.YearPublished,
		&book.Summary,
	)
	if err != nil {
		return nil, classify(err)
	}
	return &book, nil
}

// Exists reports whether a book with the given id is present.
func (m BookModel) Exists(ctx context.Context, id int64) (bool, error) {
	if id < 1 {
		return false, nil
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM books WHERE id = ?)`
	if err := m.DB.QueryRowContext(ctx, m.dialect.rebind(query), id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check book %d: %w", id, classify(err))
	}
	return exists, nil
}

// GetAll retrieves a page of books ordered by id, together with the total
// number of books so clients can page through the catalog.
func (m BookModel) GetAll(ctx context.Context, filters Filters) ([]*Book, Metadata, error) {
	var total int
	if err := m.DB.QueryRowContext(ctx, `SELECT count(*) FROM books`).Scan(&total); err != nil {
		return nil, Metadata{}, fmt.Errorf("count books: %w", classify(err))
	}

	query := `
		SELECT id, title, author, genre, year_published, summary
		FROM books
		ORDER BY id ASC
		LIMIT ? OFFSET ?`

	rows, err := m.DB.QueryContext(ctx, m.dialect.rebind(query), filters.Limit, filters.Skip)
	if err != nil {
		return nil, Metadata{}, fmt.Errorf("list books: %w", classify(err))
	}
	// Always close the result set when we are done to free the database connection.
	defer rows.Close()

	books := []*Book{}
	for rows.Next() {
		var book Book
		err := rows.Scan(
			&book.ID,
			&book.Title,
			&book.Author,
			&book.Genre,
			&book.YearPublished,
			&book.Summary,
		)
		if err != nil {
			return nil, Metadata{}, fmt.Errorf("scan book: %w", classify(err))
		}
		books = append(books, &book)
	}
	if err = rows.Err(); err != nil {
		return nil, Metadata{}, fmt.Errorf("list books: %w", classify(err))
	}

	metadata := Metadata{Skip: filters.Skip, Limit: filters.Limit, TotalRecords: total}
	return books, metadata, nil
}

// Update replaces every column of the book identified by book.ID.
// Returns ErrRecordNotFound if no matching record exists.
func (m BookModel) Update(ctx context.Context, book *Book) error {
	query := `
		UPDATE books
		SET title = ?, author = ?, genre = ?, year_published = ?, summary = ?
		WHERE id = ?`

	args := []any{
		book.Title,
		book.Author,
		book.Genre,
		book.YearPublished,
		book.Summary,
		book.ID,
	}

	result, err := m.DB.ExecContext(ctx, m.dialect.rebind(query), args...)
	if err != nil {
		return fmt.Errorf("update book %d: %w", book.ID, classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update book %d: %w", book.ID, classify(err))
	}
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Delete removes the book with the given id. Its reviews are removed by the
// ON DELETE CASCADE foreign key in the same statement.
// Returns ErrRecordNotFound if no matching record exists.
func (m BookModel) Delete(ctx context.Context, id int64) error {
	// Guard against obviously bad IDs before touching the database.
	if id < 1 {
		return ErrRecordNotFound
	}

	result, err := m.DB.ExecContext(ctx, m.dialect.rebind(`DELETE FROM books WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, classify(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, classify(err))
	}

	// If no rows were deleted, the book didn't exist.
	if rowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

package catalog

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/aoideee/bookreviews/internal/data"
	"github.com/aoideee/bookreviews/internal/validator"

	_ "github.com/mattn/go-sqlite3"
)

func newTestService(t *testing.T) *Service {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "catalog.db") + "?_foreign_keys=on"
	db, err := sql.Open(data.DriverSQLite, dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	if err := data.Migrate(context.Background(), db, data.DriverSQLite); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(data.NewModels(db, data.DriverSQLite), time.Second, logger)
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
func int64Ptr(i int64) *int64 { return &i }

func review(userID int64, rating int, text string) data.ReviewInput {
	in := data.ReviewInput{UserID: int64Ptr(userID), Rating: intPtr(rating)}
	if text != "" {
		in.ReviewText = strPtr(text)
	}
	return in
}

func TestCreateBookRoundTrip(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	inputs := []data.BookInput{
		{Title: "Dune", Author: "Herbert"},
		{Title: "Emma", Author: "Austen", Genre: strPtr("novel"), YearPublished: intPtr(1815), Summary: strPtr("Matchmaking")},
		{Title: "Dune", Author: "Someone Else"},
	}

	for i, in := range inputs {
		created, err := svc.CreateBook(ctx, in)
		if err != nil {
			t.Fatalf("CreateBook(%d) failed: %v", i, err)
		}
		if created.ID != int64(i+1) {
			t.Errorf("expected id %d, got %d", i+1, created.ID)
		}

		got, err := svc.GetBook(ctx, created.ID)
		if err != nil {
			t.Fatalf("GetBook failed: %v", err)
		}
		want := in.Book()
		want.ID = created.ID
		if !reflect.DeepEqual(got, want) {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestCreateBookValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateBook(ctx, data.BookInput{Title: " ", Author: ""})
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["title"]; !ok {
		t.Errorf("expected title error, got %v", verr.Fields)
	}
	if _, ok := verr.Fields["author"]; !ok {
		t.Errorf("expected author error, got %v", verr.Fields)
	}

	books, _, err := svc.ListBooks(ctx, data.DefaultFilters())
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 0 {
		t.Errorf("invalid book was stored: %+v", books)
	}
}

func TestListBooks(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	books, meta, err := svc.ListBooks(ctx, data.DefaultFilters())
	if err != nil {
		t.Fatalf("ListBooks on empty catalog failed: %v", err)
	}
	if len(books) != 0 || meta.TotalRecords != 0 {
		t.Fatalf("expected empty catalog, got %d books", len(books))
	}

	for i := 0; i < 12; i++ {
		if _, err := svc.CreateBook(ctx, data.BookInput{Title: "T", Author: "A"}); err != nil {
			t.Fatal(err)
		}
	}

	books, _, err = svc.ListBooks(ctx, data.DefaultFilters())
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != data.DefaultPageSize {
		t.Errorf("expected default page of %d, got %d", data.DefaultPageSize, len(books))
	}
	for i, b := range books {
		if b.ID != int64(i+1) {
			t.Errorf("book %d has id %d, want ascending ids", i, b.ID)
		}
	}

	_, _, err = svc.ListBooks(ctx, data.Filters{Skip: 0, Limit: data.MaxPageSize + 1})
	var verr *validator.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError for oversized limit, got %v", err)
	}
}

func TestGetBookNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetBook(context.Background(), 1)
	if !errors.Is(err, data.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestUpdateBookIsFullReplace(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateBook(ctx, data.BookInput{
		Title: "Dune", Author: "Herbert", Genre: strPtr("sf"), YearPublished: intPtr(1965), Summary: strPtr("Spice"),
	})
	if err != nil {
		t.Fatal(err)
	}

	updated, err := svc.UpdateBook(ctx, created.ID, data.BookInput{Title: "Dune", Author: "Frank Herbert"})
	if err != nil {
		t.Fatalf("UpdateBook failed: %v", err)
	}
	want := &data.Book{ID: created.ID, Title: "Dune", Author: "Frank Herbert"}
	if !reflect.DeepEqual(updated, want) {
		t.Errorf("UpdateBook = %+v, want %+v", updated, want)
	}

	if _, err := svc.UpdateBook(ctx, 99, data.BookInput{Title: "x", Author: "y"}); !errors.Is(err, data.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}

	var verr *validator.ValidationError
	if _, err := svc.UpdateBook(ctx, created.ID, data.BookInput{Title: "Dune"}); !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}
}

func TestDeleteBookCascades(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, data.BookInput{Title: "Dune", Author: "Herbert"})
	if err != nil {
		t.Fatal(err)
	}
	const n = 4
	for i := 0; i < n; i++ {
		if _, err := svc.CreateReview(ctx, book.ID, review(int64(i+1), 3, "ok")); err != nil {
			t.Fatal(err)
		}
	}

	if err := svc.DeleteBook(ctx, book.ID); err != nil {
		t.Fatalf("DeleteBook failed: %v", err)
	}

	reviews, err := svc.ListReviews(ctx, book.ID)
	if err != nil {
		t.Fatalf("ListReviews failed: %v", err)
	}
	if len(reviews) != 0 {
		t.Errorf("expected 0 reviews after delete, got %d", len(reviews))
	}
	if _, err := svc.GetBook(ctx, book.ID); !errors.Is(err, data.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
	if err := svc.DeleteBook(ctx, book.ID); !errors.Is(err, data.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound on second delete, got %v", err)
	}
}

func TestCreateReview(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateReview(ctx, 1, review(7, 5, "Great")); !errors.Is(err, data.ErrRecordNotFound) {
		t.Fatalf("expected ErrRecordNotFound for missing book, got %v", err)
	}

	book, err := svc.CreateBook(ctx, data.BookInput{Title: "Dune", Author: "Herbert"})
	if err != nil {
		t.Fatal(err)
	}

	for _, rating := range []int{-1, 0, 6, 100} {
		_, err := svc.CreateReview(ctx, book.ID, review(7, rating, "bad"))
		var verr *validator.ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("rating %d: expected ValidationError, got %v", rating, err)
		}
	}

	reviews, err := svc.ListReviews(ctx, book.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 0 {
		t.Fatalf("out of range reviews were persisted: %+v", reviews)
	}

	created, err := svc.CreateReview(ctx, book.ID, review(7, 4, ""))
	if err != nil {
		t.Fatalf("CreateReview failed: %v", err)
	}
	want := &data.Review{ID: 1, BookID: book.ID, UserID: 7, Rating: 4}
	if !reflect.DeepEqual(created, want) {
		t.Errorf("CreateReview = %+v, want %+v", created, want)
	}
}

func TestSummarize(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Summarize(ctx, 1); !errors.Is(err, data.ErrRecordNotFound) || errors.Is(err, data.ErrNoReviews) {
		t.Fatalf("expected plain ErrRecordNotFound for missing book, got %v", err)
	}

	book, err := svc.CreateBook(ctx, data.BookInput{Title: "Dune", Author: "Herbert"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Summarize(ctx, book.ID); !errors.Is(err, data.ErrNoReviews) {
		t.Fatalf("expected ErrNoReviews, got %v", err)
	}

	for i, in := range []data.ReviewInput{review(1, 5, "Loved it"), review(2, 3, "Slow start"), review(3, 4, "Worth it")} {
		if _, err := svc.CreateReview(ctx, book.ID, in); err != nil {
			t.Fatalf("CreateReview(%d) failed: %v", i, err)
		}
	}

	summary, err := svc.Summarize(ctx, book.ID)
	if err != nil {
		t.Fatalf("Summarize failed: %v", err)
	}
	want := &data.Summary{AverageRating: 4.0, Summary: "Loved it Slow start Worth it"}
	if !reflect.DeepEqual(summary, want) {
		t.Errorf("Summarize = %+v, want %+v", summary, want)
	}
}

func TestDuneScenario(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	book, err := svc.CreateBook(ctx, data.BookInput{Title: "Dune", Author: "Herbert"})
	if err != nil {
		t.Fatal(err)
	}
	if book.ID != 1 {
		t.Fatalf("expected book id 1, got %d", book.ID)
	}

	r, err := svc.CreateReview(ctx, 1, review(7, 5, "Great"))
	if err != nil {
		t.Fatal(err)
	}
	if r.ID != 1 || r.BookID != 1 {
		t.Fatalf("unexpected review %+v", r)
	}

	summary, err := svc.Summarize(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if summary.AverageRating != 5.0 || summary.Summary != "Great" {
		t.Errorf("unexpected summary %+v", summary)
	}

	if err := svc.DeleteBook(ctx, 1); err != nil {
		t.Fatal(err)
	}
	reviews, err := svc.ListReviews(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(reviews) != 0 {
		t.Errorf("expected no reviews, got %+v", reviews)
	}
}

func TestOperationsHonourCancelledContext(t *testing.T) {
	svc := newTestService(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.CreateBook(ctx, data.BookInput{Title: "Dune", Author: "Herbert"}); err == nil {
		t.Fatal("expected error for cancelled context")
	}

	books, _, err := svc.ListBooks(context.Background(), data.DefaultFilters())
	if err != nil {
		t.Fatal(err)
	}
	if len(books) != 0 {
		t.Errorf("cancelled create left a row behind: %+v", books)
	}
}

func TestHealthy(t *testing.T) {
	svc := newTestService(t)
	if err := svc.Healthy(context.Background()); err != nil {
		t.Errorf("Healthy failed: %v", err)
	}
}

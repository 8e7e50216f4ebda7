package validator

import (
	"errors"
	"testing"
)

func TestValidatorKeepsFirstError(t *testing.T) {
	v := New()
	if !v.Valid() || v.Err() != nil {
		t.Fatal("new validator should be valid")
	}

	v.Check(false, "title", "must be provided")
	v.Check(false, "title", "must not be blank")
	v.Check(true, "author", "must be provided")

	if v.Valid() {
		t.Fatal("expected validator to be invalid")
	}
	if got := v.Errors["title"]; got != "must be provided" {
		t.Errorf("title error = %q, want first message", got)
	}
	if _, ok := v.Errors["author"]; ok {
		t.Error("passing check recorded an error")
	}
}

func TestErr(t *testing.T) {
	v := New()
	v.AddError("rating", "must be between 1 and 5")
	v.AddError("user_id", "must be provided")

	err := v.Err()
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	if len(verr.Fields) != 2 {
		t.Errorf("expected 2 fields, got %v", verr.Fields)
	}

	want := "validation failed: rating must be between 1 and 5; user_id must be provided"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	// The error owns a copy of the map.
	v.AddError("title", "must be provided")
	if _, ok := verr.Fields["title"]; ok {
		t.Error("ValidationError shares state with the Validator")
	}
}

func TestHelpers(t *testing.T) {
	if NotBlank(" \t") || !NotBlank(" a ") {
		t.Error("NotBlank misbehaves")
	}
	if !Between(1, 1, 5) || !Between(5, 1, 5) || Between(0, 1, 5) || Between(6, 1, 5) {
		t.Error("Between is not inclusive of its bounds")
	}
	if !In("sqlite3", "postgres", "sqlite3") || In("mysql", "postgres", "sqlite3") {
		t.Error("In misbehaves")
	}
}

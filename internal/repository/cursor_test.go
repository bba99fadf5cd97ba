package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestCursorRoundTrip(t *testing.T) {
	original := &Cursor{
		CreatedAt: time.Date(2025, 6, 1, 12, 30, 45, 123456789, time.UTC),
		ID:        uuid.New(),
	}

	token := original.Encode()
	if token == "" {
		t.Fatal("expected a non-empty token")
	}

	decoded, err := DecodeCursor(token)
	if err != nil {
		t.Fatalf("DecodeCursor failed: %v", err)
	}

	if !decoded.CreatedAt.Equal(original.CreatedAt) {
		t.Errorf("timestamp mismatch: %v != %v", decoded.CreatedAt, original.CreatedAt)
	}
	if decoded.ID != original.ID {
		t.Errorf("id mismatch: %s != %s", decoded.ID, original.ID)
	}
}

func TestDecodeCursor_Empty(t *testing.T) {
	cursor, err := DecodeCursor("")
	if err != nil {
		t.Fatalf("empty token should not error: %v", err)
	}
	if cursor != nil {
		t.Errorf("empty token should decode to nil, got %+v", cursor)
	}
}

func TestDecodeCursor_Malformed(t *testing.T) {
	tokens := []string{
		"not base64 at all!!!",
		"bm90LWEtY3Vyc29y", // valid base64, no separator
		"fHx8fHx8",         // separators only
	}

	for _, token := range tokens {
		if _, err := DecodeCursor(token); !errors.Is(err, ErrInvalidCursor) {
			t.Errorf("token %q: expected ErrInvalidCursor, got %v", token, err)
		}
	}
}

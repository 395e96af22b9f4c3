package localstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestPutGetRoundTrip(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	type doc struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	in := doc{Name: "sourdough", Count: 3}
	if err := s.Put("cart", in); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var out doc
	if err := s.Get("cart", &out); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestGetMissingKey(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var out map[string]interface{}
	if err := s.Get("nope", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Put("cart", []int{1, 2}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := s.Delete("cart"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	// second delete of an absent key must not error
	if err := s.Delete("cart"); err != nil {
		t.Fatalf("Delete absent: %v", err)
	}

	var out []int
	if err := s.Get("cart", &out); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestGetCorruptDocument(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := os.WriteFile(filepath.Join(dir, "cart.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	var out map[string]interface{}
	if err := s.Get("cart", &out); err == nil {
		t.Fatal("expected error for corrupt document, got nil")
	}
}

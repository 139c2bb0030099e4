package random

import (
	"strings"
	"testing"
)

func TestStringNumber(t *testing.T) {
	s, err := StringNumber(6)
	if err != nil {
		t.Fatalf("string number: %v", err)
	}
	if len(s) != 6 {
		t.Fatalf("expected length 6, got %d", len(s))
	}
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			t.Fatalf("expected digits only, got %q", s)
		}
	}

	if _, err := StringNumber(0); err == nil {
		t.Fatalf("expected error for non-positive length")
	}
}

func TestLowercaseString(t *testing.T) {
	s, err := LowercaseString(8)
	if err != nil {
		t.Fatalf("lowercase string: %v", err)
	}
	if len(s) != 8 {
		t.Fatalf("expected length 8, got %d", len(s))
	}
	for _, ch := range s {
		if !strings.ContainsRune(lowercaseChars, ch) {
			t.Fatalf("unexpected character %q in %q", ch, s)
		}
	}
}

func TestString(t *testing.T) {
	s, err := String(12)
	if err != nil {
		t.Fatalf("random string: %v", err)
	}
	if len(s) != 12 {
		t.Fatalf("expected length 12, got %d", len(s))
	}
	for _, ch := range s {
		if !strings.ContainsRune(mixedChars, ch) {
			t.Fatalf("unexpected character %q in %q", ch, s)
		}
	}
}

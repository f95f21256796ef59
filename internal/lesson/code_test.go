package lesson

import (
	"errors"
	"strings"
	"testing"
)

func TestCodeGenerator_ProducesDigitsOfConfiguredLength(t *testing.T) {
	gen := NewCodeGenerator(6, 20)

	for i := 0; i < 50; i++ {
		code, err := gen.Generate(nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(code) != 6 {
			t.Fatalf("expected 6 digits, got %q", code)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("unexpected character %q in code %q", r, code)
			}
		}
	}
}

func TestCodeGenerator_RerollsPastTakenCodes(t *testing.T) {
	// Single-digit codes with all but "7" taken: the generator must land
	// on the one free value.
	gen := NewCodeGenerator(1, 200)

	code, err := gen.Generate(func(c string) bool { return c != "7" })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != "7" {
		t.Errorf("expected the only free code %q, got %q", "7", code)
	}
}

func TestCodeGenerator_ExhaustedSpaceFails(t *testing.T) {
	gen := NewCodeGenerator(4, 20)

	_, err := gen.Generate(func(string) bool { return true })
	if err == nil {
		t.Fatal("expected error when every code is taken, got nil")
	}
	if !errors.Is(err, ErrCodeSpaceExhausted) {
		t.Errorf("expected ErrCodeSpaceExhausted, got %v", err)
	}
}

func TestCodeGenerator_ZeroConfigFallsBackToDefaults(t *testing.T) {
	gen := NewCodeGenerator(0, 0)

	code, err := gen.Generate(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(code) != 6 {
		t.Errorf("expected default length 6, got %q", code)
	}
}

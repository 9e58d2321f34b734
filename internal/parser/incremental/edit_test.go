package incremental

import (
	"errors"
	"testing"
)

func TestApplyInsert(t *testing.T) {
	got, err := Insert(6, "Beautiful ").Apply("Hello World")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got != "Hello Beautiful World" {
		t.Errorf("got %q", got)
	}
}

func TestApplyDelete(t *testing.T) {
	got, err := Delete(6, 16).Apply("Hello Beautiful World")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got != "Hello World" {
		t.Errorf("got %q", got)
	}
}

func TestApplyReplace(t *testing.T) {
	got, err := Replace(6, 11, "Rust").Apply("Hello World")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got != "Hello Rust" {
		t.Errorf("got %q", got)
	}
}

func TestApplyAtBoundaries(t *testing.T) {
	got, err := Insert(0, ">").Apply("abc")
	if err != nil || got != ">abc" {
		t.Errorf("insert at start: got %q, err %v", got, err)
	}

	got, err = Insert(3, "<").Apply("abc")
	if err != nil || got != "abc<" {
		t.Errorf("insert at end: got %q, err %v", got, err)
	}

	got, err = Delete(0, 3).Apply("abc")
	if err != nil || got != "" {
		t.Errorf("delete all: got %q, err %v", got, err)
	}
}

func TestApplyContractViolations(t *testing.T) {
	tests := []struct {
		name string
		edit TextEdit
		text string
		want error
	}{
		{"negative start", NewTextEdit(-1, 2, "x"), "abc", ErrRangeInvalid},
		{"inverted range", NewTextEdit(3, 1, "x"), "abc", ErrRangeInvalid},
		{"end past length", NewTextEdit(0, 4, "x"), "abc", ErrOffsetOutOfRange},
		{"mid-rune start", NewTextEdit(2, 3, "x"), "héllo", ErrNotCharBoundary},
		{"mid-rune end", NewTextEdit(0, 2, "x"), "héllo", ErrNotCharBoundary},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.edit.Apply(tt.text); !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestApplyOnRuneBoundary(t *testing.T) {
	// Offset 3 is the first byte after the two-byte 'é'.
	got, err := Insert(3, "y").Apply("héllo")
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if got != "héyllo" {
		t.Errorf("got %q", got)
	}
}

func TestDelta(t *testing.T) {
	if d := Insert(0, "abc").Delta(); d != 3 {
		t.Errorf("insert delta = %d, want 3", d)
	}
	if d := Delete(2, 5).Delta(); d != -3 {
		t.Errorf("delete delta = %d, want -3", d)
	}
	if d := Replace(0, 2, "xyz").Delta(); d != 1 {
		t.Errorf("replace delta = %d, want 1", d)
	}
}

func TestEditString(t *testing.T) {
	tests := []struct {
		edit TextEdit
		want string
	}{
		{Insert(6, "hi"), `Insert(6, "hi")`},
		{Delete(2, 5), "Delete[2:5)"},
		{Replace(0, 3, "x"), `Replace[0:3) with "x"`},
	}

	for _, tt := range tests {
		if got := tt.edit.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

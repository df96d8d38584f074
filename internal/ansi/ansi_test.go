package ansi

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestWrap(t *testing.T) {
	t.Parallel()

	if got := Wrap(Red, "x"); got != "\033[31mx\033[0m" {
		t.Errorf("Wrap(Red) = %q", got)
	}
	if got := Wrap("", "x"); got != "x" {
		t.Errorf("Wrap(\"\") = %q, want plain", got)
	}
}

func TestForStrength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		strength float64
		want     string
	}{
		{100, Green},
		{75, Green},
		{50, Yellow},
		{40, Yellow},
		{39.9, Dim},
		{0, Dim},
	}
	for _, tt := range tests {
		if got := ForStrength(tt.strength); got != tt.want {
			t.Errorf("ForStrength(%v) = %q, want %q", tt.strength, got, tt.want)
		}
	}
}

func TestIsTerminal(t *testing.T) {
	t.Parallel()

	if IsTerminal(&bytes.Buffer{}) {
		t.Error("a buffer is not a terminal")
	}
	f, err := os.Create(filepath.Join(t.TempDir(), "out"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if IsTerminal(f) {
		t.Error("a regular file is not a terminal")
	}

	null, err := os.Open(os.DevNull)
	if err != nil {
		t.Fatal(err)
	}
	defer null.Close()
	if IsTerminal(null) {
		t.Errorf("%s is a character device but not a terminal", os.DevNull)
	}
}

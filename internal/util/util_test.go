package util

import (
	"path/filepath"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "foto.png", "foto.png", false},
		{"with directory", "dir/foto.png", "foto.png", false},
		{"traversal", "../../etc/passwd", "passwd", false},
		{"dot", ".", "", true},
		{"dotdot", "..", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizeFilename(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SanitizeFilename(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestValidatePathWithinBase(t *testing.T) {
	base := t.TempDir()

	if err := ValidatePathWithinBase(base, filepath.Join(base, "uploads", "a.png")); err != nil {
		t.Errorf("path inside base rejected: %v", err)
	}
	if err := ValidatePathWithinBase(base, filepath.Join(base, "..", "escape.png")); err == nil {
		t.Error("path escaping base was accepted")
	}
	if err := ValidatePathWithinBase(base, base+"-malicious/a.png"); err == nil {
		t.Error("sibling directory with matching prefix was accepted")
	}
}

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Admin ", "admin"},
		{"BOB", "bob"},
		{"alice", "alice"},
		{"\tMixed Case \n", "mixed case"},
	}

	for _, tt := range tests {
		got := NormalizeUsername(tt.input)
		if got != tt.want {
			t.Errorf("NormalizeUsername(%q) = %q, want %q", tt.input, got, tt.want)
		}
		// Idempotence: normalizing twice gives the same result.
		if again := NormalizeUsername(got); again != got {
			t.Errorf("NormalizeUsername not idempotent: %q -> %q", got, again)
		}
	}
}

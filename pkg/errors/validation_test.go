package errors

import (
	"testing"
)

func TestValidatePattern(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"import path", "golang.org/x/tools/go/packages", false},
		{"wildcard", "./...", false},
		{"std", "std", false},

		{"empty", "", true},
		{"flag", "-toolexec=evil", true},
		{"too long", string(make([]byte, 300)), true},
		{"control char", "fmt\x01", true},
		{"newline", "fmt\nos", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePattern(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePattern(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidatePattern(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"http", "http://localhost:18080", false},
		{"https", "https://example.com", false},
		{"empty", "", true},
		{"no scheme", "localhost:18080", true},
		{"file scheme", "file:///etc/passwd", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "graph.json", false},
		{"absolute", "/tmp/graph.json", false},
		{"nested", "testdata/graphs/small.json", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"null byte", "foo\x00bar", true},
		{"control char", "foo\x01bar", true},
		{"newline", "foo\nbar", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidPath) {
				t.Errorf("ValidatePath(%q) returned wrong error code: %v", tt.input, err)
			}
		})
	}
}

func TestErrorCodesAreUnique(t *testing.T) {
	codes := []Code{
		ErrCodeInvalidInput,
		ErrCodeInvalidPath,
		ErrCodeMalformedSnapshot,
		ErrCodeIndexOutOfRange,
		ErrCodeNotFound,
		ErrCodePackageNotFound,
		ErrCodeFileNotFound,
		ErrCodeNetwork,
		ErrCodeTimeout,
		ErrCodeStore,
		ErrCodeInternal,
		ErrCodeUnsupported,
	}

	seen := make(map[Code]bool)
	for _, code := range codes {
		if seen[code] {
			t.Errorf("Duplicate error code: %s", code)
		}
		seen[code] = true
	}
}

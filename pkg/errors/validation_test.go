package errors

import (
	"strings"
	"testing"
)

func TestValidateUserName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid ascii", "alice", false},
		{"valid japanese", "アリス", false},
		{"valid with spaces", "  Bob Smith  ", false},
		{"max length", strings.Repeat("a", MaxNameLength), false},

		{"empty", "", true},
		{"whitespace only", "   ", true},
		{"too long", strings.Repeat("a", MaxNameLength+1), true},
		{"control char", "al\x01ice", true},
		{"newline", "al\nice", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUserName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateUserName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidateItem(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "coffee", false},
		{"valid unicode", "観葉植物", false},
		{"empty", "", true},
		{"too long", strings.Repeat("x", MaxItemLength+1), true},
		{"tab", "co\tffee", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateItem(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateItem(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCommentText(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid", "thanks!", false},
		{"multiline", "thanks!\nsee you", false},
		{"empty", " ", true},
		{"null byte", "a\x00b", true},
		{"too long", strings.Repeat("x", MaxCommentLength+1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCommentText(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCommentText(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateViewport(t *testing.T) {
	tests := []struct {
		name    string
		w, h    float64
		wantErr bool
	}{
		{"default", 800, 600, false},
		{"zero width", 0, 600, true},
		{"negative height", 800, -1, true},
		{"too large", 50000, 600, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateViewport(tt.w, tt.h)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateViewport(%v, %v) error = %v, wantErr %v", tt.w, tt.h, err, tt.wantErr)
			}
		})
	}
}

func TestSameName(t *testing.T) {
	if !SameName("Alice", " alice ") {
		t.Error("SameName should ignore case and surrounding space")
	}
	if SameName("Alice", "Alicia") {
		t.Error("SameName should not match different names")
	}
}

package errors

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Length limits for user supplied text.
const (
	MaxNameLength    = 64
	MaxItemLength    = 200
	MaxCommentLength = 1000
)

// ValidateUserName validates a display name before it is resolved to a user.
//
// The validation rules are intentionally conservative:
//   - No empty (or whitespace-only) names
//   - No control characters
//   - Maximum length of MaxNameLength runes after trimming
func ValidateUserName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}
	if utf8.RuneCountInString(name) > MaxNameLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", MaxNameLength)
	}
	if hasControl(name) {
		return New(ErrCodeInvalidName, "name contains invalid control characters")
	}
	return nil
}

// ValidateItem validates the free-text description of a gift.
func ValidateItem(item string) error {
	item = strings.TrimSpace(item)
	if item == "" {
		return New(ErrCodeInvalidItem, "item cannot be empty")
	}
	if utf8.RuneCountInString(item) > MaxItemLength {
		return New(ErrCodeInvalidItem, "item too long (max %d characters)", MaxItemLength)
	}
	if hasControl(item) {
		return New(ErrCodeInvalidItem, "item contains invalid control characters")
	}
	return nil
}

// ValidateCommentText validates a comment body. Newlines are allowed.
func ValidateCommentText(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return New(ErrCodeInvalidComment, "comment cannot be empty")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return New(ErrCodeInvalidComment, "comment too long (max %d characters)", MaxCommentLength)
	}
	for _, r := range text {
		if unicode.IsControl(r) && r != '\n' && r != '\t' {
			return New(ErrCodeInvalidComment, "comment contains invalid control characters")
		}
	}
	return nil
}

// ValidateViewport validates explicit layout dimensions supplied by a caller.
// Zero is rejected here; the layout engine itself treats zero as "not ready".
func ValidateViewport(width, height float64) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidViewport, "viewport must be positive, got %gx%g", width, height)
	}
	const maxDimension = 20000
	if width > maxDimension || height > maxDimension {
		return New(ErrCodeInvalidViewport, "viewport too large (max %d)", maxDimension)
	}
	return nil
}

// SameName reports whether two display names refer to the same user.
// Names are compared trimmed and case-insensitively.
func SameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func hasControl(s string) bool {
	for _, r := range s {
		if unicode.IsControl(r) {
			return true
		}
	}
	return false
}

package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestErrorString(t *testing.T) {
	cause := errors.New("disk full")
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"plain", New(ErrCodeSelfGift, "%s cannot give a gift to themselves", "Alice"), "SELF_GIFT: Alice cannot give a gift to themselves"},
		{"wrapped", Wrap(ErrCodeStore, cause, "save %s", "gifts.json"), "STORE_ERROR: save gifts.json: disk full"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(ErrCodeUnavailable, cause, "ping mongo")
	if !errors.Is(err, cause) || errors.Unwrap(err) != cause {
		t.Errorf("cause lost: %v", err)
	}
}

func TestCodeLookup(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    Code
		message string
		isSelf  bool
	}{
		{"coded", New(ErrCodeSelfGift, "same person"), ErrCodeSelfGift, "same person", true},
		{"outer code wins", Wrap(ErrCodeStore, New(ErrCodeSelfGift, "inner"), "outer"), ErrCodeStore, "outer", false},
		{"fmt wrapped", fmtWrap(New(ErrCodeGiftNotFound, "g-1")), ErrCodeGiftNotFound, "g-1", false},
		{"plain", errors.New("plain"), "", "plain", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.code {
				t.Errorf("GetCode() = %q, want %q", got, tt.code)
			}
			if got := UserMessage(tt.err); got != tt.message {
				t.Errorf("UserMessage() = %q, want %q", got, tt.message)
			}
			if got := Is(tt.err, ErrCodeSelfGift); got != tt.isSelf {
				t.Errorf("Is(SELF_GIFT) = %v, want %v", got, tt.isSelf)
			}
		})
	}
	if Is(nil, ErrCodeStore) || GetCode(nil) != "" {
		t.Error("nil error should carry no code")
	}
}

func fmtWrap(err error) error {
	return &wrapped{err}
}

type wrapped struct{ err error }

func (w *wrapped) Error() string { return "context: " + w.err.Error() }
func (w *wrapped) Unwrap() error { return w.err }

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(New(ErrCodeGiftNotFound, "gift %s", "g1")) {
		t.Error("IsNotFound(GIFT_NOT_FOUND) = false, want true")
	}
	// The outermost code wins.
	if IsNotFound(Wrap(ErrCodeStore, New(ErrCodeUserNotFound, "u1"), "resolve")) {
		t.Error("IsNotFound(STORE_ERROR wrapping USER_NOT_FOUND) = true, want false")
	}
	if IsNotFound(New(ErrCodeSelfGift, "same")) {
		t.Error("IsNotFound(SELF_GIFT) = true, want false")
	}
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{ErrCodeInvalidItem, http.StatusBadRequest},
		{ErrCodeInvalidViewport, http.StatusBadRequest},
		{ErrCodeSelfGift, http.StatusUnprocessableEntity},
		{ErrCodeGiftNotFound, http.StatusNotFound},
		{ErrCodeUnavailable, http.StatusServiceUnavailable},
		{ErrCodeUnsupported, http.StatusNotImplemented},
		{ErrCodeStore, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			if got := HTTPStatus(New(tt.code, "x")); got != tt.want {
				t.Errorf("HTTPStatus(%s) = %d, want %d", tt.code, got, tt.want)
			}
		})
	}

	if got := HTTPStatus(errors.New("plain")); got != http.StatusInternalServerError {
		t.Errorf("HTTPStatus(plain) = %d, want 500", got)
	}
}

package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeFormat, "missing %s", "ni")

	if err.Code != ErrCodeFormat {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeFormat)
	}

	if err.Message != "missing ni" {
		t.Errorf("Message = %v, want %v", err.Message, "missing ni")
	}

	expected := "FORMAT: missing ni"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("short read")
	err := Wrap(ErrCodeTruncatedData, cause, "node table")

	if err.Code != ErrCodeTruncatedData {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeTruncatedData)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	if unwrapped := errors.Unwrap(err); unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeKey, "test"),
			code:     ErrCodeKey,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeKey, "test"),
			code:     ErrCodeFormat,
			expected: false,
		},
		{
			name:     "outermost code wins",
			err:      Wrap(ErrCodeIntegrity, New(ErrCodeDanglingTransition, "inner"), "outer"),
			code:     ErrCodeIntegrity,
			expected: true,
		},
		{
			name:     "fmt wrapped",
			err:      fmt.Errorf("load: %w", New(ErrCodeEmptyPackage, "no nodes")),
			code:     ErrCodeEmptyPackage,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeFormat,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeFormat,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestHas(t *testing.T) {
	joined := Wrap(ErrCodeIntegrity, errors.Join(
		New(ErrCodeDanglingTransition, "node 1 slot 0"),
		New(ErrCodeDanglingReference, "node 2 image"),
	), "2 problems")

	for _, code := range []Code{ErrCodeIntegrity, ErrCodeDanglingTransition, ErrCodeDanglingReference} {
		if !Has(joined, code) {
			t.Errorf("Has(%s) = false, want true", code)
		}
	}
	if Has(joined, ErrCodeKey) {
		t.Error("Has(KEY) = true, want false")
	}
	if Has(nil, ErrCodeKey) {
		t.Error("Has(nil) = true")
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeAssetMissing, "test"), ErrCodeAssetMissing},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeFormat, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsFormat(t *testing.T) {
	if !IsFormat(New(ErrCodeFormat, "x")) {
		t.Error("IsFormat(FORMAT) = false")
	}
	if IsFormat(New(ErrCodeTruncatedData, "x")) {
		t.Error("IsFormat(TRUNCATED_DATA) = true")
	}
	if IsFormat(New(ErrCodeCorruptData, "x")) {
		t.Error("IsFormat(CORRUPT_DATA) = true")
	}
}

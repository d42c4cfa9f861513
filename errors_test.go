package enhancer

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"missing credentials", fmt.Errorf("%w: key is empty", ErrMissingCredentials), KindAuth},
		{"no provider", ErrNoProvider, KindAuth},
		{"unauthorized", &ProviderError{Provider: "openai", StatusCode: 401}, KindAuth},
		{"forbidden", &ProviderError{Provider: "bedrock", StatusCode: 403}, KindAuth},
		{"rate limited", &ProviderError{Provider: "openai", StatusCode: 429, Message: "slow down"}, KindVendor},
		{"server error", fmt.Errorf("call: %w", &ProviderError{Provider: "openai", StatusCode: 503}), KindVendor},
		{"malformed", fmt.Errorf("%w: no choices", ErrMalformedResponse), KindResponse},
		{"deadline", fmt.Errorf("wrapped: %w", context.DeadlineExceeded), KindTransport},
		{"network", &url.Error{Op: "Post", URL: "http://x", Err: &net.OpError{Op: "dial", Err: errors.New("refused")}}, KindTransport},
		{"other", errors.New("boom"), KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestProviderErrorMessage(t *testing.T) {
	tests := []struct {
		err  *ProviderError
		want string
	}{
		{&ProviderError{Provider: "openai", StatusCode: 400, Message: "bad"}, "openai error (400): bad"},
		{&ProviderError{Provider: "openai", StatusCode: 429, Message: "slow down"}, "rate limit exceeded: slow down"},
		{&ProviderError{Provider: "bedrock", StatusCode: 500}, "bedrock error: status 500"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestFormatError(t *testing.T) {
	got := FormatError(errors.New("connection refused"))
	if got != "Error: connection refused" {
		t.Errorf("Expected 'Error: connection refused', got %q", got)
	}
	if !strings.HasPrefix(FormatError(nil), ErrorPrefix) {
		t.Error("Expected nil error to still carry the prefix")
	}
}

func TestErrorKindString(t *testing.T) {
	kinds := map[ErrorKind]string{
		KindNone:      "none",
		KindAuth:      "auth",
		KindTransport: "transport",
		KindVendor:    "vendor",
		KindResponse:  "response",
		KindUnknown:   "unknown",
	}
	for kind, want := range kinds {
		if got := kind.String(); got != want {
			t.Errorf("ErrorKind(%d).String() = %q, want %q", int(kind), got, want)
		}
	}
}

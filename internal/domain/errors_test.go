package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
		{
			name: "plain error defaults to transport",
			err:  errors.New("connection reset by peer"),
			want: KindTransport,
		},
		{
			name: "entity not found message is auth",
			err:  errors.New("genai: http 404: Requested entity was not found."),
			want: KindAuth,
		},
		{
			name: "api key not valid is auth",
			err:  errors.New("API key not valid. Please pass a valid API key."),
			want: KindAuth,
		},
		{
			name: "auth signature wins over classified transport",
			err:  NewTransportError("video poll failed", errors.New("Requested entity was not found")),
			want: KindAuth,
		},
		{
			name: "auth signature wins over refusal text",
			err:  NewRefusal("cannot comply: requested entity was not found"),
			want: KindAuth,
		},
		{
			name: "auth signature survives wrapping",
			err:  fmt.Errorf("animate: %w", errors.New("requested ENTITY was not found")),
			want: KindAuth,
		},
		{
			name: "classified refusal keeps its kind",
			err:  NewRefusal("I can only generate family-friendly imagery."),
			want: KindContentRefusal,
		},
		{
			name: "classified empty response keeps its kind",
			err:  NewEmptyResponse(),
			want: KindEmptyResponse,
		},
		{
			name: "classified protocol keeps its kind",
			err:  NewProtocolError("operation done without a result"),
			want: KindProtocol,
		},
		{
			name: "wrapped classified error keeps its kind",
			err:  fmt.Errorf("compose: %w", NewTimeoutError("poll budget exceeded")),
			want: KindTimeout,
		},
		{
			name: "deadline exceeded is timeout",
			err:  fmt.Errorf("compose: %w", context.DeadlineExceeded),
			want: KindTimeout,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := Classify(tc.err); got != tc.want {
				t.Fatalf("Classify() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestAsGenError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		if got := AsGenError(nil); got != nil {
			t.Fatalf("AsGenError(nil) = %v, want nil", got)
		}
	})

	t.Run("classified error passes through", func(t *testing.T) {
		refusal := NewRefusal("no can do")
		got := AsGenError(refusal)
		if got != refusal {
			t.Fatalf("AsGenError() = %p, want the original %p", got, refusal)
		}
	})

	t.Run("plain error becomes transport", func(t *testing.T) {
		cause := errors.New("dial tcp: i/o timeout")
		got := AsGenError(fmt.Errorf("compose: %w", cause))
		if got.Kind != KindTransport {
			t.Fatalf("Kind = %q, want %q", got.Kind, KindTransport)
		}
		if !errors.Is(got, cause) {
			t.Fatalf("AsGenError() lost the cause chain")
		}
	})

	t.Run("auth signature reclassifies an existing kind", func(t *testing.T) {
		err := NewTransportError("", errors.New("requested entity was not found"))
		got := AsGenError(err)
		if got.Kind != KindAuth {
			t.Fatalf("Kind = %q, want %q", got.Kind, KindAuth)
		}
	})
}

func TestGenErrorMessage(t *testing.T) {
	refusal := NewRefusal("the model refused politely")
	if refusal.Error() != "the model refused politely" {
		t.Fatalf("Error() = %q, want refusal text verbatim", refusal.Error())
	}

	wrapped := NewTransportError("", errors.New("boom"))
	if wrapped.Error() != "boom" {
		t.Fatalf("Error() = %q, want %q", wrapped.Error(), "boom")
	}

	bare := &GenError{Kind: KindEmptyResponse}
	if bare.Error() != string(KindEmptyResponse) {
		t.Fatalf("Error() = %q, want kind fallback", bare.Error())
	}
}

func TestHasAuthSignature(t *testing.T) {
	tests := []struct {
		msg  string
		want bool
	}{
		{"Requested entity was not found.", true},
		{"API_KEY_INVALID", true},
		{"api key expired. renew it", true},
		{"rate limit exceeded", false},
		{"", false},
	}
	for _, tc := range tests {
		if got := HasAuthSignature(tc.msg); got != tc.want {
			t.Fatalf("HasAuthSignature(%q) = %v, want %v", tc.msg, got, tc.want)
		}
	}
}

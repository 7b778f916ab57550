package domain

import (
	"context"
	"errors"
	"strings"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrNotReady           = errors.New("garment, subject and scene description are required")
	ErrGenerationInFlight = errors.New("generation already in progress")
	ErrAnimationInFlight  = errors.New("animation already in progress")
	ErrNoComposite        = errors.New("no composite available")
	ErrNoAnimation        = errors.New("no animation available")
	ErrNoCredential       = errors.New("no credential selected")
	ErrConnectUnavailable = errors.New("credential selection unavailable")
	ErrEmptyAsset         = errors.New("empty asset payload")
	ErrUnsupportedMIME    = errors.New("unsupported image type")
)

// Kind classifies a failure from the image or video pipeline.
type Kind string

const (
	KindAuth           Kind = "auth"
	KindContentRefusal Kind = "content_refusal"
	KindEmptyResponse  Kind = "empty_response"
	KindTransport      Kind = "transport"
	KindProtocol       Kind = "protocol"
	KindTimeout        Kind = "timeout"
)

// GenError is a classified generation failure. Message is safe to show to
// the caller; for content refusals it carries the model's text verbatim.
type GenError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *GenError) Error() string {
	switch {
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *GenError) Unwrap() error { return e.Err }

// NewAuthError marks a credential failure. The gate must be re-checked
// before the next remote call.
func NewAuthError(message string, err error) *GenError {
	return &GenError{Kind: KindAuth, Message: message, Err: err}
}

// NewRefusal wraps the explanatory text a model returned instead of an image.
func NewRefusal(text string) *GenError {
	return &GenError{Kind: KindContentRefusal, Message: text}
}

// NewEmptyResponse marks a response with neither an image nor any text.
func NewEmptyResponse() *GenError {
	return &GenError{Kind: KindEmptyResponse, Message: "model returned no content"}
}

func NewTransportError(message string, err error) *GenError {
	return &GenError{Kind: KindTransport, Message: message, Err: err}
}

func NewProtocolError(message string) *GenError {
	return &GenError{Kind: KindProtocol, Message: message}
}

func NewTimeoutError(message string) *GenError {
	return &GenError{Kind: KindTimeout, Message: message}
}

// authSignatures identify credential failures by message fragment. The
// upstream reports a revoked or wrong key as a missing entity, so these
// override whatever shape the error arrived in.
var authSignatures = []string{
	"requested entity was not found",
	"api key not valid",
	"api_key_invalid",
	"api key expired",
}

// HasAuthSignature reports whether msg carries a credential-failure fragment.
func HasAuthSignature(msg string) bool {
	msg = strings.ToLower(msg)
	for _, sig := range authSignatures {
		if strings.Contains(msg, sig) {
			return true
		}
	}
	return false
}

// Classify maps an arbitrary error to a Kind. The auth signature takes
// precedence over every other shape, no matter which service produced the
// error or how it was wrapped. Pure function, no side effects.
func Classify(err error) Kind {
	if err == nil {
		return ""
	}
	if HasAuthSignature(err.Error()) {
		return KindAuth
	}
	var ge *GenError
	if errors.As(err, &ge) {
		return ge.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindTransport
}

// AsGenError normalizes err into a *GenError with its classified kind.
// An already classified error is returned as is unless the auth signature
// forces a reclassification.
func AsGenError(err error) *GenError {
	if err == nil {
		return nil
	}
	kind := Classify(err)
	var ge *GenError
	if errors.As(err, &ge) && ge.Kind == kind {
		return ge
	}
	return &GenError{Kind: kind, Message: err.Error(), Err: err}
}

package status

import (
	"errors"
	"fmt"
	"testing"
)

func TestFromError(t *testing.T) {
	if got := FromError(nil); got != OK {
		t.Fatalf("FromError(nil) = %d, want %d", got, OK)
	}
	for _, err := range []error{ErrInvalidInput, ErrNotInitialized, ErrModelLoad, ErrInference, ErrEncoding, errors.New("boom")} {
		if got := FromError(err); got != Failure {
			t.Fatalf("FromError(%v) = %d, want %d", err, got, Failure)
		}
	}
}

func TestKindFollowsWrapping(t *testing.T) {
	cases := map[string]error{
		"invalid_input":   fmt.Errorf("audio: nil data: %w", ErrInvalidInput),
		"not_initialized": ErrNotInitialized,
		"model_load":      fmt.Errorf("%w: whisper: missing file", ErrModelLoad),
		"inference":       fmt.Errorf("%w: translate", ErrInference),
		"encoding":        fmt.Errorf("handoff: %w", ErrEncoding),
		"internal":        errors.New("other"),
		"ok":              nil,
	}
	for want, err := range cases {
		if got := Kind(err); got != want {
			t.Errorf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}

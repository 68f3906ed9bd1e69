package platformerrors

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewErrorFormatsLayerTypeAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewError(context.Background(), LayerInfrastructure, ErrorTypeExternal, "model call failed", cause, "uuid-1")

	msg := err.Error()
	for _, want := range []string{"infrastructure", "EXTERNAL", "uuid-1", "model call failed", "connection refused"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error message missing %q: %s", want, msg)
		}
	}
	if !errors.Is(err, cause) {
		t.Error("cause not reachable through Unwrap")
	}
}

func TestNewErrorGeneratesUUIDWhenUnset(t *testing.T) {
	err := NewError(context.Background(), LayerDomain, ErrorTypeInternal, "boom", nil, "")
	if err.UUID == "" {
		t.Error("expected a generated error uuid")
	}
}

func TestAsErrorPreservesWrappedType(t *testing.T) {
	inner := NewError(context.Background(), LayerInfrastructure, ErrorTypeExternal, "upstream 503", nil, "uuid-2")

	wrapped := AsError(context.Background(), LayerDomain, inner, "process batch")
	if wrapped.Type != ErrorTypeExternal {
		t.Errorf("wrapped type %q, want %q", wrapped.Type, ErrorTypeExternal)
	}
	if wrapped.UUID != "uuid-2" {
		t.Errorf("wrapped uuid %q, original not preserved", wrapped.UUID)
	}

	plain := AsError(context.Background(), LayerDomain, errors.New("boom"), "process batch")
	if plain.Type != ErrorTypeInternal {
		t.Errorf("plain error classified as %q, want %q", plain.Type, ErrorTypeInternal)
	}

	if AsError(context.Background(), LayerDomain, nil, "noop") != nil {
		t.Error("nil error should map to nil")
	}
}

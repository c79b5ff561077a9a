package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"quietcut/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "render", "ffmpeg", "clip failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"render", "ffmpeg", "clip failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "processing failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		want services.Outcome
	}{
		{services.Wrap(services.ErrUndecodable, "probe", "audio", "no audio stream", nil), services.OutcomeUndecodable},
		{services.Wrap(services.ErrDurationUnavailable, "probe", "duration", "missing", nil), services.OutcomeNotReady},
		{services.Wrap(services.ErrValidation, "detect", "config", "bad window", nil), services.OutcomeRejected},
		{fmt.Errorf("scan: %w", context.Canceled), services.OutcomeCanceled},
		{errors.New("io"), services.OutcomeFailed},
	}
	for _, tc := range cases {
		if got := services.Classify(tc.err); got != tc.want {
			t.Fatalf("Classify(%v) = %s, want %s", tc.err, got, tc.want)
		}
	}
}

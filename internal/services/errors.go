package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")

	// ErrUndecodable marks sources without a readable audio stream.
	ErrUndecodable = errors.New("undecodable source")
	// ErrDurationUnavailable marks sources whose duration cannot be derived
	// yet, such as recordings that are still being written.
	ErrDurationUnavailable = errors.New("duration unavailable")
)

// Outcome classifies a failed file for reporting and the ledger.
type Outcome string

const (
	OutcomeFailed      Outcome = "failed"
	OutcomeUndecodable Outcome = "undecodable"
	OutcomeNotReady    Outcome = "not_ready"
	OutcomeRejected    Outcome = "rejected"
	OutcomeCanceled    Outcome = "canceled"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Classify maps a processing error to the outcome recorded for the file.
func Classify(err error) Outcome {
	switch {
	case errors.Is(err, ErrUndecodable):
		return OutcomeUndecodable
	case errors.Is(err, ErrDurationUnavailable):
		return OutcomeNotReady
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConfiguration):
		return OutcomeRejected
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCanceled
	default:
		return OutcomeFailed
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "processing failure"
	}
	return strings.Join(parts, ": ")
}

// Package validate checks resolved actions for domain validity before they
// reach the store. Checks are pure: no side effects, no store access.
package validate

import (
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/dagaz/internal/models"
)

// Error kinds.
const (
	KindPastDate        = "PastDate"
	KindInvalidDuration = "InvalidDuration"
	KindMissingField    = "MissingField"
)

// Error is a structured validation failure.
type Error struct {
	Kind  string
	Field string
}

func (e *Error) Error() string {
	return fmt.Sprintf("validate: %s on field %q", e.Kind, e.Field)
}

// Validator holds the configured validation limits.
type Validator struct {
	MaxDuration time.Duration
}

// Validate checks a for completeness and domain validity against the
// reference time. A nil return means the action may be applied.
func (v *Validator) Validate(a models.Action, now time.Time) error {
	switch a.Kind {
	case models.KindBook:
		return v.validateBook(a.Book, now)
	case models.KindCancel:
		return validateCancel(a.Cancel)
	case models.KindList:
		return nil
	default:
		return &Error{Kind: KindMissingField, Field: "kind"}
	}
}

func (v *Validator) validateBook(b *models.Booking, now time.Time) error {
	if b == nil {
		return &Error{Kind: KindMissingField, Field: "book"}
	}
	if err := validation.Validate(strings.TrimSpace(b.Title), validation.Required); err != nil {
		return &Error{Kind: KindMissingField, Field: "title"}
	}
	if !b.Start.After(now) {
		return &Error{Kind: KindPastDate, Field: "start"}
	}
	if b.Duration <= 0 {
		return &Error{Kind: KindInvalidDuration, Field: "duration"}
	}
	if v.MaxDuration > 0 && b.Duration > v.MaxDuration {
		return &Error{Kind: KindInvalidDuration, Field: "duration"}
	}
	return nil
}

// validateCancel only requires that some identifying criterion is present.
// Whether it narrows to exactly one appointment is decided at apply time.
func validateCancel(sel *models.Selector) error {
	if sel == nil {
		return &Error{Kind: KindMissingField, Field: "selector"}
	}
	if sel.ID == 0 && strings.TrimSpace(sel.Title) == "" && strings.TrimSpace(sel.Participant) == "" {
		return &Error{Kind: KindMissingField, Field: "selector"}
	}
	return nil
}

// Package models defines the domain types for Dagaz.
package models

import "time"

// Status of a stored appointment. Cancelled appointments are retained for
// history but excluded from conflict checks and default listings.
type Status string

const (
	StatusActive    Status = "active"
	StatusCancelled Status = "cancelled"
)

// Appointment is a persisted scheduling record. The ID is assigned by the
// store on creation and never changes.
type Appointment struct {
	ID          int       `json:"id"`
	Title       string    `json:"title"`
	Participant string    `json:"participant,omitempty"`
	Start       time.Time `json:"start"`
	DurationMin int       `json:"duration_minutes"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

// Duration returns the appointment length.
func (a Appointment) Duration() time.Duration {
	return time.Duration(a.DurationMin) * time.Minute
}

// End returns the exclusive end of the appointment interval [Start, End).
func (a Appointment) End() time.Time {
	return a.Start.Add(a.Duration())
}

// Kind classifies a resolved user request.
type Kind string

const (
	KindBook   Kind = "book"
	KindCancel Kind = "cancel"
	KindList   Kind = "list"
)

// Action is a fully-resolved request produced by the intent resolver and
// consumed once by the engine. It is never persisted.
type Action struct {
	Kind   Kind
	Book   *Booking
	Cancel *Selector
	List   *ListFilter
}

// Booking carries the fields of a book action. Start is an absolute
// timestamp; relative expressions have already been normalized.
type Booking struct {
	Title       string
	Participant string
	Start       time.Time
	Duration    time.Duration
}

// Selector identifies an appointment to cancel: an exact ID, or a filter
// over title/participant with an optional approximate start time.
type Selector struct {
	ID          int
	Title       string
	Participant string
	Around      time.Time
	Window      time.Duration
}

// ListFilter restricts a listing to appointments starting in [From, To).
// Zero bounds are unbounded.
type ListFilter struct {
	From time.Time
	To   time.Time
}

// RawIntent is the untrusted structured output of the LLM: a field bag that
// may be incomplete, contain relative date text, or carry extra fields.
type RawIntent map[string]any

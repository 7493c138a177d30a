// Package intent turns the untrusted field bag produced by the LLM into a
// resolved action. Malformed responses degrade to typed errors, never to
// undefined behavior; extra fields are ignored.
package intent

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/starford/dagaz/internal/dateparse"
	"github.com/starford/dagaz/internal/models"
)

// Error kinds.
const (
	KindUnknownIntent = "UnknownIntent"
	KindDateParse     = "DateParse"
	KindMissingField  = "MissingField"
)

// Error is a structured resolution failure.
type Error struct {
	Kind  string
	Field string
}

func (e *Error) Error() string {
	return fmt.Sprintf("intent: %s on field %q", e.Kind, e.Field)
}

// Resolver maps raw intents to actions, normalizing any date/time-bearing
// fields against the reference time.
type Resolver struct {
	Dates *dateparse.Normalizer
	// DefaultDuration is applied to bookings without an explicit duration.
	DefaultDuration time.Duration
}

// Resolve maps raw to one of the three action kinds. The intent field
// accepts both the short names and the long forms the extraction prompt
// has historically produced.
func (r *Resolver) Resolve(raw models.RawIntent, now time.Time) (models.Action, error) {
	switch strings.ToLower(strings.TrimSpace(stringField(raw, "intent"))) {
	case "book", "book_schedule":
		return r.resolveBook(raw, now)
	case "cancel", "cancel_schedule":
		return r.resolveCancel(raw, now)
	case "list", "get_schedule":
		return r.resolveList(raw, now)
	default:
		return models.Action{}, &Error{Kind: KindUnknownIntent, Field: "intent"}
	}
}

func (r *Resolver) resolveBook(raw models.RawIntent, now time.Time) (models.Action, error) {
	title := strings.TrimSpace(firstString(raw, "title", "description"))
	if title == "" {
		return models.Action{}, &Error{Kind: KindMissingField, Field: "title"}
	}

	expr := joinExpr(stringField(raw, "date"), stringField(raw, "time"))
	if expr == "" {
		return models.Action{}, &Error{Kind: KindMissingField, Field: "date"}
	}
	start, err := r.Dates.Normalize(expr, now)
	if err != nil {
		return models.Action{}, &Error{Kind: KindDateParse, Field: "date"}
	}

	dur := r.DefaultDuration
	if dur <= 0 {
		dur = time.Hour
	}
	if m, ok := numberField(raw, "duration_minutes"); ok && m > 0 {
		dur = time.Duration(m) * time.Minute
	}

	return models.Action{
		Kind: models.KindBook,
		Book: &models.Booking{
			Title:       title,
			Participant: strings.TrimSpace(stringField(raw, "participant")),
			Start:       start,
			Duration:    dur,
		},
	}, nil
}

func (r *Resolver) resolveCancel(raw models.RawIntent, now time.Time) (models.Action, error) {
	sel := models.Selector{
		Title:       strings.TrimSpace(firstString(raw, "title", "description")),
		Participant: strings.TrimSpace(stringField(raw, "participant")),
	}
	if id, ok := numberField(raw, "id"); ok {
		sel.ID = id
	}
	if expr := joinExpr(stringField(raw, "date"), stringField(raw, "time")); expr != "" {
		around, err := r.Dates.Normalize(expr, now)
		if err != nil {
			return models.Action{}, &Error{Kind: KindDateParse, Field: "date"}
		}
		sel.Around = around
	}
	return models.Action{Kind: models.KindCancel, Cancel: &sel}, nil
}

func (r *Resolver) resolveList(raw models.RawIntent, now time.Time) (models.Action, error) {
	f := models.ListFilter{}
	df := strings.ToLower(strings.TrimSpace(stringField(raw, "date_filter")))
	switch df {
	case "", "all":
	case "today":
		f = dayRange(now, 0, 1)
	case "tomorrow":
		f = dayRange(now, 1, 1)
	case "week":
		f = dayRange(now, 0, 7)
	case "month":
		first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
		f = models.ListFilter{From: first, To: first.AddDate(0, 1, 0)}
	default:
		// Any other filter is treated as a date expression for that day.
		ts, err := r.Dates.Normalize(df, now)
		if err != nil {
			return models.Action{}, &Error{Kind: KindDateParse, Field: "date_filter"}
		}
		day := time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, now.Location())
		f = models.ListFilter{From: day, To: day.AddDate(0, 0, 1)}
	}
	return models.Action{Kind: models.KindList, List: &f}, nil
}

// dayRange returns [midnight+offset days, +span days) in now's location.
func dayRange(now time.Time, offsetDays, spanDays int) models.ListFilter {
	d := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, offsetDays)
	return models.ListFilter{From: d, To: d.AddDate(0, 0, spanDays)}
}

func joinExpr(date, clock string) string {
	return strings.TrimSpace(strings.TrimSpace(date) + " " + strings.TrimSpace(clock))
}

func stringField(raw models.RawIntent, key string) string {
	if v, ok := raw[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func firstString(raw models.RawIntent, keys ...string) string {
	for _, k := range keys {
		if s := stringField(raw, k); strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// numberField accepts JSON numbers and numeric strings, both of which the
// model produces for ids and durations.
func numberField(raw models.RawIntent, key string) (int, bool) {
	v, ok := raw[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(n)); err == nil {
			return i, true
		}
	}
	return 0, false
}

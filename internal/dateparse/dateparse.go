// Package dateparse resolves natural-language date and time expressions
// against an explicit reference time. All resolution is a pure function of
// the expression and the reference time, never of the wall clock.
package dateparse

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Error reports an expression that could not be normalized. This is a
// recoverable condition: callers turn it into a clarification request.
type Error struct {
	Reason string
	Raw    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("dateparse: %s expression %q", e.Reason, e.Raw)
}

// Normalizer resolves expressions deterministically against a caller-supplied
// reference time.
type Normalizer struct {
	// IncludeToday lets "next <weekday>" resolve to the reference day itself
	// when the weekday matches. The default convention is strictly after the
	// reference day.
	IncludeToday bool
}

var (
	clockRe    = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	meridiemRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)$`)
)

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// wordClocks maps colloquial time-of-day words to a clock time.
var wordClocks = map[string][2]int{
	"noon":      {12, 0},
	"midnight":  {0, 0},
	"morning":   {9, 0},
	"afternoon": {14, 0},
	"evening":   {18, 0},
	"night":     {20, 0},
}

// Normalize resolves expr to an absolute timestamp in now's location.
//
// Recognized forms: absolute dates ("2025-03-10", optionally with a time),
// relative day words ("today", "tomorrow", "yesterday"), "next week",
// "next month", weekday references ("next monday", "friday"), bare times
// ("3pm", "15:04", "afternoon"), and "<date> [at] <time>" combinations.
//
// Date-only expressions keep now's hour and minute, so "tomorrow" is always
// exactly one day after now at the same time of day. Bare times resolve to
// the nearest future occurrence of that clock time, rolling to the next day
// when it has already passed.
func (n *Normalizer) Normalize(expr string, now time.Time) (time.Time, error) {
	s := strings.ToLower(strings.TrimSpace(expr))
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return time.Time{}, &Error{Reason: "unparseable", Raw: expr}
	}

	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02t15:04"} {
		if ts, err := time.ParseInLocation(layout, s, now.Location()); err == nil {
			return ts, nil
		}
	}

	dateExpr, timeExpr := splitParts(s)

	hour, minute := now.Hour(), now.Minute()
	if timeExpr != "" {
		h, m, ok := parseClock(timeExpr)
		if !ok {
			return time.Time{}, &Error{Reason: "unparseable", Raw: expr}
		}
		hour, minute = h, m
	}

	if dateExpr == "" {
		// Bare time: nearest future occurrence.
		ts := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		if !ts.After(now) {
			ts = ts.AddDate(0, 0, 1)
		}
		return ts, nil
	}

	day, ok := n.resolveDay(dateExpr, now)
	if !ok {
		return time.Time{}, &Error{Reason: "unparseable", Raw: expr}
	}
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, now.Location()), nil
}

// splitParts separates a trailing clock expression from the date part.
// A trailing "at" on the date part is dropped ("tomorrow at 3pm").
func splitParts(s string) (dateExpr, timeExpr string) {
	fields := strings.Fields(s)
	if len(fields) >= 2 {
		cand := fields[len(fields)-2] + " " + fields[len(fields)-1]
		if _, _, ok := parseClock(cand); ok {
			return joinDatePart(fields[:len(fields)-2]), cand
		}
	}
	cand := fields[len(fields)-1]
	if _, _, ok := parseClock(cand); ok {
		return joinDatePart(fields[:len(fields)-1]), cand
	}
	return s, ""
}

func joinDatePart(fields []string) string {
	if len(fields) > 0 && fields[len(fields)-1] == "at" {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// parseClock parses "3pm", "3:30 pm", "15:04" and the word clocks.
func parseClock(s string) (hour, minute int, ok bool) {
	if hm, found := wordClocks[s]; found {
		return hm[0], hm[1], true
	}
	if m := meridiemRe.FindStringSubmatch(s); m != nil {
		hour = atoi(m[1])
		if m[2] != "" {
			minute = atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return 0, 0, false
		}
		if m[3] == "pm" && hour != 12 {
			hour += 12
		}
		if m[3] == "am" && hour == 12 {
			hour = 0
		}
		return hour, minute, true
	}
	if m := clockRe.FindStringSubmatch(s); m != nil {
		hour, minute = atoi(m[1]), atoi(m[2])
		if hour > 23 || minute > 59 {
			return 0, 0, false
		}
		return hour, minute, true
	}
	return 0, 0, false
}

// resolveDay resolves a date-only expression to a calendar day. The returned
// time's clock component is not meaningful.
func (n *Normalizer) resolveDay(expr string, now time.Time) (time.Time, bool) {
	switch expr {
	case "today":
		return now, true
	case "tomorrow":
		return now.AddDate(0, 0, 1), true
	case "yesterday":
		return now.AddDate(0, 0, -1), true
	case "next week":
		return now.AddDate(0, 0, 7), true
	case "next month":
		return now.AddDate(0, 1, 0), true
	}

	name := strings.TrimPrefix(expr, "next ")
	if wd, ok := weekdays[name]; ok {
		ahead := (int(wd) - int(now.Weekday()) + 7) % 7
		if ahead == 0 && !n.IncludeToday {
			ahead = 7
		}
		return now.AddDate(0, 0, ahead), true
	}

	// Month names match case-insensitively, so the lowercased expr is fine.
	for _, layout := range []string{"2006-01-02", "January 2 2006", "Jan 2 2006"} {
		if ts, err := time.ParseInLocation(layout, expr, now.Location()); err == nil {
			return ts, true
		}
	}
	// Month-day without a year assumes the reference year.
	for _, layout := range []string{"January 2", "Jan 2"} {
		if ts, err := time.ParseInLocation(layout, expr, now.Location()); err == nil {
			return ts.AddDate(now.Year(), 0, 0), true
		}
	}
	return time.Time{}, false
}

func atoi(s string) int {
	n := 0
	for _, c := range s {
		n = n*10 + int(c-'0')
	}
	return n
}

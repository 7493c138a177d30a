package dateparse

import (
	"errors"
	"testing"
	"time"
)

var ref = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC) // Monday

func TestNormalize_Tomorrow(t *testing.T) {
	n := &Normalizer{}
	got, err := n.Normalize("tomorrow", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := time.Date(2024, 1, 2, 9, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_TomorrowWithTime(t *testing.T) {
	n := &Normalizer{}
	got, err := n.Normalize("tomorrow 3pm", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_AtSeparator(t *testing.T) {
	n := &Normalizer{}
	got, err := n.Normalize("Tomorrow at 3:30 PM", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	want := time.Date(2024, 1, 2, 15, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_BareTimeRollsForward(t *testing.T) {
	n := &Normalizer{}

	// 15:00 has not passed yet at 09:00 — same day.
	got, err := n.Normalize("3pm", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if want := time.Date(2024, 1, 1, 15, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}

	// 08:00 has passed — rolls to the next day.
	got, err = n.Normalize("8am", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if want := time.Date(2024, 1, 2, 8, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_NextWeekdayStrictlyAfter(t *testing.T) {
	// ref is a Monday; "next monday" must not mean today.
	n := &Normalizer{}
	got, err := n.Normalize("next monday", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if want := time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_NextWeekdayIncludeToday(t *testing.T) {
	n := &Normalizer{IncludeToday: true}
	got, err := n.Normalize("next monday", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if want := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_WeekdayAhead(t *testing.T) {
	n := &Normalizer{}
	got, err := n.Normalize("friday 10am", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if want := time.Date(2024, 1, 5, 10, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_AbsoluteForms(t *testing.T) {
	n := &Normalizer{}
	cases := map[string]time.Time{
		"2024-03-05":       time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC),
		"2024-03-05 14:30": time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
		"march 5 14:30":    time.Date(2024, 3, 5, 14, 30, 0, 0, time.UTC),
	}
	for expr, want := range cases {
		got, err := n.Normalize(expr, ref)
		if err != nil {
			t.Errorf("Normalize(%q): %v", expr, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("Normalize(%q) = %v, want %v", expr, got, want)
		}
	}
}

func TestNormalize_WordClocks(t *testing.T) {
	n := &Normalizer{}
	got, err := n.Normalize("tomorrow afternoon", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if want := time.Date(2024, 1, 2, 14, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_YesterdayResolves(t *testing.T) {
	// Past dates normalize fine; rejecting them is the validator's job.
	n := &Normalizer{}
	got, err := n.Normalize("yesterday", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if want := time.Date(2023, 12, 31, 9, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestNormalize_Unparseable(t *testing.T) {
	n := &Normalizer{}
	for _, expr := range []string{"", "whenever", "25:99", "13pm", "next blursday"} {
		_, err := n.Normalize(expr, ref)
		if err == nil {
			t.Errorf("Normalize(%q): expected error", expr)
			continue
		}
		var de *Error
		if !errors.As(err, &de) {
			t.Errorf("Normalize(%q): error type %T", expr, err)
			continue
		}
		if de.Reason != "unparseable" {
			t.Errorf("Normalize(%q): reason = %q", expr, de.Reason)
		}
	}
}

func TestNormalize_Deterministic(t *testing.T) {
	n := &Normalizer{}
	a, err := n.Normalize("next friday at noon", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	b, err := n.Normalize("next friday at noon", ref)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if !a.Equal(b) {
		t.Errorf("non-deterministic: %v vs %v", a, b)
	}
}

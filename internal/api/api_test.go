package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/starford/dagaz/internal/dateparse"
	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/intent"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/storage"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/validate"
)

var ref = time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)

// fakeExtractor returns a canned intent for any text.
type fakeExtractor struct {
	intent models.RawIntent
}

func (f *fakeExtractor) ExtractIntent(_ context.Context, _ string, _ time.Time) (models.RawIntent, error) {
	return f.intent, nil
}

func testHandler(t *testing.T, ex IntentExtractor) *Handler {
	t.Helper()
	f, err := storage.NewFile(filepath.Join(t.TempDir(), "schedules.json"))
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	st, err := store.Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	eng := engine.New(st,
		&intent.Resolver{Dates: &dateparse.Normalizer{}, DefaultDuration: time.Hour},
		&validate.Validator{MaxDuration: 8 * time.Hour},
		engine.PolicyWarn, nil)
	h := NewHandler(eng, ex)
	h.nowFn = func() time.Time { return ref }
	return h
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func decodeResult(t *testing.T, w *httptest.ResponseRecorder) engine.Result {
	t.Helper()
	var res engine.Result
	if err := json.Unmarshal(w.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode result: %v (body %q)", err, w.Body.String())
	}
	return res
}

func TestCommand_BooksFromText(t *testing.T) {
	ex := &fakeExtractor{intent: models.RawIntent{
		"intent": "book_schedule",
		"title":  "Dentist",
		"date":   "tomorrow",
		"time":   "3pm",
	}}
	r := NewRouter(testHandler(t, ex), false, "", nil)

	w := doJSON(t, r, http.MethodPost, "/command", CommandRequest{Text: "book a dentist tomorrow at 3pm"})
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
	}
	res := decodeResult(t, w)
	if res.Appointment == nil || res.Appointment.Title != "Dentist" {
		t.Errorf("result = %+v", res)
	}
	want := time.Date(2024, 1, 2, 15, 0, 0, 0, time.UTC)
	if !res.Appointment.Start.Equal(want) {
		t.Errorf("start = %v, want %v", res.Appointment.Start, want)
	}
}

func TestCommand_WithoutExtractorUnavailable(t *testing.T) {
	r := NewRouter(testHandler(t, nil), false, "", nil)
	w := doJSON(t, r, http.MethodPost, "/command", CommandRequest{Text: "hi"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d", w.Code)
	}
}

func TestIntent_PastDateUnprocessable(t *testing.T) {
	r := NewRouter(testHandler(t, nil), false, "", nil)
	w := doJSON(t, r, http.MethodPost, "/intents", models.RawIntent{
		"intent": "book", "title": "Dentist", "date": "yesterday",
	})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, body %q", w.Code, w.Body.String())
	}
	res := decodeResult(t, w)
	if res.Err == nil || res.Err.Kind != validate.KindPastDate {
		t.Errorf("result = %+v", res)
	}
}

func TestAppointments_BookListCancel(t *testing.T) {
	r := NewRouter(testHandler(t, nil), false, "", nil)

	w := doJSON(t, r, http.MethodPost, "/appointments", BookAppointmentRequest{
		Title: "Standup", Date: "tomorrow", Time: "10:00", DurationMinutes: 15,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("book status = %d, body %q", w.Code, w.Body.String())
	}
	created := decodeResult(t, w)
	if created.Appointment.DurationMin != 15 {
		t.Errorf("duration = %d", created.Appointment.DurationMin)
	}

	w = doJSON(t, r, http.MethodGet, "/appointments?filter=tomorrow", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	listed := decodeResult(t, w)
	if len(listed.Appointments) != 1 {
		t.Fatalf("appointments = %+v", listed.Appointments)
	}

	w = doJSON(t, r, http.MethodDelete, "/appointments/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("cancel status = %d, body %q", w.Code, w.Body.String())
	}

	w = doJSON(t, r, http.MethodGet, "/appointments", nil)
	if listed = decodeResult(t, w); len(listed.Appointments) != 0 {
		t.Errorf("appointments after cancel = %+v", listed.Appointments)
	}
}

func TestCancel_UnknownIDNotFound(t *testing.T) {
	r := NewRouter(testHandler(t, nil), false, "", nil)
	w := doJSON(t, r, http.MethodDelete, "/appointments/42", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d", w.Code)
	}
}

func TestCancel_BadIDBadRequest(t *testing.T) {
	r := NewRouter(testHandler(t, nil), false, "", nil)
	w := doJSON(t, r, http.MethodDelete, "/appointments/zero", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d", w.Code)
	}
}

func TestConflictingBookReportsConflicts(t *testing.T) {
	r := NewRouter(testHandler(t, nil), false, "", nil)

	first := doJSON(t, r, http.MethodPost, "/appointments", BookAppointmentRequest{
		Title: "one", Date: "tomorrow", Time: "10:00",
	})
	if first.Code != http.StatusCreated {
		t.Fatalf("first status = %d", first.Code)
	}

	second := doJSON(t, r, http.MethodPost, "/appointments", BookAppointmentRequest{
		Title: "two", Date: "tomorrow", Time: "10:30",
	})
	if second.Code != http.StatusCreated {
		t.Fatalf("second status = %d", second.Code)
	}
	res := decodeResult(t, second)
	if len(res.Conflicts) != 1 {
		t.Errorf("conflicts = %+v", res.Conflicts)
	}
}

func TestAuthMiddleware(t *testing.T) {
	r := NewRouter(testHandler(t, nil), true, "secret", nil)

	w := doJSON(t, r, http.MethodGet, "/appointments", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token: status = %d", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/appointments", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("valid token: status = %d", w.Code)
	}
}

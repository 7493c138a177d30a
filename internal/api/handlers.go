package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/starford/dagaz/internal/engine"
	"github.com/starford/dagaz/internal/models"
)

// IntentExtractor turns free-form text into a raw intent. Implemented by
// the LLM client and by the keyword fallback.
type IntentExtractor interface {
	ExtractIntent(ctx context.Context, text string, now time.Time) (models.RawIntent, error)
}

// Handler holds API route handlers.
type Handler struct {
	eng       *engine.Engine
	extractor IntentExtractor
	nowFn     func() time.Time
}

// NewHandler creates a new Handler. extractor may be nil, in which case
// POST /command is unavailable.
func NewHandler(eng *engine.Engine, extractor IntentExtractor) *Handler {
	return &Handler{eng: eng, extractor: extractor, nowFn: time.Now}
}

// Command handles POST /command: extract an intent from text, then run it.
func (h *Handler) Command(w http.ResponseWriter, r *http.Request) {
	if h.extractor == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorBody("intent extraction is not configured"))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CommandRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if req.Text == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("text is required"))
		return
	}

	now := h.nowFn()
	raw, err := h.extractor.ExtractIntent(r.Context(), req.Text, now)
	if err != nil {
		slog.Error("intent extraction failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadGateway, errorBody("intent extraction failed"))
		return
	}
	h.execute(w, r, raw, now)
}

// Intent handles POST /intents: run a pre-extracted raw intent directly.
func (h *Handler) Intent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var raw models.RawIntent
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	h.execute(w, r, raw, h.nowFn())
}

// ListAppointments handles GET /appointments.
func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	raw := models.RawIntent{"intent": "list"}
	if f := r.URL.Query().Get("filter"); f != "" {
		raw["date_filter"] = f
	}
	h.execute(w, r, raw, h.nowFn())
}

// BookAppointment handles POST /appointments.
func (h *Handler) BookAppointment(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	raw := models.RawIntent{
		"intent":      "book",
		"title":       req.Title,
		"participant": req.Participant,
		"date":        req.Date,
		"time":        req.Time,
	}
	if req.DurationMinutes > 0 {
		raw["duration_minutes"] = req.DurationMinutes
	}
	h.execute(w, r, raw, h.nowFn())
}

// CancelAppointment handles DELETE /appointments/{id}.
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid appointment id"))
		return
	}
	h.execute(w, r, models.RawIntent{"intent": "cancel", "id": id}, h.nowFn())
}

func (h *Handler) execute(w http.ResponseWriter, r *http.Request, raw models.RawIntent, now time.Time) {
	res := h.eng.Execute(r.Context(), raw, now)
	if res.Status == engine.StatusRejected {
		slog.Info("command rejected",
			slog.String("kind", res.Err.Kind),
			slog.String("detail", res.Err.Detail))
	}
	writeJSON(w, statusFor(res), res)
}

// statusFor maps a result to an HTTP status. Rejections carry the full
// result body so clients can phrase the failure for the user.
func statusFor(res engine.Result) int {
	if res.Status == engine.StatusCompleted {
		if res.Kind == models.KindBook {
			return http.StatusCreated
		}
		return http.StatusOK
	}
	if res.Err == nil {
		return http.StatusInternalServerError
	}
	switch res.Err.Kind {
	case "NotFound":
		return http.StatusNotFound
	case "Ambiguous", "Conflict":
		return http.StatusConflict
	case "PersistenceError", "Internal":
		return http.StatusInternalServerError
	default:
		// UnknownIntent, DateParse, MissingField, PastDate, InvalidDuration.
		return http.StatusUnprocessableEntity
	}
}

// Package engine orchestrates command execution: resolve, validate, apply.
// Any stage error short-circuits the request to a rejected result with the
// originating error kind preserved for the response layer.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/intent"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/store"
	"github.com/starford/dagaz/internal/validate"
)

// Conflict policies for overlapping bookings.
const (
	PolicyWarn  = "warn"  // create anyway, report the conflicts
	PolicyBlock = "block" // reject the booking
)

// Status of a processed request.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusRejected  Status = "rejected"
)

// Failure identifies why a request was rejected.
type Failure struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail,omitempty"`
}

// Result is the outcome of one request, consumed by the response layer.
type Result struct {
	Status       Status               `json:"status"`
	Kind         models.Kind          `json:"kind,omitempty"`
	Appointment  *models.Appointment  `json:"appointment,omitempty"`
	Appointments []models.Appointment `json:"appointments,omitempty"`
	Conflicts    []models.Appointment `json:"conflicts,omitempty"`
	Err          *Failure             `json:"error,omitempty"`
}

// NotifyFunc receives committed mutations ("created", "cancelled"). The
// engine never waits on it; implementations must not block.
type NotifyFunc func(event string, appt models.Appointment)

// Engine drives the resolve → validate → apply pipeline. It is stateless
// across requests apart from the shared store reference.
type Engine struct {
	store          *store.Store
	resolver       *intent.Resolver
	validator      *validate.Validator
	conflictPolicy string
	notify         NotifyFunc
}

// New creates an Engine. policy is PolicyWarn or PolicyBlock; notify may be
// nil.
func New(st *store.Store, r *intent.Resolver, v *validate.Validator, policy string, notify NotifyFunc) *Engine {
	if policy == "" {
		policy = PolicyWarn
	}
	return &Engine{store: st, resolver: r, validator: v, conflictPolicy: policy, notify: notify}
}

// Execute runs one request against the reference time. It never retries: a
// failure at any stage terminates the request and the caller decides
// whether to re-prompt.
func (e *Engine) Execute(_ context.Context, raw models.RawIntent, now time.Time) Result {
	action, err := e.resolver.Resolve(raw, now)
	if err != nil {
		return rejected("", err)
	}
	if err := e.validator.Validate(action, now); err != nil {
		return rejected(action.Kind, err)
	}

	switch action.Kind {
	case models.KindBook:
		return e.applyBook(*action.Book, now)
	case models.KindCancel:
		return e.applyCancel(*action.Cancel)
	case models.KindList:
		return e.applyList(*action.List)
	}
	return rejected("", &intent.Error{Kind: intent.KindUnknownIntent, Field: "intent"})
}

func (e *Engine) applyBook(b models.Booking, now time.Time) Result {
	conflicts := e.store.FindConflicts(b.Start, b.Duration)
	if len(conflicts) > 0 && e.conflictPolicy == PolicyBlock {
		return Result{
			Status:    StatusRejected,
			Kind:      models.KindBook,
			Conflicts: conflicts,
			Err: &Failure{
				Kind:   "Conflict",
				Detail: fmt.Sprintf("overlaps %d existing appointment(s)", len(conflicts)),
			},
		}
	}

	appt, err := e.store.Create(b, now)
	if err != nil {
		return rejected(models.KindBook, err)
	}
	e.emit("created", appt)
	return Result{
		Status:      StatusCompleted,
		Kind:        models.KindBook,
		Appointment: &appt,
		Conflicts:   conflicts,
	}
}

func (e *Engine) applyCancel(sel models.Selector) Result {
	appt, err := e.store.Cancel(sel)
	if err != nil {
		return rejected(models.KindCancel, err)
	}
	e.emit("cancelled", appt)
	return Result{Status: StatusCompleted, Kind: models.KindCancel, Appointment: &appt}
}

func (e *Engine) applyList(f models.ListFilter) Result {
	return Result{
		Status:       StatusCompleted,
		Kind:         models.KindList,
		Appointments: e.store.List(f),
	}
}

func (e *Engine) emit(event string, appt models.Appointment) {
	if e.notify != nil {
		e.notify(event, appt)
	}
}

func rejected(kind models.Kind, err error) Result {
	return Result{Status: StatusRejected, Kind: kind, Err: failureFor(err)}
}

// failureFor maps pipeline errors to the failure taxonomy the response
// layer phrases for the user.
func failureFor(err error) *Failure {
	var ie *intent.Error
	var ve *validate.Error
	switch {
	case errors.As(err, &ie):
		return &Failure{Kind: ie.Kind, Detail: ie.Field}
	case errors.As(err, &ve):
		return &Failure{Kind: ve.Kind, Detail: ve.Field}
	case errors.Is(err, apperr.ErrNotFound):
		return &Failure{Kind: "NotFound", Detail: err.Error()}
	case errors.Is(err, apperr.ErrAmbiguous):
		return &Failure{Kind: "Ambiguous", Detail: err.Error()}
	case errors.Is(err, apperr.ErrPersistence):
		return &Failure{Kind: "PersistenceError", Detail: err.Error()}
	default:
		return &Failure{Kind: "Internal", Detail: err.Error()}
	}
}

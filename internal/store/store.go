// Package store owns the persisted appointment collection. Every mutating
// operation persists the full state before returning; on a persistence
// failure the in-memory mutation is rolled back so memory never disagrees
// with what a reload would produce.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/starford/dagaz/internal/apperr"
	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/storage"
)

// defaultCancelWindow bounds approximate-time cancel matching when the
// selector does not carry its own window.
const defaultCancelWindow = 90 * time.Minute

type persistedState struct {
	NextID       int                  `json:"next_id"`
	Appointments []models.Appointment `json:"appointments"`
}

// Store is the in-memory appointment collection backed by a storage provider.
// All operations are serialized by one mutex around the
// read-modify-persist sequence.
type Store struct {
	mu           sync.Mutex
	provider     storage.Provider
	appts        []models.Appointment // ordered by start ascending
	nextID       int
	sum          string // checksum of the last persisted document
	cancelWindow time.Duration
}

// SetCancelWindow overrides the approximate-time matching window used by
// Cancel when the selector does not carry its own.
func (s *Store) SetCancelWindow(w time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w > 0 {
		s.cancelWindow = w
	}
}

// Open creates a Store and reloads any previously persisted state. IDs and
// statuses are reconstructed exactly as written.
func Open(p storage.Provider) (*Store, error) {
	s := &Store{provider: p, nextID: 1, cancelWindow: defaultCancelWindow}
	data, err := p.Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, fmt.Errorf("store: open: %w", err)
	}
	if err := s.decode(data); err != nil {
		return nil, err
	}
	return s, nil
}

// Create assigns a new unique ID, persists, and returns the created record.
// Overlapping bookings are allowed; conflict detection is advisory and
// separate (FindConflicts).
func (s *Store) Create(b models.Booking, now time.Time) (models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prevAppts, prevID := slices.Clone(s.appts), s.nextID

	appt := models.Appointment{
		ID:          s.nextID,
		Title:       strings.TrimSpace(b.Title),
		Participant: strings.TrimSpace(b.Participant),
		Start:       b.Start,
		DurationMin: int(b.Duration / time.Minute),
		Status:      models.StatusActive,
		CreatedAt:   now,
	}
	s.appts = append(s.appts, appt)
	sortByStart(s.appts)
	s.nextID++

	if err := s.persistLocked(); err != nil {
		s.appts, s.nextID = prevAppts, prevID
		return models.Appointment{}, err
	}
	return appt, nil
}

// Cancel resolves sel against the active set and marks the single match
// cancelled. An exact ID wins; otherwise the filter must narrow the active
// appointments to exactly one record. Cancelled records are retained.
func (s *Store) Cancel(sel models.Selector) (models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	if sel.ID != 0 {
		for i, a := range s.appts {
			if a.ID == sel.ID && a.Status == models.StatusActive {
				idx = i
				break
			}
		}
		if idx < 0 {
			return models.Appointment{}, fmt.Errorf("store: cancel id %d: %w", sel.ID, apperr.ErrNotFound)
		}
	} else {
		var matches []int
		for i, a := range s.appts {
			if a.Status == models.StatusActive && matchesSelector(a, sel, s.cancelWindow) {
				matches = append(matches, i)
			}
		}
		switch len(matches) {
		case 0:
			return models.Appointment{}, fmt.Errorf("store: cancel: %w", apperr.ErrNotFound)
		case 1:
			idx = matches[0]
		default:
			return models.Appointment{}, fmt.Errorf("store: cancel matched %d appointments: %w", len(matches), apperr.ErrAmbiguous)
		}
	}

	prev := s.appts[idx]
	s.appts[idx].Status = models.StatusCancelled
	if err := s.persistLocked(); err != nil {
		s.appts[idx] = prev
		return models.Appointment{}, err
	}
	return s.appts[idx], nil
}

// List returns a snapshot of active appointments starting in [From, To),
// ordered by start ascending. Zero bounds are unbounded.
func (s *Store) List(f models.ListFilter) []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Appointment, 0)
	for _, a := range s.appts {
		if a.Status != models.StatusActive {
			continue
		}
		if !f.From.IsZero() && a.Start.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && !a.Start.Before(f.To) {
			continue
		}
		out = append(out, a)
	}
	return out
}

// FindConflicts returns all active appointments whose [start, end) interval
// overlaps the candidate interval. Half-open test: touching boundaries do
// not conflict.
func (s *Store) FindConflicts(start time.Time, d time.Duration) []models.Appointment {
	s.mu.Lock()
	defer s.mu.Unlock()

	end := start.Add(d)
	var out []models.Appointment
	for _, a := range s.appts {
		if a.Status != models.StatusActive {
			continue
		}
		if a.Start.Before(end) && start.Before(a.End()) {
			out = append(out, a)
		}
	}
	return out
}

// Reload re-reads the persisted document and replaces the in-memory state
// when its content differs from what this store last wrote or loaded.
// Returns whether the state changed.
func (s *Store) Reload() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.provider.Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("store: reload: %w", err)
	}
	if storage.Sum(data) == s.sum {
		return false, nil
	}
	if err := s.decode(data); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) decode(data []byte) error {
	var st persistedState
	if err := json.Unmarshal(data, &st); err != nil {
		return fmt.Errorf("store: decode state: %w", err)
	}
	s.appts = st.Appointments
	s.nextID = st.NextID
	if s.nextID < 1 {
		s.nextID = 1
	}
	sortByStart(s.appts)
	s.sum = storage.Sum(data)
	return nil
}

func (s *Store) persistLocked() error {
	data, err := json.MarshalIndent(persistedState{NextID: s.nextID, Appointments: s.appts}, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode state: %w", err)
	}
	if err := s.provider.Save(data); err != nil {
		return fmt.Errorf("store: persist (%v): %w", err, apperr.ErrPersistence)
	}
	s.sum = storage.Sum(data)
	return nil
}

// matchesSelector applies the cancel filter: fuzzy title match, exact
// participant match, and an approximate start-time window.
func matchesSelector(a models.Appointment, sel models.Selector, fallbackWindow time.Duration) bool {
	if t := strings.TrimSpace(sel.Title); t != "" {
		if !strings.Contains(strings.ToLower(a.Title), strings.ToLower(t)) {
			return false
		}
	}
	if p := strings.TrimSpace(sel.Participant); p != "" {
		if !strings.EqualFold(a.Participant, p) {
			return false
		}
	}
	if !sel.Around.IsZero() {
		w := sel.Window
		if w <= 0 {
			w = fallbackWindow
		}
		if w <= 0 {
			w = defaultCancelWindow
		}
		diff := a.Start.Sub(sel.Around)
		if diff < 0 {
			diff = -diff
		}
		if diff > w {
			return false
		}
	}
	return true
}

func sortByStart(appts []models.Appointment) {
	sort.SliceStable(appts, func(i, j int) bool {
		return appts[i].Start.Before(appts[j].Start)
	})
}

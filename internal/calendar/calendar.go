// Package calendar mirrors committed appointments into a calendar events
// file. The mirror is best-effort: the schedule store stays authoritative
// and sync failures never fail the originating command.
package calendar

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/starford/dagaz/internal/models"
	"github.com/starford/dagaz/internal/storage"
)

// Event is one calendar entry derived from an appointment.
type Event struct {
	ID        int       `json:"id"`
	Title     string    `json:"title"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Sync maintains the events file behind a storage provider.
type Sync struct {
	mu       sync.Mutex
	provider storage.Provider
}

// NewSync loads any existing events file eagerly so corruption surfaces at
// startup rather than on the first booking.
func NewSync(p storage.Provider) (*Sync, error) {
	s := &Sync{provider: p}
	if _, err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// AppointmentCreated appends an event for the appointment.
func (s *Sync) AppointmentCreated(appt models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return err
	}
	events = append(events, Event{
		ID:        appt.ID,
		Title:     appt.Title,
		Start:     appt.Start,
		End:       appt.End(),
		Status:    "confirmed",
		CreatedAt: appt.CreatedAt,
	})
	return s.save(events)
}

// AppointmentCancelled removes the event for the appointment. A missing
// event is not an error; the mirror may lag the store.
func (s *Sync) AppointmentCancelled(appt models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events, err := s.load()
	if err != nil {
		return err
	}
	kept := events[:0]
	for _, e := range events {
		if e.ID != appt.ID {
			kept = append(kept, e)
		}
	}
	return s.save(kept)
}

// Events returns a snapshot of the mirrored events.
func (s *Sync) Events() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Sync) load() ([]Event, error) {
	data, err := s.provider.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("calendar: load: %w", err)
	}
	var events []Event
	if err := json.Unmarshal(data, &events); err != nil {
		return nil, fmt.Errorf("calendar: decode events: %w", err)
	}
	return events, nil
}

func (s *Sync) save(events []Event) error {
	if events == nil {
		events = []Event{}
	}
	data, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("calendar: encode events: %w", err)
	}
	if err := s.provider.Save(data); err != nil {
		return fmt.Errorf("calendar: save: %w", err)
	}
	return nil
}

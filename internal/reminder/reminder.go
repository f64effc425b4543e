// Package reminder manages the saved-scheme reminders kept inside a profile.
//
// Every mutation runs inside a single store transaction, so it always starts
// from the latest persisted record rather than a cached copy. An empty
// session identifier turns every operation into a no-op.
package reminder

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/rcliao/welfare-desk/internal/model"
	"github.com/rcliao/welfare-desk/internal/store"
)

// DateLayout is how savedDate is rendered (dd/mm/yyyy, as shown in India).
const DateLayout = "02/01/2006"

// Service implements the reminder lifecycle over a profile store.
type Service struct {
	store store.ProfileStore

	mu      sync.Mutex
	entropy *rand.Rand
}

// New creates a reminder service.
func New(s store.ProfileStore) *Service {
	return &Service{
		store:   s,
		entropy: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (s *Service) newID(at time.Time) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(at), s.entropy).String()
}

// Add appends a reminder for schemeName. A nil documentsNeeded uses the
// default checklist. Existing reminders are never replaced, including ones
// with the same scheme name.
func (s *Service) Add(ctx context.Context, session, schemeName string, documentsNeeded []string, savedAt time.Time) (*model.Reminder, error) {
	if session == "" {
		return nil, nil
	}
	schemeName = strings.TrimSpace(schemeName)
	if schemeName == "" {
		return nil, &model.ValidationError{Subject: "reminder", Reasons: []string{"scheme name is required"}}
	}
	if documentsNeeded == nil {
		documentsNeeded = model.DefaultDocumentsNeeded
	}

	r := model.Reminder{
		ID:              s.newID(savedAt),
		SchemeName:      schemeName,
		DocumentsNeeded: append([]string(nil), documentsNeeded...),
		SavedDate:       savedAt.Format(DateLayout),
	}

	_, err := s.store.Update(ctx, session, func(p *model.Profile) error {
		p.Reminders = append(p.Reminders, r)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// Delete removes the reminder with the given id and returns the remaining
// sequence. An unknown id leaves the sequence unchanged, though it is still
// written back. Without a stored profile Delete does nothing.
func (s *Service) Delete(ctx context.Context, session, id string) ([]model.Reminder, error) {
	if session == "" {
		return nil, nil
	}
	p, err := s.store.UpdateExisting(ctx, session, func(p *model.Profile) error {
		kept := make([]model.Reminder, 0, len(p.Reminders))
		for _, r := range p.Reminders {
			if r.ID != id {
				kept = append(kept, r)
			}
		}
		p.Reminders = kept
		return nil
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p.Reminders, nil
}

// List returns the stored reminders in saved order. A session without a
// profile has none.
func (s *Service) List(ctx context.Context, session string) ([]model.Reminder, error) {
	if session == "" {
		return nil, nil
	}
	p, err := s.store.Get(ctx, session)
	if errors.Is(err, store.ErrNotFound) {
		return []model.Reminder{}, nil
	}
	if err != nil {
		return nil, err
	}
	return p.Reminders, nil
}

// IsSaved reports whether any reminder carries exactly this scheme name. It is
// advisory: Add does not enforce it.
func IsSaved(reminders []model.Reminder, schemeName string) bool {
	for _, r := range reminders {
		if r.SchemeName == schemeName {
			return true
		}
	}
	return false
}

// SavedNames returns the set of scheme names that already have a reminder.
func SavedNames(reminders []model.Reminder) map[string]bool {
	names := make(map[string]bool, len(reminders))
	for _, r := range reminders {
		names[r.SchemeName] = true
	}
	return names
}

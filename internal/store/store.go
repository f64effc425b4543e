// Package store provides the profile store interface and SQLite implementation.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcliao/welfare-desk/internal/model"
)

var (
	// ErrNotFound is returned when no usable profile is stored for a session.
	ErrNotFound = errors.New("profile not found")
	// ErrNoSession is returned when an operation is called without a session id.
	ErrNoSession = errors.New("no session identifier")
)

const (
	profilePrefix     = "user_profile_"
	currentSessionKey = "current_session"
)

// ProfileKey is the record key holding a session's profile.
func ProfileKey(session string) string {
	return profilePrefix + session
}

// StorageError wraps a failure of the persistence medium.
type StorageError struct {
	Op  string
	Key string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// UpdateFunc mutates a profile inside Update. Returning an error aborts the
// update and nothing is written.
type UpdateFunc func(p *model.Profile) error

// ProfileStore defines keyed profile persistence plus the current-session pointer.
type ProfileStore interface {
	// Get returns the stored profile. Absent or undecodable records yield ErrNotFound.
	Get(ctx context.Context, session string) (*model.Profile, error)

	// Set overwrites the stored profile.
	Set(ctx context.Context, session string, p *model.Profile) error

	// Update reads the latest stored profile, applies fn and writes the result
	// atomically. A missing record is synthesized as an empty profile.
	Update(ctx context.Context, session string, fn UpdateFunc) (*model.Profile, error)

	// UpdateExisting is Update without the synthesized record: when nothing
	// usable is stored it returns ErrNotFound and writes nothing.
	UpdateExisting(ctx context.Context, session string, fn UpdateFunc) (*model.Profile, error)

	// Delete removes the stored profile.
	Delete(ctx context.Context, session string) error

	// CurrentSession returns the session pointer, or "" if nobody is signed in.
	CurrentSession(ctx context.Context) (string, error)

	// SetCurrentSession points the current session at the given id.
	SetCurrentSession(ctx context.Context, session string) error

	// ClearCurrentSession removes the session pointer.
	ClearCurrentSession(ctx context.Context) error

	// Close closes the store.
	Close() error
}

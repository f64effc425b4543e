package store

import (
	"context"
	"os"
)

// Stats holds database statistics.
type Stats struct {
	DBPath         string `json:"db_path"`
	DBSizeBytes    int64  `json:"db_size_bytes"`
	Profiles       int    `json:"profiles"`
	Unreadable     int    `json:"unreadable"`
	Reminders      int    `json:"reminders"`
	Applications   int    `json:"applications"`
	CurrentSession string `json:"current_session,omitempty"`
}

// Stats returns database statistics. Unreadable profiles are counted but
// otherwise skipped.
func (s *SQLiteStore) Stats(ctx context.Context, dbPath string) (*Stats, error) {
	st := &Stats{DBPath: dbPath}

	// DB file size
	if info, err := os.Stat(dbPath); err == nil {
		st.DBSizeBytes = info.Size()
	}

	sessions, err := s.List(ctx)
	if err != nil {
		return st, err
	}
	for _, info := range sessions {
		p, err := s.Get(ctx, info.Session)
		if err != nil {
			st.Unreadable++
			continue
		}
		st.Profiles++
		st.Reminders += len(p.Reminders)
		st.Applications += len(p.ActiveApplications)
	}

	st.CurrentSession, _ = s.CurrentSession(ctx)
	return st, nil
}

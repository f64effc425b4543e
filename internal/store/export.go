package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rcliao/welfare-desk/internal/model"
)

// Record is one raw stored entry, as produced by ExportAll.
type Record struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	UpdatedAt string          `json:"updated_at,omitempty"`
}

// ExportAll returns every stored profile record ordered by key. The session
// pointer is not exported.
func (s *SQLiteStore) ExportAll(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value, updated_at FROM records WHERE key != ? ORDER BY key`, currentSessionKey)
	if err != nil {
		return nil, &StorageError{Op: "export", Err: err}
	}
	defer rows.Close()

	records := []Record{}
	for rows.Next() {
		var r Record
		var value string
		if err := rows.Scan(&r.Key, &value, &r.UpdatedAt); err != nil {
			return nil, err
		}
		if !json.Valid([]byte(value)) {
			continue
		}
		r.Value = json.RawMessage(value)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Import writes exported profile records back, overwriting existing ones.
// Records that fail profile validation are rejected.
func (s *SQLiteStore) Import(ctx context.Context, records []Record) (int, error) {
	imported := 0
	for _, r := range records {
		if !strings.HasPrefix(r.Key, profilePrefix) {
			return imported, fmt.Errorf("import %s: not a profile key", r.Key)
		}
		if _, err := model.DecodeProfile(r.Value); err != nil {
			return imported, fmt.Errorf("import %s: %w", r.Key, err)
		}
		if err := writeValue(ctx, s.db, r.Key, string(r.Value)); err != nil {
			return imported, err
		}
		imported++
	}
	return imported, nil
}

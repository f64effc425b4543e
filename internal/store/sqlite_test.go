package store

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/rcliao/welfare-desk/internal/model"
)

func newTestStore(t *testing.T) (*SQLiteStore, string) {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	s, err := NewSQLiteStore(dbPath, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s, dbPath
}

func writeRaw(t *testing.T, s *SQLiteStore, key, value string) {
	t.Helper()
	if err := writeValue(context.Background(), s.db, key, value); err != nil {
		t.Fatalf("write raw: %v", err)
	}
}

func TestSetAndGet(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	err := s.Set(ctx, "9876543210", &model.Profile{
		Name:  "Meena",
		Phone: "9876543210",
		ActiveApplications: []model.Application{
			{SchemeName: "Old Age Pension", RefNumber: "TN-1", Status: model.StatusVAO},
		},
	})
	if err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := s.Get(ctx, "9876543210")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Meena" {
		t.Errorf("expected 'Meena', got %q", got.Name)
	}
	if len(got.ActiveApplications) != 1 || got.ActiveApplications[0].Status != model.StatusVAO {
		t.Errorf("unexpected applications: %+v", got.ActiveApplications)
	}
	if got.Reminders == nil {
		t.Error("expected empty, non-nil reminders")
	}
}

func TestGetMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Get(context.Background(), "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestNoSession(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	if _, err := s.Get(ctx, ""); !errors.Is(err, ErrNoSession) {
		t.Errorf("get: expected ErrNoSession, got %v", err)
	}
	if err := s.Set(ctx, "", &model.Profile{}); !errors.Is(err, ErrNoSession) {
		t.Errorf("set: expected ErrNoSession, got %v", err)
	}
	called := false
	_, err := s.Update(ctx, "", func(p *model.Profile) error { called = true; return nil })
	if !errors.Is(err, ErrNoSession) {
		t.Errorf("update: expected ErrNoSession, got %v", err)
	}
	if called {
		t.Error("update fn must not run without a session")
	}
}

func TestCorruptRecordReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	writeRaw(t, s, ProfileKey("111"), `{"name": "broken"`)
	writeRaw(t, s, ProfileKey("222"), `{"reminders": "oops"}`)

	for _, session := range []string{"111", "222"} {
		if _, err := s.Get(ctx, session); !errors.Is(err, ErrNotFound) {
			t.Errorf("%s: expected ErrNotFound, got %v", session, err)
		}
	}

	// Update recovers by starting from an empty profile.
	p, err := s.Update(ctx, "111", func(p *model.Profile) error {
		p.Name = "fixed"
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Phone != "111" || p.Name != "fixed" {
		t.Errorf("unexpected profile %+v", p)
	}
	got, err := s.Get(ctx, "111")
	if err != nil {
		t.Fatalf("get after repair: %v", err)
	}
	if got.Name != "fixed" {
		t.Errorf("expected 'fixed', got %q", got.Name)
	}
}

func TestUpdateSynthesizesProfile(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	p, err := s.Update(ctx, "555", func(p *model.Profile) error {
		if p.Reminders == nil || len(p.Reminders) != 0 {
			t.Errorf("expected empty reminders, got %v", p.Reminders)
		}
		p.Reminders = append(p.Reminders, model.Reminder{ID: "r1", SchemeName: "X"})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(p.Reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(p.Reminders))
	}

	got, _ := s.Get(ctx, "555")
	if len(got.Reminders) != 1 || got.Reminders[0].ID != "r1" {
		t.Errorf("reminder not persisted: %+v", got.Reminders)
	}
}

func TestUpdateReadsLatestState(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Set(ctx, "777", &model.Profile{Name: "A"})
	// Another writer changes the record between our reads.
	s.Set(ctx, "777", &model.Profile{Name: "B", Reminders: []model.Reminder{{ID: "x", SchemeName: "X"}}})

	p, err := s.Update(ctx, "777", func(p *model.Profile) error {
		p.Reminders = append(p.Reminders, model.Reminder{ID: "y", SchemeName: "Y"})
		return nil
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.Name != "B" || len(p.Reminders) != 2 {
		t.Errorf("update did not start from latest state: %+v", p)
	}
}

func TestUpdateAbortWritesNothing(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Set(ctx, "888", &model.Profile{Name: "before"})
	boom := errors.New("boom")
	_, err := s.Update(ctx, "888", func(p *model.Profile) error {
		p.Name = "after"
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	got, _ := s.Get(ctx, "888")
	if got.Name != "before" {
		t.Errorf("expected unchanged name, got %q", got.Name)
	}

	_, err = s.Update(ctx, "999", func(p *model.Profile) error { return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if _, err := s.Get(ctx, "999"); !errors.Is(err, ErrNotFound) {
		t.Errorf("aborted update must not create a record, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Set(ctx, "123", &model.Profile{Name: "x"})
	if err := s.Delete(ctx, "123"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.Get(ctx, "123"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestCurrentSession(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	cur, err := s.CurrentSession(ctx)
	if err != nil || cur != "" {
		t.Fatalf("expected no session, got %q, %v", cur, err)
	}

	if err := s.SetCurrentSession(ctx, "9840012345"); err != nil {
		t.Fatalf("set session: %v", err)
	}
	cur, _ = s.CurrentSession(ctx)
	if cur != "9840012345" {
		t.Errorf("expected '9840012345', got %q", cur)
	}

	if err := s.ClearCurrentSession(ctx); err != nil {
		t.Fatalf("clear session: %v", err)
	}
	cur, _ = s.CurrentSession(ctx)
	if cur != "" {
		t.Errorf("expected cleared session, got %q", cur)
	}
}

func TestListSkipsPointer(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	s.Set(ctx, "a", &model.Profile{})
	s.Set(ctx, "b", &model.Profile{})
	s.SetCurrentSession(ctx, "a")

	sessions, err := s.List(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	for _, info := range sessions {
		if info.Session != "a" && info.Session != "b" {
			t.Errorf("unexpected session %q", info.Session)
		}
	}
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src, _ := newTestStore(t)

	src.Set(ctx, "1", &model.Profile{Name: "One", Reminders: []model.Reminder{{ID: "r", SchemeName: "S"}}})
	src.Set(ctx, "2", &model.Profile{Name: "Two"})
	src.SetCurrentSession(ctx, "1")

	records, err := src.ExportAll(ctx)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}

	b, _ := json.Marshal(records)
	var decoded []Record
	if err := json.Unmarshal(b, &decoded); err != nil {
		t.Fatalf("decode export: %v", err)
	}

	dst, _ := newTestStore(t)
	n, err := dst.Import(ctx, decoded)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Errorf("expected 2 imported, got %d", n)
	}
	got, err := dst.Get(ctx, "1")
	if err != nil {
		t.Fatalf("get imported: %v", err)
	}
	if got.Name != "One" || len(got.Reminders) != 1 {
		t.Errorf("unexpected imported profile %+v", got)
	}
}

func TestImportRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Import(ctx, []Record{{Key: ProfileKey("x"), Value: json.RawMessage(`{"reminders": 1}`)}})
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Errorf("expected ValidationError, got %v", err)
	}

	_, err = s.Import(ctx, []Record{{Key: "current_session", Value: json.RawMessage(`"x"`)}})
	if err == nil {
		t.Error("expected error for non-profile key")
	}
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s, dbPath := newTestStore(t)

	s.Set(ctx, "1", &model.Profile{
		Reminders:          []model.Reminder{{ID: "a", SchemeName: "A"}, {ID: "b", SchemeName: "B"}},
		ActiveApplications: []model.Application{{SchemeName: "P", Status: model.StatusRI}},
	})
	writeRaw(t, s, ProfileKey("2"), `not json`)
	s.SetCurrentSession(ctx, "1")

	st, err := s.Stats(ctx, dbPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Profiles != 1 || st.Unreadable != 1 {
		t.Errorf("expected 1 profile and 1 unreadable, got %d/%d", st.Profiles, st.Unreadable)
	}
	if st.Reminders != 2 || st.Applications != 1 {
		t.Errorf("expected 2 reminders and 1 application, got %d/%d", st.Reminders, st.Applications)
	}
	if st.CurrentSession != "1" {
		t.Errorf("expected current session '1', got %q", st.CurrentSession)
	}
	if st.DBPath != dbPath {
		t.Errorf("expected db path %q, got %q", dbPath, st.DBPath)
	}
}

func TestUpdateExistingSkipsMissing(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	called := false
	_, err := s.UpdateExisting(ctx, "404", func(p *model.Profile) error { called = true; return nil })
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if called {
		t.Error("fn must not run without a stored profile")
	}
	if _, err := s.Get(ctx, "404"); !errors.Is(err, ErrNotFound) {
		t.Errorf("UpdateExisting must not create a record, got %v", err)
	}

	writeRaw(t, s, ProfileKey("405"), `{"reminders": "oops"}`)
	if _, err := s.UpdateExisting(ctx, "405", func(p *model.Profile) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Errorf("unreadable record: expected ErrNotFound, got %v", err)
	}

	s.Set(ctx, "406", &model.Profile{Name: "kept"})
	p, err := s.UpdateExisting(ctx, "406", func(p *model.Profile) error {
		p.Category = "BC"
		return nil
	})
	if err != nil {
		t.Fatalf("update existing: %v", err)
	}
	if p.Name != "kept" || p.Category != "BC" {
		t.Errorf("unexpected profile %+v", p)
	}
}

func TestUpdateKeepsUnmodelledFields(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestStore(t)

	_, err := s.Import(ctx, []Record{{
		Key:   ProfileKey("321"),
		Value: json.RawMessage(`{"name":"Meena","gender":"female","tempAddress":{"district":"Madurai"},"documents":{"incomeCert":{"name":"a.jpg"}},"reminders":[]}`),
	}})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if _, err := s.Update(ctx, "321", func(p *model.Profile) error {
		p.Category = "MBC"
		return nil
	}); err != nil {
		t.Fatalf("update: %v", err)
	}

	raw, err := readValue(ctx, s.db, ProfileKey("321"))
	if err != nil {
		t.Fatalf("read raw: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal([]byte(raw), &got); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	if got["gender"] != "female" {
		t.Errorf("gender lost: %s", raw)
	}
	if addr, ok := got["tempAddress"].(map[string]any); !ok || addr["district"] != "Madurai" {
		t.Errorf("tempAddress lost: %s", raw)
	}
	docs, _ := got["documents"].(map[string]any)
	if inc, ok := docs["incomeCert"].(map[string]any); !ok || inc["name"] != "a.jpg" {
		t.Errorf("document marker rewritten: %s", raw)
	}
	if got["category"] != "MBC" {
		t.Errorf("update not applied: %s", raw)
	}
}

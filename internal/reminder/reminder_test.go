package reminder

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/rcliao/welfare-desk/internal/model"
	"github.com/rcliao/welfare-desk/internal/store"
)

const session = "9876543210"

func newTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	s, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return New(s), s
}

var jan1 = time.Date(2024, time.January, 1, 10, 0, 0, 0, time.UTC)

func TestAddToEmptyProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	r, err := svc.Add(ctx, session, "Old Age Pension", nil, jan1)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "Old Age Pension", r.SchemeName)
	assert.Equal(t, "01/01/2024", r.SavedDate)
	assert.Equal(t, model.DefaultDocumentsNeeded, r.DocumentsNeeded)

	list, err := svc.List(ctx, session)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, *r, list[0])
}

func TestAddPreservesExisting(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	require.NoError(t, st.Set(ctx, session, &model.Profile{
		Name: "Meena",
		Reminders: []model.Reminder{
			{ID: "a", SchemeName: "X", DocumentsNeeded: []string{"Aadhar Card"}, SavedDate: "02/02/2023"},
			{ID: "b", SchemeName: "Y", DocumentsNeeded: []string{}, SavedDate: "03/02/2023"},
		},
	}))
	before, err := svc.List(ctx, session)
	require.NoError(t, err)

	r, err := svc.Add(ctx, session, "X", []string{"Ration"}, jan1)
	require.NoError(t, err)

	after, err := svc.List(ctx, session)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, before, after[:len(before)])
	assert.Equal(t, r.ID, after[len(after)-1].ID)
	assert.NotEqual(t, "a", r.ID)
	assert.NotEqual(t, "b", r.ID)

	p, err := st.Get(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, "Meena", p.Name, "other profile fields survive")
}

func TestAddDeleteRoundTrip(t *testing.T) {
	ctx := context.Background()
	starts := map[string][]model.Reminder{
		"empty": {},
		"populated": {
			{ID: "a", SchemeName: "X", DocumentsNeeded: []string{"d"}, SavedDate: "01/01/2023"},
			{ID: "b", SchemeName: "Y", DocumentsNeeded: []string{}, SavedDate: "01/01/2023"},
		},
	}
	for name, start := range starts {
		t.Run(name, func(t *testing.T) {
			svc, st := newTestService(t)
			require.NoError(t, st.Set(ctx, session, &model.Profile{Reminders: start}))

			r, err := svc.Add(ctx, session, "Pudhumai Penn", nil, jan1)
			require.NoError(t, err)

			got, err := svc.Delete(ctx, session, r.ID)
			require.NoError(t, err)
			assert.Equal(t, start, got)
		})
	}
}

func TestDeleteByID(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	require.NoError(t, st.Set(ctx, session, &model.Profile{Reminders: []model.Reminder{
		{ID: "a", SchemeName: "X", DocumentsNeeded: []string{}},
		{ID: "b", SchemeName: "Y", DocumentsNeeded: []string{}},
	}}))

	got, err := svc.Delete(ctx, session, "a")
	require.NoError(t, err)
	assert.Equal(t, []model.Reminder{{ID: "b", SchemeName: "Y", DocumentsNeeded: []string{}}}, got)

	stored, err := svc.List(ctx, session)
	require.NoError(t, err)
	assert.Equal(t, got, stored)
}

func TestDeleteUnknownIDIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	start := []model.Reminder{{ID: "a", SchemeName: "X", DocumentsNeeded: []string{}}}
	require.NoError(t, st.Set(ctx, session, &model.Profile{Reminders: start}))

	got, err := svc.Delete(ctx, session, "missing")
	require.NoError(t, err)
	assert.Equal(t, start, got)
}

func TestDeleteWithoutProfile(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	got, err := svc.Delete(ctx, session, "a")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = st.Get(ctx, session)
	assert.ErrorIs(t, err, store.ErrNotFound, "delete must not create a profile")
}

func TestNoSessionIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	r, err := svc.Add(ctx, "", "X", nil, jan1)
	assert.NoError(t, err)
	assert.Nil(t, r)

	got, err := svc.Delete(ctx, "", "a")
	assert.NoError(t, err)
	assert.Nil(t, got)

	list, err := svc.List(ctx, "")
	assert.NoError(t, err)
	assert.Nil(t, list)

	sessions, err := st.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestAddRequiresSchemeName(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Add(context.Background(), session, "   ", nil, jan1)
	var verr *model.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestIDsAreDistinct(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		r, err := svc.Add(ctx, session, "Scheme", nil, jan1)
		require.NoError(t, err)
		assert.False(t, seen[r.ID], "duplicate id %s", r.ID)
		seen[r.ID] = true
	}
}

func TestIsSaved(t *testing.T) {
	rs := []model.Reminder{{ID: "a", SchemeName: "Old Age Pension"}, {ID: "b", SchemeName: "Old Age Pension"}}

	assert.True(t, IsSaved(rs, "Old Age Pension"))
	assert.False(t, IsSaved(rs, "old age pension"))
	assert.False(t, IsSaved(nil, "Old Age Pension"))
	assert.Equal(t, map[string]bool{"Old Age Pension": true}, SavedNames(rs))
}

func TestDocumentsNeededIsCopied(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	docs := []string{"Aadhar Card"}
	r, err := svc.Add(ctx, session, "X", docs, jan1)
	require.NoError(t, err)
	docs[0] = "changed"
	assert.Equal(t, "Aadhar Card", r.DocumentsNeeded[0])
}

func TestAddKeepsUnmodelledFields(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)

	_, err := st.Import(ctx, []store.Record{{
		Key:   store.ProfileKey(session),
		Value: json.RawMessage(`{"name":"Meena","gender":"female","tempAddress":{"district":"Madurai"},"reminders":[]}`),
	}})
	require.NoError(t, err)

	r, err := svc.Add(ctx, session, "Old Age Pension", nil, jan1)
	require.NoError(t, err)

	records, err := st.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "female", got["gender"])
	assert.Equal(t, map[string]any{"district": "Madurai"}, got["tempAddress"])
	assert.Equal(t, "Meena", got["name"])

	_, err = svc.Delete(ctx, session, r.ID)
	require.NoError(t, err)
	records, err = st.ExportAll(ctx)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(records[0].Value, &got))
	assert.Equal(t, "female", got["gender"])
	assert.Equal(t, []any{}, got["reminders"])
}

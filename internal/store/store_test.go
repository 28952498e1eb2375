package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/schema"
)

func TestMemorySaveLoadDelete(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	mem.withClock(func() time.Time { return first })

	saved, err := mem.Save(ctx, Record{Module: "lab_tests", Form: "test", Values: map[string]any{"name": "CBC", "price": 450}})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, saved.ID)
	assert.Equal(t, first, saved.CreatedAt)
	assert.Equal(t, 450.0, saved.Values["price"], "values are normalised through JSON")

	later := first.Add(time.Hour)
	mem.withClock(func() time.Time { return later })
	saved.Values["price"] = 500
	updated, err := mem.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, first, updated.CreatedAt)
	assert.Equal(t, later, updated.UpdatedAt)

	loaded, err := mem.Load(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "CBC", "price": 500.0}, loaded.Values)

	loaded.Values["name"] = "mutated"
	again, err := mem.Load(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "CBC", again.Values["name"], "loaded values must be copies")

	require.NoError(t, mem.Delete(ctx, saved.ID))
	_, err = mem.Load(ctx, saved.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, mem.Delete(ctx, saved.ID), ErrNotFound)
}

func TestMemoryListOrdersByUpdate(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Minute)
		mem.withClock(func() time.Time { return at })
		rec, err := mem.Save(ctx, Record{Module: "scans", Form: "scan", Values: map[string]any{"n": i}})
		require.NoError(t, err)
		ids = append(ids, rec.ID)
	}
	_, err := mem.Save(ctx, Record{Module: "scans", Form: "other"})
	require.NoError(t, err)

	list, err := mem.List(ctx, "scans", "scan")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, []uuid.UUID{list[0].ID, list[1].ID, list[2].ID})
}

func TestSaveFuncBindsEngine(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	s := &schema.Schema{ID: "lab_tests.test", Sections: []schema.Section{{ID: "main", Fields: []schema.Field{
		{Name: "name", Type: schema.KindText},
	}}}}

	rec := &Record{Module: "lab_tests", Form: "test"}
	form, err := engine.New(s, nil, engine.WithSave(SaveFunc(mem, rec)))
	require.NoError(t, err)

	require.NoError(t, form.Change("name", "CBC"))
	result, err := form.Submit(ctx)
	require.NoError(t, err)
	require.True(t, result.OK())
	require.NotEqual(t, uuid.Nil, rec.ID)
	firstID := rec.ID

	require.NoError(t, form.Change("name", "CBC panel"))
	_, err = form.Submit(ctx)
	require.NoError(t, err)
	assert.Equal(t, firstID, rec.ID, "second submit updates the same record")

	loaded, err := mem.Load(ctx, firstID)
	require.NoError(t, err)
	assert.Equal(t, "CBC panel", loaded.Values["name"])

	edit, err := engine.New(s, loaded.Values,
		engine.WithMode(engine.ModeEdit),
		engine.WithSave(SaveFunc(mem, &loaded)),
		engine.WithDelete(DeleteFunc(mem, loaded.ID)),
	)
	require.NoError(t, err)
	require.NoError(t, edit.RequestDelete())
	deleted, err := edit.ConfirmDelete(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.OutcomeDeleted, deleted.Outcome)
	_, err = mem.Load(ctx, firstID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveFuncSurfacesStoreErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &Record{Module: "m", Form: "f"}
	err := SaveFunc(NewMemory(), rec)(ctx, map[string]any{"a": 1})
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, uuid.Nil, rec.ID, "failed save leaves the record untouched")
}

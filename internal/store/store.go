// Package store persists submitted form values. Postgres keeps them as JSONB
// rows; Memory backs tests and the preview server when no database is set.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formengine/pkg/engine"
)

// ErrNotFound reports a record id with no stored row.
var ErrNotFound = errors.New("store: record not found")

// Record is one stored value bag.
type Record struct {
	ID        uuid.UUID      `json:"id"`
	Module    string         `json:"module"`
	Form      string         `json:"form"`
	Values    map[string]any `json:"values"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// Store loads, saves and deletes records.
type Store interface {
	Load(ctx context.Context, id uuid.UUID) (Record, error)
	// Save inserts rec, assigning an id when rec.ID is zero, or replaces the
	// values of an existing record. It returns the stored record.
	Save(ctx context.Context, rec Record) (Record, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, module, form string) ([]Record, error)
}

// SaveFunc binds rec to an engine save callback. The first save of a new
// record assigns rec.ID so later submits update the same row. The engine
// never runs two saves for one form at once.
func SaveFunc(s Store, rec *Record) engine.SaveFunc {
	return func(ctx context.Context, values map[string]any) error {
		next := *rec
		next.Values = values
		saved, err := s.Save(ctx, next)
		if err != nil {
			return err
		}
		*rec = saved
		return nil
	}
}

// DeleteFunc binds the record id to an engine delete callback.
func DeleteFunc(s Store, id uuid.UUID) engine.DeleteFunc {
	return func(ctx context.Context) error {
		return s.Delete(ctx, id)
	}
}

// encodeValues normalises values through JSON, the representation every
// store keeps.
func encodeValues(values map[string]any) ([]byte, error) {
	if values == nil {
		values = map[string]any{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("store: encode values: %w", err)
	}
	return data, nil
}

func decodeValues(data []byte) (map[string]any, error) {
	values := map[string]any{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("store: decode values: %w", err)
	}
	return values, nil
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.RWMutex
	records map[uuid.UUID]memoryRow
	now     func() time.Time
}

type memoryRow struct {
	rec  Record
	data []byte
}

var _ Store = (*Memory)(nil)

// NewMemory constructs an empty Memory store.
func NewMemory() *Memory {
	return &Memory{records: make(map[uuid.UUID]memoryRow), now: time.Now}
}

func (m *Memory) withClock(now func() time.Time) {
	m.now = now
}

// Load returns a copy of the record.
func (m *Memory) Load(ctx context.Context, id uuid.UUID) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	m.mu.RLock()
	row, ok := m.records[id]
	m.mu.RUnlock()
	if !ok {
		return Record{}, ErrNotFound
	}
	return row.record()
}

// Save upserts rec.
func (m *Memory) Save(ctx context.Context, rec Record) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	data, err := encodeValues(rec.Values)
	if err != nil {
		return Record{}, err
	}

	m.mu.Lock()
	now := m.now().UTC()
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	rec.UpdatedAt = now
	if existing, ok := m.records[rec.ID]; ok {
		rec.CreatedAt = existing.rec.CreatedAt
	} else {
		rec.CreatedAt = now
	}
	rec.Values = nil
	m.records[rec.ID] = memoryRow{rec: rec, data: data}
	row := m.records[rec.ID]
	m.mu.Unlock()

	return row.record()
}

// Delete removes the record.
func (m *Memory) Delete(ctx context.Context, id uuid.UUID) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[id]; !ok {
		return ErrNotFound
	}
	delete(m.records, id)
	return nil
}

// List returns records of module/form, most recently updated first.
func (m *Memory) List(ctx context.Context, module, form string) ([]Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	rows := make([]memoryRow, 0, len(m.records))
	for _, row := range m.records {
		if row.rec.Module == module && row.rec.Form == form {
			rows = append(rows, row)
		}
	}
	m.mu.RUnlock()

	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	sortRecent(out)
	return out, nil
}

func (r memoryRow) record() (Record, error) {
	values, err := decodeValues(r.data)
	if err != nil {
		return Record{}, err
	}
	rec := r.rec
	rec.Values = values
	return rec, nil
}

func sortRecent(records []Record) {
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

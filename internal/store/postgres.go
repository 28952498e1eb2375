package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// DefaultTable is the table Postgres stores records in.
const DefaultTable = "form_records"

type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres stores records as JSONB rows.
type Postgres struct {
	pool   pool
	table  string
	now    func() time.Time
	logger *zap.Logger
	close  func()
}

var _ Store = (*Postgres)(nil)

// PostgresOption configures a Postgres store.
type PostgresOption func(*Postgres)

// WithTable overrides DefaultTable.
func WithTable(name string) PostgresOption {
	return func(p *Postgres) {
		if name != "" {
			p.table = name
		}
	}
}

// WithLogger routes store logs to logger.
func WithLogger(logger *zap.Logger) PostgresOption {
	return func(p *Postgres) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPostgres wraps an existing pool. The caller owns the pool.
func NewPostgres(db pool, options ...PostgresOption) *Postgres {
	p := &Postgres{
		pool:   db,
		table:  DefaultTable,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

// OpenPostgres connects to dsn, pings the server and returns a store that
// owns the pool. Call Close when done.
func OpenPostgres(ctx context.Context, dsn string, options ...PostgresOption) (*Postgres, error) {
	if dsn == "" {
		return nil, errors.New("store: empty dsn")
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("store: parse postgres dsn: %w", err)
	}
	db, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: postgres ping failed: %w", err)
	}
	p := NewPostgres(db, options...)
	p.close = db.Close
	return p, nil
}

// Close releases the pool when the store opened it.
func (p *Postgres) Close() {
	if p.close != nil {
		p.close()
	}
}

func (p *Postgres) withClock(now func() time.Time) {
	p.now = now
}

func (p *Postgres) ident() string {
	return pgx.Identifier{p.table}.Sanitize()
}

// Migrate creates the records table when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	table := p.ident()
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id uuid PRIMARY KEY,
	module text NOT NULL,
	form text NOT NULL,
	data jsonb NOT NULL,
	created_at timestamptz NOT NULL,
	updated_at timestamptz NOT NULL
)`, table)
	if _, err := p.pool.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("store: migrate: %w", err)
	}
	index := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s ON %s (module, form, updated_at DESC)`,
		pgx.Identifier{p.table + "_form_idx"}.Sanitize(), table)
	if _, err := p.pool.Exec(ctx, index); err != nil {
		return fmt.Errorf("store: migrate index: %w", err)
	}
	return nil
}

// Load reads one record.
func (p *Postgres) Load(ctx context.Context, id uuid.UUID) (Record, error) {
	query := fmt.Sprintf(`SELECT module, form, data, created_at, updated_at FROM %s WHERE id = $1`, p.ident())
	var (
		rec  = Record{ID: id}
		data []byte
	)
	err := p.pool.QueryRow(ctx, query, id).Scan(&rec.Module, &rec.Form, &data, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("store: load %s: %w", id, err)
	}
	if rec.Values, err = decodeValues(data); err != nil {
		return Record{}, err
	}
	return rec, nil
}

// Save upserts rec and returns it with timestamps from the row.
func (p *Postgres) Save(ctx context.Context, rec Record) (Record, error) {
	data, err := encodeValues(rec.Values)
	if err != nil {
		return Record{}, err
	}
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	now := p.now().UTC()
	query := fmt.Sprintf(`INSERT INTO %s (id, module, form, data, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $5)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
RETURNING created_at, updated_at`, p.ident())

	if err := p.pool.QueryRow(ctx, query, rec.ID, rec.Module, rec.Form, data, now).Scan(&rec.CreatedAt, &rec.UpdatedAt); err != nil {
		return Record{}, fmt.Errorf("store: save %s: %w", rec.ID, err)
	}
	if rec.Values, err = decodeValues(data); err != nil {
		return Record{}, err
	}
	p.logger.Debug("record saved",
		zap.String("id", rec.ID.String()),
		zap.String("module", rec.Module),
		zap.String("form", rec.Form),
	)
	return rec, nil
}

// Delete removes one record.
func (p *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, p.ident())
	tag, err := p.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: delete %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns records of module/form, most recently updated first.
func (p *Postgres) List(ctx context.Context, module, form string) ([]Record, error) {
	query := fmt.Sprintf(`SELECT id, data, created_at, updated_at FROM %s WHERE module = $1 AND form = $2 ORDER BY updated_at DESC, id`, p.ident())
	rows, err := p.pool.Query(ctx, query, module, form)
	if err != nil {
		return nil, fmt.Errorf("store: list %s/%s: %w", module, form, err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec := Record{Module: module, Form: form}
		var data []byte
		if err := rows.Scan(&rec.ID, &data, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("store: scan record: %w", err)
		}
		if rec.Values, err = decodeValues(data); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list %s/%s: %w", module, form, err)
	}
	return out, nil
}

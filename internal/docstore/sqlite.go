package docstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Relay forwards committed snapshots to other instances sharing the
// database. See RedisRelay.
type Relay interface {
	Forward(ctx context.Context, snap Snapshot) error
}

// SQLiteStore keeps documents in the rooms table as JSONB and implements
// transactions as an optimistic compare-and-swap on the version column, so
// it stays correct when several processes share the database file.
type SQLiteStore struct {
	db      *sql.DB
	broker  *Broker
	relay   Relay
	logger  *slog.Logger
	now     func() time.Time
	retries int
}

type Option func(*SQLiteStore)

func WithLogger(l *slog.Logger) Option { return func(s *SQLiteStore) { s.logger = l } }

func WithRelay(r Relay) Option { return func(s *SQLiteStore) { s.relay = r } }

func WithClock(now func() time.Time) Option { return func(s *SQLiteStore) { s.now = now } }

// WithRetries bounds the compare-and-swap attempts of Transact.
func WithRetries(n int) Option { return func(s *SQLiteStore) { s.retries = n } }

// NewSQLiteStore expects the rooms table to exist (see migrations.Run).
func NewSQLiteStore(db *sql.DB, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{
		db:      db,
		broker:  NewBroker(),
		logger:  slog.Default(),
		now:     time.Now,
		retries: 32,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Broker exposes the local fan-out so a relay can inject remote snapshots.
func (s *SQLiteStore) Broker() *Broker { return s.broker }

// Ping verifies the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) nowMillis() int64 { return s.now().UnixMilli() }

func (s *SQLiteStore) Get(ctx context.Context, key string) (Snapshot, error) {
	var (
		version int64
		data    string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, json(data) FROM rooms WHERE id = ?`, key,
	).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{Key: key}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading %s: %w", key, err)
	}
	return decodeSnapshot(key, version, data)
}

// Create inserts doc unless key already exists, stamping createdAt with the
// store clock. It reports whether this call created the document.
func (s *SQLiteStore) Create(ctx context.Context, key string, doc Document) (bool, error) {
	now := s.nowMillis()
	doc = cloneDocument(doc)
	doc["createdAt"] = json.RawMessage(fmt.Sprint(now))

	data, err := json.Marshal(doc)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO rooms (id, version, created_at, updated_at, data)
		 VALUES (?, 1, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO NOTHING`,
		key, now, now, string(data),
	)
	if err != nil {
		return false, fmt.Errorf("creating %s: %w", key, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return false, nil
	}
	s.publish(ctx, Snapshot{Key: key, Version: 1, Doc: doc})
	return true, nil
}

// Set replaces the whole document, creating it if needed. createdAt is kept
// from the stored row when the document already exists.
func (s *SQLiteStore) Set(ctx context.Context, key string, doc Document) error {
	now := s.nowMillis()
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	var (
		version int64
		out     string
	)
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO rooms (id, version, created_at, updated_at, data)
		 VALUES (?, 1, ?, ?, jsonb(?))
		 ON CONFLICT(id) DO UPDATE SET
			version = rooms.version + 1,
			updated_at = excluded.updated_at,
			data = excluded.data
		 RETURNING version, json(data)`,
		key, now, now, string(data),
	).Scan(&version, &out)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	s.publishRaw(ctx, key, version, out)
	return nil
}

// Update applies fields as one partial write. Sibling values are untouched.
func (s *SQLiteStore) Update(ctx context.Context, key string, fields ...Field) error {
	if len(fields) == 0 {
		return nil
	}
	expr, args, err := setArgs(fields)
	if err != nil {
		return err
	}
	args = append(args, s.nowMillis(), key)

	var (
		version int64
		out     string
	)
	err = s.db.QueryRowContext(ctx,
		`UPDATE rooms SET data = `+expr+`, version = version + 1, updated_at = ?
		 WHERE id = ?
		 RETURNING version, json(data)`,
		args...,
	).Scan(&version, &out)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("updating %s: %w", key, err)
	}
	s.publishRaw(ctx, key, version, out)
	return nil
}

// Transact runs fn against the current document and commits the fields it
// returns only if nobody else wrote in between; otherwise it re-reads and
// calls fn again. fn returning no fields commits nothing. The returned
// snapshot is the state fn's decision was based on, after its writes.
func (s *SQLiteStore) Transact(ctx context.Context, key string, fn func(Document) ([]Field, error)) (Snapshot, error) {
	for attempt := 0; attempt < s.retries; attempt++ {
		cur, err := s.Get(ctx, key)
		if err != nil {
			return Snapshot{}, err
		}

		fields, err := fn(cur.Doc)
		if err != nil {
			return Snapshot{}, err
		}
		if len(fields) == 0 {
			return cur, nil
		}

		expr, args, err := setArgs(fields)
		if err != nil {
			return Snapshot{}, err
		}
		args = append(args, s.nowMillis(), key, cur.Version)

		var (
			version int64
			out     string
		)
		err = s.db.QueryRowContext(ctx,
			`UPDATE rooms SET data = `+expr+`, version = version + 1, updated_at = ?
			 WHERE id = ? AND version = ?
			 RETURNING version, json(data)`,
			args...,
		).Scan(&version, &out)
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Debug("transaction lost race, retrying", "key", key, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return Snapshot{}, fmt.Errorf("committing %s: %w", key, err)
		}

		snap, err := decodeSnapshot(key, version, out)
		if err != nil {
			return Snapshot{}, err
		}
		s.publish(ctx, snap)
		return snap, nil
	}
	return Snapshot{}, fmt.Errorf("%w: %s after %d attempts", ErrConflict, key, s.retries)
}

// Delete removes the document and notifies subscribers with an empty snapshot.
func (s *SQLiteStore) Delete(ctx context.Context, key string) error {
	var version int64
	err := s.db.QueryRowContext(ctx,
		`DELETE FROM rooms WHERE id = ? RETURNING version`, key,
	).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	s.publish(ctx, Snapshot{Key: key, Version: version + 1})
	return nil
}

// ListIdle returns the keys of documents not written since before cutoff.
func (s *SQLiteStore) ListIdle(ctx context.Context, cutoff time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM rooms WHERE updated_at < ? ORDER BY updated_at`, cutoff.UnixMilli(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Subscribe calls fn with the current snapshot of key (an empty one when the
// document is absent) and then with every committed change, oldest first.
// The returned func unregisters fn.
func (s *SQLiteStore) Subscribe(ctx context.Context, key string, fn func(Snapshot)) (func(), error) {
	sub := s.broker.subscribe(key, fn)
	cancel := func() { s.broker.unsubscribe(key, sub) }

	cur, err := s.Get(ctx, key)
	if err != nil && !errors.Is(err, ErrNotFound) {
		cancel()
		return nil, err
	}
	sub.push(cur)
	return cancel, nil
}

func (s *SQLiteStore) publishRaw(ctx context.Context, key string, version int64, data string) {
	snap, err := decodeSnapshot(key, version, data)
	if err != nil {
		s.logger.Error("decoding committed document", "key", key, "error", err)
		return
	}
	s.publish(ctx, snap)
}

func (s *SQLiteStore) publish(ctx context.Context, snap Snapshot) {
	s.broker.Publish(snap)
	if s.relay == nil {
		return
	}
	if err := s.relay.Forward(ctx, snap); err != nil {
		s.logger.Warn("relaying snapshot failed", "key", snap.Key, "version", snap.Version, "error", err)
	}
}

func decodeSnapshot(key string, version int64, data string) (Snapshot, error) {
	var doc Document
	if err := json.Unmarshal([]byte(data), &doc); err != nil {
		return Snapshot{}, fmt.Errorf("decoding %s: %w", key, err)
	}
	return Snapshot{Key: key, Version: version, Doc: doc}, nil
}

func cloneDocument(d Document) Document {
	out := make(Document, len(d)+1)
	for k, v := range d {
		out[k] = v
	}
	return out
}

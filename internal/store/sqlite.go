package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"
	_ "modernc.org/sqlite"

	"github.com/awmpietro/golang-rule-engine-case/internal/rule"
)

// SQLiteStore persists trees as zstd-compressed JSON in a single table.
// Writes are serialized; reads run concurrently under WAL.
type SQLiteStore struct {
	db      *sql.DB
	encoder *zstd.Encoder
	decoder *zstd.Decoder
	mu      sync.RWMutex
	closed  bool
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (creating if needed) the database at path. Use
// ":memory:" for a throwaway store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise see its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS rules (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			data BLOB NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	enc, err := zstd.NewWriter(nil)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		enc.Close()
		db.Close()
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &SQLiteStore{db: db, encoder: enc, decoder: dec}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, tree *rule.Node) (string, error) {
	if tree == nil {
		return "", rule.ErrMalformedTree
	}
	raw, err := tree.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("encode rule: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return "", ErrStoreClosed
	}

	id := uuid.NewString()
	data := s.encoder.EncodeAll(raw, nil)
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO rules (id, created_at, data) VALUES (?, ?, ?)`,
		id, time.Now().UTC().Format(time.RFC3339Nano), data,
	); err != nil {
		return "", fmt.Errorf("save rule: %w", err)
	}
	return id, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*rule.Node, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM rules WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load rule: %w", err)
	}
	return s.decode(id, data)
}

func (s *SQLiteStore) FetchMany(ctx context.Context, ids []string) ([]*rule.Node, error) {
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return []*rule.Node{}, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, data FROM rules WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch rules: %w", err)
	}
	defer rows.Close()

	found := make(map[string]*rule.Node, len(ids))
	for rows.Next() {
		var id string
		var data []byte
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		tree, err := s.decode(id, data)
		if err != nil {
			return nil, err
		}
		found[id] = tree
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rules: %w", err)
	}

	out := make([]*rule.Node, 0, len(found))
	for _, id := range ids {
		if tree, ok := found[id]; ok {
			out = append(out, tree)
		}
	}
	return out, nil
}

func (s *SQLiteStore) decode(id string, data []byte) (*rule.Node, error) {
	raw, err := s.decoder.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress rule %s: %w", id, err)
	}
	tree, err := rule.ParseJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("decode rule %s: %w", id, err)
	}
	return tree, nil
}

// Close is idempotent.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.encoder.Close()
	s.decoder.Close()
	return s.db.Close()
}

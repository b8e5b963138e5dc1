package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// GlobalOwner - владелец настроек всего магазина (telegram, бегущая строка)
const GlobalOwner = "global"

var ErrNotFound = errors.New("state not found")

const schema = `CREATE TABLE IF NOT EXISTS client_state (
	owner      TEXT NOT NULL,
	key        TEXT NOT NULL,
	value      TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (owner, key)
)`

// Store хранит срезы состояния клиента как JSON по ключу (owner, key)
type Store struct {
	db *sql.DB
	// mu сериализует read-modify-write операции над срезами
	mu sync.Mutex
}

// Open открывает sqlite базу. path ":memory:" даёт базу в памяти
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("unable to open state database: %w", err)
	}
	// у каждого соединения с :memory: своя база
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ensure state schema: %w", err)
	}
	slog.Info("Client state store opened", "path", path)
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// GetRaw отдаёт сохранённое значение без декодирования
func (s *Store) GetRaw(ctx context.Context, owner, key string) (json.RawMessage, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM client_state WHERE owner = ? AND key = ?`, owner, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", owner, key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query state: %w", err)
	}
	return json.RawMessage(value), nil
}

func (s *Store) PutRaw(ctx context.Context, owner, key string, value json.RawMessage) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO client_state (owner, key, value, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT (owner, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		owner, key, string(value), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save state: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, owner, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM client_state WHERE owner = ? AND key = ?`, owner, key); err != nil {
		return fmt.Errorf("failed to delete state: %w", err)
	}
	return nil
}

// Get декодирует значение в dst. Если значения нет, dst не меняется и возвращается ErrNotFound
func (s *Store) Get(ctx context.Context, owner, key string, dst any) error {
	raw, err := s.GetRaw(ctx, owner, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("failed to decode %s/%s: %w", owner, key, err)
	}
	return nil
}

func (s *Store) Put(ctx context.Context, owner, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", owner, key, err)
	}
	return s.PutRaw(ctx, owner, key, raw)
}

// load читает срез или отдаёт значение по умолчанию
func load[T any](ctx context.Context, s *Store, owner, key string, def T) (T, error) {
	v := def
	err := s.Get(ctx, owner, key, &v)
	if errors.Is(err, ErrNotFound) {
		return def, nil
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

// mutate загружает срез, применяет fn и сохраняет результат под общей блокировкой
func mutate[T any](ctx context.Context, s *Store, owner, key string, def T, fn func(*T) error) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, err := load(ctx, s, owner, key, def)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := fn(&v); err != nil {
		var zero T
		return zero, err
	}
	if err := s.Put(ctx, owner, key, v); err != nil {
		var zero T
		return zero, err
	}
	return v, nil
}

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrKeyNotFound is returned by KeyStore.Get for keys never saved.
var ErrKeyNotFound = errors.New("idempotency key not found")

// StoredResponse is the first response given for an idempotency key.
type StoredResponse struct {
	Status int
	Body   []byte
}

// KeyStore remembers responses by idempotency key.
type KeyStore interface {
	Get(ctx context.Context, key string) (StoredResponse, error)
	// Save keeps the first response for key; later saves are ignored.
	Save(ctx context.Context, key string, resp StoredResponse) error
}

// DefaultKeyTTL is how long a cached response is replayed.
const DefaultKeyTTL = 24 * time.Hour

type memoryEntry struct {
	resp    StoredResponse
	savedAt time.Time
}

// MemoryKeyStore keeps responses in process memory for ttl after they are
// saved. Expired keys are pruned on Save, so the map stays bounded by the
// request rate over one ttl.
type MemoryKeyStore struct {
	mu   sync.RWMutex
	keys map[string]memoryEntry
	ttl  time.Duration
	now  func() time.Time
}

// NewMemoryKeyStore creates a store; a non-positive ttl means DefaultKeyTTL.
func NewMemoryKeyStore(ttl time.Duration) *MemoryKeyStore {
	if ttl <= 0 {
		ttl = DefaultKeyTTL
	}
	return &MemoryKeyStore{keys: make(map[string]memoryEntry), ttl: ttl, now: time.Now}
}

func (s *MemoryKeyStore) Get(_ context.Context, key string) (StoredResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.keys[key]
	if !ok || s.expired(entry) {
		return StoredResponse{}, ErrKeyNotFound
	}
	return entry.resp, nil
}

func (s *MemoryKeyStore) Save(_ context.Context, key string, resp StoredResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for k, entry := range s.keys {
		if s.expired(entry) {
			delete(s.keys, k)
		}
	}

	if _, ok := s.keys[key]; ok {
		return nil
	}
	// Callers may hand us strings and slices backed by reused request buffers.
	s.keys[strings.Clone(key)] = memoryEntry{
		resp:    StoredResponse{Status: resp.Status, Body: bytes.Clone(resp.Body)},
		savedAt: s.now(),
	}
	return nil
}

// Len reports how many keys are held, expired ones included until the next Save.
func (s *MemoryKeyStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}

func (s *MemoryKeyStore) expired(entry memoryEntry) bool {
	return s.now().Sub(entry.savedAt) >= s.ttl
}

const idempotencySchema = `
	CREATE TABLE IF NOT EXISTS idempotency_keys (
		key_id TEXT PRIMARY KEY,
		response_status INT NOT NULL,
		response_body BYTEA NOT NULL,
		created_at TIMESTAMP DEFAULT NOW()
	)
`

// PostgresKeyStore keeps idempotency keys in the idempotency_keys table.
// Rows older than DefaultKeyTTL are ignored by Get and deleted on Save.
type PostgresKeyStore struct {
	db *pgxpool.Pool
}

// NewPostgresKeyStore creates the table if needed.
func NewPostgresKeyStore(ctx context.Context, db *pgxpool.Pool) (*PostgresKeyStore, error) {
	if _, err := db.Exec(ctx, idempotencySchema); err != nil {
		return nil, fmt.Errorf("failed to migrate idempotency_keys: %w", err)
	}
	return &PostgresKeyStore{db: db}, nil
}

func (s *PostgresKeyStore) Get(ctx context.Context, key string) (StoredResponse, error) {
	var resp StoredResponse
	err := s.db.QueryRow(ctx,
		"SELECT response_status, response_body FROM idempotency_keys WHERE key_id = $1 AND created_at > NOW() - make_interval(secs => $2)",
		key, DefaultKeyTTL.Seconds()).Scan(&resp.Status, &resp.Body)
	if errors.Is(err, pgx.ErrNoRows) {
		return StoredResponse{}, ErrKeyNotFound
	}
	if err != nil {
		return StoredResponse{}, fmt.Errorf("failed to read idempotency key: %w", err)
	}
	return resp, nil
}

func (s *PostgresKeyStore) Save(ctx context.Context, key string, resp StoredResponse) error {
	if _, err := s.db.Exec(ctx, "DELETE FROM idempotency_keys WHERE created_at <= NOW() - make_interval(secs => $1)", DefaultKeyTTL.Seconds()); err != nil {
		return fmt.Errorf("failed to prune idempotency keys: %w", err)
	}
	_, err := s.db.Exec(ctx,
		"INSERT INTO idempotency_keys (key_id, response_status, response_body) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		key, resp.Status, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to save idempotency key: %w", err)
	}
	return nil
}

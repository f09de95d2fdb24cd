package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/desertthunder/mazeed/internal/shared"
)

// Keys of client state kept in storage.
const (
	KeyToken               = "token"
	KeyInstagramAuth       = "instagram_auth_data"
	KeyInstagramReels      = "instagramReels"
	KeyInstagramAccountIDs = "instagramAccountIds"
	KeySelectedContentIDs  = "selectedContentIds"
)

// ImportKeys are cleared whenever the workflow mounts.
var ImportKeys = []string{KeyInstagramReels, KeyInstagramAccountIDs, KeyInstagramAuth}

// KeyValueStore is durable string storage for client state.
type KeyValueStore interface {
	Get(key string) (string, error) // Get returns [shared.ErrKeyNotFound] for missing keys
	Set(key, value string) error
	Remove(keys ...string) error
	Clear() error
	Keys() ([]string, error)
}

var (
	_ KeyValueStore = (*StorageRepository)(nil)
	_ KeyValueStore = (*MemoryStore)(nil)
)

// StorageRepository implements [KeyValueStore] over the storage table.
type StorageRepository struct {
	db *sql.DB
}

// NewStorageRepository creates a new StorageRepository with the given database connection
func NewStorageRepository(db *sql.DB) *StorageRepository {
	return &StorageRepository{db: db}
}

// Get returns the value stored under key.
func (r *StorageRepository) Get(key string) (string, error) {
	var value string
	err := r.db.QueryRow("SELECT value FROM storage WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value.
func (r *StorageRepository) Set(key, value string) error {
	query := `
		INSERT INTO storage (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := r.db.Exec(query, key, value, time.Now()); err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Remove deletes the given keys. Missing keys are ignored.
func (r *StorageRepository) Remove(keys ...string) error {
	for _, key := range keys {
		if _, err := r.db.Exec("DELETE FROM storage WHERE key = ?", key); err != nil {
			return fmt.Errorf("failed to remove %s: %w", key, err)
		}
	}
	return nil
}

// Clear deletes every key.
func (r *StorageRepository) Clear() error {
	if _, err := r.db.Exec("DELETE FROM storage"); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	return nil
}

// Keys lists stored keys in lexical order.
func (r *StorageRepository) Keys() ([]string, error) {
	rows, err := r.db.Query("SELECT key FROM storage ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("failed to list keys: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return keys, nil
}

// MemoryStore is a process-local [KeyValueStore].
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return "", fmt.Errorf("%w: %s", shared.ErrKeyNotFound, key)
	}
	return v, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Remove(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}

func (m *MemoryStore) Keys() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// GetJSON decodes the JSON value under key into v.
// It reports false without error when the key is missing.
func GetJSON(s KeyValueStore, key string, v any) (bool, error) {
	raw, err := s.Get(key)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(s KeyValueStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(key, string(data))
}

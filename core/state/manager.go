package state

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/rlp"

	"crosstrade/storage"
)

var (
	// ErrNoJournal is returned by Commit and Rollback when no journal is open.
	ErrNoJournal = errors.New("state: no open journal")
)

type journalEntry struct {
	value   []byte
	deleted bool
}

type journal map[string]journalEntry

// Manager provides keyed access to protocol state on top of a storage
// backend. Writes land in the innermost open journal, if any; a journal is
// flushed to the backend as a single batch when the outermost one commits.
// Without an open journal writes go straight to the backend.
type Manager struct {
	mu       sync.RWMutex
	db       storage.Database
	journals []journal
}

// NewManager creates a state manager operating on the provided database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

// Begin opens a nested journal.
func (m *Manager) Begin() {
	m.mu.Lock()
	m.journals = append(m.journals, make(journal))
	m.mu.Unlock()
}

// Depth reports the number of open journals.
func (m *Manager) Depth() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.journals)
}

// Commit closes the innermost journal, merging it into its parent or writing
// it to the backend when it is the outermost.
func (m *Manager) Commit() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.journals)
	if n == 0 {
		return ErrNoJournal
	}
	top := m.journals[n-1]
	m.journals = m.journals[:n-1]
	if n > 1 {
		parent := m.journals[n-2]
		for k, v := range top {
			parent[k] = v
		}
		return nil
	}
	if len(top) == 0 {
		return nil
	}
	keys := make([]string, 0, len(top))
	for k := range top {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	batch := m.db.NewBatch()
	for _, k := range keys {
		entry := top[k]
		if entry.deleted {
			batch.Delete([]byte(k))
			continue
		}
		batch.Put([]byte(k), entry.value)
	}
	if err := batch.Write(); err != nil {
		return fmt.Errorf("state: commit batch: %w", err)
	}
	return nil
}

// Rollback discards the innermost journal.
func (m *Manager) Rollback() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.journals)
	if n == 0 {
		return ErrNoJournal
	}
	m.journals = m.journals[:n-1]
	return nil
}

func (m *Manager) get(key []byte) ([]byte, bool, error) {
	m.mu.RLock()
	for i := len(m.journals) - 1; i >= 0; i-- {
		if entry, ok := m.journals[i][string(key)]; ok {
			m.mu.RUnlock()
			if entry.deleted {
				return nil, false, nil
			}
			return entry.value, true, nil
		}
	}
	m.mu.RUnlock()
	data, err := m.db.Get(key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (m *Manager) put(key, value []byte) error {
	m.mu.Lock()
	if n := len(m.journals); n > 0 {
		m.journals[n-1][string(key)] = journalEntry{value: append([]byte(nil), value...)}
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	return m.db.Put(key, value)
}

func (m *Manager) del(key []byte) error {
	m.mu.Lock()
	if n := len(m.journals); n > 0 {
		m.journals[n-1][string(key)] = journalEntry{deleted: true}
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()
	return m.db.Delete(key)
}

// KVPut stores the provided value under the supplied key using RLP encoding.
func (m *Manager) KVPut(key []byte, value interface{}) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	encoded, err := rlp.EncodeToBytes(value)
	if err != nil {
		return err
	}
	return m.put(key, encoded)
}

// KVGet retrieves the value stored under the supplied key and decodes it into
// the provided destination. The boolean return value indicates whether the key
// existed in state.
func (m *Manager) KVGet(key []byte, out interface{}) (bool, error) {
	if len(key) == 0 {
		return false, fmt.Errorf("kv: key must not be empty")
	}
	data, ok, err := m.get(key)
	if err != nil || !ok {
		return false, err
	}
	if out == nil {
		return true, nil
	}
	if err := rlp.DecodeBytes(data, out); err != nil {
		return false, err
	}
	return true, nil
}

// KVHas reports whether the key is present.
func (m *Manager) KVHas(key []byte) (bool, error) {
	return m.KVGet(key, nil)
}

// KVDelete removes the key.
func (m *Manager) KVDelete(key []byte) error {
	if len(key) == 0 {
		return fmt.Errorf("kv: key must not be empty")
	}
	return m.del(key)
}

// KVAppend appends the provided value to the RLP-encoded byte slice list stored
// under the supplied key. Duplicate values are ignored to keep the index
// deterministic.
func (m *Manager) KVAppend(key []byte, value []byte) error {
	var list [][]byte
	if _, err := m.KVGet(key, &list); err != nil {
		return err
	}
	for _, existing := range list {
		if bytes.Equal(existing, value) {
			return nil
		}
	}
	list = append(list, append([]byte(nil), value...))
	return m.KVPut(key, list)
}

// KVGetList retrieves an RLP-encoded slice stored under the provided key and
// decodes it into the supplied destination slice pointer. When no value is
// present the destination is initialised with an empty slice.
func (m *Manager) KVGetList(key []byte, out interface{}) error {
	ok, err := m.KVGet(key, out)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	val := reflect.ValueOf(out)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return fmt.Errorf("kv: destination must be a non-nil pointer")
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Slice {
		return fmt.Errorf("kv: destination must point to a slice")
	}
	elem.Set(reflect.MakeSlice(elem.Type(), 0, 0))
	return nil
}

// Iterate visits every live key with the supplied prefix in ascending order,
// including writes held in open journals.
func (m *Manager) Iterate(prefix []byte, fn func(key, value []byte) bool) error {
	merged := make(map[string]journalEntry)
	err := m.db.Iterate(prefix, func(key, value []byte) bool {
		merged[string(key)] = journalEntry{value: append([]byte(nil), value...)}
		return true
	})
	if err != nil {
		return err
	}
	m.mu.RLock()
	for _, j := range m.journals {
		for k, v := range j {
			if bytes.HasPrefix([]byte(k), prefix) {
				merged[k] = v
			}
		}
	}
	m.mu.RUnlock()
	keys := make([]string, 0, len(merged))
	for k, v := range merged {
		if !v.deleted {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		if !fn([]byte(k), merged[k].value) {
			return nil
		}
	}
	return nil
}

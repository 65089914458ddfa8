package docstore

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store used by tests and ephemeral setups.
type Memory struct {
	mu          sync.Mutex
	collections map[string]map[string][]byte

	// FailBatch, when set, is consulted before a batch commit; a non-nil
	// return aborts the commit without applying any of its writes. Tests use
	// it to simulate store failures mid-import.
	FailBatch func(writes []Write) error
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{collections: make(map[string]map[string][]byte)}
}

// Add stores a new document and returns its generated id.
func (m *Memory) Add(ctx context.Context, collection string, doc interface{}) (string, error) {
	fields, err := encodeDoc(doc)
	if err != nil {
		return "", err
	}
	body, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.coll(collection)[id] = body
	return id, nil
}

// Get loads a document by id.
func (m *Memory) Get(ctx context.Context, collection, id string, out interface{}) error {
	m.mu.Lock()
	body, ok := m.coll(collection)[id]
	m.mu.Unlock()
	if !ok {
		return ErrNotFound
	}
	return decodeDoc(id, body, out)
}

// Query loads all documents matching the equality filter.
func (m *Memory) Query(ctx context.Context, collection string, filter map[string]interface{}, out interface{}) error {
	m.mu.Lock()
	var ids []string
	var bodies [][]byte
	for id, body := range m.coll(collection) {
		var fields map[string]interface{}
		if err := json.Unmarshal(body, &fields); err != nil {
			m.mu.Unlock()
			return err
		}
		if matchesFilter(fields, filter) {
			ids = append(ids, id)
			bodies = append(bodies, body)
		}
	}
	m.mu.Unlock()
	return decodeDocs(ids, bodies, out)
}

// Update merges fields into an existing document.
func (m *Memory) Update(ctx context.Context, collection, id string, fields map[string]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	body, ok := m.coll(collection)[id]
	if !ok {
		return ErrNotFound
	}
	var existing map[string]interface{}
	if err := json.Unmarshal(body, &existing); err != nil {
		return err
	}
	for k, v := range fields {
		existing[k] = normalize(v)
	}
	delete(existing, "id")
	updated, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	m.coll(collection)[id] = updated
	return nil
}

// Delete removes a document by id.
func (m *Memory) Delete(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.coll(collection), id)
	return nil
}

// CommitBatch applies all writes or none.
func (m *Memory) CommitBatch(ctx context.Context, writes []Write) error {
	if m.FailBatch != nil {
		if err := m.FailBatch(writes); err != nil {
			return err
		}
	}

	// Encode everything before touching state so a bad document cannot
	// leave a partial batch behind.
	bodies := make([][]byte, len(writes))
	for i, w := range writes {
		fields, err := encodeDoc(w.Doc)
		if err != nil {
			return err
		}
		body, err := json.Marshal(fields)
		if err != nil {
			return err
		}
		bodies[i] = body
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i, w := range writes {
		m.coll(w.Collection)[uuid.New().String()] = bodies[i]
	}
	return nil
}

// Close is a no-op for the in-memory store.
func (m *Memory) Close() error { return nil }

// Count returns the number of documents in a collection.
func (m *Memory) Count(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.coll(collection))
}

func (m *Memory) coll(name string) map[string][]byte {
	c, ok := m.collections[name]
	if !ok {
		c = make(map[string][]byte)
		m.collections[name] = c
	}
	return c
}

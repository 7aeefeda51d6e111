package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
)

// Memory is an in-memory Remote for tests and development. Snapshot
// delivery is synchronous and ordered. The Fail* fields inject errors to
// exercise the remote-unavailable fallback paths.
type Memory struct {
	mu   sync.RWMutex
	data map[string]map[string]Document
	subs map[string][]SnapshotFunc

	FailQuery  error
	FailUpsert error
	FailGetAll error
}

func NewMemory() *Memory {
	return &Memory{
		data: make(map[string]map[string]Document),
		subs: make(map[string][]SnapshotFunc),
	}
}

func (m *Memory) GetAll(_ context.Context, collection string) (Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailGetAll != nil {
		return nil, m.FailGetAll
	}
	return m.snapshotLocked(collection), nil
}

func (m *Memory) Upsert(_ context.Context, collection, key string, doc Document) error {
	m.mu.Lock()
	if m.FailUpsert != nil {
		m.mu.Unlock()
		return m.FailUpsert
	}
	col := m.data[collection]
	if col == nil {
		col = make(map[string]Document)
		m.data[collection] = col
	}
	col[key] = append(Document(nil), doc...)
	snap := m.snapshotLocked(collection)
	subs := append([]SnapshotFunc(nil), m.subs[collection]...)
	m.mu.Unlock()

	notify(subs, snap)
	return nil
}

func (m *Memory) Delete(_ context.Context, collection, key string) error {
	m.mu.Lock()
	delete(m.data[collection], key)
	snap := m.snapshotLocked(collection)
	subs := append([]SnapshotFunc(nil), m.subs[collection]...)
	m.mu.Unlock()

	notify(subs, snap)
	return nil
}

func (m *Memory) QueryEqual(_ context.Context, collection, field, value string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.FailQuery != nil {
		return nil, m.FailQuery
	}

	var docs []Document
	for _, doc := range m.data[collection] {
		if fieldValue(doc, field) == value {
			docs = append(docs, append(Document(nil), doc...))
		}
	}
	return docs, nil
}

func (m *Memory) Latest(_ context.Context, collection, orderField string, limit int) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, 0, len(m.data[collection]))
	for _, doc := range m.data[collection] {
		docs = append(docs, append(Document(nil), doc...))
	}
	sort.Slice(docs, func(i, j int) bool {
		return fieldValue(docs[i], orderField) > fieldValue(docs[j], orderField)
	})
	if len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (m *Memory) Subscribe(_ context.Context, collection string, fn SnapshotFunc) (func(), error) {
	m.mu.Lock()
	m.subs[collection] = append(m.subs[collection], fn)
	idx := len(m.subs[collection]) - 1
	snap := m.snapshotLocked(collection)
	m.mu.Unlock()

	fn(snap)

	cancel := func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		subs := m.subs[collection]
		if idx < len(subs) {
			subs[idx] = nil
		}
	}
	return cancel, nil
}

func (m *Memory) snapshotLocked(collection string) Snapshot {
	snap := Snapshot{}
	for key, doc := range m.data[collection] {
		snap[key] = append(Document(nil), doc...)
	}
	return snap
}

func notify(subs []SnapshotFunc, snap Snapshot) {
	for _, fn := range subs {
		if fn != nil {
			fn(snap)
		}
	}
}

// fieldValue extracts a top-level string field; non-string values compare
// as their JSON rendering, which is good enough for id and timestamp keys.
func fieldValue(doc Document, field string) string {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(doc, &m); err != nil {
		return ""
	}
	raw, ok := m[field]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

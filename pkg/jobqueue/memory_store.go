package jobqueue

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore implements OrderedStore in process memory for testing and local
// development. Members with equal scores keep insertion order, matching the
// best-effort tie-break the engine is allowed to rely on.
type MemoryStore struct {
	mu      sync.RWMutex
	sets    map[string][]scoredMember
	records map[string]map[string][]byte
}

type scoredMember struct {
	member string
	score  float64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sets:    make(map[string][]scoredMember),
		records: make(map[string]map[string][]byte),
	}
}

// Add implements OrderedStore.
func (ms *MemoryStore) Add(ctx context.Context, key, member string, score float64) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	set := slices.DeleteFunc(ms.sets[key], func(m scoredMember) bool {
		return m.member == member
	})

	// Insert after the last member with an equal or lower score so that
	// equal scores stay in insertion order.
	at := len(set)
	for i, m := range set {
		if m.score > score {
			at = i
			break
		}
	}
	ms.sets[key] = slices.Insert(set, at, scoredMember{member: member, score: score})
	return nil
}

// Remove implements OrderedStore.
func (ms *MemoryStore) Remove(ctx context.Context, key, member string) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	before := len(ms.sets[key])
	ms.sets[key] = slices.DeleteFunc(ms.sets[key], func(m scoredMember) bool {
		return m.member == member
	})
	return len(ms.sets[key]) < before, nil
}

// PeekHighest implements OrderedStore.
func (ms *MemoryStore) PeekHighest(ctx context.Context, key string) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	set := ms.sets[key]
	if len(set) == 0 {
		return "", false, nil
	}
	return set[len(set)-1].member, true, nil
}

// RangeByScore implements OrderedStore.
func (ms *MemoryStore) RangeByScore(ctx context.Context, key string, min, max float64) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var out []string
	for _, m := range ms.sets[key] {
		if m.score >= min && m.score <= max {
			out = append(out, m.member)
		}
	}
	return out, nil
}

// RangeByRank implements OrderedStore.
func (ms *MemoryStore) RangeByRank(ctx context.Context, key string, start, stop int64) ([]string, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	set := ms.sets[key]
	n := int64(len(set))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	start = max(start, 0)
	stop = min(stop, n-1)
	if n == 0 || start > stop {
		return nil, nil
	}

	out := make([]string, 0, stop-start+1)
	for _, m := range set[start : stop+1] {
		out = append(out, m.member)
	}
	return out, nil
}

// Card implements OrderedStore.
func (ms *MemoryStore) Card(ctx context.Context, key string) (int64, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return int64(len(ms.sets[key])), nil
}

// TrimLowest implements OrderedStore.
func (ms *MemoryStore) TrimLowest(ctx context.Context, key string, n int64) ([]string, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	set := ms.sets[key]
	if n <= 0 || len(set) == 0 {
		return nil, nil
	}
	n = min(n, int64(len(set)))

	trimmed := make([]string, 0, n)
	for _, m := range set[:n] {
		trimmed = append(trimmed, m.member)
	}
	ms.sets[key] = set[n:]
	return trimmed, nil
}

// SetRecord implements OrderedStore.
func (ms *MemoryStore) SetRecord(ctx context.Context, key, id string, data []byte) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	recs, ok := ms.records[key]
	if !ok {
		recs = make(map[string][]byte)
		ms.records[key] = recs
	}
	recs[id] = slices.Clone(data)
	return nil
}

// GetRecord implements OrderedStore.
func (ms *MemoryStore) GetRecord(ctx context.Context, key, id string) ([]byte, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	data, ok := ms.records[key][id]
	if !ok {
		return nil, false, nil
	}
	return slices.Clone(data), true, nil
}

// DeleteRecord implements OrderedStore.
func (ms *MemoryStore) DeleteRecord(ctx context.Context, key, id string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.records[key], id)
	return nil
}

// Clear implements OrderedStore.
func (ms *MemoryStore) Clear(ctx context.Context, keys ...string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	for _, key := range keys {
		delete(ms.sets, key)
		delete(ms.records, key)
	}
	return nil
}

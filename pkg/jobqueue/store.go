package jobqueue

import "context"

// OrderedStore is the persistence contract consumed by the queue engine.
//
// Each queue owns five ordered collections (one per job status) whose members
// are job ids, plus one record collection mapping a job id to its canonical
// serialized form. Keeping ids in the ordered collections and the payload in a
// separate record collection means moves and removals are always done by id,
// never by payload equality, so a record can be mutated between insertion and
// removal without breaking membership.
//
// All operations are I/O and may fail with a store-level error. The engine
// never retries a store error internally; it surfaces it to the caller or, in
// a periodic loop, logs it and proceeds on the next tick.
type OrderedStore interface {
	// Add inserts member into the ordered collection at key with the given
	// score, replacing the score if the member is already present.
	Add(ctx context.Context, key, member string, score float64) error

	// Remove deletes member from the ordered collection at key by exact
	// match, reporting whether a removal occurred.
	Remove(ctx context.Context, key, member string) (bool, error)

	// PeekHighest returns the highest-scored member of the collection, or
	// ok=false when the collection is empty.
	PeekHighest(ctx context.Context, key string) (member string, ok bool, err error)

	// RangeByScore returns members with min <= score <= max, lowest first.
	RangeByScore(ctx context.Context, key string, min, max float64) ([]string, error)

	// RangeByRank returns members by ascending rank. Negative indexes count
	// from the end, so start=0 stop=-1 returns the whole collection.
	RangeByRank(ctx context.Context, key string, start, stop int64) ([]string, error)

	// Card returns the number of members in the collection.
	Card(ctx context.Context, key string) (int64, error)

	// TrimLowest removes the n lowest-scored members and returns them.
	TrimLowest(ctx context.Context, key string, n int64) ([]string, error)

	// SetRecord stores the serialized record for id in the record collection
	// at key, overwriting any previous value.
	SetRecord(ctx context.Context, key, id string, data []byte) error

	// GetRecord fetches the serialized record for id, ok=false when absent.
	GetRecord(ctx context.Context, key, id string) (data []byte, ok bool, err error)

	// DeleteRecord removes the record for id. Missing records are not an error.
	DeleteRecord(ctx context.Context, key, id string) error

	// Clear drops the given collections entirely.
	Clear(ctx context.Context, keys ...string) error
}

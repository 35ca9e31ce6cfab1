package jobqueue

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore implements OrderedStore on PostgreSQL for deployments that run
// without Redis. Members live in a single scored-membership table, records in
// a companion table. Ordering among equal scores follows insertion order via
// the seq column.
type PGStore struct {
	pool *pgxpool.Pool
}

// pgSchema is applied by EnsureSchema. The tables are owned entirely by the
// queue, so no external migration tooling is involved.
const pgSchema = `
CREATE TABLE IF NOT EXISTS jobqueue_members (
	collection text             NOT NULL,
	member     text             NOT NULL,
	score      double precision NOT NULL,
	seq        bigint           GENERATED ALWAYS AS IDENTITY,
	PRIMARY KEY (collection, member)
);
CREATE INDEX IF NOT EXISTS jobqueue_members_score_idx
	ON jobqueue_members (collection, score, seq);

CREATE TABLE IF NOT EXISTS jobqueue_records (
	collection text  NOT NULL,
	id         text  NOT NULL,
	data       bytea NOT NULL,
	PRIMARY KEY (collection, id)
);`

// NewPGStore wraps an established pgx connection pool.
func NewPGStore(pool *pgxpool.Pool) (*PGStore, error) {
	if pool == nil {
		return nil, ErrStoreNil
	}
	return &PGStore{pool: pool}, nil
}

// EnsureSchema creates the backing tables if they do not exist yet.
func (ps *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := ps.pool.Exec(ctx, pgSchema); err != nil {
		return fmt.Errorf("ensure jobqueue schema: %w", err)
	}
	return nil
}

// Add implements OrderedStore.
func (ps *PGStore) Add(ctx context.Context, key, member string, score float64) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO jobqueue_members (collection, member, score)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, member) DO UPDATE SET score = excluded.score`,
		key, member, score)
	if err != nil {
		return fmt.Errorf("add member to %s: %w", key, err)
	}
	return nil
}

// Remove implements OrderedStore.
func (ps *PGStore) Remove(ctx context.Context, key, member string) (bool, error) {
	tag, err := ps.pool.Exec(ctx,
		`DELETE FROM jobqueue_members WHERE collection = $1 AND member = $2`,
		key, member)
	if err != nil {
		return false, fmt.Errorf("remove member from %s: %w", key, err)
	}
	return tag.RowsAffected() > 0, nil
}

// PeekHighest implements OrderedStore.
func (ps *PGStore) PeekHighest(ctx context.Context, key string) (string, bool, error) {
	var member string
	err := ps.pool.QueryRow(ctx, `
		SELECT member FROM jobqueue_members
		WHERE collection = $1
		ORDER BY score DESC, seq DESC
		LIMIT 1`, key).Scan(&member)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("peek highest of %s: %w", key, err)
	}
	return member, true, nil
}

// RangeByScore implements OrderedStore.
func (ps *PGStore) RangeByScore(ctx context.Context, key string, min, max float64) ([]string, error) {
	rows, err := ps.pool.Query(ctx, `
		SELECT member FROM jobqueue_members
		WHERE collection = $1 AND score >= $2 AND score <= $3
		ORDER BY score ASC, seq ASC`, key, min, max)
	if err != nil {
		return nil, fmt.Errorf("range %s by score: %w", key, err)
	}
	return collectMembers(rows, key)
}

// RangeByRank implements OrderedStore.
func (ps *PGStore) RangeByRank(ctx context.Context, key string, start, stop int64) ([]string, error) {
	n, err := ps.Card(ctx, key)
	if err != nil {
		return nil, err
	}
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if n == 0 || start > stop {
		return nil, nil
	}

	rows, err := ps.pool.Query(ctx, `
		SELECT member FROM jobqueue_members
		WHERE collection = $1
		ORDER BY score ASC, seq ASC
		OFFSET $2 LIMIT $3`, key, start, stop-start+1)
	if err != nil {
		return nil, fmt.Errorf("range %s by rank: %w", key, err)
	}
	return collectMembers(rows, key)
}

// Card implements OrderedStore.
func (ps *PGStore) Card(ctx context.Context, key string) (int64, error) {
	var n int64
	err := ps.pool.QueryRow(ctx,
		`SELECT count(*) FROM jobqueue_members WHERE collection = $1`, key).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("cardinality of %s: %w", key, err)
	}
	return n, nil
}

// TrimLowest implements OrderedStore.
func (ps *PGStore) TrimLowest(ctx context.Context, key string, n int64) ([]string, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := ps.pool.Query(ctx, `
		DELETE FROM jobqueue_members
		WHERE collection = $1 AND member IN (
			SELECT member FROM jobqueue_members
			WHERE collection = $1
			ORDER BY score ASC, seq ASC
			LIMIT $2
		)
		RETURNING member`, key, n)
	if err != nil {
		return nil, fmt.Errorf("trim %s: %w", key, err)
	}
	return collectMembers(rows, key)
}

// SetRecord implements OrderedStore.
func (ps *PGStore) SetRecord(ctx context.Context, key, id string, data []byte) error {
	_, err := ps.pool.Exec(ctx, `
		INSERT INTO jobqueue_records (collection, id, data)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, id) DO UPDATE SET data = excluded.data`,
		key, id, data)
	if err != nil {
		return fmt.Errorf("set record in %s: %w", key, err)
	}
	return nil
}

// GetRecord implements OrderedStore.
func (ps *PGStore) GetRecord(ctx context.Context, key, id string) ([]byte, bool, error) {
	var data []byte
	err := ps.pool.QueryRow(ctx,
		`SELECT data FROM jobqueue_records WHERE collection = $1 AND id = $2`,
		key, id).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get record from %s: %w", key, err)
	}
	return data, true, nil
}

// DeleteRecord implements OrderedStore.
func (ps *PGStore) DeleteRecord(ctx context.Context, key, id string) error {
	_, err := ps.pool.Exec(ctx,
		`DELETE FROM jobqueue_records WHERE collection = $1 AND id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("delete record from %s: %w", key, err)
	}
	return nil
}

// Clear implements OrderedStore.
func (ps *PGStore) Clear(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if _, err := ps.pool.Exec(ctx,
		`DELETE FROM jobqueue_members WHERE collection = ANY($1)`, keys); err != nil {
		return fmt.Errorf("clear members: %w", err)
	}
	if _, err := ps.pool.Exec(ctx,
		`DELETE FROM jobqueue_records WHERE collection = ANY($1)`, keys); err != nil {
		return fmt.Errorf("clear records: %w", err)
	}
	return nil
}

func collectMembers(rows pgx.Rows, key string) ([]string, error) {
	defer rows.Close()

	var out []string
	for rows.Next() {
		var member string
		if err := rows.Scan(&member); err != nil {
			return nil, fmt.Errorf("scan member of %s: %w", key, err)
		}
		out = append(out, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members of %s: %w", key, err)
	}
	return out, nil
}

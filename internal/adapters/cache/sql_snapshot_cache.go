package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"pamekids-service/internal/platform/obs"
	"pamekids-service/internal/ports"
	"strings"
)

// SQLSnapshotCache is a Postgres-backed SnapshotCache storing one row per key.
type SQLSnapshotCache struct {
	DB *sql.DB
}

func NewSQLSnapshotCache(db *sql.DB) *SQLSnapshotCache {
	return &SQLSnapshotCache{DB: db}
}

// Fetch the cached snapshot for key if it was written under version.
func (s *SQLSnapshotCache) Read(ctx context.Context, key, version string) (_ ports.Snapshot, _ bool, err error) {
	defer obs.Time(ctx, "snapshot.cache.Read")(&err)

	if s.DB == nil {
		return ports.Snapshot{}, false, errors.New("snapshot cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return ports.Snapshot{}, false, errors.New("get snapshot cache: key must not be empty")
	}

	q := `
	SELECT payload
	FROM snapshot_cache
	WHERE cache_key = $1;
	`

	var payload []byte
	err = s.DB.QueryRowContext(ctx, q, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Snapshot{}, false, nil
	}
	if err != nil {
		return ports.Snapshot{}, false, fmt.Errorf("get snapshot cache: query snapshot_cache table: %w", err)
	}

	snap, ok, err := decodeSnapshot(payload, version)
	if err != nil {
		return ports.Snapshot{}, false, fmt.Errorf("get snapshot cache key=%q: %w", key, err)
	}
	return snap, ok, nil
}

// Store the snapshot under key, replacing any previous version.
func (s *SQLSnapshotCache) Write(ctx context.Context, key, version string, snap ports.Snapshot) (err error) {
	defer obs.Time(ctx, "snapshot.cache.Write")(&err)

	if s.DB == nil {
		return errors.New("snapshot cache: db is nil")
	}
	if strings.TrimSpace(key) == "" {
		return errors.New("insert snapshot cache: key must not be empty")
	}

	payload, err := encodeSnapshot(version, snap)
	if err != nil {
		return fmt.Errorf("insert snapshot cache key=%q: %w", key, err)
	}

	q := `
	INSERT INTO snapshot_cache (cache_key, version, fetched_at, payload)
	VALUES ($1, $2, $3, $4::jsonb)
	ON CONFLICT (cache_key) DO UPDATE
	SET version = EXCLUDED.version,
		fetched_at = EXCLUDED.fetched_at,
		payload = EXCLUDED.payload;
	`
	if _, err := s.DB.ExecContext(ctx, q, key, version, snap.FetchedAt.UTC(), string(payload)); err != nil {
		return fmt.Errorf("insert snapshot cache key=%q: %w", key, err)
	}
	return nil
}

func (s *SQLSnapshotCache) Clear(ctx context.Context, key string) (err error) {
	defer obs.Time(ctx, "snapshot.cache.Clear")(&err)

	if s.DB == nil {
		return errors.New("snapshot cache: db is nil")
	}
	if _, err := s.DB.ExecContext(ctx, `DELETE FROM snapshot_cache WHERE cache_key = $1;`, key); err != nil {
		return fmt.Errorf("clear snapshot cache key=%q: %w", key, err)
	}
	return nil
}

package flathunt

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"flathunt-backend/lib/scrapers/rightmove"
)

// Cache is the durable record of every listing a discovery pass has
// evaluated, keyed by listing id. Presence is monotonic: records are never
// removed.
type Cache interface {
	Contains(ctx context.Context, id int64) (bool, error)
	Add(ctx context.Context, property rightmove.Property) error
}

// PropertyCache stores the full decoded listing payload per id in sqlite,
// so past records can be inspected with any sqlite shell.
type PropertyCache struct {
	db *sql.DB
}

func NewPropertyCache(database *sql.DB) PropertyCache {
	return PropertyCache{db: database}
}

func (c PropertyCache) Contains(ctx context.Context, id int64) (bool, error) {
	var one int
	err := c.db.QueryRowContext(ctx,
		`SELECT 1 FROM seen_property WHERE id = ?`, id,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache contains %d: %w", id, err)
	}
	return true, nil
}

// Add records a property. Re-adding an id is a no-op, so a record can
// never be replaced or removed.
func (c PropertyCache) Add(ctx context.Context, property rightmove.Property) error {
	payload, err := json.Marshal(property)
	if err != nil {
		return fmt.Errorf("cache encode %d: %w", property.ID, err)
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO seen_property (id, payload, added_at) VALUES (?, ?, ?)
		 ON CONFLICT (id) DO NOTHING`,
		property.ID, string(payload), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("cache add %d: %w", property.ID, err)
	}
	return nil
}

// Get loads a recorded listing back out of the cache.
func (c PropertyCache) Get(ctx context.Context, id int64) (rightmove.Property, bool, error) {
	var payload string
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM seen_property WHERE id = ?`, id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return rightmove.Property{}, false, nil
	}
	if err != nil {
		return rightmove.Property{}, false, fmt.Errorf("cache get %d: %w", id, err)
	}

	var property rightmove.Property
	if err := json.Unmarshal([]byte(payload), &property); err != nil {
		return rightmove.Property{}, false, fmt.Errorf("cache decode %d: %w", id, err)
	}
	return property, true, nil
}

// NopCache is the "no cache configured" configuration: nothing is ever
// contained and adds go nowhere. The rest of the pipeline cannot tell the
// difference.
type NopCache struct{}

func (NopCache) Contains(ctx context.Context, id int64) (bool, error) { return false, nil }

func (NopCache) Add(ctx context.Context, property rightmove.Property) error { return nil }

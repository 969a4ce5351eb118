// Package repository implements namespace-scoped CRUD over the key-value
// store with an in-memory cached index. One generic core backs the typed
// User, Report and Notification repositories.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"ecowatch/api/internal/ecoerr"
	"ecowatch/api/internal/ids"
	"ecowatch/api/internal/store"
)

// Config describes how the generic core handles one entity kind.
type Config[T any] struct {
	// Prefix namespaces the entity's keys inside the store, e.g. "report_".
	Prefix string

	// Capacity caps the retained entity count; 0 means unlimited. When the
	// cap is exceeded on load or add, the oldest entries by CreatedAt are
	// evicted from both cache and store.
	Capacity int

	// NewestFirst orders List results descending by CreatedAt.
	NewestFirst bool

	ID           func(*T) string
	SetID        func(*T, string)
	CreatedAt    func(*T) time.Time
	SetCreatedAt func(*T, time.Time)

	// Normalize applies field defaults for attributes missing from
	// previously persisted records.
	Normalize func(*T)

	// ConflictsWith reports a uniqueness violation between a candidate and
	// an existing entity. Nil disables the check.
	ConflictsWith func(candidate, existing *T) bool
}

// Repository owns the authoritative copy of its namespace in the store.
// The cache is a read-mostly projection rebuilt on Sync and updated on
// writes; writes go to the store first so a failed write never leaves the
// cache ahead of the store.
type Repository[T any] struct {
	kv  store.KV
	cfg Config[T]
	log zerolog.Logger

	mu    sync.Mutex
	cache []T
}

func New[T any](ctx context.Context, kv store.KV, logger zerolog.Logger, cfg Config[T]) (*Repository[T], error) {
	r := &Repository[T]{
		kv:  kv,
		cfg: cfg,
		log: logger.With().Str("repository", strings.TrimSuffix(cfg.Prefix, "_")).Logger(),
	}
	if err := r.Sync(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Repository[T]) key(id string) string {
	return r.cfg.Prefix + id
}

// Sync rebuilds the cache from the store and applies the capacity policy.
func (r *Repository[T]) Sync(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entities, err := r.scan(ctx)
	if err != nil {
		return err
	}

	r.sortByCreatedAt(entities)

	if r.cfg.Capacity > 0 && len(entities) > r.cfg.Capacity {
		evicted := entities[r.cfg.Capacity:]
		entities = entities[:r.cfg.Capacity]
		r.evict(ctx, evicted)
	}

	r.cache = entities
	return nil
}

// scan reads every entity under the prefix. Records that no longer parse
// are skipped, not fatal; the store stays as-is for inspection.
func (r *Repository[T]) scan(ctx context.Context) ([]T, error) {
	keys, err := r.kv.ListKeys(ctx, r.cfg.Prefix)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", r.cfg.Prefix, err)
	}

	entities := make([]T, 0, len(keys))
	for _, key := range keys {
		raw, ok, err := r.kv.Get(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		if !ok {
			continue
		}

		var entity T
		if err := json.Unmarshal([]byte(raw), &entity); err != nil {
			r.log.Warn().Str("key", key).Err(err).Msg("skipping unreadable record")
			continue
		}

		r.cfg.SetID(&entity, strings.TrimPrefix(key, r.cfg.Prefix))
		if r.cfg.CreatedAt(&entity).IsZero() {
			r.cfg.SetCreatedAt(&entity, time.Now().UTC())
		}
		if r.cfg.Normalize != nil {
			r.cfg.Normalize(&entity)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

func (r *Repository[T]) sortByCreatedAt(entities []T) {
	sort.SliceStable(entities, func(i, j int) bool {
		a, b := r.cfg.CreatedAt(&entities[i]), r.cfg.CreatedAt(&entities[j])
		if r.cfg.NewestFirst {
			return a.After(b)
		}
		return a.Before(b)
	})
}

func (r *Repository[T]) evict(ctx context.Context, entities []T) {
	keys := make([]string, 0, len(entities))
	for i := range entities {
		keys = append(keys, r.key(r.cfg.ID(&entities[i])))
	}
	if err := r.kv.RemoveMulti(ctx, keys); err != nil {
		r.log.Error().Err(err).Int("count", len(keys)).Msg("capacity eviction failed")
		return
	}
	r.log.Info().Int("count", len(keys)).Msg("evicted oldest entries over capacity")
}

// List returns the cached collection. Callers get a copy; mutations must
// go through the repository.
func (r *Repository[T]) List() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.cache))
	copy(out, r.cache)
	return out
}

func (r *Repository[T]) GetByID(ctx context.Context, id string) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.cache {
		if r.cfg.ID(&r.cache[i]) == id {
			return r.cache[i], nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%s%s: %w", r.cfg.Prefix, id, ecoerr.ErrNotFound)
}

// Add assigns a fresh id and timestamps, enforces uniqueness against both
// the persisted store and the cache, persists, then updates the cache and
// applies the capacity policy.
func (r *Repository[T]) Add(ctx context.Context, entity T) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T

	if r.cfg.ConflictsWith != nil {
		persisted, err := r.scan(ctx)
		if err != nil {
			return zero, err
		}
		for _, pool := range [][]T{persisted, r.cache} {
			for i := range pool {
				if r.cfg.ConflictsWith(&entity, &pool[i]) {
					return zero, fmt.Errorf("%sadd: %w", r.cfg.Prefix, ecoerr.ErrDuplicate)
				}
			}
		}
	}

	id := ids.New()
	r.cfg.SetID(&entity, id)
	if r.cfg.CreatedAt(&entity).IsZero() {
		r.cfg.SetCreatedAt(&entity, time.Now().UTC())
	}
	if r.cfg.Normalize != nil {
		r.cfg.Normalize(&entity)
	}

	raw, err := json.Marshal(entity)
	if err != nil {
		return zero, fmt.Errorf("encode %s%s: %w", r.cfg.Prefix, id, err)
	}
	if err := r.kv.Set(ctx, r.key(id), string(raw)); err != nil {
		return zero, err
	}

	r.cache = append(r.cache, entity)
	r.sortByCreatedAt(r.cache)

	if r.cfg.Capacity > 0 && len(r.cache) > r.cfg.Capacity {
		var evicted []T
		if r.cfg.NewestFirst {
			evicted = r.cache[r.cfg.Capacity:]
			r.cache = r.cache[:r.cfg.Capacity]
		} else {
			over := len(r.cache) - r.cfg.Capacity
			evicted = r.cache[:over]
			r.cache = r.cache[over:]
		}
		r.evict(ctx, evicted)
	}

	return entity, nil
}

// Update shallow-merges patch onto the current record and stamps
// updatedAt. Any field present in patch fully replaces the old value.
func (r *Repository[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero T

	idx := -1
	for i := range r.cache {
		if r.cfg.ID(&r.cache[i]) == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return zero, fmt.Errorf("%s%s: %w", r.cfg.Prefix, id, ecoerr.ErrNotFound)
	}

	currentRaw, err := json.Marshal(r.cache[idx])
	if err != nil {
		return zero, fmt.Errorf("encode %s%s: %w", r.cfg.Prefix, id, err)
	}
	merged := map[string]any{}
	if err := json.Unmarshal(currentRaw, &merged); err != nil {
		return zero, fmt.Errorf("decode %s%s: %w", r.cfg.Prefix, id, err)
	}
	for field, value := range patch {
		merged[field] = value
	}
	merged["id"] = id
	merged["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

	mergedRaw, err := json.Marshal(merged)
	if err != nil {
		return zero, fmt.Errorf("encode %s%s: %w", r.cfg.Prefix, id, err)
	}
	var entity T
	if err := json.Unmarshal(mergedRaw, &entity); err != nil {
		return zero, fmt.Errorf("merge %s%s: %w", r.cfg.Prefix, id, err)
	}

	if err := r.kv.Set(ctx, r.key(id), string(mergedRaw)); err != nil {
		return zero, err
	}

	r.cache[idx] = entity
	return entity, nil
}

func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i := range r.cache {
		if r.cfg.ID(&r.cache[i]) == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		// The cache can trail the store between syncs.
		_, ok, err := r.kv.Get(ctx, r.key(id))
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s%s: %w", r.cfg.Prefix, id, ecoerr.ErrNotFound)
		}
	}

	if err := r.kv.Remove(ctx, r.key(id)); err != nil {
		return err
	}
	if idx >= 0 {
		r.cache = append(r.cache[:idx], r.cache[idx+1:]...)
	}
	return nil
}

// PatchMap converts a patch struct with pointer fields into the shallow
// merge map Update consumes. Nil fields are omitted.
func PatchMap(patch any) (map[string]any, error) {
	raw, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	out := map[string]any{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode patch: %w", err)
	}
	return out, nil
}

// Package storage is the dual-backend persistence adapter: a sqlite
// primary store and a JSON key-value fallback file, with a one-shot
// migration from the fallback into the primary. Persistence is
// best-effort throughout — a dead backend degrades the app, it never
// halts it.
package storage

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"korobochka/internal/tasks"
)

const (
	keyTasks      = "tasks"
	metaMigrated  = "migrated_v1"
	metaValueTrue = "true"
)

// Adapter bridges the task store to both backends. Whether the primary
// store is usable is decided once at Open and recorded as a capability
// flag; it is not re-probed per call.
type Adapter struct {
	primary   *Primary
	fallback  *Fallback
	log       hclog.Logger
	primaryOK bool
}

// Open initializes both backends and runs the migration check. A
// primary store that fails to open leaves the adapter in fallback-only
// mode rather than returning an error.
func Open(dbPath, fallbackPath string, log hclog.Logger) *Adapter {
	if log == nil {
		log = hclog.NewNullLogger()
	}
	a := &Adapter{
		fallback: NewFallback(fallbackPath),
		log:      log,
	}
	primary, err := OpenPrimary(dbPath)
	if err != nil {
		log.Warn("primary store unavailable, running on fallback only", "path", dbPath, "error", err)
		return a
	}
	a.primary = primary
	a.primaryOK = true
	if migrated, err := a.MigrateFromLegacyIfNeeded(); err != nil {
		log.Warn("legacy migration failed", "error", err)
	} else if migrated {
		log.Info("migrated legacy tasks into primary store")
	}
	return a
}

func (a *Adapter) Close() error {
	if a.primary != nil {
		return a.primary.Close()
	}
	return nil
}

// MigrateFromLegacyIfNeeded copies the fallback tasks blob into the
// primary store, at most once ever: it runs only when the migration
// meta flag is unset AND the primary table is empty, so data already in
// the primary store is never overwritten. Returns whether migration
// occurred.
func (a *Adapter) MigrateFromLegacyIfNeeded() (bool, error) {
	if !a.primaryOK {
		return false, nil
	}
	if _, done, err := a.primary.GetMeta(metaMigrated); err != nil {
		return false, err
	} else if done {
		return false, nil
	}
	if n, err := a.primary.Count(); err != nil {
		return false, err
	} else if n > 0 {
		return false, nil
	}
	var legacy []tasks.Task
	ok, err := a.fallback.GetJSON(keyTasks, &legacy)
	if err != nil || !ok || len(legacy) == 0 {
		return false, err
	}
	if err := a.primary.ReplaceAll(legacy); err != nil {
		return false, err
	}
	if err := a.primary.SetMeta(metaMigrated, metaValueTrue); err != nil {
		return false, err
	}
	return true, nil
}

// LoadAllTasks prefers the primary store and fails soft: on a primary
// error, or when the primary is empty, the fallback blob is used. Only
// a failure of both backends surfaces as an error.
func (a *Adapter) LoadAllTasks() ([]tasks.Task, error) {
	if a.primaryOK {
		list, err := a.primary.LoadAll()
		if err != nil {
			a.log.Warn("primary load failed, using fallback", "error", err)
		} else if len(list) > 0 {
			return list, nil
		}
	}
	var list []tasks.Task
	if _, err := a.fallback.GetJSON(keyTasks, &list); err != nil {
		return nil, fmt.Errorf("fallback load: %w", err)
	}
	return list, nil
}

// SaveAllTasks full-replaces the primary table and mirrors the same
// collection into the fallback blob for synchronous readers. The mirror
// is a cache: its errors are swallowed after logging. A primary error
// is returned so the caller can log it, but by contract the caller
// proceeds with its in-memory state either way.
func (a *Adapter) SaveAllTasks(list []tasks.Task) error {
	var primaryErr error
	if a.primaryOK {
		primaryErr = a.primary.ReplaceAll(list)
	}
	if err := a.fallback.PutJSON(keyTasks, list); err != nil {
		a.log.Warn("fallback mirror failed", "error", err)
	}
	return primaryErr
}

// GetJSON reads an auxiliary map from the fallback store.
func (a *Adapter) GetJSON(key string, into any) (bool, error) {
	return a.fallback.GetJSON(key, into)
}

// PutJSON writes an auxiliary map to the fallback store.
func (a *Adapter) PutJSON(key string, value any) error {
	return a.fallback.PutJSON(key, value)
}

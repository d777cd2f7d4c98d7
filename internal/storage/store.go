package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// SettingsStore is the external key/value settings store. It holds a mapping
// of named sub-objects ("custom settings"); each writer owns one key.
type SettingsStore interface {
	// ReadAll returns every sub-object currently stored. An empty store
	// returns an empty, non-nil mapping.
	ReadAll(ctx context.Context) (CustomSettings, error)
	// WriteAll replaces the stored mapping in a single atomic write.
	WriteAll(ctx context.Context, settings CustomSettings) error
	Close() error
}

// Package storage persists guild configuration records in SQLite.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a guild has no configuration record. Event
// handlers treat it as "everything disabled".
var ErrNotFound = errors.New("guild config not found")

// ConfigStore is the read/write surface over guild configuration.
type ConfigStore interface {
	GuildConfig(ctx context.Context, guildID string) (*GuildConfig, error)
	UpsertGuildConfig(ctx context.Context, cfg *GuildConfig) error
	Close() error
}

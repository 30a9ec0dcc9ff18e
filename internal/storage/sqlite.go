package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"github.com/TonsaiX/XerlBot/internal/embedtpl"
	"github.com/TonsaiX/XerlBot/internal/storage/migrations"
)

// SQLite implements ConfigStore backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at path and runs pending migrations.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA synchronous=NORMAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set synchronous mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

const configColumns = `
	guild_id,
	welcome_enabled, welcome_channel_id, welcome_embed,
	leave_enabled, leave_channel_id, leave_embed,
	alert_enabled, alert_channel_id, alert_embed,
	auto_role_enabled, auto_role_id,
	antispam_enabled, antispam_scope, antispam_channel_ids,
	antispam_window_sec, antispam_max_messages, antispam_action, antispam_timeout_sec,
	antilink_enabled, antilink_scope, antilink_channel_ids,
	antilink_allow_domains, antilink_action, antilink_timeout_sec,
	created_at, updated_at`

// GuildConfig returns the configuration record for a guild, or ErrNotFound.
func (s *SQLite) GuildConfig(ctx context.Context, guildID string) (*GuildConfig, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+configColumns+` FROM guild_configs WHERE guild_id = ?`, guildID)

	var (
		cfg                         GuildConfig
		welcomeEmbed, leaveEmbed    string
		alertEmbed                  string
		spamChannels, linkChannels  string
		allowDomains                string
		welcomeOn, leaveOn, alertOn int
		autoRoleOn, spamOn, linkOn  int
	)

	err := row.Scan(
		&cfg.GuildID,
		&welcomeOn, &cfg.WelcomeChannelID, &welcomeEmbed,
		&leaveOn, &cfg.LeaveChannelID, &leaveEmbed,
		&alertOn, &cfg.AlertChannelID, &alertEmbed,
		&autoRoleOn, &cfg.AutoRoleID,
		&spamOn, &cfg.AntiSpamScope, &spamChannels,
		&cfg.AntiSpamWindowSec, &cfg.AntiSpamMaxMessages, &cfg.AntiSpamAction, &cfg.AntiSpamTimeoutSec,
		&linkOn, &cfg.AntiLinkScope, &linkChannels,
		&allowDomains, &cfg.AntiLinkAction, &cfg.AntiLinkTimeoutSec,
		&cfg.CreatedAt, &cfg.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan guild config: %w", err)
	}

	cfg.WelcomeEnabled = welcomeOn != 0
	cfg.LeaveEnabled = leaveOn != 0
	cfg.AlertEnabled = alertOn != 0
	cfg.AutoRoleEnabled = autoRoleOn != 0
	cfg.AntiSpamEnabled = spamOn != 0
	cfg.AntiLinkEnabled = linkOn != 0

	if cfg.WelcomeEmbed, err = decodeEmbed(welcomeEmbed); err != nil {
		return nil, fmt.Errorf("decode welcome embed: %w", err)
	}
	if cfg.LeaveEmbed, err = decodeEmbed(leaveEmbed); err != nil {
		return nil, fmt.Errorf("decode leave embed: %w", err)
	}
	if cfg.AlertEmbed, err = decodeEmbed(alertEmbed); err != nil {
		return nil, fmt.Errorf("decode alert embed: %w", err)
	}
	if cfg.AntiSpamChannelIDs, err = decodeIDList(spamChannels); err != nil {
		return nil, fmt.Errorf("decode antispam channels: %w", err)
	}
	if cfg.AntiLinkChannelIDs, err = decodeIDList(linkChannels); err != nil {
		return nil, fmt.Errorf("decode antilink channels: %w", err)
	}
	if cfg.AntiLinkAllowDomains, err = decodeIDList(allowDomains); err != nil {
		return nil, fmt.Errorf("decode allow domains: %w", err)
	}

	return &cfg, nil
}

// UpsertGuildConfig writes a full configuration record.
func (s *SQLite) UpsertGuildConfig(ctx context.Context, cfg *GuildConfig) error {
	welcomeEmbed, err := encodeEmbed(cfg.WelcomeEmbed)
	if err != nil {
		return fmt.Errorf("encode welcome embed: %w", err)
	}
	leaveEmbed, err := encodeEmbed(cfg.LeaveEmbed)
	if err != nil {
		return fmt.Errorf("encode leave embed: %w", err)
	}
	alertEmbed, err := encodeEmbed(cfg.AlertEmbed)
	if err != nil {
		return fmt.Errorf("encode alert embed: %w", err)
	}

	now := time.Now().Unix()

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO guild_configs (`+configColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(guild_id) DO UPDATE SET
			welcome_enabled=excluded.welcome_enabled,
			welcome_channel_id=excluded.welcome_channel_id,
			welcome_embed=excluded.welcome_embed,
			leave_enabled=excluded.leave_enabled,
			leave_channel_id=excluded.leave_channel_id,
			leave_embed=excluded.leave_embed,
			alert_enabled=excluded.alert_enabled,
			alert_channel_id=excluded.alert_channel_id,
			alert_embed=excluded.alert_embed,
			auto_role_enabled=excluded.auto_role_enabled,
			auto_role_id=excluded.auto_role_id,
			antispam_enabled=excluded.antispam_enabled,
			antispam_scope=excluded.antispam_scope,
			antispam_channel_ids=excluded.antispam_channel_ids,
			antispam_window_sec=excluded.antispam_window_sec,
			antispam_max_messages=excluded.antispam_max_messages,
			antispam_action=excluded.antispam_action,
			antispam_timeout_sec=excluded.antispam_timeout_sec,
			antilink_enabled=excluded.antilink_enabled,
			antilink_scope=excluded.antilink_scope,
			antilink_channel_ids=excluded.antilink_channel_ids,
			antilink_allow_domains=excluded.antilink_allow_domains,
			antilink_action=excluded.antilink_action,
			antilink_timeout_sec=excluded.antilink_timeout_sec,
			updated_at=excluded.updated_at`,
		cfg.GuildID,
		boolToInt(cfg.WelcomeEnabled), cfg.WelcomeChannelID, welcomeEmbed,
		boolToInt(cfg.LeaveEnabled), cfg.LeaveChannelID, leaveEmbed,
		boolToInt(cfg.AlertEnabled), cfg.AlertChannelID, alertEmbed,
		boolToInt(cfg.AutoRoleEnabled), cfg.AutoRoleID,
		boolToInt(cfg.AntiSpamEnabled), defaultScope(cfg.AntiSpamScope), encodeIDList(cfg.AntiSpamChannelIDs),
		cfg.AntiSpamWindowSec, cfg.AntiSpamMaxMessages, cfg.AntiSpamAction, cfg.AntiSpamTimeoutSec,
		boolToInt(cfg.AntiLinkEnabled), defaultScope(cfg.AntiLinkScope), encodeIDList(cfg.AntiLinkChannelIDs),
		encodeIDList(cfg.AntiLinkAllowDomains), cfg.AntiLinkAction, cfg.AntiLinkTimeoutSec,
		now, now,
	)
	if err != nil {
		return fmt.Errorf("upsert guild config: %w", err)
	}
	return nil
}

func decodeEmbed(raw string) (*embedtpl.Template, error) {
	if raw == "" {
		return nil, nil
	}
	var tpl embedtpl.Template
	if err := json.Unmarshal([]byte(raw), &tpl); err != nil {
		return nil, err
	}
	return &tpl, nil
}

func encodeEmbed(tpl *embedtpl.Template) (string, error) {
	if tpl == nil {
		return "", nil
	}
	data, err := json.Marshal(tpl)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeIDList(raw string) ([]string, error) {
	if raw == "" || raw == "[]" {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, err
	}
	return list, nil
}

func encodeIDList(list []string) string {
	if len(list) == 0 {
		return "[]"
	}
	data, _ := json.Marshal(list)
	return string(data)
}

func defaultScope(scope string) string {
	if scope == "" {
		return ScopeGuild
	}
	return scope
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package store

import (
	"fmt"
	"time"
)

// History retention: newest historyMaxEntries rows within historyMaxAge, per guild.
const (
	historyMaxEntries = 500
	historyMaxAge     = 180 * 24 * time.Hour
)

// HistoryEntry is one append-only admin action record.
type HistoryEntry struct {
	ID        int64
	GuildID   string
	ActorID   string
	Action    string
	Details   string
	CreatedAt time.Time
}

// AppendHistory records an admin action and prunes the guild's history to
// the retention caps.
func (s *Store) AppendHistory(guildID, actorID, action, details string) error {
	_, err := s.db.Exec(`INSERT INTO admin_history (guild_id, actor_id, action, details)
		VALUES (?, ?, ?, ?)`, guildID, actorID, action, details)
	if err != nil {
		return fmt.Errorf("store: append history %s: %w", guildID, err)
	}
	return s.pruneHistory(guildID)
}

func (s *Store) pruneHistory(guildID string) error {
	cutoff := time.Now().UTC().Add(-historyMaxAge).Format("2006-01-02 15:04:05")
	if _, err := s.db.Exec(
		`DELETE FROM admin_history WHERE guild_id = ? AND created_at < ?`, guildID, cutoff); err != nil {
		return fmt.Errorf("store: prune history age %s: %w", guildID, err)
	}

	_, err := s.db.Exec(`DELETE FROM admin_history WHERE guild_id = ? AND id NOT IN (
		SELECT id FROM admin_history WHERE guild_id = ? ORDER BY id DESC LIMIT ?
	)`, guildID, guildID, historyMaxEntries)
	if err != nil {
		return fmt.Errorf("store: prune history count %s: %w", guildID, err)
	}
	return nil
}

// ListHistory returns the newest history entries for a guild, most recent first.
func (s *Store) ListHistory(guildID string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 || limit > historyMaxEntries {
		limit = historyMaxEntries
	}
	rows, err := s.db.Query(`SELECT id, guild_id, actor_id, action, details, created_at
		FROM admin_history WHERE guild_id = ? ORDER BY id DESC LIMIT ?`, guildID, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list history %s: %w", guildID, err)
	}
	defer rows.Close()

	var out []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(&e.ID, &e.GuildID, &e.ActorID, &e.Action, &e.Details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan history: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

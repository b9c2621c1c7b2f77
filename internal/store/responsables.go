package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Responsable maps a responsible party to its Discord channel and roster.
type Responsable struct {
	GuildID   string
	Name      string
	ChannelID string
	MemberIDs []string
	CreatedAt time.Time
}

// HasMember reports whether a Discord user id is on the roster.
func (r Responsable) HasMember(userID string) bool {
	for _, id := range r.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// UpsertResponsable creates or replaces a responsable mapping.
func (s *Store) UpsertResponsable(r Responsable) error {
	members, err := json.Marshal(r.MemberIDs)
	if err != nil {
		return fmt.Errorf("store: marshal members: %w", err)
	}
	_, err = s.db.Exec(`INSERT INTO responsables (guild_id, name, channel_id, member_ids)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(guild_id, name) DO UPDATE SET
			channel_id = excluded.channel_id,
			member_ids = excluded.member_ids`,
		r.GuildID, r.Name, r.ChannelID, string(members))
	if err != nil {
		return fmt.Errorf("store: upsert responsable %s/%s: %w", r.GuildID, r.Name, err)
	}
	return nil
}

// DeleteResponsable removes a responsable mapping.
func (s *Store) DeleteResponsable(guildID, name string) error {
	_, err := s.db.Exec(`DELETE FROM responsables WHERE guild_id = ? AND name = ?`, guildID, name)
	if err != nil {
		return fmt.Errorf("store: delete responsable %s/%s: %w", guildID, name, err)
	}
	return nil
}

func scanResponsable(row interface{ Scan(...any) error }) (Responsable, error) {
	var r Responsable
	var members string
	if err := row.Scan(&r.GuildID, &r.Name, &r.ChannelID, &members, &r.CreatedAt); err != nil {
		return Responsable{}, err
	}
	if err := json.Unmarshal([]byte(members), &r.MemberIDs); err != nil {
		return Responsable{}, fmt.Errorf("unmarshal members: %w", err)
	}
	return r, nil
}

const responsableColumns = `guild_id, name, channel_id, member_ids, created_at`

// GetResponsable returns the responsable with the given name or ErrNotFound.
func (s *Store) GetResponsable(guildID, name string) (Responsable, error) {
	row := s.db.QueryRow(`SELECT `+responsableColumns+` FROM responsables
		WHERE guild_id = ? AND name = ?`, guildID, name)
	r, err := scanResponsable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Responsable{}, fmt.Errorf("store: responsable %s/%s: %w", guildID, name, ErrNotFound)
	}
	if err != nil {
		return Responsable{}, fmt.Errorf("store: get responsable %s/%s: %w", guildID, name, err)
	}
	return r, nil
}

// ResponsableByChannel returns the responsable owning a channel or ErrNotFound.
func (s *Store) ResponsableByChannel(guildID, channelID string) (Responsable, error) {
	row := s.db.QueryRow(`SELECT `+responsableColumns+` FROM responsables
		WHERE guild_id = ? AND channel_id = ?`, guildID, channelID)
	r, err := scanResponsable(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Responsable{}, fmt.Errorf("store: channel %s: %w", channelID, ErrNotFound)
	}
	if err != nil {
		return Responsable{}, fmt.Errorf("store: responsable by channel %s: %w", channelID, err)
	}
	return r, nil
}

// ListResponsables returns every responsable of a guild.
func (s *Store) ListResponsables(guildID string) ([]Responsable, error) {
	rows, err := s.db.Query(`SELECT `+responsableColumns+` FROM responsables
		WHERE guild_id = ? ORDER BY name`, guildID)
	if err != nil {
		return nil, fmt.Errorf("store: list responsables %s: %w", guildID, err)
	}
	defer rows.Close()

	var out []Responsable
	for rows.Next() {
		r, err := scanResponsable(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan responsable: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// Guild is the persisted configuration for one Discord guild.
type Guild struct {
	GuildID         string
	ClickUpTokenEnc string
	TeamID          string
	DefaultSpaceID  string
	DefaultListID   string
	Timezone        string
	AdminRoleID     string
	MorningTime     string
	DigestTime      string
	OverdueTime     string
	TomorrowTime    string
	StatsTime       string
	CompletedTime   string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ScheduleTimes returns the configured job times keyed by job name.
// Empty values mean the job is disabled for the guild.
func (g Guild) ScheduleTimes() map[string]string {
	return map[string]string{
		"morning":   g.MorningTime,
		"digest":    g.DigestTime,
		"overdue":   g.OverdueTime,
		"tomorrow":  g.TomorrowTime,
		"stats":     g.StatsTime,
		"completed": g.CompletedTime,
	}
}

const guildColumns = `guild_id, clickup_token_enc, team_id, default_space_id, default_list_id,
	timezone, admin_role_id, morning_time, digest_time, overdue_time, tomorrow_time,
	stats_time, completed_time, created_at, updated_at`

func scanGuild(row interface{ Scan(...any) error }) (Guild, error) {
	var g Guild
	err := row.Scan(&g.GuildID, &g.ClickUpTokenEnc, &g.TeamID, &g.DefaultSpaceID,
		&g.DefaultListID, &g.Timezone, &g.AdminRoleID, &g.MorningTime, &g.DigestTime,
		&g.OverdueTime, &g.TomorrowTime, &g.StatsTime, &g.CompletedTime,
		&g.CreatedAt, &g.UpdatedAt)
	return g, err
}

// GetGuild returns the configuration for one guild or ErrNotFound.
func (s *Store) GetGuild(guildID string) (Guild, error) {
	row := s.db.QueryRow(`SELECT `+guildColumns+` FROM guilds WHERE guild_id = ?`, guildID)
	g, err := scanGuild(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Guild{}, fmt.Errorf("store: guild %s: %w", guildID, ErrNotFound)
	}
	if err != nil {
		return Guild{}, fmt.Errorf("store: get guild %s: %w", guildID, err)
	}
	return g, nil
}

// EnsureGuild inserts an empty row for the guild if none exists.
func (s *Store) EnsureGuild(guildID string) error {
	_, err := s.db.Exec(`INSERT INTO guilds (guild_id) VALUES (?)
		ON CONFLICT(guild_id) DO NOTHING`, guildID)
	if err != nil {
		return fmt.Errorf("store: ensure guild %s: %w", guildID, err)
	}
	return nil
}

// ListGuilds returns every configured guild.
func (s *Store) ListGuilds() ([]Guild, error) {
	rows, err := s.db.Query(`SELECT ` + guildColumns + ` FROM guilds ORDER BY guild_id`)
	if err != nil {
		return nil, fmt.Errorf("store: list guilds: %w", err)
	}
	defer rows.Close()

	var out []Guild
	for rows.Next() {
		g, err := scanGuild(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan guild: %w", err)
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// SetGuildToken stores the encrypted ClickUp token and team id for a guild.
func (s *Store) SetGuildToken(guildID, tokenEnc, teamID string) error {
	return s.updateGuild(guildID, `clickup_token_enc = ?, team_id = ?`, tokenEnc, teamID)
}

// SetGuildDefaults stores the default space and list for a guild.
func (s *Store) SetGuildDefaults(guildID, spaceID, listID string) error {
	return s.updateGuild(guildID, `default_space_id = ?, default_list_id = ?`, spaceID, listID)
}

// SetGuildTimezone stores the schedule timezone for a guild.
func (s *Store) SetGuildTimezone(guildID, tz string) error {
	return s.updateGuild(guildID, `timezone = ?`, tz)
}

// SetGuildAdminRole stores the admin role id for a guild.
func (s *Store) SetGuildAdminRole(guildID, roleID string) error {
	return s.updateGuild(guildID, `admin_role_id = ?`, roleID)
}

var scheduleColumns = map[string]string{
	"morning":   "morning_time",
	"digest":    "digest_time",
	"overdue":   "overdue_time",
	"tomorrow":  "tomorrow_time",
	"stats":     "stats_time",
	"completed": "completed_time",
}

// SetScheduleTime stores a job fire time ("HH:MM" or bare hour, already
// validated by the caller) for a guild. An empty value disables the job.
func (s *Store) SetScheduleTime(guildID, job, value string) error {
	col, ok := scheduleColumns[job]
	if !ok {
		return fmt.Errorf("store: unknown schedule job %q", job)
	}
	return s.updateGuild(guildID, col+` = ?`, value)
}

func (s *Store) updateGuild(guildID, setClause string, args ...any) error {
	args = append(args, guildID)
	res, err := s.db.Exec(
		`UPDATE guilds SET `+setClause+`, updated_at = datetime('now') WHERE guild_id = ?`, args...)
	if err != nil {
		return fmt.Errorf("store: update guild %s: %w", guildID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update guild %s: %w", guildID, err)
	}
	if n == 0 {
		return fmt.Errorf("store: guild %s: %w", guildID, ErrNotFound)
	}
	return nil
}

// Project is one entry of a guild's ClickUp space allow-list.
type Project struct {
	GuildID string
	SpaceID string
	Name    string
}

// AddProject adds a space to the guild allow-list, updating the name on conflict.
func (s *Store) AddProject(guildID, spaceID, name string) error {
	_, err := s.db.Exec(`INSERT INTO guild_projects (guild_id, space_id, name) VALUES (?, ?, ?)
		ON CONFLICT(guild_id, space_id) DO UPDATE SET name = excluded.name`,
		guildID, spaceID, name)
	if err != nil {
		return fmt.Errorf("store: add project %s/%s: %w", guildID, spaceID, err)
	}
	return nil
}

// RemoveProject removes a space from the guild allow-list.
func (s *Store) RemoveProject(guildID, spaceID string) error {
	_, err := s.db.Exec(`DELETE FROM guild_projects WHERE guild_id = ? AND space_id = ?`,
		guildID, spaceID)
	if err != nil {
		return fmt.Errorf("store: remove project %s/%s: %w", guildID, spaceID, err)
	}
	return nil
}

// ListProjects returns the guild's space allow-list.
func (s *Store) ListProjects(guildID string) ([]Project, error) {
	rows, err := s.db.Query(
		`SELECT guild_id, space_id, name FROM guild_projects WHERE guild_id = ? ORDER BY name`,
		guildID)
	if err != nil {
		return nil, fmt.Errorf("store: list projects %s: %w", guildID, err)
	}
	defer rows.Close()

	var out []Project
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.GuildID, &p.SpaceID, &p.Name); err != nil {
			return nil, fmt.Errorf("store: scan project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

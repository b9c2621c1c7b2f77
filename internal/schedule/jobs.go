package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/pager"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/store"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/task"
)

const jobTimeout = 2 * time.Minute

const dayMillis = 24 * 60 * 60 * 1000

// runJob executes one job for one guild, fanning out per responsable.
// Failures are isolated: one responsable's error never stops the others.
func (s *Scheduler) runJob(ctx context.Context, guildID, job string) {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()

	g, err := s.store.GetGuild(guildID)
	if err != nil {
		s.log.Error("guild load failed", "guild", guildID, "error", err)
		return
	}
	if g.ClickUpTokenEnc == "" {
		return
	}
	token, err := s.cipher.Open(g.ClickUpTokenEnc)
	if err != nil {
		s.log.Error("token open failed", "guild", guildID, "error", err)
		return
	}
	api := s.newClient(token)
	loc := s.guildLocation(g)

	spaceIDs, err := s.spaceIDs(ctx, api, g)
	if err != nil {
		s.log.Error("space listing failed", "guild", guildID, "job", job, "error", err)
		return
	}
	responsables, err := s.store.ListResponsables(guildID)
	if err != nil {
		s.log.Error("responsable listing failed", "guild", guildID, "error", err)
		return
	}

	for _, r := range responsables {
		r := r
		func() {
			defer func() {
				if p := recover(); p != nil {
					s.log.Error("job panicked", "guild", guildID, "job", job, "responsable", r.Name, "panic", p)
				}
			}()
			if err := s.runForResponsable(ctx, job, api, spaceIDs, r, loc); err != nil {
				s.log.Error("job failed", "guild", guildID, "job", job, "responsable", r.Name, "error", err)
			}
		}()
	}
}

func (s *Scheduler) spaceIDs(ctx context.Context, api Client, g store.Guild) ([]string, error) {
	projects, err := s.store.ListProjects(g.GuildID)
	if err != nil {
		return nil, err
	}
	if len(projects) > 0 {
		ids := make([]string, 0, len(projects))
		for _, p := range projects {
			ids = append(ids, p.SpaceID)
		}
		return ids, nil
	}
	spaces, err := api.Spaces(ctx, g.TeamID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(spaces))
	for _, sp := range spaces {
		ids = append(ids, sp.ID)
	}
	return ids, nil
}

func (s *Scheduler) runForResponsable(ctx context.Context, job string, api Client, spaceIDs []string, r store.Responsable, loc *time.Location) error {
	switch job {
	case "morning":
		return s.jobBriefing(ctx, api, spaceIDs, r, loc, "🌅 Briefing du matin — "+r.Name, false)
	case "digest":
		return s.jobBriefing(ctx, api, spaceIDs, r, loc, "🗞️ Digest de la semaine — "+r.Name, true)
	case "overdue":
		return s.jobOverdue(ctx, api, spaceIDs, r, loc)
	case "tomorrow":
		return s.jobTomorrow(ctx, api, spaceIDs, r, loc)
	case "stats":
		return s.jobStats(ctx, api, spaceIDs, r, loc)
	case "completed":
		return s.jobCompleted(ctx, api, spaceIDs, r, loc)
	}
	return fmt.Errorf("schedule: unknown job %q", job)
}

// jobBriefing sends an interactive task page to the responsable channel and
// stores the session under the channel key so the buttons keep working. The
// digest variant pins the message best-effort.
func (s *Scheduler) jobBriefing(ctx context.Context, api Client, spaceIDs []string, r store.Responsable, loc *time.Location, title string, pin bool) error {
	tasks, err := task.FetchOpen(ctx, api, spaceIDs, r.Name, task.FetchOptions{Now: s.now(), Location: loc})
	if err != nil {
		return err
	}

	sess := &pager.Session{
		Tasks:       tasks,
		Responsable: r.Name,
		GuildID:     r.GuildID,
		ChannelID:   r.ChannelID,
	}
	view := pager.Render(sess, r.ChannelID, title)
	msg, err := s.sender.SendMessage(r.ChannelID, view.Embeds, view.Components)
	if err != nil {
		return err
	}
	sess.MessageID = msg.ID
	s.lists.Put(r.ChannelID, sess)

	if pin {
		if err := s.sender.Pin(r.ChannelID, msg.ID); err != nil {
			s.log.Warn("pin failed", "channel", r.ChannelID, "error", err)
		}
	}
	return nil
}

// jobOverdue lists the tasks whose due date is strictly before today.
func (s *Scheduler) jobOverdue(ctx context.Context, api Client, spaceIDs []string, r store.Responsable, loc *time.Location) error {
	tasks, err := task.FetchOpen(ctx, api, spaceIDs, r.Name, task.FetchOptions{Now: s.now(), Location: loc})
	if err != nil {
		return err
	}

	today := task.TodayUTC(s.now(), loc).UnixMilli()
	var overdue []task.Summary
	for _, t := range tasks {
		if t.Due != 0 && t.Due < today {
			overdue = append(overdue, t)
		}
	}
	if len(overdue) == 0 {
		return nil
	}
	return s.sendTaskEmbed(r.ChannelID, "⏰ Tâches en retard — "+r.Name, overdue, 0xED4245)
}

// jobTomorrow lists the tasks due tomorrow, including those that have not
// started yet.
func (s *Scheduler) jobTomorrow(ctx context.Context, api Client, spaceIDs []string, r store.Responsable, loc *time.Location) error {
	tasks, err := task.FetchOpen(ctx, api, spaceIDs, r.Name, task.FetchOptions{
		IgnoreStartDate: true,
		Now:             s.now(),
		Location:        loc,
	})
	if err != nil {
		return err
	}

	tomorrow := task.TodayUTC(s.now(), loc).UnixMilli() + dayMillis
	var due []task.Summary
	for _, t := range tasks {
		if t.Due >= tomorrow && t.Due < tomorrow+dayMillis {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	return s.sendTaskEmbed(r.ChannelID, "📅 Échéances de demain — "+r.Name, due, 0xFEE75C)
}

// jobStats posts the weekly numbers: completed since Monday, still open.
func (s *Scheduler) jobStats(ctx context.Context, api Client, spaceIDs []string, r store.Responsable, loc *time.Location) error {
	now := s.now()
	weekStart := task.StartOfDay(now, loc)
	for weekStart.Weekday() != time.Monday {
		weekStart = weekStart.AddDate(0, 0, -1)
	}

	completed, err := task.FetchCompletedSince(ctx, api, spaceIDs, r.Name, weekStart)
	if err != nil {
		return err
	}
	open, err := task.FetchOpen(ctx, api, spaceIDs, r.Name, task.FetchOptions{Now: now, Location: loc})
	if err != nil {
		return err
	}

	_, err = s.sender.SendMessage(r.ChannelID, []*discordgo.MessageEmbed{{
		Title: "📊 Stats de la semaine — " + r.Name,
		Color: 0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Achevées cette semaine", Value: fmt.Sprintf("%d", len(completed)), Inline: true},
			{Name: "Encore ouvertes", Value: fmt.Sprintf("%d", len(open)), Inline: true},
		},
	}}, nil)
	return err
}

// jobCompleted recaps what was finished today.
func (s *Scheduler) jobCompleted(ctx context.Context, api Client, spaceIDs []string, r store.Responsable, loc *time.Location) error {
	since := task.StartOfDay(s.now(), loc)
	completed, err := task.FetchCompletedSince(ctx, api, spaceIDs, r.Name, since)
	if err != nil {
		return err
	}
	if len(completed) == 0 {
		return nil
	}
	return s.sendTaskEmbed(r.ChannelID, "✅ Achevées aujourd'hui — "+r.Name, completed, 0x57F287)
}

func (s *Scheduler) sendTaskEmbed(channelID, title string, tasks []task.Summary, color int) error {
	description := ""
	for i, t := range tasks {
		line := fmt.Sprintf("%d. %s %s", i+1, t.Status.Glyph(), t.Name)
		if t.Due != 0 {
			line += " · 📅 " + time.UnixMilli(t.Due).UTC().Format("02/01")
		}
		if description != "" {
			description += "\n"
		}
		description += line
	}
	if len(description) > 4096 {
		runes := []rune(description)
		for len(string(runes))+len("…") > 4096 {
			runes = runes[:len(runes)-1]
		}
		description = string(runes) + "…"
	}

	_, err := s.sender.SendMessage(channelID, []*discordgo.MessageEmbed{{
		Title:       title,
		Description: description,
		Color:       color,
	}}, nil)
	return err
}

var _ Client = (*clickup.Client)(nil)

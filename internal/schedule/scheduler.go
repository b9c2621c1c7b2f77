package schedule

import (
	"container/heap"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/crypto"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/pager"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/session"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/store"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/task"
)

// Client is the remote surface the jobs need.
type Client interface {
	task.API
	Spaces(ctx context.Context, teamID string) ([]clickup.Space, error)
}

// Sender posts and pins channel messages. The router's Responder satisfies it.
type Sender interface {
	SendMessage(channelID string, embeds []*discordgo.MessageEmbed, components []discordgo.MessageComponent) (*discordgo.Message, error)
	Pin(channelID, messageID string) error
}

// jobDays maps each job to the weekdays it may fire on.
var jobDays = map[string]map[time.Weekday]bool{
	"morning":   weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
	"digest":    weekdays(time.Monday),
	"overdue":   weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
	"tomorrow":  weekdays(time.Sunday, time.Monday, time.Tuesday, time.Wednesday, time.Thursday),
	"stats":     weekdays(time.Friday),
	"completed": weekdays(time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday),
}

func weekdays(days ...time.Weekday) map[time.Weekday]bool {
	m := make(map[time.Weekday]bool, len(days))
	for _, d := range days {
		m[d] = true
	}
	return m
}

const (
	tickInterval    = 30 * time.Second
	rebuildInterval = 10 * time.Minute
)

// Scheduler fires the recurring guild jobs from a next-fire priority queue.
type Scheduler struct {
	log        *slog.Logger
	store      *store.Store
	cipher     *crypto.TokenCipher
	newClient  func(token string) Client
	sender     Sender
	lists      *session.Store[*pager.Session]
	defaultLoc *time.Location
	now        func() time.Time

	mu sync.Mutex
	q  queue
}

// New wires a scheduler.
func New(
	log *slog.Logger,
	st *store.Store,
	cipher *crypto.TokenCipher,
	newClient func(token string) Client,
	sender Sender,
	lists *session.Store[*pager.Session],
	defaultLoc *time.Location,
) *Scheduler {
	return &Scheduler{
		log:        log.With("component", "scheduler"),
		store:      st,
		cipher:     cipher,
		newClient:  newClient,
		sender:     sender,
		lists:      lists,
		defaultLoc: defaultLoc,
		now:        time.Now,
	}
}

// Run rebuilds the queue, then pops due entries on a coarse tick until ctx is
// cancelled. A popped entry fires exactly once; its next occurrence is pushed
// back immediately.
func (s *Scheduler) Run(ctx context.Context) {
	s.rebuild()

	tick := time.NewTicker(tickInterval)
	defer tick.Stop()
	rebuild := time.NewTicker(rebuildInterval)
	defer rebuild.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-rebuild.C:
			s.rebuild()
		case <-tick.C:
			for _, e := range s.popDue() {
				e := e
				go func() {
					defer func() {
						if r := recover(); r != nil {
							s.log.Error("job panicked", "guild", e.guildID, "job", e.job, "panic", r)
						}
					}()
					s.runJob(ctx, e.guildID, e.job)
				}()
				s.pushNext(e.guildID, e.job)
			}
		}
	}
}

// rebuild recomputes the whole queue from the store: every guild, every job
// with a configured time.
func (s *Scheduler) rebuild() {
	guilds, err := s.store.ListGuilds()
	if err != nil {
		s.log.Error("list guilds failed", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Entries whose fire time has already passed stay queued so the next
	// tick still pops them; recomputing from now would skip the occurrence.
	now := s.now()
	due := make(map[string]*entry)
	for _, e := range s.q {
		if !e.fireAt.After(now) {
			due[e.guildID+"|"+e.job] = e
		}
	}

	s.q = s.q[:0]
	for _, g := range guilds {
		loc := s.guildLocation(g)
		for job, value := range g.ScheduleTimes() {
			if value == "" {
				continue
			}
			hour, minute, err := ParseClock(value)
			if err != nil {
				s.log.Warn("bad schedule time", "guild", g.GuildID, "job", job, "value", value)
				continue
			}
			if e, ok := due[g.GuildID+"|"+job]; ok {
				s.q = append(s.q, e)
				continue
			}
			s.q = append(s.q, &entry{
				fireAt:  NextFire(now, loc, hour, minute, jobDays[job]),
				guildID: g.GuildID,
				job:     job,
			})
		}
	}
	heap.Init(&s.q)
}

// popDue removes and returns every entry whose fire time has passed.
func (s *Scheduler) popDue() []*entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	var due []*entry
	for len(s.q) > 0 && !s.q[0].fireAt.After(now) {
		due = append(due, heap.Pop(&s.q).(*entry))
	}
	return due
}

// pushNext schedules the next occurrence of a just-fired job, re-reading the
// guild so time changes take effect.
func (s *Scheduler) pushNext(guildID, job string) {
	g, err := s.store.GetGuild(guildID)
	if err != nil {
		s.log.Warn("guild reload failed", "guild", guildID, "error", err)
		return
	}
	value := g.ScheduleTimes()[job]
	if value == "" {
		return
	}
	hour, minute, err := ParseClock(value)
	if err != nil {
		return
	}
	next := NextFire(s.now(), s.guildLocation(g), hour, minute, jobDays[job])

	s.mu.Lock()
	heap.Push(&s.q, &entry{fireAt: next, guildID: guildID, job: job})
	s.mu.Unlock()
}

func (s *Scheduler) guildLocation(g store.Guild) *time.Location {
	if g.Timezone != "" {
		if loc, err := time.LoadLocation(g.Timezone); err == nil {
			return loc
		}
	}
	if s.defaultLoc != nil {
		return s.defaultLoc
	}
	return time.UTC
}

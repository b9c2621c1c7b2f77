package router

import (
	"context"
	"fmt"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/customid"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/pager"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/task"
)

// commandTacheListe fetches the channel responsable's open tasks and opens a
// pager session keyed by the invoker.
func (h *Handlers) commandTacheListe(i *discordgo.InteractionCreate, projectFilter string) {
	api, g, err := h.guildClient(i.GuildID)
	if err != nil {
		h.remoteNotice(i, err)
		return
	}
	r, ok := h.entryCheck(i, g)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	spaceIDs, err := h.spaceIDs(ctx, api, g, projectFilter)
	if err != nil {
		h.remoteNotice(i, err)
		return
	}
	if len(spaceIDs) == 0 {
		h.ephemeral(i, "Aucun projet ne correspond.")
		return
	}

	tasks, err := task.FetchOpen(ctx, api, spaceIDs, r.Name, task.FetchOptions{
		Now:      h.now(),
		Location: h.guildLocation(g),
	})
	if err != nil {
		h.remoteNotice(i, err)
		return
	}

	key := invokerID(i)
	s := &pager.Session{Tasks: tasks, Responsable: r.Name, GuildID: i.GuildID}
	h.lists.Put(key, s)

	view := pager.Render(s, key, listTitle(r.Name))
	err = h.resp.Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     view.Embeds,
			Components: view.Components,
		},
	})
	if err != nil {
		h.log.Warn("list message failed", "error", err)
	}
}

func listTitle(responsable string) string {
	return "📋 Tâches — " + responsable
}

// sessionFor loads a pager session, answering the expiry notice when it is
// gone.
func (h *Handlers) sessionFor(i *discordgo.InteractionCreate, key string) (*pager.Session, bool) {
	s, ok := h.lists.Get(key)
	if !ok {
		h.ephemeral(i, noticeExpired)
		return nil, false
	}
	return s, true
}

func (h *Handlers) listPage(i *discordgo.InteractionCreate, id customid.ID) {
	s, ok := h.sessionFor(i, id.Key)
	if !ok {
		return
	}
	s.Advance(id.Arg)
	view := pager.Render(s, id.Key, listTitle(s.Responsable))
	h.update(i, view.Embeds, view.Components)
}

func (h *Handlers) listPick(i *discordgo.InteractionCreate, id customid.ID) {
	s, ok := h.sessionFor(i, id.Key)
	if !ok {
		return
	}
	value, ok := selectedValue(i)
	if !ok {
		return
	}
	index, err := strconv.Atoi(value)
	if err != nil {
		h.log.Warn("bad pick value", "error", err)
		return
	}
	view := pager.StatusView(s, id.Key, index)
	h.update(i, view.Embeds, view.Components)
}

func (h *Handlers) listBack(i *discordgo.InteractionCreate, id customid.ID) {
	s, ok := h.sessionFor(i, id.Key)
	if !ok {
		return
	}
	view := pager.Render(s, id.Key, listTitle(s.Responsable))
	h.update(i, view.Embeds, view.Components)
}

// listStatus performs one status transition: resolve the target against the
// list's real vocabulary, guard Achevée on parents with open subtasks, then
// mutate the cached session only after the remote update succeeded.
func (h *Handlers) listStatus(i *discordgo.InteractionCreate, id customid.ID) {
	s, ok := h.sessionFor(i, id.Key)
	if !ok {
		return
	}
	indexRaw, targetRaw, err := customid.DecodePair(id.Arg)
	if err != nil {
		h.log.Warn("bad status arg", "error", err)
		return
	}
	index, err := strconv.Atoi(indexRaw)
	if err != nil {
		h.log.Warn("bad status index", "error", err)
		return
	}
	t, ok := s.TaskAt(index)
	if !ok {
		view := pager.Render(s, id.Key, listTitle(s.Responsable))
		h.update(i, view.Embeds, view.Components)
		return
	}
	target := task.DisplayStatus(targetRaw)

	api, _, err := h.guildClient(i.GuildID)
	if err != nil {
		h.remoteNotice(i, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	detail, err := api.ListDetail(ctx, t.ListID)
	if err != nil {
		h.remoteNotice(i, err)
		return
	}
	resolved, err := task.ResolveStatus(detail.Statuses, target)
	if err != nil {
		h.ephemeral(i, "Ce statut n'existe pas dans la liste ClickUp.")
		return
	}

	if target == task.StatusDone && !t.IsSubtask {
		full, err := api.Task(ctx, t.ID)
		if err != nil {
			h.remoteNotice(i, err)
			return
		}
		if incomplete := task.IncompleteSubtasks(full); len(incomplete) > 0 {
			view := pager.BlockedView(id.Key, t.Name, incomplete)
			h.update(i, view.Embeds, view.Components)
			return
		}
	}

	if err := api.SetTaskStatus(ctx, t.ID, resolved.Status); err != nil {
		// Session untouched; the next render still shows the old status.
		h.remoteNotice(i, err)
		return
	}

	s.ApplyStatusChange(index, target)

	details := fmt.Sprintf("tâche %s (%s) -> %s", t.ID, t.Name, target)
	if err := h.store.AppendHistory(i.GuildID, invokerID(i), "task_status", details); err != nil {
		h.log.Warn("history append failed", "error", err)
	}

	view := pager.Render(s, id.Key, listTitle(s.Responsable))
	h.update(i, view.Embeds, view.Components)

	// Scheduler sessions track a channel message; keep it in sync too.
	if s.MessageID != "" && s.ChannelID != "" && s.MessageID != messageID(i) {
		if err := h.resp.EditMessage(s.ChannelID, s.MessageID, view.Embeds, view.Components); err != nil {
			h.log.Warn("tracked message edit failed", "message", s.MessageID, "error", err)
		}
	}
}

func messageID(i *discordgo.InteractionCreate) string {
	if i.Message != nil {
		return i.Message.ID
	}
	return ""
}

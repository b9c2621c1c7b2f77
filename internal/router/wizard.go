package router

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/customid"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/task"
	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/wizard"
)

const interactionTimeout = 10 * time.Second

// commandTacheAdd opens the creation wizard: entry check, then the name
// modal. The draft itself is created when the modal comes back.
func (h *Handlers) commandTacheAdd(i *discordgo.InteractionCreate) {
	_, g, err := h.guildClient(i.GuildID)
	if err != nil {
		h.remoteNotice(i, err)
		return
	}
	if _, ok := h.entryCheck(i, g); !ok {
		return
	}

	err = h.resp.Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: wizard.NameModal(),
	})
	if err != nil {
		h.log.Warn("name modal failed", "error", err)
	}
}

// wizardNameSubmitted creates the draft and posts the location step as the
// draft's single tracked message.
func (h *Handlers) wizardNameSubmitted(i *discordgo.InteractionCreate, _ customid.ID) {
	name := strings.TrimSpace(modalValue(i.ModalSubmitData(), "name"))
	if name == "" || len([]rune(name)) > wizard.MaxNameLength {
		h.ephemeral(i, "Le nom de la tâche est requis (100 caractères max).")
		return
	}

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
	spaces, err := h.selectableSpaces(ctx, api, g)
	if err != nil {
		h.remoteNotice(i, err)
		return
	}

	d := wizard.NewDraft(i.GuildID, i.ChannelID, invokerID(i), r.Name, h.now(), h.guildLocation(g))
	d.Name = name

	view := wizard.SpaceSelect(d, spaces)
	err = h.resp.Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds:     view.Embeds,
			Components: view.Components,
		},
	})
	if err != nil {
		h.log.Warn("wizard message failed", "error", err)
		return
	}
	if msg, err := h.resp.InteractionMessage(i.Interaction); err == nil {
		d.MessageID = msg.ID
	} else {
		h.log.Warn("wizard message id lookup failed", "error", err)
	}
	h.drafts.Put(d.Key, d)
}

// draftFor loads the invoker's draft, answering the expiry or ownership
// notice itself when the draft cannot be acted on.
func (h *Handlers) draftFor(i *discordgo.InteractionCreate, key string) (*wizard.Draft, bool) {
	d, ok := h.drafts.Get(key)
	if !ok {
		h.ephemeral(i, noticeExpired)
		return nil, false
	}
	if d.RequesterID != invokerID(i) {
		h.ephemeral(i, noticeNotYours)
		return nil, false
	}
	return d, true
}

func (h *Handlers) wizardSpacePicked(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	value, ok := selectedValue(i)
	if !ok {
		return
	}
	spaceID, spaceName, err := customid.DecodePair(value)
	if err != nil {
		h.log.Warn("bad space value", "error", err)
		return
	}
	d.PendingSpaceID, d.PendingSpaceName = spaceID, spaceName

	api, _, err := h.guildClient(i.GuildID)
	if err != nil {
		h.remoteNotice(i, err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	lists, err := task.AllLists(ctx, api, spaceID)
	if err != nil {
		h.remoteNotice(i, err)
		return
	}
	if len(lists) == 0 {
		h.ephemeral(i, "Ce projet ne contient aucune liste.")
		return
	}

	view := wizard.ListSelect(d, lists)
	h.update(i, view.Embeds, view.Components)
}

func (h *Handlers) wizardListPicked(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	value, ok := selectedValue(i)
	if !ok {
		return
	}
	listID, listName, err := customid.DecodePair(value)
	if err != nil {
		h.log.Warn("bad list value", "error", err)
		return
	}
	d.SpaceID, d.SpaceName = d.PendingSpaceID, d.PendingSpaceName
	d.ListID, d.ListName = listID, listName

	// The category step only appears when the list carries a Catégorie
	// drop_down with values.
	categories := h.listCategories(i, d.ListID)
	if len(categories) > 0 {
		d.Categories = categories
		d.CategoryPage = 0
		view := wizard.CategorySelect(d)
		h.update(i, view.Embeds, view.Components)
		return
	}

	d.ClearLocationState()
	view := wizard.Recap(d)
	h.update(i, view.Embeds, view.Components)
}

// listCategories returns the Catégorie drop_down option names of a list, or
// nil. Lookup failures only skip the step.
func (h *Handlers) listCategories(i *discordgo.InteractionCreate, listID string) []string {
	api, _, err := h.guildClient(i.GuildID)
	if err != nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()
	fields, err := api.ListFields(ctx, listID)
	if err != nil {
		h.log.Warn("list fields lookup failed", "list", listID, "error", err)
		return nil
	}
	field, ok := clickup.FindField(fields, task.CategoryField)
	if !ok || field.Type != "drop_down" {
		return nil
	}
	names := make([]string, 0, len(field.TypeConfig.Options))
	for _, opt := range field.TypeConfig.Options {
		names = append(names, opt.Name)
	}
	return names
}

func (h *Handlers) wizardCategoryPicked(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	value, ok := selectedValue(i)
	if !ok {
		return
	}
	d.Category = value
	d.ClearLocationState()
	view := wizard.Recap(d)
	h.update(i, view.Embeds, view.Components)
}

func (h *Handlers) wizardCategoryPage(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	switch id.Arg {
	case "prev":
		d.CategoryPage--
	case "next":
		d.CategoryPage++
	}
	view := wizard.CategorySelect(d)
	h.update(i, view.Embeds, view.Components)
}

func (h *Handlers) wizardCategoryBack(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	d.ClearLocationState()
	view := wizard.Recap(d)
	h.update(i, view.Embeds, view.Components)
}

func (h *Handlers) wizardParamPicked(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}

	value, ok := selectedValue(i)
	if !ok {
		return
	}
	switch value {
	case "name":
		h.respondModal(i, wizard.RenameModal(d))
	case "start":
		h.respondModal(i, wizard.DateModal(d, customid.WizardStartDate))
	case "due":
		h.respondModal(i, wizard.DateModal(d, customid.WizardDueDate))
	case "priority":
		view := wizard.PrioritySelect(d)
		h.update(i, view.Embeds, view.Components)
	case "category":
		if !d.HasLocation() {
			h.ephemeral(i, "Choisis d'abord un emplacement.")
			return
		}
		categories := h.listCategories(i, d.ListID)
		if len(categories) == 0 {
			h.ephemeral(i, "Cette liste n'a pas de catégories.")
			return
		}
		d.Categories = categories
		d.CategoryPage = 0
		view := wizard.CategorySelect(d)
		h.update(i, view.Embeds, view.Components)
	case "location":
		api, g, err := h.guildClient(i.GuildID)
		if err != nil {
			h.remoteNotice(i, err)
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
		defer cancel()
		spaces, err := h.selectableSpaces(ctx, api, g)
		if err != nil {
			h.remoteNotice(i, err)
			return
		}
		view := wizard.SpaceSelect(d, spaces)
		h.update(i, view.Embeds, view.Components)
	}
}

func (h *Handlers) respondModal(i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	err := h.resp.Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: data,
	})
	if err != nil {
		h.log.Warn("modal open failed", "error", err)
	}
}

func (h *Handlers) wizardPriorityPicked(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	value, ok := selectedValue(i)
	if !ok {
		return
	}
	p, err := task.ParsePriority(value)
	if err != nil {
		h.log.Warn("bad priority value", "error", err)
		return
	}
	d.Priority = p
	view := wizard.Recap(d)
	h.update(i, view.Embeds, view.Components)
}

// wizardRenameSubmitted applies the rename modal and re-renders the tracked
// recap message.
func (h *Handlers) wizardRenameSubmitted(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	name := strings.TrimSpace(modalValue(i.ModalSubmitData(), "name"))
	if name == "" || len([]rune(name)) > wizard.MaxNameLength {
		h.ephemeral(i, "Le nom de la tâche est requis (100 caractères max).")
		return
	}
	d.Name = name
	h.refreshRecap(i, d)
}

// wizardDateSubmitted applies a start or due date modal. Invalid input is an
// ephemeral notice; the draft keeps its previous value.
func (h *Handlers) wizardDateSubmitted(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	parsed, err := task.ParseDate(modalValue(i.ModalSubmitData(), "date"))
	if err != nil {
		h.ephemeral(i, "Date invalide, format attendu JJ/MM/AAAA.")
		return
	}
	if id.Kind == customid.WizardStartDate {
		d.StartDate = parsed.UnixMilli()
	} else {
		d.DueDate = parsed.UnixMilli()
	}
	h.refreshRecap(i, d)
}

// refreshRecap acknowledges a modal submission and rewrites the draft's
// tracked message.
func (h *Handlers) refreshRecap(i *discordgo.InteractionCreate, d *wizard.Draft) {
	err := h.resp.Respond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredMessageUpdate,
	})
	if err != nil {
		h.log.Warn("modal ack failed", "error", err)
	}
	view := wizard.Recap(d)
	if d.MessageID == "" {
		return
	}
	if err := h.resp.EditMessage(d.ChannelID, d.MessageID, view.Embeds, view.Components); err != nil {
		h.log.Warn("recap edit failed", "message", d.MessageID, "error", err)
	}
}

func (h *Handlers) wizardBack(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	d.ClearLocationState()
	view := wizard.Recap(d)
	h.update(i, view.Embeds, view.Components)
}

// wizardConfirm creates the remote task. Success and failure both delete the
// draft; there is no retry state.
func (h *Handlers) wizardConfirm(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	if !d.HasLocation() {
		h.ephemeral(i, "Choisis d'abord un emplacement.")
		return
	}

	api, _, err := h.guildClient(i.GuildID)
	if err != nil {
		h.remoteNotice(i, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionTimeout)
	defer cancel()

	req := clickup.CreateTaskRequest{
		Name:      d.Name,
		StartDate: d.StartDate,
		DueDate:   d.DueDate,
		Priority:  int(d.Priority),
	}
	req.CustomFields = h.confirmFields(ctx, api, d)

	created, err := api.CreateTask(ctx, d.ListID, req)
	h.drafts.Delete(d.Key)
	if err != nil {
		view := wizard.Failure(d, err)
		h.update(i, view.Embeds, view.Components)
		return
	}

	details := fmt.Sprintf("tâche %s (%s) dans %s/%s", created.ID, d.Name, d.SpaceName, d.ListName)
	if err := h.store.AppendHistory(d.GuildID, invokerID(i), "task_create", details); err != nil {
		h.log.Warn("history append failed", "error", err)
	}

	view := wizard.Success(d)
	h.update(i, view.Embeds, view.Components)
}

// confirmFields maps Responsable and Catégorie onto drop_down writes via the
// option orderindex. Missing fields or options are skipped, never fatal.
func (h *Handlers) confirmFields(ctx context.Context, api ClickUp, d *wizard.Draft) []clickup.CustomFieldWrite {
	fields, err := api.ListFields(ctx, d.ListID)
	if err != nil {
		h.log.Warn("list fields lookup failed", "list", d.ListID, "error", err)
		return nil
	}

	var writes []clickup.CustomFieldWrite
	if field, ok := clickup.FindField(fields, task.ResponsableField); ok {
		if index, ok := field.OptionIndexByName(d.Responsable); ok {
			writes = append(writes, clickup.CustomFieldWrite{ID: field.ID, Value: index})
		}
	}
	if d.Category != "" {
		if field, ok := clickup.FindField(fields, task.CategoryField); ok {
			if index, ok := field.OptionIndexByName(d.Category); ok {
				writes = append(writes, clickup.CustomFieldWrite{ID: field.ID, Value: index})
			}
		}
	}
	return writes
}

func (h *Handlers) wizardCancel(i *discordgo.InteractionCreate, id customid.ID) {
	d, ok := h.draftFor(i, id.Key)
	if !ok {
		return
	}
	h.drafts.Delete(d.Key)
	view := wizard.Cancelled()
	h.update(i, view.Embeds, view.Components)
}

// modalValue extracts a text input value from a modal submission.
func modalValue(data discordgo.ModalSubmitInteractionData, inputID string) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, c := range ar.Components {
			if input, ok := c.(*discordgo.TextInput); ok && input.CustomID == inputID {
				return input.Value
			}
		}
	}
	return ""
}

// Package wizard implements the multi-step task creation flow: a draft
// accumulated across modal and select interactions, re-rendered into a single
// recap message until it is confirmed or cancelled.
package wizard

import (
	"fmt"
	"time"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/task"
)

// Draft is one task creation in progress.
type Draft struct {
	Key         string // synthetic id: requesterID-unixms, embedded in every customId
	GuildID     string
	ChannelID   string
	RequesterID string
	Responsable string

	Name      string
	SpaceID   string
	SpaceName string
	ListID    string
	ListName  string
	StartDate int64 // epoch ms, UTC midnight; defaults to today
	DueDate   int64 // epoch ms, 0 = none
	Priority  task.Priority
	Category  string

	// MessageID is the single recap message rendering this draft.
	MessageID string

	// Transient sub-selection state.
	CategoryPage     int
	Categories       []string
	PendingSpaceID   string
	PendingSpaceName string

	CreatedAt time.Time
}

// NewDraft creates a draft with the synthetic key and today's defaults.
func NewDraft(guildID, channelID, requesterID, responsable string, now time.Time, loc *time.Location) *Draft {
	return &Draft{
		Key:         fmt.Sprintf("%s-%d", requesterID, now.UnixMilli()),
		GuildID:     guildID,
		ChannelID:   channelID,
		RequesterID: requesterID,
		Responsable: responsable,
		StartDate:   task.TodayUTC(now, loc).UnixMilli(),
		Priority:    task.PriorityNormal,
		CreatedAt:   now,
	}
}

// HasLocation reports whether both project and list have been chosen.
func (d *Draft) HasLocation() bool {
	return d.SpaceID != "" && d.ListID != ""
}

// ClearLocationState resets the transient project/category picking state.
func (d *Draft) ClearLocationState() {
	d.PendingSpaceID = ""
	d.PendingSpaceName = ""
	d.CategoryPage = 0
	d.Categories = nil
}

func formatDate(ms int64) string {
	if ms == 0 {
		return "—"
	}
	return time.UnixMilli(ms).UTC().Format("02/01/2006")
}

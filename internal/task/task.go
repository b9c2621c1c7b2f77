// Package task is the domain layer shared by the creation wizard, the list
// pager and the scheduled jobs: task summaries, the subtask tree walk,
// remote fetching and filtering, status resolution and date handling.
package task

import (
	"strings"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
)

// DisplayStatus is the normalized status shown on Discord.
type DisplayStatus string

const (
	StatusTodo       DisplayStatus = "À faire"
	StatusInProgress DisplayStatus = "En cours"
	StatusDone       DisplayStatus = "Achevée"
)

// Glyph returns the list marker for a status.
func (d DisplayStatus) Glyph() string {
	switch d {
	case StatusInProgress:
		return "🔵"
	case StatusDone:
		return "✅"
	default:
		return "⚪"
	}
}

// NormalizeStatus maps a remote status onto the three display statuses.
func NormalizeStatus(s clickup.Status) DisplayStatus {
	name := strings.ToLower(s.Status)
	switch {
	case s.IsDone() || strings.Contains(name, "achev"):
		return StatusDone
	case strings.Contains(name, "cours"):
		return StatusInProgress
	default:
		return StatusTodo
	}
}

// Summary is the flattened, display-ready view of one remote task.
type Summary struct {
	ID          string
	Name        string
	Status      DisplayStatus
	IsSubtask   bool
	ListID      string
	Due         int64 // epoch ms, 0 = none
	Responsable string
}

// ResponsableField and CategoryField are the drop_down custom fields Pulse
// reads and writes.
const (
	ResponsableField = "Responsable"
	CategoryField    = "Catégorie"
)

// responsableOf returns the task's Responsable drop_down value, or "".
func responsableOf(t clickup.Task) string {
	field, ok := clickup.FindField(t.CustomFields, ResponsableField)
	if !ok {
		return ""
	}
	return field.DropDownValue()
}

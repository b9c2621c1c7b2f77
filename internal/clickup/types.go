package clickup

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Space is a ClickUp space ("projet" on the Discord side).
type Space struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Folder groups lists inside a space.
type Folder struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Lists []List `json:"lists"`
}

// List is a ClickUp task list.
type List struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Statuses []Status `json:"statuses"`
}

// Status is one entry of a list's status vocabulary.
type Status struct {
	Status string `json:"status"`
	Type   string `json:"type"` // open, custom, done, closed
}

// IsDone reports whether the status type counts as completed.
func (s Status) IsDone() bool {
	t := strings.ToLower(s.Type)
	return t == "done" || t == "closed"
}

// Task is a ClickUp task with its recursively nested subtasks.
type Task struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Status       Status        `json:"status"`
	StartDate    *EpochMillis  `json:"start_date"`
	DueDate      *EpochMillis  `json:"due_date"`
	DateClosed   *EpochMillis  `json:"date_closed"`
	Parent       string        `json:"parent"`
	CustomFields []CustomField `json:"custom_fields"`
	Subtasks     []Task        `json:"subtasks"`
	ListRef      ListRef       `json:"list"`
}

// ListRef is the owning-list stub embedded in task payloads.
type ListRef struct {
	ID string `json:"id"`
}

// EpochMillis decodes ClickUp date fields, which arrive as epoch-ms strings
// or numbers depending on the endpoint.
type EpochMillis struct {
	time.Time
}

func (e *EpochMillis) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(strings.TrimSpace(string(data)), `"`)
	if raw == "" || raw == "null" {
		e.Time = time.Time{}
		return nil
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return err
	}
	e.Time = time.UnixMilli(ms).UTC()
	return nil
}

func (e EpochMillis) MarshalJSON() ([]byte, error) {
	if e.Time.IsZero() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(e.Time.UnixMilli(), 10)), nil
}

// CustomField is a typed custom field attached to a task or list.
type CustomField struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Type       string          `json:"type"` // notably "drop_down"
	Value      json.RawMessage `json:"value"`
	TypeConfig TypeConfig      `json:"type_config"`
}

// TypeConfig carries the drop_down option set.
type TypeConfig struct {
	Options []FieldOption `json:"options"`
}

// FieldOption is one drop_down choice. Writes reference OrderIndex, not Name.
type FieldOption struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	OrderIndex int    `json:"orderindex"`
}

// DropDownValue resolves a drop_down field's current value to its option name.
// ClickUp returns either the option id (string) or the orderindex (number).
func (f CustomField) DropDownValue() string {
	if f.Type != "drop_down" || len(f.Value) == 0 {
		return ""
	}

	var asString string
	if err := json.Unmarshal(f.Value, &asString); err == nil {
		for _, opt := range f.TypeConfig.Options {
			if opt.ID == asString {
				return opt.Name
			}
		}
		return asString
	}

	var asIndex int
	if err := json.Unmarshal(f.Value, &asIndex); err == nil {
		for _, opt := range f.TypeConfig.Options {
			if opt.OrderIndex == asIndex {
				return opt.Name
			}
		}
	}
	return ""
}

// OptionIndexByName resolves a drop_down option name to its orderindex.
func (f CustomField) OptionIndexByName(name string) (int, bool) {
	for _, opt := range f.TypeConfig.Options {
		if strings.EqualFold(strings.TrimSpace(opt.Name), strings.TrimSpace(name)) {
			return opt.OrderIndex, true
		}
	}
	return 0, false
}

// FindField returns the first custom field with the given name, case-insensitively.
func FindField(fields []CustomField, name string) (CustomField, bool) {
	for _, f := range fields {
		if strings.EqualFold(strings.TrimSpace(f.Name), strings.TrimSpace(name)) {
			return f, true
		}
	}
	return CustomField{}, false
}

// CreateTaskRequest is the payload for task creation.
type CreateTaskRequest struct {
	Name         string             `json:"name"`
	StartDate    int64              `json:"start_date,omitempty"`
	DueDate      int64              `json:"due_date,omitempty"`
	Priority     int                `json:"priority,omitempty"`
	CustomFields []CustomFieldWrite `json:"custom_fields,omitempty"`
}

// CustomFieldWrite sets a custom field at creation time. Drop_down values
// are the option orderindex.
type CustomFieldWrite struct {
	ID    string `json:"id"`
	Value any    `json:"value"`
}

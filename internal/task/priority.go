package task

import "fmt"

// Priority mirrors ClickUp's four levels (1 = urgent).
type Priority int

const (
	PriorityUrgent Priority = 1
	PriorityHigh   Priority = 2
	PriorityNormal Priority = 3
	PriorityLow    Priority = 4
)

var priorityLabels = map[Priority]string{
	PriorityUrgent: "Urgente",
	PriorityHigh:   "Élevée",
	PriorityNormal: "Normale",
	PriorityLow:    "Faible",
}

// Label returns the French display label.
func (p Priority) Label() string {
	if label, ok := priorityLabels[p]; ok {
		return label
	}
	return priorityLabels[PriorityNormal]
}

// Priorities lists the selectable levels in display order.
func Priorities() []Priority {
	return []Priority{PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow}
}

// ParsePriority resolves a stored level value ("1".."4").
func ParsePriority(value string) (Priority, error) {
	switch value {
	case "1":
		return PriorityUrgent, nil
	case "2":
		return PriorityHigh, nil
	case "3":
		return PriorityNormal, nil
	case "4":
		return PriorityLow, nil
	}
	return 0, fmt.Errorf("task: unknown priority %q", value)
}

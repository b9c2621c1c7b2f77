package task

import (
	"fmt"
	"strings"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
)

// statusKeywords are the fallback hints per display status, tried when no
// vocabulary entry matches the target name directly.
var statusKeywords = map[DisplayStatus][]string{
	StatusTodo:       {"faire", "to do", "todo", "open"},
	StatusInProgress: {"cours", "in progress", "progress", "doing"},
	StatusDone:       {"achev", "done", "complete", "closed", "terminé"},
}

// ResolveStatus maps a target display status onto a list's actual status
// vocabulary: first a bidirectional case-insensitive substring match on the
// name, then keyword fallbacks, then (for Achevée) any completed-type
// status. A list with no match is an error, never a silent no-op.
func ResolveStatus(vocabulary []clickup.Status, target DisplayStatus) (clickup.Status, error) {
	want := strings.ToLower(string(target))
	for _, s := range vocabulary {
		have := strings.ToLower(s.Status)
		if strings.Contains(have, want) || strings.Contains(want, have) {
			return s, nil
		}
	}

	for _, keyword := range statusKeywords[target] {
		for _, s := range vocabulary {
			if strings.Contains(strings.ToLower(s.Status), keyword) {
				return s, nil
			}
		}
	}

	if target == StatusDone {
		for _, s := range vocabulary {
			if s.IsDone() {
				return s, nil
			}
		}
	}

	return clickup.Status{}, fmt.Errorf("task: no status matching %q in list vocabulary", target)
}

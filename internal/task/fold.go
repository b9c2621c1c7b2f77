package task

import "github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"

// Fold walks tasks and their subtasks depth-first, threading an accumulator
// through every node. depth is 0 for the roots. This is the only recursion
// over subtask trees; flattening, the completion guard and completed-task
// counting are all expressed through it.
func Fold[A any](tasks []clickup.Task, acc A, fn func(acc A, t clickup.Task, depth int) A) A {
	return fold(tasks, acc, 0, fn)
}

func fold[A any](tasks []clickup.Task, acc A, depth int, fn func(A, clickup.Task, int) A) A {
	for _, t := range tasks {
		acc = fn(acc, t, depth)
		acc = fold(t.Subtasks, acc, depth+1, fn)
	}
	return acc
}

// IncompleteSubtasks collects every subtask of t, at any depth, whose status
// is not of a completed type. Used as the hard precondition before a parent
// task may be marked Achevée.
func IncompleteSubtasks(t clickup.Task) []Summary {
	return Fold(t.Subtasks, nil, func(acc []Summary, sub clickup.Task, _ int) []Summary {
		if sub.Status.IsDone() {
			return acc
		}
		return append(acc, Summary{
			ID:          sub.ID,
			Name:        sub.Name,
			Status:      NormalizeStatus(sub.Status),
			IsSubtask:   true,
			Responsable: responsableOf(sub),
		})
	})
}

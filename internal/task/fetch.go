package task

import (
	"context"
	"strings"
	"time"

	"github.com/Matt0007/Bot-Pulse-2.0-sub000/internal/clickup"
)

// API is the slice of the ClickUp client the fetchers need.
type API interface {
	Folders(ctx context.Context, spaceID string) ([]clickup.Folder, error)
	SpaceLists(ctx context.Context, spaceID string) ([]clickup.List, error)
	FolderLists(ctx context.Context, folderID string) ([]clickup.List, error)
	ListTasks(ctx context.Context, listID string, includeClosed bool) ([]clickup.Task, error)
}

// FetchOptions tunes the open-task fetch.
type FetchOptions struct {
	// IgnoreStartDate keeps tasks that have not started yet. Used by the
	// tomorrow-due reminder only.
	IgnoreStartDate bool
	// Now anchors the start-date filter; zero means time.Now().
	Now time.Time
	// Location resolves calendar days; nil means UTC.
	Location *time.Location
}

func (o FetchOptions) anchor() time.Time {
	now := o.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := o.Location
	if loc == nil {
		loc = time.UTC
	}
	return TomorrowAnchor(now, loc)
}

// FetchOpen walks the given spaces and returns the open tasks (status
// containing "faire" or "cours") whose Responsable matches, subtasks
// flattened beneath their parent. The default mode hides tasks starting
// strictly after tomorrow.
func FetchOpen(ctx context.Context, api API, spaceIDs []string, responsable string, opts FetchOptions) ([]Summary, error) {
	anchor := opts.anchor()

	var out []Summary
	err := eachList(ctx, api, spaceIDs, func(list clickup.List) error {
		tasks, err := api.ListTasks(ctx, list.ID, false)
		if err != nil {
			return err
		}
		for _, t := range tasks {
			if t.Parent != "" {
				continue // reached through its parent's subtask tree
			}
			if !matchesResponsable(t, responsable) || !isOpen(t.Status) {
				continue
			}
			if !opts.IgnoreStartDate && t.StartDate != nil && !t.StartDate.IsZero() && t.StartDate.After(anchor) {
				continue
			}
			out = append(out, summarize(t, list.ID, false))
			out = Fold(t.Subtasks, out, func(acc []Summary, sub clickup.Task, _ int) []Summary {
				if !isOpen(sub.Status) {
					return acc
				}
				return append(acc, summarize(sub, list.ID, true))
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// FetchCompletedSince returns the tasks and subtasks completed at or after
// since whose Responsable matches.
func FetchCompletedSince(ctx context.Context, api API, spaceIDs []string, responsable string, since time.Time) ([]Summary, error) {
	var out []Summary
	err := eachList(ctx, api, spaceIDs, func(list clickup.List) error {
		tasks, err := api.ListTasks(ctx, list.ID, true)
		if err != nil {
			return err
		}
		roots := make([]clickup.Task, 0, len(tasks))
		for _, t := range tasks {
			if t.Parent == "" {
				roots = append(roots, t)
			}
		}
		out = Fold(roots, out, func(acc []Summary, t clickup.Task, depth int) []Summary {
			if !t.Status.IsDone() || !matchesResponsable(t, responsable) {
				return acc
			}
			if t.DateClosed == nil || t.DateClosed.IsZero() || t.DateClosed.Before(since) {
				return acc
			}
			return append(acc, summarize(t, list.ID, depth > 0))
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AllLists returns every list of a space: folderless lists first, then the
// lists of each folder.
func AllLists(ctx context.Context, api API, spaceID string) ([]clickup.List, error) {
	var out []clickup.List
	err := eachList(ctx, api, []string{spaceID}, func(list clickup.List) error {
		out = append(out, list)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// eachList visits every list of every given space: folderless lists first,
// then the lists of each folder.
func eachList(ctx context.Context, api API, spaceIDs []string, visit func(clickup.List) error) error {
	for _, spaceID := range spaceIDs {
		lists, err := api.SpaceLists(ctx, spaceID)
		if err != nil {
			return err
		}
		folders, err := api.Folders(ctx, spaceID)
		if err != nil {
			return err
		}
		for _, folder := range folders {
			if len(folder.Lists) > 0 {
				lists = append(lists, folder.Lists...)
				continue
			}
			folderLists, err := api.FolderLists(ctx, folder.ID)
			if err != nil {
				return err
			}
			lists = append(lists, folderLists...)
		}
		for _, list := range lists {
			if err := visit(list); err != nil {
				return err
			}
		}
	}
	return nil
}

func isOpen(s clickup.Status) bool {
	name := strings.ToLower(s.Status)
	return !s.IsDone() && (strings.Contains(name, "faire") || strings.Contains(name, "cours"))
}

func matchesResponsable(t clickup.Task, responsable string) bool {
	return strings.EqualFold(strings.TrimSpace(responsableOf(t)), strings.TrimSpace(responsable))
}

func summarize(t clickup.Task, listID string, subtask bool) Summary {
	s := Summary{
		ID:          t.ID,
		Name:        t.Name,
		Status:      NormalizeStatus(t.Status),
		IsSubtask:   subtask,
		ListID:      listID,
		Responsable: responsableOf(t),
	}
	if t.DueDate != nil && !t.DueDate.IsZero() {
		s.Due = t.DueDate.UnixMilli()
	}
	return s
}

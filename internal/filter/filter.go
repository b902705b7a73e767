// Package filter derives views from a task list already held in memory.
// Every function returns a fresh slice and leaves its input untouched, so a
// view can be recomputed from the same list any number of times.
package filter

import (
	"strings"
	"time"

	"project-tasks/internal/task"
)

// Today returns the tasks due on now's local calendar date. The comparison
// is on the ISO date portion as a string; no timezone normalization.
func Today(tasks []task.Task, now time.Time) []task.Task {
	today := now.Format("2006-01-02")
	out := []task.Task{}
	for _, t := range tasks {
		if datePortion(t.Date) == today {
			out = append(out, t)
		}
	}
	return out
}

func Important(tasks []task.Task) []task.Task {
	out := []task.Task{}
	for _, t := range tasks {
		if t.Important {
			out = append(out, t)
		}
	}
	return out
}

func Completed(tasks []task.Task) []task.Task {
	return byCompleted(tasks, true)
}

func Uncompleted(tasks []task.Task) []task.Task {
	return byCompleted(tasks, false)
}

func byCompleted(tasks []task.Task, done bool) []task.Task {
	out := []task.Task{}
	for _, t := range tasks {
		if t.Completed == done {
			out = append(out, t)
		}
	}
	return out
}

// ByDirectory returns the tasks whose directory label matches dir exactly.
// Whether dir is a known directory is the caller's navigation concern.
func ByDirectory(tasks []task.Task, dir string) []task.Task {
	out := []task.Task{}
	for _, t := range tasks {
		if t.Dir == dir {
			out = append(out, t)
		}
	}
	return out
}

// Search matches query case-insensitively against titles only. An empty or
// blank query yields an empty result, not the full list.
func Search(tasks []task.Task, query string) []task.Task {
	out := []task.Task{}
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return out
	}
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out
}

// datePortion strips any time component from an ISO timestamp.
func datePortion(s string) string {
	if i := strings.IndexByte(s, 'T'); i >= 0 {
		return s[:i]
	}
	return s
}

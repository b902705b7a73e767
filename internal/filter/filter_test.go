package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-tasks/internal/task"
)

func TestToday(t *testing.T) {
	now := time.Date(2025, 6, 15, 13, 0, 0, 0, time.Local)
	tasks := []task.Task{
		{ID: "1", Title: "yesterday", Date: "2025-06-14"},
		{ID: "2", Title: "today", Date: "2025-06-15"},
		{ID: "3", Title: "today with time", Date: "2025-06-15T09:30:00.000Z"},
		{ID: "4", Title: "tomorrow", Date: "2025-06-16"},
	}

	got := Today(tasks, now)
	require.Len(t, got, 2)
	assert.Equal(t, "2", got[0].ID)
	assert.Equal(t, "3", got[1].ID)
}

func TestSearch(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Title: "Buy milk"},
		{ID: "2", Title: "Walk the dog"},
		{ID: "3", Title: "buy MILK again"},
	}

	// Empty and blank queries yield empty results, not the full list.
	assert.Empty(t, Search(tasks, ""))
	assert.Empty(t, Search(tasks, "   "))

	// No match.
	assert.Empty(t, Search(tasks, "groceries"))

	// Case-insensitive substring over titles only.
	got := Search(tasks, "MILK")
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0].ID)
	assert.Equal(t, "3", got[1].ID)

	got = Search(tasks, "walk")
	require.Len(t, got, 1)
	assert.Equal(t, "2", got[0].ID)
}

func TestCompletedPartition(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Completed: true},
		{ID: "2"},
		{ID: "3", Completed: true},
	}

	done := Completed(tasks)
	todo := Uncompleted(tasks)
	require.Len(t, done, 2)
	require.Len(t, todo, 1)
	assert.Equal(t, "2", todo[0].ID)
	assert.Len(t, tasks, 3, "source list must not be mutated")
}

func TestImportantAndByDirectory(t *testing.T) {
	tasks := []task.Task{
		{ID: "1", Important: true, Dir: "Main"},
		{ID: "2", Dir: "Work"},
		{ID: "3", Important: true, Dir: "Work"},
	}

	imp := Important(tasks)
	require.Len(t, imp, 2)

	work := ByDirectory(tasks, "Work")
	require.Len(t, work, 2)
	assert.Equal(t, "2", work[0].ID)

	assert.Empty(t, ByDirectory(tasks, "work"), "directory match is exact")
}

func TestFiltersReturnFreshSlices(t *testing.T) {
	tasks := []task.Task{{ID: "1", Important: true}}
	a := Important(tasks)
	b := Important(tasks)
	require.Len(t, a, 1)
	a[0].ID = "mutated"
	assert.Equal(t, "1", b[0].ID)
	assert.Equal(t, "1", tasks[0].ID)
}

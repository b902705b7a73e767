package tasklist

import (
	"sync"

	"project-tasks/internal/task"
)

// Store holds the fetched task list and the user's directory set. Directory
// membership is implicit: a directory is the set of tasks labelled with it.
// All mutations happen under one lock, so a rename or cascade delete is
// atomic from any reader's perspective.
type Store struct {
	mu    sync.Mutex
	tasks []task.Task
	dirs  []string
}

func NewStore() *Store {
	return &Store{dirs: []string{task.DefaultDir}}
}

// Replace installs a freshly fetched task list and learns any directory
// labels it mentions.
func (s *Store) Replace(tasks []task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]task.Task(nil), tasks...)
	for _, t := range tasks {
		if t.Dir != "" && !contains(s.dirs, t.Dir) {
			s.dirs = append(s.dirs, t.Dir)
		}
	}
}

// Add prepends, matching the newest-first ordering of the views.
func (s *Store) Add(t task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append([]task.Task{t}, s.tasks...)
	if t.Dir != "" && !contains(s.dirs, t.Dir) {
		s.dirs = append(s.dirs, t.Dir)
	}
}

func (s *Store) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			out = append(out, t)
		}
	}
	s.tasks = out
}

func (s *Store) Edit(t task.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = t
			return
		}
	}
}

// DeleteAll clears the list and resets the directory set to its default.
func (s *Store) DeleteAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
	s.dirs = []string{task.DefaultDir}
}

func (s *Store) Tasks() []task.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]task.Task(nil), s.tasks...)
}

func (s *Store) Directories() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.dirs...)
}

// HasDirectory reports whether name is a known directory; callers route an
// unknown name to the default view rather than treating it as an error.
func (s *Store) HasDirectory(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return contains(s.dirs, name)
}

// CreateDirectory prepends a new directory; a duplicate name is a no-op.
func (s *Store) CreateDirectory(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contains(s.dirs, name) {
		return
	}
	s.dirs = append([]string{name}, s.dirs...)
}

// DeleteDirectory removes the directory and every task labelled with it.
func (s *Store) DeleteDirectory(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dirs := s.dirs[:0]
	for _, d := range s.dirs {
		if d != name {
			dirs = append(dirs, d)
		}
	}
	s.dirs = dirs

	tasks := s.tasks[:0]
	for _, t := range s.tasks {
		if t.Dir != name {
			tasks = append(tasks, t)
		}
	}
	s.tasks = tasks
}

// RenameDirectory relabels the directory and all its member tasks in one
// step. Renaming onto an existing name is a no-op.
func (s *Store) RenameDirectory(oldName, newName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contains(s.dirs, newName) {
		return
	}
	for i, d := range s.dirs {
		if d == oldName {
			s.dirs[i] = newName
		}
	}
	for i := range s.tasks {
		if s.tasks[i].Dir == oldName {
			s.tasks[i].Dir = newName
		}
	}
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}

package task

import (
	"errors"
	"strings"
)

// DefaultDir is the directory label every task falls into unless told
// otherwise. It is also the only directory that survives a delete-all.
const DefaultDir = "Main"

var (
	ErrTaskNotFound = errors.New("task not found")
)

// Task is owned by exactly one identity; the owner id never appears in an
// operation filter supplied by a caller, it always comes from the verified
// session.
type Task struct {
	ID          string `json:"id"`
	Owner       string `json:"userId"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date"` // ISO date, compared as a string
	Completed   bool   `json:"completed"`
	Important   bool   `json:"important"`
	Dir         string `json:"dir"`
}

// Draft is the caller-supplied part of a new task.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Date        string `json:"date"`
	Important   bool   `json:"important"`
	Dir         string `json:"dir"`
}

type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return e.Field + " is required"
}

// Validate enforces the required fields before anything is persisted.
func (d *Draft) Validate() error {
	if strings.TrimSpace(d.Title) == "" {
		return &ValidationError{Field: "title"}
	}
	if strings.TrimSpace(d.Date) == "" {
		return &ValidationError{Field: "date"}
	}
	return nil
}

// Patch is a partial update; nil fields are left untouched.
type Patch struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
	Completed   *bool   `json:"completed"`
	Important   *bool   `json:"important"`
	Dir         *string `json:"dir"`
}

func (p *Patch) apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.Important != nil {
		t.Important = *p.Important
	}
	if p.Dir != nil {
		t.Dir = *p.Dir
	}
}

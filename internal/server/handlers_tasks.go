package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"project-tasks/internal/auth"
	"project-tasks/internal/task"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	tasks, err := s.tasks.List(r.Context(), claims.Sub)
	if err != nil {
		s.logger.Printf("list tasks error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	writeJSON(w, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var draft task.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	// The notification recipient is the owner's registered address, never a
	// caller-supplied one.
	var email string
	if user, err := s.users.FindByID(r.Context(), claims.Sub); err == nil {
		email = user.Email
	}

	created, err := s.tasks.Create(r.Context(), claims.Sub, email, draft)
	if err != nil {
		var verr *task.ValidationError
		if errors.As(err, &verr) {
			writeError(w, http.StatusBadRequest, "Title and date are required")
			return
		}
		s.logger.Printf("create task error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	writeJSONStatus(w, http.StatusCreated, created)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	t, err := s.tasks.Get(r.Context(), claims.Sub, chi.URLParam(r, "id"))
	if err != nil {
		s.taskError(w, err)
		return
	}
	writeJSON(w, t)
}

func (s *Server) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var patch task.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	updated, err := s.tasks.Update(r.Context(), claims.Sub, chi.URLParam(r, "id"), patch)
	if err != nil {
		s.taskError(w, err)
		return
	}
	writeJSON(w, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := s.tasks.Delete(r.Context(), claims.Sub, chi.URLParam(r, "id")); err != nil {
		s.taskError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteAllTasks(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	if err := s.tasks.DeleteAll(r.Context(), claims.Sub); err != nil {
		s.logger.Printf("delete all tasks error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSendAlert(w http.ResponseWriter, r *http.Request) {
	claims, err := auth.MustClaims(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	user, err := s.users.FindByID(r.Context(), claims.Sub)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	err = s.tasks.Remind(r.Context(), claims.Sub, user.Email)
	if errors.Is(err, task.ErrNothingToRemind) {
		writeError(w, http.StatusBadRequest, "No unfinished tasks to remind about")
		return
	}
	if err != nil {
		s.logger.Printf("send alert error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Email sent"))
}

func (s *Server) taskError(w http.ResponseWriter, err error) {
	var verr *task.ValidationError
	switch {
	case errors.Is(err, task.ErrTaskNotFound):
		writeError(w, http.StatusNotFound, "Task not found")
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error())
	default:
		s.logger.Printf("task error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

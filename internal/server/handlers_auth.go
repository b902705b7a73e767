package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"project-tasks/internal/auth"
)

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	if !s.rlRegisterIP.allow(getClientIP(r)) {
		tooMany(w, 60)
		return
	}

	var req auth.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if req.Username == "" || req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if !isValidEmail(req.Email) {
		writeError(w, http.StatusBadRequest, "valid email required")
		return
	}

	hash, err := auth.HashPassword(auth.DefaultArgon, req.Password)
	if err != nil {
		s.logger.Printf("hash password error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	user := &auth.Identity{
		Username: req.Username,
		Email:    req.Email,
		PassHash: hash,
	}
	// The store's unique indexes are the source of truth for duplicates.
	if err := s.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrDuplicateUser) {
			writeError(w, http.StatusBadRequest, "Username or Email already taken")
			return
		}
		s.logger.Printf("register error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	writeJSONStatus(w, http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.rlLoginIP.allow(getClientIP(r)) {
		tooMany(w, 60)
		return
	}

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "All fields are required")
		return
	}
	if !s.rlLoginID.allow(email) {
		tooMany(w, 60)
		return
	}

	user, err := s.users.FindByEmail(r.Context(), email)
	if err != nil {
		writeError(w, http.StatusBadRequest, "User not found")
		return
	}

	ok, err := auth.VerifyPassword(req.Password, user.PassHash)
	if err != nil || !ok {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	tok, exp, err := s.signer.IssueToken(user.ID)
	if err != nil {
		s.logger.Printf("token issue error: %v", err)
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    tok,
		Path:     "/",
		Expires:  exp,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, auth.LoginResponse{Message: "Logged in", Token: tok, ExpiresAt: exp})
}

// handleLogout clears the client-held cookie only. The token itself stays
// valid until its natural expiry: there is no server-side revocation list.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, map[string]string{"message": "Logged out"})
}

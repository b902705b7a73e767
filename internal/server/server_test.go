package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"project-tasks/internal/auth"
	"project-tasks/internal/notify"
	"project-tasks/internal/task"
)

func newTestServer() (*Server, *notify.MemoryOutbox) {
	outbox := notify.NewMemoryOutbox()
	s := NewWithStores(
		Config{JWTSecret: "test-secret"},
		auth.NewMemoryUserStore(),
		task.NewMemoryStore(),
		outbox,
	)
	return s, outbox
}

type testRequest struct {
	method string
	path   string
	body   any
	token  string
	cookie string
	origin string
}

func do(t *testing.T, s *Server, req testRequest) *httptest.ResponseRecorder {
	t.Helper()
	var body *bytes.Buffer = bytes.NewBuffer(nil)
	if req.body != nil {
		require.NoError(t, json.NewEncoder(body).Encode(req.body))
	}
	r := httptest.NewRequest(req.method, req.path, body)
	r.Header.Set("Content-Type", "application/json")
	if req.token != "" {
		r.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.cookie != "" {
		r.AddCookie(&http.Cookie{Name: auth.CookieName, Value: req.cookie})
	}
	if req.origin != "" {
		r.Header.Set("Origin", req.origin)
	}
	w := httptest.NewRecorder()
	s.ServeHTTP(w, r)
	return w
}

func register(t *testing.T, s *Server, username, email, password string) {
	t.Helper()
	w := do(t, s, testRequest{method: "POST", path: "/api/auth/register",
		body: map[string]string{"username": username, "email": email, "password": password}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func login(t *testing.T, s *Server, email, password string) string {
	t.Helper()
	w := do(t, s, testRequest{method: "POST", path: "/api/auth/login",
		body: map[string]string{"email": email, "password": password}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func TestRegisterDuplicate(t *testing.T) {
	s, _ := newTestServer()
	register(t, s, "a", "a@x.com", "pw")

	// Same email again.
	w := do(t, s, testRequest{method: "POST", path: "/api/auth/register",
		body: map[string]string{"username": "b", "email": "a@x.com", "password": "pw"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already taken")

	// Same username, different email.
	w = do(t, s, testRequest{method: "POST", path: "/api/auth/register",
		body: map[string]string{"username": "a", "email": "b@x.com", "password": "pw"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "already taken")
}

func TestRegisterValidation(t *testing.T) {
	s, _ := newTestServer()

	w := do(t, s, testRequest{method: "POST", path: "/api/auth/register",
		body: map[string]string{"username": "a", "email": "a@x.com"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, testRequest{method: "POST", path: "/api/auth/register",
		body: map[string]string{"username": "a", "email": "not-an-email", "password": "pw"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginFailures(t *testing.T) {
	s, _ := newTestServer()
	register(t, s, "a", "a@x.com", "pw")

	// Unknown email.
	w := do(t, s, testRequest{method: "POST", path: "/api/auth/login",
		body: map[string]string{"email": "nobody@x.com", "password": "pw"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "User not found")

	// Wrong password: no token issued.
	w = do(t, s, testRequest{method: "POST", path: "/api/auth/login",
		body: map[string]string{"email": "a@x.com", "password": "wrong"}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotContains(t, w.Body.String(), "token")
	assert.Empty(t, w.Result().Cookies())

	// Missing fields.
	w = do(t, s, testRequest{method: "POST", path: "/api/auth/login",
		body: map[string]string{"email": "a@x.com"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginSetsCookie(t *testing.T) {
	s, _ := newTestServer()
	register(t, s, "a", "a@x.com", "pw")

	w := do(t, s, testRequest{method: "POST", path: "/api/auth/login",
		body: map[string]string{"email": "a@x.com", "password": "pw"}})
	require.Equal(t, http.StatusOK, w.Code)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)

	// The cookie works as a credential.
	list := do(t, s, testRequest{method: "GET", path: "/api/tasks", cookie: cookies[0].Value})
	assert.Equal(t, http.StatusOK, list.Code)
}

func TestTaskFlowEndToEnd(t *testing.T) {
	s, _ := newTestServer()
	register(t, s, "a", "a@x.com", "pw")
	tok := login(t, s, "a@x.com", "pw")

	// Create.
	w := do(t, s, testRequest{method: "POST", path: "/api/tasks", token: tok,
		body: map[string]any{"title": "Buy milk", "date": "2025-01-01"}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created task.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.False(t, created.Completed)
	assert.False(t, created.Important)
	assert.Equal(t, "Main", created.Dir)

	// List contains it.
	w = do(t, s, testRequest{method: "GET", path: "/api/tasks", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	var listed []task.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, created.ID, listed[0].ID)

	// Update toggles completion.
	w = do(t, s, testRequest{method: "PUT", path: "/api/tasks/" + created.ID, token: tok,
		body: map[string]any{"completed": true}})
	require.Equal(t, http.StatusOK, w.Code)
	var updated task.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Title)

	// Delete, then the list is empty.
	w = do(t, s, testRequest{method: "DELETE", path: "/api/tasks/" + created.ID, token: tok})
	require.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, s, testRequest{method: "GET", path: "/api/tasks", token: tok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestCreateTaskValidation(t *testing.T) {
	s, _ := newTestServer()
	register(t, s, "a", "a@x.com", "pw")
	tok := login(t, s, "a@x.com", "pw")

	w := do(t, s, testRequest{method: "POST", path: "/api/tasks", token: tok,
		body: map[string]any{"description": "no title or date"}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "required")
}

func TestOwnerIsolationOverHTTP(t *testing.T) {
	s, _ := newTestServer()
	register(t, s, "alice", "alice@x.com", "pw")
	register(t, s, "bob", "bob@x.com", "pw")
	aliceTok := login(t, s, "alice@x.com", "pw")
	bobTok := login(t, s, "bob@x.com", "pw")

	w := do(t, s, testRequest{method: "POST", path: "/api/tasks", token: aliceTok,
		body: map[string]any{"title": "secret", "date": "2025-01-01"}})
	require.Equal(t, http.StatusCreated, w.Code)
	var created task.Task
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// Bob's list never contains Alice's task.
	w = do(t, s, testRequest{method: "GET", path: "/api/tasks", token: bobTok})
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, "[]", w.Body.String())

	// Bob cannot reach it by id either.
	w = do(t, s, testRequest{method: "GET", path: "/api/tasks/" + created.ID, token: bobTok})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = do(t, s, testRequest{method: "DELETE", path: "/api/tasks/" + created.ID, token: bobTok})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAuthGate(t *testing.T) {
	s, _ := newTestServer()

	// No token at all.
	w := do(t, s, testRequest{method: "GET", path: "/api/tasks"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// A tampered token is rejected as invalid, not missing.
	register(t, s, "a", "a@x.com", "pw")
	tok := login(t, s, "a@x.com", "pw")
	w = do(t, s, testRequest{method: "GET", path: "/api/tasks", token: tok + "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid token")
}

func TestImportantTaskEnqueuesAlert(t *testing.T) {
	s, outbox := newTestServer()
	register(t, s, "a", "a@x.com", "pw")
	tok := login(t, s, "a@x.com", "pw")

	w := do(t, s, testRequest{method: "POST", path: "/api/tasks", token: tok,
		body: map[string]any{"title": "Taxes", "date": "2025-04-15", "important": true}})
	require.Equal(t, http.StatusCreated, w.Code)

	entries := outbox.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "a@x.com", entries[0].To)
	assert.Equal(t, notify.StatusPending, entries[0].Status)
}

func TestSendAlert(t *testing.T) {
	s, _ := newTestServer()
	register(t, s, "a", "a@x.com", "pw")
	tok := login(t, s, "a@x.com", "pw")

	// Nothing unfinished yet.
	w := do(t, s, testRequest{method: "POST", path: "/send-alert", token: tok})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "No unfinished tasks")

	// With an unfinished task the reminder goes out (to the log here: the
	// test config has no SMTP host, so the mailer is disabled).
	do(t, s, testRequest{method: "POST", path: "/api/tasks", token: tok,
		body: map[string]any{"title": "t1", "date": "2025-01-01"}})
	w = do(t, s, testRequest{method: "POST", path: "/send-alert", token: tok})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Email sent")
}

func TestLogoutClearsCookie(t *testing.T) {
	s, _ := newTestServer()

	w := do(t, s, testRequest{method: "POST", path: "/api/auth/logout"})
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.CookieName, cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestCORSAllowList(t *testing.T) {
	s, _ := newTestServer()

	w := do(t, s, testRequest{method: "OPTIONS", path: "/api/tasks", origin: "http://localhost:3000"})
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))

	// Unlisted origins get no CORS headers at all.
	w = do(t, s, testRequest{method: "OPTIONS", path: "/api/tasks", origin: "http://evil.example"})
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

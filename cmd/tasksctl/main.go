package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"project-tasks/internal/auth"
	"project-tasks/internal/filter"
	"project-tasks/internal/task"
	"project-tasks/internal/tasklist"
)

func main() {
	// ---- register ----
	regCmd := flag.NewFlagSet("register", flag.ExitOnError)
	regAPI := regCmd.String("api", defaultAPI(), "backend base URL")
	regUser := regCmd.String("user", "", "username")
	regEmail := regCmd.String("email", "", "email address")
	regPass := regCmd.String("pass", "", "password")

	// ---- login ----
	loginCmd := flag.NewFlagSet("login", flag.ExitOnError)
	loginAPI := loginCmd.String("api", defaultAPI(), "backend base URL")
	loginEmail := loginCmd.String("email", "", "email address")
	loginPass := loginCmd.String("pass", "", "password")

	// ---- logout ----
	logoutCmd := flag.NewFlagSet("logout", flag.ExitOnError)
	logoutAPI := logoutCmd.String("api", defaultAPI(), "backend base URL")

	// ---- tasks ----
	tasksCmd := flag.NewFlagSet("tasks", flag.ExitOnError)
	tasksAPI := tasksCmd.String("api", defaultAPI(), "backend base URL")
	fToday := tasksCmd.Bool("today", false, "only tasks due today")
	fImportant := tasksCmd.Bool("important", false, "only important tasks")
	fDone := tasksCmd.Bool("done", false, "only completed tasks")
	fTodo := tasksCmd.Bool("todo", false, "only uncompleted tasks")
	fDir := tasksCmd.String("dir", "", "only tasks in this directory")
	fSearch := tasksCmd.String("search", "", "title substring to search for")

	// ---- dirs ----
	dirsCmd := flag.NewFlagSet("dirs", flag.ExitOnError)
	dirsAPI := dirsCmd.String("api", defaultAPI(), "backend base URL")

	// ---- add ----
	addCmd := flag.NewFlagSet("add", flag.ExitOnError)
	addAPI := addCmd.String("api", defaultAPI(), "backend base URL")
	addTitle := addCmd.String("title", "", "task title")
	addDate := addCmd.String("date", "", "due date (YYYY-MM-DD)")
	addDesc := addCmd.String("desc", "", "description")
	addDir := addCmd.String("dir", "", "directory label")
	addImportant := addCmd.Bool("important", false, "mark as important")

	// ---- done ----
	doneCmd := flag.NewFlagSet("done", flag.ExitOnError)
	doneAPI := doneCmd.String("api", defaultAPI(), "backend base URL")
	doneID := doneCmd.String("id", "", "task id")

	// ---- rm ----
	rmCmd := flag.NewFlagSet("rm", flag.ExitOnError)
	rmAPI := rmCmd.String("api", defaultAPI(), "backend base URL")
	rmID := rmCmd.String("id", "", "task id")

	// ---- clear ----
	clearCmd := flag.NewFlagSet("clear", flag.ExitOnError)
	clearAPI := clearCmd.String("api", defaultAPI(), "backend base URL")

	// ---- remind ----
	remindCmd := flag.NewFlagSet("remind", flag.ExitOnError)
	remindAPI := remindCmd.String("api", defaultAPI(), "backend base URL")

	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "register":
		_ = regCmd.Parse(os.Args[2:])
		dieIf(cmdRegister(*regAPI, *regUser, *regEmail, *regPass))
	case "login":
		_ = loginCmd.Parse(os.Args[2:])
		dieIf(cmdLogin(*loginAPI, *loginEmail, *loginPass))
	case "logout":
		_ = logoutCmd.Parse(os.Args[2:])
		dieIf(cmdLogout(*logoutAPI))
	case "tasks":
		_ = tasksCmd.Parse(os.Args[2:])
		dieIf(cmdTasks(*tasksAPI, viewFlags{
			today: *fToday, important: *fImportant,
			done: *fDone, todo: *fTodo,
			dir: *fDir, search: *fSearch,
		}))
	case "dirs":
		_ = dirsCmd.Parse(os.Args[2:])
		dieIf(cmdDirs(*dirsAPI))
	case "add":
		_ = addCmd.Parse(os.Args[2:])
		dieIf(cmdAdd(*addAPI, task.Draft{
			Title:       *addTitle,
			Description: *addDesc,
			Date:        *addDate,
			Important:   *addImportant,
			Dir:         *addDir,
		}))
	case "done":
		_ = doneCmd.Parse(os.Args[2:])
		dieIf(cmdDone(*doneAPI, *doneID))
	case "rm":
		_ = rmCmd.Parse(os.Args[2:])
		dieIf(cmdRemove(*rmAPI, *rmID))
	case "clear":
		_ = clearCmd.Parse(os.Args[2:])
		dieIf(cmdClear(*clearAPI))
	case "remind":
		_ = remindCmd.Parse(os.Args[2:])
		dieIf(cmdRemind(*remindAPI))
	default:
		usage()
	}
}

func usage() {
	fmt.Print(`tasksctl commands:

  register --user alice --email alice@example.com --pass secret
  login    --email alice@example.com --pass secret
  logout
  tasks    [--today] [--important] [--done | --todo] [--dir Main] [--search milk]
  dirs
  add      --title "Buy milk" --date 2025-01-01 [--desc text] [--dir Main] [--important]
  done     --id <TASK_ID>
  rm       --id <TASK_ID>
  clear
  remind

All commands accept --api (default http://localhost:3001, or $TASKS_API).
The session token is kept in ~/.tasksctl.json until it expires.
`)
}

// ============ Commands ============

func cmdRegister(api, user, email, pass string) error {
	if user == "" || email == "" || pass == "" {
		return errors.New("--user/--email/--pass required")
	}
	resp, err := call(api, http.MethodPost, "/api/auth/register", "",
		auth.RegisterRequest{Username: user, Email: email, Password: pass})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}
	fmt.Println("Registered:", email)
	return nil
}

func cmdLogin(api, email, pass string) error {
	if email == "" || pass == "" {
		return errors.New("--email/--pass required")
	}
	resp, err := call(api, http.MethodPost, "/api/auth/login", "",
		auth.LoginRequest{Email: email, Password: pass})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}

	var lr auth.LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return err
	}
	if err := saveSession(lr.Token, lr.ExpiresAt); err != nil {
		return err
	}
	fmt.Println("Logged in until", lr.ExpiresAt.Format(time.RFC3339))
	return nil
}

func cmdLogout(api string) error {
	// Best effort on the server side; the local session is dropped
	// regardless.
	if resp, err := call(api, http.MethodPost, "/api/auth/logout", "", nil); err == nil {
		resp.Body.Close()
	}
	if err := os.Remove(sessionPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	fmt.Println("Logged out")
	return nil
}

type viewFlags struct {
	today, important, done, todo bool
	dir, search                  string
}

func cmdTasks(api string, v viewFlags) error {
	store, _, err := fetchTasks(api)
	if err != nil {
		return err
	}

	tasks := store.Tasks()
	if v.today {
		tasks = filter.Today(tasks, time.Now())
	}
	if v.important {
		tasks = filter.Important(tasks)
	}
	if v.done {
		tasks = filter.Completed(tasks)
	}
	if v.todo {
		tasks = filter.Uncompleted(tasks)
	}
	if v.dir != "" {
		// An unknown directory falls back to the full view.
		if store.HasDirectory(v.dir) {
			tasks = filter.ByDirectory(tasks, v.dir)
		}
	}
	if v.search != "" {
		tasks = filter.Search(tasks, v.search)
	}

	return printJSON(tasks)
}

func cmdDirs(api string) error {
	store, _, err := fetchTasks(api)
	if err != nil {
		return err
	}
	return printJSON(store.Directories())
}

func cmdAdd(api string, draft task.Draft) error {
	if draft.Title == "" || draft.Date == "" {
		return errors.New("--title and --date required")
	}
	tok, err := loadToken()
	if err != nil {
		return err
	}
	resp, err := call(api, http.MethodPost, "/api/tasks", tok, draft)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		return apiError(resp)
	}
	var created task.Task
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return err
	}
	fmt.Println("Added task id:", created.ID)
	return nil
}

func cmdDone(api, id string) error {
	if id == "" {
		return errors.New("--id required")
	}
	tok, err := loadToken()
	if err != nil {
		return err
	}
	done := true
	resp, err := call(api, http.MethodPut, "/api/tasks/"+id, tok, task.Patch{Completed: &done})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	fmt.Println("Completed task id:", id)
	return nil
}

func cmdRemove(api, id string) error {
	if id == "" {
		return errors.New("--id required")
	}
	tok, err := loadToken()
	if err != nil {
		return err
	}
	resp, err := call(api, http.MethodDelete, "/api/tasks/"+id, tok, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return apiError(resp)
	}
	fmt.Println("Deleted task id:", id)
	return nil
}

func cmdClear(api string) error {
	tok, err := loadToken()
	if err != nil {
		return err
	}
	resp, err := call(api, http.MethodDelete, "/api/tasks", tok, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		return apiError(resp)
	}
	fmt.Println("All tasks deleted")
	return nil
}

func cmdRemind(api string) error {
	tok, err := loadToken()
	if err != nil {
		return err
	}
	resp, err := call(api, http.MethodPost, "/send-alert", tok, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return apiError(resp)
	}
	fmt.Println("Reminder email sent")
	return nil
}

// ============ HTTP plumbing ============

func defaultAPI() string {
	if v := os.Getenv("TASKS_API"); v != "" {
		return v
	}
	return "http://localhost:3001"
}

func call(api, method, path, token string, body any) (*http.Response, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, api+path, rd)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	client := &http.Client{Timeout: 15 * time.Second}
	return client.Do(req)
}

func apiError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(b, &payload) == nil && payload.Error != "" {
		return fmt.Errorf("%s: %s", resp.Status, payload.Error)
	}
	return fmt.Errorf("%s: %s", resp.Status, bytes.TrimSpace(b))
}

// fetchTasks pulls the full task list and loads it into a local store so the
// directory set is learned from the data.
func fetchTasks(api string) (*tasklist.Store, string, error) {
	tok, err := loadToken()
	if err != nil {
		return nil, "", err
	}
	resp, err := call(api, http.MethodGet, "/api/tasks", tok, nil)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", apiError(resp)
	}

	var tasks []task.Task
	if err := json.NewDecoder(resp.Body).Decode(&tasks); err != nil {
		return nil, "", err
	}
	store := tasklist.NewStore()
	store.Replace(tasks)
	return store, tok, nil
}

func printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(b))
	return nil
}

// ============ Session file ============

type sessionFile struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

func sessionPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tasksctl.json"
	}
	return filepath.Join(home, ".tasksctl.json")
}

func saveSession(token string, expiresAt time.Time) error {
	b, err := json.Marshal(sessionFile{Token: token, ExpiresAt: expiresAt})
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(), b, 0o600)
}

// loadToken rebuilds the session gate from disk; an expired token reads the
// same as no token at all.
func loadToken() (string, error) {
	b, err := os.ReadFile(sessionPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", errors.New("not logged in, run: tasksctl login")
		}
		return "", err
	}
	var sf sessionFile
	if err := json.Unmarshal(b, &sf); err != nil {
		return "", err
	}

	gate := tasklist.NewSessionGate()
	gate.SetToken(sf.Token, sf.ExpiresAt)
	tok, ok := gate.Token()
	if !ok {
		return "", errors.New("session expired, run: tasksctl login")
	}
	return tok, nil
}

func dieIf(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

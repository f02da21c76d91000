package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"taskmanager/internal/database"
	"taskmanager/internal/models"
)

func (a *testApp) onlyTask(userID int) models.Task {
	a.t.Helper()
	tasks, total, err := a.store.ListTasks(context.Background(), userID, database.TaskQuery{Limit: 10})
	if err != nil {
		a.t.Fatalf("ListTasks: %v", err)
	}
	if total != 1 || len(tasks) != 1 {
		a.t.Fatalf("expected exactly one task, got total=%d len=%d", total, len(tasks))
	}
	return tasks[0]
}

func TestAuthenticationFlow(t *testing.T) {
	app := newTestApp(t)

	status, body := app.post(app.client, "/register", url.Values{
		"username": {"integration_user"},
		"password": {"StrongPass123"},
		"confirm":  {"StrongPass123"},
	})
	expectHTTP200(t, status)
	mustContain(t, body, "Registration successful. Please log in.", "<h1>Login</h1>")

	body = app.login(app.client, "integration_user", "StrongPass123")
	mustContain(t, body, "Logged in successfully.", "Logged in as integration_user", `href="/tasks/new"`)

	status, body = app.get(app.client, "/logout")
	expectHTTP200(t, status)
	mustContain(t, body, "You have been logged out.")
	mustNotContain(t, body, "Logged in as")

	status, body = app.get(app.client, "/")
	expectHTTP200(t, status)
	mustContain(t, body, "Please log in to access this page.", "<h1>Login</h1>")
}

func TestCreateTaskPersists(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("task_creator", "Secret123")
	app.login(app.client, "task_creator", "Secret123")

	status, body := app.post(app.client, "/tasks/new", url.Values{
		"title":       {"Integration Task"},
		"description": {"Created via integration test"},
		"due_date":    {"2030-05-17"},
	})
	expectHTTP200(t, status)
	mustContain(t, body, "Task created.", "Integration Task", "Due 2030-05-17")

	task := app.onlyTask(user.ID)
	if task.Title != "Integration Task" || task.Description != "Created via integration test" {
		t.Fatalf("unexpected stored task: %+v", task)
	}
	if task.DueDateString() != "2030-05-17" {
		t.Fatalf("expected due date 2030-05-17, got %q", task.DueDateString())
	}
	if task.IsCompleted {
		t.Fatalf("new tasks must start pending")
	}
}

func TestCreateTaskValidation(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("validator", "Secret123")
	app.login(app.client, "validator", "Secret123")

	status, body := app.post(app.client, "/tasks/new", url.Values{
		"title":    {"   "},
		"due_date": {"17/05/2030"},
	})
	mustStatus(t, status, http.StatusBadRequest)
	mustContain(t, body, "Title is required.", "Due date must be in YYYY-MM-DD format.")

	status, body = app.post(app.client, "/tasks/new", url.Values{
		"title": {strings.Repeat("x", 201)},
	})
	mustStatus(t, status, http.StatusBadRequest)
	mustContain(t, body, "Title must be at most 200 characters.")

	_, total, err := app.store.ListTasks(context.Background(), user.ID, database.TaskQuery{Limit: 10})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if total != 0 {
		t.Fatalf("rejected forms must not store tasks, got %d", total)
	}
}

func TestEditAndToggleTask(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("editor", "Secret123")
	app.login(app.client, "editor", "Secret123")

	app.post(app.client, "/tasks/new", url.Values{"title": {"Original Title"}, "description": {"Original"}})
	task := app.onlyTask(user.ID)

	status, body := app.get(app.client, fmt.Sprintf("/tasks/%d/edit", task.ID))
	expectHTTP200(t, status)
	mustContain(t, body, `value="Original Title"`, "Edit Task")

	status, body = app.post(app.client, fmt.Sprintf("/tasks/%d/edit", task.ID), url.Values{
		"title":       {"Updated Title"},
		"description": {"Updated description"},
		"due_date":    {""},
	})
	expectHTTP200(t, status)
	mustContain(t, body, "Task updated.", "Updated Title")

	status, body = app.post(app.client, fmt.Sprintf("/tasks/%d/toggle", task.ID), nil)
	expectHTTP200(t, status)
	mustContain(t, body, "Task status updated.", "task-item done", "Done", "Undo")

	stored := app.onlyTask(user.ID)
	if !stored.IsCompleted {
		t.Fatalf("expected task to be completed after toggle")
	}
	if stored.Title != "Updated Title" || stored.Description != "Updated description" || stored.DueDate != nil {
		t.Fatalf("unexpected stored task: %+v", stored)
	}

	app.post(app.client, fmt.Sprintf("/tasks/%d/toggle", task.ID), nil)
	if app.onlyTask(user.ID).IsCompleted {
		t.Fatalf("second toggle must reopen the task")
	}
}

func TestEditFormCompletedCheckbox(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("checker", "Secret123")
	app.login(app.client, "checker", "Secret123")

	app.post(app.client, "/tasks/new", url.Values{"title": {"Check me"}})
	task := app.onlyTask(user.ID)
	path := fmt.Sprintf("/tasks/%d/edit", task.ID)

	app.post(app.client, path, url.Values{"title": {"Check me"}, "is_completed": {"y"}})
	if !app.onlyTask(user.ID).IsCompleted {
		t.Fatalf("checked box must complete the task")
	}

	_, body := app.get(app.client, path)
	mustContain(t, body, "checked")

	app.post(app.client, path, url.Values{"title": {"Check me"}})
	if app.onlyTask(user.ID).IsCompleted {
		t.Fatalf("unchecked box must reopen the task")
	}
}

func TestOverdueBadge(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("late_user", "Secret123")
	app.login(app.client, "late_user", "Secret123")

	yesterday := time.Now().AddDate(0, 0, -2).Format(models.DateLayout)
	app.post(app.client, "/tasks/new", url.Values{"title": {"Late"}, "due_date": {yesterday}})

	_, body := app.get(app.client, "/")
	mustContain(t, body, "task-item overdue", "Overdue")

	task := app.onlyTask(user.ID)
	app.post(app.client, fmt.Sprintf("/tasks/%d/toggle", task.ID), nil)

	_, body = app.get(app.client, "/")
	mustContain(t, body, "task-item done")
	mustNotContain(t, body, `class="badge badge-overdue"`)
}

func TestDeleteTask(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("deleter", "Secret123")
	app.login(app.client, "deleter", "Secret123")

	app.post(app.client, "/tasks/new", url.Values{"title": {"Disposable"}})
	task := app.onlyTask(user.ID)

	status, body := app.post(app.client, fmt.Sprintf("/tasks/%d/delete", task.ID), nil)
	expectHTTP200(t, status)
	mustContain(t, body, "Task deleted.", "No tasks yet.")

	status, _ = app.post(app.client, fmt.Sprintf("/tasks/%d/delete", task.ID), nil)
	mustStatus(t, status, http.StatusNotFound)
}

func TestAnonymousRedirectKeepsNext(t *testing.T) {
	app := newTestApp(t)
	app.createUser("returning", "Secret123")

	client := app.newClient()
	client.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	resp, err := client.Get(app.server.URL + "/tasks/new")
	if err != nil {
		t.Fatalf("GET /tasks/new: %v", err)
	}
	resp.Body.Close()
	mustStatus(t, resp.StatusCode, http.StatusSeeOther)
	if location := resp.Header.Get("Location"); location != "/login?next=%2Ftasks%2Fnew" {
		t.Fatalf("unexpected redirect %q", location)
	}

	client.CheckRedirect = nil
	status, body := app.get(client, "/login?next=%2Ftasks%2Fnew")
	expectHTTP200(t, status)
	mustContain(t, body, `name="next" value="/tasks/new"`)

	status, body = app.post(client, "/login", url.Values{
		"username": {"returning"},
		"password": {"Secret123"},
		"next":     {"/tasks/new"},
	})
	expectHTTP200(t, status)
	mustContain(t, body, "<h1>New Task</h1>", "Logged in successfully.")
}

func TestTasksAreIsolatedBetweenUsers(t *testing.T) {
	app := newTestApp(t)
	owner := app.createUser("owner", "Secret123")
	app.createUser("intruder", "Secret123")

	app.login(app.client, "owner", "Secret123")
	app.post(app.client, "/tasks/new", url.Values{"title": {"Private plans"}})
	task := app.onlyTask(owner.ID)

	intruder := app.newClient()
	app.login(intruder, "intruder", "Secret123")

	_, body := app.get(intruder, "/")
	mustNotContain(t, body, "Private plans")

	for _, request := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, fmt.Sprintf("/tasks/%d/edit", task.ID)},
		{http.MethodPost, fmt.Sprintf("/tasks/%d/edit", task.ID)},
		{http.MethodPost, fmt.Sprintf("/tasks/%d/toggle", task.ID)},
		{http.MethodPost, fmt.Sprintf("/tasks/%d/delete", task.ID)},
	} {
		var status int
		if request.method == http.MethodGet {
			status, body = app.get(intruder, request.path)
		} else {
			status, body = app.post(intruder, request.path, url.Values{"title": {"Hijacked"}})
		}
		mustStatus(t, status, http.StatusNotFound)
		mustContain(t, body, "Task not found.")
	}

	stored := app.onlyTask(owner.ID)
	if stored.Title != "Private plans" || stored.IsCompleted {
		t.Fatalf("foreign requests must not change the task: %+v", stored)
	}
}

func TestRegistrationErrors(t *testing.T) {
	app := newTestApp(t)
	app.createUser("taken_name", "Secret123")

	status, body := app.post(app.client, "/register", url.Values{
		"username": {"fresh_name"},
		"password": {"Secret123"},
		"confirm":  {"Other123"},
	})
	mustStatus(t, status, http.StatusBadRequest)
	mustContain(t, body, "Passwords must match.")

	longPassword := strings.Repeat("p", 80)
	status, body = app.post(app.client, "/register", url.Values{
		"username": {"longpw"},
		"password": {longPassword},
		"confirm":  {longPassword},
	})
	mustStatus(t, status, http.StatusBadRequest)
	mustContain(t, body, "Password must be at most 72 bytes.")
	mustNotContain(t, body, "Something went wrong.")

	status, body = app.post(app.client, "/register", url.Values{
		"username": {"ab"},
		"password": {"Secret123"},
		"confirm":  {"Secret123"},
	})
	mustStatus(t, status, http.StatusBadRequest)
	mustContain(t, body, "Username must be between 3 and 80 characters.")

	status, body = app.post(app.client, "/register", url.Values{
		"username": {"taken_name"},
		"password": {"Secret123"},
		"confirm":  {"Secret123"},
	})
	mustStatus(t, status, http.StatusConflict)
	mustContain(t, body, "Username already taken.")

	count, err := app.store.CountUsers(context.Background())
	if err != nil {
		t.Fatalf("CountUsers: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected only the seeded user, got %d", count)
	}
}

func TestInvalidLogin(t *testing.T) {
	app := newTestApp(t)
	app.createUser("known_user", "Secret123")

	for _, values := range []url.Values{
		{"username": {"known_user"}, "password": {"wrong"}},
		{"username": {"nobody_here"}, "password": {"Secret123"}},
	} {
		status, body := app.post(app.client, "/login", values)
		mustStatus(t, status, http.StatusUnauthorized)
		mustContain(t, body, "Invalid username or password.")
		mustNotContain(t, body, "Logged in as")
	}
}

func TestTamperedSessionIsAnonymous(t *testing.T) {
	app := newTestApp(t)

	serverURL, err := url.Parse(app.server.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	app.client.Jar.SetCookies(serverURL, []*http.Cookie{{Name: "session", Value: "not-a-token", Path: "/"}})

	status, body := app.get(app.client, "/")
	expectHTTP200(t, status)
	mustContain(t, body, "Please log in to access this page.")
}

func TestForgedFlashIsIgnored(t *testing.T) {
	app := newTestApp(t)

	serverURL, err := url.Parse(app.server.URL)
	if err != nil {
		t.Fatalf("parse server URL: %v", err)
	}
	forged := base64.RawURLEncoding.EncodeToString([]byte(`[{"category":"success","message":"Injected notice"}]`))
	app.client.Jar.SetCookies(serverURL, []*http.Cookie{{Name: "flash", Value: forged, Path: "/"}})

	status, body := app.get(app.client, "/login")
	expectHTTP200(t, status)
	mustNotContain(t, body, "Injected notice")

	status, body = app.get(app.client, "/")
	expectHTTP200(t, status)
	mustContain(t, body, "Please log in to access this page.")
}

func TestSearchAndPaging(t *testing.T) {
	app := newTestApp(t)
	user := app.createUser("searcher", "Secret123")
	app.login(app.client, "searcher", "Secret123")

	ctx := context.Background()
	for i := 1; i <= 5; i++ {
		task := models.Task{Title: fmt.Sprintf("Chore %d", i), UserID: user.ID}
		if i == 3 {
			task.Title = "Buy milk"
		}
		if err := app.store.CreateTask(ctx, &task); err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
	}

	_, body := app.get(app.client, "/?search=MILK")
	mustContain(t, body, "Buy milk", "Showing 1 of 1 tasks")
	mustNotContain(t, body, "Chore 1")

	_, body = app.get(app.client, "/?limit=2")
	mustContain(t, body, "Showing 2 of 5 tasks", "Chore 1", "Chore 2", `href="/?limit=2&amp;offset=2"`)
	mustNotContain(t, body, "Previous")

	_, body = app.get(app.client, "/?limit=2&offset=4")
	mustContain(t, body, "Showing 1 of 5 tasks", "Chore 5", "Previous")
	mustNotContain(t, body, ">Next<")

	_, body = app.get(app.client, "/?offset=9223372036854775807")
	mustContain(t, body, "Showing 0 of 5 tasks", "Previous")
	mustNotContain(t, body, ">Next<")

	for _, wildcard := range []string{"_", "%"} {
		_, body = app.get(app.client, "/?search="+url.QueryEscape(wildcard))
		mustContain(t, body, "Showing 0 of 0 tasks")
	}

	literal := models.Task{Title: "Save 50% on snake_case", UserID: user.ID}
	if err := app.store.CreateTask(ctx, &literal); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	_, body = app.get(app.client, "/?search="+url.QueryEscape("50%"))
	mustContain(t, body, "Showing 1 of 1 tasks", "Save 50% on snake_case")
	_, body = app.get(app.client, "/?search=e_c")
	mustContain(t, body, "Showing 1 of 1 tasks")
}

func TestNotFoundPage(t *testing.T) {
	app := newTestApp(t)

	status, body := app.get(app.client, "/does-not-exist")
	mustStatus(t, status, http.StatusNotFound)
	mustContain(t, body, "Page not found.")
}

func TestHealthAndMonitoringEndpoints(t *testing.T) {
	app := newTestApp(t)
	app.createUser("metrics_user", "Secret123")

	status, body := app.get(app.client, "/health")
	expectHTTP200(t, status)
	var health map[string]string
	if err := json.Unmarshal([]byte(body), &health); err != nil {
		t.Fatalf("decode health: %v", err)
	}
	if health["status"] != "healthy" {
		t.Fatalf("unexpected health payload: %v", health)
	}

	status, _ = app.get(app.client, "/monitor/users")
	mustStatus(t, status, http.StatusUnauthorized)

	req, err := http.NewRequest(http.MethodGet, app.server.URL+"/monitor/users", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	req.Header.Set("X-Monitoring-Key", "monitor-key")
	resp, err := app.client.Do(req)
	if err != nil {
		t.Fatalf("GET /monitor/users: %v", err)
	}
	status, body = readResponse(t, resp)
	expectHTTP200(t, status)
	mustContain(t, body, "Users total: 1")
}

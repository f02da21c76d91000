package handlers

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"

	"taskmanager/internal/database"
	"taskmanager/internal/middleware"
	"taskmanager/internal/models"
	"taskmanager/internal/utils"
	"taskmanager/internal/web"
)

const testSecretKey = "test-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	code := m.Run()
	os.Exit(code)
}

func newTestSigner(t *testing.T) *utils.SessionSigner {
	t.Helper()
	signer, err := utils.NewSessionSigner(testSecretKey, time.Hour)
	if err != nil {
		t.Fatalf("NewSessionSigner: %v", err)
	}
	return signer
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db, mock, cleanup
}

func newMockHandler(t *testing.T, db *sql.DB) *Handler {
	t.Helper()
	return New(database.NewStore(db, database.DialectPostgres), newTestSigner(t), Options{MonitoringAPIKey: "monitor-key"})
}

// newBareRouter mounts single handlers without the session middleware.
func newBareRouter(t *testing.T) *gin.Engine {
	t.Helper()
	renderer, err := web.NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	router := gin.New()
	router.HTMLRender = renderer
	return router
}

func withTestUser(userID int, username string) gin.HandlerFunc {
	return func(c *gin.Context) {
		middleware.WithAuthContext(c, middleware.AuthContext{UserID: userID, Username: username})
		c.Next()
	}
}

func mustStatus(t *testing.T, actual int, expected int) {
	t.Helper()
	if actual != expected {
		t.Fatalf("expected status %d, got %d", expected, actual)
	}
}

func expectHTTP200(t *testing.T, status int) {
	t.Helper()
	mustStatus(t, status, http.StatusOK)
}

func formRequest(method string, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// testApp is the full router on a fresh in-memory database, driven through a
// real HTTP server by a client that keeps cookies and follows redirects.
type testApp struct {
	t      *testing.T
	store  *database.Store
	server *httptest.Server
	client *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store, err := database.Connect(context.Background(), "sqlite:///:memory:", "", database.DefaultPoolOptions())
	if err != nil {
		t.Fatalf("database.Connect: %v", err)
	}

	router, err := NewRouter(New(store, newTestSigner(t), Options{MonitoringAPIKey: "monitor-key"}))
	if err != nil {
		t.Fatalf("NewRouter: %v", err)
	}

	server := httptest.NewServer(router)
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New: %v", err)
	}

	t.Cleanup(func() {
		server.Close()
		_ = store.Close()
	})

	return &testApp{
		t:      t,
		store:  store,
		server: server,
		client: &http.Client{Jar: jar},
	}
}

// newClient returns a second browser with its own cookies.
func (a *testApp) newClient() *http.Client {
	a.t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		a.t.Fatalf("cookiejar.New: %v", err)
	}
	return &http.Client{Jar: jar}
}

func (a *testApp) get(client *http.Client, path string) (int, string) {
	a.t.Helper()
	resp, err := client.Get(a.server.URL + path)
	if err != nil {
		a.t.Fatalf("GET %s: %v", path, err)
	}
	return readResponse(a.t, resp)
}

func (a *testApp) post(client *http.Client, path string, values url.Values) (int, string) {
	a.t.Helper()
	resp, err := client.PostForm(a.server.URL+path, values)
	if err != nil {
		a.t.Fatalf("POST %s: %v", path, err)
	}
	return readResponse(a.t, resp)
}

func (a *testApp) createUser(username string, password string) models.User {
	a.t.Helper()
	user := models.User{Username: username}
	if err := user.SetPassword(password); err != nil {
		a.t.Fatalf("SetPassword: %v", err)
	}
	created, err := a.store.CreateUser(context.Background(), username, user.PasswordHash)
	if err != nil {
		a.t.Fatalf("CreateUser: %v", err)
	}
	return created
}

func (a *testApp) login(client *http.Client, username string, password string) string {
	a.t.Helper()
	status, body := a.post(client, "/login", url.Values{"username": {username}, "password": {password}})
	expectHTTP200(a.t, status)
	return body
}

func readResponse(t *testing.T, resp *http.Response) (int, string) {
	t.Helper()
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp.StatusCode, string(body)
}

func mustContain(t *testing.T, body string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if !strings.Contains(body, fragment) {
			t.Fatalf("expected page to contain %q\n%s", fragment, body)
		}
	}
}

func mustNotContain(t *testing.T, body string, fragments ...string) {
	t.Helper()
	for _, fragment := range fragments {
		if strings.Contains(body, fragment) {
			t.Fatalf("expected page not to contain %q\n%s", fragment, body)
		}
	}
}

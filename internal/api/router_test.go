package api

import (
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/isdelr/mamakara/internal/auth"
	"github.com/isdelr/mamakara/internal/database"
	"github.com/isdelr/mamakara/internal/models"
	"github.com/isdelr/mamakara/internal/services"
	"github.com/isdelr/mamakara/internal/views"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	t      *testing.T
	db     *database.DB
	server *httptest.Server
	client *http.Client
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := database.New(database.DriverSQLite, filepath.Join(t.TempDir(), "app.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, database.Migrate(db))

	renderer, err := views.New()
	require.NoError(t, err)

	sessions := auth.NewSessionManager("test-secret", time.Hour, false)
	router := NewRouter(services.NewUserService(db), services.NewPostService(db), sessions, renderer, nil)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	app := &testApp{t: t, db: db, server: server}
	app.client = app.newClient()
	return app
}

// newClient returns a browser-like client with its own cookie jar that
// does not follow redirects, so tests can assert on them.
func (a *testApp) newClient() *http.Client {
	jar, err := cookiejar.New(nil)
	require.NoError(a.t, err)
	return &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

func (a *testApp) get(c *http.Client, path string) (*http.Response, string) {
	a.t.Helper()
	resp, err := c.Get(a.server.URL + path)
	require.NoError(a.t, err)
	return resp, readBody(a.t, resp)
}

func (a *testApp) post(c *http.Client, path string, form url.Values) (*http.Response, string) {
	a.t.Helper()
	resp, err := c.PostForm(a.server.URL+path, form)
	require.NoError(a.t, err)
	return resp, readBody(a.t, resp)
}

func (a *testApp) count(query string, args ...any) int {
	a.t.Helper()
	var n int
	require.NoError(a.t, a.db.QueryRow(query, args...).Scan(&n))
	return n
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(b)
}

func creds(username, password string) url.Values {
	return url.Values{"username": {username}, "password": {password}}
}

func assertRedirect(t *testing.T, resp *http.Response, location string) {
	t.Helper()
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, location, resp.Header.Get("Location"))
}

func TestScenario_RegisterLoginPost(t *testing.T) {
	app := newTestApp(t)
	c := app.client

	resp, _ := app.post(c, "/register", creds("alice", "secret1"))
	assertRedirect(t, resp, "/login")

	resp, body := app.get(c, "/login")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Registration succeeded")

	resp, _ = app.post(c, "/login", creds("alice", "secret1"))
	assertRedirect(t, resp, "/")

	resp, body = app.get(c, "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Logged in!")
	assert.Contains(t, body, `href="/logout"`)

	resp, _ = app.post(c, "/post", url.Values{"content": {"hello"}})
	assertRedirect(t, resp, "/")

	_, body = app.get(c, "/")
	assert.Contains(t, body, "Posted!")
	assert.Contains(t, body, `<span class="author">alice</span>`)
	assert.Contains(t, body, `<p class="content">hello</p>`)
	assert.Equal(t, 1, app.count(`SELECT COUNT(*) FROM post`))

	// The list is public.
	resp, body = app.get(app.newClient(), "/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `<p class="content">hello</p>`)
	assert.NotContains(t, body, `action="/post"`)
}

func TestScenario_DuplicateRegistration(t *testing.T) {
	app := newTestApp(t)
	c := app.client

	resp, _ := app.post(c, "/register", creds("alice", "x"))
	assertRedirect(t, resp, "/login")

	resp, body := app.post(c, "/register", creds("alice", "y"))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, body, "That username is already taken.")
	assert.Contains(t, body, `action="/register"`)

	assert.Equal(t, 1, app.count(`SELECT COUNT(*) FROM "user" WHERE username = ?`, "alice"))

	resp, _ = app.post(app.newClient(), "/login", creds("alice", "y"))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = app.post(app.newClient(), "/login", creds("alice", "x"))
	assertRedirect(t, resp, "/")
}

func TestRegister_MissingFields(t *testing.T) {
	app := newTestApp(t)

	for _, form := range []url.Values{creds("", "pw"), creds("bob", ""), {}} {
		resp, body := app.post(app.client, "/register", form)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Contains(t, body, "Please enter a username")
	}
	assert.Equal(t, 0, app.count(`SELECT COUNT(*) FROM "user"`))
}

func TestRegister_LongPassword(t *testing.T) {
	app := newTestApp(t)
	c := app.client
	long := strings.Repeat("p", 80)

	resp, body := app.post(c, "/register", creds("alice", long))
	assertRedirect(t, resp, "/login")
	assert.NotContains(t, body, "Something went wrong")

	resp, _ = app.post(c, "/login", creds("alice", long))
	assertRedirect(t, resp, "/")
}

func TestLogin_FailureIsGeneric(t *testing.T) {
	app := newTestApp(t)
	resp, _ := app.post(app.client, "/register", creds("alice", "secret1"))
	assertRedirect(t, resp, "/login")

	unknownResp, unknownBody := app.post(app.newClient(), "/login", creds("mallory", "secret1"))

	c := app.newClient()
	wrongResp, wrongBody := app.post(c, "/login", creds("alice", "wrong"))

	assert.Equal(t, http.StatusUnauthorized, unknownResp.StatusCode)
	assert.Equal(t, unknownResp.StatusCode, wrongResp.StatusCode)
	assert.Contains(t, unknownBody, "Invalid username or password.")
	assert.Contains(t, wrongBody, "Invalid username or password.")

	// A failed login leaves the browser anonymous.
	resp, _ = app.post(c, "/post", url.Values{"content": {"sneaky"}})
	assertRedirect(t, resp, "/login")
	assert.Equal(t, 0, app.count(`SELECT COUNT(*) FROM post`))
}

func TestGuard_RedirectsAnonymous(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.post(app.client, "/post", url.Values{"content": {"hello"}})
	assertRedirect(t, resp, "/login")
	assert.Equal(t, 0, app.count(`SELECT COUNT(*) FROM post`))

	resp, _ = app.get(app.client, "/logout")
	assertRedirect(t, resp, "/login")
}

func TestLogout_EndsSession(t *testing.T) {
	app := newTestApp(t)
	c := app.client

	app.post(c, "/register", creds("alice", "secret1"))
	resp, _ := app.post(c, "/login", creds("alice", "secret1"))
	assertRedirect(t, resp, "/")

	resp, _ = app.get(c, "/logout")
	assertRedirect(t, resp, "/login")

	_, body := app.get(c, "/login")
	assert.Contains(t, body, "You have been logged out.")

	resp, _ = app.post(c, "/post", url.Values{"content": {"after logout"}})
	assertRedirect(t, resp, "/login")
	assert.Equal(t, 0, app.count(`SELECT COUNT(*) FROM post`))
}

func TestCreatePost_EmptyContent(t *testing.T) {
	app := newTestApp(t)
	c := app.client

	app.post(c, "/register", creds("alice", "secret1"))
	app.post(c, "/login", creds("alice", "secret1"))

	resp, _ := app.post(c, "/post", url.Values{"content": {"   "}})
	assertRedirect(t, resp, "/")

	_, body := app.get(c, "/")
	assert.Contains(t, body, "Post content cannot be empty.")
	assert.Equal(t, 0, app.count(`SELECT COUNT(*) FROM post`))
}

func TestPostList_NewestFirst(t *testing.T) {
	app := newTestApp(t)
	c := app.client

	app.post(c, "/register", creds("alice", "secret1"))
	app.post(c, "/login", creds("alice", "secret1"))

	for _, content := range []string{"first post", "second post", "third post"} {
		resp, _ := app.post(c, "/post", url.Values{"content": {content}})
		assertRedirect(t, resp, "/")
	}

	_, body := app.get(c, "/")
	first := strings.Index(body, "first post")
	second := strings.Index(body, "second post")
	third := strings.Index(body, "third post")
	require.True(t, first >= 0 && second >= 0 && third >= 0)
	assert.Less(t, third, second)
	assert.Less(t, second, first)
}

func TestSession_TamperedCookieIsAnonymous(t *testing.T) {
	app := newTestApp(t)
	app.post(app.client, "/register", creds("alice", "secret1"))

	forger := auth.NewSessionManager("not-the-server-secret", time.Hour, false)
	token, err := forger.GenerateToken(app.userByName("alice"))
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, app.server.URL+"/post", strings.NewReader("content=forged"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: auth.SessionCookieName, Value: token})

	resp, err := app.newClient().Do(req)
	require.NoError(t, err)
	readBody(t, resp)

	assertRedirect(t, resp, "/login")
	assert.Equal(t, 0, app.count(`SELECT COUNT(*) FROM post`))
}

func TestRoutes_MethodAndNotFound(t *testing.T) {
	app := newTestApp(t)

	resp, _ := app.get(app.client, "/post")
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	resp, _ = app.get(app.client, "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, body := app.get(app.client, "/register")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, `action="/register"`)
}

func (a *testApp) userByName(username string) (u models.User) {
	a.t.Helper()
	require.NoError(a.t, a.db.QueryRow(`SELECT id, username FROM "user" WHERE username = ?`, username).Scan(&u.ID, &u.Username))
	return u
}

package devbackend

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServer struct {
	*httptest.Server
	client *http.Client
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	svc := NewService(NewInMemoryRepository(), WithBcryptCost(bcrypt.MinCost))
	h := NewHandler(svc, []byte("test-secret"))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testServer{Server: srv, client: &http.Client{Jar: jar}}
}

func (s *testServer) post(t *testing.T, path string, form url.Values) (int, map[string]any) {
	t.Helper()
	resp, err := s.client.Post(s.URL+path, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(body, &out), string(body))
	return resp.StatusCode, out
}

func data(t *testing.T, body map[string]any) map[string]any {
	t.Helper()
	d, ok := body["data"].(map[string]any)
	require.True(t, ok, "missing data envelope: %v", body)
	return d
}

func TestRegisterAndLogin(t *testing.T) {
	srv := newTestServer(t)

	status, body := srv.post(t, "/auth/register", url.Values{
		"username": {"ada"}, "password": {"secret"}, "email": {"ada@example.com"}, "game": {"space-race"},
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "ada", data(t, body)["username"])
	assert.Equal(t, "space-race", data(t, body)["game"])

	t.Run("duplicate", func(t *testing.T) {
		status, body := srv.post(t, "/auth/register", url.Values{
			"username": {"ada"}, "password": {"x"}, "email": {"other@example.com"},
		})
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "fail", body["result"])
		assert.Contains(t, data(t, body)["message"], "already exists")
	})

	t.Run("missing fields", func(t *testing.T) {
		status, body := srv.post(t, "/auth/register", url.Values{"username": {"bob"}})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Missing required parameters", data(t, body)["message"])
	})

	t.Run("wrong password", func(t *testing.T) {
		status, body := srv.post(t, "/auth/login", url.Values{"username": {"ada"}, "password": {"nope"}})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "Invalid username or password", data(t, body)["message"])
	})

	t.Run("me requires a session", func(t *testing.T) {
		status, body := srv.post(t, "/users/me", url.Values{})
		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "fail", body["result"])
	})

	t.Run("login then me then logout", func(t *testing.T) {
		status, body := srv.post(t, "/auth/login", url.Values{"username": {"ada"}, "password": {"secret"}})
		require.Equal(t, http.StatusOK, status)
		id := data(t, body)["id"]

		status, body = srv.post(t, "/users/me", url.Values{})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, id, data(t, body)["id"])

		status, _ = srv.post(t, "/auth/logout", url.Values{})
		require.Equal(t, http.StatusOK, status)

		status, _ = srv.post(t, "/users/me", url.Values{})
		assert.Equal(t, http.StatusUnauthorized, status)
	})
}

func TestConnect(t *testing.T) {
	srv := newTestServer(t)
	profile := `{"id":"42","name":"X","email":"x@example.com"}`

	status, body := srv.post(t, "/auth/facebook/connect", url.Values{"type": {"fb"}, "id": {"42"}, "fullRes": {profile}})
	require.Equal(t, http.StatusOK, status)
	first := data(t, body)
	assert.Equal(t, true, first["created"])
	assert.Equal(t, "x@example.com", first["email"])
	assert.Equal(t, []any{"fb"}, first["linkedAccounts"])

	t.Run("same identity reuses the account", func(t *testing.T) {
		status, body := srv.post(t, "/auth/facebook/connect", url.Values{"type": {"fb"}, "id": {"42"}})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, first["id"], data(t, body)["id"])
		assert.Nil(t, data(t, body)["created"])
	})

	t.Run("session established", func(t *testing.T) {
		status, body := srv.post(t, "/users/me", url.Values{})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, first["id"], data(t, body)["id"])
	})

	t.Run("type defaults to provider", func(t *testing.T) {
		status, body := srv.post(t, "/auth/twitter/connect", url.Values{"id": {"7"}})
		require.Equal(t, http.StatusOK, status)
		// logged in as the fb account, so the new identity is linked to it
		assert.Equal(t, first["id"], data(t, body)["id"])
		assert.ElementsMatch(t, []any{"fb", "twitter"}, data(t, body)["linkedAccounts"])
	})

	t.Run("malformed profile", func(t *testing.T) {
		status, _ := srv.post(t, "/auth/facebook/connect", url.Values{"id": {"9"}, "fullRes": {"{"}})
		assert.Equal(t, http.StatusBadRequest, status)
	})

	t.Run("missing id", func(t *testing.T) {
		status, _ := srv.post(t, "/auth/facebook/connect", url.Values{"type": {"fb"}})
		assert.Equal(t, http.StatusBadRequest, status)
	})
}

package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"folio/internal/config"
	"folio/internal/publish"
	"folio/internal/testutil"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminLogin(t *testing.T, env *testEnv) string {
	t.Helper()
	resp := env.do(t, http.MethodPost, "/admin/login", fiber.Map{"password": testAdminPassword}, "")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expiresAt"`
	}
	decodeJSON(t, resp, &body)
	require.NotEmpty(t, body.Token)
	assert.NotEmpty(t, body.ExpiresAt)
	return body.Token
}

func TestAdmin_LoginThenPublishPost(t *testing.T) {
	env := newTestEnv(t)
	token := adminLogin(t, env)

	resp := env.do(t, http.MethodPost, "/admin/posts",
		fiber.Map{"title": "Hi There", "content": "First post."}, token)
	require.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var body struct {
		Path string `json:"path"`
	}
	decodeJSON(t, resp, &body)
	assert.Equal(t, "content/posts/hi-there.md", body.Path)

	data, err := os.ReadFile(filepath.Join(env.publishDir, "content", "posts", "hi-there.md"))
	require.NoError(t, err)
	fm, text, err := publish.ParsePost(data)
	require.NoError(t, err)
	assert.Equal(t, "hi-there", fm.Slug)
	assert.Equal(t, "Hi There", fm.Title)
	assert.Equal(t, "First post.\n", text)
}

func TestAdmin_Login(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name           string
		body           any
		expectedStatus int
	}{
		{"wrong password", fiber.Map{"password": "nope"}, fiber.StatusUnauthorized},
		{"missing password", fiber.Map{}, fiber.StatusUnauthorized},
		{"correct password", fiber.Map{"password": testAdminPassword}, fiber.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := env.do(t, http.MethodPost, "/admin/login", tt.body, "")
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestAdmin_LoginUnconfigured(t *testing.T) {
	env := newTestEnv(t, func(c *config.Config, _ *Deps) { c.AdminPassword = "" })

	resp := env.do(t, http.MethodPost, "/admin/login", fiber.Map{"password": "anything"}, "")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestAdmin_MethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	for _, target := range []string{"/admin/login", "/admin/posts", "/admin/upload"} {
		for _, method := range []string{http.MethodGet, http.MethodPut, http.MethodDelete} {
			resp := env.do(t, method, target, nil, "")
			assert.Equal(t, fiber.StatusMethodNotAllowed, resp.StatusCode, method+" "+target)
			assert.Equal(t, "POST", resp.Header.Get("Allow"))
		}
	}
}

func TestAdmin_PostsRequireToken(t *testing.T) {
	env := newTestEnv(t)
	body := fiber.Map{"title": "Hi There", "content": "x"}

	resp := env.do(t, http.MethodPost, "/admin/posts", body, "")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/admin/posts", body, "not-a-token")
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	// An editor identity token is a different trust domain.
	resp = env.do(t, http.MethodPost, "/admin/posts", body, env.editorToken(t, testEditor))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	_, err := os.Stat(filepath.Join(env.publishDir, "content"))
	assert.True(t, os.IsNotExist(err))
}

func TestAdmin_PostsValidation(t *testing.T) {
	env := newTestEnv(t)
	token := adminLogin(t, env)

	resp := env.do(t, http.MethodPost, "/admin/posts", fiber.Map{"content": "x"}, token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = env.do(t, http.MethodPost, "/admin/posts", fiber.Map{"title": "Only a title"}, token)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestAdmin_Upload(t *testing.T) {
	env := newTestEnv(t)
	token := adminLogin(t, env)

	resp := env.upload(t, "/admin/upload", token, nil, "My Photo.png", "image/png", testutil.TinyPNG(t, 8, 8))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var body struct {
		URL string `json:"url"`
	}
	decodeJSON(t, resp, &body)
	assert.True(t, strings.HasPrefix(body.URL, "/uploads/"), body.URL)
	assert.True(t, strings.HasSuffix(body.URL, "-My-Photo.png"), body.URL)

	name := strings.TrimPrefix(body.URL, "/uploads/")
	_, err := os.Stat(filepath.Join(env.publishDir, "public", "uploads", name))
	assert.NoError(t, err)
}

func TestAdmin_UploadErrors(t *testing.T) {
	env := newTestEnv(t)

	resp := env.upload(t, "/admin/upload", "", nil, "a.png", "image/png", testutil.TinyPNG(t, 2, 2))
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token := adminLogin(t, env)
	resp = env.upload(t, "/admin/upload", token, nil, "", "", nil)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

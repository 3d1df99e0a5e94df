package server

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"folio/internal/auth"
	"folio/internal/config"
	"folio/internal/publish"
	"folio/internal/storage"
	"folio/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testAdminPassword = "correct-horse-battery"
	testEditor        = "editor-1"
	testIssuer        = "https://id.example.com/folio"
	testAudience      = "folio-site"
)

type testEnv struct {
	server     *Server
	app        *fiber.App
	redis      *miniredis.Miniredis
	key        *rsa.PrivateKey
	publishDir string
	mediaDir   string
}

func newTestEnv(t *testing.T, mutate ...func(*config.Config, *Deps)) *testEnv {
	t.Helper()

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	env := &testEnv{
		key:        key,
		publishDir: t.TempDir(),
		mediaDir:   t.TempDir(),
	}

	cfg := &config.Config{
		Env:                  "test",
		AdminPassword:        testAdminPassword,
		AdminTokenSecret:     "test-secret-key-12345678901234567890123456789012",
		EditorUserIDs:        testEditor,
		MediaMaxUploadSizeMB: 1,
	}

	mr, rdb := testutil.Redis(t)
	env.redis = mr
	deps := Deps{
		DB:    testutil.SQLiteDB(t),
		Redis: rdb,
		Identity: auth.NewKeyfuncVerifier(func(*jwt.Token) (any, error) {
			return &key.PublicKey, nil
		}, auth.IdentityOptions{Issuer: testIssuer, Audience: testAudience}, nil),
		Committer: publish.NewDirCommitter(env.publishDir),
		Store:     storage.NewLocalStore(env.mediaDir, "/media/"),
		MediaRoot: env.mediaDir,
	}
	for _, m := range mutate {
		m(cfg, &deps)
	}

	env.server, err = NewServerWithDeps(cfg, deps)
	require.NoError(t, err)
	env.app = env.server.App()
	return env
}

// editorToken signs an identity token for subject issued to this site.
func (e *testEnv) editorToken(t *testing.T, subject string) string {
	t.Helper()
	return e.identityToken(t, subject, testIssuer, testAudience)
}

// identityToken signs an identity token for subject with the given issuer and audience.
func (e *testEnv) identityToken(t *testing.T, subject, issuer, audience string) string {
	t.Helper()
	claims := auth.IdentityClaims{
		Email: subject + "@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(e.key)
	require.NoError(t, err)
	return signed
}

func (e *testEnv) do(t *testing.T, method, target string, body any, token string) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func (e *testEnv) upload(t *testing.T, target, token string, fields map[string]string, filename, contentType string, data []byte) *http.Response {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, dest any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestNewServerWithDeps_RequiresStores(t *testing.T) {
	cfg := &config.Config{}
	_, err := NewServerWithDeps(cfg, Deps{})
	assert.ErrorContains(t, err, "database")

	_, err = NewServerWithDeps(cfg, Deps{DB: testutil.SQLiteDB(t)})
	assert.ErrorContains(t, err, "object store")

	_, err = NewServerWithDeps(cfg, Deps{DB: testutil.SQLiteDB(t), Store: storage.NewLocalStore(t.TempDir(), "")})
	assert.ErrorContains(t, err, "committer")
}

func TestHealthChecks(t *testing.T) {
	env := newTestEnv(t)

	resp := env.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var ready map[string]any
	resp = env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &ready)
	assert.Equal(t, "healthy", ready["status"])
	assert.Equal(t, map[string]any{"database": "healthy", "redis": "healthy"}, ready["checks"])

	env.redis.Close()
	resp = env.do(t, http.MethodGet, "/health/ready", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	decodeJSON(t, resp, &ready)
	assert.Equal(t, "degraded", ready["status"])
}

func TestHealthCheck_WithoutRedis(t *testing.T) {
	env := newTestEnv(t, func(_ *config.Config, d *Deps) { d.Redis = nil })

	var ready map[string]any
	resp := env.do(t, http.MethodGet, "/health", nil, "")
	decodeJSON(t, resp, &ready)
	assert.Equal(t, "degraded", ready["status"])
	assert.Equal(t, "unavailable", ready["checks"].(map[string]any)["redis"])
}

func TestMetricsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.do(t, http.MethodGet, "/health/live", nil, "")

	resp := env.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestSecurityHeaders(t *testing.T) {
	env := newTestEnv(t)
	resp := env.do(t, http.MethodGet, "/health/live", nil, "")
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestShutdown(t *testing.T) {
	env := newTestEnv(t)
	require.NoError(t, env.server.Shutdown(t.Context()))

	sqlDB, err := env.server.db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())
}

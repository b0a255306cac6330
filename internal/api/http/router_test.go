package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	apihttp "github.com/comicshelf/comicshelf/internal/api/http"
	"github.com/comicshelf/comicshelf/internal/api/media"
	"github.com/comicshelf/comicshelf/internal/api/service"
	"github.com/comicshelf/comicshelf/internal/api/store"
	"github.com/comicshelf/comicshelf/internal/api/store/drivers/sqlite"
	"github.com/comicshelf/comicshelf/pkg/jwtx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var routerDBCounter atomic.Int64

// fakeMailer records outgoing mail and captures the last verification
// secret so tests can follow the link.
type fakeMailer struct {
	lastSecret string
	passwords  []string
	failNext   bool
}

func (m *fakeMailer) SendVerification(to, name, verifyURL string) error {
	if m.failNext {
		m.failNext = false
		return assertAnError
	}
	if i := strings.LastIndex(verifyURL, "/api/verify/"); i >= 0 {
		m.lastSecret = verifyURL[i+len("/api/verify/"):]
	}
	return nil
}

func (m *fakeMailer) SendTemporaryPassword(to, name, password string) error {
	m.passwords = append(m.passwords, password)
	return nil
}

var assertAnError = fmt.Errorf("smtp unavailable")

// fakeMedia is an in-memory object store.
type fakeMedia struct {
	objects map[string][]byte
	deleted []string
}

func (m *fakeMedia) Upload(ctx context.Context, key, contentType string, body io.Reader) (media.Object, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return media.Object{}, err
	}
	m.objects[key] = data
	return media.Object{Key: key, URL: "https://media.test/" + key}, nil
}

func (m *fakeMedia) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *fakeMedia) KeyForURL(url string) (string, bool) {
	return strings.CutPrefix(url, "https://media.test/")
}

type testEnv struct {
	router *apihttp.Router
	mailer *fakeMailer
	media  *fakeMedia
	store  store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:routertest%d?mode=memory&cache=shared", routerDBCounter.Add(1))
	st, err := sqlite.NewStore(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	accessSigner, err := jwtx.NewSignerHS256([]byte("access-secret"))
	require.NoError(t, err)
	refreshSigner, err := jwtx.NewSignerHS256([]byte("refresh-secret"))
	require.NoError(t, err)

	mailer := &fakeMailer{}
	md := &fakeMedia{objects: make(map[string][]byte)}

	auth := &service.AuthService{
		Store:           st,
		Mailer:          mailer,
		AccessSigner:    accessSigner,
		RefreshSigner:   refreshSigner,
		Issuer:          "comicshelf-test",
		AccessTTL:       jwtx.DefaultAccessTokenTTL,
		RefreshTTL:      jwtx.DefaultRefreshTokenTTL,
		BaseURL:         "https://api.test",
		VerificationTTL: time.Hour,
	}

	router := apihttp.NewRouter(
		jwtx.NewVerifierHS256([]byte("access-secret"), "comicshelf-test"),
		"test",
		st,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
	router.AuthService = auth
	router.ProfileService = &service.ProfileService{Store: st, Media: md}
	router.ComicService = &service.ComicService{Store: st}
	router.ApplyRoutes()

	return &testEnv{router: router, mailer: mailer, media: md, store: st}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// registerAndLogin walks the full signup flow and returns the access token.
func (e *testEnv) registerAndLogin(t *testing.T, email, password string) string {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email": email, "password": password, "name": "Test User",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/api/verify/"+e.mailer.lastSecret, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeBody(t, rec)
	token, _ := body["access_token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestWelcomeAndFallback(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to Restful API server", decodeBody(t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/no/such/route", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeBody(t, rec)
	errBlock, ok := body["error"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Bad request", errBlock["message"])
}

func TestRegisterLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	t.Run("invalid email", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
			"email": "not-an-email", "password": "hunter22", "name": "A",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid email format", decodeBody(t, rec)["message"])
	})

	t.Run("full flow", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
			"email": "alice@example.com", "password": "hunter22", "name": "Alice",
		})
		require.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		user, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "alice@example.com", user["email"])
		assert.NotContains(t, user, "password")

		// Login before verification carries the verified flag.
		rec = env.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "alice@example.com", "password": "hunter22",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, false, decodeBody(t, rec)["verified"])

		rec = env.do(t, http.MethodGet, "/api/verify/"+env.mailer.lastSecret, "", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "alice@example.com", "password": "hunter22",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		body = decodeBody(t, rec)
		assert.NotEmpty(t, body["access_token"])
		assert.NotEmpty(t, body["refresh_token"])
		loginUser, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "user", loginUser["role"])
	})

	t.Run("duplicate register", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/register", "", map[string]string{
			"email": "alice@example.com", "password": "other", "name": "Other",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "User already exists", decodeBody(t, rec)["message"])
	})

	t.Run("unknown user login", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "nobody@example.com", "password": "hunter22",
		})
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "User not found", decodeBody(t, rec)["message"])
	})
}

func TestAuthRequired(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/profile", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "No token provided", decodeBody(t, rec)["message"])

	rec = env.do(t, http.MethodGet, "/api/profile", "garbage-token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid token", decodeBody(t, rec)["message"])
}

func TestProtectedEcho(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "bob@example.com", "hunter22")

	rec := env.do(t, http.MethodGet, "/api/protected", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["userId"])
	assert.Equal(t, "user", body["role"])
}

func TestChangeAndForgotPassword(t *testing.T) {
	env := newTestEnv(t)
	env.registerAndLogin(t, "carol@example.com", "hunter22")

	t.Run("wrong old password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/change-password", "", map[string]string{
			"email": "carol@example.com", "oldPassword": "wrong", "newPassword": "hunter33",
		})
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Current password is incorrect", decodeBody(t, rec)["message"])
	})

	t.Run("weak new password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/change-password", "", map[string]string{
			"email": "carol@example.com", "oldPassword": "hunter22", "newPassword": "abc",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "New password must be at least 6 characters long", decodeBody(t, rec)["message"])
	})

	t.Run("change then login", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/change-password", "", map[string]string{
			"email": "carol@example.com", "oldPassword": "hunter22", "newPassword": "hunter33",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "carol@example.com", "password": "hunter33",
		})
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("forgot password mails a new one", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/forgot-password", "", map[string]string{
			"email": "carol@example.com",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, env.mailer.passwords, 1)
		// The generated password never appears in the HTTP response.
		assert.NotContains(t, rec.Body.String(), env.mailer.passwords[0])
	})
}

func TestComicEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "dave@example.com", "hunter22")

	t.Run("update progress validation", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/comic/update-progress", token, map[string]string{
			"slug": "one-piece",
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Slug and chapter are required", decodeBody(t, rec)["message"])
	})

	t.Run("progress round trip", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/comic/update-progress", token, map[string]string{
			"slug": "one-piece", "chapter": "1088",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodGet, "/api/comic/last-chapter/one-piece", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]any)
		assert.Equal(t, "1088", data["lastReadChapter"])

		rec = env.do(t, http.MethodGet, "/api/comic/last-chapter/unknown", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("reading list pagination", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			rec := env.do(t, http.MethodPost, "/api/comic/update-progress", token, map[string]string{
				"slug": fmt.Sprintf("comic-%d", i), "chapter": "1",
			})
			require.Equal(t, http.StatusOK, rec.Code)
		}

		rec := env.do(t, http.MethodGet, "/api/comic/reading-list?page=1&limit=2", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Len(t, body["data"], 2)
		pagination := body["pagination"].(map[string]any)
		assert.Equal(t, float64(1), pagination["currentPage"])
		assert.Equal(t, float64(2), pagination["totalPages"])
		assert.Equal(t, float64(4), pagination["totalItems"])

		// Bad query values fall back to the defaults.
		rec = env.do(t, http.MethodGet, "/api/comic/reading-list?page=-1&limit=0", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		pagination = decodeBody(t, rec)["pagination"].(map[string]any)
		assert.Equal(t, float64(1), pagination["currentPage"])
		assert.Equal(t, float64(10), pagination["itemsPerPage"])
	})

	t.Run("favorites lifecycle", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/comic/favorites", token, map[string]string{
			"slug": "berserk",
		})
		require.Equal(t, http.StatusOK, rec.Code)
		data := decodeBody(t, rec)["data"].(map[string]any)
		assert.Nil(t, data["lastReadChapter"])
		assert.Nil(t, data["lastReadAt"])

		rec = env.do(t, http.MethodGet, "/api/comic/favorites", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(1), body["count"])

		rec = env.do(t, http.MethodDelete, "/api/comic/favorites/berserk", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		rec = env.do(t, http.MethodDelete, "/api/comic/favorites/berserk", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("requires auth", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/comic/reading-list", "", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func multipartBody(t *testing.T, fields map[string]string, avatarName, avatarType string, avatar []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if avatar != nil {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="avatar"; filename="%s"`, avatarName))
		header.Set("Content-Type", avatarType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(avatar)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestProfileEndpoints(t *testing.T) {
	env := newTestEnv(t)
	token := env.registerAndLogin(t, "erin@example.com", "hunter22")

	t.Run("get", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/profile", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		user := decodeBody(t, rec)["user"].(map[string]any)
		assert.Equal(t, "erin@example.com", user["email"])
		assert.Equal(t, true, user["verified"])
	})

	putProfile := func(body *bytes.Buffer, contentType string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPut, "/api/profile", body)
		req.Header.Set("Content-Type", contentType)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		env.router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("text fields only", func(t *testing.T) {
		body, contentType := multipartBody(t, map[string]string{"phone": "0400000000"}, "", "", nil)
		rec := putProfile(body, contentType)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		user := decodeBody(t, rec)["user"].(map[string]any)
		assert.Equal(t, "0400000000", user["phone"])
		assert.Equal(t, "Test User", user["name"])
	})

	t.Run("avatar upload", func(t *testing.T) {
		body, contentType := multipartBody(t, nil, "me.png", "image/png", []byte("png-bytes"))
		rec := putProfile(body, contentType)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		user := decodeBody(t, rec)["user"].(map[string]any)
		avatar, _ := user["avatar"].(string)
		assert.True(t, strings.HasPrefix(avatar, "https://media.test/avatars/"), avatar)
	})

	t.Run("rejects non-image", func(t *testing.T) {
		body, contentType := multipartBody(t, nil, "notes.txt", "text/plain", []byte("hi"))
		rec := putProfile(body, contentType)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Only image files are allowed", decodeBody(t, rec)["message"])
	})

	t.Run("rejects oversized avatar", func(t *testing.T) {
		big := bytes.Repeat([]byte("x"), 600*1024)
		body, contentType := multipartBody(t, nil, "big.png", "image/png", big)
		rec := putProfile(body, contentType)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "File size should not exceed 500KB", decodeBody(t, rec)["message"])
	})
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/livez", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])

	rec = env.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "ok", body["database"])
}

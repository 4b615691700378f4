package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"yamdb/internal/auth"
	"yamdb/internal/logging"
	"yamdb/internal/models"
	"yamdb/internal/policy"
	"yamdb/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	router *gin.Engine
	tokens *auth.TokenManager
	users  map[string]*models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tokens, err := auth.NewTokenManager("secret", time.Hour)
	require.NoError(t, err)
	s := store.NewMemoryStore()

	users := map[string]*models.User{}
	for _, u := range []*models.User{
		{Username: "user", Email: "user@example.com", Role: models.RoleUser},
		{Username: "admin", Email: "admin@example.com", Role: models.RoleAdmin},
	} {
		require.NoError(t, s.CreateUser(context.Background(), u))
		users[u.Username] = u
	}

	r := gin.New()
	r.Use(LoadCaller(tokens, s))
	r.GET("/whoami", func(c *gin.Context) {
		switch caller := CurrentCaller(c).(type) {
		case policy.Authenticated:
			c.JSON(http.StatusOK, gin.H{"username": caller.Username})
		default:
			c.JSON(http.StatusOK, gin.H{"username": ""})
		}
	})
	r.GET("/private", AuthRequired(), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	admin := r.Group("/admin", Require(ReadOnlyOrAdmin))
	admin.GET("", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	admin.POST("", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	return &fixture{router: r, tokens: tokens, users: users}
}

func (f *fixture) do(t *testing.T, method, path, username string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if username != "" {
		u := f.users[username]
		token, err := f.tokens.Issue(u.ID, u.Username)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func TestLoadCaller(t *testing.T) {
	f := newFixture(t)

	w := f.do(t, http.MethodGet, "/whoami", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":""}`, w.Body.String())

	w = f.do(t, http.MethodGet, "/whoami", "user")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"username":"user"}`, w.Body.String())
}

func TestLoadCallerRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	for _, header := range []string{"Bearer garbage", "Basic abc", "Bearer"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
		var body map[string]any
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Contains(t, body, "detail")
	}
}

func TestLoadCallerRejectsDeletedAccount(t *testing.T) {
	f := newFixture(t)
	token, err := f.tokens.Issue(999, "ghost")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGuards(t *testing.T) {
	f := newFixture(t)
	cases := []struct {
		method, path, user string
		want               int
	}{
		{http.MethodGet, "/private", "", http.StatusUnauthorized},
		{http.MethodGet, "/private", "user", http.StatusNoContent},
		{http.MethodGet, "/admin", "", http.StatusNoContent},
		{http.MethodPost, "/admin", "", http.StatusUnauthorized},
		{http.MethodPost, "/admin", "user", http.StatusForbidden},
		{http.MethodPost, "/admin", "admin", http.StatusNoContent},
	}
	for _, tc := range cases {
		w := f.do(t, tc.method, tc.path, tc.user)
		assert.Equal(t, tc.want, w.Code, "%s %s as %q", tc.method, tc.path, tc.user)
	}
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, c.GetString(logging.RequestIDKey))
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Equal(t, generated, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "upstream-id", w.Header().Get(RequestIDHeader))
	assert.Equal(t, "upstream-id", w.Body.String())
}

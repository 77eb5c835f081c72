package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"hotelbook/internal/cache"
	"hotelbook/internal/models"
	"hotelbook/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeUsers struct {
	users   map[string]*models.User
	lookups int
}

func (f *fakeUsers) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	f.lookups++
	return f.users[username], nil
}

func (f *fakeUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	f.lookups++
	for _, u := range f.users {
		if u.Email != nil && *u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

type fakeAuthCache struct {
	entries map[string]cache.AuthEntry
}

func (f *fakeAuthCache) GetAuth(ctx context.Context, key string) (*cache.AuthEntry, error) {
	if e, ok := f.entries[key]; ok {
		return &e, nil
	}
	return nil, nil
}

func (f *fakeAuthCache) SetAuth(ctx context.Context, key string, entry cache.AuthEntry) error {
	f.entries[key] = entry
	return nil
}

func newUsers(t *testing.T) *fakeUsers {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	email := "ana@example.com"
	return &fakeUsers{users: map[string]*models.User{
		"ana":  {ID: 5, Username: "ana", Email: &email, PasswordHash: string(hash), Role: models.RoleGuest, IsActive: true},
		"boss": {ID: 1, Username: "boss", PasswordHash: string(hash), Role: models.RoleAdmin, IsActive: true},
		"gone": {ID: 9, Username: "gone", PasswordHash: string(hash), Role: models.RoleGuest, IsActive: false},
	}}
}

func setupRouter(auth *Authenticator, required bool, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{RequestID(), auth.Authenticate(required)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		actor := ActorFrom(c)
		c.JSON(http.StatusOK, gin.H{"user_id": actor.UserID, "role": actor.Role})
	})
	r.GET("/", handlers...)
	return r
}

func request(r *gin.Engine, user, pass string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if user != "" {
		req.SetBasicAuth(user, pass)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAuthenticateRequired(t *testing.T) {
	r := setupRouter(NewAuthenticator(newUsers(t), nil), true)

	w := request(r, "", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "Basic")

	w = request(r, "ana", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(r, "gone", "secret")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = request(r, "ana", "secret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":5,"role":"guest"}`, w.Body.String())
}

func TestAuthenticateByEmail(t *testing.T) {
	r := setupRouter(NewAuthenticator(newUsers(t), nil), true)

	w := request(r, "ana@example.com", "secret")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":5,"role":"guest"}`, w.Body.String())
}

func TestAuthenticateOptionalAllowsAnonymous(t *testing.T) {
	r := setupRouter(NewAuthenticator(newUsers(t), nil), false)

	w := request(r, "", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user_id":0,"role":""}`, w.Body.String())

	w = request(r, "ana", "wrong")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthenticateUsesCache(t *testing.T) {
	users := newUsers(t)
	authCache := &fakeAuthCache{entries: map[string]cache.AuthEntry{}}
	r := setupRouter(NewAuthenticator(users, authCache), true)

	require.Equal(t, http.StatusOK, request(r, "ana", "secret").Code)
	assert.Equal(t, 1, users.lookups)
	assert.Contains(t, authCache.entries, cache.AuthKey("ana", "secret"))

	require.Equal(t, http.StatusOK, request(r, "ana", "secret").Code)
	assert.Equal(t, 1, users.lookups)
}

func TestRequireStaff(t *testing.T) {
	r := setupRouter(NewAuthenticator(newUsers(t), nil), true, RequireStaff())

	assert.Equal(t, http.StatusForbidden, request(r, "ana", "secret").Code)
	assert.Equal(t, http.StatusOK, request(r, "boss", "secret").Code)
}

func TestRequestIDEchoed(t *testing.T) {
	r := setupRouter(NewAuthenticator(newUsers(t), nil), false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))

	w = request(r, "", "")
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestActorFromEmptyContext(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Equal(t, service.Actor{}, ActorFrom(c))
}

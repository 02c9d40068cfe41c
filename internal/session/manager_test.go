package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shrimpsizemoose/gradebook/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var pushpita = models.Identity{UserID: 9001, Username: "pushpita", Email: "pushpita@example.com"}

func newManager(t *testing.T, store Store) *Manager {
	t.Helper()
	m, err := NewManager(Config{Secret: testSecret, TTL: time.Hour}, store)
	require.NoError(t, err)
	return m
}

// establish logs identity in and returns the cookie the client would keep.
func establish(t *testing.T, m *Manager, prior *http.Cookie, identity models.Identity) *http.Cookie {
	t.Helper()
	r := httptest.NewRequest(http.MethodPost, "/api/v1/login", nil)
	if prior != nil {
		r.AddCookie(prior)
	}
	w := httptest.NewRecorder()

	_, err := m.Establish(w, r, identity)
	require.NoError(t, err)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	return cookies[0]
}

func requestWith(cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func TestNewManager(t *testing.T) {
	_, err := NewManager(Config{Secret: "short"}, NewMemoryStore())
	assert.Error(t, err)

	m, err := NewManager(Config{Secret: testSecret}, NewMemoryStore())
	require.NoError(t, err)
	assert.Equal(t, DefaultCookieName, m.config.CookieName)
	assert.Equal(t, DefaultTTL, m.config.TTL)
}

func TestEstablishAndCurrent(t *testing.T) {
	m := newManager(t, NewMemoryStore())

	cookie := establish(t, m, nil, pushpita)
	assert.Equal(t, DefaultCookieName, cookie.Name)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookie.SameSite)
	assert.Equal(t, 3600, cookie.MaxAge)

	state, err := m.Current(requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, models.NewSessionState(pushpita), *state)
}

func TestCurrentWithoutSession(t *testing.T) {
	m := newManager(t, NewMemoryStore())

	_, err := m.Current(requestWith(nil))
	assert.ErrorIs(t, err, ErrNoSession)

	_, err = m.Current(requestWith(&http.Cookie{Name: DefaultCookieName, Value: "garbage"}))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentRejectsForeignSignature(t *testing.T) {
	store := NewMemoryStore()
	m := newManager(t, store)
	other, err := NewManager(Config{Secret: "another-secret-of-enough-length"}, store)
	require.NoError(t, err)

	cookie := establish(t, other, nil, pushpita)

	_, err = m.Current(requestWith(cookie))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestCurrentRejectsExpiredToken(t *testing.T) {
	m := newManager(t, NewMemoryStore())
	cookie := establish(t, m, nil, pushpita)

	m.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err := m.Current(requestWith(cookie))
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestEstablishReplacesPriorSession(t *testing.T) {
	store := NewMemoryStore()
	m := newManager(t, store)

	first := establish(t, m, nil, pushpita)
	second := establish(t, m, first, models.Identity{UserID: 9002, Username: "admin"})

	_, err := m.Current(requestWith(first))
	assert.ErrorIs(t, err, ErrNoSession)

	state, err := m.Current(requestWith(second))
	require.NoError(t, err)
	assert.Equal(t, "admin", state.Username)
}

func TestClear(t *testing.T) {
	m := newManager(t, NewMemoryStore())
	cookie := establish(t, m, nil, pushpita)

	w := httptest.NewRecorder()
	require.NoError(t, m.Clear(w, requestWith(cookie)))

	cleared := w.Result().Cookies()
	require.Len(t, cleared, 1)
	assert.Equal(t, "", cleared[0].Value)
	assert.True(t, cleared[0].MaxAge < 0)

	_, err := m.Current(requestWith(cookie))
	assert.ErrorIs(t, err, ErrNoSession)

	// clearing without a session is not an error
	require.NoError(t, m.Clear(httptest.NewRecorder(), requestWith(nil)))
}

func TestEstablishWithRedis(t *testing.T) {
	store, mr := newRedisStore(t)
	m := newManager(t, store)

	cookie := establish(t, m, nil, pushpita)
	assert.Len(t, mr.Keys(), 1)

	state, err := m.Current(requestWith(cookie))
	require.NoError(t, err)
	assert.Equal(t, int64(9001), state.UserID)

	require.NoError(t, m.Clear(httptest.NewRecorder(), requestWith(cookie)))
	assert.Empty(t, mr.Keys())
}

func TestRequireSession(t *testing.T) {
	m := newManager(t, NewMemoryStore())

	var seen models.SessionState
	handler := m.RequireSession("/", func(w http.ResponseWriter, r *http.Request) {
		seen, _ = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	t.Run("redirects without session", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler(w, requestWith(nil))

		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("passes state through context", func(t *testing.T) {
		cookie := establish(t, m, nil, pushpita)
		w := httptest.NewRecorder()
		handler(w, requestWith(cookie))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "pushpita", seen.Username)
	})
}

func TestFromContextEmpty(t *testing.T) {
	_, ok := FromContext(context.Background())
	assert.False(t, ok)
}

package sessionstore

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

// unreachableClient は接続できないアドレスを指すクライアントです。
func unreachableClient(t *testing.T) *redis.Client {
	t.Helper()
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb
}

func TestEncodeDecodeValues(t *testing.T) {
	values := map[interface{}]interface{}{
		"user_id": int64(42),
		"note":    "hello",
	}

	data, err := encodeValues(values)
	require.NoError(t, err)

	got, err := decodeValues(data)
	require.NoError(t, err)
	assert.Equal(t, int64(42), got["user_id"])
	assert.Equal(t, "hello", got["note"])
}

func TestDecodeValuesRejectsGarbage(t *testing.T) {
	_, err := decodeValues([]byte("not gob"))
	assert.Error(t, err)
}

func TestSessionKeyAndID(t *testing.T) {
	assert.Equal(t, "session:abc", sessionKey("abc"))

	first, second := newSessionID(), newSessionID()
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
	assert.NotContains(t, first, "=")
}

func TestTTLFor(t *testing.T) {
	store := NewRedisStore(unreachableClient(t), testKey)
	assert.Equal(t, defaultTTL, ttlFor(nil))

	store.Options(sessions.Options{Path: "/", MaxAge: 600})
	assert.Equal(t, 10*time.Minute, ttlFor(store.options))

	store.Options(sessions.Options{Path: "/"})
	assert.Equal(t, defaultTTL, ttlFor(store.options))
}

func TestNewWithoutCookieIsNew(t *testing.T) {
	store := NewRedisStore(unreachableClient(t), testKey)
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	session, err := store.New(req, "gk_session")
	require.NoError(t, err)
	assert.True(t, session.IsNew)
	assert.Empty(t, session.ID)
	assert.Empty(t, session.Values)
}

func TestNewWithTamperedCookieIsNew(t *testing.T) {
	store := NewRedisStore(unreachableClient(t), testKey)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "gk_session", Value: "forged"})

	session, err := store.New(req, "gk_session")
	require.NoError(t, err)
	assert.True(t, session.IsNew)
	assert.Empty(t, session.ID)
}

func TestNewWithSignedCookieReportsRedisFailure(t *testing.T) {
	store := NewRedisStore(unreachableClient(t), testKey)

	encoded, err := securecookie.EncodeMulti("gk_session", "some-id", securecookie.CodecsFromPairs(testKey)...)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "gk_session", Value: encoded})

	session, err := store.New(req, "gk_session")
	require.Error(t, err)
	assert.True(t, session.IsNew)
}

func TestSaveReportsRedisFailure(t *testing.T) {
	store := NewRedisStore(unreachableClient(t), testKey)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session, err := store.New(req, "gk_session")
	require.NoError(t, err)
	session.Values["user_id"] = int64(1)

	err = store.Save(req, rec, session)
	require.Error(t, err)
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
}

func TestSaveExpiredWithoutIDOnlyClearsCookie(t *testing.T) {
	store := NewRedisStore(unreachableClient(t), testKey)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session, err := store.New(req, "gk_session")
	require.NoError(t, err)
	session.Options.MaxAge = -1

	require.NoError(t, store.Save(req, rec, session))

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "gk_session", cookies[0].Name)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestSaveExpiredReportsDeleteFailure(t *testing.T) {
	store := NewRedisStore(unreachableClient(t), testKey)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session, err := store.New(req, "gk_session")
	require.NoError(t, err)
	session.ID = "existing"
	session.Options.MaxAge = -1

	assert.Error(t, store.Save(req, rec, session))
}

func TestPingUnreachable(t *testing.T) {
	store := NewRedisStore(unreachableClient(t), testKey)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Error(t, store.Ping(req.Context()))
}

func TestSaveRotateReportsDeleteFailure(t *testing.T) {
	store := NewRedisStore(unreachableClient(t), testKey)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session, err := store.New(req, "gk_session")
	require.NoError(t, err)
	session.ID = "planted"
	session.Values[RotateIDKey] = true
	session.Values["user_id"] = int64(1)

	err = store.Save(req, rec, session)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rotate")
	assert.NotContains(t, session.Values, RotateIDKey)
	assert.Empty(t, rec.Header().Values("Set-Cookie"))
}

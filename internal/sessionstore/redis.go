// Package sessionstore はサーバー側セッションの保存先を提供します。
package sessionstore

import (
	"bytes"
	"context"
	"encoding/base32"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/sessions"
	gsessions "github.com/gorilla/sessions"
	"github.com/gorilla/securecookie"
	"github.com/redis/go-redis/v9"
)

// RotateIDKey が true のセッションは、次の保存時に旧IDを破棄して新しいIDで保存されます。
// ログイン時に設定し、攻撃者が用意したIDを引き継がないようにします。
const RotateIDKey = "_rotate_id"

const (
	sessionKeyPrefix = "session:"

	// MaxAge=0（ブラウザセッション）の場合に Redis 側で保持する期間
	defaultTTL = 24 * time.Hour
)

// RedisStore はセッションの値を Redis に保存し、クッキーには署名付きのIDのみを載せます。
// gin-contrib/sessions の Store を実装します。
type RedisStore struct {
	rdb     redis.UniversalClient
	codecs  []securecookie.Codec
	options *gsessions.Options
}

var _ sessions.Store = (*RedisStore)(nil)

// NewRedisStore は RedisStore を作成します。keyPairs はセッションIDの署名に使います。
func NewRedisStore(rdb redis.UniversalClient, keyPairs ...[]byte) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		codecs: securecookie.CodecsFromPairs(keyPairs...),
		options: &gsessions.Options{
			Path:     "/",
			MaxAge:   int(defaultTTL.Seconds()),
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		},
	}
	s.setCodecMaxAge(s.options.MaxAge)
	return s
}

// Options は新しく作成されるセッションの既定オプションを設定します。
func (s *RedisStore) Options(opts sessions.Options) {
	s.options = opts.ToGorillaOptions()
	s.setCodecMaxAge(s.options.MaxAge)
}

// Get はリクエスト内でキャッシュされたセッションを返します。
func (s *RedisStore) Get(r *http.Request, name string) (*gsessions.Session, error) {
	return gsessions.GetRegistry(r).Get(s, name)
}

// New はクッキーのIDに対応するセッションを Redis から読み込みます。
// クッキーが無い・署名が不正・Redis に存在しない場合は空の新規セッションを返します。
func (s *RedisStore) New(r *http.Request, name string) (*gsessions.Session, error) {
	session := gsessions.NewSession(s, name)
	opts := *s.options
	session.Options = &opts
	session.IsNew = true

	cookie, err := r.Cookie(name)
	if err != nil {
		return session, nil
	}

	var id string
	if err := securecookie.DecodeMulti(name, cookie.Value, &id, s.codecs...); err != nil {
		return session, nil
	}

	values, err := s.load(r.Context(), id)
	if err != nil {
		return session, err
	}
	if values == nil {
		return session, nil
	}

	session.ID = id
	session.Values = values
	session.IsNew = false
	return session, nil
}

// Save はセッションを保存します。MaxAge<0 の場合は Redis から削除しクッキーを失効させます。
func (s *RedisStore) Save(r *http.Request, w http.ResponseWriter, session *gsessions.Session) error {
	ctx := r.Context()

	if session.Options != nil && session.Options.MaxAge < 0 {
		if session.ID != "" {
			if err := s.rdb.Del(ctx, sessionKey(session.ID)).Err(); err != nil {
				return fmt.Errorf("failed to delete session: %w", err)
			}
		}
		http.SetCookie(w, gsessions.NewCookie(session.Name(), "", session.Options))
		return nil
	}

	if rotate, _ := session.Values[RotateIDKey].(bool); rotate {
		delete(session.Values, RotateIDKey)
		if session.ID != "" {
			if err := s.rdb.Del(ctx, sessionKey(session.ID)).Err(); err != nil {
				return fmt.Errorf("failed to rotate session: %w", err)
			}
		}
		session.ID = ""
	}

	if session.ID == "" {
		session.ID = newSessionID()
	}

	payload, err := encodeValues(session.Values)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, sessionKey(session.ID), payload, ttlFor(session.Options)).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	encoded, err := securecookie.EncodeMulti(session.Name(), session.ID, s.codecs...)
	if err != nil {
		return fmt.Errorf("failed to sign session id: %w", err)
	}
	http.SetCookie(w, gsessions.NewCookie(session.Name(), encoded, session.Options))
	return nil
}

// Ping は Redis への疎通を確認します。
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) load(ctx context.Context, id string) (map[interface{}]interface{}, error) {
	data, err := s.rdb.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	return decodeValues(data)
}

func (s *RedisStore) setCodecMaxAge(age int) {
	for _, c := range s.codecs {
		if sc, ok := c.(*securecookie.SecureCookie); ok {
			sc.MaxAge(age)
		}
	}
}

func encodeValues(values map[interface{}]interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(values); err != nil {
		return nil, fmt.Errorf("failed to encode session: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeValues(data []byte) (map[interface{}]interface{}, error) {
	values := make(map[interface{}]interface{})
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&values); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return values, nil
}

func ttlFor(opts *gsessions.Options) time.Duration {
	if opts == nil || opts.MaxAge == 0 {
		return defaultTTL
	}
	return time.Duration(opts.MaxAge) * time.Second
}

func newSessionID() string {
	return strings.TrimRight(base32.StdEncoding.EncodeToString(securecookie.GenerateRandomKey(32)), "=")
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

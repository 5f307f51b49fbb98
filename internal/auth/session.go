package auth

import (
	"net/http"

	"github.com/gin-contrib/sessions"

	"github.com/yourusername/gatekeeper/internal/sessionstore"
)

const (
	// SessionCookieName はセッションIDを保持するクッキー名です。
	SessionCookieName = "gk_session"

	sessionKeyUserID = "user_id"
)

// SessionHandle はリクエストに紐づくセッションへの操作を表します。
// 認証サービスはこのインターフェース経由でのみセッションに触れます。
type SessionHandle interface {
	// UserID はログイン済みのユーザーIDを返します。未ログインなら false です。
	UserID() (int64, bool)
	// SetUserID はユーザーIDを記録して保存します。
	SetUserID(id int64) error
	// Destroy はセッション全体を破棄します。
	Destroy() error
}

// DefaultCookieOptions はクッキーオプションが指定されない場合の既定値です。
func DefaultCookieOptions() sessions.Options {
	return sessions.Options{
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
}

// ginSession は gin-contrib/sessions のセッションを SessionHandle として扱います。
type ginSession struct {
	s      sessions.Session
	cookie sessions.Options
}

// NewSessionHandle は gin-contrib/sessions のセッションから SessionHandle を作成します。
// cookie はストアに設定したものと同じオプションを渡します。破棄時もこれを引き継ぎます。
func NewSessionHandle(s sessions.Session, cookie sessions.Options) SessionHandle {
	return &ginSession{s: s, cookie: cookie}
}

func (g *ginSession) UserID() (int64, bool) {
	switch v := g.s.Get(sessionKeyUserID).(type) {
	case int64:
		return v, v > 0
	case int:
		return int64(v), v > 0
	case float64:
		return int64(v), v > 0
	default:
		return 0, false
	}
}

func (g *ginSession) SetUserID(id int64) error {
	// ログイン前のIDを引き継がない
	g.s.Set(sessionstore.RotateIDKey, true)
	g.s.Set(sessionKeyUserID, id)
	return g.s.Save()
}

func (g *ginSession) Destroy() error {
	g.s.Clear()
	// MaxAge<0 でストア側の削除とクッキーの失効を行う
	opts := g.cookie
	opts.MaxAge = -1
	g.s.Options(opts)
	return g.s.Save()
}

package auth

import "errors"

// 利用者に表示する想定内のエラー
var (
	ErrDuplicateUsername = errors.New("username already exists")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidPassword   = errors.New("invalid password")
)

// ErrStoreUnavailable はストアやセッションの想定外の失敗を表します。
// 詳細はサーバー側のログにのみ出力します。
var ErrStoreUnavailable = errors.New("store unavailable")

// IsExpected は利用者向けメッセージで完結するエラーかどうかを返します。
func IsExpected(err error) bool {
	return errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrInvalidPassword)
}

// Package users は users テーブルへの問い合わせと登録を提供します。
package users

import (
	"errors"
	"time"
)

var (
	// ErrNotFound は該当するユーザーが存在しない場合に返されます。
	ErrNotFound = errors.New("user not found")
	// ErrUsernameTaken は username の一意制約違反で返されます。
	ErrUsernameTaken = errors.New("username already taken")
)

// User は users テーブルの1行を表します。
// PasswordHash にはハッシュ値のみを保持し、平文は扱いません。
type User struct {
	ID           int64
	Username     string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

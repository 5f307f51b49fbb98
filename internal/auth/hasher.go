package auth

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost はハッシュ計算のデフォルトのワークファクターです。
const DefaultBcryptCost = 10

// maxPasswordBytes は bcrypt が入力として扱う最大バイト数です。
// これを超える部分は bcryptjs と同じく切り捨てます。
const maxPasswordBytes = 72

// PasswordHasher はパスワードのハッシュ化と検証を提供します。
type PasswordHasher interface {
	// Hash はソルト付きのハッシュを生成します。
	Hash(password string) (string, error)

	// Verify はパスワードとハッシュが一致するかを定数時間で比較します。
	// 不一致は (false, nil)、壊れたハッシュはエラーを返します。
	Verify(password, hash string) (bool, error)
}

// BcryptHasher は bcrypt による PasswordHasher の実装です。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は指定したコストで BcryptHasher を作成します。
// 範囲外のコストはデフォルト値に置き換えます。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash はパスワードのハッシュを返します。
func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(truncate(password), h.cost)
	if err != nil {
		return "", oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// Verify はパスワードが保存済みハッシュと一致するかを返します。
func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), truncate(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("AUTH_INVALID_HASH").Wrap(err)
	}
}

func truncate(password string) []byte {
	b := []byte(password)
	if len(b) > maxPasswordBytes {
		return b[:maxPasswordBytes]
	}
	return b
}

// Package auth はユーザー登録・ログイン・ログアウトとダッシュボードの保護を提供します。
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/oops"

	"github.com/yourusername/gatekeeper/internal/users"
)

// UserStore は認証サービスが必要とする資格情報ストアの操作です。
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*users.User, error)
	Create(ctx context.Context, user *users.User) error
}

// SignupInput はユーザー登録の入力です。
type SignupInput struct {
	Username string
	Email    string
	Password string
}

// Service は認証処理をまとめた構造体です。
type Service struct {
	users  UserStore
	hasher PasswordHasher
}

// NewService は認証サービスを作成します。
func NewService(store UserStore, hasher PasswordHasher) *Service {
	return &Service{
		users:  store,
		hasher: hasher,
	}
}

// Signup はユーザーを登録します。セッションには触れません。
// username が既に存在する場合は ErrDuplicateUsername を返します。
func (s *Service) Signup(ctx context.Context, in SignupInput) (*users.User, error) {
	existing, err := s.users.GetByUsername(ctx, in.Username)
	switch {
	case err == nil && existing != nil:
		return nil, ErrDuplicateUsername
	case err != nil && !errors.Is(err, users.ErrNotFound):
		return nil, storeError("AUTH_SIGNUP_FAILED", "lookup user", in.Username, err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, storeError("AUTH_SIGNUP_FAILED", "hash password", in.Username, err)
	}

	user := &users.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// 事前確認と INSERT の間に同名ユーザーが登録された場合
		if errors.Is(err, users.ErrUsernameTaken) {
			return nil, ErrDuplicateUsername
		}
		return nil, storeError("AUTH_SIGNUP_FAILED", "insert user", in.Username, err)
	}
	return user, nil
}

// Login は資格情報を検証し、成功した場合のみセッションにユーザーIDを記録します。
func (s *Service) Login(ctx context.Context, session SessionHandle, username, password string) (*users.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, storeError("AUTH_LOGIN_FAILED", "lookup user", username, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, storeError("AUTH_LOGIN_FAILED", "verify password", username, err)
	}
	if !ok {
		return nil, ErrInvalidPassword
	}

	if err := session.SetUserID(user.ID); err != nil {
		return nil, storeError("AUTH_LOGIN_FAILED", "save session", username, err)
	}
	return user, nil
}

// Logout はセッション全体を破棄します。
func (s *Service) Logout(session SessionHandle) error {
	if err := session.Destroy(); err != nil {
		return oops.Code("AUTH_LOGOUT_FAILED").
			With("operation", "destroy session").
			Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
	}
	return nil
}

// Authenticated はセッションがログイン済みかを返します。
func (s *Service) Authenticated(session SessionHandle) (int64, bool) {
	return session.UserID()
}

func storeError(code, operation, username string, err error) error {
	return oops.Code(code).
		With("operation", operation).
		With("username", username).
		Wrap(fmt.Errorf("%w: %w", ErrStoreUnavailable, err))
}

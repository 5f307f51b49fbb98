package users

import (
	"context"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"
)

// Querier は PostgresStore が利用する pgx の最小インターフェースです。
// *pgxpool.Pool と pgxmock.PgxPoolIface の両方が満たします。
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore は PostgreSQL 上の users テーブルを扱います。
type PostgresStore struct {
	db Querier
}

// NewPostgresStore は PostgresStore を作成します。
func NewPostgresStore(db Querier) *PostgresStore {
	return &PostgresStore{db: db}
}

// GetByUsername は username の完全一致でユーザーを取得します。
func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, username, email, password_hash, created_at
		FROM users
		WHERE username = $1
	`, username)

	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, oops.Code("USERS_QUERY_FAILED").
			With("operation", "get user by username").
			With("username", username).
			Wrap(err)
	}
	return &u, nil
}

// Create はユーザーを登録し、採番された ID と作成日時を user に設定します。
// username が既に存在する場合は ErrUsernameTaken を返します。
func (s *PostgresStore) Create(ctx context.Context, user *User) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO users (username, email, password_hash)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`, user.Username, user.Email, user.PasswordHash).Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return oops.Code("USERS_INSERT_FAILED").
			With("operation", "insert user").
			With("username", user.Username).
			Wrap(err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}

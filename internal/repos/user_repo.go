package repos

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	"rbacblog/internal/domain"
)

type UserRepo struct{ DB *sqlx.DB }

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{DB: db} }

type userRow struct {
	ID                      string         `db:"id"`
	Name                    string         `db:"name"`
	Email                   string         `db:"email"`
	PasswordHash            string         `db:"password_hash"`
	Role                    string         `db:"role"`
	IsVerified              bool           `db:"is_verified"`
	VerificationToken       sql.NullString `db:"verification_token"`
	VerificationTokenExpiry sql.NullInt64  `db:"verification_token_expiry"`
	CreatedAt               int64          `db:"created_at"`
}

const userColumns = `id,name,email,password_hash,role,is_verified,verification_token,verification_token_expiry,created_at`

func (r userRow) user() *domain.User {
	u := &domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		IsVerified:   r.IsVerified,
		CreatedAt:    time.Unix(0, r.CreatedAt).UTC(),
	}
	if r.VerificationToken.Valid {
		u.VerificationToken = r.VerificationToken.String
	}
	if r.VerificationTokenExpiry.Valid {
		u.VerificationTokenExpiry = time.Unix(0, r.VerificationTokenExpiry.Int64).UTC()
	}
	return u
}

func nullToken(token string, expiry time.Time) (sql.NullString, sql.NullInt64) {
	if token == "" {
		return sql.NullString{}, sql.NullInt64{}
	}
	return sql.NullString{String: token, Valid: true}, sql.NullInt64{Int64: expiry.UnixNano(), Valid: true}
}

// Create inserts u. A duplicate email yields ErrEmailTaken.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	tok, exp := nullToken(u.VerificationToken, u.VerificationTokenExpiry)
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO users(id,name,email,password_hash,role,is_verified,verification_token,verification_token_expiry,created_at)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, string(u.Role), u.IsVerified, tok, exp, u.CreatedAt.UnixNano())
	if isUniqueViolation(err, "users.email") {
		return ErrEmailTaken
	}
	return err
}

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE email=?`, email)
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	return r.one(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, id)
}

func (r *UserRepo) one(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var row userRow
	if err := r.DB.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return row.user(), nil
}

func (r *UserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int
	if err := r.DB.GetContext(ctx, &n, `SELECT COUNT(1) FROM users WHERE email=?`, email); err != nil {
		return false, err
	}
	return n > 0, nil
}

// SetVerificationToken replaces any pending token of an unverified user.
func (r *UserRepo) SetVerificationToken(ctx context.Context, userID, token string, expiry time.Time) error {
	tok, exp := nullToken(token, expiry)
	res, err := r.DB.ExecContext(ctx, `
		UPDATE users SET verification_token=?, verification_token_expiry=?
		WHERE id=? AND is_verified=0`, tok, exp, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ConsumeVerificationToken marks the owner of token verified and clears the
// token in one statement, provided the expiry is strictly after now.
// Concurrent callers with the same token see at most one success.
func (r *UserRepo) ConsumeVerificationToken(ctx context.Context, token string, now time.Time) (*domain.User, error) {
	return r.one(ctx, `
		UPDATE users
		SET is_verified=1, verification_token=NULL, verification_token_expiry=NULL
		WHERE verification_token=? AND verification_token_expiry > ?
		RETURNING `+userColumns, token, now.UnixNano())
}

// SetRole changes the role of the user with the given email.
func (r *UserRepo) SetRole(ctx context.Context, email string, role domain.Role) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET role=? WHERE email=?`, string(role), email)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

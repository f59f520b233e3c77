package repositories

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"vio-chat-service/internal/models"
)

var ErrUserNotFound = errors.New("user not found")

const userColumns = `uid, name, email, photo, fcm_token, created_at`

// UserRepository abstracts users/{uid}.
type UserRepository interface {
	UpsertUser(ctx context.Context, user models.User) (models.User, error)
	UpdateProfile(ctx context.Context, uid string, name *string, photo *string) (models.User, error)
	ClearPhoto(ctx context.Context, uid string) error
	SetFCMToken(ctx context.Context, uid, token string) error
	GetUser(ctx context.Context, uid string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	BulkUsers(ctx context.Context, uids []string) ([]models.User, error)
}

// UserRepo is a sqlx implementation of UserRepository.
type UserRepo struct {
	db *sqlx.DB
}

// NewUserRepo constructs a UserRepo.
func NewUserRepo(db *sqlx.DB) *UserRepo {
	return &UserRepo{db: db}
}

// NormalizeEmail is the search key form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// UpsertUser writes the profile saved after sign-in. An existing push token is kept.
func (r *UserRepo) UpsertUser(ctx context.Context, user models.User) (models.User, error) {
	var saved models.User
	err := r.db.GetContext(ctx, &saved, `INSERT INTO users (uid, name, email, photo) VALUES ($1, $2, $3, $4)
        ON CONFLICT (uid) DO UPDATE SET name = EXCLUDED.name, email = EXCLUDED.email, photo = EXCLUDED.photo
        RETURNING `+userColumns, user.UID, user.Name, NormalizeEmail(user.Email), user.Photo)
	return saved, errors.Wrap(err, "userRepo.UpsertUser")
}

// UpdateProfile changes the name and/or photo; nil fields are left untouched.
func (r *UserRepo) UpdateProfile(ctx context.Context, uid string, name *string, photo *string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `UPDATE users SET name = COALESCE($2, name), photo = COALESCE($3, photo)
        WHERE uid=$1 RETURNING `+userColumns, uid, name, photo)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, errors.Wrap(err, "userRepo.UpdateProfile")
}

// ClearPhoto removes the avatar URL.
func (r *UserRepo) ClearPhoto(ctx context.Context, uid string) error {
	return r.execOne(ctx, "userRepo.ClearPhoto", `UPDATE users SET photo = NULL WHERE uid=$1`, uid)
}

// SetFCMToken stores the device push token.
func (r *UserRepo) SetFCMToken(ctx context.Context, uid, token string) error {
	return r.execOne(ctx, "userRepo.SetFCMToken", `UPDATE users SET fcm_token=$2 WHERE uid=$1`, uid, token)
}

// GetUser fetches a user by uid.
func (r *UserRepo) GetUser(ctx context.Context, uid string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE uid=$1`, uid)
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, errors.Wrap(err, "userRepo.GetUser")
}

// FindByEmail looks a user up by its lowercase email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+userColumns+` FROM users WHERE email=$1 LIMIT 1`, NormalizeEmail(email))
	if errors.Is(err, sql.ErrNoRows) {
		return models.User{}, ErrUserNotFound
	}
	return user, errors.Wrap(err, "userRepo.FindByEmail")
}

// ListUsers returns the whole roster ordered by name.
func (r *UserRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := r.db.SelectContext(ctx, &users, `SELECT `+userColumns+` FROM users ORDER BY name ASC`)
	return users, errors.Wrap(err, "userRepo.ListUsers")
}

// BulkUsers fetches several users in one query.
func (r *UserRepo) BulkUsers(ctx context.Context, uids []string) ([]models.User, error) {
	if len(uids) == 0 {
		return []models.User{}, nil
	}
	query, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE uid IN (?) ORDER BY name ASC`, uids)
	if err != nil {
		return nil, errors.Wrap(err, "userRepo.BulkUsers build")
	}
	var users []models.User
	err = r.db.SelectContext(ctx, &users, r.db.Rebind(query), args...)
	return users, errors.Wrap(err, "userRepo.BulkUsers")
}

func (r *UserRepo) execOne(ctx context.Context, op, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, op)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, op)
	}
	if count == 0 {
		return ErrUserNotFound
	}
	return nil
}

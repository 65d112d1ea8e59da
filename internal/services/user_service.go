package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/isdelr/mamakara/internal/auth"
	"github.com/isdelr/mamakara/internal/database"
	"github.com/isdelr/mamakara/internal/models"
)

// unknownUserHash is compared against when the username does not exist, so
// unknown and known usernames cost the same bcrypt work.
var unknownUserHash = sync.OnceValue(func() string {
	hash, err := auth.HashPassword("unknown-user")
	if err != nil {
		panic(err)
	}
	return hash
})

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	GetUserByID(ctx context.Context, id int64) (models.User, error)
	GetUserByUsername(ctx context.Context, username string) (models.User, error)
	CreateUser(ctx context.Context, username, password string) (models.User, error)
	AuthenticateUser(ctx context.Context, username, password string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	db *database.DB
}

// NewUserService creates a new UserService.
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// GetUserByID retrieves a single user by their ID.
func (s *UserService) GetUserByID(ctx context.Context, id int64) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT id, username FROM "user" WHERE id = ?`), id)
	if err := row.Scan(&user.ID, &user.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user with ID %d: %w", id, ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return user, nil
}

// GetUserByUsername retrieves a single user by username. The password hash
// is not loaded.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (models.User, error) {
	user, err := s.getUserWithHash(ctx, username)
	user.PasswordHash = ""
	return user, err
}

func (s *UserService) getUserWithHash(ctx context.Context, username string) (models.User, error) {
	var user models.User
	row := s.db.QueryRowContext(ctx, s.db.Rebind(`SELECT id, username, password_hash FROM "user" WHERE username = ?`), username)
	if err := row.Scan(&user.ID, &user.Username, &user.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.User{}, fmt.Errorf("user %q: %w", username, ErrUserNotFound)
		}
		return models.User{}, fmt.Errorf("get user %q: %w", username, err)
	}
	return user, nil
}

// CreateUser registers a new user, hashing their password. It returns
// ErrUsernameTaken when the username already exists, whether that is seen
// by the lookup or only by the store's unique constraint at insert time.
func (s *UserService) CreateUser(ctx context.Context, username, password string) (models.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return models.User{}, fmt.Errorf("%w: username and password are required", ErrInvalidInput)
	}
	if utf8.RuneCountInString(username) > models.MaxUsernameLength {
		return models.User{}, fmt.Errorf("%w: username must be at most %d characters", ErrInvalidInput, models.MaxUsernameLength)
	}

	_, err := s.getUserWithHash(ctx, username)
	switch {
	case err == nil:
		return models.User{}, ErrUsernameTaken
	case !errors.Is(err, ErrUserNotFound):
		return models.User{}, err
	}

	hashedPassword, err := auth.HashPassword(password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{Username: username}
	row := s.db.QueryRowContext(ctx,
		s.db.Rebind(`INSERT INTO "user" (username, password_hash) VALUES (?, ?) RETURNING id`),
		username, hashedPassword)
	if err := row.Scan(&user.ID); err != nil {
		if database.IsUniqueViolation(err) {
			return models.User{}, ErrUsernameTaken
		}
		return models.User{}, fmt.Errorf("insert user %q: %w", username, err)
	}
	return user, nil
}

// AuthenticateUser verifies a user's credentials. Unknown usernames and
// wrong passwords both yield ErrInvalidCredentials.
func (s *UserService) AuthenticateUser(ctx context.Context, username, password string) (models.User, error) {
	if username == "" || password == "" {
		return models.User{}, ErrInvalidCredentials
	}

	user, err := s.getUserWithHash(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			auth.VerifyPassword(password, unknownUserHash())
			return models.User{}, ErrInvalidCredentials
		}
		return models.User{}, err
	}

	if !auth.VerifyPassword(password, user.PasswordHash) {
		return models.User{}, ErrInvalidCredentials
	}

	// Don't hand the password hash to callers
	user.PasswordHash = ""
	return user, nil
}

package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/LivingHopeDev/Inventory-system/internal/auth"
)

var (
	// ErrEmailTaken is returned when signup hits an already registered email.
	ErrEmailTaken = errors.New("user already exists")
	// ErrInvalidCredentials is returned when login email or password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

type Conf struct {
	db *sql.DB
}

func NewConf(db *sql.DB) (*Conf, error) {
	if db == nil {
		return nil, fmt.Errorf("db is nil")
	}
	return &Conf{db: db}, nil
}

// InsertUser creates a user with a bcrypt hashed password. The existence check
// and the insert run in one transaction so concurrent signups with the same
// email cannot both succeed.
func (c *Conf) InsertUser(ctx context.Context, newUser NewUser) (User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newUser.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	var user User
	err = c.withTx(ctx, func(tx *sql.Tx) error {
		var existingID string
		queryByEmail := `
			SELECT id
			FROM users
			WHERE email = $1
		`
		err := tx.QueryRowContext(ctx, queryByEmail, newUser.Email).Scan(&existingID)
		if err == nil {
			return ErrEmailTaken
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("failed to query user by email: %w", err)
		}

		queryInsert := `
			INSERT INTO users (id, first_name, last_name, email, password_hash, role, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
			RETURNING id, first_name, last_name, email, role, created_at, updated_at
		`
		err = tx.QueryRowContext(ctx, queryInsert, uuid.NewString(), newUser.FirstName,
			newUser.LastName, newUser.Email, string(hashedPassword), auth.RoleUser).
			Scan(&user.ID, &user.FirstName, &user.LastName, &user.Email, &user.Role,
				&user.CreatedAt, &user.UpdatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert user: %w", err)
		}
		return nil
	})
	if err != nil {
		return User{}, err
	}

	return user, nil
}

// Authenticate verifies the email and password and returns the matching user.
func (c *Conf) Authenticate(ctx context.Context, email, password string) (User, error) {
	var user User
	var passwordHash string

	query := `
		SELECT id, first_name, last_name, email, password_hash, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`
	err := c.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.FirstName,
		&user.LastName, &user.Email, &passwordHash, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(password)); err != nil {
		return User{}, ErrInvalidCredentials
	}

	return user, nil
}

// GetUserByID looks up a user by id. Wraps sql.ErrNoRows when absent.
func (c *Conf) GetUserByID(ctx context.Context, userID string) (User, error) {
	var user User

	query := `
		SELECT id, first_name, last_name, email, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`
	err := c.db.QueryRowContext(ctx, query, userID).Scan(&user.ID, &user.FirstName,
		&user.LastName, &user.Email, &user.Role, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, fmt.Errorf("user %s: %w", userID, sql.ErrNoRows)
		}
		return User{}, fmt.Errorf("failed to query user: %w", err)
	}

	return user, nil
}

func (c *Conf) withTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin tx: %w", err)
	}

	if err := fn(tx); err != nil {
		if er := tx.Rollback(); er != nil && !errors.Is(er, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback withTx: %w", err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit withTx: %w", err)
	}
	return nil
}

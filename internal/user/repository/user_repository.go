package repository

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"mostrador/internal/domain"
	"mostrador/internal/errors"
)

const mysqlDuplicateEntry = 1062

type MySQLUserRepository struct {
	db *sql.DB
}

func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{db: db}
}

func (r *MySQLUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, name, email, passwordHash, role, createdAt
		FROM Users
		WHERE email = ?
	`

	var user domain.User
	err := r.db.QueryRowContext(ctx, query, normalizeEmail(email)).Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role, &user.CreatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("user with email %s not found", email))
	}
	if err != nil {
		return nil, fmt.Errorf("querying user by email: %w", err)
	}

	return &user, nil
}

func (r *MySQLUserRepository) Insert(ctx context.Context, user *domain.User) (uint, error) {
	query := `
		INSERT INTO Users (name, email, passwordHash, role, createdAt)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		user.Name, normalizeEmail(user.Email), user.PasswordHash, string(user.Role), user.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if stderrors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
			return 0, errors.NewValidationError("email already registered", errors.ValidationDetail{
				Field:   "email",
				Message: "email already registered",
			})
		}
		return 0, fmt.Errorf("inserting user: %w", err)
	}

	lastInsertID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return uint(lastInsertID), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

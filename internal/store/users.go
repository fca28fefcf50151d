package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/refurbhq/refurbd/internal/model"
)

// CreateUser creates a new user. A taken email returns ErrDuplicate.
func CreateUser(ctx context.Context, db *sql.DB, username, email, passwordHash, role string, companyID *string, approved bool) (*model.User, error) {
	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO users (id, username, email, password_hash, role, approved, company_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, username, email, passwordHash, role, approved, companyID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating user: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	return GetUser(ctx, db, id)
}

// GetUser returns a user by ID.
func GetUser(ctx context.Context, db *sql.DB, id string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, approved, company_id, created_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Approved, &u.CompanyID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

// GetUserByEmail returns a user by email.
func GetUserByEmail(ctx context.Context, db *sql.DB, email string) (*model.User, error) {
	u := &model.User{}
	err := db.QueryRowContext(ctx,
		`SELECT id, username, email, password_hash, role, approved, company_id, created_at
		 FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Approved, &u.CompanyID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting user by email: %w", err)
	}
	return u, nil
}

// ListPendingUsers returns unapproved users belonging to a company.
func ListPendingUsers(ctx context.Context, db *sql.DB, companyID string) ([]model.User, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, username, email, password_hash, role, approved, company_id, created_at
		 FROM users WHERE company_id = ? AND approved = 0 ORDER BY created_at`, companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing pending users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.Approved, &u.CompanyID, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ApproveUser flips a user's approval flag.
func ApproveUser(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET approved = 1 WHERE id = ?`, id,
	)
	if err != nil {
		return fmt.Errorf("approving user: %w", err)
	}
	return nil
}

// AssignUserCompany binds a user to a company.
func AssignUserCompany(ctx context.Context, db *sql.DB, userID, companyID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE users SET company_id = ? WHERE id = ?`,
		companyID, userID,
	)
	if err != nil {
		return fmt.Errorf("assigning user company: %w", err)
	}
	return nil
}

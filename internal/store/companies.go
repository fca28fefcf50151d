package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/refurbhq/refurbd/internal/model"
)

// CreateCompany creates a new company with a freshly generated join code.
// A taken company name returns ErrDuplicate.
func CreateCompany(ctx context.Context, db *sql.DB, name string) (*model.Company, error) {
	joinCode, err := model.GenerateJoinCode()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	_, err = db.ExecContext(ctx,
		`INSERT INTO companies (id, name, join_code) VALUES (?, ?, ?)`,
		id, name, joinCode,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating company: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("creating company: %w", err)
	}

	return GetCompany(ctx, db, id)
}

// CreateCompanyWithAdmin creates a company and binds the creating admin to it,
// committing both together so a failed binding cannot strand a company with
// its unique name reserved and no members. A taken name returns ErrDuplicate.
func CreateCompanyWithAdmin(ctx context.Context, db *sql.DB, name, adminID string) (*model.Company, error) {
	joinCode, err := model.GenerateJoinCode()
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO companies (id, name, join_code) VALUES (?, ?, ?)`,
		id, name, joinCode,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("creating company: %w", ErrDuplicate)
		}
		return nil, fmt.Errorf("creating company: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE users SET company_id = ? WHERE id = ?`,
		id, adminID,
	)
	if err != nil {
		return nil, fmt.Errorf("binding creating admin: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing company creation: %w", err)
	}

	return GetCompany(ctx, db, id)
}

// GetCompany returns a company by ID.
func GetCompany(ctx context.Context, db *sql.DB, id string) (*model.Company, error) {
	c := &model.Company{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, join_code, created_at FROM companies WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.JoinCode, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting company: %w", err)
	}
	return c, nil
}

// GetCompanyByJoinCode returns the company matching a join code exactly.
func GetCompanyByJoinCode(ctx context.Context, db *sql.DB, code string) (*model.Company, error) {
	c := &model.Company{}
	err := db.QueryRowContext(ctx,
		`SELECT id, name, join_code, created_at FROM companies WHERE join_code = ?`, code,
	).Scan(&c.ID, &c.Name, &c.JoinCode, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting company by join code: %w", err)
	}
	return c, nil
}

package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/crucial707/market-supervisor/internal/models"
)

const companyCols = `id, name, email, password_hash, country, sector, role, is_active,
	COALESCE(refresh_token, ''), COALESCE(website, ''), COALESCE(telephone, ''), created_at, updated_at`

// CompanyRepo persists company accounts.
type CompanyRepo struct {
	DB *sql.DB
}

// NewCompanyRepo returns a new CompanyRepo.
func NewCompanyRepo(db *sql.DB) *CompanyRepo {
	return &CompanyRepo{DB: db}
}

func scanCompany(row interface{ Scan(...any) error }) (*models.Company, error) {
	c := &models.Company{}
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.PasswordHash, &c.Country, &c.Sector,
		&c.Role, &c.IsActive, &c.RefreshToken, &c.Website, &c.Telephone, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new company. Fails with ErrConflict when the email is taken.
func (r *CompanyRepo) Create(ctx context.Context, c *models.Company) (*models.Company, error) {
	query := fmt.Sprintf(`
		INSERT INTO companies (id, name, email, password_hash, country, sector, role, website, telephone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NULLIF($8, ''), NULLIF($9, ''))
		RETURNING %s
	`, companyCols)

	role := c.Role
	if role == "" {
		role = models.RoleCompany
	}
	created, err := scanCompany(r.DB.QueryRowContext(ctx, query,
		uuid.NewString(), c.Name, c.Email, c.PasswordHash, c.Country, c.Sector, role, c.Website, c.Telephone))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("company email %q: %w", c.Email, ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID returns one company, or ErrNotFound.
func (r *CompanyRepo) GetByID(ctx context.Context, id string) (*models.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE id = $1`, companyCols)
	c, err := scanCompany(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetByEmail returns one company by email, or ErrNotFound.
func (r *CompanyRepo) GetByEmail(ctx context.Context, email string) (*models.Company, error) {
	query := fmt.Sprintf(`SELECT %s FROM companies WHERE email = $1`, companyCols)
	c, err := scanCompany(r.DB.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company email %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns companies, newest first. limit/offset for pagination.
func (r *CompanyRepo) List(ctx context.Context, limit, offset int) ([]models.Company, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM companies
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, companyCols)
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// Count returns the total number of companies.
func (r *CompanyRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM companies").Scan(&n)
	return n, err
}

// Update applies partial-field changes: nil pointers leave the column untouched.
func (r *CompanyRepo) Update(ctx context.Context, id string, name, country, sector, website, telephone *string) (*models.Company, error) {
	query := fmt.Sprintf(`
		UPDATE companies SET
			name = COALESCE($2, name),
			country = COALESCE($3, country),
			sector = COALESCE($4, sector),
			website = COALESCE($5, website),
			telephone = COALESCE($6, telephone),
			updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, companyCols)
	c, err := scanCompany(r.DB.QueryRowContext(ctx, query, id, name, country, sector, website, telephone))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdatePassword replaces the stored password hash.
func (r *CompanyRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE companies SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// UpdateRefreshToken stores the bcrypt hash of the refresh token; empty clears it.
func (r *CompanyRepo) UpdateRefreshToken(ctx context.Context, id, hashedToken string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE companies SET refresh_token = NULLIF($2, ''), updated_at = now() WHERE id = $1`, id, hashedToken)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// ToggleActive flips is_active and returns the updated company.
func (r *CompanyRepo) ToggleActive(ctx context.Context, id string) (*models.Company, error) {
	query := fmt.Sprintf(`
		UPDATE companies SET is_active = NOT is_active, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, companyCols)
	c, err := scanCompany(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("company %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Delete removes a company. ErrNotFound when no row matched.
func (r *CompanyRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM companies WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("id %s: %w", id, ErrNotFound)
	}
	return nil
}

package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/crucial707/market-supervisor/internal/models"
)

const userCols = `id, first_name, last_name, email, password_hash, role, is_active,
	COALESCE(refresh_token, ''), created_at, updated_at`

// UserRepo persists admin users.
type UserRepo struct {
	DB *sql.DB
}

// NewUserRepo returns a new UserRepo.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash,
		&u.Role, &u.IsActive, &u.RefreshToken, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Create inserts a new admin user. ErrConflict when the email is taken.
func (r *UserRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	query := fmt.Sprintf(`
		INSERT INTO users (id, first_name, last_name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING %s
	`, userCols)

	role := u.Role
	if role == "" {
		role = models.RoleUserAdmin
	}
	created, err := scanUser(r.DB.QueryRowContext(ctx, query,
		uuid.NewString(), u.FirstName, u.LastName, u.Email, u.PasswordHash, role))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("user email %q: %w", u.Email, ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID returns one user, or ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userCols)
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail returns one user by email, or ErrNotFound.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userCols)
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, email))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user email %s: %w", email, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// List returns users, newest first.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, userCols)
	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *u)
	}
	return list, rows.Err()
}

// Update applies partial-field changes. passwordHash, when non-nil, must already be hashed.
func (r *UserRepo) Update(ctx context.Context, id string, firstName, lastName, role, passwordHash *string) (*models.User, error) {
	query := fmt.Sprintf(`
		UPDATE users SET
			first_name = COALESCE($2, first_name),
			last_name = COALESCE($3, last_name),
			role = COALESCE($4, role),
			password_hash = COALESCE($5, password_hash),
			updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, userCols)
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id, firstName, lastName, role, passwordHash))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// UpdateRefreshToken stores the bcrypt hash of the refresh token; empty clears it.
func (r *UserRepo) UpdateRefreshToken(ctx context.Context, id, hashedToken string) error {
	res, err := r.DB.ExecContext(ctx,
		`UPDATE users SET refresh_token = NULLIF($2, ''), updated_at = now() WHERE id = $1`, id, hashedToken)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// ToggleActive flips is_active and returns the updated user.
func (r *UserRepo) ToggleActive(ctx context.Context, id string) (*models.User, error) {
	query := fmt.Sprintf(`
		UPDATE users SET is_active = NOT is_active, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, userCols)
	u, err := scanUser(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a user. ErrNotFound when no row matched.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

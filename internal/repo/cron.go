package repo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/crucial707/market-supervisor/internal/models"
)

const cronCols = `id, company_id, name, COALESCE(description, ''), tags, keywords,
	frequency, is_active, last_run_at, search_count, created_at, updated_at`

// CronRepo persists crons (saved recurring searches).
type CronRepo struct {
	DB *sql.DB
}

// NewCronRepo returns a new CronRepo.
func NewCronRepo(db *sql.DB) *CronRepo {
	return &CronRepo{DB: db}
}

func scanCron(row interface{ Scan(...any) error }) (*models.Cron, error) {
	c := &models.Cron{}
	var lastRun sql.NullTime
	err := row.Scan(&c.ID, &c.CompanyID, &c.Name, &c.Description, pq.Array(&c.Tags),
		&c.Keywords, &c.Frequency, &c.IsActive, &lastRun, &c.SearchCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if lastRun.Valid {
		c.LastRunAt = &lastRun.Time
	}
	return c, nil
}

// Create inserts a new cron. The (company_id, name) pair must be unique; a
// duplicate fails with ErrConflict. Frequency defaults to daily.
func (r *CronRepo) Create(ctx context.Context, c *models.Cron) (*models.Cron, error) {
	var exists bool
	err := r.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM crons WHERE company_id = $1 AND name = $2)`,
		c.CompanyID, c.Name,
	).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("cron %q for company %s: %w", c.Name, c.CompanyID, ErrConflict)
	}

	frequency := c.Frequency
	if frequency == "" {
		frequency = models.FrequencyDaily
	}
	tags := c.Tags
	if tags == nil {
		tags = []string{}
	}

	query := fmt.Sprintf(`
		INSERT INTO crons (id, company_id, name, description, tags, keywords, frequency, is_active)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8)
		RETURNING %s
	`, cronCols)
	created, err := scanCron(r.DB.QueryRowContext(ctx, query,
		uuid.NewString(), c.CompanyID, c.Name, c.Description, pq.Array(tags), c.Keywords, frequency, c.IsActive))
	if isUniqueViolation(err) {
		// Lost the race between the existence check and the insert.
		return nil, fmt.Errorf("cron %q for company %s: %w", c.Name, c.CompanyID, ErrConflict)
	}
	if err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID returns one cron, or ErrNotFound.
func (r *CronRepo) GetByID(ctx context.Context, id string) (*models.Cron, error) {
	query := fmt.Sprintf(`SELECT %s FROM crons WHERE id = $1`, cronCols)
	c, err := scanCron(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cron %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (r *CronRepo) queryMany(ctx context.Context, query string, args ...any) ([]models.Cron, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Cron
	for rows.Next() {
		c, err := scanCron(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *c)
	}
	return list, rows.Err()
}

// List returns all crons, newest first.
func (r *CronRepo) List(ctx context.Context, limit, offset int) ([]models.Cron, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM crons
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, cronCols)
	return r.queryMany(ctx, query, limit, offset)
}

// ListByCompany returns a company's crons, newest first.
func (r *CronRepo) ListByCompany(ctx context.Context, companyID string) ([]models.Cron, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM crons
		WHERE company_id = $1
		ORDER BY created_at DESC
	`, cronCols)
	return r.queryMany(ctx, query, companyID)
}

// ListActive returns every active cron, newest first.
func (r *CronRepo) ListActive(ctx context.Context) ([]models.Cron, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM crons
		WHERE is_active
		ORDER BY created_at DESC
	`, cronCols)
	return r.queryMany(ctx, query)
}

// FindDue returns active crons configured for the given frequency, newest first.
func (r *CronRepo) FindDue(ctx context.Context, frequency string) ([]models.Cron, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM crons
		WHERE is_active AND frequency = $1
		ORDER BY created_at DESC
	`, cronCols)
	return r.queryMany(ctx, query, frequency)
}

// Update applies partial-field changes: nil pointers leave the column untouched.
// A name change re-checks uniqueness against the owning company and fails with
// ErrConflict on violation.
func (r *CronRepo) Update(ctx context.Context, id string, name, description, keywords, frequency *string, tags []string, isActive *bool) (*models.Cron, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name != nil && *name != current.Name {
		var exists bool
		err := r.DB.QueryRowContext(ctx,
			`SELECT EXISTS(SELECT 1 FROM crons WHERE company_id = $1 AND name = $2 AND id <> $3)`,
			current.CompanyID, *name, id,
		).Scan(&exists)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, fmt.Errorf("cron %q for company %s: %w", *name, current.CompanyID, ErrConflict)
		}
	}

	var tagsArg any
	if tags != nil {
		tagsArg = pq.Array(tags)
	}

	query := fmt.Sprintf(`
		UPDATE crons SET
			name = COALESCE($2, name),
			description = COALESCE($3, description),
			keywords = COALESCE($4, keywords),
			frequency = COALESCE($5, frequency),
			tags = COALESCE($6, tags),
			is_active = COALESCE($7, is_active),
			updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, cronCols)
	c, err := scanCron(r.DB.QueryRowContext(ctx, query, id, name, description, keywords, frequency, tagsArg, isActive))
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("cron rename %s: %w", id, ErrConflict)
	}
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cron %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetActive sets is_active and returns the updated cron.
func (r *CronRepo) SetActive(ctx context.Context, id string, active bool) (*models.Cron, error) {
	query := fmt.Sprintf(`
		UPDATE crons SET is_active = $2, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, cronCols)
	c, err := scanCron(r.DB.QueryRowContext(ctx, query, id, active))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cron %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// ToggleActive flips is_active and returns the updated cron.
func (r *CronRepo) ToggleActive(ctx context.Context, id string) (*models.Cron, error) {
	query := fmt.Sprintf(`
		UPDATE crons SET is_active = NOT is_active, updated_at = now()
		WHERE id = $1
		RETURNING %s
	`, cronCols)
	c, err := scanCron(r.DB.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cron %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// RecordRun stamps last_run_at and bumps search_count in one statement, so
// concurrent readers never observe one field updated without the other.
func (r *CronRepo) RecordRun(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE crons SET last_run_at = now(), search_count = search_count + 1, updated_at = now()
		WHERE id = $1
	`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

// Delete removes a cron. ErrNotFound when no row matched.
func (r *CronRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM crons WHERE id = $1`, id)
	if err != nil {
		return err
	}
	return requireRow(res, id)
}

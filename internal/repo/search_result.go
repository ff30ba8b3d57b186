package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/crucial707/market-supervisor/internal/models"
)

const resultCols = `id, cron_id, title, summary, url, source, search_date, created_at`

// SearchResultRepo persists search hits produced by cron runs.
type SearchResultRepo struct {
	DB *sql.DB
}

// NewSearchResultRepo returns a new SearchResultRepo.
func NewSearchResultRepo(db *sql.DB) *SearchResultRepo {
	return &SearchResultRepo{DB: db}
}

// CreateMany inserts all results in one transaction. Either every row is
// committed or none is; a partial insert never survives.
func (r *SearchResultRepo) CreateMany(ctx context.Context, results []models.SearchResult) error {
	if len(results) == 0 {
		return nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO search_results (id, cron_id, title, summary, url, source, search_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, res := range results {
		if _, err := stmt.ExecContext(ctx,
			uuid.NewString(), res.CronID, res.Title, res.Summary, res.URL, res.Source, res.SearchDate,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *SearchResultRepo) queryMany(ctx context.Context, query string, args ...any) ([]models.SearchResult, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.SearchResult
	for rows.Next() {
		var s models.SearchResult
		if err := rows.Scan(&s.ID, &s.CronID, &s.Title, &s.Summary, &s.URL,
			&s.Source, &s.SearchDate, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// ListByCron returns all of a cron's results, most recent search first.
func (r *SearchResultRepo) ListByCron(ctx context.Context, cronID string) ([]models.SearchResult, error) {
	return r.queryMany(ctx, `
		SELECT `+resultCols+` FROM search_results
		WHERE cron_id = $1
		ORDER BY search_date DESC
	`, cronID)
}

// ListRecent returns the most recent results for a cron, capped at limit.
func (r *SearchResultRepo) ListRecent(ctx context.Context, cronID string, limit int) ([]models.SearchResult, error) {
	return r.queryMany(ctx, `
		SELECT `+resultCols+` FROM search_results
		WHERE cron_id = $1
		ORDER BY search_date DESC
		LIMIT $2
	`, cronID, limit)
}

// ListByDateRange returns a cron's results with search_date inside [start, end].
func (r *SearchResultRepo) ListByDateRange(ctx context.Context, cronID string, start, end time.Time) ([]models.SearchResult, error) {
	return r.queryMany(ctx, `
		SELECT `+resultCols+` FROM search_results
		WHERE cron_id = $1 AND search_date >= $2 AND search_date <= $3
		ORDER BY search_date DESC
	`, cronID, start, end)
}

// DeleteOlderThan removes results whose search_date precedes the cutoff and
// returns the number of rows deleted. Retention is operator-driven; nothing
// schedules this automatically.
func (r *SearchResultRepo) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM search_results WHERE search_date < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CronStats summarizes a cron's accumulated results.
type CronStats struct {
	TotalResults            int        `json:"total_results"`
	LastSearchDate          *time.Time `json:"last_search_date"`
	AverageResultsPerSearch float64    `json:"average_results_per_search"`
}

// StatsByCron aggregates total results, the latest search date, and the average
// number of results per distinct search day.
func (r *SearchResultRepo) StatsByCron(ctx context.Context, cronID string) (*CronStats, error) {
	stats := &CronStats{}
	var lastDate sql.NullTime
	var avg sql.NullFloat64
	err := r.DB.QueryRowContext(ctx, `
		SELECT COUNT(*),
			MAX(search_date),
			COALESCE(ROUND(COUNT(*)::numeric / NULLIF(COUNT(DISTINCT search_date::date), 0), 2), 0)
		FROM search_results
		WHERE cron_id = $1
	`, cronID).Scan(&stats.TotalResults, &lastDate, &avg)
	if err != nil {
		return nil, err
	}
	if lastDate.Valid {
		stats.LastSearchDate = &lastDate.Time
	}
	if avg.Valid {
		stats.AverageResultsPerSearch = avg.Float64
	}
	return stats, nil
}

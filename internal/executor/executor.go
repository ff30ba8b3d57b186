// Package executor runs crons: search, persist the hits, record the run.
package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/crucial707/market-supervisor/internal/metrics"
	"github.com/crucial707/market-supervisor/internal/models"
	"github.com/crucial707/market-supervisor/internal/repo"
	"github.com/crucial707/market-supervisor/internal/search"
)

// ErrInactive is returned when a manual execution targets a deactivated cron.
var ErrInactive = errors.New("cron is not active")

// Searcher is the single-attempt keyword search the executor depends on.
type Searcher interface {
	Search(ctx context.Context, query string) ([]search.Result, error)
}

// Executor orchestrates one cron run: Search -> CreateMany -> RecordRun, in
// that order. Run statistics are only updated after persistence succeeded, so a
// failed search never masks itself as a successful run.
type Executor struct {
	Crons     *repo.CronRepo
	Companies *repo.CompanyRepo
	Results   *repo.SearchResultRepo
	Search    Searcher
	Log       *slog.Logger
}

// New returns an Executor. logger may be nil.
func New(crons *repo.CronRepo, companies *repo.CompanyRepo, results *repo.SearchResultRepo, searcher Searcher, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{Crons: crons, Companies: companies, Results: results, Search: searcher, Log: logger}
}

// RunOne executes a single cron by id. It fails with repo.ErrNotFound for an
// unknown id and ErrInactive for a deactivated cron.
func (e *Executor) RunOne(ctx context.Context, id string) error {
	cron, err := e.Crons.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !cron.IsActive {
		return fmt.Errorf("cron %s: %w", id, ErrInactive)
	}
	return e.Run(ctx, cron)
}

// Run executes one already-loaded cron. A cron without keywords is a logged
// no-op, not an error. The owning company must resolve or the run fails.
func (e *Executor) Run(ctx context.Context, cron *models.Cron) error {
	if strings.TrimSpace(cron.Keywords) == "" {
		e.Log.Info("cron has no keywords, skipping run", "cron_id", cron.ID, "name", cron.Name)
		metrics.IncCronRunsTotal("skipped")
		return nil
	}

	if _, err := e.Companies.GetByID(ctx, cron.CompanyID); err != nil {
		metrics.IncCronRunsTotal("error")
		return fmt.Errorf("resolve owning company: %w", err)
	}

	metrics.IncCronRunsRunning()
	defer metrics.DecCronRunsRunning()

	e.Log.Info("executing cron", "cron_id", cron.ID, "name", cron.Name, "keywords", cron.Keywords)

	results, err := e.Search.Search(ctx, cron.Keywords)
	if err != nil {
		metrics.IncCronRunsTotal("error")
		return fmt.Errorf("search for cron %s: %w", cron.ID, err)
	}

	// Zero results is a valid outcome; the run is still recorded.
	if len(results) > 0 {
		rows := make([]models.SearchResult, 0, len(results))
		for _, res := range results {
			rows = append(rows, models.SearchResult{
				CronID:     cron.ID,
				Title:      res.Title,
				Summary:    res.Summary,
				URL:        res.URL,
				Source:     res.Source,
				SearchDate: res.SearchDate,
			})
		}
		if err := e.Results.CreateMany(ctx, rows); err != nil {
			metrics.IncCronRunsTotal("error")
			return fmt.Errorf("save results for cron %s: %w", cron.ID, err)
		}
		metrics.AddSearchResultsSaved(len(rows))
		e.Log.Info("saved search results", "cron_id", cron.ID, "count", len(rows))
	}

	if err := e.Crons.RecordRun(ctx, cron.ID); err != nil {
		metrics.IncCronRunsTotal("error")
		return fmt.Errorf("record run for cron %s: %w", cron.ID, err)
	}

	metrics.IncCronRunsTotal("completed")
	e.Log.Info("cron executed", "cron_id", cron.ID, "name", cron.Name, "results", len(results))
	return nil
}

// RunDue executes every active cron configured for the given frequency. Each
// cron gets an independent attempt: a failed run is logged and the batch
// continues. Overlapping timer fires can double-count search_count for a cron
// caught in both batches; this is tolerated at these cadences.
func (e *Executor) RunDue(ctx context.Context, frequency string) error {
	crons, err := e.Crons.FindDue(ctx, frequency)
	if err != nil {
		return fmt.Errorf("list due crons (%s): %w", frequency, err)
	}
	e.Log.Info("running due crons", "frequency", frequency, "count", len(crons))

	for i := range crons {
		if err := e.Run(ctx, &crons[i]); err != nil {
			e.Log.Error("cron run failed", "cron_id", crons[i].ID, "name", crons[i].Name, "error", err)
		}
	}
	return nil
}

// RunAllActive executes every active cron regardless of frequency, with the
// same per-cron error isolation as RunDue.
func (e *Executor) RunAllActive(ctx context.Context) error {
	crons, err := e.Crons.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("list active crons: %w", err)
	}
	e.Log.Info("running all active crons", "count", len(crons))

	for i := range crons {
		if err := e.Run(ctx, &crons[i]); err != nil {
			e.Log.Error("cron run failed", "cron_id", crons[i].ID, "name", crons[i].Name, "error", err)
		}
	}
	return nil
}

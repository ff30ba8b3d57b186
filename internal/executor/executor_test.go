package executor

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucial707/market-supervisor/internal/models"
	"github.com/crucial707/market-supervisor/internal/repo"
	"github.com/crucial707/market-supervisor/internal/search"
)

type fakeSearcher struct {
	results []search.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(_ context.Context, query string) ([]search.Result, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func newTestExecutor(t *testing.T, searcher Searcher) (*Executor, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(
		repo.NewCronRepo(db),
		repo.NewCompanyRepo(db),
		repo.NewSearchResultRepo(db),
		searcher,
		nil,
	), mock
}

func companyRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "country", "sector", "role",
		"is_active", "refresh_token", "website", "telephone", "created_at", "updated_at",
	}).AddRow("c1", "Acme", "acme@example.com", "hash", "FR", "retail", "company",
		true, "", "", "", now, now)
}

func cronRow(id string, keywords string, active bool) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "company_id", "name", "description", "tags", "keywords",
		"frequency", "is_active", "last_run_at", "search_count", "created_at", "updated_at",
	}).AddRow(id, "c1", "watch", "", "{}", keywords, "daily", active, nil, 0, now, now)
}

func TestExecutor_Run_EmptyKeywordsIsNoop(t *testing.T) {
	fake := &fakeSearcher{}
	exec, mock := newTestExecutor(t, fake)

	cron := &models.Cron{ID: "cr1", CompanyID: "c1", Name: "watch", Keywords: "   ", IsActive: true}
	err := exec.Run(context.Background(), cron)

	require.NoError(t, err, "a cron without keywords skips, it does not fail")
	assert.Empty(t, fake.queries, "no search is attempted")
	assert.NoError(t, mock.ExpectationsWereMet(), "no database access")
}

func TestExecutor_Run_SavesResultsAndRecordsRun(t *testing.T) {
	now := time.Now()
	fake := &fakeSearcher{results: []search.Result{
		{Title: "t1", Summary: "s1", URL: "https://a", Source: search.SourceSimulation, SearchDate: now},
		{Title: "t2", Summary: "s2", URL: "https://b", Source: search.SourceSimulation, SearchDate: now},
	}}
	exec, mock := newTestExecutor(t, fake)

	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(companyRow())
	mock.ExpectBegin()
	mock.ExpectPrepare(`INSERT INTO search_results`)
	mock.ExpectExec(`INSERT INTO search_results`).
		WithArgs(sqlmock.AnyArg(), "cr1", "t1", "s1", "https://a", "simulation", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO search_results`).
		WithArgs(sqlmock.AnyArg(), "cr1", "t2", "s2", "https://b", "simulation", now).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	mock.ExpectExec(`UPDATE crons SET last_run_at = now\(\), search_count = search_count \+ 1`).
		WithArgs("cr1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	cron := &models.Cron{ID: "cr1", CompanyID: "c1", Name: "watch", Keywords: "go,cloud", IsActive: true}
	err := exec.Run(context.Background(), cron)

	require.NoError(t, err)
	assert.Equal(t, []string{"go,cloud"}, fake.queries)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_Run_ZeroResultsStillRecordsRun(t *testing.T) {
	fake := &fakeSearcher{results: nil}
	exec, mock := newTestExecutor(t, fake)

	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(companyRow())
	mock.ExpectExec(`UPDATE crons SET last_run_at`).
		WithArgs("cr1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	cron := &models.Cron{ID: "cr1", CompanyID: "c1", Name: "watch", Keywords: "go", IsActive: true}
	err := exec.Run(context.Background(), cron)

	require.NoError(t, err, "zero results is a valid outcome")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecutor_Run_SearchFailureLeavesStatsUntouched(t *testing.T) {
	fake := &fakeSearcher{err: search.ErrUpstream}
	exec, mock := newTestExecutor(t, fake)

	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(companyRow())

	cron := &models.Cron{ID: "cr1", CompanyID: "c1", Name: "watch", Keywords: "go", IsActive: true}
	err := exec.Run(context.Background(), cron)

	require.Error(t, err)
	assert.True(t, errors.Is(err, search.ErrUpstream))
	assert.NoError(t, mock.ExpectationsWereMet(), "neither results nor run stats are written")
}

func TestExecutor_Run_UnknownCompanyFails(t *testing.T) {
	fake := &fakeSearcher{}
	exec, mock := newTestExecutor(t, fake)

	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	cron := &models.Cron{ID: "cr1", CompanyID: "gone", Name: "watch", Keywords: "go", IsActive: true}
	err := exec.Run(context.Background(), cron)

	require.Error(t, err)
	assert.True(t, errors.Is(err, repo.ErrNotFound))
	assert.Empty(t, fake.queries, "no search when the owner cannot be resolved")
}

func TestExecutor_RunOne_NotFound(t *testing.T) {
	exec, mock := newTestExecutor(t, &fakeSearcher{})

	mock.ExpectQuery(`SELECT .+ FROM crons WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	err := exec.RunOne(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, repo.ErrNotFound))
}

func TestExecutor_RunOne_Inactive(t *testing.T) {
	exec, mock := newTestExecutor(t, &fakeSearcher{})

	mock.ExpectQuery(`SELECT .+ FROM crons WHERE id = \$1`).
		WithArgs("cr1").
		WillReturnRows(cronRow("cr1", "go", false))

	err := exec.RunOne(context.Background(), "cr1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInactive))
}

func TestExecutor_RunDue_IsolatesFailures(t *testing.T) {
	fake := &fakeSearcher{err: search.ErrUpstream}
	exec, mock := newTestExecutor(t, fake)

	rows := cronRow("cr1", "go", true)
	now := time.Now()
	rows.AddRow("cr2", "c1", "watch2", "", "{}", "rust", "daily", true, nil, 0, now, now)

	mock.ExpectQuery(`WHERE is_active AND frequency = \$1`).
		WithArgs("daily").
		WillReturnRows(rows)
	// Both crons resolve their company and attempt the search; both fail, the
	// batch itself still succeeds.
	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(companyRow())
	mock.ExpectQuery(`SELECT .+ FROM companies WHERE id = \$1`).
		WithArgs("c1").
		WillReturnRows(companyRow())

	err := exec.RunDue(context.Background(), models.FrequencyDaily)
	require.NoError(t, err)
	assert.Len(t, fake.queries, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crucial707/market-supervisor/internal/models"
)

func cronRows(id, name, frequency string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "company_id", "name", "description", "tags", "keywords",
		"frequency", "is_active", "last_run_at", "search_count", "created_at", "updated_at",
	}).AddRow(id, "c1", name, "", "{}", "go,cloud", frequency, true, nil, 0, now, now)
}

func TestCronRepo_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("c1", "tech watch").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery(`INSERT INTO crons`).
		WillReturnRows(cronRows("cr1", "tech watch", "daily"))

	repo := NewCronRepo(db)
	cron, err := repo.Create(context.Background(), &models.Cron{
		CompanyID: "c1", Name: "tech watch", Keywords: "go,cloud", IsActive: true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if cron.ID != "cr1" || cron.Frequency != models.FrequencyDaily {
		t.Errorf("unexpected cron: %+v", cron)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCronRepo_Create_DuplicateName(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("c1", "tech watch").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	repo := NewCronRepo(db)
	_, err = repo.Create(context.Background(), &models.Cron{CompanyID: "c1", Name: "tech watch"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCronRepo_FindDue(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`WHERE is_active AND frequency = \$1`).
		WithArgs("weekly").
		WillReturnRows(cronRows("cr1", "tech watch", "weekly"))

	repo := NewCronRepo(db)
	crons, err := repo.FindDue(context.Background(), models.FrequencyWeekly)
	if err != nil {
		t.Fatalf("FindDue: %v", err)
	}
	if len(crons) != 1 || crons[0].Frequency != models.FrequencyWeekly {
		t.Errorf("unexpected crons: %+v", crons)
	}
}

func TestCronRepo_RecordRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE crons SET last_run_at = now\(\), search_count = search_count \+ 1`).
		WithArgs("cr1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewCronRepo(db)
	if err := repo.RecordRun(context.Background(), "cr1"); err != nil {
		t.Fatalf("RecordRun: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestCronRepo_RecordRun_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectExec(`UPDATE crons SET last_run_at`).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewCronRepo(db)
	if err := repo.RecordRun(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCronRepo_Update_RenameConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT .+ FROM crons WHERE id = \$1`).
		WithArgs("cr1").
		WillReturnRows(cronRows("cr1", "tech watch", "daily"))
	mock.ExpectQuery(`SELECT EXISTS`).
		WithArgs("c1", "other name", "cr1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	newName := "other name"
	repo := NewCronRepo(db)
	_, err = repo.Update(context.Background(), "cr1", &newName, nil, nil, nil, nil, nil)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

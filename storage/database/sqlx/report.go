package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/report"
)

type reportRow struct {
	ID           string    `db:"id"`
	StudentUID   string    `db:"student_uid"`
	StudentName  string    `db:"student_name"`
	StudentCPF   string    `db:"student_cpf"`
	StudentGrade string    `db:"student_grade"`
	GradesData   []byte    `db:"grades_data"`
	CreatedAt    time.Time `db:"created_at"`
	ExpiresAt    time.Time `db:"expires_at"`
}

func (r reportRow) snapshot() (report.Snapshot, error) {
	var grades []grade.Record
	if err := json.Unmarshal(r.GradesData, &grades); err != nil {
		return report.Snapshot{}, errors.Wrap(err, "decoding grades_data")
	}
	return report.Snapshot{
		ID:           r.ID,
		StudentUID:   r.StudentUID,
		StudentName:  r.StudentName,
		StudentCPF:   r.StudentCPF,
		StudentGrade: r.StudentGrade,
		GradesData:   grades,
		CreatedAt:    r.CreatedAt.UTC(),
		ExpiresAt:    r.ExpiresAt.UTC(),
	}, nil
}

type reportRepository struct {
	db *sqlx.DB
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *sql.DB) report.Repository {
	return &reportRepository{db: sqlx.NewDb(db, "postgres")}
}

func (repo *reportRepository) CreateReport(ctx context.Context, snap report.Snapshot) error {
	grades, err := json.Marshal(snap.GradesData)
	if err != nil {
		return errors.Wrap(err, "encoding grades_data")
	}
	row := reportRow{
		ID:           snap.ID,
		StudentUID:   snap.StudentUID,
		StudentName:  snap.StudentName,
		StudentCPF:   snap.StudentCPF,
		StudentGrade: snap.StudentGrade,
		GradesData:   grades,
		CreatedAt:    snap.CreatedAt,
		ExpiresAt:    snap.ExpiresAt,
	}
	q := `INSERT INTO grade_reports
		(id, student_uid, student_name, student_cpf, student_grade, grades_data, created_at, expires_at)
		VALUES (:id, :student_uid, :student_name, :student_cpf, :student_grade, :grades_data, :created_at, :expires_at)`
	if _, err = repo.db.NamedExecContext(ctx, q, row); err != nil {
		return errors.Wrap(err, "inserting grade report")
	}
	return nil
}

func (repo *reportRepository) GetReport(ctx context.Context, id string) (report.Snapshot, error) {
	var row reportRow
	q := `SELECT id, student_uid, student_name, student_cpf, student_grade, grades_data, created_at, expires_at
		FROM grade_reports WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return report.Snapshot{}, report.ErrNotFound
		}
		return report.Snapshot{}, errors.Wrap(err, "selecting grade report")
	}
	return row.snapshot()
}

func (repo *reportRepository) DeleteExpiredReports(ctx context.Context, now time.Time) (int, error) {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM grade_reports WHERE expires_at < $1`, now)
	if err != nil {
		return 0, errors.Wrap(err, "deleting expired grade reports")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.Wrap(err, "counting deleted grade reports")
	}
	return int(n), nil
}

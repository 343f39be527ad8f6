package inmemdb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/report"
	"github.com/edutok/edutok/core/user"
	"github.com/edutok/edutok/tests"
)

func TestReportRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewReportRepository(Open())

	now := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	snap := report.Snapshot{
		ID:         "4f1c2b3a-5d6e-4f70-8192-a3b4c5d6e7f8",
		StudentUID: "uid-ana",
		GradesData: testutil.Grades(),
		CreatedAt:  now,
		ExpiresAt:  now.Add(report.DefaultValidity),
	}
	require.NoError(t, repo.CreateReport(ctx, snap))
	assert.Error(t, repo.CreateReport(ctx, snap), "snapshots are written once")

	got, err := repo.GetReport(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	// stored grades are not shared with callers
	got.GradesData[0].Grade = 0
	again, err := repo.GetReport(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap.GradesData, again.GradesData)

	_, err = repo.GetReport(ctx, "unknown")
	assert.Equal(t, report.ErrNotFound, err)

	n, err := repo.DeleteExpiredReports(ctx, snap.ExpiresAt)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = repo.DeleteExpiredReports(ctx, snap.ExpiresAt.Add(time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, err = repo.GetReport(ctx, snap.ID)
	assert.Equal(t, report.ErrNotFound, err)
}

func TestProfileAndGradeRepositories(t *testing.T) {
	ctx := context.Background()
	db := Open()

	profiles := NewProfileRepository(db)
	prof := user.Profile{UID: "uid-ana", Name: "Ana Souza", Turma: "3A"}
	profiles.SaveProfile(prof)

	got, err := profiles.GetProfile(ctx, prof.UID)
	require.NoError(t, err)
	assert.Equal(t, prof, got)
	_, err = profiles.GetProfile(ctx, "uid-nobody")
	assert.Equal(t, user.ErrNotFound, err)

	grades := NewGradeRepository(db)
	grades.AddGrades(prof.UID, testutil.Grades()...)
	grades.AddGrades(prof.UID, grade.Record{Subject: "Física", Bimester: 1, Grade: 20, Date: 300})

	records, err := grades.GradesForStudent(ctx, prof.UID)
	require.NoError(t, err)
	assert.Len(t, records, 4)

	records, err = grades.GradesForStudent(ctx, "uid-nobody")
	require.NoError(t, err)
	assert.Empty(t, records)
}

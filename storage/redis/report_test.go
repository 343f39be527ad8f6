package redisdb

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutok/edutok/core/report"
	"github.com/edutok/edutok/tests"
)

func newTestRepo(t *testing.T) (*miniredis.Miniredis, report.Repository) {
	mr := miniredis.RunT(t)
	rdb := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewReportRepository(rdb)
}

func newSnapshot(id string, createdAt time.Time) report.Snapshot {
	return report.Snapshot{
		ID:           id,
		StudentUID:   "uid-ana",
		StudentName:  "Ana Souza",
		StudentCPF:   "123.456.789-00",
		StudentGrade: "3A",
		GradesData:   testutil.Grades(),
		CreatedAt:    createdAt,
		ExpiresAt:    createdAt.Add(report.DefaultValidity),
	}
}

func TestReportRepository(t *testing.T) {
	ctx := context.Background()
	mr, repo := newTestRepo(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	snap := newSnapshot("4f1c2b3a-5d6e-4f70-8192-a3b4c5d6e7f8", now)
	require.NoError(t, repo.CreateReport(ctx, snap))
	assert.Error(t, repo.CreateReport(ctx, snap), "snapshots are written once")

	ttl := mr.TTL(reportPrefix + snap.ID)
	assert.Greater(t, ttl, report.DefaultValidity-time.Minute)
	assert.LessOrEqual(t, ttl, report.DefaultValidity+time.Second)

	got, err := repo.GetReport(ctx, snap.ID)
	require.NoError(t, err)
	assert.Equal(t, snap, got)

	_, err = repo.GetReport(ctx, "unknown")
	assert.Equal(t, report.ErrNotFound, err)

	// evicted by redis once the TTL elapses
	mr.FastForward(report.DefaultValidity + 2*time.Second)
	_, err = repo.GetReport(ctx, snap.ID)
	assert.Equal(t, report.ErrNotFound, err)
}

func TestReportRepository_DeleteExpiredReports(t *testing.T) {
	ctx := context.Background()
	mr, repo := newTestRepo(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	expired := newSnapshot("00000000-0000-4000-8000-000000000001", now.Add(-report.DefaultValidity-time.Hour))
	valid := newSnapshot("00000000-0000-4000-8000-000000000002", now)
	require.NoError(t, repo.CreateReport(ctx, expired))
	require.NoError(t, repo.CreateReport(ctx, valid))
	require.NoError(t, mr.Set(reportPrefix+"garbage", "{not json"))

	n, err := repo.DeleteExpiredReports(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.False(t, mr.Exists(reportPrefix+expired.ID))
	assert.False(t, mr.Exists(reportPrefix+"garbage"))
	assert.True(t, mr.Exists(reportPrefix+valid.ID))
}

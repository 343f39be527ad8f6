package inmemdb

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/report"
)

type reportRepository struct {
	db *reportTable
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(db *DB) report.Repository {
	return &reportRepository{db: db.report}
}

func (repo *reportRepository) CreateReport(_ context.Context, snap report.Snapshot) error {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	if _, ok := repo.db.table[snap.ID]; ok {
		return errors.Errorf("report %s already exists", snap.ID)
	}
	snap.GradesData = append([]grade.Record{}, snap.GradesData...)
	repo.db.table[snap.ID] = snap
	return nil
}

func (repo *reportRepository) GetReport(_ context.Context, id string) (report.Snapshot, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()

	snap, ok := repo.db.table[id]
	if !ok {
		return report.Snapshot{}, report.ErrNotFound
	}
	snap.GradesData = append([]grade.Record{}, snap.GradesData...)
	return snap, nil
}

func (repo *reportRepository) DeleteExpiredReports(_ context.Context, now time.Time) (int, error) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()

	var n int
	for id, snap := range repo.db.table {
		if snap.Expired(now) {
			delete(repo.db.table, id)
			n++
		}
	}
	return n, nil
}

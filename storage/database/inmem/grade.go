package inmemdb

import (
	"context"

	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/report"
)

type gradeRepository struct {
	db *gradeTable
}

var _ report.GradeSource = (*gradeRepository)(nil)

func NewGradeRepository(db *DB) *gradeRepository {
	return &gradeRepository{db: db.grade}
}

func (repo *gradeRepository) AddGrades(uid string, records ...grade.Record) {
	repo.db.mutex.Lock()
	defer repo.db.mutex.Unlock()
	repo.db.table[uid] = append(repo.db.table[uid], records...)
}

func (repo *gradeRepository) GradesForStudent(_ context.Context, uid string) ([]grade.Record, error) {
	repo.db.mutex.RLock()
	defer repo.db.mutex.RUnlock()
	return append([]grade.Record{}, repo.db.table[uid]...), nil
}

package inmemdb

import (
	"sync"

	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/report"
	"github.com/edutok/edutok/core/user"
)

type (
	DB struct {
		report  *reportTable
		profile *profileTable
		grade   *gradeTable
	}

	reportTable struct {
		table map[string]report.Snapshot
		mutex sync.RWMutex
	}

	profileTable struct {
		table map[string]user.Profile
		mutex sync.RWMutex
	}

	gradeTable struct {
		table map[string][]grade.Record // {studentUid: records}
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		report:  &reportTable{table: make(map[string]report.Snapshot)},
		profile: &profileTable{table: make(map[string]user.Profile)},
		grade:   &gradeTable{table: make(map[string][]grade.Record)},
	}
}

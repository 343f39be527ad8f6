package report

import (
	"encoding/json"
	"time"

	"github.com/edutok/edutok/core/grade"
)

// Snapshot is an immutable copy of a student's grades, shareable until ExpiresAt.
// Timestamps have millisecond precision and are serialised as unix milliseconds.
type Snapshot struct {
	ID           string
	StudentUID   string
	StudentName  string
	StudentCPF   string
	StudentGrade string // turma
	GradesData   []grade.Record
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

type snapshotJSON struct {
	ID           string         `json:"reportId"`
	StudentUID   string         `json:"studentUid"`
	StudentName  string         `json:"studentName"`
	StudentCPF   string         `json:"studentCpf"`
	StudentGrade string         `json:"studentGrade"`
	GradesData   []grade.Record `json:"gradesData"`
	CreatedAt    int64          `json:"createdAt"`
	ExpiresAt    int64          `json:"expiresAt"`
}

func (s Snapshot) MarshalJSON() ([]byte, error) {
	grades := s.GradesData
	if grades == nil {
		grades = []grade.Record{}
	}
	return json.Marshal(snapshotJSON{
		ID:           s.ID,
		StudentUID:   s.StudentUID,
		StudentName:  s.StudentName,
		StudentCPF:   s.StudentCPF,
		StudentGrade: s.StudentGrade,
		GradesData:   grades,
		CreatedAt:    s.CreatedAt.UnixMilli(),
		ExpiresAt:    s.ExpiresAt.UnixMilli(),
	})
}

func (s *Snapshot) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var sj snapshotJSON
	if err := json.Unmarshal(data, &sj); err != nil {
		return err
	}
	*s = Snapshot{
		ID:           sj.ID,
		StudentUID:   sj.StudentUID,
		StudentName:  sj.StudentName,
		StudentCPF:   sj.StudentCPF,
		StudentGrade: sj.StudentGrade,
		GradesData:   sj.GradesData,
		CreatedAt:    time.UnixMilli(sj.CreatedAt).UTC(),
		ExpiresAt:    time.UnixMilli(sj.ExpiresAt).UTC(),
	}
	return nil
}

// Expired reports whether the snapshot is no longer servable at `now`.
// A snapshot is still served at exactly ExpiresAt.
func (s Snapshot) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// NewReport is the payload of a report creation request.
type NewReport struct {
	GradesData []grade.Record `json:"gradesData" validate:"required,dive"`
}

package grade

// Grading scale & bimesters
const (
	MinGrade    = 0.0
	MaxGrade    = 25.0
	MinBimester = 1
	MaxBimester = 4

	ApprovedThreshold = 15.0
	RecoveryThreshold = 12.5
)

// Status is the pass/fail classification of a subject average.
type Status string

const (
	StatusApproved Status = "Aprovado"
	StatusRecovery Status = "Recuperação"
	StatusFailed   Status = "Reprovado"
)

// Record is one evaluation entry of a student.
type Record struct {
	Subject  string  `json:"subject" validate:"required,notblank"`
	Bimester int     `json:"bimester" validate:"min=1,max=4"`
	Grade    float64 `json:"grade" validate:"min=0,max=25"`
	Date     int64   `json:"date"` // unix ms; only used to pick the latest entry
}

// Qualifies reports whether the record counts towards averages.
func (r Record) Qualifies() bool {
	return r.Bimester >= MinBimester && r.Bimester <= MaxBimester
}

// Classify returns the band `avg` falls into.
func Classify(avg float64) Status {
	switch {
	case avg >= ApprovedThreshold:
		return StatusApproved
	case avg >= RecoveryThreshold:
		return StatusRecovery
	default:
		return StatusFailed
	}
}

package grade

type (
	// SubjectSummary holds the latest bimester grades of one subject and their average.
	// Status is empty when the subject has no qualifying grade.
	SubjectSummary struct {
		Subject string          `json:"subject"`
		Grades  map[int]float64 `json:"grades"` // {bimester: grade}
		Average float64         `json:"average"`
		Status  Status          `json:"status,omitempty"`
	}

	Summary struct {
		Subjects       []SubjectSummary `json:"subjects"`
		OverallAverage float64          `json:"overallAverage"`
		Approved       int              `json:"approved"`
		Recovery       int              `json:"recovery"`
		Failed         int              `json:"failed"`
		TotalSubjects  int              `json:"totalSubjects"` // subjects with at least one qualifying grade
	}
)

// Graded reports whether the subject counts towards the overall average and tallies.
func (ss SubjectSummary) Graded() bool {
	return len(ss.Grades) > 0
}

// Latest de-duplicates the qualifying records by (subject, bimester).
// The record with the greatest Date wins; on equal dates the later one in `records` wins.
func Latest(records []Record) map[string]map[int]Record {
	latest := make(map[string]map[int]Record)
	for _, rec := range records {
		if !rec.Qualifies() {
			continue
		}
		byBim, ok := latest[rec.Subject]
		if !ok {
			byBim = make(map[int]Record)
			latest[rec.Subject] = byBim
		}
		if cur, ok := byBim[rec.Bimester]; ok && cur.Date > rec.Date {
			continue
		}
		byBim[rec.Bimester] = rec
	}
	return latest
}

// Aggregate builds the Summary of `records`.
// Subjects are listed in order of first appearance.
func Aggregate(records []Record) Summary {
	latest := Latest(records)

	summary := Summary{Subjects: make([]SubjectSummary, 0, len(latest))}
	seen := make(map[string]bool, len(latest))
	var sumOfAvgs float64

	for _, rec := range records {
		if seen[rec.Subject] {
			continue
		}
		seen[rec.Subject] = true

		ss := SubjectSummary{Subject: rec.Subject, Grades: make(map[int]float64, MaxBimester)}
		var sum float64
		byBim := latest[rec.Subject]
		// bimester order keeps the float sum deterministic
		for bim := MinBimester; bim <= MaxBimester; bim++ {
			r, ok := byBim[bim]
			if !ok {
				continue
			}
			ss.Grades[bim] = r.Grade
			sum += r.Grade
		}

		if ss.Graded() {
			ss.Average = sum / float64(len(ss.Grades))
			ss.Status = Classify(ss.Average)
			sumOfAvgs += ss.Average
			summary.TotalSubjects++

			switch ss.Status {
			case StatusApproved:
				summary.Approved++
			case StatusRecovery:
				summary.Recovery++
			default:
				summary.Failed++
			}
		}
		summary.Subjects = append(summary.Subjects, ss)
	}

	if summary.TotalSubjects > 0 {
		summary.OverallAverage = sumOfAvgs / float64(summary.TotalSubjects)
	}
	return summary
}

package firebasesvc

import (
	"context"
	"sort"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/db"
	"github.com/pkg/errors"

	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/report"
	"github.com/edutok/edutok/core/user"
)

// Realtime Database paths
const (
	reportsPath  = "gradeReports"
	profilesPath = "users"
	gradesPath   = "grades" // indexed on studentId
)

// NewDatabase returns the Realtime Database client of `app`.
func NewDatabase(ctx context.Context, app *firebase.App) (*db.Client, error) {
	client, err := app.Database(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "initializing firebase database")
	}
	return client, nil
}

// reportRepository stores snapshots under gradeReports/{reportId}.
// Expiry queries need ".indexOn": "expiresAt" on gradeReports.
type reportRepository struct {
	client *db.Client
}

var _ report.Repository = (*reportRepository)(nil)

func NewReportRepository(client *db.Client) report.Repository {
	return &reportRepository{client: client}
}

func (repo *reportRepository) CreateReport(ctx context.Context, snap report.Snapshot) error {
	if err := repo.client.NewRef(reportsPath).Child(snap.ID).Set(ctx, snap); err != nil {
		return errors.Wrap(err, "writing report")
	}
	return nil
}

func (repo *reportRepository) GetReport(ctx context.Context, id string) (report.Snapshot, error) {
	var snap report.Snapshot
	if err := repo.client.NewRef(reportsPath).Child(id).Get(ctx, &snap); err != nil {
		return report.Snapshot{}, errors.Wrap(err, "reading report")
	}
	if snap.ID == "" { // null node
		return report.Snapshot{}, report.ErrNotFound
	}
	return snap, nil
}

func (repo *reportRepository) DeleteExpiredReports(ctx context.Context, now time.Time) (int, error) {
	ref := repo.client.NewRef(reportsPath)

	var expired map[string]report.Snapshot
	// EndAt is inclusive, reports expiring exactly at `now` are filtered out below.
	if err := ref.OrderByChild("expiresAt").EndAt(now.UnixMilli()).Get(ctx, &expired); err != nil {
		return 0, errors.Wrap(err, "querying expired reports")
	}

	updates := make(map[string]interface{}, len(expired))
	for id, snap := range expired {
		if snap.Expired(now) {
			updates[id] = nil
		}
	}
	if len(updates) == 0 {
		return 0, nil
	}
	if err := ref.Update(ctx, updates); err != nil {
		return 0, errors.Wrap(err, "deleting expired reports")
	}
	return len(updates), nil
}

type profileDoc struct {
	Name  string `json:"name"`
	CPF   string `json:"cpf"`
	Turma string `json:"turma"`
	Email string `json:"email"`
}

func (d *profileDoc) profile(uid string) user.Profile {
	return user.Profile{UID: uid, Name: d.Name, CPF: d.CPF, Turma: d.Turma, Email: d.Email}
}

// profileRepository reads student profiles from users/{uid}.
type profileRepository struct {
	client *db.Client
}

var _ user.Repository = (*profileRepository)(nil)

func NewProfileRepository(client *db.Client) user.Repository {
	return &profileRepository{client: client}
}

func (repo *profileRepository) GetProfile(ctx context.Context, uid string) (user.Profile, error) {
	var doc *profileDoc
	if err := repo.client.NewRef(profilesPath).Child(uid).Get(ctx, &doc); err != nil {
		return user.Profile{}, errors.Wrap(err, "reading profile")
	}
	if doc == nil {
		return user.Profile{}, user.ErrNotFound
	}
	return doc.profile(uid), nil
}

type gradeDoc struct {
	StudentID string  `json:"studentId"`
	Subject   string  `json:"subject"`
	Bimester  int     `json:"bimester"`
	Grade     float64 `json:"grade"`
	Date      int64   `json:"date"`
}

// gradeRecords converts grade nodes to records, ordered by key (push keys sort chronologically).
func gradeRecords(docs map[string]gradeDoc) []grade.Record {
	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]grade.Record, 0, len(docs))
	for _, k := range keys {
		d := docs[k]
		records = append(records, grade.Record{Subject: d.Subject, Bimester: d.Bimester, Grade: d.Grade, Date: d.Date})
	}
	return records
}

// gradeRepository is the authoritative grade store: grades/{pushKey} nodes.
type gradeRepository struct {
	client *db.Client
}

var _ report.GradeSource = (*gradeRepository)(nil)

func NewGradeRepository(client *db.Client) report.GradeSource {
	return &gradeRepository{client: client}
}

func (repo *gradeRepository) GradesForStudent(ctx context.Context, uid string) ([]grade.Record, error) {
	var docs map[string]gradeDoc
	if err := repo.client.NewRef(gradesPath).OrderByChild("studentId").EqualTo(uid).Get(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return gradeRecords(docs), nil
}

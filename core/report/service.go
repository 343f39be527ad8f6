package report

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/edutok/edutok/core"
	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/user"
)

const (
	// DefaultValidity is how long an issued report stays servable.
	DefaultValidity = 15 * 24 * time.Hour

	// MaxGradeRecords caps the grade history a client may snapshot in one report.
	MaxGradeRecords = 500
)

var (
	NowFunc = time.Now // mockable

	// errors
	ErrNotFound = errors.New("report not found")
)

type (
	// Repository is the Report Store.
	Repository interface {
		// CreateReport persists a new snapshot. It is written once and never updated.
		CreateReport(ctx context.Context, snap Snapshot) error
		// GetReport returns ErrNotFound when no snapshot is stored under `id`.
		GetReport(ctx context.Context, id string) (Snapshot, error)
		// DeleteExpiredReports deletes the snapshots which expired before `now`.
		DeleteExpiredReports(ctx context.Context, now time.Time) (int, error)
	}

	// GradeSource is the authoritative grade store.
	GradeSource interface {
		GradesForStudent(ctx context.Context, uid string) ([]grade.Record, error)
	}

	Service interface {
		// Create issues a report for the authenticated `prof`.
		Create(ctx context.Context, prof user.Profile, gradesData []grade.Record) (Snapshot, error)
		// Get returns a non-expired report; unknown and expired ids both give ErrNotFound.
		Get(ctx context.Context, id string) (Snapshot, error)
		Summarize(snap Snapshot) grade.Summary
		// PurgeExpired deletes expired reports from the store.
		PurgeExpired(ctx context.Context) (int, error)
		ShareURL(id string) string
	}

	Option func(*service)

	service struct {
		repo     Repository
		grades   GradeSource // when set, client grades are ignored
		mailSvc  core.EmailService
		logger   core.Logger
		appName  string
		baseURL  string
		validity time.Duration
	}
)

// WithGradeSource makes the service snapshot the grades of `src` instead of the client payload.
func WithGradeSource(src GradeSource) Option {
	return func(svc *service) {
		svc.grades = src
	}
}

// WithValidity overrides DefaultValidity.
func WithValidity(d time.Duration) Option {
	return func(svc *service) {
		if d > 0 {
			svc.validity = d
		}
	}
}

// WithNotifications emails the share link to students on issuance.
func WithNotifications(mailSvc core.EmailService) Option {
	return func(svc *service) {
		svc.mailSvc = mailSvc
	}
}

func NewService(repo Repository, logger core.Logger, conf *core.Config, opts ...Option) Service {
	svc := &service{
		repo:     repo,
		logger:   logger,
		appName:  conf.AppName,
		baseURL:  conf.Server.PublicBaseURL,
		validity: DefaultValidity,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (svc *service) now() time.Time {
	return NowFunc().UTC().Truncate(time.Millisecond)
}

func (svc *service) Create(ctx context.Context, prof user.Profile, gradesData []grade.Record) (Snapshot, error) {
	if prof.UID == "" {
		return Snapshot{}, user.ErrUnauthorized
	}

	if svc.grades != nil {
		var err error
		if gradesData, err = svc.grades.GradesForStudent(ctx, prof.UID); err != nil {
			return Snapshot{}, errors.Wrap(err, "getting student grades")
		}
	} else if len(gradesData) > MaxGradeRecords {
		return Snapshot{}, core.NewValidationError(core.FieldError{
			Field: "gradesData",
			Error: fmt.Sprintf("gradesData must contain at most %d records", MaxGradeRecords),
		})
	}
	if gradesData == nil {
		gradesData = []grade.Record{}
	}

	id, err := uuid.NewRandom()
	if err != nil {
		return Snapshot{}, errors.Wrap(err, "generating report id")
	}

	now := svc.now()
	snap := Snapshot{
		ID:           id.String(),
		StudentUID:   prof.UID,
		StudentName:  prof.Name,
		StudentCPF:   prof.CPF,
		StudentGrade: prof.Turma,
		GradesData:   gradesData,
		CreatedAt:    now,
		ExpiresAt:    now.Add(svc.validity),
	}
	if err = svc.repo.CreateReport(ctx, snap); err != nil {
		return Snapshot{}, errors.Wrap(err, "creating report")
	}
	svc.logger.Debug("report issued", map[string]interface{}{"reportId": snap.ID, "studentUid": snap.StudentUID})

	if svc.mailSvc != nil && prof.Email != "" {
		svc.notify(prof, snap)
	}
	return snap, nil
}

func (svc *service) Get(ctx context.Context, id string) (Snapshot, error) {
	if !ValidID(id) {
		return Snapshot{}, ErrNotFound
	}

	snap, err := svc.repo.GetReport(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Snapshot{}, ErrNotFound
		}
		return Snapshot{}, errors.Wrap(err, "getting report")
	}
	if snap.Expired(NowFunc()) {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (svc *service) Summarize(snap Snapshot) grade.Summary {
	return grade.Aggregate(snap.GradesData)
}

func (svc *service) PurgeExpired(ctx context.Context) (int, error) {
	n, err := svc.repo.DeleteExpiredReports(ctx, svc.now())
	if err != nil {
		return n, errors.Wrap(err, "deleting expired reports")
	}
	svc.logger.Info("expired reports purged", map[string]interface{}{"count": n})
	return n, nil
}

func (svc *service) ShareURL(id string) string {
	return fmt.Sprintf("%s/report/%s", svc.baseURL, id)
}

func (svc *service) notify(prof user.Profile, snap Snapshot) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: prof.Name, Address: prof.Email}},
		Subject:      "Your grade report is ready",
		TemplateName: "report_issued",
		TemplateData: map[string]interface{}{
			"AppName":     svc.appName,
			"StudentName": prof.Name,
			"ShareURL":    svc.ShareURL(snap.ID),
			"ExpiresAt":   snap.ExpiresAt.Format("02/01/2006 15:04 MST"),
		},
	}
	svc.mailSvc.SendMessages(msg)
}

// ValidID reports whether `id` has the shape of an issued report id.
func ValidID(id string) bool {
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}

package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/report"
	"github.com/edutok/edutok/core/user"
	inmemdb "github.com/edutok/edutok/storage/database/inmem"
	"github.com/edutok/edutok/tests"
)

func TestCreateReport(t *testing.T) {
	token := testutil.MakeToken(t, ana)
	otherKeyToken, err := user.MakeToken(ana, conf.AppName, "not-the-secret", time.Hour)
	require.NoError(t, err)

	validBody := marchallObj(t, report.NewReport{GradesData: testutil.Grades()})
	withRecord := func(rec grade.Record) []byte {
		return marchallObj(t, report.NewReport{GradesData: []grade.Record{rec}})
	}
	fieldErrs := func(errs map[string]string) []byte { return marchallObj(t, errs) }

	path := "/api/grade-reports/create"
	tests := []httpTest{
		{
			name:     "no token",
			body:     validBody,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errUnauthenticated),
		},
		{
			name:     "token signed with another key",
			body:     validBody,
			token:    otherKeyToken,
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errUnauthenticated),
		},
		{
			name:     "garbage token",
			body:     validBody,
			token:    "garbage",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errUnauthenticated),
		},
		{
			name:     "missing gradesData",
			body:     []byte(`{}`),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: fieldErrs(map[string]string{"gradesData": "this field is required"}),
		},
		{
			name:     "bimester out of range",
			body:     withRecord(grade.Record{Subject: "Física", Bimester: 5, Grade: 10}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: fieldErrs(map[string]string{"gradesData[0].bimester": "bimester must be 4 or less"}),
		},
		{
			name:     "no bimester",
			body:     withRecord(grade.Record{Subject: "Física", Grade: 10}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: fieldErrs(map[string]string{"gradesData[0].bimester": "bimester must be 1 or greater"}),
		},
		{
			name:     "grade above scale",
			body:     withRecord(grade.Record{Subject: "Física", Bimester: 1, Grade: 25.5}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: fieldErrs(map[string]string{"gradesData[0].grade": "grade must be 25 or less"}),
		},
		{
			name:     "negative grade",
			body:     withRecord(grade.Record{Subject: "Física", Bimester: 1, Grade: -1}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: fieldErrs(map[string]string{"gradesData[0].grade": "grade must be 0 or greater"}),
		},
		{
			name:     "empty subject",
			body:     withRecord(grade.Record{Bimester: 1, Grade: 10}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: fieldErrs(map[string]string{"gradesData[0].subject": "this field is required"}),
		},
		{
			name:     "blank subject",
			body:     withRecord(grade.Record{Subject: "   ", Bimester: 1, Grade: 10}),
			token:    token,
			wantCode: http.StatusBadRequest,
			wantData: fieldErrs(map[string]string{"gradesData[0].subject": "this field cannot be blank"}),
		},
		{
			name:     "malformed json",
			body:     []byte(`{"gradesData": [`),
			token:    token,
			wantCode: http.StatusBadRequest,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := reportRepo.count()

			req, rec := newAuthRequest(http.MethodPost, path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantData == nil {
				assert.Equal(t, tt.wantCode, rec.Code)
			} else {
				checkCodeAndData(t, tt, rec)
			}
			assert.Equal(t, before, reportRepo.count(), "no report is persisted")
		})
	}

	t.Run("valid", func(t *testing.T) {
		before := time.Now().UTC().Truncate(time.Millisecond)
		sentBefore := len(mailSvc.Sent())

		req, rec := newAuthRequest(http.MethodPost, path, token, validBody)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var resp createReportResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		_, err := uuid.Parse(resp.ReportID)
		require.NoError(t, err)

		expiresAt := time.UnixMilli(resp.ExpiresAt)
		assert.False(t, expiresAt.Before(before.Add(report.DefaultValidity)))
		assert.False(t, expiresAt.After(time.Now().Add(report.DefaultValidity)))

		// immediately readable, grades verbatim
		snap, err := reportSvc.Get(context.Background(), resp.ReportID)
		require.NoError(t, err)
		assert.Equal(t, testutil.Grades(), snap.GradesData)
		assert.Equal(t, report.DefaultValidity, snap.ExpiresAt.Sub(snap.CreatedAt))
		assert.Equal(t, ana.UID, snap.StudentUID)
		assert.Equal(t, ana.Name, snap.StudentName)
		assert.Equal(t, ana.CPF, snap.StudentCPF)
		assert.Equal(t, ana.Turma, snap.StudentGrade)

		// share link emailed to the address from the token
		sent := mailSvc.Sent()
		require.Len(t, sent, sentBefore+1)
		assert.Contains(t, sent[len(sent)-1].TextContent, "http://edutok.test/report/"+resp.ReportID)
	})

	t.Run("too many grade records", func(t *testing.T) {
		records := make([]grade.Record, report.MaxGradeRecords+1)
		for i := range records {
			records[i] = grade.Record{Subject: "Física", Bimester: i%grade.MaxBimester + 1, Grade: 15, Date: int64(i)}
		}
		before := reportRepo.count()

		req, rec := newAuthRequest(http.MethodPost, path, token, marchallObj(t, report.NewReport{GradesData: records}))
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: fieldErrs(map[string]string{"gradesData": "gradesData must contain at most 500 records"}),
		}, rec)
		assert.Equal(t, before, reportRepo.count())
	})

	t.Run("oversized body", func(t *testing.T) {
		body := append(append([]byte(`{"gradesData": [`), bytes.Repeat([]byte(" "), 1<<20)...), []byte(`]}`)...)
		before := reportRepo.count()

		req, rec := newAuthRequest(http.MethodPost, path, token, body)
		app.ServeHTTP(rec, req)

		checkCodeAndData(t, httpTest{
			wantCode: http.StatusRequestEntityTooLarge,
			wantData: marchallObj(t, httpErr{Error: http.StatusText(http.StatusRequestEntityTooLarge)}),
		}, rec)
		assert.Equal(t, before, reportRepo.count())

		// identity is checked first
		req, rec = newRequest(http.MethodPost, path, body)
		app.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unauthenticated create leaves nothing behind", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, path, validBody)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)

		req, rec = newRequest(http.MethodGet, "/api/grade-reports/"+uuid.NewString())
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, errReportNotFound)}, rec)
	})
}

func TestCreateReport_ServerDerivedGrades(t *testing.T) {
	stored := []grade.Record{{Subject: "Física", Bimester: 2, Grade: 20, Date: 10}}
	src := gradeSourceFunc(func(_ context.Context, uid string) ([]grade.Record, error) {
		return stored, nil
	})

	conf.Reports.TrustClientGrades = false
	defer func() { conf.Reports.TrustClientGrades = true }()
	srv, svc := newTestServer(inmemdb.NewReportRepository(inmemdb.Open()), report.WithGradeSource(src))

	// the payload is ignored, even when invalid
	body := marchallObj(t, report.NewReport{GradesData: []grade.Record{{Subject: "Física", Bimester: 9, Grade: 99}}})
	req, rec := newAuthRequest(http.MethodPost, "/api/grade-reports/create", testutil.MakeToken(t, ana), body)
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp createReportResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	snap, err := svc.Get(context.Background(), resp.ReportID)
	require.NoError(t, err)
	assert.Equal(t, stored, snap.GradesData)
}

func TestCreateReport_PersistenceFailure(t *testing.T) {
	srv, _ := newTestServer(failingReportRepo{})

	body := marchallObj(t, report.NewReport{GradesData: testutil.Grades()})
	req, rec := newAuthRequest(http.MethodPost, "/api/grade-reports/create", testutil.MakeToken(t, ana), body)
	srv.ServeHTTP(rec, req)

	checkCodeAndData(t, httpTest{
		wantCode: http.StatusInternalServerError,
		wantData: marchallObj(t, httpErr{Error: http.StatusText(http.StatusInternalServerError)}),
	}, rec)
}

func TestGetReport(t *testing.T) {
	createdAt := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	report.NowFunc = testutil.FixedClock(createdAt)
	defer func() { report.NowFunc = time.Now }()

	snap, err := reportSvc.Create(context.Background(), ana, testutil.Grades())
	require.NoError(t, err)

	wantReport := marchallObj(t, getReportResponse{Report: snap, Summary: grade.Aggregate(snap.GradesData)})
	notFound := marchallObj(t, errReportNotFound)

	tests := []struct {
		httpTest
		now time.Time
	}{
		{httpTest: httpTest{name: "fresh", path: snap.ID, wantCode: http.StatusOK, wantData: wantReport}, now: createdAt},
		{
			httpTest: httpTest{name: "1ms before expiry", path: snap.ID, wantCode: http.StatusOK, wantData: wantReport},
			now:      snap.ExpiresAt.Add(-time.Millisecond),
		},
		{
			httpTest: httpTest{name: "at expiry", path: snap.ID, wantCode: http.StatusOK, wantData: wantReport},
			now:      snap.ExpiresAt,
		},
		{
			httpTest: httpTest{name: "1ms after expiry", path: snap.ID, wantCode: http.StatusNotFound, wantData: notFound},
			now:      snap.ExpiresAt.Add(time.Millisecond),
		},
		{
			httpTest: httpTest{name: "never issued", path: uuid.NewString(), wantCode: http.StatusNotFound, wantData: notFound},
			now:      createdAt,
		},
		{
			httpTest: httpTest{name: "malformed id", path: "not-an-id", wantCode: http.StatusNotFound, wantData: notFound},
			now:      createdAt,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report.NowFunc = testutil.FixedClock(tt.now)

			req, rec := newRequest(http.MethodGet, "/api/grade-reports/"+tt.path)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt.httpTest, rec)
		})
	}

	t.Run("summary", func(t *testing.T) {
		report.NowFunc = testutil.FixedClock(createdAt)

		req, rec := newRequest(http.MethodGet, "/api/grade-reports/"+snap.ID)
		app.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Report  map[string]interface{} `json:"report"`
			Summary grade.Summary          `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, float64(snap.ExpiresAt.UnixMilli()), resp.Report["expiresAt"])
		assert.Equal(t, 11.5, resp.Summary.OverallAverage)
		assert.Equal(t, 0, resp.Summary.Approved)
		assert.Equal(t, 1, resp.Summary.Recovery)
		assert.Equal(t, 1, resp.Summary.Failed)
	})
}

func TestReportViewer(t *testing.T) {
	snap, err := reportSvc.Create(context.Background(), ana, testutil.Grades())
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/report/"+snap.ID)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
		body := rec.Body.String()
		for _, want := range []string{"Ana Souza", "123.456.789-00", "3A", "Matemática", "História", "Reprovado", "Recuperação", "11.50"} {
			assert.Contains(t, body, want)
		}
		assert.NotContains(t, body, "could not load report")
	})

	t.Run("not found", func(t *testing.T) {
		req, rec := newRequest(http.MethodGet, "/report/"+uuid.NewString())
		app.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "could not load report")
		assert.NotContains(t, rec.Body.String(), "Disciplina")
	})

	t.Run("store failure", func(t *testing.T) {
		srv, _ := newTestServer(failingReportRepo{})
		req, rec := newRequest(http.MethodGet, "/report/"+snap.ID)
		srv.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "could not load report")
		assert.NotContains(t, rec.Body.String(), "connection refused")
	})
}

func TestReportExports(t *testing.T) {
	snap, err := reportSvc.Create(context.Background(), ana, testutil.Grades())
	require.NoError(t, err)

	tests := []struct {
		name            string
		path            string
		wantCode        int
		wantContentType string
		wantPrefix      string
	}{
		{name: "qr code", path: snap.ID + "/qr.png", wantCode: http.StatusOK, wantContentType: "image/png", wantPrefix: "\x89PNG"},
		{name: "pdf", path: snap.ID + "/pdf", wantCode: http.StatusOK, wantContentType: "application/pdf", wantPrefix: "%PDF-"},
		{name: "unknown qr code", path: uuid.NewString() + "/qr.png", wantCode: http.StatusNotFound, wantContentType: "application/json"},
		{name: "unknown pdf", path: uuid.NewString() + "/pdf", wantCode: http.StatusNotFound, wantContentType: "application/json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(http.MethodGet, "/api/grade-reports/"+tt.path)
			app.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), tt.wantContentType))
			assert.True(t, strings.HasPrefix(rec.Body.String(), tt.wantPrefix))
		})
	}
}

func TestOperability(t *testing.T) {
	req, rec := newRequest(http.MethodGet, "/healthz")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK, wantData: []byte(`{"status":"ok"}`)}, rec)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	// issue one report so that counters are non-zero
	body := marchallObj(t, report.NewReport{GradesData: testutil.Grades()})
	req, rec = newAuthRequest(http.MethodPost, "/api/grade-reports/create", testutil.MakeToken(t, ana), body)
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	req, rec = newRequest(http.MethodGet, "/metrics")
	app.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "edutok_grade_reports_issued_total")
	assert.Contains(t, rec.Body.String(), `edutok_http_request_duration_seconds_count{method="POST",route="/api/grade-reports/create",status="200"}`)
}

type gradeSourceFunc func(ctx context.Context, uid string) ([]grade.Record, error)

func (f gradeSourceFunc) GradesForStudent(ctx context.Context, uid string) ([]grade.Record, error) {
	return f(ctx, uid)
}

type failingReportRepo struct{}

var errConnRefused = errors.New("connection refused")

func (failingReportRepo) CreateReport(context.Context, report.Snapshot) error { return errConnRefused }
func (failingReportRepo) GetReport(context.Context, string) (report.Snapshot, error) {
	return report.Snapshot{}, errConnRefused
}
func (failingReportRepo) DeleteExpiredReports(context.Context, time.Time) (int, error) {
	return 0, errConnRefused
}

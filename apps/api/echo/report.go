package echoapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/edutok/edutok/core"
	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/report"
	exportsvc "github.com/edutok/edutok/services/export"
)

const maxCreateBody = "1M"

var bimesters = []int{1, 2, 3, 4}

type (
	reportApiDeps struct {
		conf     *core.Config
		logger   core.Logger
		svc      report.Service
		validate *validator.Validate
		metrics  *metrics
	}

	reportApi struct {
		reportApiDeps
	}

	createReportResponse struct {
		Success   bool   `json:"success"`
		ReportID  string `json:"reportId"`
		ExpiresAt int64  `json:"expiresAt"` // unix ms
	}

	getReportResponse struct {
		Report  report.Snapshot `json:"report"`
		Summary grade.Summary   `json:"summary"`
	}

	viewerData struct {
		AppName   string
		Report    *report.Snapshot
		Summary   grade.Summary
		Bimesters []int
		ExpiresAt string
	}
)

func registerReportAPI(e *echo.Echo, auth echo.MiddlewareFunc, deps reportApiDeps) {
	api := reportApi{reportApiDeps: deps}

	rg := e.Group("/api/grade-reports")
	rg.POST("/create", api.create, auth, middleware.BodyLimit(maxCreateBody))

	// public endpoints: anyone with the link can read the report until it expires
	rg.GET("/:reportId", api.retrieve)
	rg.GET("/:reportId/qr.png", api.qrCode)
	rg.GET("/:reportId/pdf", api.pdf)

	e.GET("/report/:reportId", api.view)
}

// Handlers

func (api *reportApi) create(ctx echo.Context) error {
	prof, err := getContextProfile(ctx)
	if err != nil {
		return err
	}

	var data report.NewReport
	if err = ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReport")
	}
	if api.conf.Reports.TrustClientGrades {
		if err = api.validate.Struct(data); err != nil {
			return err
		}
	}

	snap, err := api.svc.Create(ctx.Request().Context(), prof, data.GradesData)
	if err != nil {
		api.metrics.createFailures.Inc()
		return errors.Wrap(err, "creating report")
	}
	api.metrics.reportsIssued.Inc()

	return ctx.JSON(http.StatusOK, createReportResponse{
		Success:   true,
		ReportID:  snap.ID,
		ExpiresAt: snap.ExpiresAt.UnixMilli(),
	})
}

// getReport loads a servable report, counting lookups.
func (api *reportApi) getReport(ctx echo.Context) (report.Snapshot, error) {
	snap, err := api.svc.Get(ctx.Request().Context(), ctx.Param("reportId"))
	if err != nil {
		if errors.Cause(err) == report.ErrNotFound {
			api.metrics.reportsNotFound.Inc()
			return report.Snapshot{}, report.ErrNotFound
		}
		return report.Snapshot{}, errors.Wrap(err, "getting report")
	}
	api.metrics.reportsServed.Inc()
	return snap, nil
}

func (api *reportApi) retrieve(ctx echo.Context) error {
	snap, err := api.getReport(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, getReportResponse{Report: snap, Summary: api.svc.Summarize(snap)})
}

func (api *reportApi) qrCode(ctx echo.Context) error {
	snap, err := api.getReport(ctx)
	if err != nil {
		return err
	}
	png, err := exportsvc.QRCode(api.svc.ShareURL(snap.ID))
	if err != nil {
		return err
	}
	return ctx.Blob(http.StatusOK, "image/png", png)
}

func (api *reportApi) pdf(ctx echo.Context) error {
	snap, err := api.getReport(ctx)
	if err != nil {
		return err
	}
	data, err := exportsvc.PDF(api.conf.AppName, snap, api.svc.Summarize(snap), api.svc.ShareURL(snap.ID))
	if err != nil {
		return err
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("inline; filename=%q", "boletim-"+snap.ID+".pdf"))
	return ctx.Blob(http.StatusOK, "application/pdf", data)
}

// view renders the public report page; failures render a generic error card.
func (api *reportApi) view(ctx echo.Context) error {
	ctx.Response().Header().Set("X-Robots-Tag", "noindex")
	data := viewerData{AppName: api.conf.AppName, Bimesters: bimesters}

	snap, err := api.getReport(ctx)
	switch {
	case errors.Cause(err) == report.ErrNotFound:
		return ctx.Render(http.StatusNotFound, "report.gohtml", data)
	case err != nil:
		api.logger.Error("rendering report viewer", err)
		return ctx.Render(http.StatusInternalServerError, "report.gohtml", data)
	}

	data.Report = &snap
	data.Summary = api.svc.Summarize(snap)
	data.ExpiresAt = snap.ExpiresAt.In(time.UTC).Format("02/01/2006 15:04 MST")
	return ctx.Render(http.StatusOK, "report.gohtml", data)
}

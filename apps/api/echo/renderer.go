package echoapi

import (
	"fmt"
	"html/template"
	"io"

	"github.com/labstack/echo/v4"

	"github.com/edutok/edutok/core/grade"
	appfs "github.com/edutok/edutok/fs"
)

var templateFuncs = template.FuncMap{
	"badgeClass": func(s grade.Status) string {
		switch s {
		case grade.StatusApproved:
			return "badge-approved"
		case grade.StatusRecovery:
			return "badge-recovery"
		default:
			return "badge-failed"
		}
	},
	"gradeCell": func(grades map[int]float64, bimester int) string {
		if g, ok := grades[bimester]; ok {
			return fmt.Sprintf("%.1f", g)
		}
		return "-"
	},
}

type templateRenderer struct {
	tmpl *template.Template
}

func newTemplateRenderer() *templateRenderer {
	tmpl := template.Must(
		template.New("web").Funcs(templateFuncs).ParseFS(appfs.FS, "templates/web/*.gohtml"),
	)
	return &templateRenderer{tmpl: tmpl.Option("missingkey=error")}
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}

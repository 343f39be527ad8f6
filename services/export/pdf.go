package exportsvc

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"

	"github.com/edutok/edutok/core/grade"
	"github.com/edutok/edutok/core/report"
)

var (
	brandColor   = [3]int{79, 70, 229}
	statusColors = map[grade.Status][3]int{
		grade.StatusApproved: {22, 163, 74},
		grade.StatusRecovery: {217, 119, 6},
		grade.StatusFailed:   {220, 38, 38},
	}
)

// PDF renders a branded grade report with a QR code pointing at `shareURL`.
func PDF(appName string, snap report.Snapshot, summary grade.Summary, shareURL string) ([]byte, error) {
	qr, err := QRCode(shareURL)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(appName+" - Boletim", true)
	pdf.SetCreator(appName, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("") // core fonts are cp1252
	pdf.AddPage()

	// header
	pdf.SetFillColor(brandColor[0], brandColor[1], brandColor[2])
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 20)
	pdf.SetXY(10, 9)
	pdf.CellFormat(150, 10, tr(appName+" - Boletim escolar"), "", 0, "L", false, 0, "")

	// student
	pdf.SetTextColor(31, 41, 55)
	pdf.SetXY(10, 36)
	for _, fld := range [][2]string{
		{"Aluno", snap.StudentName},
		{"CPF", snap.StudentCPF},
		{"Turma", snap.StudentGrade},
	} {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(20, 7, tr(fld[0]+":"), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(120, 7, tr(fld[1]), "", 1, "L", false, 0, "")
	}

	// qr code
	qrOpts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", qrOpts, bytes.NewReader(qr))
	pdf.ImageOptions("qr", 165, 32, 35, 35, false, qrOpts, 0, shareURL)

	// grades table
	pdf.SetY(72)
	header := []string{"Disciplina", "1º Bim", "2º Bim", "3º Bim", "4º Bim", "Média", "Situação"}
	widths := []float64{50, 20, 20, 20, 20, 22, 38}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(243, 244, 246)
	for i, h := range header {
		pdf.CellFormat(widths[i], 8, tr(h), "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	for _, ss := range summary.Subjects {
		pdf.SetTextColor(31, 41, 55)
		pdf.CellFormat(widths[0], 7, tr(ss.Subject), "1", 0, "L", false, 0, "")
		for bim := grade.MinBimester; bim <= grade.MaxBimester; bim++ {
			cell := "-"
			if g, ok := ss.Grades[bim]; ok {
				cell = fmt.Sprintf("%.1f", g)
			}
			pdf.CellFormat(widths[bim], 7, cell, "1", 0, "C", false, 0, "")
		}

		avg, status := "-", "-"
		if ss.Graded() {
			avg = fmt.Sprintf("%.2f", ss.Average)
			status = string(ss.Status)
		}
		pdf.CellFormat(widths[5], 7, avg, "1", 0, "C", false, 0, "")
		if c, ok := statusColors[ss.Status]; ok {
			pdf.SetTextColor(c[0], c[1], c[2])
		}
		pdf.CellFormat(widths[6], 7, tr(status), "1", 1, "C", false, 0, "")
	}

	// totals
	pdf.SetTextColor(31, 41, 55)
	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 7, tr(fmt.Sprintf("Média geral: %.2f", summary.OverallAverage)), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr(fmt.Sprintf(
		"Aprovado: %d   Recuperação: %d   Reprovado: %d   (%d disciplinas)",
		summary.Approved, summary.Recovery, summary.Failed, summary.TotalSubjects,
	)), "", 1, "L", false, 0, "")

	// footer
	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 9)
	pdf.SetTextColor(107, 114, 128)
	pdf.MultiCell(0, 5, tr(fmt.Sprintf(
		"Emitido em %s. Este boletim pode ser consultado em %s até %s.",
		snap.CreatedAt.UTC().Format("02/01/2006 15:04 MST"), shareURL, snap.ExpiresAt.UTC().Format(time.RFC1123),
	)), "", "L", false)

	var buf bytes.Buffer
	if err = pdf.Output(&buf); err != nil {
		return nil, errors.Wrap(err, "rendering pdf")
	}
	return buf.Bytes(), nil
}

package itinerary

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"wanderplan/models"

	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// RenderPDF lays the itinerary out as an A4 document with a QR code pointing at link.
func RenderPDF(it *models.Itinerary, link string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 18)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-12)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(120, 120, 120)
		pdf.CellFormat(0, 8, fmt.Sprintf("%s  |  page %d", tr(it.Title), pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	if link != "" {
		qr, err := qrcode.Encode(link, qrcode.Medium, 256)
		if err != nil {
			return nil, fmt.Errorf("failed to generate QR code: %w", err)
		}
		opts := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader("qr", opts, bytes.NewReader(qr))
		pdf.ImageOptions("qr", 165, 12, 30, 30, false, opts, 0, "")
	}

	pdf.SetTextColor(20, 20, 60)
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(145, 9, tr(it.Title), "", "L", false)
	pdf.Ln(2)

	pdf.SetTextColor(40, 40, 40)
	pdf.SetFont("Arial", "", 11)
	meta := []string{
		"Destination: " + it.Destination,
		fmt.Sprintf("Duration: %d days", it.TotalDays),
		"Budget: " + it.Budget,
	}
	if it.StartDate != "" {
		meta = append(meta, "Starting: "+it.StartDate)
	}
	if len(it.Interests) > 0 {
		meta = append(meta, "Interests: "+strings.Join(it.Interests, ", "))
	}
	for _, line := range meta {
		pdf.CellFormat(145, 6, tr(line), "", 1, "L", false, 0, "")
	}
	if pdf.GetY() < 46 {
		pdf.SetY(46)
	}

	start, hasStart := parseDate(it.StartDate)
	for i, day := range it.Days {
		pdf.Ln(4)
		heading := fmt.Sprintf("Day %d", i+1)
		if hasStart {
			heading += " - " + start.AddDate(0, 0, i).Format("Mon, 02 Jan 2006")
		}
		pdf.SetFillColor(230, 235, 250)
		pdf.SetFont("Arial", "B", 13)
		pdf.CellFormat(140, 8, tr(heading), "", 0, "L", true, 0, "")
		cost := ""
		if !day.EstimatedCost.IsZero() {
			cost = "Est. " + day.EstimatedCost.String()
		}
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(0, 8, tr(cost), "", 1, "R", true, 0, "")

		for _, a := range day.Activities {
			writeActivity(pdf, tr, a)
		}
		if day.Notes != "" {
			pdf.SetFont("Arial", "I", 9)
			pdf.MultiCell(0, 5, tr("Notes: "+day.Notes), "", "L", false)
		}
	}

	writeSummary(pdf, tr, it.Summary)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func writeActivity(pdf *gofpdf.Fpdf, tr func(string) string, a models.Activity) {
	pdf.Ln(1)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(25, 6, tr(a.Time), "", 0, "L", false, 0, "")
	pdf.CellFormat(130, 6, tr(a.Title), "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, tr(a.Cost.String()), "", 1, "R", false, 0, "")

	if a.Description != "" {
		pdf.SetX(40)
		pdf.MultiCell(0, 5, tr(a.Description), "", "L", false)
	}
	var extra []string
	for _, s := range []string{a.Location, a.Duration, a.Category} {
		if s != "" {
			extra = append(extra, s)
		}
	}
	if len(extra) > 0 {
		pdf.SetX(40)
		pdf.SetFont("Arial", "I", 9)
		pdf.SetTextColor(100, 100, 100)
		pdf.MultiCell(0, 5, tr(strings.Join(extra, "  |  ")), "", "L", false)
		pdf.SetTextColor(40, 40, 40)
	}
}

func writeSummary(pdf *gofpdf.Fpdf, tr func(string) string, s models.Summary) {
	if s.TotalEstimatedCost.IsZero() && len(s.Highlights) == 0 && len(s.Tips) == 0 {
		return
	}
	pdf.Ln(6)
	pdf.SetFont("Arial", "B", 13)
	pdf.CellFormat(0, 8, "Summary", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if !s.TotalEstimatedCost.IsZero() {
		pdf.CellFormat(0, 6, tr("Estimated total: "+s.TotalEstimatedCost.String()), "", 1, "L", false, 0, "")
	}
	for _, section := range []struct {
		name  string
		items []string
	}{{"Highlights", s.Highlights}, {"Tips", s.Tips}} {
		if len(section.items) == 0 {
			continue
		}
		pdf.Ln(2)
		pdf.SetFont("Arial", "B", 11)
		pdf.CellFormat(0, 6, section.name, "", 1, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		for _, item := range section.items {
			pdf.MultiCell(0, 5, tr("- "+item), "", "L", false)
		}
	}
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(dateLayout, s)
	return t, err == nil
}

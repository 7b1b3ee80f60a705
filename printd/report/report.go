// Package report renders a finalized cut as a one-page A4 PDF.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-pdf/fpdf"
	"golang.org/x/xerrors"

	"github.com/printwatch/printwatch/buildinfo"
	"github.com/printwatch/printwatch/printd/database"
)

// MaxSupplies is the number of supplies shown in the supply section.
const MaxSupplies = 4

const (
	pageWidth = 210.0
	margin    = 15.0
	bodyWidth = pageWidth - 2*margin
	dateTime  = "02/01/2006 15:04"
)

type rgb struct{ r, g, b int }

var (
	colorBrand = rgb{31, 58, 96}
	colorMuted = rgb{110, 117, 128}
	colorText  = rgb{33, 37, 41}
	colorTrack = rgb{230, 233, 237}
	colorRed   = rgb{214, 48, 49}
	colorAmber = rgb{240, 173, 0}
	colorGreen = rgb{46, 160, 67}
)

// Level buckets a supply percentage for display.
type Level string

const (
	LevelCritical Level = "critical"
	LevelWarning  Level = "warning"
	LevelOK       Level = "ok"
)

// SupplyLevel classifies pct: at most 20 is critical, at most 50 is a
// warning, anything above is fine.
func SupplyLevel(pct float64) Level {
	switch {
	case pct <= 20:
		return LevelCritical
	case pct <= 50:
		return LevelWarning
	default:
		return LevelOK
	}
}

func (l Level) color() rgb {
	switch l {
	case LevelCritical:
		return colorRed
	case LevelWarning:
		return colorAmber
	default:
		return colorGreen
	}
}

type Input struct {
	Cut         database.Cut
	Device      database.Device
	Tenant      database.Tenant
	GeneratedAt time.Time
}

// Render writes the report for in to w.
func Render(w io.Writer, in Input) error {
	pdf := document(in)
	err := pdf.Output(w)
	if err != nil {
		return xerrors.Errorf("write pdf: %w", err)
	}
	return nil
}

func document(in Input) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	title := fmt.Sprintf("Usage report: %s", in.Cut.DeviceName)

	pdf.SetTitle(title, true)
	pdf.SetAuthor(in.Tenant.Name, true)
	pdf.SetCreator("printwatch "+buildinfo.Version(), true)
	pdf.SetCreationDate(in.GeneratedAt)
	pdf.SetModificationDate(in.GeneratedAt)
	pdf.SetMargins(margin, margin, margin)
	pdf.SetAutoPageBreak(true, margin+10)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-margin - 5)
		setText(pdf, colorMuted)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(bodyWidth/2, 5, tr("Generated "+in.GeneratedAt.Format(dateTime)), "T", 0, "L", false, 0, "")
		pdf.CellFormat(bodyWidth/2, 5, tr("printwatch "+buildinfo.Version()), "T", 0, "R", false, 0, "")
	})
	pdf.AddPage()

	header(pdf, tr, in)
	identity(pdf, tr, in)
	statistics(pdf, in.Cut)
	supplies(pdf, tr, in.Cut.SuppliesEnd)
	additional(pdf, tr, in.Cut)
	return pdf
}

func header(pdf *fpdf.Fpdf, tr func(string) string, in Input) {
	setFill(pdf, colorBrand)
	pdf.Rect(0, 0, pageWidth, 32, "F")

	pdf.SetXY(margin, 8)
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(bodyWidth, 9, tr("Page counter cut"), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(bodyWidth, 7, tr("Period: "+in.Cut.PeriodLabel), "", 1, "L", false, 0, "")
	pdf.SetY(40)
}

func identity(pdf *fpdf.Fpdf, tr func(string) string, in Input) {
	serial := "-"
	if in.Device.Serial.Valid {
		serial = in.Device.Serial.String
	}
	city := in.Device.City
	if city == "" {
		city = in.Tenant.City
	}
	rows := [][2]string{
		{"Company", in.Tenant.Name},
		{"City", orDash(city)},
		{"Device", in.Cut.DeviceName},
		{"Model", orDash(in.Cut.DeviceModel)},
		{"Host", in.Device.Host},
		{"Serial", serial},
		{"Cut date", in.Cut.CreatedAt.Format(dateTime)},
	}

	section(pdf, tr, "Device")
	for _, row := range rows {
		setText(pdf, colorMuted)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(40, 6, tr(row[0]), "", 0, "L", false, 0, "")
		setText(pdf, colorText)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(bodyWidth-40, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func statistics(pdf *fpdf.Fpdf, cut database.Cut) {
	stats := []struct {
		label string
		value int64
	}{
		{"Start counter", cut.StartCounter},
		{"End counter", cut.EndCounter},
		{"Pages in period", cut.TotalPages},
	}

	const gap = 5.0
	boxWidth := (bodyWidth - gap*float64(len(stats)-1)) / float64(len(stats))
	top := pdf.GetY()
	for i, stat := range stats {
		x := margin + float64(i)*(boxWidth+gap)
		setFill(pdf, colorTrack)
		pdf.Rect(x, top, boxWidth, 24, "F")

		pdf.SetXY(x, top+3)
		setText(pdf, colorMuted)
		pdf.SetFont("Helvetica", "", 9)
		pdf.CellFormat(boxWidth, 5, stat.label, "", 0, "C", false, 0, "")

		pdf.SetXY(x, top+10)
		setText(pdf, colorBrand)
		pdf.SetFont("Helvetica", "B", 18)
		pdf.CellFormat(boxWidth, 10, humanize.Comma(stat.value), "", 0, "C", false, 0, "")
	}
	pdf.SetXY(margin, top+24+8)
}

func supplies(pdf *fpdf.Fpdf, tr func(string) string, list database.Supplies) {
	section(pdf, tr, "Supplies")
	if len(list) == 0 {
		setText(pdf, colorMuted)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(bodyWidth, 6, "No supply data reported.", "", 1, "L", false, 0, "")
		pdf.Ln(4)
		return
	}

	const (
		labelWidth = 50.0
		barWidth   = 100.0
		barHeight  = 5.0
	)
	for _, supply := range Visible(list) {
		y := pdf.GetY()
		setText(pdf, colorText)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(labelWidth, 7, tr(orDash(supply.Name)), "", 0, "L", false, 0, "")

		pct, ok := supply.Percent()
		setFill(pdf, colorTrack)
		pdf.Rect(margin+labelWidth, y+1, barWidth, barHeight, "F")
		text := "n/a"
		if ok {
			setFill(pdf, SupplyLevel(pct).color())
			pdf.Rect(margin+labelWidth, y+1, barWidth*pct/100, barHeight, "F")
			text = fmt.Sprintf("%.0f%%", pct)
		}
		pdf.SetX(margin + labelWidth + barWidth + 4)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(bodyWidth-labelWidth-barWidth-4, 7, text, "", 1, "L", false, 0, "")
	}
	pdf.Ln(4)
}

func additional(pdf *fpdf.Fpdf, tr func(string) string, cut database.Cut) {
	first := "No"
	if cut.IsFirstCut {
		first = "Yes"
	}
	rows := [][2]string{
		{"First cut", first},
		{"Supplies at period start", humanize.Comma(int64(len(cut.SuppliesStart)))},
		{"Billing month", fmt.Sprintf("%02d/%d", cut.Month, cut.Year)},
	}

	section(pdf, tr, "Additional information")
	for _, row := range rows {
		setText(pdf, colorMuted)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(60, 6, tr(row[0]), "", 0, "L", false, 0, "")
		setText(pdf, colorText)
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(bodyWidth-60, 6, tr(row[1]), "", 1, "L", false, 0, "")
	}
}

// Visible returns the supplies shown on the report, in reported order.
func Visible(list database.Supplies) database.Supplies {
	if len(list) > MaxSupplies {
		return list[:MaxSupplies]
	}
	return list
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string) {
	setText(pdf, colorBrand)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.SetDrawColor(colorBrand.r, colorBrand.g, colorBrand.b)
	pdf.CellFormat(bodyWidth, 8, tr(title), "B", 1, "L", false, 0, "")
	pdf.Ln(2)
}

func setFill(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetFillColor(c.r, c.g, c.b)
}

func setText(pdf *fpdf.Fpdf, c rgb) {
	pdf.SetTextColor(c.r, c.g, c.b)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

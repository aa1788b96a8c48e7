package pdf

import (
	"bytes"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/evergrid/contracts-service/internal/model"
)

// Generator renders a one-page printable summary of a contract for
// homeowners and field staff.
type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Generate(contract model.Contract) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Contract Summary", "", 1, "C", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, "Reference "+contract.ID.String(), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	addSection(pdf, "Engagement")
	addRow(pdf, "Workflow stage", stageLabel(contract.FormStage))
	addRow(pdf, "Project ID", deref(contract.ExternalProjectID))
	addRow(pdf, "Zip code", deref(contract.Zip))
	addRow(pdf, "City", deref(contract.City))
	addRow(pdf, "Fuel type", deref(contract.FuelType))
	pdf.Ln(2)

	addSection(pdf, "Schedule")
	addRow(pdf, "Date", formatDate(contract.Date))
	addRow(pdf, "Start time", formatTime(contract.StartAtTime))
	addRow(pdf, "End time", formatTime(contract.EndAtTime))
	addRow(pdf, "Meeting link", deref(contract.MeetingURL))
	pdf.Ln(2)

	addSection(pdf, "Documents")
	addRow(pdf, "Inspection document", deref(contract.InspectionDoc))
	addRow(pdf, "Invoice document", deref(contract.InvoiceDoc))
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.CellFormat(0, 6, "Generated "+time.Now().UTC().Format("January 02, 2006 15:04 MST"), "", 1, "L", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addSection(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, 8, title, "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
}

func addRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

func stageLabel(stage model.FormStage) string {
	switch stage {
	case model.FormStageProjectID:
		return "Project intake"
	case model.FormStageSchedule:
		return "Scheduling"
	case model.FormStageDocuments:
		return "Document upload"
	case model.FormStageClosed:
		return "Closed"
	default:
		return string(stage)
	}
}

func formatDate(date *time.Time) string {
	if date == nil {
		return "Not scheduled"
	}
	return date.Format("January 02, 2006")
}

func formatTime(timeOfDay *string) string {
	if timeOfDay == nil {
		return "-"
	}
	if parsed, err := time.Parse("15:04:05", *timeOfDay); err == nil {
		return parsed.Format("3:04 PM")
	}
	return *timeOfDay
}

func deref(value *string) string {
	if value == nil || *value == "" {
		return "-"
	}
	return *value
}

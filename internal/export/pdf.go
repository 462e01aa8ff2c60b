package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"
)

// PDFExporter exports transcripts to PDF format.
type PDFExporter struct{}

// Export writes the transcript as PDF.
func (e *PDFExporter) Export(t *Transcript, w io.Writer) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)

	pdf.AddPage()

	// Title
	pdf.SetFont("Arial", "B", 18)
	pdf.MultiCell(0, 10, t.Topic, "", "C", false)
	pdf.Ln(5)

	// Metadata section
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Debate Information")
	pdf.Ln(8)

	pdf.SetFont("Arial", "", 10)
	e.addMetadataRow(pdf, "Debate:", fmt.Sprintf("%d", t.DebateID))
	e.addMetadataRow(pdf, "Room:", t.RoomID)
	e.addMetadataRow(pdf, "Messages:", fmt.Sprintf("%d", len(t.Messages)))
	pdf.Ln(5)

	// Transcript
	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, "Transcript")
	pdf.Ln(8)

	if len(t.Messages) == 0 {
		pdf.SetFont("Arial", "I", 10)
		pdf.Cell(0, 6, "No messages recorded.")
		pdf.Ln(6)
	} else {
		for _, msg := range t.Messages {
			if pdf.GetY() > 250 {
				pdf.AddPage()
			}

			if msg.IsSystem() {
				pdf.SetFillColor(235, 235, 235)
			} else {
				pdf.SetFillColor(210, 230, 255)
			}
			pdf.SetFont("Arial", "B", 10)
			header := fmt.Sprintf("%s  (%s)", senderLabel(msg), msg.CreatedAt.Format("Jan 2 15:04:05"))
			pdf.CellFormat(0, 7, header, "", 1, "L", true, 0, "")

			pdf.SetFont("Arial", "", 10)
			pdf.MultiCell(0, 5, msg.Content, "", "L", false)
			pdf.Ln(3)
		}
	}

	return pdf.Output(w)
}

func (e *PDFExporter) addMetadataRow(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, label, "", 0, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, value, "", 1, "L", false, 0, "")
}

// FileExtension returns the file extension for PDF.
func (e *PDFExporter) FileExtension() string {
	return "pdf"
}

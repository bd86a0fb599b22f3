package export

import (
	"bytes"
	"fmt"
	"io"
	"regexp"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/capilarmax/clinic-api/internal/model"
)

const (
	leftMargin   = 20.0
	checkIndent  = 25.0
	rightColumn  = 120.0
	lineHeight   = 7.0
	sigWidth     = 50.0
	sigHeight    = 20.0
	dateLayout   = "1/2/2006"
	fontFamily   = "Helvetica"
	notAvailable = "N/A"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Filename is the download name of a consent export created at t.
func Filename(patientName string, t time.Time) string {
	return fmt.Sprintf("Consent_%s_%d.pdf", whitespaceRun.ReplaceAllString(patientName, "_"), t.UnixMilli())
}

// ConsentPDF renders a completed consent record as a single A4 page. It
// only reads the record.
func ConsentPDF(w io.Writer, patientName string, rec *model.ConsentRecord) error {
	if rec == nil {
		return fmt.Errorf("no consent record")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Consent & Agreement Form", true)
	pdf.SetCreator("clinic-api", true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()
	pageWidth, _ := pdf.GetPageSize()

	centered := func(text string, y float64) {
		text = tr(text)
		pdf.Text((pageWidth-pdf.GetStringWidth(text))/2, y, text)
	}

	pdf.SetFont(fontFamily, "B", 20)
	pdf.SetTextColor(40, 40, 40)
	centered("CAPILAR MAX", 20)
	pdf.SetFont(fontFamily, "", 14)
	centered("CONSENT & AGREEMENT FORM", 30)

	representative := rec.RepresentativeName
	if representative == "" {
		representative = notAvailable
	}
	pdf.SetFont(fontFamily, "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.Text(leftMargin, 45, tr("Date: "+rec.Date.Format(dateLayout)))
	pdf.Text(leftMargin, 52, tr("Patient Name: "+patientName))
	pdf.Text(leftMargin, 59, tr("Clinic Representative: "+representative))

	pdf.SetFont(fontFamily, "", 12)
	pdf.SetTextColor(0, 0, 0)
	pdf.Text(leftMargin, 75, "Agreement Sections Initialed:")

	y := 85.0
	for _, section := range model.ConsentSections {
		if !rec.Initials[section] {
			continue
		}
		pdf.Text(checkIndent, y, tr("[YES] "+section.Label()))
		y += lineHeight
	}

	y += 5
	marketing := "NO"
	if rec.MarketingConsent {
		marketing = "YES"
	}
	pdf.Text(leftMargin, y, "Marketing Consent: "+marketing)

	y += 20
	pdf.Text(leftMargin, y, "Signatures:")
	y += 10

	placeSignature(pdf, "patient", "Patient Signature:", rec.PatientSignature, leftMargin, y)
	placeSignature(pdf, "representative", "Representative Signature:", rec.RepresentativeSignature, rightColumn, y)

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("failed to lay out consent document: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("failed to write consent document: %w", err)
	}
	return nil
}

func placeSignature(pdf *fpdf.Fpdf, name, caption string, sig model.Signature, x, y float64) {
	if len(sig.PNG) == 0 {
		return
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.Text(x, y, caption)
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(sig.PNG))
	pdf.ImageOptions(name, x, y+5, sigWidth, sigHeight, false, opts, 0, "")
}

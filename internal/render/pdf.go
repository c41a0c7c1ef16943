// Package render draws the single-page certificate document.
//
// Output must be byte-identical for identical payloads: the issuance workflow
// hashes a first render to obtain the fingerprint it embeds in the second.
package render

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/go-pdf/fpdf"
)

// Payload is the public data printed on a certificate
type Payload struct {
	CertificateID     string
	PublicFingerprint string // empty on the first pass
	Lot               LotSummary
	Expertise         ExpertiseSummary
	Laboratory        string
	IssuedAt          time.Time
	VerifyURL         string
}

// LotSummary holds the descriptive lot fields
type LotSummary struct {
	Title      string
	Typology   string
	Period     string
	Materials  string
	Dimensions string
}

// ExpertiseSummary holds the appraisal fields
type ExpertiseSummary struct {
	Score          float64
	Classification string
	Summary        string
}

// Renderer produces certificate PDFs
type Renderer struct {
	Brand           string
	VerifyHostLabel string
}

// NewRenderer creates a renderer printing the given brand and verification host label
func NewRenderer(brand, verifyHostLabel string) *Renderer {
	return &Renderer{Brand: brand, VerifyHostLabel: verifyHostLabel}
}

const (
	qrPixels   = 200
	qrSize     = 100.0
	marginLeft = 40.0
)

// Render draws the certificate on an A4 page and returns the PDF bytes
func (r *Renderer) Render(p Payload) ([]byte, error) {
	qrPNG, err := EncodeQR(p.VerifyURL, qrPixels)
	if err != nil {
		return nil, err
	}

	pdf := fpdf.New("P", "pt", "A4", "")
	// Fixed dates and sorted catalog keep the output reproducible.
	pdf.SetCreationDate(p.IssuedAt.UTC())
	pdf.SetModificationDate(p.IssuedAt.UTC())
	pdf.SetCatalogSort(true)
	pdf.SetCompression(true)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetMargins(0, 0, 0)
	pdf.SetCreator(r.Brand, true)
	pdf.SetTitle("Certificate "+p.CertificateID, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	w, h := pdf.GetPageSize()

	text := func(x, y float64, style string, size float64, s string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.Text(x, y, tr(s))
	}

	// Header
	pdf.SetFillColor(15, 23, 42)
	pdf.Rect(0, 0, w, 60, "F")
	pdf.SetTextColor(255, 255, 255)
	text(marginLeft, 35, "B", 24, r.Brand)
	text(marginLeft, 50, "", 12, "CERTIFICAT D'AUTHENTICITÉ")

	y := 100.0
	pdf.SetTextColor(0, 0, 0)

	text(marginLeft, y, "", 10, "Certificate ID:")
	text(140, y, "B", 9, p.CertificateID)

	y += 20
	text(marginLeft, y, "", 10, "Fingerprint:")
	pdf.SetTextColor(37, 99, 235)
	text(140, y, "B", 16, p.PublicFingerprint)
	pdf.SetTextColor(0, 0, 0)

	// Lot information
	y += 40
	lotLines := []string{
		"Titre: " + p.Lot.Title,
		"Typologie: " + p.Lot.Typology,
		"Période: " + p.Lot.Period,
		"Matériaux: " + p.Lot.Materials,
	}
	if p.Lot.Dimensions != "" {
		lotLines = append(lotLines, "Dimensions (cm): "+p.Lot.Dimensions)
	}
	boxHeight := 35 + 15*float64(len(lotLines))
	pdf.SetFillColor(241, 245, 249)
	pdf.Rect(marginLeft, y-20, w-2*marginLeft, boxHeight, "F")

	y += 15
	text(50, y, "B", 12, "INFORMATIONS DU LOT")
	y += 5
	pdf.SetFont("Helvetica", "", 10)
	for _, line := range lotLines {
		y += 15
		pdf.Text(50, y, fitText(pdf, tr(line), w-100))
	}

	// Expertise
	y += 40
	pdf.SetFillColor(239, 246, 255)
	pdf.Rect(marginLeft, y-10, w-2*marginLeft, 75, "F")

	y += 15
	text(50, y, "B", 12, "RÉSUMÉ DE L'EXPERTISE")

	y += 20
	pdf.SetTextColor(37, 99, 235)
	text(50, y, "B", 10, fmt.Sprintf("Score %s: %s/100", r.Brand, formatScore(p.Expertise.Score)))
	pdf.SetTextColor(0, 0, 0)

	y += 15
	text(50, y, "", 10, "Classification: "+p.Expertise.Classification)

	if p.Expertise.Summary != "" {
		y += 15
		pdf.SetFont("Helvetica", "I", 9)
		pdf.Text(50, y, fitText(pdf, tr(p.Expertise.Summary), w-100))
	}

	// Laboratory & date
	y += 40
	text(marginLeft, y, "", 10, "Laboratoire: "+p.Laboratory)
	y += 15
	text(marginLeft, y, "", 10, "Date d'émission: "+p.IssuedAt.UTC().Format("02/01/2006"))

	// QR code
	qrX := w - qrSize - marginLeft
	qrY := h - 80 - qrSize
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("verify-qr", opts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("verify-qr", qrX, qrY, qrSize, qrSize, false, opts, 0, "")

	pdf.SetTextColor(102, 102, 102)
	text(qrX, h-70, "", 8, "Vérifier sur:")
	if r.VerifyHostLabel != "" {
		text(qrX, h-60, "", 8, r.VerifyHostLabel)
	}

	// Watermark
	if p.PublicFingerprint != "" {
		pdf.SetAlpha(0.3, "Normal")
		pdf.SetTextColor(204, 204, 204)
		text(w/2-100, h/2, "B", 60, p.PublicFingerprint)
		pdf.SetAlpha(1, "Normal")
	}

	// Footer
	pdf.SetTextColor(102, 102, 102)
	pdf.SetFont("Helvetica", "", 7)
	footer := fmt.Sprintf("Ce certificat atteste de l'analyse effectuée par %s.", r.Brand)
	pdf.Text(marginLeft, h-30, fitText(pdf, tr(footer), w-qrSize-80))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render pdf: %w", err)
	}

	return buf.Bytes(), nil
}

// fitText trims an already translated single-byte string to maxWidth using the current font
func fitText(pdf *fpdf.Fpdf, s string, maxWidth float64) string {
	if pdf.GetStringWidth(s) <= maxWidth {
		return s
	}
	const ellipsis = "\x85"
	for len(s) > 0 && pdf.GetStringWidth(s+ellipsis) > maxWidth {
		s = s[:len(s)-1]
	}
	return s + ellipsis
}

func formatScore(score float64) string {
	return strconv.FormatFloat(score, 'f', -1, 64)
}

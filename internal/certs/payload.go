package certs

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/adamscao/lotcert/internal/models"
	"github.com/adamscao/lotcert/internal/render"
)

// Defaults applied when source records leave a field empty
const (
	defaultTitle          = "Untitled"
	defaultUnknown        = "Unknown"
	defaultClassification = "Non classé"
)

// buildPayload is the single place where source records are defaulted into
// the printed payload. exp may be nil when the expertise record is missing.
func buildPayload(certificateID string, lot *models.Lot, exp *models.Expertise, laboratory string, issuedAt time.Time, verifyURL string) render.Payload {
	p := render.Payload{
		CertificateID: certificateID,
		Lot: render.LotSummary{
			Title:      orDefault(lot.Title, defaultTitle),
			Typology:   orDefault(lot.Typology, defaultUnknown),
			Period:     orDefault(lot.Period, defaultUnknown),
			Materials:  orDefault(lot.Materials, defaultUnknown),
			Dimensions: compactJSON(lot.DimensionsCM),
		},
		Expertise: render.ExpertiseSummary{
			Classification: defaultClassification,
			Summary:        lot.Description,
		},
		Laboratory: laboratory,
		IssuedAt:   issuedAt,
		VerifyURL:  verifyURL,
	}

	switch {
	case exp != nil && exp.NormalizedScore != nil && *exp.NormalizedScore != 0:
		p.Expertise.Score = *exp.NormalizedScore
	case lot.Score100 != nil:
		p.Expertise.Score = *lot.Score100
	}

	if exp != nil {
		p.Expertise.Classification = orDefault(exp.Classification, defaultClassification)
		if exp.ExpertSummary != "" {
			p.Expertise.Summary = exp.ExpertSummary
		}
	}

	return p
}

// publicData freezes the descriptive snapshot stored on the certificate
func publicData(p render.Payload, exp *models.Expertise) models.PublicData {
	data := models.PublicData{
		Title:          p.Lot.Title,
		Typology:       p.Lot.Typology,
		Period:         p.Lot.Period,
		Materials:      p.Lot.Materials,
		Dimensions:     p.Lot.Dimensions,
		Score:          p.Expertise.Score,
		Classification: p.Expertise.Classification,
		Laboratory:     p.Laboratory,
	}
	if exp != nil && len(exp.TestsPerformed) > 0 {
		data.TestsPerformed = append([]string(nil), exp.TestsPerformed...)
	}
	return data
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func compactJSON(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}

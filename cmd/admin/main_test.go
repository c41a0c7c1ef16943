package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/lotcert/internal/models"
	"github.com/adamscao/lotcert/internal/storage"
	"github.com/adamscao/lotcert/pkg/certhash"
)

func TestParseLotFile(t *testing.T) {
	data := []byte(`
lots:
  - id: L1
    title: Vase Ming
    typology: Céramique
    score_100: 87
    dimensions_cm:
      h: 32
      d: 18
    expertises:
      - id: E1
        normalized_score: 87
        classification: Authentique
        tests_performed: [UV, XRF]
  - id: L2
    title: Commode
`)

	lots, expertises, err := parseLotFile(data)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	require.Len(t, expertises, 1)

	assert.Equal(t, "Vase Ming", lots[0].Title)
	require.NotNil(t, lots[0].Score100)
	assert.Equal(t, 87.0, *lots[0].Score100)
	assert.JSONEq(t, `{"h":32,"d":18}`, string(lots[0].DimensionsCM))
	assert.Nil(t, lots[1].DimensionsCM)

	assert.Equal(t, "L1", expertises[0].LotID)
	assert.Equal(t, []string{"UV", "XRF"}, expertises[0].TestsPerformed)
}

func TestParseLotFileRequiresIDs(t *testing.T) {
	_, _, err := parseLotFile([]byte("lots:\n  - title: nameless\n"))
	assert.Error(t, err)

	_, _, err = parseLotFile([]byte("lots:\n  - id: L1\n    expertises:\n      - classification: x\n"))
	assert.Error(t, err)
}

func TestOrphanKeys(t *testing.T) {
	now := time.Now()
	stored := []storage.Object{
		{Key: "certificates/c.pdf", LastModified: now.Add(-2 * time.Hour)},
		{Key: "certificates/a.pdf", LastModified: now.Add(-2 * time.Hour)},
		{Key: "certificates/b.pdf", LastModified: now.Add(-2 * time.Hour)},
		{Key: "certificates/fresh.pdf", LastModified: now},
	}
	referenced := map[string]struct{}{"certificates/b.pdf": {}}

	assert.Equal(t, []string{"certificates/a.pdf", "certificates/c.pdf"}, orphanKeys(stored, referenced, now.Add(-time.Hour)))
}

func TestVerifyDocument(t *testing.T) {
	body := []byte("%PDF-1.3 stored")
	cert := &models.Certificate{PDF: models.PDFObject{
		ContentHash: certhash.ContentHash(body),
		Size:        int64(len(body)),
	}}

	assert.NoError(t, verifyDocument(cert, body))
	assert.Error(t, verifyDocument(cert, []byte("%PDF-1.3 tamperd")))
	assert.Error(t, verifyDocument(cert, body[:4]))
}

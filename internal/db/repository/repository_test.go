package repository_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/adamscao/lotcert/internal/db"
	"github.com/adamscao/lotcert/internal/db/repository"
	"github.com/adamscao/lotcert/internal/models"
)

type RepositorySuite struct {
	suite.Suite
	ctx           context.Context
	database      *db.DB
	certs         *repository.CertificateRepository
	verifications *repository.VerificationRepository
	lots          *repository.LotRepository
	issuers       *repository.IssuerRepository
	tokens        *repository.TokenRepository
	now           time.Time
}

func TestRepositorySuite(t *testing.T) {
	suite.Run(t, new(RepositorySuite))
}

func (s *RepositorySuite) SetupTest() {
	var err error
	s.ctx = context.Background()
	s.database, err = db.New(db.DriverSQLite, ":memory:")
	s.Require().NoError(err)
	s.Require().NoError(db.RunMigrations(s.database))

	s.certs = repository.NewCertificateRepository(s.database)
	s.verifications = repository.NewVerificationRepository(s.database)
	s.lots = repository.NewLotRepository(s.database)
	s.issuers = repository.NewIssuerRepository(s.database)
	s.tokens = repository.NewTokenRepository(s.database)
	s.now = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)
}

func (s *RepositorySuite) TearDownTest() {
	s.database.Close()
}

func (s *RepositorySuite) certificate(id, lotID, issuerID string, issuedAt time.Time) *models.Certificate {
	return &models.Certificate{
		CertificateID:     id,
		PublicFingerprint: "AB12CD34",
		Version:           1,
		Status:            models.StatusValid,
		IssuedAt:          issuedAt,
		LotID:             lotID,
		IssuerID:          issuerID,
		ExpertiseID:       "E1",
		DataPublic: models.PublicData{
			Title:          "Vase Ming",
			Score:          87,
			Classification: "Authentique",
			Laboratory:     "Test Lab",
			TestsPerformed: []string{"UV"},
		},
		PDF: models.PDFObject{
			Key:         "certificates/" + id + ".pdf",
			ContentHash: "ab12cd34ef",
			Size:        2048,
		},
		Metadata: &models.IssuanceMetadata{IPAddress: "203.0.113.7", UserAgent: "curl", GenerationDurationMs: 12},
	}
}

func (s *RepositorySuite) TestCertificateRoundTrip() {
	s.Require().NoError(s.certs.Create(s.ctx, s.certificate("c1", "L1", "issuer-a", s.now)))

	got, err := s.certs.GetByID(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(models.CertificateSchemaVersion, got.SchemaVersion)
	s.Equal(models.StatusValid, got.Status)
	s.True(s.now.Equal(got.IssuedAt))
	s.Nil(got.RevokedAt)
	s.Empty(got.RevokedReason)
	s.Equal("Vase Ming", got.DataPublic.Title)
	s.Equal([]string{"UV"}, got.DataPublic.TestsPerformed)
	s.Equal(int64(2048), got.PDF.Size)
	s.Require().NotNil(got.Metadata)
	s.Equal(int64(12), got.Metadata.GenerationDurationMs)
}

func (s *RepositorySuite) TestGetMissingCertificate() {
	_, err := s.certs.GetByID(s.ctx, "missing")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestRevokeOnlyOnce() {
	s.Require().NoError(s.certs.Create(s.ctx, s.certificate("c1", "L1", "issuer-a", s.now)))

	changed, err := s.certs.Revoke(s.ctx, "c1", "forged", s.now.Add(time.Hour))
	s.Require().NoError(err)
	s.True(changed)

	changed, err = s.certs.Revoke(s.ctx, "c1", "other", s.now.Add(2*time.Hour))
	s.Require().NoError(err)
	s.False(changed)

	got, err := s.certs.GetByID(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(models.StatusRevoked, got.Status)
	s.Equal("forged", got.RevokedReason)
	s.Require().NotNil(got.RevokedAt)
	s.True(s.now.Add(time.Hour).Equal(*got.RevokedAt))

	changed, err = s.certs.Revoke(s.ctx, "missing", "x", s.now)
	s.Require().NoError(err)
	s.False(changed)
}

func (s *RepositorySuite) TestIncrementVerificationCount() {
	s.Require().NoError(s.certs.Create(s.ctx, s.certificate("c1", "L1", "issuer-a", s.now)))

	s.Require().NoError(s.certs.IncrementVerificationCount(s.ctx, "c1", s.now))
	s.Require().NoError(s.certs.IncrementVerificationCount(s.ctx, "c1", s.now.Add(time.Minute)))

	got, err := s.certs.GetByID(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(int64(2), got.VerificationCount)
	s.Require().NotNil(got.LastVerifiedAt)
	s.True(s.now.Add(time.Minute).Equal(*got.LastVerifiedAt))

	s.ErrorIs(s.certs.IncrementVerificationCount(s.ctx, "missing", s.now), repository.ErrNotFound)
}

func (s *RepositorySuite) TestListOrdering() {
	s.Require().NoError(s.certs.Create(s.ctx, s.certificate("c1", "L1", "issuer-a", s.now)))
	s.Require().NoError(s.certs.Create(s.ctx, s.certificate("c2", "L1", "issuer-b", s.now.Add(time.Minute))))
	s.Require().NoError(s.certs.Create(s.ctx, s.certificate("c3", "L2", "issuer-a", s.now.Add(2*time.Minute))))

	byLot, err := s.certs.ListByLot(s.ctx, "L1", 10)
	s.Require().NoError(err)
	s.Require().Len(byLot, 2)
	s.Equal("c2", byLot[0].CertificateID)
	s.Equal("c1", byLot[1].CertificateID)

	byIssuer, err := s.certs.ListByIssuer(s.ctx, "issuer-a", 1)
	s.Require().NoError(err)
	s.Require().Len(byIssuer, 1)
	s.Equal("c3", byIssuer[0].CertificateID)

	keys, err := s.certs.ListPDFKeys(s.ctx)
	s.Require().NoError(err)
	s.Len(keys, 3)
	s.Contains(keys, "certificates/c2.pdf")
}

func (s *RepositorySuite) TestVerificationLog() {
	for i, result := range []models.VerificationResult{models.ResultValid, models.ResultValid, models.ResultRevoked} {
		entry := &models.VerificationLog{
			CertificateID: "c1",
			Timestamp:     s.now.Add(time.Duration(i) * time.Minute),
			IPHMAC:        "ip",
			UAHMAC:        "ua",
			Result:        result,
			Route:         models.RouteVerify,
		}
		s.Require().NoError(s.verifications.Append(s.ctx, entry))
		s.NotZero(entry.ID)
	}

	logs, err := s.verifications.ListByCertificate(s.ctx, "c1", 10)
	s.Require().NoError(err)
	s.Require().Len(logs, 3)
	s.Equal(models.ResultRevoked, logs[0].Result)

	counts, err := s.verifications.CountByResult(s.ctx, "c1")
	s.Require().NoError(err)
	s.Equal(2, counts[models.ResultValid])
	s.Equal(1, counts[models.ResultRevoked])
	s.Zero(counts[models.ResultNotFound])
}

func (s *RepositorySuite) TestLotsAndExpertises() {
	score := 87.5
	lot := &models.Lot{ID: "L1", Title: "Vase", DimensionsCM: json.RawMessage(`{"h":32}`), Score100: &score}
	s.Require().NoError(s.lots.UpsertLot(s.ctx, lot))

	lot.Title = "Vase Ming"
	s.Require().NoError(s.lots.UpsertLot(s.ctx, lot))

	got, err := s.lots.GetLot(s.ctx, "L1")
	s.Require().NoError(err)
	s.Equal("Vase Ming", got.Title)
	s.JSONEq(`{"h":32}`, string(got.DimensionsCM))
	s.Require().NotNil(got.Score100)
	s.Equal(87.5, *got.Score100)

	s.Require().NoError(s.lots.UpsertExpertise(s.ctx, &models.Expertise{
		ID: "E1", LotID: "L1", Classification: "Authentique", TestsPerformed: []string{"UV", "XRF"},
	}))
	exp, err := s.lots.GetExpertise(s.ctx, "E1")
	s.Require().NoError(err)
	s.Nil(exp.NormalizedScore)
	s.Equal([]string{"UV", "XRF"}, exp.TestsPerformed)

	_, err = s.lots.GetLot(s.ctx, "missing")
	s.ErrorIs(err, repository.ErrNotFound)
	_, err = s.lots.GetExpertise(s.ctx, "missing")
	s.ErrorIs(err, repository.ErrNotFound)
}

func (s *RepositorySuite) TestIssuersAndTokens() {
	s.Require().NoError(s.issuers.Create(s.ctx, &models.Issuer{ID: "issuer-a", Name: "A", Email: "a@example.com", Enabled: true}))
	s.Require().NoError(s.issuers.Create(s.ctx, &models.Issuer{ID: "issuer-b", Name: "B", Email: "b@example.com", Enabled: true}))

	list, err := s.issuers.List(s.ctx)
	s.Require().NoError(err)
	s.Len(list, 2)

	s.Require().NoError(s.issuers.SetEnabled(s.ctx, "issuer-b", false))
	b, err := s.issuers.GetByID(s.ctx, "issuer-b")
	s.Require().NoError(err)
	s.False(b.Enabled)

	expired := s.now.Add(-time.Hour)
	live := &models.IssuerToken{IssuerID: "issuer-a", TokenHash: "hash-live"}
	dead := &models.IssuerToken{IssuerID: "issuer-a", TokenHash: "hash-dead", ExpiresAt: &expired}
	s.Require().NoError(s.tokens.Create(s.ctx, live))
	s.Require().NoError(s.tokens.Create(s.ctx, dead))
	s.NotZero(live.ID)

	got, err := s.tokens.ValidateToken(s.ctx, "hash-live", s.now)
	s.Require().NoError(err)
	s.Equal("issuer-a", got.IssuerID)

	_, err = s.tokens.ValidateToken(s.ctx, "hash-dead", s.now)
	s.ErrorIs(err, repository.ErrNotFound)

	s.Require().NoError(s.tokens.UpdateLastUsed(s.ctx, live.ID, s.now))
	tokens, err := s.tokens.ListByIssuer(s.ctx, "issuer-a")
	s.Require().NoError(err)
	s.Len(tokens, 2)

	s.Require().NoError(s.tokens.Delete(s.ctx, live.ID))
	_, err = s.tokens.ValidateToken(s.ctx, "hash-live", s.now)
	s.ErrorIs(err, repository.ErrNotFound)
}

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adamscao/lotcert/internal/db"
	"github.com/adamscao/lotcert/internal/models"
)

// LotRepository reads the lot and expertise source records certificates are issued from
type LotRepository struct {
	db *db.DB
}

// NewLotRepository creates a new lot repository
func NewLotRepository(database *db.DB) *LotRepository {
	return &LotRepository{db: database}
}

// GetLot retrieves a lot by ID
func (r *LotRepository) GetLot(ctx context.Context, id string) (*models.Lot, error) {
	query := `
		SELECT id, title, typology, period, materials, dimensions_cm, description, score_100, created_at
		FROM lots
		WHERE id = ?
	`

	lot := &models.Lot{}
	var dimensions sql.NullString
	var score sql.NullFloat64

	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), id).Scan(
		&lot.ID,
		&lot.Title,
		&lot.Typology,
		&lot.Period,
		&lot.Materials,
		&dimensions,
		&lot.Description,
		&score,
		&lot.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("lot %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get lot: %w", err)
	}

	if dimensions.Valid && dimensions.String != "" {
		lot.DimensionsCM = json.RawMessage(dimensions.String)
	}
	if score.Valid {
		s := score.Float64
		lot.Score100 = &s
	}

	return lot, nil
}

// GetExpertise retrieves an expertise by ID
func (r *LotRepository) GetExpertise(ctx context.Context, id string) (*models.Expertise, error) {
	query := `
		SELECT id, lot_id, normalized_score, classification, expert_summary, tests_performed, created_at
		FROM expertises
		WHERE id = ?
	`

	exp := &models.Expertise{}
	var score sql.NullFloat64
	var tests sql.NullString

	err := r.db.QueryRowContext(ctx, r.db.Rebind(query), id).Scan(
		&exp.ID,
		&exp.LotID,
		&score,
		&exp.Classification,
		&exp.ExpertSummary,
		&tests,
		&exp.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expertise %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expertise: %w", err)
	}

	if score.Valid {
		s := score.Float64
		exp.NormalizedScore = &s
	}
	if tests.Valid && tests.String != "" {
		if err := json.Unmarshal([]byte(tests.String), &exp.TestsPerformed); err != nil {
			return nil, fmt.Errorf("failed to decode tests performed: %w", err)
		}
	}

	return exp, nil
}

// UpsertLot creates or replaces a lot
func (r *LotRepository) UpsertLot(ctx context.Context, lot *models.Lot) error {
	query := `
		INSERT INTO lots (id, title, typology, period, materials, dimensions_cm, description, score_100, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			typology = excluded.typology,
			period = excluded.period,
			materials = excluded.materials,
			dimensions_cm = excluded.dimensions_cm,
			description = excluded.description,
			score_100 = excluded.score_100
	`

	if lot.CreatedAt.IsZero() {
		lot.CreatedAt = time.Now().UTC()
	}

	var dimensions sql.NullString
	if len(lot.DimensionsCM) > 0 {
		dimensions = sql.NullString{String: string(lot.DimensionsCM), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		lot.ID,
		lot.Title,
		lot.Typology,
		lot.Period,
		lot.Materials,
		dimensions,
		lot.Description,
		nullFloat(lot.Score100),
		lot.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert lot: %w", err)
	}

	return nil
}

// UpsertExpertise creates or replaces an expertise
func (r *LotRepository) UpsertExpertise(ctx context.Context, exp *models.Expertise) error {
	query := `
		INSERT INTO expertises (id, lot_id, normalized_score, classification, expert_summary, tests_performed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			lot_id = excluded.lot_id,
			normalized_score = excluded.normalized_score,
			classification = excluded.classification,
			expert_summary = excluded.expert_summary,
			tests_performed = excluded.tests_performed
	`

	if exp.CreatedAt.IsZero() {
		exp.CreatedAt = time.Now().UTC()
	}

	var tests sql.NullString
	if len(exp.TestsPerformed) > 0 {
		b, err := json.Marshal(exp.TestsPerformed)
		if err != nil {
			return fmt.Errorf("failed to encode tests performed: %w", err)
		}
		tests = sql.NullString{String: string(b), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, r.db.Rebind(query),
		exp.ID,
		exp.LotID,
		nullFloat(exp.NormalizedScore),
		exp.Classification,
		exp.ExpertSummary,
		tests,
		exp.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert expertise: %w", err)
	}

	return nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

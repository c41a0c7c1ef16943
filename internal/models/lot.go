package models

import (
	"encoding/json"
	"time"
)

// Lot is an appraised physical item owned by the inventory system
type Lot struct {
	ID           string          `json:"id" yaml:"id"`
	Title        string          `json:"title" yaml:"title"`
	Typology     string          `json:"typology" yaml:"typology"`
	Period       string          `json:"period" yaml:"period"`
	Materials    string          `json:"materials" yaml:"materials"`
	DimensionsCM json.RawMessage `json:"dimensions_cm,omitempty" yaml:"-"`
	Description  string          `json:"description" yaml:"description"`
	Score100     *float64        `json:"score_100,omitempty" yaml:"score_100"`
	CreatedAt    time.Time       `json:"created_at" yaml:"-"`
}

// Expertise is an appraisal record referenced by a certificate
type Expertise struct {
	ID              string    `json:"id" yaml:"id"`
	LotID           string    `json:"lot_id" yaml:"lot_id"`
	NormalizedScore *float64  `json:"normalized_score,omitempty" yaml:"normalized_score"`
	Classification  string    `json:"classification" yaml:"classification"`
	ExpertSummary   string    `json:"expert_summary" yaml:"expert_summary"`
	TestsPerformed  []string  `json:"tests_performed,omitempty" yaml:"tests_performed"`
	CreatedAt       time.Time `json:"created_at" yaml:"-"`
}

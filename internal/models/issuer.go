package models

import "time"

// Issuer represents an authenticated actor allowed to issue certificates
type Issuer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Enabled   bool      `json:"enabled"`
	CreatedAt time.Time `json:"created_at"`
}

// IssuerToken represents a bearer token bound to an issuer
type IssuerToken struct {
	ID         int64      `json:"id"`
	IssuerID   string     `json:"issuer_id"`
	TokenHash  string     `json:"-"` // Never expose token hash
	CreatedAt  time.Time  `json:"created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
}

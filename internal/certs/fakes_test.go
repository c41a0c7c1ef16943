package certs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/adamscao/lotcert/internal/db/repository"
	"github.com/adamscao/lotcert/internal/models"
)

type memoryCertificates struct {
	mu        sync.Mutex
	records   map[string]*models.Certificate
	createErr error
}

func newMemoryCertificates() *memoryCertificates {
	return &memoryCertificates{records: map[string]*models.Certificate{}}
}

func (m *memoryCertificates) Create(_ context.Context, cert *models.Certificate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	c := *cert
	m.records[cert.CertificateID] = &c
	return nil
}

func (m *memoryCertificates) GetByID(_ context.Context, id string) (*models.Certificate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[id]
	if !ok {
		return nil, fmt.Errorf("certificate %s: %w", id, repository.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (m *memoryCertificates) Revoke(_ context.Context, id, reason string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[id]
	if !ok || c.Status != models.StatusValid {
		return false, nil
	}
	c.Status = models.StatusRevoked
	c.RevokedReason = reason
	c.RevokedAt = &at
	return true, nil
}

func (m *memoryCertificates) IncrementVerificationCount(_ context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.VerificationCount++
	c.LastVerifiedAt = &at
	return nil
}

func (m *memoryCertificates) ListByLot(_ context.Context, lotID string, limit int) ([]*models.Certificate, error) {
	return m.filter(func(c *models.Certificate) bool { return c.LotID == lotID }, limit), nil
}

func (m *memoryCertificates) ListByIssuer(_ context.Context, issuerID string, limit int) ([]*models.Certificate, error) {
	return m.filter(func(c *models.Certificate) bool { return c.IssuerID == issuerID }, limit), nil
}

func (m *memoryCertificates) filter(keep func(*models.Certificate) bool, limit int) []*models.Certificate {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Certificate
	for _, c := range m.records {
		if keep(c) {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.After(out[j].IssuedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

type memoryLogs struct {
	mu      sync.Mutex
	entries []*models.VerificationLog
}

func (m *memoryLogs) Append(_ context.Context, entry *models.VerificationLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := *entry
	m.entries = append(m.entries, &e)
	return nil
}

func (m *memoryLogs) all() []*models.VerificationLog {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*models.VerificationLog(nil), m.entries...)
}

type memorySources struct {
	lots       map[string]*models.Lot
	expertises map[string]*models.Expertise
}

func (m *memorySources) GetLot(_ context.Context, id string) (*models.Lot, error) {
	if l, ok := m.lots[id]; ok {
		return l, nil
	}
	return nil, repository.ErrNotFound
}

func (m *memorySources) GetExpertise(_ context.Context, id string) (*models.Expertise, error) {
	if e, ok := m.expertises[id]; ok {
		return e, nil
	}
	return nil, repository.ErrNotFound
}

type memoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: map[string][]byte{}}
}

func (m *memoryBlobs) KeyFor(id string) string { return "certificates/" + id + ".pdf" }

func (m *memoryBlobs) Put(_ context.Context, key string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = append([]byte(nil), body...)
	return nil
}

func (m *memoryBlobs) SignedURL(key, filename string, ttl time.Duration) (string, error) {
	return fmt.Sprintf("https://blobs.test/%s?filename=%s&ttl=%d", key, filename, int(ttl.Seconds())), nil
}

func (m *memoryBlobs) object(key string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.objects[key]
	return b, ok
}

var errBoom = errors.New("boom")

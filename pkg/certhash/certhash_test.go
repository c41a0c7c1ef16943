package certhash

import (
	"crypto/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContentHashKnownVector(t *testing.T) {
	// sha256("abc")
	assert.Equal(t,
		"ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad",
		ContentHash([]byte("abc")))
	assert.Equal(t, ContentHash([]byte("abc")), ContentHash([]byte("abc")))
}

func TestPublicFingerprintShape(t *testing.T) {
	for i := 0; i < 200; i++ {
		buf := make([]byte, i*7)
		_, err := rand.Read(buf)
		require.NoError(t, err)

		fp := PublicFingerprint(ContentHash(buf))
		assert.Len(t, fp, FingerprintLength)
		assert.True(t, IsFingerprint(fp), "fingerprint %q must be uppercase hex", fp)
	}
}

func TestPublicFingerprintIsHashPrefix(t *testing.T) {
	assert.Equal(t, "BA7816BF", PublicFingerprint(ContentHash([]byte("abc"))))
	assert.Equal(t, "AB", PublicFingerprint("ab"))
}

func TestPrivacyHash(t *testing.T) {
	a := PrivacyHash("203.0.113.7", "pepper-one")
	b := PrivacyHash("203.0.113.7", "pepper-two")

	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b, "different peppers must give different digests")
	assert.Equal(t, a, PrivacyHash("203.0.113.7", "pepper-one"), "same input must correlate")
	assert.NotContains(t, a, "203.0.113.7")
}

func TestNewCertificateIDSortable(t *testing.T) {
	ids := make([]string, 50)
	for i := range ids {
		id, err := NewCertificateID()
		require.NoError(t, err)
		ids[i] = id
	}

	assert.True(t, sort.StringsAreSorted(ids), "ids must sort in creation order")

	seen := map[string]bool{}
	for _, id := range ids {
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestGeneratePepper(t *testing.T) {
	p, err := GeneratePepper()
	require.NoError(t, err)
	assert.Len(t, p, 64)
}

func TestIsFingerprint(t *testing.T) {
	assert.True(t, IsFingerprint("0A1B2C3D"))
	assert.False(t, IsFingerprint("0a1b2c3d"))
	assert.False(t, IsFingerprint("0A1B2C3"))
	assert.False(t, IsFingerprint("0A1B2C3G"))
}

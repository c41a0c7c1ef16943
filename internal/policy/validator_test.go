package policy

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adamscao/lotcert/internal/models"
)

func TestValidateIssueRequest(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateIssueRequest("L1", "E1"))
	assert.ErrorIs(t, v.ValidateIssueRequest("", "E1"), ErrMissingField)
	assert.ErrorIs(t, v.ValidateIssueRequest("L1", "  "), ErrMissingField)
}

func TestValidateRevokeReason(t *testing.T) {
	v := NewValidator()

	reason, err := v.ValidateRevokeReason("  forged ")
	require.NoError(t, err)
	assert.Equal(t, "forged", reason)

	_, err = v.ValidateRevokeReason("")
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = v.ValidateRevokeReason(strings.Repeat("x", maxReasonLength+1))
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestValidateRevoke(t *testing.T) {
	v := NewValidator()
	cert := &models.Certificate{IssuerID: "alice", Status: models.StatusValid}

	assert.NoError(t, v.ValidateRevoke(cert, "alice"))
	assert.ErrorIs(t, v.ValidateRevoke(cert, "bob"), ErrNotIssuer)

	cert.Status = models.StatusRevoked
	assert.ErrorIs(t, v.ValidateRevoke(cert, "alice"), ErrAlreadyRevoked)
	assert.ErrorIs(t, v.ValidateRevoke(cert, "bob"), ErrNotIssuer)
}

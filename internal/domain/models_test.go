package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doculens/internal/domain"
)

func TestNewEnvelope(t *testing.T) {
	res := &domain.DocumentResult{
		DocumentType: domain.DocTypeInvoice,
		TotalPages:   2,
		Pages: []domain.PageResult{
			{
				PageIndex:    0,
				DocumentType: domain.DocTypeInvoice,
				ParseStatus:  domain.ParseStatusClean,
				Fields:       map[string]any{"total": "$10.00"},
				RawText:      "raw model output",
			},
			{
				PageIndex:    1,
				DocumentType: domain.DocTypeUnknown,
				ParseStatus:  domain.ParseStatusFailed,
				Fields:       map[string]any{},
			},
		},
		FusedFields:    map[string]domain.FusedField{"total": {Value: "$10.00", Page: 0}},
		Confidence:     0.55,
		Warnings:       []string{"page 2: no structured data extracted"},
		ProcessingTime: 1.5,
	}

	env := domain.NewEnvelope(res)

	assert.Equal(t, domain.DocTypeInvoice, env.DocumentType)
	assert.Equal(t, 2, env.TotalPages)
	assert.InDelta(t, 0.55, env.Confidence, 0.001)
	assert.Equal(t, res.Warnings, env.Warnings)

	require.Len(t, env.ExtractedContent.Pages, 2)
	// Page numbers are 1-based in the envelope.
	assert.Equal(t, 1, env.ExtractedContent.Pages[0].PageNumber)
	assert.Equal(t, 2, env.ExtractedContent.Pages[1].PageNumber)
	assert.Equal(t, domain.ParseStatusFailed, env.ExtractedContent.Pages[1].ParseStatus)
	assert.Equal(t, res.FusedFields, env.ExtractedContent.FusedFields)
}

func TestNewEnvelope_NilWarningsSerializeAsEmptyArray(t *testing.T) {
	env := domain.NewEnvelope(&domain.DocumentResult{})

	data, err := json.Marshal(env)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"warnings":[]`)
}

func TestOutcomeRetryable(t *testing.T) {
	assert.True(t, domain.OutcomeTimeout.Retryable())
	assert.True(t, domain.OutcomeTransportError.Retryable())
	assert.False(t, domain.OutcomeSuccess.Retryable())
	assert.False(t, domain.OutcomeServerError.Retryable())
}

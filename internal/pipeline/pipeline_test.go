package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"doculens/internal/domain"
	"doculens/internal/pipeline"
	"doculens/mocks"
)

func testDoc(pages int) *domain.SourceDocument {
	doc := &domain.SourceDocument{
		SourceName: "scan.pdf",
		TotalPages: pages,
	}
	for i := 0; i < pages; i++ {
		doc.Pages = append(doc.Pages, domain.PageImage{
			Index:       i,
			Data:        []byte{0x89, 0x50, 0x4E, 0x47},
			ContentType: "image/png",
		})
	}
	return doc
}

func forPage(index int) interface{} {
	return mock.MatchedBy(func(req domain.InferenceRequest) bool {
		return req.PageIndex == index
	})
}

func success(index int, raw string) domain.InferenceResponse {
	return domain.InferenceResponse{PageIndex: index, RawText: raw, Outcome: domain.OutcomeSuccess}
}

func defaultConfig() pipeline.Config {
	return pipeline.Config{
		MaxConcurrency:  3,
		MaxRetries:      1,
		MaxOutputTokens: 800,
		Temperature:     0.1,
		CallTimeout:     time.Second,
	}
}

func TestRun_NoPages(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	p := pipeline.New(gateway, defaultConfig())

	_, err := p.Run(context.Background(), &domain.SourceDocument{SourceName: "empty.pdf"})
	assert.ErrorIs(t, err, domain.ErrNoPages)
}

func TestRun_SinglePageInvoice(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	gateway.On("Generate", mock.Anything, forPage(0)).
		Return(success(0, `{"type": "invoice", "fields": {"vendor": "ACME", "total": "$9.00"}}`)).Once()

	p := pipeline.New(gateway, defaultConfig())
	res, err := p.Run(context.Background(), testDoc(1))
	require.NoError(t, err)

	assert.Equal(t, domain.DocTypeInvoice, res.DocumentType)
	assert.Equal(t, 1, res.TotalPages)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, domain.ParseStatusClean, res.Pages[0].ParseStatus)
	assert.Equal(t, "ACME", res.FusedFields["vendor"].Value)
	assert.Greater(t, res.Confidence, 0.7)
	gateway.AssertExpectations(t)
}

func TestRun_ResultsInPageOrderRegardlessOfArrival(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	// Page 0 is the slowest; later pages finish first.
	gateway.On("Generate", mock.Anything, forPage(0)).
		After(60 * time.Millisecond).
		Return(success(0, `{"type": "invoice", "fields": {"invoice_number": "INV-1"}}`)).Once()
	gateway.On("Generate", mock.Anything, forPage(1)).
		After(30 * time.Millisecond).
		Return(success(1, `{"type": "invoice", "fields": {"subtotal": "$5.00"}}`)).Once()
	gateway.On("Generate", mock.Anything, forPage(2)).
		Return(success(2, `{"type": "invoice", "fields": {"total": "$6.00"}}`)).Once()

	p := pipeline.New(gateway, defaultConfig())
	res, err := p.Run(context.Background(), testDoc(3))
	require.NoError(t, err)

	require.Len(t, res.Pages, 3)
	for i, page := range res.Pages {
		assert.Equal(t, i, page.PageIndex)
	}
	assert.Equal(t, "INV-1", res.FusedFields["invoice_number"].Value)
	assert.Equal(t, 0, res.FusedFields["invoice_number"].Page)
}

func TestRun_RetriesTimeoutOnce(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	gateway.On("Generate", mock.Anything, forPage(0)).
		Return(domain.InferenceResponse{PageIndex: 0, Outcome: domain.OutcomeTimeout, Detail: "inference call timed out"}).Once()
	gateway.On("Generate", mock.Anything, forPage(0)).
		Return(success(0, `{"type": "receipt", "fields": {"total": "$3.00"}}`)).Once()

	p := pipeline.New(gateway, defaultConfig())
	res, err := p.Run(context.Background(), testDoc(1))
	require.NoError(t, err)

	assert.Equal(t, domain.ParseStatusClean, res.Pages[0].ParseStatus)
	gateway.AssertNumberOfCalls(t, "Generate", 2)
}

func TestRun_ExhaustedRetriesFailPage(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	gateway.On("Generate", mock.Anything, forPage(0)).
		Return(success(0, `{"type": "invoice", "fields": {"total": "$7.00"}}`)).Once()
	gateway.On("Generate", mock.Anything, forPage(1)).
		Return(domain.InferenceResponse{PageIndex: 1, Outcome: domain.OutcomeTimeout, Detail: "inference call timed out"}).Twice()

	p := pipeline.New(gateway, defaultConfig())
	res, err := p.Run(context.Background(), testDoc(2))
	require.NoError(t, err)

	// Failed page, document still completes.
	assert.Equal(t, domain.ParseStatusFailed, res.Pages[1].ParseStatus)
	assert.Equal(t, domain.DocTypeUnknown, res.Pages[1].DocumentType)
	assert.Empty(t, res.Pages[1].Fields)
	assert.Contains(t, res.Warnings, "page 2: inference timed out")
	gateway.AssertNumberOfCalls(t, "Generate", 3)
}

func TestRun_NoRetryOnServerError(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	gateway.On("Generate", mock.Anything, forPage(0)).
		Return(domain.InferenceResponse{PageIndex: 0, Outcome: domain.OutcomeServerError, Detail: "endpoint returned status 500"}).Once()

	p := pipeline.New(gateway, defaultConfig())
	res, err := p.Run(context.Background(), testDoc(1))
	require.NoError(t, err)

	assert.Equal(t, domain.ParseStatusFailed, res.Pages[0].ParseStatus)
	gateway.AssertNumberOfCalls(t, "Generate", 1)
}

func TestRun_NoRetryOnMalformedContent(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	gateway.On("Generate", mock.Anything, forPage(0)).
		Return(success(0, "complete nonsense, nothing extractable")).Once()

	p := pipeline.New(gateway, defaultConfig())
	res, err := p.Run(context.Background(), testDoc(1))
	require.NoError(t, err)

	// A received-but-malformed response is a parse failure, never a retry.
	assert.Equal(t, domain.ParseStatusFailed, res.Pages[0].ParseStatus)
	gateway.AssertNumberOfCalls(t, "Generate", 1)
}

func TestRun_AllPagesFailed(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	gateway.On("Generate", mock.Anything, mock.Anything).
		Return(domain.InferenceResponse{Outcome: domain.OutcomeTimeout, Detail: "inference call timed out"})

	p := pipeline.New(gateway, defaultConfig())
	res, err := p.Run(context.Background(), testDoc(2))
	require.NoError(t, err)

	assert.Equal(t, domain.DocTypeUnknown, res.DocumentType)
	assert.Zero(t, res.Confidence)
	assert.Contains(t, res.Warnings, "page 1: inference timed out")
	assert.Contains(t, res.Warnings, "page 2: inference timed out")
	assert.Contains(t, res.Warnings, "extraction failed on every page; no structured data recovered")
}

func TestRun_CancellationIsDocumentAtomic(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	gateway.On("Generate", mock.Anything, mock.Anything).
		Return(domain.InferenceResponse{Outcome: domain.OutcomeTransportError, Detail: "inference call cancelled"}).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := pipeline.New(gateway, defaultConfig())
	res, err := p.Run(ctx, testDoc(3))

	assert.Nil(t, res)
	assert.ErrorIs(t, err, domain.ErrCancelled)
}

func TestRun_MaxPagesCap(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	gateway.On("Generate", mock.Anything, forPage(0)).
		Return(success(0, `{"type": "report", "fields": {"title": "Q1"}}`)).Once()

	cfg := defaultConfig()
	cfg.MaxPages = 1
	p := pipeline.New(gateway, cfg)

	res, err := p.Run(context.Background(), testDoc(3))
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalPages)
	assert.Len(t, res.Pages, 1)
	assert.Contains(t, res.Warnings, "processing limited to first 1 of 3 pages")
	gateway.AssertNumberOfCalls(t, "Generate", 1)
}

func TestRun_ProcessingTimeRecorded(t *testing.T) {
	gateway := new(mocks.MockInferenceGateway)
	gateway.On("Generate", mock.Anything, mock.Anything).
		After(20*time.Millisecond).
		Return(success(0, `{"type": "other", "fields": {"note": "x"}}`))

	p := pipeline.New(gateway, defaultConfig())
	res, err := p.Run(context.Background(), testDoc(1))
	require.NoError(t, err)

	assert.Greater(t, res.ProcessingTime, 0.0)
}

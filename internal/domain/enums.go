package domain

// DocumentType is the closed set of document categories the extraction
// prompt asks the model to choose from.
type DocumentType string

const (
	DocTypeInvoice DocumentType = "invoice"
	DocTypeReceipt DocumentType = "receipt"
	DocTypeForm    DocumentType = "form"
	DocTypeTable   DocumentType = "table"
	DocTypeReport  DocumentType = "report"
	DocTypeLetter  DocumentType = "letter"
	DocTypeOther   DocumentType = "other"

	// DocTypeUnknown is never offered to the model; it marks pages where
	// classification failed or produced an unrecognized value.
	DocTypeUnknown DocumentType = "unknown"
)

// KnownDocumentTypes lists the types offered to the model, in prompt order.
var KnownDocumentTypes = []DocumentType{
	DocTypeInvoice,
	DocTypeReceipt,
	DocTypeForm,
	DocTypeTable,
	DocTypeReport,
	DocTypeLetter,
	DocTypeOther,
}

// IsKnownDocumentType reports whether t is one of the types offered to the model.
func IsKnownDocumentType(t DocumentType) bool {
	for _, k := range KnownDocumentTypes {
		if t == k {
			return true
		}
	}
	return false
}

// ParseStatus is the outcome of the parse degradation ladder for one page.
type ParseStatus string

const (
	ParseStatusClean        ParseStatus = "clean"
	ParseStatusRepairedJSON ParseStatus = "repaired_json"
	ParseStatusFallbackText ParseStatus = "fallback_text"
	ParseStatusFailed       ParseStatus = "failed"
)

// Degraded reports whether the page produced less than a strict parse.
func (s ParseStatus) Degraded() bool {
	return s != ParseStatusClean
}

// Outcome classifies the result of a single inference call. Expected failure
// modes are values here, not errors: downstream code branches on the outcome
// instead of unwrapping transport internals.
type Outcome string

const (
	OutcomeSuccess        Outcome = "success"
	OutcomeTimeout        Outcome = "timeout"
	OutcomeTransportError Outcome = "transport_error"
	OutcomeServerError    Outcome = "server_error"
)

// Retryable reports whether the orchestrator may re-issue the page call.
// A received-but-malformed response is a content problem, never retried.
func (o Outcome) Retryable() bool {
	return o == OutcomeTimeout || o == OutcomeTransportError
}

// JobStatus is the lifecycle of a queued extraction job.
type JobStatus string

const (
	JobStatusQueued     JobStatus = "queued"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// AllowedContentTypes is the set of accepted page image MIME types.
var AllowedContentTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
}

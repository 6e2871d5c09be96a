package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// PageImage is one rasterized page of a source document. Produced by the
// page source before the pipeline starts and never mutated afterwards.
type PageImage struct {
	Index       int
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// SourceDocument is an ordered page sequence plus source metadata, as
// delivered by the page source collaborator.
type SourceDocument struct {
	SourceName string
	TotalPages int
	Pages      []PageImage
}

// InferenceRequest carries everything the gateway needs for one page call.
// Built fresh per page; requests share no mutable state.
type InferenceRequest struct {
	PageIndex       int
	Prompt          string
	ImageData       []byte
	ImageMIMEType   string
	MaxOutputTokens int
	Temperature     float32
	Timeout         time.Duration
}

// InferenceResponse is the typed result of one gateway call. RawText is
// empty unless Outcome is OutcomeSuccess; Detail carries a short
// human-readable failure description for warnings and logs.
type InferenceResponse struct {
	PageIndex int
	RawText   string
	Latency   time.Duration
	Outcome   Outcome
	Detail    string
}

// PageResult is the validated per-page record produced by the response
// parser. Immutable once created; fusion only reads it.
//
// Invariant: ParseStatus == ParseStatusFailed implies Fields is empty and
// DocumentType is DocTypeUnknown.
type PageResult struct {
	PageIndex    int            `json:"page_index"`
	DocumentType DocumentType   `json:"document_type"`
	Fields       map[string]any `json:"fields"`
	ParseStatus  ParseStatus    `json:"parse_status"`
	RawText      string         `json:"raw_text,omitempty"`
}

// FusedField is a document-level field value with page provenance.
type FusedField struct {
	Value any `json:"value"`
	Page  int `json:"page"`
}

// FieldConflict records a value that disagreed with the fused one.
type FieldConflict struct {
	Page  int `json:"page"`
	Value any `json:"value"`
}

// DocumentResult is the terminal artifact of one pipeline run.
//
// Invariant: TotalPages == len(Pages). Confidence is non-increasing in the
// number of Failed or FallbackText pages.
type DocumentResult struct {
	DocumentType   DocumentType               `json:"document_type"`
	TotalPages     int                        `json:"total_pages"`
	Pages          []PageResult               `json:"pages"`
	FusedFields    map[string]FusedField      `json:"fused_fields"`
	Conflicts      map[string][]FieldConflict `json:"conflicts,omitempty"`
	Confidence     float64                    `json:"confidence"`
	Warnings       []string                   `json:"warnings"`
	ProcessingTime float64                    `json:"processing_time_seconds"`
}

// EnvelopePage is the per-page view in the output envelope.
type EnvelopePage struct {
	PageNumber  int            `json:"page_number"`
	Type        DocumentType   `json:"type"`
	ParseStatus ParseStatus    `json:"parse_status"`
	Fields      map[string]any `json:"fields"`
}

// ExtractedContent groups the per-page and fused views in the envelope.
type ExtractedContent struct {
	Pages       []EnvelopePage             `json:"pages"`
	FusedFields map[string]FusedField      `json:"fused_fields"`
	Conflicts   map[string][]FieldConflict `json:"conflicts,omitempty"`
}

// Envelope is the sole contract exposed to presentation layers (HTTP, CLI,
// exports). Assembled once from a DocumentResult and not mutated after.
type Envelope struct {
	DocumentType     DocumentType     `json:"document_type"`
	Confidence       float64          `json:"confidence"`
	TotalPages       int              `json:"total_pages"`
	ExtractedContent ExtractedContent `json:"extracted_content"`
	Warnings         []string         `json:"warnings"`
	ProcessingTime   float64          `json:"processing_time"`
}

// NewEnvelope projects a DocumentResult into the external envelope shape.
func NewEnvelope(res *DocumentResult) *Envelope {
	pages := make([]EnvelopePage, 0, len(res.Pages))
	for _, p := range res.Pages {
		pages = append(pages, EnvelopePage{
			PageNumber:  p.PageIndex + 1,
			Type:        p.DocumentType,
			ParseStatus: p.ParseStatus,
			Fields:      p.Fields,
		})
	}
	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}
	return &Envelope{
		DocumentType: res.DocumentType,
		Confidence:   res.Confidence,
		TotalPages:   res.TotalPages,
		ExtractedContent: ExtractedContent{
			Pages:       pages,
			FusedFields: res.FusedFields,
			Conflicts:   res.Conflicts,
		},
		Warnings:       warnings,
		ProcessingTime: res.ProcessingTime,
	}
}

// ExtractionJob is a queued extraction request persisted between submission
// and completion. Page images live in object storage under PageKeyPrefix.
type ExtractionJob struct {
	ID            uuid.UUID `db:"id" json:"id"`
	SourceName    string    `db:"source_name" json:"source_name"`
	PageCount     int       `db:"page_count" json:"page_count"`
	S3Bucket      string    `db:"s3_bucket" json:"-"`
	PageKeyPrefix string    `db:"page_key_prefix" json:"-"`
	// ContentTypes holds one MIME type per page, comma separated, in page
	// order. Kept as a flat column to spare a join for a tiny list.
	ContentTypes string          `db:"content_types" json:"-"`
	Status       JobStatus       `db:"status" json:"status"`
	Attempts     int             `db:"attempts" json:"attempts"`
	Result       json.RawMessage `db:"result" json:"result,omitempty"`
	Error        string          `db:"error" json:"error,omitempty"`
	RetryAfter   *time.Time      `db:"retry_after" json:"retry_after,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"doculens/internal/cache/redis"
	"doculens/internal/config"
	"doculens/internal/domain"
	"doculens/internal/pagesource"
	"doculens/internal/pipeline"
	"doculens/internal/port"
)

// SubmitInput is the DTO for extraction submissions, synchronous or queued.
// Pages are raster page images in page order; SourcePDF is the optional
// original document used only for a page-count cross-check.
type SubmitInput struct {
	SourceName   string
	Pages        [][]byte
	ContentTypes []string
	SourcePDF    []byte
}

// ExtractionService defines the document extraction contract.
type ExtractionService interface {
	Submit(ctx context.Context, input SubmitInput) (*domain.ExtractionJob, error)
	ProcessSync(ctx context.Context, input SubmitInput) (*domain.Envelope, error)
	GetJob(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error)
	GetEnvelope(ctx context.Context, id uuid.UUID) (*domain.Envelope, string, error)
	ListJobs(ctx context.Context, offset, limit int) ([]domain.ExtractionJob, int, error)
	ProcessJob(ctx context.Context, job *domain.ExtractionJob)
}

type extractionService struct {
	jobRepo  port.JobRepository
	storage  port.ObjectStorage
	source   port.PageSource
	pipeline *pipeline.Pipeline
	cache    port.ResultCache // nil when caching is disabled
	s3Cfg    *config.S3Config
	queueCfg *config.QueueConfig
	model    string
}

// NewExtractionService creates a new ExtractionService implementation.
// cache may be nil.
func NewExtractionService(
	jobRepo port.JobRepository,
	storage port.ObjectStorage,
	source port.PageSource,
	pipe *pipeline.Pipeline,
	cache port.ResultCache,
	cfg *config.Config,
) ExtractionService {
	return &extractionService{
		jobRepo:  jobRepo,
		storage:  storage,
		source:   source,
		pipeline: pipe,
		cache:    cache,
		s3Cfg:    &cfg.S3,
		queueCfg: &cfg.Queue,
		model:    cfg.Inference.Model,
	}
}

func (s *extractionService) validate(input SubmitInput) error {
	if len(input.Pages) == 0 {
		return domain.ErrNoPages
	}
	maxBytes := s.s3Cfg.MaxFileSizeMB * 1024 * 1024
	for i, page := range input.Pages {
		if int64(len(page)) > maxBytes {
			return fmt.Errorf("page %d: %w", i+1, domain.ErrFileTooLarge)
		}
		if !domain.AllowedContentTypes[input.ContentTypes[i]] {
			return fmt.Errorf("page %d: %w (%s)", i+1, domain.ErrUnsupportedFileType, input.ContentTypes[i])
		}
	}
	return nil
}

// Submit stores page images in object storage and enqueues an extraction job.
func (s *extractionService) Submit(ctx context.Context, input SubmitInput) (*domain.ExtractionJob, error) {
	if len(input.ContentTypes) != len(input.Pages) {
		return nil, fmt.Errorf("%d pages but %d content types", len(input.Pages), len(input.ContentTypes))
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}

	jobID := uuid.New()
	prefix := fmt.Sprintf("jobs/%s/pages", jobID)

	log.Printf("extractionService.Submit: job %s (%s, %d pages)", jobID, input.SourceName, len(input.Pages))

	for i, page := range input.Pages {
		_, err := s.storage.Upload(ctx, port.UploadInput{
			Bucket:      s.s3Cfg.Bucket,
			Key:         pageKey(prefix, i),
			Body:        bytes.NewReader(page),
			ContentType: input.ContentTypes[i],
		})
		if err != nil {
			log.Printf("extractionService.Submit: page %d upload failed for job %s: %v", i+1, jobID, err)
			return nil, domain.ErrUploadFailed
		}
	}

	job := &domain.ExtractionJob{
		ID:            jobID,
		SourceName:    input.SourceName,
		PageCount:     len(input.Pages),
		S3Bucket:      s.s3Cfg.Bucket,
		PageKeyPrefix: prefix,
		ContentTypes:  strings.Join(input.ContentTypes, ","),
		Status:        domain.JobStatusQueued,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("creating extraction job: %w", err)
	}
	return job, nil
}

// ProcessSync runs the extraction inline and returns the envelope.
func (s *extractionService) ProcessSync(ctx context.Context, input SubmitInput) (*domain.Envelope, error) {
	if len(input.ContentTypes) != len(input.Pages) {
		return nil, fmt.Errorf("%d pages but %d content types", len(input.Pages), len(input.ContentTypes))
	}
	if err := s.validate(input); err != nil {
		return nil, err
	}
	return s.runExtraction(ctx, input)
}

func (s *extractionService) GetJob(ctx context.Context, id uuid.UUID) (*domain.ExtractionJob, error) {
	return s.jobRepo.GetByID(ctx, id)
}

// GetEnvelope returns the stored result envelope of a completed job along
// with the job's source name.
func (s *extractionService) GetEnvelope(ctx context.Context, id uuid.UUID) (*domain.Envelope, string, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if job.Status != domain.JobStatusCompleted || len(job.Result) == 0 {
		return nil, "", domain.ErrJobNotCompleted
	}

	var env domain.Envelope
	if err := json.Unmarshal(job.Result, &env); err != nil {
		return nil, "", fmt.Errorf("unmarshaling stored envelope for job %s: %w", job.ID, err)
	}
	return &env, job.SourceName, nil
}

func (s *extractionService) ListJobs(ctx context.Context, offset, limit int) ([]domain.ExtractionJob, int, error) {
	return s.jobRepo.List(ctx, offset, limit)
}

// ProcessJob downloads the job's page images and runs the extraction,
// recording the terminal status on the job row. Called by the queue worker;
// the job is already claimed (status processing, attempts incremented).
func (s *extractionService) ProcessJob(ctx context.Context, job *domain.ExtractionJob) {
	input := SubmitInput{SourceName: job.SourceName}
	if job.ContentTypes != "" {
		input.ContentTypes = strings.Split(job.ContentTypes, ",")
	}
	for i := 0; i < job.PageCount; i++ {
		data, err := s.storage.Download(ctx, job.S3Bucket, pageKey(job.PageKeyPrefix, i))
		if err != nil {
			s.failJob(ctx, job, fmt.Errorf("downloading page %d: %w", i+1, err))
			return
		}
		input.Pages = append(input.Pages, data)
	}

	env, err := s.runExtraction(ctx, input)
	if err != nil {
		s.failJob(ctx, job, err)
		return
	}

	result, err := json.Marshal(env)
	if err != nil {
		s.failJob(ctx, job, fmt.Errorf("marshaling envelope: %w", err))
		return
	}

	job.Status = domain.JobStatusCompleted
	job.Result = result
	job.Error = ""
	job.RetryAfter = nil
	if err := s.jobRepo.Update(ctx, job); err != nil {
		log.Printf("extractionService.ProcessJob: failed to store result for job %s: %v", job.ID, err)
		return
	}
	log.Printf("extractionService.ProcessJob: job %s completed (confidence=%.2f)", job.ID, env.Confidence)
}

// failJob requeues the job with a backoff, or marks it failed once attempts
// are exhausted.
func (s *extractionService) failJob(ctx context.Context, job *domain.ExtractionJob, cause error) {
	job.Error = cause.Error()
	if job.Attempts >= s.queueCfg.MaxAttempts {
		job.Status = domain.JobStatusFailed
		job.RetryAfter = nil
		log.Printf("extractionService.ProcessJob: job %s failed permanently after %d attempts: %v",
			job.ID, job.Attempts, cause)
	} else {
		backoff := time.Duration(job.Attempts) * time.Minute
		retryAt := time.Now().Add(backoff)
		job.Status = domain.JobStatusQueued
		job.RetryAfter = &retryAt
		log.Printf("extractionService.ProcessJob: job %s attempt %d failed, retrying after %s: %v",
			job.ID, job.Attempts, backoff, cause)
	}
	if err := s.jobRepo.Update(ctx, job); err != nil {
		log.Printf("extractionService.ProcessJob: failed to update job %s: %v", job.ID, err)
	}
}

// runExtraction is the shared sync/queued path: cache lookup, page load,
// pipeline run, page-count cross-check, cache store.
func (s *extractionService) runExtraction(ctx context.Context, input SubmitInput) (*domain.Envelope, error) {
	var cacheKey string
	if s.cache != nil {
		cacheKey = redis.Key(input.Pages, s.model)
		if env, ok, err := s.cache.Get(ctx, cacheKey); err != nil {
			log.Printf("extractionService: cache lookup failed: %v", err)
		} else if ok {
			log.Printf("extractionService: cache hit for %s", input.SourceName)
			return env, nil
		}
	}

	doc, err := s.source.Load(ctx, input.SourceName, input.Pages, input.ContentTypes)
	if err != nil {
		return nil, err
	}

	res, err := s.pipeline.Run(ctx, doc)
	if err != nil {
		return nil, err
	}

	if len(input.SourcePDF) > 0 {
		if n, err := pagesource.PDFPageCount(input.SourcePDF); err != nil {
			res.Warnings = append(res.Warnings, fmt.Sprintf("source pdf unreadable: %v", err))
		} else if n != len(input.Pages) {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("source pdf has %d pages but %d page images were uploaded", n, len(input.Pages)))
		}
	}

	env := domain.NewEnvelope(res)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, env); err != nil {
			log.Printf("extractionService: cache store failed: %v", err)
		}
	}
	return env, nil
}

func pageKey(prefix string, index int) string {
	return fmt.Sprintf("%s/page-%04d", prefix, index)
}

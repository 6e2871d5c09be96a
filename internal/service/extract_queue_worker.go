package service

import (
	"context"
	"log"
	"sync"
	"time"

	"doculens/internal/port"
)

// ExtractQueueConfig holds settings for the extraction queue worker.
type ExtractQueueConfig struct {
	PollInterval time.Duration
	Concurrency  int
}

// ExtractQueueWorker polls for queued extraction jobs and dispatches them.
type ExtractQueueWorker struct {
	jobRepo port.JobRepository
	svc     ExtractionService
	cfg     ExtractQueueConfig
	wg      sync.WaitGroup
}

// NewExtractQueueWorker creates a new ExtractQueueWorker.
func NewExtractQueueWorker(jobRepo port.JobRepository, svc ExtractionService, cfg ExtractQueueConfig) *ExtractQueueWorker {
	return &ExtractQueueWorker{
		jobRepo: jobRepo,
		svc:     svc,
		cfg:     cfg,
	}
}

// Start runs the polling loop until ctx is canceled. It blocks until all
// in-flight extractions have finished.
func (w *ExtractQueueWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	sem := make(chan struct{}, w.cfg.Concurrency)

	log.Printf("extractQueueWorker: started (poll=%s, concurrency=%d)",
		w.cfg.PollInterval, w.cfg.Concurrency)

	for {
		select {
		case <-ctx.Done():
			log.Printf("extractQueueWorker: shutting down, waiting for in-flight extractions...")
			w.wg.Wait()
			log.Printf("extractQueueWorker: shutdown complete")
			return
		case <-ticker.C:
			available := w.cfg.Concurrency - len(sem)
			if available <= 0 {
				continue
			}

			jobs, err := w.jobRepo.ClaimQueued(ctx, available)
			if err != nil {
				if ctx.Err() != nil {
					continue
				}
				log.Printf("extractQueueWorker: ClaimQueued error: %v", err)
				continue
			}

			for i := range jobs {
				job := jobs[i] // copy for goroutine

				sem <- struct{}{} // acquire
				w.wg.Add(1)
				go func() {
					defer w.wg.Done()
					defer func() { <-sem }() // release

					// Use a fresh context independent of the poll context
					// so in-flight extractions complete even during shutdown.
					jobCtx, cancel := context.WithTimeout(context.Background(), 15*time.Minute)
					defer cancel()

					log.Printf("extractQueueWorker: dispatching job %s (attempt %d)", job.ID, job.Attempts)
					w.svc.ProcessJob(jobCtx, &job)
				}()
			}
		}
	}
}

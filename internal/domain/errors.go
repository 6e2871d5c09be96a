package domain

import "errors"

var (
	ErrNotFound            = errors.New("resource not found")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
	ErrNoPages             = errors.New("document contains no pages")
	ErrUploadFailed        = errors.New("page upload to storage failed")
	ErrJobNotCompleted     = errors.New("extraction job has not completed")
	ErrInvalidExportFormat = errors.New("invalid export format")
	ErrCancelled           = errors.New("document processing cancelled")
)

package domain

import "fmt"

// DownloadError means a source asset could not be fetched.
type DownloadError struct {
	URL string
	Err error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download %s: %v", e.URL, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// UploadError means the destination blob store rejected an upload.
type UploadError struct {
	URL string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.URL, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ValidationError means an assembled record does not conform to the
// destination schema. It is terminal for the affected status.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record validation: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SubmissionError means the destination post API rejected the record.
type SubmissionError struct {
	Err error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit post: %v", e.Err)
}

func (e *SubmissionError) Unwrap() error { return e.Err }

package pipeline

import "fmt"

// ProduceError reports a failed or empty archive for one source. The source
// is skipped; remaining sources still run.
type ProduceError struct {
	Source string
	Err    error
}

func (e *ProduceError) Error() string {
	return fmt.Sprintf("producing archive for source %s: %v", e.Source, e.Err)
}

func (e *ProduceError) Unwrap() error { return e.Err }

// UploadError reports a failed upload of one archive to one tier. Other
// tiers of the same archive are still attempted.
type UploadError struct {
	Source string
	Tier   string
	Key    string
	Err    error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("uploading %s for source %s to %s tier: %v", e.Key, e.Source, e.Tier, e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ListError reports a failed listing of one tier. That tier's cleanup is
// abandoned; other tiers still run.
type ListError struct {
	Tier string
	Err  error
}

func (e *ListError) Error() string {
	return fmt.Sprintf("listing %s tier: %v", e.Tier, e.Err)
}

func (e *ListError) Unwrap() error { return e.Err }

// DeleteError reports a failed deletion of one expired object. Remaining
// deletions still run.
type DeleteError struct {
	Tier string
	Key  string
	Err  error
}

func (e *DeleteError) Error() string {
	return fmt.Sprintf("deleting %s from %s tier: %v", e.Key, e.Tier, e.Err)
}

func (e *DeleteError) Unwrap() error { return e.Err }

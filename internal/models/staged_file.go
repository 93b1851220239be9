package models

// StagedFile describes one multipart file part written to the local
// temp directory before the orchestrator runs. The orchestrator owns
// the file for the duration of the request and unlinks it on exit.
type StagedFile struct {
	LocalPath    string
	MimeType     string
	OriginalName string
	Size         int64
}

package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"bookstore-backend/internal/models"
)

// stageFormFile copies one multipart file part into the temp
// directory and returns its staged descriptor. A missing part is not
// an error; presence is the orchestrator's call.
func stageFormFile(r *http.Request, field, tempDir string) (*models.StagedFile, error) {
	file, header, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read form file %q: %w", field, err)
	}
	defer file.Close()

	// uuid-named so concurrent requests never collide
	localPath := filepath.Join(tempDir, uuid.New().String()+filepath.Ext(header.Filename))
	out, err := os.Create(localPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}

	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		os.Remove(localPath)
		return nil, fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(localPath)
		return nil, fmt.Errorf("failed to close staged file: %w", err)
	}

	return &models.StagedFile{
		LocalPath:    localPath,
		MimeType:     header.Header.Get("Content-Type"),
		OriginalName: header.Filename,
		Size:         header.Size,
	}, nil
}

// discardStaged unlinks staged files after a staging-phase failure,
// before the orchestrator has taken ownership.
func discardStaged(files ...*models.StagedFile) {
	for _, f := range files {
		if f != nil {
			os.Remove(f.LocalPath)
		}
	}
}

package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/scribe/pkg/domain"
)

// DefaultDir is used when New receives an empty path.
var DefaultDir = filepath.Join(".scribe", "documents")

// DocumentStore implements ports.DocumentStore using the local filesystem.
// It stores one JSON file per document in a configured directory, so the
// archive survives restarts and can be read by other processes.
type DocumentStore struct {
	BasePath string
}

// New creates a new DocumentStore rooted at basePath.
func New(basePath string) *DocumentStore {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &DocumentStore{BasePath: basePath}
}

func (s *DocumentStore) path(id string) (string, error) {
	if id == "" {
		return "", errors.New("document id cannot be empty")
	}
	if strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("invalid document id %q", id)
	}
	return filepath.Join(s.BasePath, id+".json"), nil
}

// Save writes the record atomically: a temp file in the same directory is
// synced and then renamed over the destination.
func (s *DocumentStore) Save(ctx context.Context, rec domain.DocumentRecord) error {
	destPath, err := s.path(rec.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure document directory: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+rec.ID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	// Windows refuses to rename over an existing file.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace document file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// Load retrieves a document from its JSON file.
func (s *DocumentStore) Load(ctx context.Context, id string) (domain.DocumentRecord, error) {
	filePath, err := s.path(id)
	if err != nil {
		return domain.DocumentRecord{}, err
	}
	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return domain.DocumentRecord{}, domain.ErrDocumentNotFound
	}
	if err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("failed to read document file: %w", err)
	}

	var rec domain.DocumentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return domain.DocumentRecord{}, fmt.Errorf("failed to unmarshal document %s: %w", id, err)
	}
	return rec, nil
}

// Delete removes the document file.
func (s *DocumentStore) Delete(ctx context.Context, id string) error {
	filePath, err := s.path(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete document file: %w", err)
	}
	return nil
}

// List returns archived document IDs, oldest first. Unreadable files are
// skipped.
func (s *DocumentStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if errors.Is(err, os.ErrNotExist) {
		return []string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}

	recs := make([]domain.DocumentRecord, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".json" || strings.HasPrefix(name, "tmp-") {
			continue
		}
		rec, err := s.Load(ctx, strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		recs = append(recs, rec)
	}

	sort.Slice(recs, func(i, j int) bool {
		if recs[i].CompletedAt.Equal(recs[j].CompletedAt) {
			return recs[i].ID < recs[j].ID
		}
		return recs[i].CompletedAt.Before(recs[j].CompletedAt)
	})
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.ID
	}
	return ids, nil
}

package ports

import (
	"context"

	"github.com/aretw0/scribe/pkg/domain"
)

// DocumentStore defines the archive of finished documents.
type DocumentStore interface {
	// Save persists a finished document under record.ID.
	Save(ctx context.Context, record domain.DocumentRecord) error

	// Load retrieves a document by ID.
	// Returns domain.ErrDocumentNotFound if the document does not exist.
	Load(ctx context.Context, id string) (domain.DocumentRecord, error)

	// Delete removes a document. Deleting a missing document is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all archived documents.
	List(ctx context.Context) ([]string, error)
}

package ports

import "context"

// A raw stored document: its key plus loosely-typed field data.
type Document struct {
	ID   string
	Data map[string]any
}

// Port: a boundary for a collection-oriented document database.
// Failures are *domain.StoreError values categorized by domain error sentinels.
type DocumentStore interface {
	// Return every document in the collection.
	GetAll(ctx context.Context, collection string) ([]Document, error)
	// Return a single document, or an error matching domain.ErrNotFound.
	Get(ctx context.Context, collection, id string) (Document, error)
	// Write a document. With merge, top-level fields missing from data are
	// preserved and the ones present replace the stored value whole.
	// Implementations stamp updatedAt always and createdAt when merge is false.
	Set(ctx context.Context, collection, id string, data map[string]any, merge bool) error
	// Remove a document.
	Delete(ctx context.Context, collection, id string) error
	// Return documents whose top-level field equals value.
	FindBy(ctx context.Context, collection, field string, value any) ([]Document, error)
}

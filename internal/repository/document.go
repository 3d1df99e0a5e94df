// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"
	"fmt"

	"folio/internal/cache"
	"folio/internal/content"
	"folio/internal/models"
	"folio/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when a document or post does not exist.
var ErrNotFound = errors.New("not found")

// SaveOptions controls how Save combines doc with the stored document.
type SaveOptions struct {
	// Merge keeps stored fields that doc does not mention. Without it the
	// stored document is replaced.
	Merge bool
}

// DocumentRepository reads and writes named documents grouped in collections.
type DocumentRepository interface {
	Get(ctx context.Context, collection, id string) (content.Document, error)
	Save(ctx context.Context, collection, id string, doc content.Document, opts SaveOptions) (content.Document, error)
}

type documentRepository struct {
	db    *gorm.DB
	cache *cache.Cache
}

// NewDocumentRepository creates a document repository. c may be nil.
func NewDocumentRepository(db *gorm.DB, c *cache.Cache) DocumentRepository {
	return &documentRepository{db: db, cache: c}
}

func (r *documentRepository) Get(ctx context.Context, collection, id string) (content.Document, error) {
	defer observability.TrackQuery("get", "documents")()

	var doc content.Document
	err := r.cache.Aside(ctx, cache.DocumentKey(collection, id), &doc, cache.DocumentTTL, func() error {
		loaded, err := r.load(r.db.WithContext(ctx), collection, id)
		if err != nil {
			return err
		}
		doc = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *documentRepository) Save(ctx context.Context, collection, id string, doc content.Document, opts SaveOptions) (content.Document, error) {
	defer observability.TrackQuery("save", "documents")()

	var stored content.Document
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		stored = doc
		if opts.Merge {
			existing, err := r.load(tx, collection, id)
			switch {
			case errors.Is(err, ErrNotFound):
			case err != nil:
				return err
			default:
				stored = content.Merge(existing, doc)
			}
		}

		data, err := content.Encode(stored)
		if err != nil {
			return err
		}
		row := models.StoredDocument{Collection: collection, DocID: id, Data: string(data)}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "doc_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).Create(&row).Error
	})
	if err != nil {
		return nil, fmt.Errorf("save %s/%s: %w", collection, id, err)
	}

	r.cache.InvalidateDocument(ctx, collection, id)
	return stored, nil
}

func (r *documentRepository) load(db *gorm.DB, collection, id string) (content.Document, error) {
	var row models.StoredDocument
	err := db.Where("collection = ? AND doc_id = ?", collection, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("document %s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return content.Decode([]byte(row.Data))
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"folio/internal/content"
	"folio/internal/models"
	"folio/internal/observability"
	"folio/internal/repository"
	"folio/internal/validation"

	"go.opentelemetry.io/otel/attribute"
)

// Editor operation types.
const (
	OpSet            = "set"
	OpAddCategory    = "add_category"
	OpRemoveCategory = "remove_category"
	OpAddItem        = "add_item"
	OpRemoveItem     = "remove_item"
	OpReorderItems   = "reorder_items"
	OpMoveItem       = "move_item"
)

// Operation is one editor command. Which fields apply depends on Type.
type Operation struct {
	Type string `json:"type"`
	// Base names the mapping holding the categories. Empty is the document root.
	Base content.Path `json:"base"`
	// Path and Value are used by set.
	Path  content.Path `json:"path"`
	Value any          `json:"value"`
	// Category is the category operated on, or the source of a move.
	Category string `json:"category"`
	// Name is the category created or removed.
	Name      string `json:"name"`
	Confirmed bool   `json:"confirmed"`
	Index     int    `json:"index"`
	From      int    `json:"from"`
	To        int    `json:"to"`
	// Target is the destination category of a move.
	Target string `json:"target"`
}

// OpRequest carries the editor's current document and the operation to apply.
// A nil Document applies the operation to the stored document.
type OpRequest struct {
	Document content.Document `json:"document"`
	Active   string           `json:"active"`
	Op       Operation        `json:"op"`
}

// OpResult is the document after an operation.
type OpResult struct {
	Document   content.Document `json:"document"`
	Active     string           `json:"active"`
	Changed    bool             `json:"changed"`
	Categories []string         `json:"categories"`
}

// FeaturedRequest toggles the featured flag of one item.
type FeaturedRequest struct {
	Document content.Document `json:"document"`
	Base     content.Path     `json:"base"`
	Category string           `json:"category"`
	Index    int              `json:"index"`
}

// FeaturedResult is the persisted document after a toggle.
type FeaturedResult struct {
	Document content.Document `json:"document"`
	Featured bool             `json:"featured"`
	Count    int              `json:"count"`
	Cap      int              `json:"cap"`
}

// ImageRequest uploads a file and stores its URL at Path.
type ImageRequest struct {
	Path   content.Path
	Upload UploadInput
}

// ImageResult is the persisted document after an image upload.
type ImageResult struct {
	Document content.Document `json:"document"`
	Upload   *UploadResult    `json:"upload"`
}

// ContentService reads and edits the named content documents.
type ContentService struct {
	docs   repository.DocumentRepository
	media  *MediaService
	logger *slog.Logger
}

// NewContentService creates a content service. media may be nil when uploads are disabled.
func NewContentService(docs repository.DocumentRepository, media *MediaService, logger *slog.Logger) *ContentService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContentService{docs: docs, media: media, logger: logger}
}

// Schema returns the schema of a named document.
func (s *ContentService) Schema(name string) (*content.Schema, error) {
	if err := validation.ValidateDocumentName(name); err != nil {
		return nil, models.NewNotFoundError("Document", name)
	}
	schema, _ := content.Lookup(name)
	return schema, nil
}

// Get returns a stored document, or its default shape when none is stored.
// Nothing is written.
func (s *ContentService) Get(ctx context.Context, name string) (content.Document, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	doc, err := s.docs.Get(ctx, content.Collection, name)
	if errors.Is(err, repository.ErrNotFound) {
		return schema.Default(), nil
	}
	if err != nil {
		return nil, translate(err)
	}
	return doc, nil
}

// GetForEditor returns a stored document and seeds the default shape on first read.
func (s *ContentService) GetForEditor(ctx context.Context, name string) (content.Document, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	doc, err := s.docs.Get(ctx, content.Collection, name)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, translate(err)
	}

	s.logger.InfoContext(ctx, "seeding content document", "document", name)
	seeded, err := s.docs.Save(ctx, content.Collection, name, schema.Default(), repository.SaveOptions{})
	if err != nil {
		return nil, translate(err)
	}
	return seeded, nil
}

// Save validates doc against its schema and writes it. merge overrides the
// document type's save policy when non-nil.
func (s *ContentService) Save(ctx context.Context, name string, doc content.Document, merge *bool) (content.Document, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, models.NewValidationError("document is required")
	}
	if err := schema.Validate(doc); err != nil {
		return nil, translate(err)
	}
	opts := repository.SaveOptions{Merge: schema.MergeOnSave}
	if merge != nil {
		opts.Merge = *merge
	}
	return s.save(ctx, schema, doc, opts)
}

func (s *ContentService) save(ctx context.Context, schema *content.Schema, doc content.Document, opts repository.SaveOptions) (saved content.Document, err error) {
	mode := "overwrite"
	if opts.Merge {
		mode = "merge"
	}
	ctx, span := observability.StartSpan(ctx, "content", "save",
		attribute.String("document", schema.Name),
		attribute.String("mode", mode),
	)
	defer func() {
		observability.DocumentSaves.WithLabelValues(schema.Name, mode, observability.OutcomeOf(err)).Inc()
		span.End(err)
	}()

	saved, err = s.docs.Save(ctx, content.Collection, schema.Name, doc, opts)
	if err != nil {
		s.logger.ErrorContext(ctx, "document save failed", "document", schema.Name, "mode", mode, "error", err)
		return nil, translate(err)
	}
	return saved, nil
}

// Apply runs one editor operation and returns the new document. It does not persist.
func (s *ContentService) Apply(ctx context.Context, name string, req OpRequest) (*OpResult, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	doc := req.Document
	if doc == nil {
		if doc, err = s.GetForEditor(ctx, name); err != nil {
			return nil, err
		}
	} else if err := schema.Validate(doc); err != nil {
		return nil, translate(err)
	}

	editor := content.NewEditor(schema, doc, nil)
	editor.Active = req.Active
	op := req.Op
	changed := true

	switch op.Type {
	case OpSet:
		err = editor.Set(op.Path, op.Value)
	case OpAddCategory:
		changed, err = editor.AddCategory(op.Base, op.Name)
	case OpRemoveCategory:
		err = editor.RemoveCategory(op.Base, op.Name, op.Confirmed)
	case OpAddItem:
		err = editor.AddItem(op.Base, op.Category)
	case OpRemoveItem:
		err = editor.RemoveItem(op.Base, op.Category, op.Index)
	case OpReorderItems:
		err = editor.ReorderItems(op.Base, op.Category, op.From, op.To)
	case OpMoveItem:
		err = editor.MoveItemToCategory(op.Base, op.Category, op.Index, op.Target)
	default:
		return nil, models.NewValidationError(fmt.Sprintf("unknown operation %q", op.Type))
	}
	if err != nil {
		return nil, translate(err)
	}

	return &OpResult{
		Document:   editor.Doc,
		Active:     editor.Active,
		Changed:    changed,
		Categories: editor.Categories(op.Base),
	}, nil
}

// ToggleFeatured flips one item's featured flag and persists the document.
// When the save fails the error is returned and nothing is stored.
func (s *ContentService) ToggleFeatured(ctx context.Context, name string, req FeaturedRequest) (result *FeaturedResult, err error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	defer func() {
		observability.FeaturedToggles.WithLabelValues(name, toggleOutcome(err)).Inc()
	}()

	doc := req.Document
	if doc == nil {
		if doc, err = s.GetForEditor(ctx, name); err != nil {
			return nil, err
		}
	} else if err := schema.Validate(doc); err != nil {
		return nil, translate(err)
	}

	var saved content.Document
	sink := content.SinkFunc(func(ctx context.Context, next content.Document) error {
		var saveErr error
		saved, saveErr = s.save(ctx, schema, next, repository.SaveOptions{Merge: schema.MergeOnSave})
		return saveErr
	})

	editor := content.NewEditor(schema, doc, sink)
	featured, err := editor.ToggleFeatured(ctx, req.Base, req.Category, req.Index)
	if err != nil {
		return nil, translate(err)
	}
	return &FeaturedResult{
		Document: saved,
		Featured: featured,
		Count:    content.CountFeatured(saved),
		Cap:      schema.FeaturedCap,
	}, nil
}

func toggleOutcome(err error) string {
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code == models.CodeConflict {
		return "cap_reached"
	}
	return observability.OutcomeOf(err)
}

// UploadImage stores a file and writes its URL at req.Path of the stored
// document. If the save fails the uploaded object is left in place.
func (s *ContentService) UploadImage(ctx context.Context, name string, req ImageRequest) (*ImageResult, error) {
	schema, err := s.Schema(name)
	if err != nil {
		return nil, err
	}
	if s.media == nil {
		return nil, models.NewInternalError(errors.New("media storage is not configured"))
	}
	if len(req.Path) == 0 {
		return nil, models.NewValidationError("path is required")
	}

	doc, err := s.GetForEditor(ctx, name)
	if err != nil {
		return nil, err
	}
	// Resolve the target before uploading so a bad path does not leave an orphan.
	updated, err := content.SetAtPath(doc, req.Path, "")
	if err != nil {
		return nil, translate(err)
	}

	req.Upload.Scope = name
	uploaded, err := s.media.Upload(ctx, req.Upload)
	if err != nil {
		return nil, err
	}

	updated, err = content.SetAtPath(updated, req.Path, uploaded.URL)
	if err != nil {
		return nil, translate(err)
	}
	saved, err := s.save(ctx, schema, updated, repository.SaveOptions{Merge: schema.MergeOnSave})
	if err != nil {
		s.logger.WarnContext(ctx, "uploaded object orphaned by failed save",
			"document", name, "path", req.Path.String(), "object", uploaded.Path)
		return nil, err
	}
	return &ImageResult{Document: saved, Upload: uploaded}, nil
}

// Home returns the typed homepage settings.
func (s *ContentService) Home(ctx context.Context) (*models.HomeSettings, error) {
	doc, err := s.Get(ctx, content.DocHome)
	if err != nil {
		return nil, err
	}
	var home models.HomeSettings
	if err := convert(doc, &home); err != nil {
		return nil, translate(fmt.Errorf("decode home settings: %w", err))
	}
	if home.FeaturedHobbies == nil {
		home.FeaturedHobbies = []models.Hobby{}
	}
	if home.NowLearning == nil {
		home.NowLearning = []string{}
	}
	return &home, nil
}

// SaveHome validates and merge-saves the homepage settings.
func (s *ContentService) SaveHome(ctx context.Context, home *models.HomeSettings) (*models.HomeSettings, error) {
	if err := validation.ValidateHomeSettings(home); err != nil {
		return nil, translate(err)
	}
	var doc content.Document
	if err := convert(home, &doc); err != nil {
		return nil, translate(fmt.Errorf("encode home settings: %w", err))
	}
	merge := true
	saved, err := s.Save(ctx, content.DocHome, doc, &merge)
	if err != nil {
		return nil, err
	}
	var out models.HomeSettings
	if err := convert(saved, &out); err != nil {
		return nil, translate(fmt.Errorf("decode home settings: %w", err))
	}
	return &out, nil
}

func convert(from, to any) error {
	data, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, to)
}

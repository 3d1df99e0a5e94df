package service

import (
	"context"
	"sync"

	"folio/internal/content"
	"folio/internal/models"
	"folio/internal/repository"
)

// docRepoStub is an in-memory repository.DocumentRepository.
type docRepoStub struct {
	mu      sync.Mutex
	docs    map[string]content.Document
	saves   []repository.SaveOptions
	saveErr error
	getErr  error
}

func newDocRepoStub() *docRepoStub {
	return &docRepoStub{docs: map[string]content.Document{}}
}

func (s *docRepoStub) Get(_ context.Context, _, id string) (content.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return nil, s.getErr
	}
	doc, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doc, nil
}

func (s *docRepoStub) Save(_ context.Context, _, id string, doc content.Document, opts repository.SaveOptions) (content.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return nil, s.saveErr
	}
	s.saves = append(s.saves, opts)
	stored := doc
	if existing, ok := s.docs[id]; ok && opts.Merge {
		stored = content.Merge(existing, doc)
	}
	s.docs[id] = stored
	return stored, nil
}

// postRepoStub is a stub for repository.PostRepository.
type postRepoStub struct {
	createFn  func(context.Context, *models.Post) error
	getByIDFn func(context.Context, uint) (*models.Post, error)
	listFn    func(context.Context, int, int) ([]*models.Post, error)
	updateFn  func(context.Context, *models.Post) error
	deleteFn  func(context.Context, uint) error
}

func (s *postRepoStub) Create(ctx context.Context, post *models.Post) error {
	return s.createFn(ctx, post)
}
func (s *postRepoStub) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	return s.getByIDFn(ctx, id)
}
func (s *postRepoStub) List(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	return s.listFn(ctx, limit, offset)
}
func (s *postRepoStub) Update(ctx context.Context, post *models.Post) error {
	return s.updateFn(ctx, post)
}
func (s *postRepoStub) Delete(ctx context.Context, id uint) error {
	return s.deleteFn(ctx, id)
}

func noopPostRepo() *postRepoStub {
	return &postRepoStub{
		createFn:  func(_ context.Context, _ *models.Post) error { return nil },
		getByIDFn: func(_ context.Context, _ uint) (*models.Post, error) { return &models.Post{}, nil },
		listFn:    func(_ context.Context, _, _ int) ([]*models.Post, error) { return nil, nil },
		updateFn:  func(_ context.Context, _ *models.Post) error { return nil },
		deleteFn:  func(_ context.Context, _ uint) error { return nil },
	}
}

// objectStoreStub records uploads in memory.
type objectStoreStub struct {
	mu        sync.Mutex
	objects   map[string][]byte
	deleted   []string
	uploadErr error
}

func newObjectStoreStub() *objectStoreStub {
	return &objectStoreStub{objects: map[string][]byte{}}
}

func (s *objectStoreStub) Upload(_ context.Context, objectPath string, data []byte, _ string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.uploadErr != nil {
		return "", s.uploadErr
	}
	s.objects[objectPath] = data
	return "/media/" + objectPath, nil
}

func (s *objectStoreStub) Delete(_ context.Context, objectPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, objectPath)
	s.deleted = append(s.deleted, objectPath)
	return nil
}

// committerStub records committed files.
type committerStub struct {
	files    map[string][]byte
	messages []string
	err      error
}

func (c *committerStub) CommitFile(_ context.Context, filePath string, data []byte, message string) error {
	if c.err != nil {
		return c.err
	}
	if c.files == nil {
		c.files = map[string][]byte{}
	}
	c.files[filePath] = data
	c.messages = append(c.messages, message)
	return nil
}

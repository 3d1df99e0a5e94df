// Package seed provides database seeding utilities for development and demos.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"folio/internal/content"
	"folio/internal/models"
	"folio/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DemoAuthorID is the author recorded on seeded posts when none is given.
const DemoAuthorID = "demo-author"

// Options configuration for the seeder
type Options struct {
	NumPosts int
	AuthorID string
	// Demo fills the category documents with generated items.
	Demo        bool
	ShouldClean bool
	// RandSeed makes generated content reproducible. Zero uses the clock.
	RandSeed int64
}

// Seeder writes default documents and demo content.
type Seeder struct {
	db    *gorm.DB
	docs  repository.DocumentRepository
	posts repository.PostRepository
	faker *gofakeit.Faker
	now   func() time.Time
}

// NewSeeder creates a seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	randSeed := opts.RandSeed
	if randSeed == 0 {
		randSeed = time.Now().UnixNano()
	}
	return &Seeder{
		db:    db,
		docs:  repository.NewDocumentRepository(db, nil),
		posts: repository.NewPostRepository(db, nil),
		faker: gofakeit.New(randSeed),
		now:   time.Now,
	}
}

// Seed populates the database according to opts.
func Seed(ctx context.Context, db *gorm.DB, opts Options) error {
	s := NewSeeder(db, opts)

	if opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return fmt.Errorf("failed to clear data: %w", err)
		}
	}

	seeded, err := s.SeedDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to seed documents: %w", err)
	}
	log.Printf("✓ %d default documents created", seeded)

	if opts.Demo {
		if err := s.SeedDemoContent(ctx); err != nil {
			return fmt.Errorf("failed to seed demo content: %w", err)
		}
		log.Println("✓ demo portfolio and projects written")
	}

	if opts.NumPosts > 0 {
		author := opts.AuthorID
		if author == "" {
			author = DemoAuthorID
		}
		posts, err := s.SeedPosts(ctx, author, opts.NumPosts)
		if err != nil {
			return fmt.Errorf("failed to seed posts: %w", err)
		}
		log.Printf("✓ %d posts created", len(posts))
	}
	return nil
}

// ClearAll deletes every stored document and post.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})
	if err := db.Delete(&models.StoredDocument{}).Error; err != nil {
		return err
	}
	return db.Delete(&models.Post{}).Error
}

// SeedDefaults stores the default shape of every document that is not stored
// yet and returns how many it created.
func (s *Seeder) SeedDefaults(ctx context.Context) (int, error) {
	created := 0
	for _, name := range content.Names() {
		_, err := s.docs.Get(ctx, content.Collection, name)
		if err == nil {
			continue
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return created, err
		}
		schema, _ := content.Lookup(name)
		if _, err := s.docs.Save(ctx, content.Collection, name, schema.Default(), repository.SaveOptions{}); err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// SeedDemoContent overwrites the portfolio and projects documents with
// generated categories. The featured flags respect each document's cap.
func (s *Seeder) SeedDemoContent(ctx context.Context) error {
	for _, name := range []string{content.DocPortfolio, content.DocProjects} {
		schema, _ := content.Lookup(name)
		doc := s.demoDocument(schema)
		if err := schema.Validate(doc); err != nil {
			return fmt.Errorf("demo %s: %w", name, err)
		}
		if _, err := s.docs.Save(ctx, content.Collection, name, doc, repository.SaveOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func (s *Seeder) demoDocument(schema *content.Schema) content.Document {
	doc := content.Document{}
	featured := 0
	for _, category := range []string{"Web", "Mobile", "Design"} {
		items := make([]any, 0, 3)
		for i := 0; i < 3; i++ {
			item := schema.NewItem()
			item["title"] = s.faker.AppName()
			item["description"] = s.faker.Sentence(12)
			image := fmt.Sprintf("https://picsum.photos/seed/%s/800/600", s.faker.UUID())
			if _, ok := item["imageUrl"]; ok {
				item["imageUrl"] = image
			}
			if _, ok := item["imageSrc"]; ok {
				item["imageSrc"] = image
			}
			if _, ok := item["link"]; ok {
				item["link"] = s.faker.URL()
			}
			if i == 0 && featured < schema.FeaturedCap {
				item["featured"] = true
				featured++
			}
			items = append(items, item)
		}
		doc[category] = items
	}
	return doc
}

// SeedPosts creates n posts by author spread over the last 90 days.
func (s *Seeder) SeedPosts(ctx context.Context, author string, n int) ([]*models.Post, error) {
	out := make([]*models.Post, 0, n)
	for i := 0; i < n; i++ {
		post := &models.Post{
			Title:         s.faker.Sentence(5),
			Excerpt:       s.faker.Sentence(15),
			Content:       s.faker.Paragraph(3, 4, 12, "\n\n"),
			CoverImage:    fmt.Sprintf("https://picsum.photos/seed/%s/1200/630", s.faker.UUID()),
			GalleryImages: []string{},
			AuthorID:      author,
			CreatedAt:     s.now().Add(-time.Duration(s.faker.Number(0, 90*24)) * time.Hour),
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return out, err
		}
		out = append(out, post)
	}
	return out, nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"folio/internal/models"
	"folio/internal/repository"
	"folio/internal/validation"
)

// Pagination bounds for post listings.
const (
	DefaultPostsLimit = 20
	MaxPostsLimit     = 100
)

type PostService struct {
	postRepo repository.PostRepository
}

type CreatePostInput struct {
	AuthorID string
	models.PostInput
}

type UpdatePostInput struct {
	AuthorID string
	PostID   uint
	models.PostInput
}

type DeletePostInput struct {
	AuthorID string
	PostID   uint
}

func NewPostService(postRepo repository.PostRepository) *PostService {
	return &PostService{postRepo: postRepo}
}

// ListPosts returns posts newest first. Out-of-range paging values are clamped.
func (s *PostService) ListPosts(ctx context.Context, limit, offset int) ([]*models.Post, error) {
	if limit <= 0 {
		limit = DefaultPostsLimit
	}
	if limit > MaxPostsLimit {
		limit = MaxPostsLimit
	}
	if offset < 0 {
		offset = 0
	}
	posts, err := s.postRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, translate(err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return posts, nil
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, id)
	}
	return post, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.AuthorID == "" {
		return nil, models.NewUnauthorizedError("Authentication required")
	}
	normalize(&in.PostInput)
	if err := validation.ValidatePostInput(&in.PostInput); err != nil {
		return nil, translate(err)
	}

	post := &models.Post{
		Title:         in.Title,
		Excerpt:       in.Excerpt,
		Content:       in.Content,
		CoverImage:    in.CoverImage,
		GalleryImages: in.GalleryImages,
		AuthorID:      in.AuthorID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, translate(fmt.Errorf("create post: %w", err))
	}
	return post, nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.Post, error) {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, notFoundOr(err, in.PostID)
	}
	if post.AuthorID != in.AuthorID {
		return nil, models.NewForbiddenError("You can only update your own posts")
	}

	normalize(&in.PostInput)
	if err := validation.ValidatePostInput(&in.PostInput); err != nil {
		return nil, translate(err)
	}

	post.Title = in.Title
	post.Excerpt = in.Excerpt
	post.Content = in.Content
	post.CoverImage = in.CoverImage
	post.GalleryImages = in.GalleryImages

	if err := s.postRepo.Update(ctx, post); err != nil {
		return nil, notFoundOr(err, in.PostID)
	}
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, in DeletePostInput) error {
	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return notFoundOr(err, in.PostID)
	}
	if post.AuthorID != in.AuthorID {
		return models.NewForbiddenError("You can only delete your own posts")
	}
	if err := s.postRepo.Delete(ctx, in.PostID); err != nil {
		return notFoundOr(err, in.PostID)
	}
	return nil
}

func normalize(in *models.PostInput) {
	in.Title = strings.TrimSpace(in.Title)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.CoverImage = strings.TrimSpace(in.CoverImage)
	if in.GalleryImages == nil {
		in.GalleryImages = []string{}
	}
}

func notFoundOr(err error, id uint) error {
	if errors.Is(err, repository.ErrNotFound) {
		return models.NewNotFoundError("Post", id)
	}
	return translate(err)
}

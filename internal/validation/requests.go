// Package validation holds the request payload rules shared by the HTTP handlers and services.
package validation

import (
	"fmt"
	"strings"

	"folio/internal/content"
	"folio/internal/models"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Field limits.
const (
	MaxTitleLength    = 200
	MaxExcerptLength  = 1000
	MaxContentLength  = 200_000
	MaxURLLength      = 2048
	MaxGalleryImages  = 50
	MaxTextLength     = 5000
	MaxHobbies        = 12
	MaxLearningTopics = 20
)

var urlRules = []validation.Rule{
	validation.Length(0, MaxURLLength),
	validation.By(noWhitespace),
}

// ValidateLogin checks an admin login payload.
func ValidateLogin(req *models.LoginRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Password, validation.Required.Error("password is required")),
	)
}

// ValidateAdminPost checks a post published through the admin API.
func ValidateAdminPost(req *models.AdminPostRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required.Error("title is required"),
			validation.By(notBlank),
			validation.RuneLength(1, MaxTitleLength),
		),
		validation.Field(&req.Content,
			validation.Required.Error("content is required"),
			validation.Length(1, MaxContentLength),
		),
	)
}

// ValidatePostInput checks the editable fields of a blog post.
func ValidatePostInput(req *models.PostInput) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.Title,
			validation.Required,
			validation.By(notBlank),
			validation.RuneLength(1, MaxTitleLength),
		),
		validation.Field(&req.Excerpt, validation.RuneLength(0, MaxExcerptLength)),
		validation.Field(&req.Content, validation.Required, validation.Length(1, MaxContentLength)),
		validation.Field(&req.CoverImage, urlRules...),
		validation.Field(&req.GalleryImages,
			validation.Length(0, MaxGalleryImages),
			validation.Each(validation.Required, validation.Length(1, MaxURLLength), validation.By(noWhitespace)),
		),
	)
}

// ValidateHomeSettings checks the homepage document before a merge save.
func ValidateHomeSettings(req *models.HomeSettings) error {
	err := validation.ValidateStruct(req,
		validation.Field(&req.Headline, validation.RuneLength(0, MaxTitleLength)),
		validation.Field(&req.Tagline, validation.RuneLength(0, MaxTitleLength)),
		validation.Field(&req.About, validation.RuneLength(0, MaxTextLength)),
		validation.Field(&req.AvatarURL, urlRules...),
		validation.Field(&req.ResumeURL, urlRules...),
		validation.Field(&req.Location, validation.RuneLength(0, MaxTitleLength)),
		validation.Field(&req.FeaturedHobbies, validation.Length(0, MaxHobbies)),
		validation.Field(&req.NowLearning,
			validation.Length(0, MaxLearningTopics),
			validation.Each(validation.RuneLength(0, MaxTitleLength)),
		),
	)
	if err != nil {
		return err
	}
	for i := range req.FeaturedHobbies {
		h := &req.FeaturedHobbies[i]
		if err := validation.ValidateStruct(h,
			validation.Field(&h.Label, validation.Required, validation.RuneLength(1, 60)),
			validation.Field(&h.IconURL, urlRules...),
		); err != nil {
			return fmt.Errorf("featured_hobbies[%d]: %w", i, err)
		}
	}
	return nil
}

// ValidateDocumentName checks that name is a known content document.
func ValidateDocumentName(name string) error {
	names := content.Names()
	allowed := make([]any, len(names))
	for i, n := range names {
		allowed[i] = n
	}
	return validation.Validate(name,
		validation.Required,
		validation.In(allowed...).Error("unknown document "+name),
	)
}

func notBlank(value any) error {
	s, _ := value.(string)
	if s != "" && strings.TrimSpace(s) == "" {
		return fmt.Errorf("must not be blank")
	}
	return nil
}

func noWhitespace(value any) error {
	s, _ := value.(string)
	if strings.ContainsAny(s, " \t\r\n") {
		return fmt.Errorf("must not contain whitespace")
	}
	return nil
}

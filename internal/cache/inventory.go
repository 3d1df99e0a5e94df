package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	DocumentKeyPrefix  = "doc:%s:%s"
	PostKeyPrefix      = "post:%d"
	PostsListKeyPrefix = "posts:list:%d:%d"
	postsListPattern   = "posts:list:*"
)

const (
	DocumentTTL  = 10 * time.Minute
	PostTTL      = 30 * time.Minute
	PostsListTTL = 2 * time.Minute
)

func DocumentKey(collection, id string) string {
	return fmt.Sprintf(DocumentKeyPrefix, collection, id)
}

func PostKey(postID uint) string {
	return fmt.Sprintf(PostKeyPrefix, postID)
}

func PostsListKey(limit, offset int) string {
	return fmt.Sprintf(PostsListKeyPrefix, limit, offset)
}

func (c *Cache) InvalidateDocument(ctx context.Context, collection, id string) {
	c.Invalidate(ctx, DocumentKey(collection, id))
}

// InvalidatePost drops the post and every cached list page.
func (c *Cache) InvalidatePost(ctx context.Context, postID uint) {
	c.Invalidate(ctx, PostKey(postID))
	c.InvalidatePostsList(ctx)
}

func (c *Cache) InvalidatePostsList(ctx context.Context) {
	c.InvalidatePattern(ctx, postsListPattern)
}

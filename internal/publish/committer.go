// Package publish writes content to the source-control-backed site repository
// and notifies the site builder.
package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"folio/internal/storage"

	"github.com/google/go-github/v68/github"
)

// Committer writes one file to the content store.
type Committer interface {
	CommitFile(ctx context.Context, filePath string, content []byte, message string) error
}

// GitHubCommitter commits files through the GitHub contents API.
type GitHubCommitter struct {
	client *github.Client
	owner  string
	repo   string
	branch string
}

// NewGitHubCommitter creates a committer authenticated with token.
func NewGitHubCommitter(token, owner, repo, branch string) *GitHubCommitter {
	return &GitHubCommitter{
		client: github.NewClient(nil).WithAuthToken(token),
		owner:  owner,
		repo:   repo,
		branch: branch,
	}
}

// NewGitHubCommitterWithHTTPClient points the committer at baseURL.
// This is primarily used for testing with httptest servers.
func NewGitHubCommitterWithHTTPClient(httpClient *http.Client, baseURL, owner, repo, branch string) (*GitHubCommitter, error) {
	client := github.NewClient(httpClient)
	if baseURL != "" {
		var err error
		client, err = client.WithEnterpriseURLs(baseURL, baseURL)
		if err != nil {
			return nil, fmt.Errorf("github base url: %w", err)
		}
	}
	return &GitHubCommitter{client: client, owner: owner, repo: repo, branch: branch}, nil
}

// CommitFile creates filePath or, when it already exists, updates it in place.
func (c *GitHubCommitter) CommitFile(ctx context.Context, filePath string, content []byte, message string) error {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	opts := &github.RepositoryContentFileOptions{
		Message: github.Ptr(message),
		Content: content,
	}
	if c.branch != "" {
		opts.Branch = github.Ptr(c.branch)
	}

	sha, err := c.existingSHA(ctx, filePath)
	if err != nil {
		return err
	}
	if sha == "" {
		_, _, err = c.client.Repositories.CreateFile(ctx, c.owner, c.repo, filePath, opts)
	} else {
		opts.SHA = github.Ptr(sha)
		_, _, err = c.client.Repositories.UpdateFile(ctx, c.owner, c.repo, filePath, opts)
	}
	if err != nil {
		return fmt.Errorf("commit %s: %w", filePath, err)
	}
	return nil
}

func (c *GitHubCommitter) existingSHA(ctx context.Context, filePath string) (string, error) {
	var getOpts *github.RepositoryContentGetOptions
	if c.branch != "" {
		getOpts = &github.RepositoryContentGetOptions{Ref: c.branch}
	}
	file, _, resp, err := c.client.Repositories.GetContents(ctx, c.owner, c.repo, filePath, getOpts)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return "", nil
		}
		var rateErr *github.RateLimitError
		if errors.As(err, &rateErr) {
			return "", fmt.Errorf("github rate limited: %w", err)
		}
		return "", fmt.Errorf("look up %s: %w", filePath, err)
	}
	if file == nil {
		return "", fmt.Errorf("look up %s: path is a directory", filePath)
	}
	return file.GetSHA(), nil
}

// DirCommitter writes files below a local directory. It stands in for the
// site repository when no GitHub repository is configured.
type DirCommitter struct {
	root string
}

// NewDirCommitter creates a committer rooted at dir.
func NewDirCommitter(dir string) *DirCommitter {
	return &DirCommitter{root: dir}
}

func (c *DirCommitter) CommitFile(ctx context.Context, filePath string, content []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cleaned, err := storage.CleanObjectPath(filePath)
	if err != nil {
		return err
	}
	target := filepath.Join(c.root, filepath.FromSlash(cleaned))
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return fmt.Errorf("commit %s: %w", cleaned, err)
	}
	if err := os.WriteFile(target, content, 0o600); err != nil {
		return fmt.Errorf("commit %s: %w", cleaned, err)
	}
	return nil
}

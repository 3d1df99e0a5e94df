package publish

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the metadata block at the top of a published post.
type FrontMatter struct {
	Title string `yaml:"title"`
	Slug  string `yaml:"slug"`
	Date  string `yaml:"date"`
}

// RenderPost renders a Markdown file with YAML front matter.
func RenderPost(title, slug string, date time.Time, body string) ([]byte, error) {
	meta, err := yaml.Marshal(FrontMatter{
		Title: title,
		Slug:  slug,
		Date:  date.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return nil, fmt.Errorf("render front matter: %w", err)
	}

	var buf bytes.Buffer
	buf.WriteString("---\n")
	buf.Write(meta)
	buf.WriteString("---\n\n")
	buf.WriteString(body)
	if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// ParsePost splits a rendered post into its front matter and body.
func ParsePost(data []byte) (FrontMatter, string, error) {
	var fm FrontMatter
	if !bytes.HasPrefix(data, []byte("---\n")) {
		return fm, "", errors.New("missing front matter: file must start with '---'")
	}
	lines := bytes.Split(data, []byte("\n"))
	closing := 0
	for i := 1; i < len(lines); i++ {
		if bytes.Equal(bytes.TrimSpace(lines[i]), []byte("---")) {
			closing = i
			break
		}
	}
	if closing == 0 {
		return fm, "", errors.New("missing closing front matter delimiter '---'")
	}
	if err := yaml.Unmarshal(bytes.Join(lines[1:closing], []byte("\n")), &fm); err != nil {
		return fm, "", fmt.Errorf("failed to parse YAML front matter: %w", err)
	}
	body := bytes.TrimPrefix(bytes.Join(lines[closing+1:], []byte("\n")), []byte("\n"))
	return fm, string(body), nil
}

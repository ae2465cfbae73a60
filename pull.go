package dailytasks

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// gistFile partially represents a file in the gists API response. I've only added what I actually need.
type gistFile struct {
	Content string `json:"content"`

	// Files over about a megabyte come back truncated, and the full content must be fetched from RawURL.
	Truncated bool   `json:"truncated"`
	RawURL    string `json:"raw_url"`
}

type pullResponse struct {
	Files map[string]*gistFile `json:"files"`
}

// Pull fetches the document from the gist. It returns ErrNotFound (not a failure, the gist simply has nothing
// for us yet) if the gist has no tasks.json or an empty one, and ErrInvalidDocument if the file doesn't hold a
// document; see the package errors for the others.
func (c *Client) Pull(ctx context.Context) (*Document, error) {
	b, err := c.do(ctx, "pull", http.MethodGet, c.documentURL(), nil)
	if err != nil {
		return nil, err
	}
	var pr pullResponse
	if err := json.Unmarshal(b, &pr); err != nil {
		return nil, fmt.Errorf("pull, unmarshal: %v: %w", err, ErrInvalidDocument)
	}
	file, ok := pr.Files[DocumentFile]
	if !ok || file == nil {
		return nil, fmt.Errorf("pull: %s: %w", DocumentFile, ErrNotFound)
	}
	content := []byte(file.Content)
	if file.Truncated && file.RawURL != "" {
		content, err = c.do(ctx, "pull raw", http.MethodGet, file.RawURL, nil)
		if err != nil {
			return nil, err
		}
	}
	if strings.TrimSpace(string(content)) == "" {
		return nil, fmt.Errorf("pull: %s is empty: %w", DocumentFile, ErrNotFound)
	}
	doc, err := decodeDocument(content)
	if err != nil {
		return nil, fmt.Errorf("pull: %w", err)
	}
	if canonical, err := encodeDocument(*doc); err == nil {
		c.remember(sha256.Sum256(canonical))
	}
	return doc, nil
}

package dailytasks

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"

	log "github.com/sirupsen/logrus"
)

type patchFile struct {
	Content string `json:"content"`
}

type pushRequest struct {
	Files map[string]patchFile `json:"files"`
}

// Push replaces the content of tasks.json with the serialized document; other files in the gist are left
// alone. If the document is identical to what was last pulled or pushed by this client, no request is made.
func (c *Client) Push(ctx context.Context, doc Document) error {
	content, err := encodeDocument(doc)
	if err != nil {
		return fmt.Errorf("push, marshal: %w", err)
	}
	sum := sha256.Sum256(content)
	if c.isKnown(sum) {
		log.WithField("document", c.creds.DocumentID).Debug("Remote document already up to date, not pushing")
		return nil
	}
	b, err := json.Marshal(pushRequest{
		Files: map[string]patchFile{
			DocumentFile: {Content: string(content)},
		},
	})
	if err != nil {
		return fmt.Errorf("push, marshal: %w", err)
	}
	if _, err := c.do(ctx, "push", http.MethodPatch, c.documentURL(), b); err != nil {
		return err
	}
	c.remember(sum)
	return nil
}

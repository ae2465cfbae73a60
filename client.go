package dailytasks

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	uuid "github.com/nu7hatch/gouuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const (
	// DefaultEndpoint is the GitHub gists API. Documents are addressed as DefaultEndpoint/{documentId}.
	DefaultEndpoint = "https://api.github.com/gists"

	// DocumentFile is the name of the file, within the gist, that holds the serialized Document.
	DocumentFile = "tasks.json"

	// APITimeout bounds each remote call.
	APITimeout = 15 * time.Second
)

// These errors are returned by Pull and Push, possibly wrapped; use errors.Is to test for them.
var (
	// ErrNotFound means the gist exists but has no (or an empty) tasks.json file. It's not a failure, just a
	// fresh remote.
	ErrNotFound = errors.New("document file not found")

	// ErrInvalidDocument means tasks.json exists but does not hold a valid Document.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrUnauthorized is returned for 401 and 403 responses. Retrying won't help until the token is changed.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrTransient covers network failures and server errors.
	ErrTransient = errors.New("transient failure")

	// ErrStatusCode is returned in case the response from the API contains a status code that the client can't handle.
	ErrStatusCode = errors.New("unhandled status code")

	// ErrNoCredentials is returned by NewClient when token or document id are missing.
	ErrNoCredentials = errors.New("incomplete credentials")
)

// Credentials authenticate to the document store and identify the document. Sync is enabled only when both
// fields are set.
type Credentials struct {
	Token      string `json:"token"`
	DocumentID string `json:"documentId"`
}

// Complete tells whether both the token and the document id are set.
func (c Credentials) Complete() bool {
	return strings.TrimSpace(c.Token) != "" && strings.TrimSpace(c.DocumentID) != ""
}

type ClientOption func(*Client) error

// WithEndpoint is a client option to set the endpoint when building a client with NewClient, for GitHub
// Enterprise installations and for tests.
func WithEndpoint(endpoint string) ClientOption {
	return func(c *Client) error {
		c.endpoint = strings.TrimSuffix(endpoint, "/")
		return nil
	}
}

// WithWireLog is a client option to be passed to NewClient in order to log all requests and responses to the
// specified log file. Useful for debugging the client itself, shouldn't be needed in normal operation.
func WithWireLog(pathname string) ClientOption {
	return func(c *Client) error {
		f, err := os.OpenFile(pathname, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err == nil {
			c.wlog = f
		}
		return err
	}
}

// WithHTTPClient sets the client used underneath the authenticating transport.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) error {
		c.base = hc
		return nil
	}
}

// Client reads and writes the Document stored in a gist. Its only two methods making remote calls are Pull and
// Push. It does not retry; callers decide what to do with failures.
type Client struct {
	endpoint string
	creds    Credentials

	// Sends requests with the token in the Authorization header.
	http *http.Client
	base *http.Client

	// If non-nil, log all requests and responses to this file, one per line, in JSON format.
	wlog io.Writer

	// Checksum of the serialized document as last seen remotely, either pulled or pushed.
	mu      sync.Mutex
	lastSum [sha256.Size]byte
	known   bool
}

// NewClient creates a client for the document and token in creds.
func NewClient(creds Credentials, opts ...ClientOption) (*Client, error) {
	if !creds.Complete() {
		return nil, ErrNoCredentials
	}
	c := &Client{
		endpoint: DefaultEndpoint,
		creds:    creds,
		base:     http.DefaultClient,
		wlog:     io.Discard,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	ctx := context.WithValue(context.Background(), oauth2.HTTPClient, c.base)
	c.http = oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: strings.TrimSpace(creds.Token)}))
	return c, nil
}

func (c *Client) documentURL() string {
	return c.endpoint + "/" + url.PathEscape(strings.TrimSpace(c.creds.DocumentID))
}

func (c *Client) remember(sum [sha256.Size]byte) {
	c.mu.Lock()
	c.lastSum = sum
	c.known = true
	c.mu.Unlock()
}

func (c *Client) isKnown(sum [sha256.Size]byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.known && c.lastSum == sum
}

func (c *Client) logWire(id string, kind string, b []byte) {
	if len(b) == 0 {
		_, _ = fmt.Fprintf(c.wlog, "{%q: %q, %q: %q}\n", "type", kind, "id", id)
		return
	}
	if !json.Valid(b) {
		b, _ = json.Marshal(string(b))
	}
	_, _ = fmt.Fprintf(c.wlog, "{%q: %q, %q: %q, %q: ", "type", kind, "id", id, kind)
	_, _ = c.wlog.Write(b)
	_, _ = c.wlog.Write([]byte("}\n"))
}

// do sends a request and returns the body of a 2xx response. Other outcomes are mapped to ErrUnauthorized,
// ErrTransient, or ErrStatusCode.
func (c *Client) do(ctx context.Context, op, method, target string, body []byte) ([]byte, error) {
	u, _ := uuid.NewV4()
	id := u.String()
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()
	var reader io.Reader = http.NoBody
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.logWire(id, "request", body)
	r, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", op, err, ErrTransient)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.WithFields(log.Fields{
				"op":    op,
				"id":    id,
				"cause": err,
			}).Warning("Could not close response body")
		}
	}()
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%s, read body: %v: %w", op, err, ErrTransient)
	}
	c.logWire(id, "response", b)
	switch {
	case r.StatusCode >= 200 && r.StatusCode < 300:
		return b, nil
	case r.StatusCode == http.StatusUnauthorized || r.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%s: %d: %w", op, r.StatusCode, ErrUnauthorized)
	case r.StatusCode == http.StatusTooManyRequests || r.StatusCode >= 500:
		return nil, fmt.Errorf("%s: %d: %w", op, r.StatusCode, ErrTransient)
	default:
		log.WithFields(log.Fields{
			"op":   op,
			"id":   id,
			"code": r.StatusCode,
			"text": string(b),
		}).Error("Unhandled response status code")
		return nil, fmt.Errorf("%s: %d: %w", op, r.StatusCode, ErrStatusCode)
	}
}

// encodeDocument serializes the document the way it's stored in tasks.json.
func encodeDocument(doc Document) ([]byte, error) {
	if doc.Tasks == nil {
		doc.Tasks = []Task{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// decodeDocument parses the content of tasks.json. Both top-level fields must be present, and every task must
// have an id and some text.
func decodeDocument(content []byte) (*Document, error) {
	var raw struct {
		Tasks       json.RawMessage `json:"tasks"`
		WeeklyFocus json.RawMessage `json:"weeklyFocus"`
	}
	if err := json.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidDocument)
	}
	if isMissing(raw.Tasks) {
		return nil, fmt.Errorf("missing tasks: %w", ErrInvalidDocument)
	}
	if isMissing(raw.WeeklyFocus) {
		return nil, fmt.Errorf("missing weekly focus: %w", ErrInvalidDocument)
	}
	doc := &Document{Tasks: []Task{}}
	if err := json.Unmarshal(raw.Tasks, &doc.Tasks); err != nil {
		return nil, fmt.Errorf("tasks: %v: %w", err, ErrInvalidDocument)
	}
	for _, task := range doc.Tasks {
		if task.ID == 0 || strings.TrimSpace(task.Text) == "" {
			return nil, fmt.Errorf("task %v: missing id or text: %w", task.ID, ErrInvalidDocument)
		}
	}
	if err := json.Unmarshal(raw.WeeklyFocus, &doc.WeeklyFocus); err != nil {
		return nil, fmt.Errorf("weekly focus: %v: %w", err, ErrInvalidDocument)
	}
	return doc, nil
}

func isMissing(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

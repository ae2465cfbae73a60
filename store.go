package dailytasks

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrCorrupted is returned, together with the Corrupt outcome, by Load.
var ErrCorrupted = errors.New("local data is corrupted")

// These are the keys under which the coordinator persists its data.
const (
	DocumentKey    = "bundle"
	CredentialsKey = "credentials"
)

// Outcome tells what Load found under a key.
type Outcome int

const (
	Absent  Outcome = iota // Nothing was ever saved under the key.
	Loaded                 // The value was decoded successfully.
	Corrupt                // Something was saved, but it can't be read back.
)

func (o Outcome) String() string {
	switch o {
	case Absent:
		return "absent"
	case Loaded:
		return "loaded"
	case Corrupt:
		return "corrupt"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Backend is the raw key/value storage under a Store. Get must return an error satisfying
// errors.Is(err, fs.ErrNotExist) for keys that were never written, and Put must replace the value atomically:
// after a crash, Get returns either the old or the new value, never a mix.
type Backend interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
}

// envelope is what is actually written to the backend. The checksum catches truncated or hand-edited files.
type envelope struct {
	Sum   string          `json:"sum"`
	Value json.RawMessage `json:"value"`
}

// Store persists JSON values on the local device.
type Store struct {
	backend Backend
}

func NewStore(backend Backend) *Store {
	return &Store{backend: backend}
}

// Save persists value under key, replacing any previous value.
func (s *Store) Save(key string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	sum := sha256.Sum256(data)
	b, err := json.Marshal(envelope{Sum: hex.EncodeToString(sum[:]), Value: data})
	if err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	if err := s.backend.Put(key, b); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Load decodes the value saved under key into the value pointed to by into. The outcome is Absent if nothing
// was ever saved, and Corrupt if the stored data can't be read, fails the checksum, or can't be decoded; in
// the latter case the returned error says why, and wraps ErrCorrupted. On any outcome other than Loaded the
// value pointed to by into may have been partially modified, so callers should decode into a scratch value.
func (s *Store) Load(key string, into interface{}) (Outcome, error) {
	b, err := s.backend.Get(key)
	if errors.Is(err, fs.ErrNotExist) {
		return Absent, nil
	}
	if err != nil {
		return Corrupt, fmt.Errorf("load %s: %v: %w", key, err, ErrCorrupted)
	}
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return Corrupt, fmt.Errorf("load %s: %v: %w", key, err, ErrCorrupted)
	}
	sum := sha256.Sum256(env.Value)
	if env.Sum != hex.EncodeToString(sum[:]) {
		return Corrupt, fmt.Errorf("load %s: checksum mismatch: %w", key, ErrCorrupted)
	}
	if err := json.Unmarshal(env.Value, into); err != nil {
		return Corrupt, fmt.Errorf("load %s: %v: %w", key, err, ErrCorrupted)
	}
	return Loaded, nil
}

// LoadDocument loads the persisted document. Unless the outcome is Loaded, the returned document is the one of
// a fresh installation.
func (s *Store) LoadDocument() (Document, Outcome, error) {
	var doc Document
	outcome, err := s.Load(DocumentKey, &doc)
	if outcome != Loaded {
		return NewDocument(), outcome, err
	}
	if doc.Tasks == nil {
		doc.Tasks = []Task{}
	}
	return doc, outcome, nil
}

func (s *Store) SaveDocument(doc Document) error {
	return s.Save(DocumentKey, doc)
}

// LoadCredentials loads the persisted credentials. Unless the outcome is Loaded, they're empty.
func (s *Store) LoadCredentials() (Credentials, Outcome, error) {
	var creds Credentials
	outcome, err := s.Load(CredentialsKey, &creds)
	if outcome != Loaded {
		return Credentials{}, outcome, err
	}
	return creds, outcome, nil
}

func (s *Store) SaveCredentials(creds Credentials) error {
	return s.Save(CredentialsKey, creds)
}

// FileBackend stores each key in its own file, named after the key, within a directory.
type FileBackend struct {
	dir string
}

// NewFileBackend creates the directory, with mode 0700, if needed.
func NewFileBackend(dir string) (*FileBackend, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, err
	}
	return &FileBackend{dir: dir}, nil
}

func (b *FileBackend) path(key string) string {
	return filepath.Join(b.dir, key+".json")
}

func (b *FileBackend) Get(key string) ([]byte, error) {
	return os.ReadFile(b.path(key))
}

// Put writes to a temporary file in the same directory and renames it over the old one. Files are readable
// only by the owner, as one of them holds the API token.
func (b *FileBackend) Put(key string, value []byte) error {
	f, err := os.CreateTemp(b.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(value); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, 0600); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, b.path(key)); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

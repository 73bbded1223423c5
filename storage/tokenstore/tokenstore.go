// Package tokenstore persists the bearer token between runs of the client.
package tokenstore

import (
	"crypto/sha256"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gorilla/securecookie"
	"github.com/pkg/errors"
)

const cookieName = "edunet-token"

// FileStore keeps the token in a file, signed and encrypted with keys derived from the secret key.
type FileStore struct {
	path  string
	codec *securecookie.SecureCookie
}

func NewFileStore(path, secretKey string) *FileStore {
	hashKey := sha256.Sum256([]byte(secretKey))
	blockKey := sha256.Sum256([]byte("block:" + secretKey))
	codec := securecookie.New(hashKey[:], blockKey[:])
	codec.MaxAge(0) // the server decides when a token expires
	return &FileStore{path: path, codec: codec}
}

// Load returns "" when no token was saved.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.Wrapf(err, "reading %s", s.path)
	}

	var token string
	if err = s.codec.Decode(cookieName, strings.TrimSpace(string(data)), &token); err != nil {
		return "", errors.Wrapf(err, "decoding %s", s.path)
	}
	return token, nil
}

func (s *FileStore) Save(token string) error {
	encoded, err := s.codec.Encode(cookieName, token)
	if err != nil {
		return errors.Wrap(err, "encoding token")
	}
	if err = os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(s.path))
	}
	if err = os.WriteFile(s.path, []byte(encoded), 0o600); err != nil {
		return errors.Wrapf(err, "writing %s", s.path)
	}
	return nil
}

func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "removing %s", s.path)
	}
	return nil
}

// MemoryStore keeps the token for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	token string
}

func NewMemoryStore(token ...string) *MemoryStore {
	s := new(MemoryStore)
	if len(token) > 0 {
		s.token = token[0]
	}
	return s
}

func (s *MemoryStore) Load() (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, nil
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	return s.Save("")
}

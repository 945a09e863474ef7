package calendar

import (
	"encoding/json"
	"os"
	"sync"

	"golang.org/x/oauth2"
)

// TokenStore holds the owner's OAuth2 token. Lookup order: in-memory cache,
// then a JSON blob from the environment (read-only deployments), then a
// local file. Saves update the cache and write the file best-effort.
type TokenStore struct {
	mu      sync.Mutex
	path    string
	envJSON string
	cached  *oauth2.Token
}

func NewTokenStore(path, envJSON string) *TokenStore {
	return &TokenStore{path: path, envJSON: envJSON}
}

// Load returns the current token or nil when none is stored.
func (s *TokenStore) Load() *oauth2.Token {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cached != nil {
		return s.cached
	}
	if s.envJSON != "" {
		var tok oauth2.Token
		if err := json.Unmarshal([]byte(s.envJSON), &tok); err == nil {
			s.cached = &tok
			return s.cached
		}
	}
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return nil
	}
	var tok oauth2.Token
	if err := json.Unmarshal(raw, &tok); err != nil {
		return nil
	}
	s.cached = &tok
	return s.cached
}

// Save caches the token and persists it to the file. A write failure is
// tolerated: read-only filesystems still work off the cache.
func (s *TokenStore) Save(tok *oauth2.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = tok
	raw, err := json.MarshalIndent(tok, "", "  ")
	if err != nil {
		return
	}
	_ = os.WriteFile(s.path, raw, 0o600)
}

// Clear forgets the token everywhere it can.
func (s *TokenStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cached = nil
	s.envJSON = ""
	_ = os.Remove(s.path)
}

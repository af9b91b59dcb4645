// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scope

import (
	"sync"
	"time"

	"github.com/Nick-heo-eg/execution-guard-action/lib/authority"
)

// MemoryStore is a thread-safe in-process authority.Store keyed by
// proposal hash. It never touches disk; a token stored in one process
// is invisible to another.
type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]*authority.Token
	now    func() time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tokens: make(map[string]*authority.Token)}
}

func (s *MemoryStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

// StoreToken records tok under proposalHash, overwriting any existing
// entry for that hash.
func (s *MemoryStore) StoreToken(proposalHash string, tok *authority.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[proposalHash] = tok
	return nil
}

// RetrieveToken returns the token stored under proposalHash. An entry
// whose ExpiresAt has passed is treated as absent and removed.
func (s *MemoryStore) RetrieveToken(proposalHash string) (*authority.Token, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tok, ok := s.tokens[proposalHash]
	if !ok {
		return nil, false
	}
	if s.clock().After(tok.ExpiresAt) {
		delete(s.tokens, proposalHash)
		return nil, false
	}
	return tok, true
}

// DeleteToken removes any entry stored under proposalHash. Deleting a
// key that does not exist is not an error.
func (s *MemoryStore) DeleteToken(proposalHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, proposalHash)
	return nil
}

// HasToken reports whether a live (unexpired) token is stored under
// proposalHash.
func (s *MemoryStore) HasToken(proposalHash string) bool {
	_, ok := s.RetrieveToken(proposalHash)
	return ok
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scope

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Nick-heo-eg/execution-guard-action/lib/authority"
	"github.com/Nick-heo-eg/execution-guard-action/lib/codec"
)

// FileStore persists one CBOR-encoded token per proposal hash under
// Dir, so a token minted by "guardctl hold approve" in one process can
// be retrieved by "guardctl run" in another. proposal_hash is already
// a lowercase hex SHA-256 digest, so it is used directly as a
// filename with no further escaping.
type FileStore struct {
	Dir string
	now func() time.Time
}

// NewFileStore returns a FileStore rooted at dir, creating dir if it
// does not already exist.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("scope: creating store directory: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (s *FileStore) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}

func (s *FileStore) path(proposalHash string) string {
	return filepath.Join(s.Dir, proposalHash+".cbor")
}

// StoreToken CBOR-encodes tok and writes it atomically (write to a
// temp file, then rename) to proposalHash's file.
func (s *FileStore) StoreToken(proposalHash string, tok *authority.Token) error {
	data, err := codec.Marshal(tok)
	if err != nil {
		return fmt.Errorf("scope: encoding token: %w", err)
	}

	dest := s.path(proposalHash)
	tmp := dest + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("scope: writing token file: %w", err)
	}
	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("scope: committing token file: %w", err)
	}
	return nil
}

// RetrieveToken reads and decodes the token stored under proposalHash.
// An entry whose ExpiresAt has passed is treated as absent and its
// file is removed.
func (s *FileStore) RetrieveToken(proposalHash string) (*authority.Token, bool) {
	data, err := os.ReadFile(s.path(proposalHash))
	if err != nil {
		return nil, false
	}

	var tok authority.Token
	if err := codec.Unmarshal(data, &tok); err != nil {
		return nil, false
	}

	if s.clock().After(tok.ExpiresAt) {
		_ = s.DeleteToken(proposalHash)
		return nil, false
	}
	return &tok, true
}

// DeleteToken removes proposalHash's token file, if present.
func (s *FileStore) DeleteToken(proposalHash string) error {
	err := os.Remove(s.path(proposalHash))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("scope: deleting token file: %w", err)
	}
	return nil
}

// HasToken reports whether a live (unexpired) token file exists for
// proposalHash.
func (s *FileStore) HasToken(proposalHash string) bool {
	_, ok := s.RetrieveToken(proposalHash)
	return ok
}

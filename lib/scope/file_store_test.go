// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scope

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileStoreStoreThenRetrieve(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	tok := sampleToken(time.Now().Add(time.Hour))

	if err := s.StoreToken("hash-1", tok); err != nil {
		t.Fatalf("StoreToken: %v", err)
	}
	got, ok := s.RetrieveToken("hash-1")
	if !ok {
		t.Fatal("expected token to be retrievable")
	}
	if got.TokenID != tok.TokenID {
		t.Fatalf("got %+v, want %+v", got, tok)
	}
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	first, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	tok := sampleToken(time.Now().Add(time.Hour))
	if err := first.StoreToken("hash-1", tok); err != nil {
		t.Fatalf("StoreToken: %v", err)
	}

	second, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore (second): %v", err)
	}
	got, ok := second.RetrieveToken("hash-1")
	if !ok {
		t.Fatal("expected token written by one instance to be visible to another")
	}
	if got.TokenID != tok.TokenID {
		t.Fatalf("got %+v, want %+v", got, tok)
	}
}

func TestFileStoreExpiredEntryDeletedOnRetrieve(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	tok := sampleToken(time.Now().Add(-time.Minute))
	if err := s.StoreToken("hash-1", tok); err != nil {
		t.Fatalf("StoreToken: %v", err)
	}

	if _, ok := s.RetrieveToken("hash-1"); ok {
		t.Fatal("expected expired token to be treated as absent")
	}
	if _, err := os.Stat(filepath.Join(dir, "hash-1.cbor")); !os.IsNotExist(err) {
		t.Fatalf("expected expired token file to be removed, stat err: %v", err)
	}
}

func TestFileStoreRetrieveMissing(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if _, ok := s.RetrieveToken("nope"); ok {
		t.Fatal("expected no token for unknown hash")
	}
}

func TestFileStoreDeleteToken(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	tok := sampleToken(time.Now().Add(time.Hour))
	if err := s.StoreToken("hash-1", tok); err != nil {
		t.Fatalf("StoreToken: %v", err)
	}
	if err := s.DeleteToken("hash-1"); err != nil {
		t.Fatalf("DeleteToken: %v", err)
	}
	if s.HasToken("hash-1") {
		t.Fatal("expected token to be gone after DeleteToken")
	}
}

func TestFileStoreCorruptFileTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := NewFileStore(dir)
	if err != nil {
		t.Fatalf("NewFileStore: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "hash-1.cbor"), []byte{0xFF, 0xFE}, 0o600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}
	if _, ok := s.RetrieveToken("hash-1"); ok {
		t.Fatal("expected corrupt token file to be treated as absent")
	}
}

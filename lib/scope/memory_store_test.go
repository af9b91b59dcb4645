// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scope

import (
	"testing"
	"time"

	"github.com/Nick-heo-eg/execution-guard-action/lib/authority"
)

func sampleToken(expiresAt time.Time) *authority.Token {
	return &authority.Token{
		TokenID:      "tok-1",
		ProposalHash: "hash-1",
		Decision:     authority.Allow,
		IssuedAt:     time.Now(),
		ExpiresAt:    expiresAt,
	}
}

func TestMemoryStoreStoreThenRetrieve(t *testing.T) {
	s := NewMemoryStore()
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
	if !s.HasToken("hash-1") {
		t.Fatal("expected HasToken to report true")
	}
}

func TestMemoryStoreRetrieveMissing(t *testing.T) {
	s := NewMemoryStore()
	if _, ok := s.RetrieveToken("nope"); ok {
		t.Fatal("expected no token for unknown hash")
	}
}

func TestMemoryStoreExpiredEntryTreatedAsAbsent(t *testing.T) {
	s := NewMemoryStore()
	tok := sampleToken(time.Now().Add(-time.Minute))
	if err := s.StoreToken("hash-1", tok); err != nil {
		t.Fatalf("StoreToken: %v", err)
	}

	if _, ok := s.RetrieveToken("hash-1"); ok {
		t.Fatal("expected expired token to be treated as absent")
	}
	if s.HasToken("hash-1") {
		t.Fatal("expected HasToken to report false for expired entry")
	}
}

func TestMemoryStoreDeleteToken(t *testing.T) {
	s := NewMemoryStore()
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

func TestMemoryStoreDeleteMissingIsNotAnError(t *testing.T) {
	s := NewMemoryStore()
	if err := s.DeleteToken("nope"); err != nil {
		t.Fatalf("expected no error deleting missing key, got %v", err)
	}
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package canon

import "testing"

func TestSerializeKeyOrderIndependent(t *testing.T) {
	a := map[string]any{"b": 1, "a": 2, "c": []any{"x", "y"}}
	b := map[string]any{"c": []any{"x", "y"}, "a": 2, "b": 1}

	sa, err := Serialize(a)
	if err != nil {
		t.Fatalf("Serialize(a): %v", err)
	}
	sb, err := Serialize(b)
	if err != nil {
		t.Fatalf("Serialize(b): %v", err)
	}

	if string(sa) != string(sb) {
		t.Fatalf("expected identical canonical bytes, got %q vs %q", sa, sb)
	}
}

func TestSerializePreservesArrayOrder(t *testing.T) {
	data, err := Serialize(map[string]any{"args": []any{"z", "a", "m"}})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := `{"args":["z","a","m"]}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}

func TestSerializeNestedMaps(t *testing.T) {
	data, err := Serialize(map[string]any{
		"z": map[string]any{"y": 1, "x": 2},
		"a": 1,
	})
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	want := `{"a":1,"z":{"x":2,"y":1}}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}
}

func TestHashDeterministic(t *testing.T) {
	h1, err := Hash(map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	h2, err := Hash(map[string]any{"b": 2, "a": 1})
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if h1 != h2 {
		t.Fatalf("expected equal hashes, got %s vs %s", h1, h2)
	}
	if len(h1) != 64 {
		t.Fatalf("expected 64 hex chars for sha256, got %d", len(h1))
	}
}

func TestHashDistinctForDifferentValues(t *testing.T) {
	h1, _ := Hash(map[string]any{"a": 1})
	h2, _ := Hash(map[string]any{"a": 2})
	if h1 == h2 {
		t.Fatal("expected distinct hashes for distinct values")
	}
}

func TestHashBytes(t *testing.T) {
	if HashBytes([]byte("hello")) != "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824" {
		t.Fatalf("unexpected hash: %s", HashBytes([]byte("hello")))
	}
}

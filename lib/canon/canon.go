// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
)

// Serialize produces the canonical byte representation of v: a JSON
// encoding in which every map's keys appear in lexicographic order at
// every nesting level, and arrays keep their original order.
//
// v is first round-tripped through encoding/json to normalize it into
// plain Go values (map[string]any, []any, string, json.Number, bool, nil),
// then re-marshaled through a key-sorting pass. This means Serialize
// accepts anything JSON-marshalable: structs with json tags, maps,
// slices, and primitives all normalize the same way regardless of their
// original Go type.
func Serialize(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("canon: marshaling value: %w", err)
	}

	var generic any
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()
	if err := decoder.Decode(&generic); err != nil {
		return nil, fmt.Errorf("canon: decoding to generic form: %w", err)
	}

	sorted := sortKeys(generic)

	out, err := json.Marshal(sorted)
	if err != nil {
		return nil, fmt.Errorf("canon: marshaling canonical form: %w", err)
	}
	return out, nil
}

// sortKeys recursively converts map[string]any values into
// sortedMap, whose MarshalJSON emits keys in lexicographic order.
// Slices and scalars pass through unchanged except for recursing into
// their elements.
func sortKeys(value any) any {
	switch v := value.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return sortedMap{keys: keys, values: v}
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = sortKeys(elem)
		}
		return out
	default:
		return v
	}
}

// sortedMap implements json.Marshaler to emit its keys in the fixed
// order computed by sortKeys, with values recursively canonicalized.
type sortedMap struct {
	keys   []string
	values map[string]any
}

func (m sortedMap) MarshalJSON() ([]byte, error) {
	buf := []byte{'{'}
	for i, k := range m.keys {
		if i > 0 {
			buf = append(buf, ',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf = append(buf, keyBytes...)
		buf = append(buf, ':')

		valBytes, err := json.Marshal(sortKeys(m.values[k]))
		if err != nil {
			return nil, err
		}
		buf = append(buf, valBytes...)
	}
	buf = append(buf, '}')
	return buf, nil
}

// Hash returns the lowercase hex SHA-256 digest of Serialize(v).
func Hash(v any) (string, error) {
	data, err := Serialize(v)
	if err != nil {
		return "", err
	}
	return HashBytes(data), nil
}

// HashBytes returns the lowercase hex SHA-256 digest of data directly,
// with no canonicalization pass. Use this when the bytes to hash are
// already in their final, agreed-upon form (e.g. a policy file's raw
// content).
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// New generates a fresh time-ordered identifier as a lowercase
// hyphenated UUID string. Two identifiers generated in the same
// process sort in creation order whenever their millisecond timestamps
// differ; ties within the same millisecond are broken by the random
// remainder and are not guaranteed to sort in call order.
func New() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("idgen: generating time-ordered id: %w", err)
	}
	return id.String(), nil
}

// Must is like New but panics on error. uuid.NewV7 only fails if the
// system entropy source is unavailable.
func Must() string {
	id, err := New()
	if err != nil {
		panic(err)
	}
	return id
}

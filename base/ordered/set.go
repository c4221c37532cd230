// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ordered provides containers remembering insertion order.
package ordered

import (
	"slices"

	"golang.org/x/exp/constraints"
)

// Set of keys iterated in the order in which they were first added.
type Set[K comparable] struct {
	index map[K]int
	keys  []K
}

// NewSet returns a new empty set.
func NewSet[K comparable]() *Set[K] {
	return &Set[K]{index: make(map[K]int)}
}

// Add a key to the set. Returns false if the key was already present.
func (s *Set[K]) Add(k K) bool {
	if _, in := s.index[k]; in {
		return false
	}
	s.index[k] = len(s.keys)
	s.keys = append(s.keys, k)
	return true
}

// Has returns true if the key is in the set.
func (s *Set[K]) Has(k K) bool {
	_, in := s.index[k]
	return in
}

// Index returns the insertion position of a key or -1.
func (s *Set[K]) Index(k K) int {
	i, in := s.index[k]
	if !in {
		return -1
	}
	return i
}

// All returns an iterator over the keys in insertion order.
func (s *Set[K]) All() func(func(K) bool) {
	return func(yield func(K) bool) {
		for _, k := range s.keys {
			if !yield(k) {
				break
			}
		}
	}
}

// Slice returns a copy of the keys in insertion order.
func (s *Set[K]) Slice() []K {
	return slices.Clone(s.keys)
}

// Size returns the number of keys in the set.
func (s *Set[K]) Size() int {
	return len(s.keys)
}

// Clone returns a new set with the same keys, possibly mapped to new values.
func Clone[K, T comparable](s *Set[K], f func(K) T) *Set[T] {
	r := NewSet[T]()
	for _, k := range s.keys {
		r.Add(f(k))
	}
	return r
}

// SortedKeys returns the keys of a map in increasing order.
func SortedKeys[K constraints.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

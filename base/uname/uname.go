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

// Package uname provides unique names.
package uname

import "strconv"

// Sequence generates names made of a prefix followed by a per-prefix counter.
type Sequence struct {
	next map[string]int
}

// New name generator.
func New() *Sequence {
	return &Sequence{next: make(map[string]int)}
}

// Next returns the next name for a prefix, starting with prefix0.
func (s *Sequence) Next(prefix string) string {
	i := s.next[prefix]
	s.next[prefix] = i + 1
	return prefix + strconv.Itoa(i)
}

// Reserve makes sure that the next names generated for a prefix
// start at least at n.
func (s *Sequence) Reserve(prefix string, n int) {
	if s.next[prefix] < n {
		s.next[prefix] = n
	}
}

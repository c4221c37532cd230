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

// Package stringseq joins the string representations of sequences of values.
package stringseq

import (
	"fmt"
	"strings"
)

// JoinFunc returns the strings computed by f for every item, separated by sep.
func JoinFunc[T any](items []T, f func(T) string, sep string) string {
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteString(sep)
		}
		b.WriteString(f(item))
	}
	return b.String()
}

// Join returns the string representations of items, separated by sep.
func Join[T fmt.Stringer](items []T, sep string) string {
	return JoinFunc(items, func(item T) string { return item.String() }, sep)
}

// List returns the string representations of items as a list: [ a, b ].
func List[T fmt.Stringer](items []T) string {
	return "[ " + Join(items, ", ") + " ]"
}

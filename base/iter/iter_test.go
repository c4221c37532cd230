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

package iter_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/fuser/base/iter"
)

func isEven(n int) bool {
	return n%2 == 0
}

func TestFilter(t *testing.T) {
	var got []int
	for el := range iter.Filter(isEven, []int{0, 1, 2, 3, 4, 5}) {
		got = append(got, el)
	}
	want := []int{0, 2, 4}
	if !cmp.Equal(got, want) {
		t.Errorf("got %v but want %v", got, want)
	}
}

func TestPositions(t *testing.T) {
	var got []int
	for i := range iter.Positions(isEven, []int{1, 3, 4, 7, 8}) {
		got = append(got, i)
	}
	want := []int{2, 4}
	if !cmp.Equal(got, want) {
		t.Errorf("got %v but want %v", got, want)
	}
}

func TestAnyCount(t *testing.T) {
	tests := []struct {
		in    []int
		any   bool
		count int
	}{
		{in: nil},
		{in: []int{1, 3}},
		{in: []int{1, 2, 3, 4}, any: true, count: 2},
	}
	for i, test := range tests {
		if got := iter.Any(isEven, test.in); got != test.any {
			t.Errorf("test %d: Any got %v but want %v", i, got, test.any)
		}
		if got := iter.Count(isEven, test.in); got != test.count {
			t.Errorf("test %d: Count got %d but want %d", i, got, test.count)
		}
	}
}

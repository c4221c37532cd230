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

package fuserflag_test

import (
	"flag"
	"io"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/fuser/tools/fuserflag"
)

func TestLists(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	names := fuserflag.StringList(fs, "names", "list of names")
	shape := fuserflag.IntList(fs, "shape", []int{2, 3}, "shape")
	if err := fs.Parse([]string{"-names", "a, b", "-names", "c,", "-shape", "8,16"}); err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !cmp.Equal(*names, want) {
		t.Errorf("got %v but want %v", *names, want)
	}
	if want := []int{8, 16}; !cmp.Equal(*shape, want) {
		t.Errorf("got %v but want %v", *shape, want)
	}
}

func TestIntListDefault(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	shape := fuserflag.IntList(fs, "shape", []int{2, 3}, "shape")
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	if want := []int{2, 3}; !cmp.Equal(*shape, want) {
		t.Errorf("got %v but want %v", *shape, want)
	}
	if err := fs.Parse([]string{"-shape", "1,x"}); err == nil {
		t.Errorf("expected an error")
	}
}

func TestPair(t *testing.T) {
	tests := []struct {
		in    string
		key   string
		value int
		err   bool
	}{
		{in: "1:4", key: "1", value: 4},
		{in: " 0 : 16 ", key: "0", value: 16},
		{in: "1", err: true},
		{in: "1:x", err: true},
	}
	for i, test := range tests {
		key, value, err := fuserflag.Pair(test.in)
		if test.err {
			if err == nil {
				t.Errorf("test %d: expected an error for %q", i, test.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("test %d: %v", i, err)
			continue
		}
		if key != test.key || value != test.value {
			t.Errorf("test %d: got %s:%d but want %s:%d", i, key, value, test.key, test.value)
		}
	}
}

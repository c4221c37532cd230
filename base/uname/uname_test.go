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

package uname_test

import (
	"testing"

	"github.com/gx-org/fuser/base/uname"
)

func TestNext(t *testing.T) {
	tests := []struct {
		prefix, want string
	}{
		{prefix: "T", want: "T0"},
		{prefix: "T", want: "T1"},
		{prefix: "i", want: "i0"},
		{prefix: "T", want: "T2"},
		{prefix: "i", want: "i1"},
	}
	names := uname.New()
	for i, test := range tests {
		got := names.Next(test.prefix)
		if got != test.want {
			t.Errorf("test %d: for prefix %s, got %s but want %s", i, test.prefix, got, test.want)
		}
	}
}

func TestReserve(t *testing.T) {
	names := uname.New()
	names.Reserve("T", 4)
	if got, want := names.Next("T"), "T4"; got != want {
		t.Errorf("got %s but want %s", got, want)
	}
	names.Reserve("T", 2)
	if got, want := names.Next("T"), "T5"; got != want {
		t.Errorf("got %s but want %s", got, want)
	}
}

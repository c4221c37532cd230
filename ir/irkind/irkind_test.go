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

package irkind_test

import (
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/fuser/ir/irkind"
)

func TestFromDType(t *testing.T) {
	tests := []struct {
		dt   dtype.DataType
		want irkind.DataType
		err  bool
	}{
		{dt: dtype.Bool, want: irkind.Bool},
		{dt: dtype.Float32, want: irkind.Float},
		{dt: dtype.Float64, want: irkind.Float},
		{dt: dtype.Int32, want: irkind.Int},
		{dt: dtype.Int64, want: irkind.Int},
		{dt: dtype.Bfloat16, want: irkind.Half},
		{dt: dtype.Invalid, err: true},
	}
	for _, test := range tests {
		got, err := irkind.FromDType(test.dt)
		if test.err {
			if err == nil {
				t.Errorf("%s: expected an error", test.dt)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", test.dt, err)
			continue
		}
		if got != test.want {
			t.Errorf("%s: got %s but want %s", test.dt, got, test.want)
		}
	}
}

func TestParallelType(t *testing.T) {
	for _, pt := range []irkind.ParallelType{irkind.BIDx, irkind.BIDy, irkind.BIDz} {
		if !pt.IsBlockDim() || pt.IsThreadDim() {
			t.Errorf("%s: incorrect classification", pt)
		}
	}
	for _, pt := range []irkind.ParallelType{irkind.TIDx, irkind.TIDy, irkind.TIDz} {
		if pt.IsBlockDim() || !pt.IsThreadDim() {
			t.Errorf("%s: incorrect classification", pt)
		}
	}
	for _, pt := range []irkind.ParallelType{irkind.Serial, irkind.Vectorize, irkind.Unroll} {
		if pt.IsBlockDim() || pt.IsThreadDim() {
			t.Errorf("%s: incorrect classification", pt)
		}
	}
}

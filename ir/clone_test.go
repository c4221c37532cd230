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

package ir_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/fuser/ir"
	"github.com/gx-org/fuser/ir/irstring"
	"github.com/gx-org/fuser/ir/ops"
	"github.com/stretchr/testify/require"
)

func TestClone(t *testing.T) {
	f, t0, t1, t2 := pointwise(t, 8, 16)
	require.NoError(t, t1.Split(1, 4))
	require.NoError(t, t1.ComputeAt(t2, 1))

	g, c := f.Clone()
	if got, want := irstring.Fusion(g), irstring.Fusion(f); got != want {
		t.Errorf("clone differs:\n%s\nwant:\n%s", got, want)
	}
	g1 := c.TensorView(t1)
	g2 := c.TensorView(t2)
	if g1 == t1 || g1.Fusion() != g || g1.ID() != t1.ID() || g1.Name() != t1.Name() {
		t.Fatalf("%s is not a clone of %s", g1, t1)
	}
	if g1.ComputeAtView() != g2 {
		t.Errorf("compute-at view of the clone is %v but want %v", g1.ComputeAtView(), g2)
	}
	if !g.HasInput(c.TensorView(t0)) || !g.HasOutput(g2) {
		t.Errorf("clone lost the fusion boundary")
	}
	if g.Definition(g2).Inputs()[0] != g1 {
		t.Errorf("expression of the clone does not refer to the clone of %s", t1)
	}

	require.NoError(t, g1.Split(2, 2))
	if got, want := extents(t1), []int64{8, 4, 4}; !cmp.Equal(got, want) {
		t.Errorf("transforming the clone changed the original: got %v but want %v", got, want)
	}
	g3, err := ops.Set(g2)
	require.NoError(t, err)
	if g3.Name() != "T3" {
		t.Errorf("got name %s but want T3", g3.Name())
	}
	if f.NumVals() == g.NumVals() {
		t.Errorf("new values of the clone were added to the original")
	}
	if c.Val(ir.NewFusion().ConstInt(1)) != nil {
		t.Errorf("cloning a value of another fusion should return nil")
	}
	require.NoError(t, g.Validate())
}

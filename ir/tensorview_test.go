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
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/fuser/ir"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
	"github.com/gx-org/fuser/ir/ops"
	"github.com/stretchr/testify/require"
)

func TestNewTensorFromShape(t *testing.T) {
	f := ir.NewFusion()
	tv, err := f.NewTensorFromShape(&shape.Shape{DType: dtype.Int64, AxisLengths: []int{8, -1}})
	require.NoError(t, err)
	if tv.DataType() != irkind.Int {
		t.Errorf("got data type %s but want %s", tv.DataType(), irkind.Int)
	}
	if got, want := extents(tv), []int64{8, -1}; !cmp.Equal(got, want) {
		t.Errorf("got extents %v but want %v", got, want)
	}
	if tv.MemoryType() != irkind.Global {
		t.Errorf("got memory %s but want %s", tv.MemoryType(), irkind.Global)
	}

	half, err := f.NewTensorFromShape(&shape.Shape{DType: dtype.Bfloat16, AxisLengths: []int{2}})
	require.NoError(t, err)
	if half.DataType() != irkind.Half {
		t.Errorf("got data type %s but want %s", half.DataType(), irkind.Half)
	}
	_, err = f.NewTensorFromShape(&shape.Shape{DType: dtype.Invalid, AxisLengths: []int{2}})
	requireKind(t, err, irerr.Structural)
	_, err = f.NewTensorFromShape(nil)
	requireKind(t, err, irerr.Structural)
	_, err = f.NewSymbolicTensor(-1, irkind.Float)
	requireKind(t, err, irerr.Structural)
	_, err = f.NewTensorView(nil, irkind.Float)
	requireKind(t, err, irerr.Structural)
	_, err = f.NewTensorView(tv.Domain(), irkind.InvalidData)
	requireKind(t, err, irerr.Structural)
	_, err = ir.NewFusion().NewTensorView(tv.Domain(), irkind.Float)
	requireKind(t, err, irerr.Invariant)
}

func TestSetMemoryType(t *testing.T) {
	_, t0, t1, t2 := pointwise(t, 8)
	requireKind(t, t0.SetMemoryType(irkind.Local), irerr.Invariant)
	requireKind(t, t2.SetMemoryType(irkind.Shared), irerr.Invariant)
	require.NoError(t, t0.SetMemoryType(irkind.Global))
	require.NoError(t, t1.SetMemoryType(irkind.Local))
	if got := t1.String(); !strings.HasPrefix(got, "T1_l[") {
		t.Errorf("got %q but want a local tensor T1", got)
	}
	if got := t0.String(); !strings.HasPrefix(got, "T0_g[") {
		t.Errorf("got %q but want a global tensor T0", got)
	}
}

func TestTensorViewTransforms(t *testing.T) {
	_, _, t1, _ := pointwise(t, 8, 16)
	require.NoError(t, t1.Split(1, 4))
	require.NoError(t, t1.Reorder(map[int]int{0: 2, 1: 0, 2: 1}))
	require.NoError(t, t1.Parallelize(0, irkind.BIDx))
	if got, want := extents(t1), []int64{4, 4, 8}; !cmp.Equal(got, want) {
		t.Errorf("got extents %v but want %v", got, want)
	}
	axis, err := t1.Axis(0)
	require.NoError(t, err)
	if axis.ParallelType() != irkind.BIDx {
		t.Errorf("got binding %s but want %s", axis.ParallelType(), irkind.BIDx)
	}
	var kinds []irkind.TransformKind
	for _, rec := range t1.Domain().Log() {
		kinds = append(kinds, rec.Kind)
	}
	if want := []irkind.TransformKind{irkind.Split, irkind.Reorder, irkind.Parallelize}; !cmp.Equal(kinds, want) {
		t.Errorf("got log %v but want %v", kinds, want)
	}
	_, err = t1.Axis(3)
	requireKind(t, err, irerr.Structural)
	requireKind(t, t1.MergeAdjacent(2), irerr.Structural)
	if t1.NDims() != 3 {
		t.Errorf("a failed merge changed the domain of %s", t1)
	}
}

func TestReplayFrom(t *testing.T) {
	_, t0, t1, _ := pointwise(t, 8, 16)
	require.NoError(t, t1.Split(1, 4))
	require.NoError(t, t1.Reorder(map[int]int{0: 2, 1: 0, 2: 1}))
	require.NoError(t, t1.Parallelize(0, irkind.BIDx))

	require.NoError(t, t0.ReplayFrom(t1))
	if got, want := extents(t0), extents(t1); !cmp.Equal(got, want) {
		t.Errorf("got extents %v but want %v", got, want)
	}
	axis, err := t0.Axis(0)
	require.NoError(t, err)
	if axis.ParallelType() != irkind.BIDx {
		t.Errorf("replayed axis %s is not bound to %s", axis, irkind.BIDx)
	}
	require.NoError(t, t0.ComputeAt(t1, 3))
	if got := t0.RelativeComputeAtAxis(); got != 3 {
		t.Errorf("got relative axis %d but want 3", got)
	}
	require.NoError(t, t0.ReplayFrom(t0))
}

func TestReplayFromReduction(t *testing.T) {
	f := ir.NewFusion()
	t0 := newInput(t, f, 8, 16)
	t1, err := ops.Sum(t0, 1)
	require.NoError(t, err)
	t2, err := ops.Set(t1)
	require.NoError(t, err)
	require.NoError(t, t2.Split(0, 2))

	require.NoError(t, t1.ReplayFrom(t2))
	if got, want := extents(t1), []int64{4, 2, 16}; !cmp.Equal(got, want) {
		t.Errorf("got extents %v but want %v", got, want)
	}
	if got, want := iterTypes(t1), []irkind.IterType{irkind.Iteration, irkind.Iteration, irkind.Reduction}; !cmp.Equal(got, want) {
		t.Errorf("got roles %v but want %v", got, want)
	}
	require.NoError(t, t1.ComputeAt(t2, 2))
}

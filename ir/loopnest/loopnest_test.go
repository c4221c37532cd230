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

package loopnest_test

import (
	"strings"
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/fuser/ir"
	"github.com/gx-org/fuser/ir/loopnest"
	"github.com/gx-org/fuser/ir/ops"
	"github.com/stretchr/testify/require"
)

func pointwise(t *testing.T) (*ir.Fusion, *ir.TensorView, *ir.TensorView) {
	f := ir.NewFusion()
	t0, err := f.NewTensorFromShape(&shape.Shape{DType: dtype.Float32, AxisLengths: []int{8, 16}})
	require.NoError(t, err)
	require.NoError(t, f.AddInput(t0))
	t1, err := ops.Add(t0, t0)
	require.NoError(t, err)
	t2, err := ops.Set(t1)
	require.NoError(t, err)
	require.NoError(t, f.AddOutput(t2))
	return f, t1, t2
}

func owners(loops []*loopnest.Loop) []string {
	var names []string
	for _, loop := range loops {
		names = append(names, loop.Owner.Name())
	}
	return names
}

func TestGenerateComputeAt(t *testing.T) {
	f, t1, t2 := pointwise(t)
	require.NoError(t, t1.Split(1, 4))
	require.NoError(t, t1.ComputeAt(t2, 1))

	nest, err := loopnest.Generate(f)
	require.NoError(t, err)
	require.Equal(t, []string{"T2", "T1", "T1"}, owners(nest.Loops(t1)))
	require.Equal(t, []string{"T2", "T2"}, owners(nest.Loops(t2)))
	shared := nest.Loops(t1)[0]
	if shared != nest.Loops(t2)[0] {
		t.Errorf("%s and %s do not share their outer loop", t1.Name(), t2.Name())
	}
	if shared.Axis != t2.Domain().Leaf()[0] {
		t.Errorf("got outer loop over %s but want %s", shared.Axis, t2.Domain().Leaf()[0])
	}

	require.Len(t, nest.Body, 2)
	alloc, ok := nest.Body[0].(*loopnest.Alloc)
	if !ok || alloc.Tensor != t2 || len(alloc.Axes) != 2 {
		t.Errorf("got %v but want the allocation of %s first", nest.Body[0], t2.Name())
	}
	inner, ok := shared.Body[0].(*loopnest.Alloc)
	if !ok || inner.Tensor != t1 || len(inner.Axes) != 2 {
		t.Errorf("got %v but want the allocation of %s in the shared loop", shared.Body[0], t1.Name())
	}
	if got := nest.String(); !strings.Contains(got, "T1 = add(T0, T0)") || !strings.Contains(got, "T2 = set(T1)") {
		t.Errorf("unexpected loop nest:\n%s", got)
	}
}

func TestGenerateNoComputeAt(t *testing.T) {
	f, t1, t2 := pointwise(t)
	nest, err := loopnest.Generate(f)
	require.NoError(t, err)
	require.Len(t, nest.Body, 4)
	if nest.Loops(t1)[0] == nest.Loops(t2)[0] {
		t.Errorf("%s and %s should not share loops", t1.Name(), t2.Name())
	}
	require.Equal(t, []string{"T1", "T1"}, owners(nest.Loops(t1)))
}

func TestGenerateInlined(t *testing.T) {
	f, t1, t2 := pointwise(t)
	require.NoError(t, t1.ComputeAt(t2, 2))
	nest, err := loopnest.Generate(f)
	require.NoError(t, err)
	loops := nest.Loops(t1)
	require.Equal(t, []string{"T2", "T2"}, owners(loops))
	body := loops[1].Body
	require.Len(t, body, 3)
	alloc, ok := body[0].(*loopnest.Alloc)
	if !ok || alloc.Tensor != t1 || len(alloc.Axes) != 0 {
		t.Errorf("got %v but want a scalar allocation of %s", body[0], t1.Name())
	}
}

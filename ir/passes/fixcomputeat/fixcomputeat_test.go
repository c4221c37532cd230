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

package fixcomputeat_test

import (
	"testing"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/fuser/ir"
	"github.com/gx-org/fuser/ir/internal/capability"
	"github.com/gx-org/fuser/ir/ops"
	"github.com/gx-org/fuser/ir/passes/fixcomputeat"
	"github.com/stretchr/testify/require"
)

func chain(t *testing.T) (*ir.Fusion, *ir.TensorView, *ir.TensorView, *ir.TensorView) {
	f := ir.NewFusion()
	t0, err := f.NewTensorFromShape(&shape.Shape{DType: dtype.Float32, AxisLengths: []int{8, 16}})
	require.NoError(t, err)
	t1, err := ops.Set(t0)
	require.NoError(t, err)
	t2, err := ops.Set(t1)
	require.NoError(t, err)
	return f, t0, t1, t2
}

func TestRunKeepsAlignedRelations(t *testing.T) {
	f, t0, t1, t2 := chain(t)
	require.NoError(t, t0.ComputeAt(t1, 1))
	require.NoError(t, t1.ComputeAt(t2, 2))
	dropped, err := fixcomputeat.Run(f)
	require.NoError(t, err)
	require.Empty(t, dropped)
	if t0.ComputeAtView() != t1 || t1.ComputeAtView() != t2 {
		t.Errorf("aligned relations have been changed: %s, %s", t0, t1)
	}
}

func TestRunFixesRelativeAxis(t *testing.T) {
	f, _, t1, t2 := chain(t)
	priv := f.Privileged(capability.Grant())
	require.NoError(t, priv.SetComputeAt(t1, t2, 2, 0))
	dropped, err := fixcomputeat.Run(f)
	require.NoError(t, err)
	require.Empty(t, dropped)
	if got := t1.RelativeComputeAtAxis(); got != 2 {
		t.Errorf("got relative axis %d but want 2", got)
	}
	require.NoError(t, f.Validate())
}

func TestRunDropsMisalignedRelations(t *testing.T) {
	f, t0, t1, t2 := chain(t)
	require.NoError(t, t0.ComputeAt(t1, 1))
	require.NoError(t, t1.ComputeAt(t2, 1))
	priv := f.Privileged(capability.Grant())
	split, err := t2.Domain().Split(0, 2)
	require.NoError(t, err)
	require.NoError(t, priv.SetDomain(t2, split))

	dropped, err := fixcomputeat.Run(f)
	require.NoError(t, err)
	require.Equal(t, []*ir.TensorView{t1}, dropped)
	if t1.HasComputeAt() {
		t.Errorf("%s should not be computed at %s anymore", t1, t2)
	}
	if t0.ComputeAtView() != t1 {
		t.Errorf("relation of %s should be kept", t0)
	}
	require.NoError(t, f.Validate())
}

func TestRunBreaksCycles(t *testing.T) {
	f, t0, t1, _ := chain(t)
	priv := f.Privileged(capability.Grant())
	require.NoError(t, priv.SetComputeAt(t0, t1, 1, 1))
	require.NoError(t, priv.SetComputeAt(t1, t0, 1, 1))

	dropped, err := fixcomputeat.Run(f)
	require.NoError(t, err)
	require.Equal(t, []*ir.TensorView{t0}, dropped)
	if t1.ComputeAtView() != t0 {
		t.Errorf("relation of %s should be kept", t1)
	}
	require.NoError(t, f.Validate())
}

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

// Package adjustmem chooses the memory of the intermediate tensors of a fusion.
package adjustmem

import (
	"github.com/gx-org/fuser/base/iter"
	"github.com/gx-org/fuser/ir"
	"github.com/gx-org/fuser/ir/irkind"
	"github.com/sirupsen/logrus"
)

// Run sets the memory type of every tensor computed at another tensor.
// Inputs and outputs of the fusion stay in global memory, as well as tensors
// without compute-at relation, which are materialized entirely.
//
// A tensor computed at another tensor is stored in local memory, unless one
// of its axes not shared with its consumer is bound to a thread dimension
// (shared memory) or to a grid dimension (global memory).
func Run(f *ir.Fusion) error {
	for _, tv := range f.TensorViews() {
		if f.HasInput(tv) || f.HasOutput(tv) {
			continue
		}
		if !tv.HasComputeAt() || tv.ThisComputeAtAxis() == 0 {
			continue
		}
		mt := memoryType(tv)
		if err := tv.SetMemoryType(mt); err != nil {
			return err
		}
		f.Logger().WithFields(logrus.Fields{
			"tensor": tv.Name(),
			"memory": mt.String(),
		}).Debug("memory type")
	}
	return nil
}

func memoryType(tv *ir.TensorView) irkind.MemoryType {
	local := tv.Domain().Leaf()[tv.ThisComputeAtAxis():]
	switch {
	case iter.Any((*ir.IterDomain).IsBlockDim, local):
		return irkind.Global
	case iter.Any((*ir.IterDomain).IsThreadDim, local):
		return irkind.Shared
	}
	return irkind.Local
}

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

// Package fixcomputeat restores the compute-at invariants of a fusion after
// structural mutations made through the privileged surface of the IR.
package fixcomputeat

import (
	"github.com/gx-org/fuser/ir"
	"github.com/gx-org/fuser/ir/internal/capability"
	"github.com/sirupsen/logrus"
)

// Run checks every compute-at relation of a fusion. Relations which axes do
// not line up anymore, or which close a cycle, are cleared. Relative axes of
// the other relations are recomputed. Returns the tensors which relation has
// been cleared.
func Run(f *ir.Fusion) ([]*ir.TensorView, error) {
	priv := f.Privileged(capability.Grant())
	var dropped []*ir.TensorView
	drop := func(tv *ir.TensorView, reason error) {
		f.Logger().WithFields(logrus.Fields{
			"tensor": tv.Name(),
			"reason": reason,
		}).Debug("clear compute-at")
		tv.ClearComputeAt()
		dropped = append(dropped, tv)
	}
	for _, tv := range f.TensorViews() {
		if !tv.HasComputeAt() {
			continue
		}
		view := tv.ComputeAtView()
		if view == nil {
			drop(tv, nil)
			continue
		}
		axis := min(tv.ThisComputeAtAxis(), tv.NDims())
		rel, err := priv.Alignment(tv, view, axis)
		if err != nil {
			drop(tv, err)
			continue
		}
		if err := priv.SetComputeAt(tv, view, axis, rel); err != nil {
			return nil, err
		}
	}
	for _, tv := range f.TensorViews() {
		if inCycle(f, tv) {
			drop(tv, nil)
		}
	}
	return dropped, nil
}

func inCycle(f *ir.Fusion, tv *ir.TensorView) bool {
	limit := len(f.TensorViews())
	cur := tv.ComputeAtView()
	for steps := 0; cur != nil && steps <= limit; steps++ {
		if cur == tv {
			return true
		}
		cur = cur.ComputeAtView()
	}
	return false
}

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

package ir

import (
	"github.com/gx-org/fuser/base/iter"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
	"github.com/sirupsen/logrus"
)

// RFactor splits the reduction computing this tensor into two reductions.
//
// The returned tensor is a new producer reducing only the axes at the given
// positions. The other reduction axes become iteration axes of the producer.
// This tensor is then computed by reducing the producer over the remaining
// reduction axes. For example, from:
//
//	T1[I0, R1, R2, I3] = sum(T0[I0, I1, I2, I3])
//
// T1.RFactor([]int{1}) returns T2 and the fusion becomes:
//
//	T2[I0, R1, I2, I3] = sum(T0[I0, I1, I2, I3])
//	T1[I0, R2, I3] = sum(T2[I0, R1, I2, I3])
func (tv *TensorView) RFactor(axes []int) (*TensorView, error) {
	f := tv.fusion
	if len(axes) == 0 {
		return nil, irerr.Structuralf("cannot rFactor %s: no axis specified", tv.name)
	}
	factored := make(map[*IterDomain]bool, len(axes))
	for _, pos := range axes {
		id, err := tv.Axis(pos)
		if err != nil {
			return nil, irerr.Wrapf(err, "cannot rFactor %s", tv.name)
		}
		if !id.IsReduction() {
			return nil, irerr.Structuralf("cannot rFactor %s: axis %d (%s) is not a reduction", tv.name, pos, id)
		}
		if factored[id] {
			return nil, irerr.Structuralf("cannot rFactor %s: axis %d specified more than once", tv.name, pos)
		}
		factored[id] = true
	}
	if tv.HasComputeAt() || len(tv.ComputeAtProducers()) > 0 {
		return nil, irerr.Invariantf("cannot rFactor %s: tensors with compute-at relations can not be rFactored", tv.name)
	}
	def := f.Definition(tv)
	if def == nil || !def.op.IsReduction() {
		return nil, irerr.Invariantf("cannot rFactor %s: it is not computed by a reduction", tv.name)
	}

	producerDomain, err := tv.rFactorProducerDomain(factored)
	if err != nil {
		return nil, irerr.Wrapf(err, "cannot rFactor %s", tv.name)
	}
	var root []*IterDomain
	for i, id := range tv.domain.leaf {
		if factored[id] {
			continue
		}
		pid := producerDomain.leaf[i]
		rid := f.newIterDomain(pid.start, pid.extent, id.iterType, id.parallel)
		rid.rFactorRoot = true
		root = append(root, rid)
	}
	consumerDomain, err := f.NewTensorDomain(root)
	if err != nil {
		return nil, irerr.AsInternal(err)
	}

	producer := f.newTensorView(producerDomain, tv.dtype)
	inputs := def.inputs
	f.removeExpr(def)
	f.addExpr(def.op, []Val{producer}, inputs)
	f.addExpr(def.op, []Val{tv}, []Val{producer})
	tv.domain = consumerDomain
	f.log.WithFields(logrus.Fields{
		"tensor":   tv.name,
		"producer": producer.name,
		"axes":     axes,
	}).Debug("rfactor")
	return producer, nil
}

// rFactorProducerDomain replays the domain of tv onto a copy of its root
// domain. Axes of the leaf domain of the result line up with the leaf domain
// of tv. Reduction axes not factored are changed into iteration axes.
func (tv *TensorView) rFactorProducerDomain(factored map[*IterDomain]bool) (*TensorDomain, error) {
	f := tv.fusion
	clones := make(map[*IterDomain]*IterDomain, len(tv.domain.root))
	root := make([]*IterDomain, len(tv.domain.root))
	for i, id := range tv.domain.root {
		root[i] = id.with(id.iterType, id.parallel)
		clones[id] = root[i]
	}
	td, err := f.NewTensorDomain(root)
	if err != nil {
		return nil, irerr.AsInternal(err)
	}
	td, ids, err := td.replay(tv.domain, clones)
	if err != nil {
		return nil, err
	}
	for i, id := range tv.domain.leaf {
		if td.position(ids[id]) != i {
			return nil, irerr.Internalf("replayed axis %s of %s is not at position %d in %s", id, tv.name, i, td)
		}
	}
	notFactored := func(id *IterDomain) bool {
		return id.IsReduction() && !factored[id]
	}
	for pos := range iter.Positions(notFactored, tv.domain.leaf) {
		td = td.retype(pos, irkind.Iteration)
	}
	return td, nil
}

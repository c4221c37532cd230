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
	"fmt"

	"github.com/gx-org/backend/shape"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
	"github.com/sirupsen/logrus"
)

// TensorView is the handle used to schedule a tensor.
//
// A TensorView owns a TensorDomain describing how the tensor is iterated
// over. Its dimensionality changes as the domain is split and merged.
// A TensorView can be computed at one of its consumers, that is its loop nest
// is nested inside the loop nest of the consumer up to a given position.
type TensorView struct {
	valBase
	name  string
	dtype irkind.DataType

	domain *TensorDomain

	computeAtView         ValID
	thisComputeAtAxis     int
	relativeComputeAtAxis int

	memoryType irkind.MemoryType
}

var _ Val = (*TensorView)(nil)

// NewTensorView returns a new tensor iterated over a domain.
func (f *Fusion) NewTensorView(td *TensorDomain, dt irkind.DataType) (*TensorView, error) {
	if td == nil {
		return nil, irerr.Structuralf("tensor view without a domain")
	}
	if td.fusion != f {
		return nil, irerr.Invariantf("domain %s belongs to another fusion", td)
	}
	if dt == irkind.InvalidData {
		return nil, irerr.Structuralf("tensor view with an invalid data type")
	}
	return f.newTensorView(td, dt), nil
}

func (f *Fusion) newTensorView(td *TensorDomain, dt irkind.DataType) *TensorView {
	tv := &TensorView{
		name:       f.names.Next("T"),
		dtype:      dt,
		domain:     td,
		memoryType: irkind.Global,
	}
	f.register(tv)
	f.log.WithFields(logrus.Fields{"tensor": tv.name, "domain": td.String()}).Debug("new tensor view")
	return tv
}

// NewTensorFromShape returns a tensor view from a shape descriptor.
// Negative axis lengths are replaced by symbolic extents.
func (f *Fusion) NewTensorFromShape(sh *shape.Shape) (*TensorView, error) {
	if sh == nil {
		return nil, irerr.Structuralf("nil shape")
	}
	dt, err := irkind.FromDType(sh.DType)
	if err != nil {
		return nil, irerr.Wrapf(irerr.Structuralf("%v", err), "cannot create a tensor from shape")
	}
	root := make([]*IterDomain, len(sh.AxisLengths))
	for i, length := range sh.AxisLengths {
		var extent Val
		if length < 0 {
			extent = f.NewInt()
		} else {
			extent = f.ConstInt(int64(length))
		}
		root[i] = f.newIterDomain(f.ConstInt(0), extent, irkind.Iteration, irkind.Serial)
	}
	td, err := f.NewTensorDomain(root)
	if err != nil {
		return nil, err
	}
	return f.newTensorView(td, dt), nil
}

// NewSymbolicTensor returns a tensor view which axes have symbolic extents.
func (f *Fusion) NewSymbolicTensor(ndims int, dt irkind.DataType) (*TensorView, error) {
	if ndims < 0 {
		return nil, irerr.Structuralf("negative number of dimensions: %d", ndims)
	}
	root := make([]*IterDomain, ndims)
	for i := range root {
		root[i] = f.newIterDomain(f.ConstInt(0), f.NewInt(), irkind.Iteration, irkind.Serial)
	}
	td, err := f.NewTensorDomain(root)
	if err != nil {
		return nil, err
	}
	return f.NewTensorView(td, dt)
}

// Name of the tensor.
func (tv *TensorView) Name() string {
	return tv.name
}

// DataType of the elements of the tensor.
func (tv *TensorView) DataType() irkind.DataType {
	return tv.dtype
}

// Domain returns the current domain of the tensor.
func (tv *TensorView) Domain() *TensorDomain {
	return tv.domain
}

// RootDomain returns the axes of the tensor as they were defined.
func (tv *TensorView) RootDomain() []*IterDomain {
	return tv.domain.Root()
}

// NDims returns the number of axes of the current domain.
func (tv *TensorView) NDims() int {
	return tv.domain.NDims()
}

// Axis returns the axis at a position of the current domain.
func (tv *TensorView) Axis(pos int) (*IterDomain, error) {
	id, err := tv.domain.Axis(pos)
	if err != nil {
		return nil, irerr.Wrapf(err, "tensor %s", tv.name)
	}
	return id, nil
}

// HasReduction returns true if the tensor is reduced along at least one axis.
func (tv *TensorView) HasReduction() bool {
	return tv.domain.HasReduction()
}

// HasBlockReduction returns true if a reduction is bound to a thread block dimension.
func (tv *TensorView) HasBlockReduction() bool {
	return tv.domain.HasBlockReduction()
}

// HasGridReduction returns true if a reduction is bound to a grid dimension.
func (tv *TensorView) HasGridReduction() bool {
	return tv.domain.HasGridReduction()
}

// HasBroadcast returns true if the tensor has at least one broadcast axis.
func (tv *TensorView) HasBroadcast() bool {
	return tv.domain.HasBroadcast()
}

// MemoryType returns where the tensor is stored.
func (tv *TensorView) MemoryType() irkind.MemoryType {
	return tv.memoryType
}

// SetMemoryType sets where the tensor is stored.
// Inputs and outputs of the fusion can only be stored in global memory.
func (tv *TensorView) SetMemoryType(mt irkind.MemoryType) error {
	if mt != irkind.Global && (tv.fusion.HasInput(tv) || tv.fusion.HasOutput(tv)) {
		return irerr.Invariantf("tried to set input or output %s of the fusion to %s memory", tv.name, mt)
	}
	tv.memoryType = mt
	return nil
}

// ComputeAtProducers returns the tensors computed at this tensor.
func (tv *TensorView) ComputeAtProducers() []*TensorView {
	var producers []*TensorView
	for _, other := range tv.fusion.TensorViews() {
		if other.computeAtView == tv.ID() {
			producers = append(producers, other)
		}
	}
	return producers
}

// fixedPrefix returns the number of leading axes which can not be transformed
// anymore because of compute-at relations, either with a consumer or with
// producers.
func (tv *TensorView) fixedPrefix() int {
	fixed := 0
	if tv.HasComputeAt() {
		fixed = tv.thisComputeAtAxis
	}
	for _, producer := range tv.ComputeAtProducers() {
		fixed = max(fixed, producer.relativeComputeAtAxis)
	}
	return fixed
}

func (tv *TensorView) transform(op string, touched []int, apply func(*TensorDomain) (*TensorDomain, error)) error {
	fixed := tv.fixedPrefix()
	for _, pos := range touched {
		if pos >= 0 && pos < fixed {
			return irerr.Invariantf("cannot %s axis %d of %s: axes before position %d are fixed by compute-at", op, pos, tv.name, fixed)
		}
	}
	td, err := apply(tv.domain)
	if err != nil {
		return irerr.Wrapf(err, "cannot %s %s", op, tv.name)
	}
	tv.domain = td
	tv.fusion.log.WithFields(logrus.Fields{
		"tensor": tv.name,
		"op":     op,
		"domain": td.String(),
	}).Debug("transform")
	return nil
}

// Split the axis at a position into an outer axis of extent
// ceilDiv(extent, factor) followed by an inner axis of extent factor.
func (tv *TensorView) Split(axis, factor int) error {
	return tv.transform("split", []int{axis}, func(td *TensorDomain) (*TensorDomain, error) {
		return td.Split(axis, factor)
	})
}

// Merge the axis at position axisO with the axis at position axisI.
func (tv *TensorView) Merge(axisO, axisI int) error {
	return tv.transform("merge", []int{axisO, axisI}, func(td *TensorDomain) (*TensorDomain, error) {
		return td.Merge(axisO, axisI)
	})
}

// MergeAdjacent merges the axis at a position with the next axis.
func (tv *TensorView) MergeAdjacent(axis int) error {
	return tv.Merge(axis, axis+1)
}

// Reorder the axes. old2new maps every current position to its new position.
func (tv *TensorView) Reorder(old2new map[int]int) error {
	var touched []int
	for old, nw := range old2new {
		if old != nw {
			touched = append(touched, old, nw)
		}
	}
	return tv.transform("reorder", touched, func(td *TensorDomain) (*TensorDomain, error) {
		return td.Reorder(old2new)
	})
}

// Parallelize binds the axis at a position to a parallel dimension.
func (tv *TensorView) Parallelize(axis int, pt irkind.ParallelType) error {
	return tv.transform("parallelize", nil, func(td *TensorDomain) (*TensorDomain, error) {
		return td.Parallelize(axis, pt)
	})
}

// ReplayFrom replays the transforms of a reference tensor onto this tensor.
// Root axes of both tensors are matched by position, skipping the reduction
// axes of this tensor and the broadcast axes of the reference this tensor
// does not have.
func (tv *TensorView) ReplayFrom(ref *TensorView) error {
	if err := tv.fusion.checkOwned(ref); err != nil {
		return err
	}
	if ref == tv {
		return nil
	}
	if fixed := tv.fixedPrefix(); fixed > 0 {
		return irerr.Invariantf("cannot replay %s onto %s: axes before position %d are fixed by compute-at", ref.name, tv.name, fixed)
	}
	rootMap, err := rootMapping(tv.domain, ref.domain)
	if err != nil {
		return irerr.Wrapf(err, "cannot replay %s onto %s", ref.name, tv.name)
	}
	return tv.transform("replay", nil, func(td *TensorDomain) (*TensorDomain, error) {
		return td.Replay(ref.domain, rootMap)
	})
}

// SameAs returns true if other is this tensor.
func (tv *TensorView) SameAs(other Val) bool {
	o, ok := other.(*TensorView)
	return ok && o == tv
}

func (tv *TensorView) memoryLetter() string {
	switch tv.memoryType {
	case irkind.Shared:
		return "s"
	case irkind.Local:
		return "l"
	default:
		return "g"
	}
}

func (tv *TensorView) String() string {
	s := fmt.Sprintf("%s_%s%s", tv.name, tv.memoryLetter(), tv.domain)
	if !tv.HasComputeAt() {
		return s
	}
	view, err := tv.fusion.TensorView(tv.computeAtView)
	if err != nil {
		return s + " compute_at( <invalid> )"
	}
	return s + fmt.Sprintf(" compute_at( %s, %d )", view.name, tv.thisComputeAtAxis)
}

func (tv *TensorView) clone(c *Cloner) Val {
	return &TensorView{
		name:                  tv.name,
		dtype:                 tv.dtype,
		domain:                cloned(c, tv.domain),
		computeAtView:         tv.computeAtView,
		thisComputeAtAxis:     tv.thisComputeAtAxis,
		relativeComputeAtAxis: tv.relativeComputeAtAxis,
		memoryType:            tv.memoryType,
	}
}

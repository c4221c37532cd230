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
	"slices"

	"github.com/gx-org/fuser/base/iter"
	"github.com/gx-org/fuser/base/ordered"
	"github.com/gx-org/fuser/base/stringseq"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
)

type (
	// Transform is a record in the log of a TensorDomain.
	Transform struct {
		Kind irkind.TransformKind
		// Axes are the leaf positions of the operands when the transform was applied.
		// For a reorder, Axes[old] is the new position of the axis at position old.
		Axes []int
		// Factor of a split.
		Factor *Int
		// Parallel is the binding set by a parallelize transform.
		Parallel irkind.ParallelType
		// Role is the role set by a retype transform.
		Role irkind.IterType
		// Inputs are the axes consumed by the transform.
		Inputs []*IterDomain
		// Outputs are the axes produced by the transform.
		// A split produces the outer axis first.
		Outputs []*IterDomain
	}

	// TensorDomain is the ordered set of axes a tensor is iterated over.
	//
	// A TensorDomain is immutable. Transforms return a new domain sharing the
	// root of the original domain and extending a copy of its log.
	TensorDomain struct {
		valBase
		root []*IterDomain
		leaf []*IterDomain
		log  []*Transform
	}
)

var _ Val = (*TensorDomain)(nil)

// NewTensorDomain returns an untransformed domain.
func (f *Fusion) NewTensorDomain(root []*IterDomain) (*TensorDomain, error) {
	seen := make(map[*IterDomain]bool, len(root))
	for i, id := range root {
		if id == nil {
			return nil, irerr.Structuralf("axis %d of the domain is nil", i)
		}
		if id.fusion != f {
			return nil, irerr.Invariantf("axis %s belongs to another fusion", id)
		}
		if seen[id] {
			return nil, irerr.Structuralf("axis %s appears more than once in the domain", id)
		}
		seen[id] = true
	}
	td := &TensorDomain{root: slices.Clone(root), leaf: slices.Clone(root)}
	f.register(td)
	return td, nil
}

func (td *TensorDomain) derive(leaf []*IterDomain, rec *Transform) *TensorDomain {
	nd := &TensorDomain{
		root: td.root,
		leaf: leaf,
		log:  append(slices.Clip(td.log), rec),
	}
	td.fusion.register(nd)
	return nd
}

// Root returns the axes of the domain as it was defined.
func (td *TensorDomain) Root() []*IterDomain {
	return slices.Clone(td.root)
}

// Leaf returns the axes of the domain after all the transforms.
func (td *TensorDomain) Leaf() []*IterDomain {
	return slices.Clone(td.leaf)
}

// Log returns the transforms applied to the root domain, in order.
func (td *TensorDomain) Log() []*Transform {
	return slices.Clone(td.log)
}

// NDims returns the number of axes in the leaf domain.
func (td *TensorDomain) NDims() int {
	return len(td.leaf)
}

func (td *TensorDomain) checkPos(pos int) error {
	if len(td.leaf) == 0 {
		return irerr.Invariantf("cannot access axis %d of a zero-dimensional domain", pos)
	}
	if pos < 0 || pos >= len(td.leaf) {
		return irerr.Structuralf("axis %d out of range: domain %s has %d axes", pos, td, len(td.leaf))
	}
	return nil
}

// Axis returns the leaf axis at a position.
func (td *TensorDomain) Axis(pos int) (*IterDomain, error) {
	if err := td.checkPos(pos); err != nil {
		return nil, err
	}
	return td.leaf[pos], nil
}

func (td *TensorDomain) position(id *IterDomain) int {
	return slices.Index(td.leaf, id)
}

// HasReduction returns true if at least one leaf axis is a reduction.
func (td *TensorDomain) HasReduction() bool {
	return iter.Any((*IterDomain).IsReduction, td.leaf)
}

// HasBroadcast returns true if at least one leaf axis is a broadcast.
func (td *TensorDomain) HasBroadcast() bool {
	return iter.Any((*IterDomain).IsBroadcast, td.leaf)
}

// HasBlockReduction returns true if a reduction axis is bound to a thread block dimension.
func (td *TensorDomain) HasBlockReduction() bool {
	return iter.Any(func(id *IterDomain) bool {
		return id.IsReduction() && id.IsThreadDim()
	}, td.leaf)
}

// HasGridReduction returns true if a reduction axis is bound to a grid dimension.
func (td *TensorDomain) HasGridReduction() bool {
	return iter.Any(func(id *IterDomain) bool {
		return id.IsReduction() && id.IsBlockDim()
	}, td.leaf)
}

// Split the axis at a position into an outer axis of extent
// ceilDiv(extent, factor) followed by an inner axis of extent factor.
func (td *TensorDomain) Split(axis, factor int) (*TensorDomain, error) {
	if err := td.checkPos(axis); err != nil {
		return nil, err
	}
	if factor <= 0 {
		return nil, irerr.Structuralf("split factor must be positive: got %d", factor)
	}
	id := td.leaf[axis]
	if !id.hasZeroStart() {
		return nil, irerr.Structuralf("cannot split axis %s: start is not 0", id)
	}
	f := td.fusion
	fac := f.ConstInt(int64(factor))
	return td.split(axis, fac)
}

func (td *TensorDomain) split(axis int, fac *Int) (*TensorDomain, error) {
	f := td.fusion
	id := td.leaf[axis]
	outerExtent, err := f.CeilDiv(id.extent, fac)
	if err != nil {
		return nil, err
	}
	outer := f.newIterDomain(id.start, outerExtent, id.iterType, irkind.Serial)
	inner := f.newIterDomain(id.start, fac, id.iterType, irkind.Serial)
	leaf := slices.Concat(td.leaf[:axis], []*IterDomain{outer, inner}, td.leaf[axis+1:])
	return td.derive(leaf, &Transform{
		Kind:    irkind.Split,
		Axes:    []int{axis},
		Factor:  fac,
		Inputs:  []*IterDomain{id},
		Outputs: []*IterDomain{outer, inner},
	}), nil
}

// Merge two adjacent axes into one axis of extent outer.extent*inner.extent,
// or the extent of the split axis when outer and inner come from the same split.
// The outer axis must be immediately followed by the inner axis.
func (td *TensorDomain) Merge(axisO, axisI int) (*TensorDomain, error) {
	for _, pos := range []int{axisO, axisI} {
		if err := td.checkPos(pos); err != nil {
			return nil, err
		}
	}
	if axisI != axisO+1 {
		return nil, irerr.Structuralf("cannot merge axes %d and %d: the inner axis must immediately follow the outer axis", axisO, axisI)
	}
	outer, inner := td.leaf[axisO], td.leaf[axisI]
	for _, id := range []*IterDomain{outer, inner} {
		if !id.hasZeroStart() {
			return nil, irerr.Structuralf("cannot merge axis %s: start is not 0", id)
		}
	}
	role, err := td.fusion.mergePolicy(outer.iterType, inner.iterType)
	if err != nil {
		return nil, irerr.Wrapf(err, "cannot merge %s and %s", outer, inner)
	}
	extent, err := td.mergedExtent(outer, inner)
	if err != nil {
		return nil, err
	}
	merged := td.fusion.newIterDomain(outer.start, extent, role, irkind.Serial)
	leaf := slices.Concat(td.leaf[:axisO], []*IterDomain{merged}, td.leaf[axisI+1:])
	return td.derive(leaf, &Transform{
		Kind:    irkind.Merge,
		Axes:    []int{axisO, axisI},
		Inputs:  []*IterDomain{outer, inner},
		Outputs: []*IterDomain{merged},
	}), nil
}

// mergedExtent is the extent of the axis merging outer and inner.
// Merging back the two outputs of a split gives the extent of the split axis.
func (td *TensorDomain) mergedExtent(outer, inner *IterDomain) (Val, error) {
	rec, out := td.origin(outer)
	if rec != nil && rec.Kind == irkind.Split && out == 0 && rec.Outputs[1] == inner {
		return rec.Inputs[0].extent, nil
	}
	return td.fusion.Mul(outer.extent, inner.extent)
}

// Reorder the leaf axes. old2new maps every position of the leaf domain to
// its new position and must be a permutation.
// An identity permutation returns the domain unchanged.
func (td *TensorDomain) Reorder(old2new map[int]int) (*TensorDomain, error) {
	axes, err := permutation(len(td.leaf), old2new)
	if err != nil {
		return nil, err
	}
	return td.reorder(axes), nil
}

func permutation(n int, old2new map[int]int) ([]int, error) {
	if len(old2new) != n {
		return nil, irerr.Structuralf("reorder map has %d entries but the domain has %d axes", len(old2new), n)
	}
	axes := make([]int, n)
	taken := make([]bool, n)
	for _, old := range ordered.SortedKeys(old2new) {
		nw := old2new[old]
		if old < 0 || old >= n {
			return nil, irerr.Structuralf("reorder source position %d out of range [0, %d)", old, n)
		}
		if nw < 0 || nw >= n {
			return nil, irerr.Structuralf("reorder target position %d out of range [0, %d)", nw, n)
		}
		if taken[nw] {
			return nil, irerr.Structuralf("reorder maps more than one axis to position %d", nw)
		}
		taken[nw] = true
		axes[old] = nw
	}
	return axes, nil
}

func isIdentity(axes []int) bool {
	for i, pos := range axes {
		if i != pos {
			return false
		}
	}
	return true
}

func (td *TensorDomain) reorder(axes []int) *TensorDomain {
	if isIdentity(axes) {
		return td
	}
	leaf := make([]*IterDomain, len(td.leaf))
	for old, nw := range axes {
		leaf[nw] = td.leaf[old]
	}
	return td.derive(leaf, &Transform{
		Kind: irkind.Reorder,
		Axes: axes,
	})
}

// Parallelize binds the axis at a position.
func (td *TensorDomain) Parallelize(pos int, pt irkind.ParallelType) (*TensorDomain, error) {
	if err := td.checkPos(pos); err != nil {
		return nil, err
	}
	id := td.leaf[pos]
	if id.parallel == pt {
		return td, nil
	}
	return td.replace(pos, id.with(id.iterType, pt), &Transform{
		Kind:     irkind.Parallelize,
		Parallel: pt,
	}), nil
}

func (td *TensorDomain) retype(pos int, role irkind.IterType) *TensorDomain {
	id := td.leaf[pos]
	if id.iterType == role {
		return td
	}
	return td.replace(pos, id.with(role, id.parallel), &Transform{
		Kind: irkind.Retype,
		Role: role,
	})
}

func (td *TensorDomain) replace(pos int, nw *IterDomain, rec *Transform) *TensorDomain {
	leaf := slices.Clone(td.leaf)
	rec.Axes = []int{pos}
	rec.Inputs = []*IterDomain{leaf[pos]}
	rec.Outputs = []*IterDomain{nw}
	leaf[pos] = nw
	return td.derive(leaf, rec)
}

// origin returns the transform producing an axis and the index of the axis
// in the outputs of the transform. A root axis has no origin.
func (td *TensorDomain) origin(id *IterDomain) (*Transform, int) {
	for i := len(td.log) - 1; i >= 0; i-- {
		rec := td.log[i]
		if out := slices.Index(rec.Outputs, id); out >= 0 {
			return rec, out
		}
	}
	return nil, -1
}

// DataType of a domain is the data type of its indices.
func (td *TensorDomain) DataType() irkind.DataType {
	return irkind.Int
}

// SameAs returns true if both domains have the same leaf axes.
func (td *TensorDomain) SameAs(other Val) bool {
	o, ok := other.(*TensorDomain)
	if !ok || o == nil {
		return false
	}
	if td == o {
		return true
	}
	return slices.EqualFunc(td.leaf, o.leaf, func(a, b *IterDomain) bool {
		return a.SameAs(b)
	})
}

func axesString(ids []*IterDomain) string {
	return stringseq.List(ids)
}

func (td *TensorDomain) String() string {
	return axesString(td.leaf)
}

func (rec *Transform) String() string {
	switch rec.Kind {
	case irkind.Split:
		return fmt.Sprintf("split %s by %s -> %s, %s", rec.Inputs[0], rec.Factor, rec.Outputs[0], rec.Outputs[1])
	case irkind.Merge:
		return fmt.Sprintf("merge %s, %s -> %s", rec.Inputs[0], rec.Inputs[1], rec.Outputs[0])
	case irkind.Reorder:
		return fmt.Sprintf("reorder %v", rec.Axes)
	case irkind.Parallelize:
		return fmt.Sprintf("parallelize %s -> %s", rec.Inputs[0], rec.Outputs[0])
	default:
		return fmt.Sprintf("%s %s -> %s", rec.Kind, rec.Inputs[0], rec.Outputs[0])
	}
}

func (td *TensorDomain) clone(c *Cloner) Val {
	nd := &TensorDomain{
		root: c.iterDomains(td.root),
		leaf: c.iterDomains(td.leaf),
		log:  make([]*Transform, len(td.log)),
	}
	for i, rec := range td.log {
		nrec := *rec
		nrec.Axes = slices.Clone(rec.Axes)
		if rec.Factor != nil {
			nrec.Factor = cloned(c, rec.Factor)
		}
		nrec.Inputs = c.iterDomains(rec.Inputs)
		nrec.Outputs = c.iterDomains(rec.Outputs)
		nd.log[i] = &nrec
	}
	return nd
}

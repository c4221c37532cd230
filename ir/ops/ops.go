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

// Package ops builds expressions of a fusion and the tensors they compute.
//
// The root domain of an output is derived from the root domains of the
// inputs, without the axes the inputs have reduced. The extents of the
// outputs are the extents of the inputs.
package ops

import (
	"slices"

	"github.com/gx-org/fuser/base/iter"
	"github.com/gx-org/fuser/ir"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
)

func liveRoot(tv *ir.TensorView) []*ir.IterDomain {
	return slices.DeleteFunc(tv.RootDomain(), (*ir.IterDomain).IsReduction)
}

func newAxis(f *ir.Fusion, like *ir.IterDomain, iterType irkind.IterType) (*ir.IterDomain, error) {
	return f.NewIterDomain(like.Start(), like.Extent(), iterType, irkind.Serial)
}

func newOutput(f *ir.Fusion, op irkind.OpType, root []*ir.IterDomain, dt irkind.DataType, inputs ...*ir.TensorView) (*ir.TensorView, error) {
	td, err := f.NewTensorDomain(root)
	if err != nil {
		return nil, err
	}
	out, err := f.NewTensorView(td, dt)
	if err != nil {
		return nil, err
	}
	ins := make([]ir.Val, len(inputs))
	for i, in := range inputs {
		ins[i] = in
	}
	if _, err := f.NewExpr(op, []ir.Val{out}, ins); err != nil {
		return nil, err
	}
	return out, nil
}

// Unary returns the tensor computed by applying an element-wise operator.
func Unary(op irkind.OpType, in *ir.TensorView) (*ir.TensorView, error) {
	f := in.Fusion()
	var root []*ir.IterDomain
	for _, id := range liveRoot(in) {
		iterType := irkind.Iteration
		if id.IsBroadcast() {
			iterType = irkind.Broadcast
		}
		axis, err := newAxis(f, id, iterType)
		if err != nil {
			return nil, err
		}
		root = append(root, axis)
	}
	return newOutput(f, op, root, in.DataType(), in)
}

// Set returns a copy of a tensor.
func Set(in *ir.TensorView) (*ir.TensorView, error) {
	return Unary(irkind.Set, in)
}

// Binary returns the tensor computed by applying an element-wise operator
// on two tensors. Both tensors must have the same number of axes.
// A broadcast axis takes the extent of the other operand.
func Binary(op irkind.OpType, a, b *ir.TensorView) (*ir.TensorView, error) {
	f := a.Fusion()
	if b.Fusion() != f {
		return nil, irerr.Invariantf("operands %s and %s of %s belong to different fusions", a.Name(), b.Name(), op)
	}
	ra, rb := liveRoot(a), liveRoot(b)
	if len(ra) != len(rb) {
		return nil, irerr.Structuralf("operands of %s have different number of axes: %s has %d, %s has %d", op, a.Name(), len(ra), b.Name(), len(rb))
	}
	root := make([]*ir.IterDomain, len(ra))
	for i, ia := range ra {
		ib := rb[i]
		like, iterType := ia, irkind.Iteration
		switch {
		case ia.IsBroadcast() && ib.IsBroadcast():
			iterType = irkind.Broadcast
		case ia.IsBroadcast():
			like = ib
		case !ib.IsBroadcast():
			va, aConst := ir.ConstValue(ia.Extent())
			vb, bConst := ir.ConstValue(ib.Extent())
			if aConst && bConst && va != vb {
				return nil, irerr.Structuralf("axis %d of %s: extent %d does not match extent %d", i, op, va, vb)
			}
		}
		axis, err := newAxis(f, like, iterType)
		if err != nil {
			return nil, err
		}
		root[i] = axis
	}
	return newOutput(f, op, root, a.DataType(), a, b)
}

// Add returns a+b.
func Add(a, b *ir.TensorView) (*ir.TensorView, error) {
	return Binary(irkind.Add, a, b)
}

// Mul returns a*b.
func Mul(a, b *ir.TensorView) (*ir.TensorView, error) {
	return Binary(irkind.Mul, a, b)
}

// Sum returns the tensor reduced along axes. Positions refer to the axes
// of the input which are not already reduced.
func Sum(in *ir.TensorView, axes ...int) (*ir.TensorView, error) {
	f := in.Fusion()
	live := liveRoot(in)
	reduced := make([]bool, len(live))
	if len(axes) == 0 {
		return nil, irerr.Structuralf("sum of %s without axes", in.Name())
	}
	for _, axis := range axes {
		if axis < 0 || axis >= len(live) {
			return nil, irerr.Structuralf("cannot reduce %s along axis %d: it has %d axes", in.Name(), axis, len(live))
		}
		if reduced[axis] {
			return nil, irerr.Structuralf("cannot reduce %s along axis %d more than once", in.Name(), axis)
		}
		reduced[axis] = true
	}
	root := make([]*ir.IterDomain, len(live))
	for i, id := range live {
		iterType := irkind.Iteration
		switch {
		case reduced[i]:
			iterType = irkind.Reduction
		case id.IsBroadcast():
			iterType = irkind.Broadcast
		}
		axis, err := newAxis(f, id, iterType)
		if err != nil {
			return nil, err
		}
		root[i] = axis
	}
	return newOutput(f, irkind.Sum, root, in.DataType(), in)
}

// Broadcast returns the tensor with new broadcast axes inserted where
// isBroadcast is true. The number of false entries must be the number of axes
// of the input.
func Broadcast(in *ir.TensorView, isBroadcast []bool) (*ir.TensorView, error) {
	f := in.Fusion()
	live := liveRoot(in)
	kept := iter.Count(func(b bool) bool { return !b }, isBroadcast)
	if kept != len(live) {
		return nil, irerr.Structuralf("cannot broadcast %s: %d axes kept but it has %d axes", in.Name(), kept, len(live))
	}
	root := make([]*ir.IterDomain, len(isBroadcast))
	next := 0
	for i, b := range isBroadcast {
		var axis *ir.IterDomain
		var err error
		if b {
			axis, err = f.NewIterDomain(nil, f.ConstInt(1), irkind.Broadcast, irkind.Serial)
		} else {
			id := live[next]
			next++
			iterType := irkind.Iteration
			if id.IsBroadcast() {
				iterType = irkind.Broadcast
			}
			axis, err = newAxis(f, id, iterType)
		}
		if err != nil {
			return nil, err
		}
		root[i] = axis
	}
	return newOutput(f, irkind.BroadcastOp, root, in.DataType(), in)
}

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

// Package ir is the scheduling intermediate representation of a tensor-kernel
// code generator.
//
// A Fusion owns every node of the IR. Tensors are described by a TensorView
// owning a TensorDomain, the ordered set of axes (IterDomain) the kernel
// iterates over. The domain keeps the axes as they were defined (the root
// domain), the axes after scheduling (the leaf domain), and the log of the
// transforms (split, merge, reorder, ...) going from one to the other.
// Compute-at relations align the loop nest of a producer with the loop nest
// of one of its consumers.
//
// Nodes are never destroyed individually. They live as long as the fusion
// owning them and refer to each other either by pointer, for immutable nodes,
// or by handle (ValID), for relations that can change.
package ir

import (
	"slices"

	"github.com/gx-org/fuser/base/ordered"
	"github.com/gx-org/fuser/base/uname"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
	"github.com/sirupsen/logrus"
)

type (
	// ValID is the handle of a value in a fusion.
	// Zero is the invalid handle.
	ValID uint32

	// ExprID is the handle of an expression in a fusion.
	ExprID uint32

	// MergePolicy returns the role of an axis obtained by merging two axes.
	MergePolicy func(outer, inner irkind.IterType) (irkind.IterType, error)

	// Option configures a fusion.
	Option func(*Fusion)

	// Fusion is the arena owning all the nodes of a kernel being scheduled.
	Fusion struct {
		name        string
		log         logrus.FieldLogger
		mergePolicy MergePolicy

		vals  []Val
		exprs []*Expr
		// definition maps a value to the expression computing it.
		definition map[ValID]ExprID
		uses       map[ValID][]ExprID

		inputs  *ordered.Set[ValID]
		outputs *ordered.Set[ValID]
		names   *uname.Sequence
	}
)

// NoVal is the invalid value handle.
const NoVal ValID = 0

// IsValid returns true if the handle is not the invalid handle.
func (id ValID) IsValid() bool { return id != NoVal }

// DefaultMergePolicy is the policy used when a fusion is not configured with one.
// Two axes of the same role merge into an axis of that role.
// A broadcast axis takes the role of the other axis.
// Merging an iteration axis with a reduction axis is an error.
func DefaultMergePolicy(outer, inner irkind.IterType) (irkind.IterType, error) {
	switch {
	case outer == inner:
		return outer, nil
	case outer == irkind.Broadcast:
		return inner, nil
	case inner == irkind.Broadcast:
		return outer, nil
	}
	return irkind.Iteration, irerr.Structuralf("cannot merge a %s axis with a %s axis", outer, inner)
}

// WithLogger sets the logger used by the fusion.
func WithLogger(log logrus.FieldLogger) Option {
	return func(f *Fusion) {
		f.log = log
	}
}

// WithMergePolicy sets the policy deciding the role of merged axes.
func WithMergePolicy(policy MergePolicy) Option {
	return func(f *Fusion) {
		f.mergePolicy = policy
	}
}

// WithName sets the name of the fusion.
func WithName(name string) Option {
	return func(f *Fusion) {
		f.name = name
	}
}

// NewFusion returns a new empty fusion.
func NewFusion(opts ...Option) *Fusion {
	f := &Fusion{
		name:        "fusion",
		log:         logrus.StandardLogger(),
		mergePolicy: DefaultMergePolicy,
		definition:  make(map[ValID]ExprID),
		uses:        make(map[ValID][]ExprID),
		inputs:      ordered.NewSet[ValID](),
		outputs:     ordered.NewSet[ValID](),
		names:       uname.New(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Name of the fusion.
func (f *Fusion) Name() string {
	return f.name
}

// Logger returns the logger of the fusion.
func (f *Fusion) Logger() logrus.FieldLogger {
	return f.log
}

func (f *Fusion) register(v Val) {
	b := v.base()
	b.fusion = f
	b.id = ValID(len(f.vals) + 1)
	f.vals = append(f.vals, v)
}

// Val returns the value given its handle.
func (f *Fusion) Val(id ValID) (Val, error) {
	if !id.IsValid() || int(id) > len(f.vals) {
		return nil, irerr.Internalf("value handle %d is not valid in fusion %s with %d values", id, f.name, len(f.vals))
	}
	return f.vals[id-1], nil
}

// TensorView returns the tensor view given its handle.
func (f *Fusion) TensorView(id ValID) (*TensorView, error) {
	v, err := f.Val(id)
	if err != nil {
		return nil, err
	}
	tv, ok := v.(*TensorView)
	if !ok {
		return nil, irerr.Internalf("value handle %d refers to %T and not to a tensor view", id, v)
	}
	return tv, nil
}

// NumVals returns the number of values owned by the fusion.
func (f *Fusion) NumVals() int {
	return len(f.vals)
}

// Vals returns all the values in the order in which they were created.
func (f *Fusion) Vals() []Val {
	return slices.Clone(f.vals)
}

// TensorViews returns all tensor views in the order in which they were created.
func (f *Fusion) TensorViews() []*TensorView {
	var tvs []*TensorView
	for _, v := range f.vals {
		if tv, ok := v.(*TensorView); ok {
			tvs = append(tvs, tv)
		}
	}
	return tvs
}

func (f *Fusion) checkOwned(tv *TensorView) error {
	if tv == nil {
		return irerr.Invariantf("nil tensor view")
	}
	if tv.fusion != f {
		return irerr.Invariantf("tensor view %s does not belong to fusion %s", tv.Name(), f.name)
	}
	return nil
}

func (f *Fusion) addBoundary(set *ordered.Set[ValID], what string, tv *TensorView) error {
	if err := f.checkOwned(tv); err != nil {
		return err
	}
	if tv.memoryType != irkind.Global {
		return irerr.Invariantf("cannot register %s as a fusion %s: memory type is %s instead of %s", tv.Name(), what, tv.memoryType, irkind.Global)
	}
	set.Add(tv.ID())
	return nil
}

// AddInput registers a tensor as an input of the fusion.
func (f *Fusion) AddInput(tv *TensorView) error {
	return f.addBoundary(f.inputs, "input", tv)
}

// AddOutput registers a tensor as an output of the fusion.
func (f *Fusion) AddOutput(tv *TensorView) error {
	return f.addBoundary(f.outputs, "output", tv)
}

// HasInput returns true if the tensor is an input of the fusion.
func (f *Fusion) HasInput(tv *TensorView) bool {
	return tv != nil && tv.fusion == f && f.inputs.Has(tv.ID())
}

// HasOutput returns true if the tensor is an output of the fusion.
func (f *Fusion) HasOutput(tv *TensorView) bool {
	return tv != nil && tv.fusion == f && f.outputs.Has(tv.ID())
}

func (f *Fusion) boundary(set *ordered.Set[ValID]) []*TensorView {
	tvs := make([]*TensorView, 0, set.Size())
	for id := range set.All() {
		tvs = append(tvs, f.vals[id-1].(*TensorView))
	}
	return tvs
}

// Inputs returns the inputs of the fusion in registration order.
func (f *Fusion) Inputs() []*TensorView {
	return f.boundary(f.inputs)
}

// Outputs returns the outputs of the fusion in registration order.
func (f *Fusion) Outputs() []*TensorView {
	return f.boundary(f.outputs)
}

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

// Package loopnest builds the loop nest of a scheduled fusion.
//
// Every tensor computed by the fusion is visited in topological order. Each
// of its axes is resolved to the axis and tensor which actually own the loop
// (following compute-at relations). Loops opened by a producer over axes of
// its consumer are reused by the consumer.
package loopnest

import (
	"fmt"
	"strings"

	"github.com/gx-org/fuser/base/iter"
	"github.com/gx-org/fuser/base/stringseq"
	"github.com/gx-org/fuser/ir"
	"github.com/sirupsen/logrus"
)

type (
	// Node of a loop nest.
	Node interface {
		node()
		write(b *strings.Builder, indent string)
	}

	// Loop iterates over an axis owned by a tensor.
	Loop struct {
		Axis  *ir.IterDomain
		Owner *ir.TensorView
		Body  []Node
	}

	// Alloc allocates the buffer of a tensor over the axes not shared with
	// its compute-at view.
	Alloc struct {
		Tensor *ir.TensorView
		Axes   []*ir.IterDomain
	}

	// Compute evaluates the expression computing a tensor.
	Compute struct {
		Tensor *ir.TensorView
		Expr   *ir.Expr
	}

	// Nest is the outermost scope of a loop nest.
	Nest struct {
		Body []Node
	}
)

func (*Loop) node()    {}
func (*Alloc) node()   {}
func (*Compute) node() {}

// Generate returns the loop nest of a fusion.
func Generate(f *ir.Fusion) (*Nest, error) {
	nest := &Nest{}
	for _, e := range f.Exprs() {
		for _, out := range e.Outputs() {
			tv, ok := out.(*ir.TensorView)
			if !ok {
				continue
			}
			if err := nest.place(tv, e); err != nil {
				return nil, err
			}
			f.Logger().WithFields(logrus.Fields{"tensor": tv.Name()}).Debug("loop nest")
		}
	}
	return nest, nil
}

func lastLoop(scope []Node, axis *ir.IterDomain) *Loop {
	if len(scope) == 0 {
		return nil
	}
	loop, ok := scope[len(scope)-1].(*Loop)
	if !ok || loop.Axis != axis {
		return nil
	}
	return loop
}

func (n *Nest) place(tv *ir.TensorView, e *ir.Expr) error {
	scope := &n.Body
	allocAt := 0
	if tv.HasComputeAt() {
		allocAt = tv.ThisComputeAtAxis()
	}
	leaf := tv.Domain().Leaf()
	for pos := range tv.NDims() {
		axis, owner, err := tv.ComputeAtAxis(pos)
		if err != nil {
			return err
		}
		loop := lastLoop(*scope, axis)
		if pos == allocAt {
			alloc := newAlloc(tv, leaf[pos:])
			if loop != nil {
				// Allocate before the loop opened by a producer.
				last := len(*scope) - 1
				*scope = append((*scope)[:last:last], alloc, loop)
			} else {
				*scope = append(*scope, alloc)
			}
		}
		if loop == nil {
			loop = &Loop{Axis: axis, Owner: owner}
			*scope = append(*scope, loop)
		}
		scope = &loop.Body
	}
	if allocAt == tv.NDims() {
		*scope = append(*scope, newAlloc(tv, nil))
	}
	*scope = append(*scope, &Compute{Tensor: tv, Expr: e})
	return nil
}

func newAlloc(tv *ir.TensorView, axes []*ir.IterDomain) *Alloc {
	alloc := &Alloc{Tensor: tv}
	for axis := range iter.Filter(allocated, axes) {
		alloc.Axes = append(alloc.Axes, axis)
	}
	return alloc
}

func allocated(axis *ir.IterDomain) bool {
	return !axis.IsReduction() && !axis.IsBroadcast()
}

// Loops returns the loops enclosing the computation of a tensor, outermost first.
func (n *Nest) Loops(tv *ir.TensorView) []*Loop {
	var find func(body []Node, path []*Loop) []*Loop
	find = func(body []Node, path []*Loop) []*Loop {
		for _, node := range body {
			switch nd := node.(type) {
			case *Compute:
				if nd.Tensor == tv {
					return path
				}
			case *Loop:
				if found := find(nd.Body, append(path[:len(path):len(path)], nd)); found != nil {
					return found
				}
			}
		}
		return nil
	}
	return find(n.Body, []*Loop{})
}

func (l *Loop) write(b *strings.Builder, indent string) {
	fmt.Fprintf(b, "%sfor %s in %s {\n", indent, l.Owner.Name(), l.Axis)
	for _, node := range l.Body {
		node.write(b, indent+"  ")
	}
	fmt.Fprintf(b, "%s}\n", indent)
}

func (a *Alloc) write(b *strings.Builder, indent string) {
	extents := stringseq.JoinFunc(a.Axes, func(axis *ir.IterDomain) string {
		return axis.Extent().String()
	}, ", ")
	fmt.Fprintf(b, "%salloc %s %s[%s]\n", indent, a.Tensor.Name(), a.Tensor.MemoryType(), extents)
}

func (c *Compute) write(b *strings.Builder, indent string) {
	names := stringseq.JoinFunc(c.Expr.Inputs(), func(in ir.Val) string {
		if tv, ok := in.(*ir.TensorView); ok {
			return tv.Name()
		}
		return in.String()
	}, ", ")
	fmt.Fprintf(b, "%s%s = %s(%s)\n", indent, c.Tensor.Name(), c.Expr.Op(), names)
}

func (n *Nest) String() string {
	b := &strings.Builder{}
	for _, node := range n.Body {
		node.write(b, "")
	}
	return b.String()
}

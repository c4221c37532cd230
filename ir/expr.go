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

	"github.com/gx-org/fuser/base/stringseq"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
)

// Expr is an operation of the fusion computing output values from input values.
type Expr struct {
	fusion  *Fusion
	id      ExprID
	op      irkind.OpType
	inputs  []Val
	outputs []Val
	live    bool
}

// NewExpr registers an expression in the fusion.
// Every output must not already be computed by another expression.
func (f *Fusion) NewExpr(op irkind.OpType, outputs, inputs []Val) (*Expr, error) {
	if len(outputs) == 0 {
		return nil, irerr.Structuralf("expression %s has no output", op)
	}
	for _, v := range slices.Concat(outputs, inputs) {
		if v == nil || v.Fusion() != f {
			return nil, irerr.Invariantf("operand %v of %s does not belong to fusion %s", v, op, f.name)
		}
	}
	for _, out := range outputs {
		if _, defined := f.definition[out.ID()]; defined {
			return nil, irerr.Invariantf("%s is already defined by another expression", out)
		}
		if slices.Contains(inputs, out) {
			return nil, irerr.Structuralf("%s is both an input and an output of %s", out, op)
		}
	}
	return f.addExpr(op, outputs, inputs), nil
}

func (f *Fusion) addExpr(op irkind.OpType, outputs, inputs []Val) *Expr {
	e := &Expr{
		fusion:  f,
		id:      ExprID(len(f.exprs) + 1),
		op:      op,
		inputs:  slices.Clone(inputs),
		outputs: slices.Clone(outputs),
		live:    true,
	}
	f.exprs = append(f.exprs, e)
	for _, out := range outputs {
		f.definition[out.ID()] = e.id
	}
	for _, in := range inputs {
		f.uses[in.ID()] = append(f.uses[in.ID()], e.id)
	}
	return e
}

// removeExpr detaches an expression from the dataflow.
// The expression stays in the arena.
func (f *Fusion) removeExpr(e *Expr) {
	e.live = false
	for _, out := range e.outputs {
		delete(f.definition, out.ID())
	}
	for _, in := range e.inputs {
		f.uses[in.ID()] = slices.DeleteFunc(f.uses[in.ID()], func(id ExprID) bool {
			return id == e.id
		})
	}
}

// ID returns the handle of the expression.
func (e *Expr) ID() ExprID {
	return e.id
}

// Op returns the operator of the expression.
func (e *Expr) Op() irkind.OpType {
	return e.op
}

// Inputs returns the operands of the expression.
func (e *Expr) Inputs() []Val {
	return slices.Clone(e.inputs)
}

// Outputs returns the values computed by the expression.
func (e *Expr) Outputs() []Val {
	return slices.Clone(e.outputs)
}

func (e *Expr) String() string {
	return fmt.Sprintf("%s = %s(%s)", stringseq.Join(e.outputs, ", "), e.op, stringseq.Join(e.inputs, ", "))
}

// Definition returns the expression computing a value, or nil if there is none.
func (f *Fusion) Definition(v Val) *Expr {
	id, ok := f.definition[v.ID()]
	if !ok {
		return nil
	}
	return f.exprs[id-1]
}

// Uses returns the expressions using a value.
func (f *Fusion) Uses(v Val) []*Expr {
	ids := f.uses[v.ID()]
	uses := make([]*Expr, len(ids))
	for i, id := range ids {
		uses[i] = f.exprs[id-1]
	}
	return uses
}

// Exprs returns the expressions of the fusion such that an expression always
// comes after the expressions computing its inputs. Ties are broken by
// creation order.
func (f *Fusion) Exprs() []*Expr {
	var order []*Expr
	visited := make(map[ExprID]bool)
	var visit func(*Expr)
	visit = func(e *Expr) {
		if visited[e.id] {
			return
		}
		visited[e.id] = true
		for _, in := range e.inputs {
			if def := f.Definition(in); def != nil {
				visit(def)
			}
		}
		order = append(order, e)
	}
	for _, e := range f.exprs {
		if e.live {
			visit(e)
		}
	}
	return order
}

func tensorsOf(vals []Val) []*TensorView {
	var tvs []*TensorView
	for _, v := range vals {
		if tv, ok := v.(*TensorView); ok {
			tvs = append(tvs, tv)
		}
	}
	return tvs
}

// Producers returns the tensors used to compute a tensor.
func (f *Fusion) Producers(tv *TensorView) []*TensorView {
	def := f.Definition(tv)
	if def == nil {
		return nil
	}
	return tensorsOf(def.inputs)
}

// Consumers returns the tensors computed from a tensor.
func (f *Fusion) Consumers(tv *TensorView) []*TensorView {
	var consumers []*TensorView
	for _, use := range f.Uses(tv) {
		for _, out := range tensorsOf(use.outputs) {
			if !slices.Contains(consumers, out) {
				consumers = append(consumers, out)
			}
		}
	}
	return consumers
}

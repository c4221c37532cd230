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

	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
)

// ScalarExpr is an integer expression which value is computed when the
// operands are known. Extents of scheduled axes are ScalarExpr when the
// extents they derive from are symbolic.
type ScalarExpr struct {
	valBase
	op       irkind.OpType
	lhs, rhs Val
}

var _ Val = (*ScalarExpr)(nil)

// IntExpr returns an integer expression, folded into a constant when both
// operands are constants.
func (f *Fusion) IntExpr(op irkind.OpType, lhs, rhs Val) (Val, error) {
	switch op {
	case irkind.CeilDiv, irkind.Mul, irkind.Add, irkind.Sub:
	default:
		return nil, irerr.Internalf("operator %s not supported in an integer expression", op)
	}
	for _, operand := range []Val{lhs, rhs} {
		if operand == nil || !operand.DataType().IsInteger() {
			return nil, irerr.Internalf("operand %v of %s is not an integer", operand, op)
		}
		if operand.Fusion() != f {
			return nil, irerr.Internalf("operand %s of %s belongs to another fusion", operand, op)
		}
	}
	l, lConst := ConstValue(lhs)
	r, rConst := ConstValue(rhs)
	if op == irkind.CeilDiv && rConst && r <= 0 {
		return nil, irerr.Structuralf("cannot divide %s by %d", lhs, r)
	}
	if lConst && rConst {
		return f.ConstInt(fold(op, l, r)), nil
	}
	e := &ScalarExpr{op: op, lhs: lhs, rhs: rhs}
	f.register(e)
	return e, nil
}

func fold(op irkind.OpType, l, r int64) int64 {
	switch op {
	case irkind.CeilDiv:
		return (l + r - 1) / r
	case irkind.Mul:
		return l * r
	case irkind.Add:
		return l + r
	default:
		return l - r
	}
}

// CeilDiv returns ceil(lhs/rhs).
func (f *Fusion) CeilDiv(lhs, rhs Val) (Val, error) {
	return f.IntExpr(irkind.CeilDiv, lhs, rhs)
}

// Mul returns lhs*rhs.
func (f *Fusion) Mul(lhs, rhs Val) (Val, error) {
	return f.IntExpr(irkind.Mul, lhs, rhs)
}

// Op returns the operator of the expression.
func (e *ScalarExpr) Op() irkind.OpType {
	return e.op
}

// Operands returns the left and right operands.
func (e *ScalarExpr) Operands() (Val, Val) {
	return e.lhs, e.rhs
}

// DataType of an integer expression.
func (e *ScalarExpr) DataType() irkind.DataType {
	return irkind.Int
}

// SameAs returns true if other is the same expression node, or an expression
// with the same operator applied to the same operands.
func (e *ScalarExpr) SameAs(other Val) bool {
	o, ok := other.(*ScalarExpr)
	if !ok || o == nil {
		return false
	}
	if e == o {
		return true
	}
	return e.op == o.op && e.lhs.SameAs(o.lhs) && e.rhs.SameAs(o.rhs)
}

func (e *ScalarExpr) String() string {
	switch e.op {
	case irkind.CeilDiv:
		return fmt.Sprintf("ceilDiv(%s, %s)", e.lhs, e.rhs)
	case irkind.Mul:
		return fmt.Sprintf("%s * %s", e.lhs, e.rhs)
	case irkind.Add:
		return fmt.Sprintf("%s + %s", e.lhs, e.rhs)
	default:
		return fmt.Sprintf("%s - %s", e.lhs, e.rhs)
	}
}

func (e *ScalarExpr) clone(c *Cloner) Val {
	return &ScalarExpr{op: e.op, lhs: c.val(e.lhs), rhs: c.val(e.rhs)}
}

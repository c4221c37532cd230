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

package ir_test

import (
	"strings"
	"testing"

	"github.com/gx-org/fuser/ir"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
	"github.com/stretchr/testify/require"
)

func TestScalarSameAs(t *testing.T) {
	f := ir.NewFusion()
	sym := f.NewInt()
	tests := []struct {
		a, b ir.Val
		want bool
	}{
		{a: f.ConstInt(3), b: f.ConstInt(3), want: true},
		{a: f.ConstInt(3), b: f.ConstInt(4), want: false},
		{a: sym, b: sym, want: true},
		{a: f.NewInt(), b: f.NewInt(), want: false},
		{a: sym, b: f.ConstInt(3), want: false},
		{a: f.ConstInt(1), b: f.ConstFloat(1), want: false},
		{a: f.ConstFloat(2.5), b: f.ConstFloat(2.5), want: true},
		{a: f.ConstHalf(0.5), b: f.ConstHalf(0.5), want: true},
		{a: f.ConstBool(true), b: f.ConstBool(false), want: false},
	}
	for i, test := range tests {
		if got := test.a.SameAs(test.b); got != test.want {
			t.Errorf("test %d: %s.SameAs(%s): got %v but want %v", i, test.a, test.b, got, test.want)
		}
		if got := test.b.SameAs(test.a); got != test.want {
			t.Errorf("test %d: %s.SameAs(%s) is not symmetric", i, test.b, test.a)
		}
	}
}

func TestScalarValue(t *testing.T) {
	f := ir.NewFusion()
	c := f.ConstInt(8)
	if v, ok := c.Value(); !ok || v != 8 || !c.IsConst() || c.IsSymbolic() {
		t.Errorf("constant %s: got value %d, const %v", c, v, ok)
	}
	s := f.NewInt()
	if _, ok := s.Value(); ok || !s.IsSymbolic() {
		t.Errorf("symbolic %s reported as constant", s)
	}
	if got := c.String(); got != "8" {
		t.Errorf("got %q but want %q", got, "8")
	}
	if got := s.String(); !strings.HasPrefix(got, "i") {
		t.Errorf("symbolic integer %q should start with i", got)
	}
	dts := []irkind.DataType{f.NewBool().DataType(), f.NewFloat().DataType(), f.NewHalf().DataType(), s.DataType()}
	require.Equal(t, []irkind.DataType{irkind.Bool, irkind.Float, irkind.Half, irkind.Int}, dts)
	if _, ok := ir.ConstValue(f.ConstFloat(1)); ok {
		t.Errorf("a float is not an integer constant")
	}
}

func TestIntExpr(t *testing.T) {
	f := ir.NewFusion()
	n := f.NewInt()

	folded, err := f.CeilDiv(f.ConstInt(10), f.ConstInt(4))
	require.NoError(t, err)
	if v, ok := ir.ConstValue(folded); !ok || v != 3 {
		t.Errorf("ceilDiv(10, 4): got %s but want 3", folded)
	}
	prod, err := f.Mul(f.ConstInt(3), f.ConstInt(4))
	require.NoError(t, err)
	if v, ok := ir.ConstValue(prod); !ok || v != 12 {
		t.Errorf("3 * 4: got %s but want 12", prod)
	}

	a, err := f.CeilDiv(n, f.ConstInt(4))
	require.NoError(t, err)
	b, err := f.CeilDiv(n, f.ConstInt(4))
	require.NoError(t, err)
	if _, ok := a.(*ir.ScalarExpr); !ok {
		t.Fatalf("ceilDiv(%s, 4) should not be folded: got %T", n, a)
	}
	if !a.SameAs(b) {
		t.Errorf("%s and %s should be the same", a, b)
	}
	c, err := f.CeilDiv(n, f.ConstInt(2))
	require.NoError(t, err)
	if a.SameAs(c) {
		t.Errorf("%s and %s should not be the same", a, c)
	}
	if want := "ceilDiv(" + n.String() + ", 4)"; a.String() != want {
		t.Errorf("got %q but want %q", a.String(), want)
	}

	_, err = f.CeilDiv(n, f.ConstInt(0))
	requireKind(t, err, irerr.Structural)
	_, err = f.IntExpr(irkind.Exp, n, n)
	requireKind(t, err, irerr.Internal)
	_, err = f.Mul(n, f.ConstFloat(2))
	requireKind(t, err, irerr.Internal)
}

func TestIterDomain(t *testing.T) {
	f := ir.NewFusion()
	id, err := f.NewIterDomain(nil, f.ConstInt(8), irkind.Iteration, irkind.Serial)
	require.NoError(t, err)
	if v, ok := ir.ConstValue(id.Start()); !ok || v != 0 {
		t.Errorf("default start: got %s but want 0", id.Start())
	}
	if !strings.HasPrefix(id.String(), "iS") || !strings.HasSuffix(id.String(), "{8}") {
		t.Errorf("unexpected axis string %q", id.String())
	}
	same, err := f.NewIterDomain(nil, f.ConstInt(8), irkind.Iteration, irkind.Serial)
	require.NoError(t, err)
	if !id.SameAs(same) {
		t.Errorf("%s and %s should be the same", id, same)
	}
	red, err := f.NewIterDomain(nil, f.ConstInt(8), irkind.Reduction, irkind.TIDx)
	require.NoError(t, err)
	if id.SameAs(red) || !red.IsReduction() || !red.IsThreadDim() || red.IsBlockDim() {
		t.Errorf("unexpected properties for %s", red)
	}

	_, err = f.NewIterDomain(nil, f.ConstFloat(8), irkind.Iteration, irkind.Serial)
	requireKind(t, err, irerr.Structural)
	_, err = f.NewIterDomain(nil, ir.NewFusion().ConstInt(8), irkind.Iteration, irkind.Serial)
	requireKind(t, err, irerr.Invariant)
}

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

	"github.com/gx-org/fuser/ir/irkind"
)

type (
	// Val is a value owned by a fusion.
	Val interface {
		// ID returns the handle of the value in its fusion.
		ID() ValID
		// Fusion returns the fusion owning the value.
		Fusion() *Fusion
		// DataType returns the data type of the value.
		DataType() irkind.DataType
		// SameAs returns true if the value is known to be equal to another value.
		SameAs(Val) bool
		// String representation of the value.
		String() string

		base() *valBase
		clone(*Cloner) Val
	}

	valBase struct {
		fusion *Fusion
		id     ValID
	}
)

func (b *valBase) base() *valBase {
	return b
}

// ID returns the handle of the value in its fusion.
func (b *valBase) ID() ValID {
	return b.id
}

// Fusion returns the fusion owning the value.
func (b *valBase) Fusion() *Fusion {
	return b.fusion
}

// ScalarKind are the Go types of scalar literals.
type ScalarKind interface {
	bool | float64 | float32 | int64
}

// Scalar is a value of a fixed kind that is either symbolic, that is
// its value is only known when the kernel is compiled or launched,
// or constant, that is an immutable literal inlined in the kernel.
type Scalar[T ScalarKind] struct {
	valBase
	value   T
	isConst bool
}

type (
	// Bool is a boolean scalar.
	Bool = Scalar[bool]
	// Float is a floating point scalar.
	Float = Scalar[float64]
	// Half is an IEEE 754 half precision scalar. Its literal is stored as a float32.
	Half = Scalar[float32]
	// Int is a 64-bit integer scalar.
	Int = Scalar[int64]
)

var (
	_ Val = (*Bool)(nil)
	_ Val = (*Float)(nil)
	_ Val = (*Half)(nil)
	_ Val = (*Int)(nil)
)

func newScalar[T ScalarKind](f *Fusion) *Scalar[T] {
	s := &Scalar[T]{}
	f.register(s)
	return s
}

func constScalar[T ScalarKind](f *Fusion, val T) *Scalar[T] {
	s := &Scalar[T]{value: val, isConst: true}
	f.register(s)
	return s
}

// NewBool returns a symbolic boolean.
func (f *Fusion) NewBool() *Bool { return newScalar[bool](f) }

// ConstBool returns a constant boolean.
func (f *Fusion) ConstBool(val bool) *Bool { return constScalar(f, val) }

// NewFloat returns a symbolic float.
func (f *Fusion) NewFloat() *Float { return newScalar[float64](f) }

// ConstFloat returns a constant float.
func (f *Fusion) ConstFloat(val float64) *Float { return constScalar(f, val) }

// NewHalf returns a symbolic half.
func (f *Fusion) NewHalf() *Half { return newScalar[float32](f) }

// ConstHalf returns a constant half.
func (f *Fusion) ConstHalf(val float32) *Half { return constScalar(f, val) }

// NewInt returns a symbolic integer.
func (f *Fusion) NewInt() *Int { return newScalar[int64](f) }

// ConstInt returns a constant integer.
func (f *Fusion) ConstInt(val int64) *Int { return constScalar(f, val) }

// IsSymbolic returns true if the value of the scalar is not known.
func (s *Scalar[T]) IsSymbolic() bool {
	return !s.isConst
}

// IsConst returns true if the scalar is a literal.
func (s *Scalar[T]) IsConst() bool {
	return s.isConst
}

// Value returns the literal of a constant scalar.
// The second value is false for a symbolic scalar.
func (s *Scalar[T]) Value() (T, bool) {
	return s.value, s.isConst
}

// DataType returns the data type matching the kind of the scalar.
func (s *Scalar[T]) DataType() irkind.DataType {
	switch any(s.value).(type) {
	case bool:
		return irkind.Bool
	case float64:
		return irkind.Float
	case float32:
		return irkind.Half
	default:
		return irkind.Int
	}
}

// SameAs returns true if both scalars are constants of the same kind with
// equal literals, or if they are the same node.
func (s *Scalar[T]) SameAs(other Val) bool {
	o, ok := other.(*Scalar[T])
	if !ok || o == nil {
		return false
	}
	if s == o {
		return true
	}
	if !s.isConst || !o.isConst {
		return false
	}
	return s.value == o.value
}

func (s *Scalar[T]) String() string {
	if s.isConst {
		return fmt.Sprint(s.value)
	}
	return fmt.Sprintf("%s%d", s.prefix(), s.id)
}

func (s *Scalar[T]) prefix() string {
	switch s.DataType() {
	case irkind.Bool:
		return "b"
	case irkind.Float:
		return "f"
	case irkind.Half:
		return "h"
	default:
		return "i"
	}
}

func (s *Scalar[T]) clone(c *Cloner) Val {
	return &Scalar[T]{value: s.value, isConst: s.isConst}
}

// ConstValue returns the literal of a constant integer value.
func ConstValue(v Val) (int64, bool) {
	i, ok := v.(*Int)
	if !ok {
		return 0, false
	}
	return i.Value()
}

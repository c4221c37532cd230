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

// Package irkind defines the enumerations of the scheduling IR.
package irkind

import (
	"fmt"

	"github.com/gx-org/backend/dtype"
	"github.com/pkg/errors"
)

// DataType of a scalar or of the elements of a tensor.
type DataType uint

// Data types supported by the IR.
const (
	InvalidData DataType = iota
	Bool
	Float
	Half
	Int
)

// FromDType converts a backend data type into an IR data type.
func FromDType(dt dtype.DataType) (DataType, error) {
	switch dt {
	case dtype.Bool:
		return Bool, nil
	case dtype.Bfloat16:
		return Half, nil
	case dtype.Float32, dtype.Float64:
		return Float, nil
	case dtype.Int32, dtype.Int64, dtype.Uint32, dtype.Uint64:
		return Int, nil
	default:
		return InvalidData, errors.Errorf("data type %s not supported", dt.String())
	}
}

// IsInteger returns true if the data type is an integer.
func (dt DataType) IsInteger() bool {
	return dt == Int
}

func (dt DataType) String() string {
	switch dt {
	case Bool:
		return "bool"
	case Float:
		return "float"
	case Half:
		return "half"
	case Int:
		return "int64"
	default:
		return fmt.Sprintf("DataType(%d)", uint(dt))
	}
}

// IterType is the role of an axis in an iteration space.
type IterType uint

// Roles of an axis.
const (
	Iteration IterType = iota
	Reduction
	Broadcast
)

func (it IterType) String() string {
	switch it {
	case Iteration:
		return "iteration"
	case Reduction:
		return "reduction"
	case Broadcast:
		return "broadcast"
	default:
		return fmt.Sprintf("IterType(%d)", uint(it))
	}
}

// Letter returns the one letter tag used when printing an axis.
func (it IterType) Letter() string {
	switch it {
	case Reduction:
		return "r"
	case Broadcast:
		return "b"
	default:
		return "i"
	}
}

// ParallelType is the hardware binding of an axis.
type ParallelType uint

// Bindings of an axis. Serial means no binding.
const (
	Serial ParallelType = iota
	BIDx
	BIDy
	BIDz
	TIDx
	TIDy
	TIDz
	Vectorize
	Unroll
)

// IsBlockDim returns true for the grid dimensions.
func (pt ParallelType) IsBlockDim() bool {
	return pt == BIDx || pt == BIDy || pt == BIDz
}

// IsThreadDim returns true for the thread block dimensions.
func (pt ParallelType) IsThreadDim() bool {
	return pt == TIDx || pt == TIDy || pt == TIDz
}

func (pt ParallelType) String() string {
	switch pt {
	case Serial:
		return "S"
	case BIDx:
		return "blockIdx.x"
	case BIDy:
		return "blockIdx.y"
	case BIDz:
		return "blockIdx.z"
	case TIDx:
		return "threadIdx.x"
	case TIDy:
		return "threadIdx.y"
	case TIDz:
		return "threadIdx.z"
	case Vectorize:
		return "V"
	case Unroll:
		return "U"
	default:
		return fmt.Sprintf("ParallelType(%d)", uint(pt))
	}
}

// MemoryType is where the buffer of a tensor lives.
type MemoryType uint

// Memory placements.
const (
	Global MemoryType = iota
	Shared
	Local
)

func (mt MemoryType) String() string {
	switch mt {
	case Global:
		return "global"
	case Shared:
		return "shared"
	case Local:
		return "local"
	default:
		return fmt.Sprintf("MemoryType(%d)", uint(mt))
	}
}

// TransformKind is the kind of a record in a domain transform log.
type TransformKind uint

// Transforms recorded in the log of a domain.
const (
	Split TransformKind = iota
	Merge
	Reorder
	Parallelize
	// Retype changes the role of an axis. Only rFactor records it.
	Retype
)

func (k TransformKind) String() string {
	switch k {
	case Split:
		return "split"
	case Merge:
		return "merge"
	case Reorder:
		return "reorder"
	case Parallelize:
		return "parallelize"
	case Retype:
		return "retype"
	default:
		return fmt.Sprintf("TransformKind(%d)", uint(k))
	}
}

// OpType is the operator of an expression.
type OpType uint

// Operators. Scalar operators are used for extent expressions,
// tensor operators for expressions in a fusion.
const (
	InvalidOp OpType = iota

	CeilDiv
	Mul
	Add
	Sub
	Div
	Neg
	Exp
	Set
	Sum
	BroadcastOp
)

// IsReduction returns true if the operator reduces axes of its input.
func (op OpType) IsReduction() bool {
	return op == Sum
}

func (op OpType) String() string {
	switch op {
	case CeilDiv:
		return "ceilDiv"
	case Mul:
		return "mul"
	case Add:
		return "add"
	case Sub:
		return "sub"
	case Div:
		return "div"
	case Neg:
		return "neg"
	case Exp:
		return "exp"
	case Set:
		return "set"
	case Sum:
		return "sum"
	case BroadcastOp:
		return "broadcast"
	default:
		return fmt.Sprintf("OpType(%d)", uint(op))
	}
}

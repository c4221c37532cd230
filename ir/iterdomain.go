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

// IterDomain is one axis of an iteration space.
// An IterDomain is immutable: transforms create new IterDomains.
type IterDomain struct {
	valBase
	start    Val
	extent   Val
	iterType irkind.IterType
	parallel irkind.ParallelType

	// rFactorRoot is set on root axes defined from a scheduled axis of the
	// producer created by an rFactor.
	rFactorRoot bool
}

var _ Val = (*IterDomain)(nil)

// NewIterDomain returns a new axis. A nil start means the axis starts at 0.
func (f *Fusion) NewIterDomain(start, extent Val, iterType irkind.IterType, parallel irkind.ParallelType) (*IterDomain, error) {
	if start == nil {
		start = f.ConstInt(0)
	}
	for _, v := range []Val{start, extent} {
		if v == nil || !v.DataType().IsInteger() {
			return nil, irerr.Structuralf("axis start and extent must be integers: got %v", v)
		}
		if v.Fusion() != f {
			return nil, irerr.Invariantf("axis bound %s belongs to another fusion", v)
		}
	}
	return f.newIterDomain(start, extent, iterType, parallel), nil
}

func (f *Fusion) newIterDomain(start, extent Val, iterType irkind.IterType, parallel irkind.ParallelType) *IterDomain {
	id := &IterDomain{
		start:    start,
		extent:   extent,
		iterType: iterType,
		parallel: parallel,
	}
	f.register(id)
	return id
}

func (id *IterDomain) with(iterType irkind.IterType, parallel irkind.ParallelType) *IterDomain {
	nw := id.fusion.newIterDomain(id.start, id.extent, iterType, parallel)
	nw.rFactorRoot = id.rFactorRoot
	return nw
}

// Resize returns a copy of the axis with new bounds.
// A nil start means the axis starts at 0.
func (id *IterDomain) Resize(start, extent Val) (*IterDomain, error) {
	nw, err := id.fusion.NewIterDomain(start, extent, id.iterType, id.parallel)
	if err != nil {
		return nil, err
	}
	nw.rFactorRoot = id.rFactorRoot
	return nw, nil
}

// Start returns the first index of the axis.
func (id *IterDomain) Start() Val {
	return id.start
}

// Extent returns the number of iterations of the axis.
func (id *IterDomain) Extent() Val {
	return id.extent
}

// IterType returns the role of the axis.
func (id *IterDomain) IterType() irkind.IterType {
	return id.iterType
}

// ParallelType returns the binding of the axis.
func (id *IterDomain) ParallelType() irkind.ParallelType {
	return id.parallel
}

// IsIteration returns true if the axis is an iteration axis.
func (id *IterDomain) IsIteration() bool {
	return id.iterType == irkind.Iteration
}

// IsReduction returns true if the axis is reduced.
func (id *IterDomain) IsReduction() bool {
	return id.iterType == irkind.Reduction
}

// IsBroadcast returns true if the axis is broadcasted.
func (id *IterDomain) IsBroadcast() bool {
	return id.iterType == irkind.Broadcast
}

// IsBlockDim returns true if the axis is bound to a grid dimension.
func (id *IterDomain) IsBlockDim() bool {
	return id.parallel.IsBlockDim()
}

// IsThreadDim returns true if the axis is bound to a thread block dimension.
func (id *IterDomain) IsThreadDim() bool {
	return id.parallel.IsThreadDim()
}

func (id *IterDomain) hasZeroStart() bool {
	start, ok := ConstValue(id.start)
	return ok && start == 0
}

// DataType of an axis is the data type of its index.
func (id *IterDomain) DataType() irkind.DataType {
	return irkind.Int
}

// SameAs returns true if other is an axis with the same role, binding and bounds.
func (id *IterDomain) SameAs(other Val) bool {
	o, ok := other.(*IterDomain)
	if !ok || o == nil {
		return false
	}
	if id == o {
		return true
	}
	return id.iterType == o.iterType &&
		id.parallel == o.parallel &&
		id.start.SameAs(o.start) &&
		id.extent.SameAs(o.extent)
}

func (id *IterDomain) String() string {
	s := fmt.Sprintf("%s%s%d{", id.iterType.Letter(), id.parallel, id.id)
	if !id.hasZeroStart() {
		s += fmt.Sprintf("%s : ", id.start)
	}
	return s + id.extent.String() + "}"
}

func (id *IterDomain) clone(c *Cloner) Val {
	return &IterDomain{
		start:       c.val(id.start),
		extent:      c.val(id.extent),
		iterType:    id.iterType,
		parallel:    id.parallel,
		rFactorRoot: id.rFactorRoot,
	}
}

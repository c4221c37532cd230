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
	"maps"
	"slices"

	"github.com/gx-org/fuser/base/ordered"
	"github.com/gx-org/fuser/base/uname"
)

// Cloner maps the nodes of a fusion to the nodes of its clone.
type Cloner struct {
	src, dst *Fusion
}

// Clone returns a deep copy of the fusion. Handles are preserved: a value
// of the clone has the same ValID as the value it has been cloned from.
func (f *Fusion) Clone() (*Fusion, *Cloner) {
	dst := &Fusion{
		name:        f.name,
		log:         f.log,
		mergePolicy: f.mergePolicy,
		vals:        make([]Val, len(f.vals)),
		definition:  maps.Clone(f.definition),
		uses:        make(map[ValID][]ExprID, len(f.uses)),
		inputs:      ordered.Clone(f.inputs, func(id ValID) ValID { return id }),
		outputs:     ordered.Clone(f.outputs, func(id ValID) ValID { return id }),
		names:       uname.New(),
	}
	c := &Cloner{src: f, dst: dst}
	for _, v := range f.vals {
		c.val(v)
	}
	for _, e := range f.exprs {
		dst.exprs = append(dst.exprs, &Expr{
			fusion:  dst,
			id:      e.id,
			op:      e.op,
			inputs:  c.vals(e.inputs),
			outputs: c.vals(e.outputs),
			live:    e.live,
		})
	}
	for id, uses := range f.uses {
		dst.uses[id] = slices.Clone(uses)
	}
	dst.names.Reserve("T", len(dst.TensorViews()))
	return dst, c
}

// Val returns the clone of a value of the source fusion.
func (c *Cloner) Val(v Val) Val {
	return c.val(v)
}

// TensorView returns the clone of a tensor of the source fusion.
func (c *Cloner) TensorView(tv *TensorView) *TensorView {
	return cloned(c, tv)
}

func (c *Cloner) val(v Val) Val {
	if v == nil || v.Fusion() != c.src {
		return nil
	}
	i := v.ID() - 1
	if nv := c.dst.vals[i]; nv != nil {
		return nv
	}
	nv := v.clone(c)
	b := nv.base()
	b.fusion = c.dst
	b.id = v.ID()
	c.dst.vals[i] = nv
	return nv
}

func (c *Cloner) vals(vs []Val) []Val {
	out := make([]Val, len(vs))
	for i, v := range vs {
		out[i] = c.val(v)
	}
	return out
}

func (c *Cloner) iterDomains(ids []*IterDomain) []*IterDomain {
	out := make([]*IterDomain, len(ids))
	for i, id := range ids {
		out[i] = cloned(c, id)
	}
	return out
}

func cloned[T Val](c *Cloner, v T) T {
	nv, _ := c.val(v).(T)
	return nv
}

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

	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
)

// Replay applies the log of a reference domain onto td.
//
// rootMap maps root axes of ref to leaf axes of td. Transforms of ref are
// translated through that map: a transform which inputs are not mapped is
// skipped, a merge with a broadcast axis having no counterpart in td maps the
// merged axis to the other operand. Reorders are not replayed one by one:
// once all the other transforms have been applied, the mapped axes of td are
// put in the order of the leaf domain of ref.
//
// The transforms are appended to the log of td.
func (td *TensorDomain) Replay(ref *TensorDomain, rootMap map[*IterDomain]*IterDomain) (*TensorDomain, error) {
	nd, _, err := td.replay(ref, rootMap)
	return nd, err
}

func (td *TensorDomain) replay(ref *TensorDomain, rootMap map[*IterDomain]*IterDomain) (*TensorDomain, map[*IterDomain]*IterDomain, error) {
	if ref.fusion != td.fusion {
		return nil, nil, irerr.Invariantf("cannot replay a domain from another fusion")
	}
	ids := maps.Clone(rootMap)
	if ids == nil {
		ids = make(map[*IterDomain]*IterDomain)
	}
	cur := td
	for i, rec := range ref.log {
		var err error
		switch rec.Kind {
		case irkind.Split:
			cur, err = cur.replaySplit(rec, ids)
		case irkind.Merge:
			cur, err = cur.replayMerge(rec, ids)
		case irkind.Parallelize, irkind.Retype:
			cur, err = cur.replayUnary(rec, ids)
		case irkind.Reorder:
		default:
			err = irerr.Internalf("transform kind %s cannot be replayed", rec.Kind)
		}
		if err != nil {
			return nil, nil, irerr.Wrapf(err, "cannot replay transform %d (%s)", i, rec)
		}
	}
	return cur.replayOrder(ref, ids), ids, nil
}

func (td *TensorDomain) mappedPosition(ref *IterDomain, ids map[*IterDomain]*IterDomain) (int, bool, error) {
	id, ok := ids[ref]
	if !ok {
		return -1, false, nil
	}
	pos := td.position(id)
	if pos < 0 {
		return -1, true, irerr.Structuralf("axis %s matching %s is not in the leaf domain %s: it has already been transformed", id, ref, td)
	}
	return pos, true, nil
}

func (td *TensorDomain) replaySplit(rec *Transform, ids map[*IterDomain]*IterDomain) (*TensorDomain, error) {
	pos, ok, err := td.mappedPosition(rec.Inputs[0], ids)
	if !ok || err != nil {
		return td, err
	}
	if !td.leaf[pos].hasZeroStart() {
		return nil, irerr.Structuralf("cannot split axis %s: start is not 0", td.leaf[pos])
	}
	nd, err := td.split(pos, rec.Factor)
	if err != nil {
		return nil, err
	}
	ids[rec.Outputs[0]] = nd.leaf[pos]
	ids[rec.Outputs[1]] = nd.leaf[pos+1]
	return nd, nil
}

func (td *TensorDomain) replayMerge(rec *Transform, ids map[*IterDomain]*IterDomain) (*TensorDomain, error) {
	posO, okO, err := td.mappedPosition(rec.Inputs[0], ids)
	if err != nil {
		return nil, err
	}
	posI, okI, err := td.mappedPosition(rec.Inputs[1], ids)
	if err != nil {
		return nil, err
	}
	switch {
	case !okO && !okI:
		return td, nil
	case !okO || !okI:
		unmapped, mapped := rec.Inputs[0], ids[rec.Inputs[1]]
		if okO {
			unmapped, mapped = rec.Inputs[1], ids[rec.Inputs[0]]
		}
		if !unmapped.IsBroadcast() {
			return nil, irerr.Structuralf("axis %s has no counterpart and is not a broadcast", unmapped)
		}
		ids[rec.Outputs[0]] = mapped
		return td, nil
	}
	cur := td
	if posI != posO+1 {
		cur = cur.moveAfter(posI, posO)
		posO = cur.position(ids[rec.Inputs[0]])
	}
	nd, err := cur.Merge(posO, posO+1)
	if err != nil {
		return nil, err
	}
	ids[rec.Outputs[0]] = nd.leaf[posO]
	return nd, nil
}

// moveAfter reorders the domain such that the axis at position from
// immediately follows the axis at position after.
func (td *TensorDomain) moveAfter(from, after int) *TensorDomain {
	moved := td.leaf[from]
	order := slices.Delete(slices.Clone(td.leaf), from, from+1)
	at := slices.Index(order, td.leaf[after]) + 1
	order = slices.Insert(order, at, moved)
	return td.reorder(td.permutationTo(order))
}

// permutationTo returns the reorder transforming the leaf domain into order.
func (td *TensorDomain) permutationTo(order []*IterDomain) []int {
	axes := make([]int, len(order))
	for nw, id := range order {
		axes[td.position(id)] = nw
	}
	return axes
}

func (td *TensorDomain) replayUnary(rec *Transform, ids map[*IterDomain]*IterDomain) (*TensorDomain, error) {
	pos, ok, err := td.mappedPosition(rec.Inputs[0], ids)
	if !ok || err != nil {
		return td, err
	}
	nd := td
	switch rec.Kind {
	case irkind.Parallelize:
		if nd, err = td.Parallelize(pos, rec.Parallel); err != nil {
			return nil, err
		}
	case irkind.Retype:
		nd = td.retype(pos, rec.Role)
	}
	ids[rec.Outputs[0]] = nd.leaf[pos]
	return nd, nil
}

func (td *TensorDomain) replayOrder(ref *TensorDomain, ids map[*IterDomain]*IterDomain) *TensorDomain {
	var want []*IterDomain
	var positions []int
	seen := make(map[*IterDomain]bool)
	for _, refID := range ref.leaf {
		id, ok := ids[refID]
		if !ok || seen[id] {
			continue
		}
		pos := td.position(id)
		if pos < 0 {
			continue
		}
		seen[id] = true
		want = append(want, id)
		positions = append(positions, pos)
	}
	slices.Sort(positions)
	order := slices.Clone(td.leaf)
	for k, pos := range positions {
		order[pos] = want[k]
	}
	return td.reorder(td.permutationTo(order))
}

// rootMapping maps the root axes of a consumer to the root axes of a producer.
// Reduction axes of the producer have no counterpart in the consumer.
// Broadcast axes of the consumer have no counterpart in the producer unless
// the producer axis is also a broadcast.
func rootMapping(producer, consumer *TensorDomain) (map[*IterDomain]*IterDomain, error) {
	m := make(map[*IterDomain]*IterDomain)
	ci := 0
	for _, p := range producer.root {
		if p.IsReduction() {
			continue
		}
		for ci < len(consumer.root) && consumer.root[ci].IsBroadcast() && !p.IsBroadcast() {
			ci++
		}
		if ci >= len(consumer.root) {
			return nil, irerr.ComputeAtf("root axis %s of %s has no counterpart in %s", p, producer, axesString(consumer.root))
		}
		c := consumer.root[ci]
		if !p.IsBroadcast() && !c.IsBroadcast() && provablyDifferent(p.extent, c.extent) {
			return nil, irerr.ComputeAtf("root axis %s does not match root axis %s", p, c)
		}
		m[c] = p
		ci++
	}
	return m, nil
}

// provablyDifferent returns true if two extents are constants with different values.
func provablyDifferent(a, b Val) bool {
	va, aConst := ConstValue(a)
	vb, bConst := ConstValue(b)
	return aConst && bConst && va != vb
}

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
	"slices"
	"strings"

	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
	"github.com/sirupsen/logrus"
)

// HasComputeAt returns true if the tensor is computed at another tensor.
func (tv *TensorView) HasComputeAt() bool {
	return tv.computeAtView.IsValid()
}

// ComputeAtView returns the tensor this tensor is computed at, or nil.
func (tv *TensorView) ComputeAtView() *TensorView {
	if !tv.HasComputeAt() {
		return nil
	}
	view, err := tv.fusion.TensorView(tv.computeAtView)
	if err != nil {
		return nil
	}
	return view
}

// ThisComputeAtAxis returns the compute-at position in the domain of this tensor.
func (tv *TensorView) ThisComputeAtAxis() int {
	return tv.thisComputeAtAxis
}

// RelativeComputeAtAxis returns the compute-at position in the domain of the
// tensor this tensor is computed at.
func (tv *TensorView) RelativeComputeAtAxis() int {
	return tv.relativeComputeAtAxis
}

// ClearComputeAt removes the compute-at relation of the tensor.
func (tv *TensorView) ClearComputeAt() {
	tv.computeAtView = NoVal
	tv.thisComputeAtAxis = 0
	tv.relativeComputeAtAxis = 0
}

// ComputeAt nests the loop nest of this tensor inside the loop nest of a
// consumer. The axes of this tensor before position axis are shared with the
// consumer and can not be transformed anymore.
//
// Every shared axis must line up with an axis of the consumer: same extent,
// derived from matching root axes by the same transforms. Broadcast axes of
// the consumer this tensor does not have are skipped.
func (tv *TensorView) ComputeAt(consumer *TensorView, axis int) error {
	if err := tv.fusion.checkOwned(consumer); err != nil {
		return err
	}
	if axis < 0 || axis > tv.NDims() {
		return irerr.Structuralf("compute-at axis %d out of range: %s has %d axes", axis, tv.name, tv.NDims())
	}
	if consumer == tv {
		return irerr.ComputeAtf("cannot compute %s at itself", tv.name)
	}
	if err := tv.checkAcyclic(consumer); err != nil {
		return err
	}
	rel, err := alignment(tv.domain, consumer.domain, axis)
	if err != nil {
		return irerr.Wrapf(err, "cannot compute %s at %s, axis %d", tv.name, consumer.name, axis)
	}
	tv.setComputeAt(consumer, axis, rel)
	return nil
}

func (tv *TensorView) setComputeAt(view *TensorView, thisPos, relPos int) {
	tv.computeAtView = view.ID()
	tv.thisComputeAtAxis = thisPos
	tv.relativeComputeAtAxis = relPos
	tv.fusion.log.WithFields(logrus.Fields{
		"tensor":   tv.name,
		"consumer": view.name,
		"axis":     thisPos,
		"relative": relPos,
	}).Debug("compute at")
}

// checkAcyclic returns an error if computing tv at consumer closes a cycle.
func (tv *TensorView) checkAcyclic(consumer *TensorView) error {
	path := []string{tv.name, consumer.name}
	cur := consumer
	for steps := 0; cur.HasComputeAt(); steps++ {
		if steps > tv.fusion.NumVals() {
			return irerr.Internalf("compute-at chain %s does not terminate", strings.Join(path, " -> "))
		}
		next, err := tv.fusion.TensorView(cur.computeAtView)
		if err != nil {
			return err
		}
		path = append(path, next.name)
		if next == tv {
			return irerr.ComputeAtf("computing %s at %s creates the cycle %s", tv.name, consumer.name, strings.Join(path, " -> "))
		}
		cur = next
	}
	return nil
}

// ComputeAtRelPos returns the position in the domain of the compute-at view
// which lines up with a position of this tensor.
func (tv *TensorView) ComputeAtRelPos(pos int) (int, error) {
	if err := tv.domain.checkPos(pos); err != nil {
		return -1, irerr.Wrapf(err, "tensor %s", tv.name)
	}
	if !tv.HasComputeAt() {
		return pos, nil
	}
	view, err := tv.fusion.TensorView(tv.computeAtView)
	if err != nil {
		return -1, err
	}
	positions, err := alignedPositions(tv.domain.leaf, view.domain.leaf, pos+1)
	if err != nil {
		return -1, irerr.AsInternal(err)
	}
	return positions[pos], nil
}

// ComputeAtAxis returns the axis a loop nest iterates over for a position of
// this tensor, and the tensor owning that axis. Positions before the
// compute-at axis are owned by the compute-at view, recursively.
func (tv *TensorView) ComputeAtAxis(pos int) (*IterDomain, *TensorView, error) {
	return tv.computeAtAxis(pos, 0)
}

func (tv *TensorView) computeAtAxis(pos, depth int) (*IterDomain, *TensorView, error) {
	if tv.NDims() == 0 {
		return nil, nil, irerr.Invariantf("tried to access a compute-at axis in zero-dimensional tensor %s", tv.name)
	}
	if err := tv.domain.checkPos(pos); err != nil {
		return nil, nil, irerr.Wrapf(err, "tensor %s", tv.name)
	}
	if depth > tv.fusion.NumVals() {
		return nil, nil, irerr.Internalf("compute-at cycle reached from %s while resolving position %d", tv.name, pos)
	}
	if !tv.HasComputeAt() || pos >= tv.thisComputeAtAxis {
		return tv.domain.leaf[pos], tv, nil
	}
	view, err := tv.fusion.TensorView(tv.computeAtView)
	if err != nil {
		return nil, nil, err
	}
	rel, err := tv.ComputeAtRelPos(pos)
	if err != nil {
		return nil, nil, err
	}
	return view.computeAtAxis(rel, depth+1)
}

// alignedPositions returns, for the n first axes of a producer, the position
// of the consumer axis it lines up with.
func alignedPositions(producer, consumer []*IterDomain, n int) ([]int, error) {
	out := make([]int, n)
	ci := 0
	for pi := range n {
		for ci < len(consumer) && consumer[ci].IsBroadcast() && !producer[pi].IsBroadcast() {
			ci++
		}
		if ci >= len(consumer) {
			return nil, irerr.ComputeAtf("axis %d (%s) has no counterpart in %s", pi, producer[pi], axesString(consumer))
		}
		out[pi] = ci
		ci++
	}
	return out, nil
}

// alignment checks that the n first axes of a producer line up with axes of
// a consumer and returns the matching compute-at position in the consumer.
func alignment(producer, consumer *TensorDomain, n int) (int, error) {
	positions, err := alignedPositions(producer.leaf, consumer.leaf, n)
	if err != nil {
		return 0, err
	}
	roots := newRootPairs(producer, consumer)
	for pi, ci := range positions {
		pid, cid := producer.leaf[pi], consumer.leaf[ci]
		if pid.IsReduction() {
			return 0, irerr.ComputeAtf("axis %d (%s) is a reduction and can not be shared with a consumer", pi, pid)
		}
		if !equivalentAxes(producer, pid, consumer, cid, roots) {
			return 0, irerr.ComputeAtf("axis %d (%s) of %s does not line up with axis %d (%s) of %s", pi, pid, producer, ci, cid, consumer)
		}
	}
	if n == 0 {
		return 0, nil
	}
	return positions[n-1] + 1, nil
}

type rootPairs struct {
	// positional maps consumer root axes to producer root axes by position.
	// It is nil when the root domains can not be mapped that way.
	positional map[*IterDomain]*IterDomain
	p2c, c2p   map[*IterDomain]*IterDomain
}

func newRootPairs(producer, consumer *TensorDomain) *rootPairs {
	positional, err := rootMapping(producer, consumer)
	if err != nil {
		positional = nil
	}
	return &rootPairs{
		positional: positional,
		p2c:        make(map[*IterDomain]*IterDomain),
		c2p:        make(map[*IterDomain]*IterDomain),
	}
}

// match records that two root axes correspond to each other.
// Returns false if the consumer axis corresponds by position to another
// producer axis, or if one of them already corresponds to another axis.
func (rp *rootPairs) match(p, c *IterDomain) bool {
	if want, ok := rp.positional[c]; ok && want != p {
		return false
	}
	if prev, ok := rp.p2c[p]; ok {
		return prev == c
	}
	if prev, ok := rp.c2p[c]; ok {
		return prev == p
	}
	rp.p2c[p] = c
	rp.c2p[c] = p
	return true
}

// skipUnary walks back through the transforms which do not change the
// iteration space of an axis.
func (td *TensorDomain) skipUnary(id *IterDomain) (*IterDomain, *Transform, int) {
	for {
		rec, out := td.origin(id)
		if rec == nil || (rec.Kind != irkind.Parallelize && rec.Kind != irkind.Retype) {
			return id, rec, out
		}
		id = rec.Inputs[0]
	}
}

func equivalentAxes(pd *TensorDomain, pid *IterDomain, cd *TensorDomain, cid *IterDomain, roots *rootPairs) bool {
	if !pid.IsBroadcast() && provablyDifferent(pid.extent, cid.extent) {
		return false
	}
	pid, prec, pout := pd.skipUnary(pid)
	cid, crec, cout := cd.skipUnary(cid)
	switch {
	case prec == nil && crec == nil:
		return roots.match(pid, cid)
	case prec == nil || crec == nil:
		return mixedAxes(pd, pid, cd, cid, roots)
	case prec.Kind != crec.Kind || pout != cout:
		return false
	}
	switch prec.Kind {
	case irkind.Split:
		return prec.Factor.SameAs(crec.Factor) &&
			equivalentAxes(pd, prec.Inputs[0], cd, crec.Inputs[0], roots)
	case irkind.Merge:
		return equivalentAxes(pd, prec.Inputs[0], cd, crec.Inputs[0], roots) &&
			equivalentAxes(pd, prec.Inputs[1], cd, crec.Inputs[1], roots)
	}
	return false
}

// mixedAxes compares a root axis with a derived axis.
// A root axis installed by an rFactor lines up with the scheduled axis of the
// rFactor producer it was defined from, which has the same extent.
// Otherwise, the derived axis must have the extent of the root axis and be
// derived from a single root axis corresponding to it.
func mixedAxes(pd *TensorDomain, pid *IterDomain, cd *TensorDomain, cid *IterDomain, roots *rootPairs) bool {
	if pid.rFactorRoot || cid.rFactorRoot {
		return pid.IsBroadcast() || pid.extent.SameAs(cid.extent)
	}
	if !pid.IsBroadcast() && !pid.extent.SameAs(cid.extent) {
		return false
	}
	pr, cr := pd.rootsOf(pid), cd.rootsOf(cid)
	return len(pr) == 1 && len(cr) == 1 && roots.match(pr[0], cr[0])
}

// rootsOf returns the root axes an axis is derived from.
func (td *TensorDomain) rootsOf(id *IterDomain) []*IterDomain {
	rec, _ := td.origin(id)
	if rec == nil {
		return []*IterDomain{id}
	}
	var out []*IterDomain
	for _, in := range rec.Inputs {
		for _, root := range td.rootsOf(in) {
			if !slices.Contains(out, root) {
				out = append(out, root)
			}
		}
	}
	return out
}

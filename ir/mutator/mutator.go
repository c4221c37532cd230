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

// Package mutator rewrites the values of a scheduled fusion.
package mutator

import (
	"github.com/gx-org/fuser/ir"
	"github.com/gx-org/fuser/ir/internal/capability"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/passes/fixcomputeat"
	"github.com/sirupsen/logrus"
)

type substituter struct {
	f     *ir.Fusion
	subst map[*ir.Int]ir.Val
	done  map[ir.Val]ir.Val
}

func (s *substituter) val(v ir.Val) (ir.Val, error) {
	if nv, ok := s.done[v]; ok {
		return nv, nil
	}
	nv := v
	switch vT := v.(type) {
	case *ir.Int:
		if to, ok := s.subst[vT]; ok {
			nv = to
		}
	case *ir.ScalarExpr:
		lhs, rhs := vT.Operands()
		nl, err := s.val(lhs)
		if err != nil {
			return nil, err
		}
		nr, err := s.val(rhs)
		if err != nil {
			return nil, err
		}
		if nl != lhs || nr != rhs {
			if nv, err = s.f.IntExpr(vT.Op(), nl, nr); err != nil {
				return nil, err
			}
		}
	}
	s.done[v] = nv
	return nv, nil
}

// SubstituteExtents replaces integers in the extents of every tensor of a
// fusion. The root domains are rebuilt with the new extents and the logs of
// the domains are replayed onto them, folding the extents which become
// constant. The compute-at relations are then fixed.
// No domain is changed if a domain can not be rebuilt.
func SubstituteExtents(f *ir.Fusion, subst map[*ir.Int]ir.Val) error {
	for from, to := range subst {
		if from.Fusion() != f || to == nil || to.Fusion() != f {
			return irerr.Invariantf("substitution %v -> %v does not belong to fusion %s", from, to, f.Name())
		}
		if !to.DataType().IsInteger() {
			return irerr.Structuralf("cannot substitute %s by non-integer %s", from, to)
		}
	}
	s := &substituter{f: f, subst: subst, done: make(map[ir.Val]ir.Val)}
	type update struct {
		tv *ir.TensorView
		td *ir.TensorDomain
	}
	var updates []update
	for _, tv := range f.TensorViews() {
		td, changed, err := s.domain(tv.Domain())
		if err != nil {
			return irerr.Wrapf(err, "cannot substitute extents of %s", tv.Name())
		}
		if changed {
			updates = append(updates, update{tv: tv, td: td})
		}
	}
	priv := f.Privileged(capability.Grant())
	for _, up := range updates {
		if err := priv.SetDomain(up.tv, up.td); err != nil {
			return irerr.AsInternal(err)
		}
		f.Logger().WithFields(logrus.Fields{"tensor": up.tv.Name(), "domain": up.td.String()}).Debug("substitute extents")
	}
	_, err := fixcomputeat.Run(f)
	return err
}

func (s *substituter) domain(td *ir.TensorDomain) (*ir.TensorDomain, bool, error) {
	root := td.Root()
	rootMap := make(map[*ir.IterDomain]*ir.IterDomain, len(root))
	changed := false
	newRoot := make([]*ir.IterDomain, len(root))
	for i, id := range root {
		start, err := s.val(id.Start())
		if err != nil {
			return nil, false, err
		}
		extent, err := s.val(id.Extent())
		if err != nil {
			return nil, false, err
		}
		if start == id.Start() && extent == id.Extent() {
			newRoot[i] = id
			rootMap[id] = id
			continue
		}
		changed = true
		if newRoot[i], err = id.Resize(start, extent); err != nil {
			return nil, false, err
		}
		rootMap[id] = newRoot[i]
	}
	if !changed {
		return td, false, nil
	}
	nd, err := s.f.NewTensorDomain(newRoot)
	if err != nil {
		return nil, false, err
	}
	if nd, err = nd.Replay(td, rootMap); err != nil {
		return nil, false, err
	}
	return nd, true, nil
}

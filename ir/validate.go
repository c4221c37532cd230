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
	"github.com/gx-org/fuser/base/iter"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/gx-org/fuser/ir/irkind"
)

// Validate checks the invariants of all the tensors of the fusion and
// returns every violation found.
func (f *Fusion) Validate() error {
	var errs irerr.Collector
	for _, tv := range f.TensorViews() {
		tv.validate(&errs)
	}
	return errs.Err()
}

func (tv *TensorView) validate(errs *irerr.Collector) {
	f := tv.fusion
	if tv.memoryType != irkind.Global && (f.HasInput(tv) || f.HasOutput(tv)) {
		errs.Append(irerr.Invariantf("fusion boundary %s is stored in %s memory", tv.name, tv.memoryType))
	}
	td := tv.domain
	splits := iter.Count(func(rec *Transform) bool { return rec.Kind == irkind.Split }, td.log)
	merges := iter.Count(func(rec *Transform) bool { return rec.Kind == irkind.Merge }, td.log)
	if want := len(td.root) + splits - merges; len(td.leaf) != want {
		errs.Append(irerr.Internalf("%s has %d leaf axes but root, splits and merges give %d", tv.name, len(td.leaf), want))
	}
	if !tv.HasComputeAt() {
		return
	}
	view, err := f.TensorView(tv.computeAtView)
	if err != nil {
		errs.Append(err)
		return
	}
	if tv.thisComputeAtAxis < 0 || tv.thisComputeAtAxis > tv.NDims() {
		errs.Append(irerr.ComputeAtf("compute-at axis %d of %s out of range [0, %d]", tv.thisComputeAtAxis, tv.name, tv.NDims()))
		return
	}
	if tv.relativeComputeAtAxis < 0 || tv.relativeComputeAtAxis > view.NDims() {
		errs.Append(irerr.ComputeAtf("relative compute-at axis %d of %s out of range [0, %d] of %s", tv.relativeComputeAtAxis, tv.name, view.NDims(), view.name))
		return
	}
	if err := tv.checkAcyclic(view); err != nil {
		errs.Append(err)
		return
	}
	rel, err := alignment(tv.domain, view.domain, tv.thisComputeAtAxis)
	if err != nil {
		errs.Append(irerr.Wrapf(err, "%s computed at %s", tv.name, view.name))
		return
	}
	if rel != tv.relativeComputeAtAxis {
		errs.Append(irerr.ComputeAtf("%s computed at %s: relative axis is %d but the axes line up at %d", tv.name, view.name, tv.relativeComputeAtAxis, rel))
	}
}

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
	"github.com/gx-org/fuser/ir/internal/capability"
	"github.com/gx-org/fuser/ir/irerr"
	"github.com/sirupsen/logrus"
)

// Privileged gives access to the fields of the IR that the schedule author
// can not set directly. It is only available to packages holding a
// capability token: the compute-at fix-up pass and the structural mutator.
type Privileged struct {
	f *Fusion
}

// Privileged returns the privileged surface of the fusion.
func (f *Fusion) Privileged(capability.Token) Privileged {
	return Privileged{f: f}
}

// SetDomain replaces the domain of a tensor without any check on the
// compute-at relations of the tensor.
func (p Privileged) SetDomain(tv *TensorView, td *TensorDomain) error {
	if err := p.f.checkOwned(tv); err != nil {
		return err
	}
	if td == nil || td.fusion != p.f {
		return irerr.Invariantf("domain of %s does not belong to fusion %s", tv.name, p.f.name)
	}
	tv.domain = td
	p.f.log.WithFields(logrus.Fields{"tensor": tv.name, "domain": td.String()}).Debug("set domain")
	return nil
}

// SetComputeAt sets all the compute-at fields of a tensor without checking
// that the axes line up or that the compute-at relations stay acyclic.
// Positions must be within the number of axes of the tensors.
func (p Privileged) SetComputeAt(tv, view *TensorView, thisPos, relPos int) error {
	for _, t := range []*TensorView{tv, view} {
		if err := p.f.checkOwned(t); err != nil {
			return err
		}
	}
	if thisPos < 0 || thisPos > tv.NDims() {
		return irerr.Structuralf("compute-at axis %d out of range: %s has %d axes", thisPos, tv.name, tv.NDims())
	}
	if relPos < 0 || relPos > view.NDims() {
		return irerr.Structuralf("relative compute-at axis %d out of range: %s has %d axes", relPos, view.name, view.NDims())
	}
	tv.setComputeAt(view, thisPos, relPos)
	return nil
}

// Alignment checks that the n first axes of a producer line up with the axes
// of a consumer and returns the corresponding position in the consumer.
func (p Privileged) Alignment(producer, consumer *TensorView, n int) (int, error) {
	if n < 0 || n > producer.NDims() {
		return 0, irerr.Structuralf("compute-at axis %d out of range: %s has %d axes", n, producer.name, producer.NDims())
	}
	return alignment(producer.domain, consumer.domain, n)
}

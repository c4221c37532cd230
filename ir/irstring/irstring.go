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

// Package irstring builds a string representation of a fusion schedule.
package irstring

import (
	"fmt"
	"strings"

	"github.com/gx-org/fuser/base/stringseq"
	"github.com/gx-org/fuser/ir"
)

func tensorList(b *strings.Builder, title string, tvs []*ir.TensorView) {
	fmt.Fprintf(b, "%s:\n", title)
	for _, tv := range tvs {
		fmt.Fprintf(b, "  %s, %s\n", tv, tv.DataType())
	}
}

// Fusion returns the inputs, outputs and expressions of a fusion in
// topological order.
func Fusion(f *ir.Fusion) string {
	b := &strings.Builder{}
	tensorList(b, "Inputs", f.Inputs())
	tensorList(b, "Outputs", f.Outputs())
	fmt.Fprintf(b, "\n%%%s {\n", f.Name())
	for _, e := range f.Exprs() {
		fmt.Fprintf(b, "%s\n", e)
	}
	b.WriteString("}\n")
	return b.String()
}

// History returns the root domain of a tensor followed by the transforms
// of its log, one per line.
func History(tv *ir.TensorView) string {
	b := &strings.Builder{}
	fmt.Fprintf(b, "%s root %s\n", tv.Name(), stringseq.List(tv.RootDomain()))
	for i, rec := range tv.Domain().Log() {
		fmt.Fprintf(b, "  %d: %s\n", i, rec)
	}
	fmt.Fprintf(b, "%s leaf %s\n", tv.Name(), tv.Domain())
	return b.String()
}

// ComputeAt returns the owner of every axis of a tensor.
func ComputeAt(tv *ir.TensorView) (string, error) {
	ss := make([]string, tv.NDims())
	for pos := range tv.NDims() {
		id, owner, err := tv.ComputeAtAxis(pos)
		if err != nil {
			return "", err
		}
		ss[pos] = fmt.Sprintf("%s@%s", id, owner.Name())
	}
	return fmt.Sprintf("%s: [ %s ]", tv.Name(), strings.Join(ss, ", ")), nil
}

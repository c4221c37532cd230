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

// Command fuserdump schedules a pointwise fusion from the command line and
// prints its IR and its loop nest.
//
// For example:
//
//	fuserdump --shape=8,16 --split=1:4 --compute_at=1
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/gx-org/backend/dtype"
	"github.com/gx-org/backend/shape"
	"github.com/gx-org/fuser/ir"
	"github.com/gx-org/fuser/ir/irstring"
	"github.com/gx-org/fuser/ir/loopnest"
	"github.com/gx-org/fuser/ir/ops"
	"github.com/gx-org/fuser/ir/passes/adjustmem"
	"github.com/gx-org/fuser/tools/fuserflag"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	inShape   = fuserflag.IntList(flag.CommandLine, "shape", []int{8, 16}, "shape of the input tensor, negative lengths are symbolic")
	splits    = fuserflag.StringList(flag.CommandLine, "split", "axis:factor splits applied to the intermediate tensor, in order")
	computeAt = flag.Int("compute_at", -1, "position at which the intermediate tensor is computed at the output, -1 to materialize it")
	verbose   = flag.Bool("v", false, "log every transform of the IR")
)

type options struct {
	shape     []int
	splits    []string
	computeAt int
}

func schedule(mid, out *ir.TensorView, opts options) error {
	for _, split := range opts.splits {
		key, factor, err := fuserflag.Pair(split)
		if err != nil {
			return err
		}
		axis, err := strconv.Atoi(key)
		if err != nil {
			return errors.Errorf("invalid axis in split %q", split)
		}
		if err := mid.Split(axis, factor); err != nil {
			return err
		}
	}
	if opts.computeAt < 0 {
		return nil
	}
	return mid.ComputeAt(out, opts.computeAt)
}

func run(w io.Writer, log logrus.FieldLogger, opts options) error {
	f := ir.NewFusion(ir.WithName("pointwise"), ir.WithLogger(log))
	in, err := f.NewTensorFromShape(&shape.Shape{DType: dtype.Float32, AxisLengths: opts.shape})
	if err != nil {
		return err
	}
	if err := f.AddInput(in); err != nil {
		return err
	}
	mid, err := ops.Add(in, in)
	if err != nil {
		return err
	}
	out, err := ops.Set(mid)
	if err != nil {
		return err
	}
	if err := f.AddOutput(out); err != nil {
		return err
	}
	if err := schedule(mid, out, opts); err != nil {
		return err
	}
	if err := adjustmem.Run(f); err != nil {
		return err
	}
	if err := f.Validate(); err != nil {
		return err
	}
	nest, err := loopnest.Generate(f)
	if err != nil {
		return err
	}
	fmt.Fprint(w, irstring.Fusion(f))
	fmt.Fprintf(w, "\n%s\n%s", irstring.History(mid), nest)
	return nil
}

func main() {
	flag.Parse()
	log := logrus.New()
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}
	opts := options{shape: *inShape, splits: *splits, computeAt: *computeAt}
	if err := run(os.Stdout, log, opts); err != nil {
		log.Fatalf("%+v", err)
	}
}

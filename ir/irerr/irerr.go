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

// Package irerr classifies the errors reported by the scheduling IR.
//
// Every violation is detected by the call that causes it and reported
// immediately. The classification tells the schedule author what to fix:
// a structural violation is an incorrect argument, a compute-at violation is
// an incorrect alignment between two loop nests, an invariant violation is a
// call that is not allowed in the current state of the IR.
package irerr

import (
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Kind of a violation.
type Kind int

const (
	// Structural violations: out-of-range axis, non-adjacent merge operands,
	// non-bijective reorder, rFactor on a missing or non-reduction axis.
	Structural Kind = iota
	// ComputeAt violations: incompatible extents between a producer and a
	// consumer, or a compute-at edge closing a cycle.
	ComputeAt
	// Invariant violations: axis access on a zero-dimensional tensor,
	// non-global memory on a fusion boundary, transform below a fixed
	// compute-at position.
	Invariant
	// Internal errors are bugs in this package.
	Internal
)

func (k Kind) String() string {
	switch k {
	case Structural:
		return "structural violation"
	case ComputeAt:
		return "compute-at violation"
	case Invariant:
		return "invariant violation"
	case Internal:
		return "internal error"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Error is a classified error.
type Error struct {
	kind Kind
	err  error
}

// Kind of the violation.
func (err *Error) Kind() Kind {
	return err.kind
}

func (err *Error) Error() string {
	if err.kind == Internal {
		return fmt.Sprintf("fuser internal error. This is a bug in fuser. Please report it. Error:\n%v", err.err)
	}
	return err.kind.String() + ": " + err.err.Error()
}

// Unwrap returns the underlying error.
func (err *Error) Unwrap() error {
	return err.err
}

// Format writes the error into the state of the formatter.
// The %+v verb prints the stack of the underlying error.
func (err *Error) Format(s fmt.State, verb rune) {
	if verb == 'v' && s.Flag('+') {
		fmt.Fprintf(s, "%s: %+v", err.kind.String(), err.err)
		return
	}
	fmt.Fprint(s, err.Error())
}

func newf(kind Kind, format string, a ...any) error {
	return &Error{kind: kind, err: errors.Errorf(format, a...)}
}

// Structuralf returns a structural violation.
func Structuralf(format string, a ...any) error {
	return newf(Structural, format, a...)
}

// ComputeAtf returns a compute-at violation.
func ComputeAtf(format string, a ...any) error {
	return newf(ComputeAt, format, a...)
}

// Invariantf returns an invariant violation.
func Invariantf(format string, a ...any) error {
	return newf(Invariant, format, a...)
}

// Internalf returns an internal error.
func Internalf(format string, a ...any) error {
	return newf(Internal, format, a...)
}

// AsInternal marks an error as internal.
func AsInternal(err error) error {
	if err == nil {
		return nil
	}
	return &Error{kind: Internal, err: err}
}

// Wrapf adds context to an error, keeping its classification.
func Wrapf(err error, format string, a ...any) error {
	if err == nil {
		return nil
	}
	var clErr *Error
	if !errors.As(err, &clErr) {
		return errors.Wrapf(err, format, a...)
	}
	return &Error{kind: clErr.kind, err: errors.Wrapf(clErr.err, format, a...)}
}

// KindOf returns the kind of the first classified error found in err.
// It returns false if err carries no classification.
func KindOf(err error) (Kind, bool) {
	for _, single := range multierr.Errors(err) {
		var clErr *Error
		if errors.As(single, &clErr) {
			return clErr.kind, true
		}
	}
	return 0, false
}

// Is returns true if err, or one of the errors it combines, is of the given kind.
func Is(err error, kind Kind) bool {
	for _, single := range multierr.Errors(err) {
		var clErr *Error
		if errors.As(single, &clErr) && clErr.kind == kind {
			return true
		}
	}
	return false
}

// Collector accumulates violations.
type Collector struct {
	err error
}

// Append a violation. Nil errors are ignored.
func (c *Collector) Append(err error) {
	c.err = multierr.Append(c.err, err)
}

// Errors returns every violation collected so far.
func (c *Collector) Errors() []error {
	return multierr.Errors(c.err)
}

// Err returns all the violations combined into one error, or nil.
func (c *Collector) Err() error {
	return c.err
}

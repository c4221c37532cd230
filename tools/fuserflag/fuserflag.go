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

// Package fuserflag provides flag types for fuser tools.
package fuserflag

import (
	"flag"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func splitList(values string) []string {
	var items []string
	for _, value := range strings.Split(values, ",") {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		items = append(items, value)
	}
	return items
}

type stringList struct {
	list *[]string
}

func (sl *stringList) String() string {
	if sl.list == nil {
		return ""
	}
	return strings.Join(*sl.list, ",")
}

func (sl *stringList) Set(values string) error {
	*sl.list = append(*sl.list, splitList(values)...)
	return nil
}

// StringList defines a flag to pass a comma-separated list of strings.
// The flag can be repeated.
func StringList(fs *flag.FlagSet, name, doc string) *[]string {
	sl := &stringList{list: new([]string)}
	fs.Var(sl, name, doc)
	return sl.list
}

type intList struct {
	list *[]int
	set  bool
}

func (il *intList) String() string {
	if il.list == nil {
		return ""
	}
	ss := make([]string, len(*il.list))
	for i, v := range *il.list {
		ss[i] = strconv.Itoa(v)
	}
	return strings.Join(ss, ",")
}

func (il *intList) Set(values string) error {
	if !il.set {
		// Values from the command line replace the default.
		*il.list = nil
		il.set = true
	}
	for _, item := range splitList(values) {
		v, err := strconv.Atoi(item)
		if err != nil {
			return errors.Errorf("invalid integer %q in list %q", item, values)
		}
		*il.list = append(*il.list, v)
	}
	return nil
}

// IntList defines a flag to pass a comma-separated list of integers.
func IntList(fs *flag.FlagSet, name string, def []int, doc string) *[]int {
	list := append([]int(nil), def...)
	fs.Var(&intList{list: &list}, name, doc)
	return &list
}

// Pair parses a flag value of the form key:value where value is an integer.
func Pair(s string) (string, int, error) {
	key, value, ok := strings.Cut(s, ":")
	if !ok {
		return "", 0, errors.Errorf("invalid pair %q: want key:value", s)
	}
	v, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return "", 0, errors.Errorf("invalid value in pair %q: %v", s, err)
	}
	return strings.TrimSpace(key), v, nil
}

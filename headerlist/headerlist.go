// Copyright 2025 Nonvolatile Inc. d/b/a Confident Security

// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at

//     https://www.apache.org/licenses/LICENSE-2.0

// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package headerlist provides helpers for ordered HTTP header field lists.
//
// A List keeps fields in the order they were added and preserves the case of
// field names. Name comparisons are case-insensitive.
package headerlist

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrOddFlatList is returned when a flat list does not hold name/value pairs.
var ErrOddFlatList = errors.New("flat header list has odd length")

// Field is a single header field.
type Field struct {
	Name  string
	Value string
}

// List is an ordered list of header fields.
type List []Field

// FromFlat creates a list from alternating names and values.
func FromFlat(kv []string) (List, error) {
	if len(kv)%2 != 0 {
		return nil, fmt.Errorf("%w: %d", ErrOddFlatList, len(kv))
	}

	l := make(List, 0, len(kv)/2)
	for i := 0; i < len(kv); i += 2 {
		l = append(l, Field{Name: kv[i], Value: kv[i+1]})
	}
	return l, nil
}

// FromMap creates a list from a map of values, like http.Header. Names are
// sorted so the resulting order is deterministic.
func FromMap(m map[string][]string) List {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)

	var l List
	for _, name := range names {
		for _, v := range m[name] {
			l = append(l, Field{Name: name, Value: v})
		}
	}
	return l
}

// Get returns the first value for name.
func (l List) Get(name string) (string, bool) {
	for _, f := range l {
		if strings.EqualFold(f.Name, name) {
			return f.Value, true
		}
	}
	return "", false
}

// Values returns all values for name in order.
func (l List) Values(name string) []string {
	var out []string
	for _, f := range l {
		if strings.EqualFold(f.Name, name) {
			out = append(out, f.Value)
		}
	}
	return out
}

// Has reports whether the list contains a field named name.
func (l List) Has(name string) bool {
	_, ok := l.Get(name)
	return ok
}

// Without returns a copy of the list without fields matching any of the names.
func (l List) Without(names ...string) List {
	out := make(List, 0, len(l))
	for _, f := range l {
		if !matchesAny(f.Name, names) {
			out = append(out, f)
		}
	}
	return out
}

// Set returns a copy of the list where every field named in overrides is
// removed, followed by the overrides in their given order.
func (l List) Set(overrides List) List {
	names := make([]string, 0, len(overrides))
	for _, f := range overrides {
		names = append(names, f.Name)
	}

	out := l.Without(names...)
	return append(out, overrides...)
}

// Add returns the list with a field appended.
func (l List) Add(name, value string) List {
	return append(l, Field{Name: name, Value: value})
}

// Clone returns a copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	return slices.Clone(l)
}

// Flat returns the list as alternating names and values.
func (l List) Flat() []string {
	out := make([]string, 0, len(l)*2)
	for _, f := range l {
		out = append(out, f.Name, f.Value)
	}
	return out
}

// Map returns the values grouped by lowercase name.
func (l List) Map() map[string][]string {
	m := make(map[string][]string, len(l))
	for _, f := range l {
		key := strings.ToLower(f.Name)
		m[key] = append(m[key], f.Value)
	}
	return m
}

func matchesAny(name string, names []string) bool {
	for _, n := range names {
		if strings.EqualFold(name, n) {
			return true
		}
	}
	return false
}

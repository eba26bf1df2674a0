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

package httpwire

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/openpcc/httpwire/headerlist"
)

const contentLengthKey = "content-length"

// Header is the header table of a decoded message. It keeps the fields in
// the order they were received alongside a lookup table keyed by lowercase
// name. The content-length field is kept as an integer and may only occur
// once.
type Header struct {
	raw              headerlist.List
	values           map[string][]string
	contentLength    int64
	hasContentLength bool
}

// NewHeader returns an empty header table.
func NewHeader() *Header {
	return &Header{
		values: make(map[string][]string),
	}
}

// Add adds a field to the table. A content-length field must be a canonical
// non-negative integer and can't be added twice.
func (h *Header) Add(name, value string) error {
	key := strings.ToLower(name)
	if key == contentLengthKey {
		if h.hasContentLength {
			return codecErr(ErrorCodeDuplicateContentLength, ErrDuplicateContentLength)
		}
		n, err := parseContentLength(value)
		if err != nil {
			return codecErr(ErrorCodeInvalidContentLengthValue, fmt.Errorf("%w: %q", ErrInvalidContentLengthValue, value))
		}
		h.setContentLength(n)
	} else {
		if h.values == nil {
			h.values = make(map[string][]string)
		}
		h.values[key] = append(h.values[key], value)
	}

	h.raw = append(h.raw, headerlist.Field{Name: name, Value: value})
	return nil
}

// Get returns the first value for name.
func (h *Header) Get(name string) (string, bool) {
	vals := h.Values(name)
	if len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// Values returns all values for name in the order they were received.
func (h *Header) Values(name string) []string {
	key := strings.ToLower(name)
	if key == contentLengthKey {
		if !h.hasContentLength {
			return nil
		}
		return []string{strconv.FormatInt(h.contentLength, 10)}
	}
	return h.values[key]
}

// Has reports whether the table has a value for name.
func (h *Header) Has(name string) bool {
	return len(h.Values(name)) > 0
}

// ContentLength returns the declared content-length.
func (h *Header) ContentLength() (int64, bool) {
	return h.contentLength, h.hasContentLength
}

// Len returns the number of fields as received.
func (h *Header) Len() int {
	return len(h.raw)
}

// Raw returns the fields in the order and case they were received.
func (h *Header) Raw() headerlist.List {
	return h.raw.Clone()
}

// Flat returns the received fields as alternating names and values.
func (h *Header) Flat() []string {
	return h.raw.Flat()
}

// Clone returns a deep copy of the table.
func (h *Header) Clone() *Header {
	c := &Header{
		raw:              h.raw.Clone(),
		values:           make(map[string][]string, len(h.values)),
		contentLength:    h.contentLength,
		hasContentLength: h.hasContentLength,
	}
	for k, v := range h.values {
		c.values[k] = append([]string(nil), v...)
	}
	return c
}

// setContentLength sets the lookup value without recording a received field.
func (h *Header) setContentLength(n int64) {
	h.contentLength = n
	h.hasContentLength = true
}

// dropContentLength removes content-length from the lookup table. The
// received field stays in Raw.
func (h *Header) dropContentLength() {
	h.contentLength = 0
	h.hasContentLength = false
}

// parseContentLength parses a non-negative decimal integer without sign or
// leading zeros.
func parseContentLength(s string) (int64, error) {
	if s == "" {
		return 0, strconv.ErrSyntax
	}
	if len(s) > 1 && s[0] == '0' {
		return 0, strconv.ErrSyntax
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.ParseInt(s, 10, 64)
}

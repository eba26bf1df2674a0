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
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	// MaxChunkDataSize is the largest chunk the encoder writes. Larger payloads
	// are split over multiple chunks.
	MaxChunkDataSize = 0xFFFF

	// MaxChunkSize is the default largest chunk size a decoder accepts.
	MaxChunkSize int64 = 800 << 20
)

// LastChunk terminates a chunked body. Trailers are not supported.
var LastChunk = []byte("0\r\n\r\n")

var crlf = []byte("\r\n")

// AppendChunk appends p to dst using the chunked transfer coding. Payloads
// larger than MaxChunkDataSize are split into multiple chunks. An empty
// payload appends nothing, use LastChunk to terminate a body.
func AppendChunk(dst, p []byte) []byte {
	for len(p) > 0 {
		n := min(len(p), MaxChunkDataSize)
		dst = strconv.AppendInt(dst, int64(n), 16)
		dst = append(dst, crlf...)
		dst = append(dst, p[:n]...)
		dst = append(dst, crlf...)
		p = p[n:]
	}
	return dst
}

// WrapChunk returns p encoded using the chunked transfer coding.
func WrapChunk(p []byte) []byte {
	if len(p) == 0 {
		return nil
	}
	chunks := (len(p) + MaxChunkDataSize - 1) / MaxChunkDataSize
	// 4 hex digits and two CRLFs per chunk.
	return AppendChunk(make([]byte, 0, len(p)+chunks*8), p)
}

// ParseChunkSize parses the size of a chunk from its size line. The size must
// be written in canonical hexadecimal form, without sign or leading zeros,
// and can't exceed limit.
func ParseChunkSize(line []byte, limit int64) (int64, error) {
	s := string(line)
	if s == "" {
		return 0, codecErr(ErrorCodeInvalidChunkSize, fmt.Errorf("%w: empty", ErrInvalidChunkSize))
	}

	for i := 0; i < len(s); i++ {
		if !isHexDigit(s[i]) {
			return 0, codecErr(ErrorCodeInvalidChunkSize, fmt.Errorf("%w: %q", ErrInvalidChunkSize, s))
		}
	}

	size, err := strconv.ParseInt(s, 16, 64)
	if err != nil {
		return 0, codecErr(ErrorCodeInvalidChunkSize, fmt.Errorf("%w: %q", ErrInvalidChunkSize, s))
	}

	if !strings.EqualFold(strconv.FormatInt(size, 16), s) {
		return 0, codecErr(ErrorCodeInvalidChunkSize, fmt.Errorf("%w: non-canonical %q", ErrInvalidChunkSize, s))
	}

	if size > limit {
		return 0, codecErr(ErrorCodeInvalidChunkSize, fmt.Errorf("%w: %d exceeds %d", ErrInvalidChunkSize, size, limit))
	}

	return size, nil
}

// UnwrapChunked decodes a complete chunked body.
func UnwrapChunked(b []byte) ([]byte, error) {
	dec := newChunkDecoder(MaxChunkSize)
	out := make([]byte, 0, len(b))
	for {
		data, n, done, err := dec.next(b)
		if err != nil {
			return nil, err
		}
		out = append(out, data...)
		b = b[n:]
		if done {
			return out, nil
		}
		if n == 0 {
			return nil, fmt.Errorf("failed to unwrap chunked body: %w", io.ErrUnexpectedEOF)
		}
	}
}

// chunkDecoder decodes a chunked body one chunk at a time. It keeps no
// buffer of its own, callers pass the unconsumed bytes on every call.
type chunkDecoder struct {
	// remaining is the size of the current chunk, -1 while awaiting a size line.
	remaining int64
	limit     int64
	maxLine   int
}

func newChunkDecoder(limit int64) *chunkDecoder {
	return &chunkDecoder{
		remaining: -1,
		limit:     limit,
		// size line holds at most the hex digits of limit followed by CRLF.
		maxLine: len(strconv.FormatInt(limit, 16)) + len(crlf),
	}
}

// next decodes the next chunk from buf. It returns the chunk data, the number
// of bytes consumed and whether the last chunk was reached. A size line can be
// consumed without returning data when the chunk data is incomplete.
func (c *chunkDecoder) next(buf []byte) ([]byte, int, bool, error) {
	n := 0
	if c.remaining < 0 {
		line, ln, err := ScanLine(buf, 0, c.maxLine)
		if err != nil {
			if errors.Is(err, ErrLineTooLong) {
				return nil, 0, false, codecErr(ErrorCodeInvalidChunkSize, fmt.Errorf("%w: size line too long", ErrInvalidChunkSize))
			}
			return nil, 0, false, err
		}
		if ln == 0 {
			return nil, 0, false, nil
		}

		size, err := ParseChunkSize(line, c.limit)
		if err != nil {
			return nil, 0, false, err
		}

		c.remaining = size
		n = ln
		buf = buf[ln:]
	}

	if int64(len(buf)) < c.remaining+int64(len(crlf)) {
		return nil, n, false, nil
	}

	size := int(c.remaining)
	if buf[size] != '\r' || buf[size+1] != '\n' {
		return nil, 0, false, codecErr(ErrorCodeMissingChunkCRLF, ErrMissingChunkCRLF)
	}

	c.remaining = -1
	return buf[:size], n + size + len(crlf), size == 0, nil
}

func isHexDigit(b byte) bool {
	return ('0' <= b && b <= '9') || ('a' <= b && b <= 'f') || ('A' <= b && b <= 'F')
}

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

// MaxLineSize is the default maximum length of a start line or header line,
// including the terminating CRLF.
const MaxLineSize = 65535

// ScanLine looks for a CRLF terminated line in buf starting at start.
//
// When a line is found, ScanLine returns the line without its CRLF and the
// number of bytes consumed from start. The returned line aliases buf. When no
// line terminator is found within limit bytes and buf already holds limit
// bytes past start, ScanLine fails with ErrLineTooLong. Otherwise it returns
// n == 0 and a nil error to indicate more data is needed.
//
// A line feed that is not preceded by a carriage return fails with
// ErrBareLineFeed.
func ScanLine(buf []byte, start, limit int) ([]byte, int, error) {
	if start >= len(buf) {
		return nil, 0, nil
	}

	if buf[start] == '\n' {
		return nil, 0, codecErr(ErrorCodeBareLineFeed, ErrBareLineFeed)
	}

	end := min(len(buf), start+limit)
	for i := start + 1; i < end; i++ {
		if buf[i] != '\n' {
			continue
		}
		if buf[i-1] != '\r' {
			return nil, 0, codecErr(ErrorCodeBareLineFeed, ErrBareLineFeed)
		}
		return buf[start : i-1], i - start + 1, nil
	}

	if len(buf)-start >= limit {
		return nil, 0, codecErr(ErrorCodeLineTooLong, ErrLineTooLong)
	}

	return nil, 0, nil
}

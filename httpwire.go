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

// Package httpwire is an incremental HTTP/1.1 wire codec.
//
// A Decoder turns bytes, fed in fragments of any size, into a Message while
// calling hooks at each phase of the message. Encode and Emitter turn a Head
// and a body back into wire bytes, either at once or as the body becomes
// available. The codec performs no I/O of its own.
package httpwire

import "strings"

const (
	// RequestMediaType is the media type of an HTTP/1.1 request message per RFC 9112.
	RequestMediaType = "message/http; msgtype=request"
	// ResponseMediaType is the media type of an HTTP/1.1 response message per RFC 9112.
	ResponseMediaType = "message/http; msgtype=response"
)

// isChunkedTransferEncoding checks if chunked is the final transfer coding.
// The codings are listed in the order they were applied, so chunked must be
// the last one listed.
func isChunkedTransferEncoding(values []string) bool {
	last := ""
	for _, v := range values {
		for _, coding := range strings.Split(v, ",") {
			if coding = strings.TrimSpace(coding); coding != "" {
				last = coding
			}
		}
	}
	return strings.EqualFold(last, "chunked")
}

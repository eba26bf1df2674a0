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

import "time"

// Phase is the parsing phase of a decoder. Phases only advance.
type Phase int

// Decoder phases.
const (
	PhaseStartLine Phase = iota
	PhaseHeaders
	PhaseBody
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseStartLine:
		return "startline"
	case PhaseHeaders:
		return "headers"
	case PhaseBody:
		return "body"
	case PhaseComplete:
		return "complete"
	default:
		return "unknown"
	}
}

// PhaseTiming marks when a phase started and ended, relative to the creation
// of the decoder.
type PhaseTiming struct {
	Start   time.Duration
	End     time.Duration
	Started bool
	Ended   bool
}

// Elapsed returns how long the phase took. For a phase that has not ended
// yet it returns 0.
func (t PhaseTiming) Elapsed() time.Duration {
	if !t.Started || !t.Ended {
		return 0
	}
	return t.End - t.Start
}

// Timings holds the timing marks of all phases.
type Timings struct {
	StartLine PhaseTiming
	Headers   PhaseTiming
	Body      PhaseTiming
}

// Framing is the way the length of a decoded body is delimited.
type Framing int

// Body framings.
const (
	FramingUnknown Framing = iota
	FramingContentLength
	FramingChunked
	FramingStream
)

func (f Framing) String() string {
	switch f {
	case FramingContentLength:
		return "content-length"
	case FramingChunked:
		return "chunked"
	case FramingStream:
		return "stream"
	default:
		return "unknown"
	}
}

// Message is a snapshot of a message being decoded. Each snapshot is a copy
// and is not modified by the decoder afterwards.
type Message struct {
	// Request indicates the message is a request. Method and Path are only set
	// for requests, StatusCode and StatusText only for responses.
	Request     bool
	HTTPVersion string
	Method      string
	Path        string
	StatusCode  int
	StatusText  string
	// HasStatusText distinguishes a status line without reason phrase from
	// one with an empty reason phrase.
	HasStatusText bool

	// Header is nil until the start line has been decoded.
	Header *Header

	// Framing is decided when the headers are complete.
	Framing Framing
	// Body is set once the message is complete. It holds the decoded body when
	// the decoder has no body hook, and is empty otherwise.
	Body []byte

	// BytesConsumed is the number of bytes fed to the decoder.
	BytesConsumed int64
	// Calls is the number of calls to Feed.
	Calls   int
	Timings Timings

	Complete bool
	// Leftover holds the bytes fed after the end of the message, such as the
	// start of a pipelined request. It is only set once the message is complete.
	Leftover []byte
}

// IsStream reports whether the message body is delimited by the connection
// instead of by its framing.
func (m Message) IsStream() bool {
	return m.Framing == FramingStream
}

func (m Message) clone() Message {
	c := m
	if m.Header != nil {
		c.Header = m.Header.Clone()
	}
	if m.Body != nil {
		c.Body = append([]byte{}, m.Body...)
	}
	if m.Leftover != nil {
		c.Leftover = append([]byte{}, m.Leftover...)
	}
	return c
}

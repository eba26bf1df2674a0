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
	"net/http"

	"golang.org/x/net/http/httpguts"
)

// StreamPolicy decides whether a message that declares neither content-length
// nor transfer-encoding has a body that runs until the connection ends. When
// it returns false, the message is treated as having an empty body.
type StreamPolicy func(msg Message) bool

// DefaultStreamPolicy allows stream bodies for responses with status 200 or
// 101 and for WebSocket upgrade responses. Requests never have stream bodies.
func DefaultStreamPolicy(msg Message) bool {
	if msg.Request {
		return false
	}

	switch msg.StatusCode {
	case http.StatusOK, http.StatusSwitchingProtocols:
		return true
	default:
		return IsWebSocketUpgrade(msg)
	}
}

// IsWebSocketUpgrade reports whether msg asks for, or agrees to, a WebSocket
// upgrade. Requests must use the GET method.
func IsWebSocketUpgrade(msg Message) bool {
	if msg.Header == nil {
		return false
	}
	if msg.Request && msg.Method != http.MethodGet {
		return false
	}

	return httpguts.HeaderValuesContainsToken(msg.Header.Values("connection"), "upgrade") &&
		httpguts.HeaderValuesContainsToken(msg.Header.Values("upgrade"), "websocket")
}

// HasBody reports whether the framing headers of msg announce a non-empty body.
func HasBody(msg Message) bool {
	if msg.Header == nil {
		return false
	}
	if msg.Header.Has("transfer-encoding") {
		return true
	}
	if n, ok := msg.Header.ContentLength(); ok {
		return n > 0
	}
	return msg.IsStream()
}

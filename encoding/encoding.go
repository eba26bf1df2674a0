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

// Package encoding defines how HTTP messages are converted between net/http
// types and a wire representation, such as HTTP/1.1 or binary HTTP.
package encoding

import (
	"context"
	"io"
	"net/http"
)

// RequestEncoder encodes HTTP requests to messages. It is up to the request encoder
// to decide whether a request should be chunked or unchunked.
type RequestEncoder interface {
	EncodeRequest(r *http.Request) (*Message, error)
}

// RequestDecoder decodes messages to HTTP requests.
type RequestDecoder interface {
	MediaType(chunked bool) []byte
	DecodeRequest(ctx context.Context, r io.Reader) (*http.Request, error)
}

// ResponseEncoder encodes HTTP responses to messages. It is up to the response encoder
// to decide whether a response should be chunked or unchunked.
type ResponseEncoder interface {
	EncodeResponse(ctx context.Context, rsp *http.Response) (*Message, error)
}

// ResponseDecoder decodes messages to HTTP responses.
type ResponseDecoder interface {
	MediaType(chunked bool) []byte
	DecodeResponse(ctx context.Context, r io.Reader) (*http.Response, error)
}

// Message is an encoded HTTP request or response.
type Message struct {
	io.Reader
	MediaType []byte
	// Chunked indicates the body of the message is encoded without a known length.
	Chunked bool
	// ChunkLen is the maximum length of a single chunk of the body, 0 if the
	// body is not chunked.
	ChunkLen int
}

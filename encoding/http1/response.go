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

package http1

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/openpcc/httpwire"
	"github.com/openpcc/httpwire/encoding"
)

// ResponseEncoder encodes responses to HTTP/1.1.
type ResponseEncoder struct {
	cfg config
}

var _ encoding.ResponseEncoder = &ResponseEncoder{}

// NewResponseEncoder creates a new response encoder.
func NewResponseEncoder(opts ...Option) (*ResponseEncoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &ResponseEncoder{cfg: cfg}, nil
}

// EncodeResponse encodes resp. Responses with an unknown content length are
// encoded with a chunked body. The response body is closed once it has been
// read.
func (e *ResponseEncoder) EncodeResponse(_ context.Context, resp *http.Response) (*encoding.Message, error) {
	body := resp.Body
	if !httpwire.BodyAllowedForStatus(resp.StatusCode) && body != nil {
		_ = body.Close()
		body = nil
	}

	r, em, err := writeMessage(httpwire.HeadFromResponse(resp), body, e.cfg)
	if err != nil {
		return nil, err
	}

	chunked := em.Framing() == httpwire.FramingChunked
	chunkLen := 0
	if chunked {
		chunkLen = httpwire.MaxChunkDataSize
	}

	return &encoding.Message{
		Reader:    r,
		MediaType: []byte(httpwire.ResponseMediaType),
		Chunked:   chunked,
		ChunkLen:  chunkLen,
	}, nil
}

// ResponseDecoder decodes HTTP/1.1 responses.
type ResponseDecoder struct {
	cfg config
}

var _ encoding.ResponseDecoder = &ResponseDecoder{}

// NewResponseDecoder creates a new response decoder.
func NewResponseDecoder(opts ...Option) (*ResponseDecoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &ResponseDecoder{cfg: cfg}, nil
}

// MediaType returns the media type of messages this decoder can decode.
func (*ResponseDecoder) MediaType(bool) []byte {
	return []byte(httpwire.ResponseMediaType)
}

// DecodeResponse reads a single response from r. A response with a stream
// body is read until r is exhausted.
func (d *ResponseDecoder) DecodeResponse(ctx context.Context, r io.Reader) (*http.Response, error) {
	msg, err := readMessage(ctx, r, httpwire.NewResponseDecoder, d.cfg)
	if err != nil {
		return nil, err
	}

	resp, err := msg.HTTPResponse()
	if err != nil {
		return nil, fmt.Errorf("failed to convert response: %w", err)
	}
	return resp, nil
}

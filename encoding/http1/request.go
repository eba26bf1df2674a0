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

// RequestEncoder encodes requests to HTTP/1.1.
type RequestEncoder struct {
	cfg config
}

var _ encoding.RequestEncoder = &RequestEncoder{}

// NewRequestEncoder creates a new request encoder.
func NewRequestEncoder(opts ...Option) (*RequestEncoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &RequestEncoder{cfg: cfg}, nil
}

// EncodeRequest encodes req. Requests with an unknown content length are
// encoded with a chunked body. The request body is closed once it has been
// read.
func (e *RequestEncoder) EncodeRequest(req *http.Request) (*encoding.Message, error) {
	r, em, err := writeMessage(httpwire.HeadFromRequest(req), req.Body, e.cfg)
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
		MediaType: []byte(httpwire.RequestMediaType),
		Chunked:   chunked,
		ChunkLen:  chunkLen,
	}, nil
}

// RequestDecoder decodes HTTP/1.1 requests.
type RequestDecoder struct {
	cfg config
}

var _ encoding.RequestDecoder = &RequestDecoder{}

// NewRequestDecoder creates a new request decoder.
func NewRequestDecoder(opts ...Option) (*RequestDecoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}
	return &RequestDecoder{cfg: cfg}, nil
}

// MediaType returns the media type for this request decoder.
func (*RequestDecoder) MediaType(bool) []byte {
	return []byte(httpwire.RequestMediaType)
}

// DecodeRequest reads a single request from r.
func (d *RequestDecoder) DecodeRequest(ctx context.Context, r io.Reader) (*http.Request, error) {
	msg, err := readMessage(ctx, r, httpwire.NewRequestDecoder, d.cfg)
	if err != nil {
		return nil, err
	}

	req, err := msg.HTTPRequest()
	if err != nil {
		return nil, fmt.Errorf("failed to convert request: %w", err)
	}
	return req.WithContext(ctx), nil
}

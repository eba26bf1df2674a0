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

package bhttp

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/openpcc/bhttp"
	"github.com/openpcc/httpwire"
	"github.com/openpcc/httpwire/encoding"
)

// ResponseEncoder encodes responses to bhttp.
type ResponseEncoder struct {
	cfg     config
	encoder *bhttp.ResponseEncoder
}

var _ encoding.ResponseEncoder = &ResponseEncoder{}

// NewResponseEncoder creates a new response encoder.
func NewResponseEncoder(opts ...Option) (*ResponseEncoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	encoder := cfg.customResponseEncoder
	if encoder == nil {
		encoder = &bhttp.ResponseEncoder{
			// bhttp considers the length prefix in the MaxChunkLen
			// so we don't need to account for it here.
			MaxEncodedChunkLen: cfg.responseChunkLen,
			MapFunc: func(hr *http.Response) (*bhttp.Response, error) {
				br, err := bhttp.MapFromHTTP1Response(hr)
				if err != nil {
					return nil, err
				}

				// responses with these statuses never carry a body on the wire.
				if !httpwire.BodyAllowedForStatus(br.FinalStatusCode) {
					br.ContentLength = 0
					br.KnownLength = true
					br.FinalHeader.Del("Content-Length")
				}

				return br, nil
			},
		}
		if cfg.fixedResponseChunks {
			encoder.PadToMultipleOf = uint64(cfg.responseChunkLen) // #nosec G115 -- validated to be positive
		}
	}

	return &ResponseEncoder{
		cfg:     cfg,
		encoder: encoder,
	}, nil
}

// EncodeResponse encodes the provided http response to bhttp.
func (e *ResponseEncoder) EncodeResponse(_ context.Context, resp *http.Response) (*encoding.Message, error) {
	msg, err := e.encoder.EncodeResponse(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to encode response to bhttp: %w", err)
	}

	var r io.Reader = msg
	chunkLen := 0
	if msg.IsIndeterminateLength() {
		chunkLen = e.cfg.responseChunkLen
		if e.cfg.fixedResponseChunks {
			r = &exactChunkReader{
				chunkLen: e.cfg.responseChunkLen,
				r:        msg,
			}
		}
	}

	return &encoding.Message{
		Reader:    r,
		MediaType: []byte(MediaType),
		Chunked:   msg.IsIndeterminateLength(),
		ChunkLen:  chunkLen,
	}, nil
}

// ResponseDecoder decodes http responses from bhttp messages.
type ResponseDecoder struct {
	cfg     config
	decoder *bhttp.ResponseDecoder
}

var _ encoding.ResponseDecoder = &ResponseDecoder{}

// NewResponseDecoder creates a new response decoder.
func NewResponseDecoder(opts ...Option) (*ResponseDecoder, error) {
	cfg, err := newConfig(opts)
	if err != nil {
		return nil, err
	}

	decoder := cfg.customResponseDecoder
	if decoder == nil {
		decoder = &bhttp.ResponseDecoder{}
	}

	return &ResponseDecoder{
		cfg:     cfg,
		decoder: decoder,
	}, nil
}

// MediaType returns the media type of messages this decoder can decode.
func (*ResponseDecoder) MediaType(bool) []byte {
	return []byte(MediaType)
}

// DecodeResponse decodes the given bhttp message to a http response.
func (d *ResponseDecoder) DecodeResponse(ctx context.Context, r io.Reader) (*http.Response, error) {
	resp, err := d.decoder.DecodeResponse(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode response from bhttp: %w", err)
	}

	return resp, nil
}

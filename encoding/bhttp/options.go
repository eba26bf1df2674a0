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

// Package bhttp converts net/http requests and responses to and from binary
// HTTP messages (RFC 9292).
package bhttp

import (
	"fmt"

	"github.com/openpcc/bhttp"
	"github.com/openpcc/httpwire"
)

// MediaType is the media type of binary HTTP messages per RFC 9292.
const MediaType = "message/bhttp"

const (
	// maxChunkLen is the largest chunk length the encoders accept. It matches
	// the largest chunk written by the HTTP/1.1 encoder so a body can be
	// transcoded chunk for chunk.
	maxChunkLen = httpwire.MaxChunkDataSize

	// defaultChunkLen is a default chunk length that attempts to strike a
	// balance between latency and throughput.
	//
	// Depending on your use-case you might want a lower chunk length (lower latency), or a higher
	// chunk length (higher throughput).
	defaultChunkLen = 4096
)

// Option provides optional configuration for encoders/decoders.
type Option func(enc *config) error

type config struct {
	requestChunkLen       int
	fixedRequestChunks    bool
	responseChunkLen      int
	fixedResponseChunks   bool
	customRequestEncoder  *bhttp.RequestEncoder
	customRequestDecoder  *bhttp.RequestDecoder
	customResponseEncoder *bhttp.ResponseEncoder
	customResponseDecoder *bhttp.ResponseDecoder
}

func defaultConfig() config {
	return config{
		requestChunkLen:  defaultChunkLen,
		responseChunkLen: defaultChunkLen,
	}
}

func newConfig(opts []Option) (config, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}
	return cfg, nil
}

func validChunkLen(chunkLen int) error {
	if chunkLen <= 0 {
		return fmt.Errorf("chunk length should be positive, got %d", chunkLen)
	}
	if chunkLen > maxChunkLen {
		return fmt.Errorf("chunk length exceeds maximum: %d > %d", chunkLen, maxChunkLen)
	}
	return nil
}

// MaxRequestChunkLen sets the maximum request chunk length.
func MaxRequestChunkLen(chunkLen int) Option {
	return func(enc *config) error {
		if err := validChunkLen(chunkLen); err != nil {
			return err
		}
		enc.requestChunkLen = chunkLen
		return nil
	}
}

// MaxResponseChunkLen sets the maximum response chunk length.
func MaxResponseChunkLen(chunkLen int) Option {
	return func(enc *config) error {
		if err := validChunkLen(chunkLen); err != nil {
			return err
		}
		enc.responseChunkLen = chunkLen
		return nil
	}
}

// FixedLengthRequestChunks configures the encoder to always return fixed-length chunks.
//
// If this option is enabled, the request encoder will wait for more data to complete a full chunk instead
// of sending them as fast as possible. The encoder will also use padding to fill the final chunk if required.
func FixedLengthRequestChunks() Option {
	return func(enc *config) error {
		enc.fixedRequestChunks = true
		return nil
	}
}

// FixedLengthResponseChunks configures the encoder to always return fixed-length chunks.
//
// If this option is enabled, the response encoder will wait for more data to complete a full chunk instead
// of sending them as fast as possible. The encoder will also use padding to fill the final chunk if required.
func FixedLengthResponseChunks() Option {
	return func(enc *config) error {
		enc.fixedResponseChunks = true
		return nil
	}
}

// WithCustomRequestEncoder replaces the default request encoder.
func WithCustomRequestEncoder(encoder *bhttp.RequestEncoder) Option {
	return func(enc *config) error {
		enc.customRequestEncoder = encoder
		return nil
	}
}

// WithCustomRequestDecoder replaces the default request decoder.
func WithCustomRequestDecoder(decoder *bhttp.RequestDecoder) Option {
	return func(enc *config) error {
		enc.customRequestDecoder = decoder
		return nil
	}
}

// WithCustomResponseEncoder replaces the default response encoder.
func WithCustomResponseEncoder(encoder *bhttp.ResponseEncoder) Option {
	return func(enc *config) error {
		enc.customResponseEncoder = encoder
		return nil
	}
}

// WithCustomResponseDecoder replaces the default response decoder.
func WithCustomResponseDecoder(decoder *bhttp.ResponseDecoder) Option {
	return func(enc *config) error {
		enc.customResponseDecoder = decoder
		return nil
	}
}

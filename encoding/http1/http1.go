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

// Package http1 converts net/http requests and responses to and from HTTP/1.1
// messages using the httpwire codec.
package http1

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/openpcc/httpwire"
)

const defaultReadBufferSize = 4096

// Option provides optional configuration for encoders/decoders.
type Option func(cfg *config) error

type config struct {
	decoderOpts    []httpwire.DecoderOption
	encoderOpts    []httpwire.EncoderOption
	readBufferSize int
}

func newConfig(opts []Option) (config, error) {
	cfg := config{
		readBufferSize: defaultReadBufferSize,
	}
	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}
	return cfg, nil
}

// WithDecoderOptions passes options to every decoder. Body hooks are
// replaced, the decoded body is always collected.
func WithDecoderOptions(opts ...httpwire.DecoderOption) Option {
	return func(cfg *config) error {
		cfg.decoderOpts = append(cfg.decoderOpts, opts...)
		return nil
	}
}

// WithEncoderOptions passes options to every emitter.
func WithEncoderOptions(opts ...httpwire.EncoderOption) Option {
	return func(cfg *config) error {
		cfg.encoderOpts = append(cfg.encoderOpts, opts...)
		return nil
	}
}

// ReadBufferSize sets the size of reads from the message reader.
func ReadBufferSize(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return fmt.Errorf("read buffer size should be positive, got %d", n)
		}
		cfg.readBufferSize = n
		return nil
	}
}

type newDecoderFunc func(opts ...httpwire.DecoderOption) (*httpwire.Decoder, error)

// readMessage feeds r to a new decoder until the message is complete or r is
// exhausted. Bytes read past the end of the message are discarded.
func readMessage(ctx context.Context, r io.Reader, newDecoder newDecoderFunc, cfg config) (httpwire.Message, error) {
	body := &bytes.Buffer{}
	opts := append(cfg.decoderOpts[:len(cfg.decoderOpts):len(cfg.decoderOpts)], httpwire.WithOnBody(func(p []byte) error {
		_, err := body.Write(p)
		return err
	}))

	dec, err := newDecoder(opts...)
	if err != nil {
		return httpwire.Message{}, fmt.Errorf("failed to create decoder: %w", err)
	}

	buf := make([]byte, cfg.readBufferSize)
	for {
		if err := ctx.Err(); err != nil {
			return httpwire.Message{}, err
		}

		n, rerr := r.Read(buf)
		if n > 0 {
			msg, err := dec.Feed(buf[:n])
			if err != nil {
				return httpwire.Message{}, fmt.Errorf("failed to decode message: %w", err)
			}
			if msg.Complete {
				msg.Body = body.Bytes()
				return msg, nil
			}
		}

		if errors.Is(rerr, io.EOF) {
			msg, err := dec.Finish()
			if err != nil {
				return httpwire.Message{}, fmt.Errorf("failed to decode message: %w", err)
			}
			msg.Body = body.Bytes()
			return msg, nil
		}
		if rerr != nil {
			return httpwire.Message{}, fmt.Errorf("failed to read message: %w", rerr)
		}
	}
}

// writeMessage returns a reader that yields the encoding of head and body.
// The body is copied by a goroutine as the reader is consumed.
func writeMessage(head httpwire.Head, body io.ReadCloser, cfg config) (io.Reader, *httpwire.Emitter, error) {
	e, err := httpwire.NewEmitter(head, cfg.encoderOpts...)
	if err != nil {
		if body != nil {
			_ = body.Close()
		}
		return nil, nil, fmt.Errorf("failed to encode head: %w", err)
	}

	pr, pw := io.Pipe()
	go func() {
		bw := httpwire.NewBodyWriter(pw, e)
		var err error
		if body != nil {
			_, err = io.Copy(bw, body)
			closeErr := body.Close()
			if err == nil {
				err = closeErr
			}
		}
		if err == nil {
			err = bw.Close()
		}
		pw.CloseWithError(err)
	}()

	return pr, e, nil
}

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
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type decoderCfg struct {
	maxLineSize  int
	maxChunkSize int64
	streamPolicy StreamPolicy
	onStartLine  func(Message) error
	onHeader     func(Message) error
	onBody       func([]byte) error
	onEnd        func(Message) error
	logger       *slog.Logger
	traceCtx     context.Context
	tracer       trace.Tracer
	now          func() time.Time
}

func defaultDecoderConfig() *decoderCfg {
	return &decoderCfg{
		maxLineSize:  MaxLineSize,
		maxChunkSize: MaxChunkSize,
		streamPolicy: DefaultStreamPolicy,
		logger:       slog.Default(),
		traceCtx:     context.Background(),
		tracer:       noop.Tracer{},
		now:          time.Now,
	}
}

// DecoderOption configures a decoder.
type DecoderOption func(cfg *decoderCfg) error

// WithOnStartLine sets a hook that is called once the start line is decoded.
func WithOnStartLine(fn func(Message) error) DecoderOption {
	return func(cfg *decoderCfg) error {
		cfg.onStartLine = fn
		return nil
	}
}

// WithOnHeader sets a hook that is called once all headers are decoded.
func WithOnHeader(fn func(Message) error) DecoderOption {
	return func(cfg *decoderCfg) error {
		cfg.onHeader = fn
		return nil
	}
}

// WithOnBody sets a hook that receives body data as it is decoded. The slice
// must not be modified. Messages with a stream body require this hook.
//
// When set, decoded body data is not accumulated in Message.Body.
func WithOnBody(fn func([]byte) error) DecoderOption {
	return func(cfg *decoderCfg) error {
		cfg.onBody = fn
		return nil
	}
}

// WithOnEnd sets a hook that is called once the message is complete.
func WithOnEnd(fn func(Message) error) DecoderOption {
	return func(cfg *decoderCfg) error {
		cfg.onEnd = fn
		return nil
	}
}

// WithStreamPolicy replaces DefaultStreamPolicy.
func WithStreamPolicy(policy StreamPolicy) DecoderOption {
	return func(cfg *decoderCfg) error {
		if policy == nil {
			return errors.New("nil stream policy")
		}
		cfg.streamPolicy = policy
		return nil
	}
}

// WithMaxLineSize sets the maximum length of the start line and header lines,
// including their CRLF.
func WithMaxLineSize(n int) DecoderOption {
	return func(cfg *decoderCfg) error {
		if n < 2 {
			return fmt.Errorf("max line size should be at least 2, got %d", n)
		}
		cfg.maxLineSize = n
		return nil
	}
}

// WithMaxChunkSize sets the maximum size of a single chunk in a chunked body.
func WithMaxChunkSize(n int64) DecoderOption {
	return func(cfg *decoderCfg) error {
		if n < 1 {
			return fmt.Errorf("max chunk size should be positive, got %d", n)
		}
		cfg.maxChunkSize = n
		return nil
	}
}

// WithLogger sets the logger used for debug logs.
func WithLogger(logger *slog.Logger) DecoderOption {
	return func(cfg *decoderCfg) error {
		if logger == nil {
			return errors.New("nil logger")
		}
		cfg.logger = logger
		return nil
	}
}

// WithTracer sets the tracer and parent context for the decode span.
func WithTracer(ctx context.Context, tracer trace.Tracer) DecoderOption {
	return func(cfg *decoderCfg) error {
		if tracer == nil {
			return errors.New("nil tracer")
		}
		if ctx == nil {
			return errors.New("nil context")
		}
		cfg.traceCtx = ctx
		cfg.tracer = tracer
		return nil
	}
}

// WithClock sets the clock used for timing marks.
func WithClock(now func() time.Time) DecoderOption {
	return func(cfg *decoderCfg) error {
		if now == nil {
			return errors.New("nil clock")
		}
		cfg.now = now
		return nil
	}
}

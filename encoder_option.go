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

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

type encoderCfg struct {
	onStartLine func([]byte) error
	onHeader    func([]byte) error
	onEnd       func() error
	logger      *slog.Logger
	traceCtx    context.Context
	tracer      trace.Tracer
}

func defaultEncoderConfig() *encoderCfg {
	return &encoderCfg{
		logger:   slog.Default(),
		traceCtx: context.Background(),
		tracer:   noop.Tracer{},
	}
}

// EncoderOption configures Encode and NewEmitter.
type EncoderOption func(cfg *encoderCfg) error

// WithStartLineHook hands the encoded start line to fn instead of including
// it in the output. The hook is called before any other output is produced.
func WithStartLineHook(fn func([]byte) error) EncoderOption {
	return func(cfg *encoderCfg) error {
		cfg.onStartLine = fn
		return nil
	}
}

// WithHeaderHook hands the encoded header section to fn instead of including
// it in the output. Unless a start line hook is set, the header section is
// preceded by the start line.
func WithHeaderHook(fn func([]byte) error) EncoderOption {
	return func(cfg *encoderCfg) error {
		cfg.onHeader = fn
		return nil
	}
}

// WithEndHook sets a hook that is called when an emitter completes. It is not
// called by Encode.
func WithEndHook(fn func() error) EncoderOption {
	return func(cfg *encoderCfg) error {
		cfg.onEnd = fn
		return nil
	}
}

// WithEncoderLogger sets the logger used for debug logs.
func WithEncoderLogger(logger *slog.Logger) EncoderOption {
	return func(cfg *encoderCfg) error {
		if logger == nil {
			return errors.New("nil logger")
		}
		cfg.logger = logger
		return nil
	}
}

// WithEncoderTracer sets the tracer and parent context for emitter spans.
func WithEncoderTracer(ctx context.Context, tracer trace.Tracer) EncoderOption {
	return func(cfg *encoderCfg) error {
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

func newEncoderConfig(opts []EncoderOption) (*encoderCfg, error) {
	cfg := defaultEncoderConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply encoder option: %w", err)
		}
	}
	return cfg, nil
}

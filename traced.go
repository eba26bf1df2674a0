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

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracedRun starts a span on the first recorded call and ends it when the
// message completes or at the first error.
type tracedRun struct {
	traceCtx context.Context
	name     string
	span     trace.Span
	tracer   trace.Tracer

	calls int
	bytes int64
	ended bool
}

func newTracedRun(ctx context.Context, tracer trace.Tracer, name string) *tracedRun {
	return &tracedRun{
		traceCtx: ctx,
		name:     name,
		span:     nil,
		tracer:   tracer,

		calls: 0,
		ended: false,
	}
}

// record counts a call handling n bytes, starting the span on the first call.
func (r *tracedRun) record(n int) {
	if r.ended {
		return
	}
	if r.span == nil {
		_, span := r.tracer.Start(r.traceCtx, r.name)
		r.span = span
	}
	r.calls++
	r.bytes += int64(n)
}

func (r *tracedRun) event(name string, attrs ...attribute.KeyValue) {
	if r.ended || r.span == nil {
		return
	}
	r.span.AddEvent(name, trace.WithAttributes(attrs...))
}

func (r *tracedRun) end(err error) {
	if r.ended || r.span == nil {
		return
	}

	r.span.SetAttributes(
		attribute.Int("calls", r.calls),
		attribute.Int64("bytes", r.bytes),
	)
	r.ended = true
	if err != nil {
		r.span.RecordError(err)
		r.span.SetStatus(codes.Error, err.Error())
	} else {
		r.span.SetStatus(codes.Ok, "")
	}
	r.span.End()
}

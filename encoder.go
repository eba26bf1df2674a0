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
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/openpcc/httpwire/headerlist"
	"golang.org/x/net/http/httpguts"
)

// Head describes the start line and headers of a message to encode. A head
// with a Method describes a request, otherwise it describes a response.
type Head struct {
	Method string
	// Path defaults to "/".
	Path string
	// Version defaults to "1.1".
	Version string

	// StatusCode defaults to 200.
	StatusCode int
	// StatusText defaults to the standard reason phrase of the status code.
	StatusText string
	// OmitStatusText writes the status line without a reason phrase.
	OmitStatusText bool

	// Header holds the fields to write in order. Content-Length and
	// Transfer-Encoding fields are replaced by the framing the encoder picks.
	Header headerlist.List
}

// IsRequest reports whether the head describes a request.
func (h Head) IsRequest() bool {
	return h.Method != ""
}

// StartLine returns the encoded start line including its CRLF.
func (h Head) StartLine() ([]byte, error) {
	return h.appendStartLine(nil)
}

func (h Head) appendStartLine(dst []byte) ([]byte, error) {
	version := h.Version
	if version == "" {
		version = "1.1"
	}
	if !validVersion(version) {
		return nil, codecErr(ErrorCodeInvalidStartLine, fmt.Errorf("%w: version %q", ErrInvalidStartLine, version))
	}

	if h.IsRequest() {
		method := strings.ToUpper(h.Method)
		if !httpguts.ValidHeaderFieldName(method) {
			return nil, codecErr(ErrorCodeInvalidStartLine, fmt.Errorf("%w: method %q", ErrInvalidStartLine, h.Method))
		}
		path := h.Path
		if path == "" {
			path = "/"
		}
		if !validPath(path) {
			return nil, codecErr(ErrorCodeInvalidStartLine, fmt.Errorf("%w: path %q", ErrInvalidStartLine, path))
		}

		dst = append(dst, method...)
		dst = append(dst, ' ')
		dst = append(dst, path...)
		dst = append(dst, " HTTP/"...)
		dst = append(dst, version...)
		return append(dst, crlf...), nil
	}

	code := h.StatusCode
	if code == 0 {
		code = http.StatusOK
	}
	if code < 0 || code > 999 {
		return nil, codecErr(ErrorCodeInvalidStatusCode, fmt.Errorf("%w: %d", ErrInvalidStatusCode, h.StatusCode))
	}

	text := h.StatusText
	if text == "" {
		text = http.StatusText(code)
	}
	if h.OmitStatusText {
		text = ""
	}
	if !httpguts.ValidHeaderFieldValue(text) {
		return nil, codecErr(ErrorCodeInvalidStartLine, fmt.Errorf("%w: status text %q", ErrInvalidStartLine, text))
	}

	dst = append(dst, "HTTP/"...)
	dst = append(dst, version...)
	dst = append(dst, ' ')
	dst = strconv.AppendInt(dst, int64(code), 10)
	if text != "" {
		dst = append(dst, ' ')
		dst = append(dst, text...)
	}
	return append(dst, crlf...), nil
}

// declaredContentLength returns the first content-length in the header list.
func (h Head) declaredContentLength() (int64, bool, error) {
	v, ok := h.Header.Get("content-length")
	if !ok {
		return 0, false, nil
	}
	n, err := parseContentLength(strings.TrimSpace(v))
	if err != nil {
		return 0, false, codecErr(ErrorCodeInvalidContentLength, fmt.Errorf("%w: %q", ErrInvalidContentLength, v))
	}
	return n, true, nil
}

func appendFields(dst []byte, fields headerlist.List) ([]byte, error) {
	for _, f := range fields {
		if !httpguts.ValidHeaderFieldName(f.Name) {
			return nil, codecErr(ErrorCodeInvalidHeaderField, fmt.Errorf("%w: name %q", ErrInvalidHeaderField, f.Name))
		}
		if !httpguts.ValidHeaderFieldValue(f.Value) {
			return nil, codecErr(ErrorCodeInvalidHeaderField, fmt.Errorf("%w: value of %q", ErrInvalidHeaderField, f.Name))
		}
		dst = append(dst, f.Name...)
		dst = append(dst, ": "...)
		dst = append(dst, f.Value...)
		dst = append(dst, crlf...)
	}
	return append(dst, crlf...), nil
}

// encodeHead encodes the start line and headers with the given framing field,
// hands them to the configured hooks and returns what remains to be written.
func encodeHead(head Head, framing headerlist.Field, cfg *encoderCfg) ([]byte, error) {
	startLine, err := head.StartLine()
	if err != nil {
		return nil, err
	}

	fields := head.Header.Without("content-length", "transfer-encoding")
	fields = append(fields, framing)

	var out []byte
	if cfg.onStartLine == nil {
		out = append(out, startLine...)
	}
	out, err = appendFields(out, fields)
	if err != nil {
		return nil, err
	}

	if cfg.onStartLine != nil {
		if err := cfg.onStartLine(startLine); err != nil {
			return nil, codecErr(ErrorCodeHook, fmt.Errorf("start line hook: %w", err))
		}
	}

	if cfg.onHeader != nil {
		if err := cfg.onHeader(out); err != nil {
			return nil, codecErr(ErrorCodeHook, fmt.Errorf("header hook: %w", err))
		}
		return nil, nil
	}

	return out, nil
}

// Encode encodes a message with a complete body. The body is framed with a
// Content-Length equal to its length, a nil body is encoded as an empty one.
func Encode(head Head, body []byte, opts ...EncoderOption) ([]byte, error) {
	cfg, err := newEncoderConfig(opts)
	if err != nil {
		return nil, err
	}

	framing := headerlist.Field{Name: "Content-Length", Value: strconv.Itoa(len(body))}
	pending, err := encodeHead(head, framing, cfg)
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(pending)+len(body))
	out = append(out, pending...)
	out = append(out, body...)

	cfg.logger.DebugContext(cfg.traceCtx, "httpwire: encoded message",
		slog.Bool("request", head.IsRequest()),
		slog.Int("body", len(body)),
	)
	return out, nil
}

// Emitter encodes a message whose body is supplied in parts. Every call to
// Emit returns the bytes to write next. The start line and headers are
// included in the output of the first call, unless hooks consumed them.
//
// An emitter is not safe for concurrent use. Once Emit returns an error the
// emitter is no longer usable.
type Emitter struct {
	cfg     *encoderCfg
	run     *tracedRun
	framing Framing
	pending []byte

	declared int64
	written  int64
	complete bool
	err      error
}

// NewEmitter creates an emitter for head. If the header list declares a
// Content-Length, the emitter writes exactly that many body bytes. Otherwise
// the body is written with the chunked transfer coding.
//
// Start line and header hooks are called before NewEmitter returns.
func NewEmitter(head Head, opts ...EncoderOption) (*Emitter, error) {
	cfg, err := newEncoderConfig(opts)
	if err != nil {
		return nil, err
	}

	declared, hasDeclared, err := head.declaredContentLength()
	if err != nil {
		return nil, err
	}

	e := &Emitter{
		cfg:      cfg,
		run:      newTracedRun(cfg.traceCtx, cfg.tracer, "httpwire.Emitter.Emit"),
		declared: declared,
	}

	var framing headerlist.Field
	if hasDeclared {
		e.framing = FramingContentLength
		framing = headerlist.Field{Name: "Content-Length", Value: strconv.FormatInt(declared, 10)}
	} else {
		e.framing = FramingChunked
		framing = headerlist.Field{Name: "Transfer-Encoding", Value: "chunked"}
	}

	e.pending, err = encodeHead(head, framing, cfg)
	if err != nil {
		return nil, err
	}

	return e, nil
}

// Framing returns how the emitter frames the body.
func (e *Emitter) Framing() Framing {
	return e.framing
}

// Complete reports whether the body has been fully emitted.
func (e *Emitter) Complete() bool {
	return e.complete
}

// Written returns the number of body bytes emitted.
func (e *Emitter) Written() int64 {
	return e.written
}

// Emit encodes the next part of the body. An empty p ends a chunked body. A
// content-length body ends once the declared number of bytes was emitted, a
// declared length of 0 requires a single empty call.
//
// After completion, an empty call to a content-length emitter returns no
// bytes. Every other call after completion fails with ErrWriteAfterComplete.
func (e *Emitter) Emit(p []byte) ([]byte, error) {
	if e.err != nil {
		return nil, e.err
	}

	if e.complete {
		if len(p) == 0 && e.framing == FramingContentLength {
			return []byte{}, nil
		}
		return nil, e.fail(codecErr(ErrorCodeWriteAfterComplete, ErrWriteAfterComplete))
	}

	e.run.record(len(p))
	if e.framing == FramingContentLength {
		return e.emitContentLength(p)
	}
	return e.emitChunked(p)
}

func (e *Emitter) emitContentLength(p []byte) ([]byte, error) {
	if len(p) == 0 {
		if e.declared != 0 {
			return nil, e.fail(codecErr(ErrorCodeEmptyContentLengthData,
				fmt.Errorf("%w: %d of %d bytes written", ErrEmptyContentLengthData, e.written, e.declared)))
		}
		return e.finish(e.takePending())
	}

	if e.written+int64(len(p)) > e.declared {
		return nil, e.fail(codecErr(ErrorCodeContentLengthExceeded,
			fmt.Errorf("%w: %d > %d", ErrContentLengthExceeded, e.written+int64(len(p)), e.declared)))
	}

	e.written += int64(len(p))
	out := append(e.takePending(), p...)
	if e.written == e.declared {
		return e.finish(out)
	}
	return out, nil
}

func (e *Emitter) emitChunked(p []byte) ([]byte, error) {
	out := e.takePending()
	if len(p) == 0 {
		return e.finish(append(out, LastChunk...))
	}

	e.written += int64(len(p))
	return AppendChunk(out, p), nil
}

func (e *Emitter) takePending() []byte {
	out := e.pending
	e.pending = nil
	return out
}

func (e *Emitter) finish(out []byte) ([]byte, error) {
	e.complete = true
	e.cfg.logger.DebugContext(e.cfg.traceCtx, "httpwire: emitted message",
		slog.String("framing", e.framing.String()),
		slog.Int64("body", e.written),
	)
	e.run.end(nil)

	if e.cfg.onEnd != nil {
		if err := e.cfg.onEnd(); err != nil {
			return nil, e.fail(codecErr(ErrorCodeHook, fmt.Errorf("end hook: %w", err)))
		}
	}
	return out, nil
}

func (e *Emitter) fail(err error) error {
	e.err = err
	e.cfg.logger.DebugContext(e.cfg.traceCtx, "httpwire: emit failed",
		slog.String("framing", e.framing.String()),
		slog.Int64("body", e.written),
		slog.Any("error", err),
	)
	e.run.end(err)
	return err
}

// BodyWriter writes the output of an emitter to an io.Writer.
type BodyWriter struct {
	e *Emitter
	w io.Writer
}

var _ io.WriteCloser = &BodyWriter{}

// NewBodyWriter returns a writer that emits body data to w.
func NewBodyWriter(w io.Writer, e *Emitter) *BodyWriter {
	return &BodyWriter{e: e, w: w}
}

// Write emits p. Empty writes are ignored, use Close to end the body.
func (bw *BodyWriter) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	out, err := bw.e.Emit(p)
	if err != nil {
		return 0, err
	}
	if _, err := bw.w.Write(out); err != nil {
		return 0, fmt.Errorf("failed to write encoded body: %w", err)
	}
	return len(p), nil
}

// Close ends the body.
func (bw *BodyWriter) Close() error {
	out, err := bw.e.Emit(nil)
	if err != nil {
		return err
	}
	if len(out) == 0 {
		return nil
	}
	if _, err := bw.w.Write(out); err != nil {
		return fmt.Errorf("failed to write end of body: %w", err)
	}
	return nil
}

func validPath(p string) bool {
	for i := 0; i < len(p); i++ {
		if p[i] <= ' ' || p[i] == 0x7f {
			return false
		}
	}
	return true
}

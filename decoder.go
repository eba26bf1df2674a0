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
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
)

// Decoder incrementally decodes a single HTTP/1.1 request or response from
// bytes fed to it in arbitrary fragments.
//
// A decoder is not safe for concurrent use. Hooks run synchronously from
// within Feed. A hook may call Feed on the same decoder, in which case the
// bytes are buffered and decoded once the hook returns.
//
// Once Feed returns an error, the decoder is no longer usable and every later
// call returns the same error.
type Decoder struct {
	cfg   *decoderCfg
	run   *tracedRun
	phase Phase
	msg   Message

	// buf holds bytes fed but not yet consumed.
	buf []byte
	// body accumulates body data when there is no body hook.
	body []byte
	// remaining is the number of content-length bytes still expected.
	remaining int64
	chunks    *chunkDecoder

	created time.Time
	busy    bool
	err     error
}

// NewRequestDecoder creates a decoder for a request.
func NewRequestDecoder(opts ...DecoderOption) (*Decoder, error) {
	return newDecoder(true, opts)
}

// NewResponseDecoder creates a decoder for a response.
func NewResponseDecoder(opts ...DecoderOption) (*Decoder, error) {
	return newDecoder(false, opts)
}

func newDecoder(request bool, opts []DecoderOption) (*Decoder, error) {
	cfg := defaultDecoderConfig()
	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, fmt.Errorf("failed to apply decoder option: %w", err)
		}
	}

	spanName := "httpwire.ResponseDecoder.Feed"
	if request {
		spanName = "httpwire.RequestDecoder.Feed"
	}

	return &Decoder{
		cfg:     cfg,
		run:     newTracedRun(cfg.traceCtx, cfg.tracer, spanName),
		phase:   PhaseStartLine,
		msg:     Message{Request: request},
		created: cfg.now(),
	}, nil
}

// Phase returns the current phase of the decoder.
func (d *Decoder) Phase() Phase {
	return d.phase
}

// Err returns the error that stopped the decoder, if any.
func (d *Decoder) Err() error {
	return d.err
}

// Buffered returns a copy of the bytes that were fed but not consumed. Once
// the message is complete these are the bytes following it.
func (d *Decoder) Buffered() []byte {
	return bytes.Clone(d.buf)
}

// Feed decodes as much of p, together with previously buffered bytes, as
// possible and returns a snapshot of the message.
//
// Feeding a decoder after its message is complete fails with ErrMessageComplete.
func (d *Decoder) Feed(p []byte) (Message, error) {
	if d.err != nil {
		return d.snapshot(), d.err
	}
	if d.phase == PhaseComplete {
		return d.snapshot(), codecErr(ErrorCodeMessageComplete, ErrMessageComplete)
	}

	d.msg.Calls++
	d.msg.BytesConsumed += int64(len(p))
	d.buf = append(d.buf, p...)
	d.run.record(len(p))
	if !d.msg.Timings.StartLine.Started {
		d.startPhase(&d.msg.Timings.StartLine)
	}

	if d.busy {
		// a hook is running, the outer Feed picks up the new bytes.
		return d.snapshot(), nil
	}

	if err := d.advance(); err != nil {
		d.err = err
		d.cfg.logger.DebugContext(d.cfg.traceCtx, "httpwire: decode failed",
			slog.String("phase", d.phase.String()),
			slog.Int64("bytes", d.msg.BytesConsumed),
			slog.Any("error", err),
		)
		d.run.end(err)
		return d.snapshot(), err
	}

	return d.snapshot(), nil
}

// Finish tells the decoder that no more bytes will arrive, for example
// because the connection was closed. It completes a message with a stream
// body. For any other message that is not yet complete it fails with
// ErrUnexpectedEOF.
func (d *Decoder) Finish() (Message, error) {
	if d.err != nil {
		return d.snapshot(), d.err
	}
	if d.phase == PhaseComplete {
		return d.snapshot(), nil
	}
	if d.busy {
		return d.snapshot(), codecErr(ErrorCodeHook, errors.New("finish called from hook"))
	}

	if d.phase == PhaseBody && d.msg.Framing == FramingStream {
		if err := d.complete(); err != nil {
			d.err = err
			return d.snapshot(), err
		}
		return d.snapshot(), nil
	}

	d.err = codecErr(ErrorCodeUnexpectedEOF, fmt.Errorf("%w: in %s phase", ErrUnexpectedEOF, d.phase))
	d.run.end(d.err)
	return d.snapshot(), d.err
}

func (d *Decoder) advance() error {
	for {
		var (
			progressed bool
			err        error
		)
		switch d.phase {
		case PhaseStartLine:
			progressed, err = d.readStartLine()
		case PhaseHeaders:
			progressed, err = d.readHeaderLine()
		case PhaseBody:
			progressed, err = d.readBody()
		default:
			return nil
		}
		if err != nil {
			return err
		}
		if !progressed {
			return nil
		}
	}
}

func (d *Decoder) readStartLine() (bool, error) {
	line, n, err := ScanLine(d.buf, 0, d.cfg.maxLineSize)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	d.buf = d.buf[n:]

	var ok bool
	if d.msg.Request {
		ok = parseRequestLine(string(line), &d.msg)
	} else {
		ok = parseStatusLine(string(line), &d.msg)
	}
	if !ok {
		return false, codecErr(ErrorCodeMalformedStartLine, fmt.Errorf("%w: %q", ErrMalformedStartLine, truncate(line)))
	}

	d.msg.Header = NewHeader()
	d.endPhase(&d.msg.Timings.StartLine)
	d.startPhase(&d.msg.Timings.Headers)
	d.phase = PhaseHeaders

	if d.msg.Request {
		d.cfg.logger.DebugContext(d.cfg.traceCtx, "httpwire: decoded request line",
			slog.String("method", d.msg.Method),
			slog.String("path", d.msg.Path),
			slog.String("version", d.msg.HTTPVersion),
		)
	} else {
		d.cfg.logger.DebugContext(d.cfg.traceCtx, "httpwire: decoded status line",
			slog.Int("status", d.msg.StatusCode),
			slog.String("version", d.msg.HTTPVersion),
		)
	}
	d.run.event("startline")

	return true, d.callHook(d.cfg.onStartLine, "start line")
}

func (d *Decoder) readHeaderLine() (bool, error) {
	line, n, err := ScanLine(d.buf, 0, d.cfg.maxLineSize)
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	d.buf = d.buf[n:]

	if len(line) == 0 {
		return true, d.finishHeaders()
	}

	name, value, ok := bytes.Cut(line, []byte(":"))
	if !ok {
		return false, codecErr(ErrorCodeMalformedHeaderLine, fmt.Errorf("%w: %q", ErrMalformedHeaderLine, truncate(line)))
	}

	name = bytes.TrimSpace(name)
	value = bytes.TrimSpace(value)
	if len(name) == 0 || len(value) == 0 {
		return true, nil
	}

	if err := d.msg.Header.Add(string(name), string(value)); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Decoder) finishHeaders() error {
	h := d.msg.Header
	contentLength, hasContentLength := h.ContentLength()

	switch {
	case h.Has("transfer-encoding"):
		switch {
		case isChunkedTransferEncoding(h.Values("transfer-encoding")):
			h.dropContentLength()
			d.msg.Framing = FramingChunked
			d.chunks = newChunkDecoder(d.cfg.maxChunkSize)
		case hasContentLength:
			d.msg.Framing = FramingContentLength
			d.remaining = contentLength
		default:
			return codecErr(ErrorCodeUnsupportedTransferEncoding,
				fmt.Errorf("%w: %q", ErrUnsupportedTransferEncoding, strings.Join(h.Values("transfer-encoding"), ", ")))
		}
	case hasContentLength:
		d.msg.Framing = FramingContentLength
		d.remaining = contentLength
	case d.cfg.streamPolicy(d.snapshot()):
		if d.cfg.onBody == nil {
			return codecErr(ErrorCodeStreamBodyWithoutHandler, ErrStreamBodyWithoutHandler)
		}
		d.msg.Framing = FramingStream
	default:
		h.setContentLength(0)
		d.msg.Framing = FramingContentLength
		d.remaining = 0
	}

	d.endPhase(&d.msg.Timings.Headers)
	d.startPhase(&d.msg.Timings.Body)
	d.phase = PhaseBody

	d.cfg.logger.DebugContext(d.cfg.traceCtx, "httpwire: decoded headers",
		slog.Int("fields", h.Len()),
		slog.String("framing", d.msg.Framing.String()),
	)
	d.run.event("headers", attribute.String("framing", d.msg.Framing.String()))

	return d.callHook(d.cfg.onHeader, "header")
}

func (d *Decoder) readBody() (bool, error) {
	switch d.msg.Framing {
	case FramingStream:
		if len(d.buf) == 0 {
			return false, nil
		}
		data := d.buf
		d.buf = nil
		return true, d.deliver(data)
	case FramingContentLength:
		if d.remaining == 0 {
			return true, d.complete()
		}
		if len(d.buf) == 0 {
			return false, nil
		}
		k := int(min(int64(len(d.buf)), d.remaining))
		data := d.buf[:k]
		d.buf = d.buf[k:]
		d.remaining -= int64(k)
		return true, d.deliver(data)
	case FramingChunked:
		data, n, done, err := d.chunks.next(d.buf)
		if err != nil {
			return false, err
		}
		if n == 0 {
			return false, nil
		}
		d.buf = d.buf[n:]
		if len(data) > 0 {
			if err := d.deliver(data); err != nil {
				return false, err
			}
		}
		if done {
			return true, d.complete()
		}
		return true, nil
	default:
		return false, fmt.Errorf("unexpected framing %s", d.msg.Framing)
	}
}

func (d *Decoder) deliver(data []byte) error {
	if d.cfg.onBody == nil {
		d.body = append(d.body, data...)
		return nil
	}

	d.busy = true
	err := d.cfg.onBody(data)
	d.busy = false
	if err != nil {
		return codecErr(ErrorCodeHook, fmt.Errorf("body hook: %w", err))
	}
	return nil
}

func (d *Decoder) complete() error {
	d.phase = PhaseComplete
	d.endPhase(&d.msg.Timings.Body)
	d.msg.Complete = true
	d.msg.Body = d.body
	if d.msg.Body == nil {
		d.msg.Body = []byte{}
	}
	d.msg.Leftover = bytes.Clone(d.buf)
	if d.msg.Leftover == nil {
		d.msg.Leftover = []byte{}
	}

	d.cfg.logger.DebugContext(d.cfg.traceCtx, "httpwire: decoded message",
		slog.Int64("bytes", d.msg.BytesConsumed),
		slog.Int("calls", d.msg.Calls),
		slog.Int("leftover", len(d.msg.Leftover)),
		slog.Duration("elapsed", d.since()),
	)
	d.run.event("body")
	d.run.end(nil)

	return d.callHook(d.cfg.onEnd, "end")
}

func (d *Decoder) callHook(fn func(Message) error, name string) error {
	if fn == nil {
		return nil
	}

	d.busy = true
	err := fn(d.snapshot())
	d.busy = false
	if err != nil {
		return codecErr(ErrorCodeHook, fmt.Errorf("%s hook: %w", name, err))
	}
	return nil
}

func (d *Decoder) snapshot() Message {
	return d.msg.clone()
}

func (d *Decoder) since() time.Duration {
	return d.cfg.now().Sub(d.created)
}

func (d *Decoder) startPhase(t *PhaseTiming) {
	t.Start = d.since()
	t.Started = true
}

func (d *Decoder) endPhase(t *PhaseTiming) {
	t.End = d.since()
	t.Ended = true
}

// parseRequestLine parses "METHOD SP+ PATH SP+ HTTP/VERSION".
func parseRequestLine(line string, msg *Message) bool {
	method, rest, ok := strings.Cut(line, " ")
	if !ok || method == "" {
		return false
	}

	path, rest, ok := strings.Cut(strings.TrimLeft(rest, " "), " ")
	if !ok || path == "" {
		return false
	}

	version, ok := strings.CutPrefix(strings.TrimLeft(rest, " "), "HTTP/")
	if !ok || !validVersion(version) {
		return false
	}

	msg.Method = strings.ToUpper(method)
	msg.Path = path
	msg.HTTPVersion = version
	return true
}

// parseStatusLine parses "HTTP/VERSION SP+ STATUSCODE [SP STATUSTEXT]".
func parseStatusLine(line string, msg *Message) bool {
	rest, ok := strings.CutPrefix(line, "HTTP/")
	if !ok {
		return false
	}

	i := strings.IndexAny(rest, " \t")
	if i < 0 || !validVersion(rest[:i]) {
		return false
	}
	version := rest[:i]
	rest = strings.TrimLeft(rest[i:], " \t")

	j := 0
	for j < len(rest) && '0' <= rest[j] && rest[j] <= '9' {
		j++
	}
	digits := rest[:j]
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return false
	}
	code, err := strconv.Atoi(digits)
	if err != nil {
		return false
	}

	rest = rest[j:]
	if rest != "" && rest[0] != ' ' {
		return false
	}

	msg.HTTPVersion = version
	msg.StatusCode = code
	if text := strings.TrimSpace(rest); text != "" {
		msg.StatusText = text
		msg.HasStatusText = true
	}
	return true
}

func validVersion(v string) bool {
	switch v {
	case "1.1", "1.0", "2":
		return true
	default:
		return false
	}
}

// truncate limits lines quoted in errors.
func truncate(line []byte) []byte {
	const maxQuoted = 64
	if len(line) > maxQuoted {
		return line[:maxQuoted]
	}
	return line
}

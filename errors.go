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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/openpcc/httpwire/headerlist"
)

// ErrorCode is the error code of a codec error.
type ErrorCode int

// Error codes returned by decoders and encoders.
const (
	ErrorCodeLineTooLong                 ErrorCode = 100
	ErrorCodeBareLineFeed                ErrorCode = 101
	ErrorCodeMalformedStartLine          ErrorCode = 102
	ErrorCodeMalformedHeaderLine         ErrorCode = 103
	ErrorCodeDuplicateContentLength      ErrorCode = 104
	ErrorCodeInvalidContentLengthValue   ErrorCode = 105
	ErrorCodeInvalidChunkSize            ErrorCode = 106
	ErrorCodeMissingChunkCRLF            ErrorCode = 107
	ErrorCodeStreamBodyWithoutHandler    ErrorCode = 108
	ErrorCodeUnsupportedTransferEncoding ErrorCode = 109
	ErrorCodeUnexpectedEOF               ErrorCode = 110

	ErrorCodeInvalidStatusCode      ErrorCode = 200
	ErrorCodeInvalidContentLength   ErrorCode = 201
	ErrorCodeContentLengthExceeded  ErrorCode = 202
	ErrorCodeWriteAfterComplete     ErrorCode = 203
	ErrorCodeInvalidHeaderField     ErrorCode = 204
	ErrorCodeInvalidStartLine       ErrorCode = 205
	ErrorCodeEmptyContentLengthData ErrorCode = 206

	ErrorCodeMessageComplete ErrorCode = 300
	ErrorCodeHook            ErrorCode = 301
)

// Decode errors.
var (
	ErrLineTooLong                 = errors.New("line too long")
	ErrBareLineFeed                = errors.New("line feed without preceding carriage return")
	ErrMalformedStartLine          = errors.New("malformed start line")
	ErrMalformedHeaderLine         = errors.New("malformed header line")
	ErrDuplicateContentLength      = errors.New("duplicate content-length")
	ErrInvalidContentLengthValue   = errors.New("invalid content-length value")
	ErrInvalidChunkSize            = errors.New("invalid chunk size")
	ErrMissingChunkCRLF            = errors.New("chunk data not followed by CRLF")
	ErrStreamBodyWithoutHandler    = errors.New("stream body requires a body hook")
	ErrUnsupportedTransferEncoding = errors.New("unsupported transfer-encoding")
	ErrUnexpectedEOF               = errors.New("message ended before it was complete")
)

// Encode errors.
var (
	ErrInvalidStatusCode      = errors.New("invalid status code")
	ErrInvalidContentLength   = errors.New("invalid content-length")
	ErrContentLengthExceeded  = errors.New("content-length exceeded")
	ErrWriteAfterComplete     = errors.New("write after complete")
	ErrInvalidHeaderField     = errors.New("invalid header field")
	ErrInvalidStartLine       = errors.New("invalid start line")
	ErrEmptyContentLengthData = errors.New("empty write before content-length reached")
)

// Usage errors.
var (
	ErrMessageComplete = errors.New("message already complete")
)

// CodecError is an error that occurred while decoding or encoding a message.
// The error wraps one of the sentinel errors of this package, use errors.Is
// to match on them.
type CodecError struct {
	Code ErrorCode
	Err  error
}

// IsDecodeError indicates whether the error was caused by malformed input.
func (e CodecError) IsDecodeError() bool {
	return e.Code >= 100 && e.Code < 200
}

// IsEncodeError indicates whether the error was caused by an invalid message description
// or emitter call.
func (e CodecError) IsEncodeError() bool {
	return e.Code >= 200 && e.Code < 300
}

// IsUsageError indicates whether the error was caused by the caller, either by feeding
// a completed decoder or by a failing hook.
func (e CodecError) IsUsageError() bool {
	return e.Code >= 300 && e.Code < 400
}

func (e CodecError) Error() string {
	return strconv.Itoa(int(e.Code)) + ": " + e.Err.Error()
}

func (e CodecError) Unwrap() error {
	return e.Err
}

func codecErr(code ErrorCode, err error) error {
	return CodecError{Code: code, Err: err}
}

// StatusCodeForError returns the HTTP status code a server should answer with
// when decoding a request failed with err.
func StatusCodeForError(err error) int {
	cErr := CodecError{}
	if !errors.As(err, &cErr) {
		return http.StatusInternalServerError
	}

	switch {
	case cErr.Code == ErrorCodeLineTooLong:
		return http.StatusRequestHeaderFieldsTooLarge
	case cErr.Code == ErrorCodeUnsupportedTransferEncoding:
		return http.StatusNotImplemented
	case cErr.IsDecodeError():
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// ProblemResponse describes an application/problem+json response for err. The
// returned head and body can be passed to Encode.
func ProblemResponse(err error) (Head, []byte) {
	code := StatusCodeForError(err)
	problem := struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Status int    `json:"status"`
	}{
		Type:   "about:blank",
		Title:  http.StatusText(code),
		Status: code,
	}

	// marshalling a struct of strings and ints can't fail.
	body, _ := json.Marshal(problem)

	return Head{
		StatusCode: code,
		Header: headerlist.List{
			{Name: "Content-Type", Value: "application/problem+json"},
			{Name: "Connection", Value: "close"},
		},
	}, body
}

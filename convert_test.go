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

package httpwire_test

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/openpcc/httpwire"
	"github.com/openpcc/httpwire/headerlist"
	"github.com/stretchr/testify/require"
)

func TestMessageHTTPRequest(t *testing.T) {
	dec := newDecoder(t, true)
	msg := feedAll(t, dec, "POST /items?id=7 HTTP/1.1\r\nHost: example.com\r\nX-Id: 1\r\nX-Id: 2\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n")

	req, err := msg.HTTPRequest()
	require.NoError(t, err)
	require.Equal(t, http.MethodPost, req.Method)
	require.Equal(t, "/items", req.URL.Path)
	require.Equal(t, "id=7", req.URL.RawQuery)
	require.Equal(t, "example.com", req.Host)
	require.Equal(t, 1, req.ProtoMajor)
	require.Equal(t, 1, req.ProtoMinor)
	require.Equal(t, []string{"1", "2"}, req.Header.Values("X-Id"))
	require.Empty(t, req.Header.Get("Host"))
	require.Empty(t, req.Header.Get("Transfer-Encoding"))
	require.Equal(t, int64(5), req.ContentLength)

	body, err := io.ReadAll(req.Body)
	require.NoError(t, err)
	require.Equal(t, "hello", string(body))
}

func TestMessageHTTPResponse(t *testing.T) {
	dec := newDecoder(t, false)
	msg := feedAll(t, dec, "HTTP/1.0 404 Not Found\r\nContent-Type: text/plain\r\nContent-Length: 4\r\n\r\nnope")

	resp, err := msg.HTTPResponse()
	require.NoError(t, err)
	require.Equal(t, "404 Not Found", resp.Status)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, 0, resp.ProtoMinor)
	require.Equal(t, "text/plain", resp.Header.Get("Content-Type"))
	require.Empty(t, resp.Header.Get("Content-Length"))
	require.Equal(t, int64(4), resp.ContentLength)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "nope", string(body))
}

func TestMessageConversionErrors(t *testing.T) {
	t.Run("fail, incomplete", func(t *testing.T) {
		dec := newDecoder(t, true)
		msg := feedAll(t, dec, "GET / HTTP/1.1\r\n")
		_, err := msg.HTTPRequest()
		require.ErrorIs(t, err, httpwire.ErrIncompleteMessage)
	})

	t.Run("fail, wrong kind", func(t *testing.T) {
		dec := newDecoder(t, true)
		msg := feedAll(t, dec, "GET / HTTP/1.1\r\n\r\n")
		_, err := msg.HTTPResponse()
		require.Error(t, err)
	})
}

func TestHeadFromRequest(t *testing.T) {
	t.Run("ok, known length", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPut, "http://example.com/a/b?c=d", strings.NewReader("body"))
		require.NoError(t, err)
		req.Header.Set("X-Test", "1")

		head := httpwire.HeadFromRequest(req)
		require.Equal(t, httpwire.Head{
			Method:  http.MethodPut,
			Path:    "/a/b?c=d",
			Version: "1.1",
			Header: headerlist.List{
				{Name: "Host", Value: "example.com"},
				{Name: "X-Test", Value: "1"},
				{Name: "Content-Length", Value: "4"},
			},
		}, head)
	})

	t.Run("ok, no body", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
		require.NoError(t, err)

		head := httpwire.HeadFromRequest(req)
		v, ok := head.Header.Get("content-length")
		require.True(t, ok)
		require.Equal(t, "0", v)
		require.Equal(t, "/", head.Path)
	})

	t.Run("ok, unknown length is chunked", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, "http://example.com/", io.NopCloser(strings.NewReader("x")))
		require.NoError(t, err)

		head := httpwire.HeadFromRequest(req)
		require.False(t, head.Header.Has("content-length"))

		e, err := httpwire.NewEmitter(head)
		require.NoError(t, err)
		require.Equal(t, httpwire.FramingChunked, e.Framing())
	})
}

func TestHeadFromResponse(t *testing.T) {
	tests := map[string]struct {
		resp     *http.Response
		wantText string
		wantCL   string
		wantHas  bool
	}{
		"known length": {
			resp:     &http.Response{Status: "200 OK", StatusCode: 200, ContentLength: 3, Header: http.Header{}},
			wantText: "OK",
			wantCL:   "3",
			wantHas:  true,
		},
		"unknown length": {
			resp:     &http.Response{Status: "200 Fine", StatusCode: 200, ContentLength: -1, Header: http.Header{"Content-Length": {"9"}}},
			wantText: "Fine",
		},
		"no body status": {
			resp:    &http.Response{StatusCode: 304, ContentLength: -1, Header: http.Header{}},
			wantCL:  "0",
			wantHas: true,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			head := httpwire.HeadFromResponse(tc.resp)
			require.Equal(t, tc.resp.StatusCode, head.StatusCode)
			require.Equal(t, tc.wantText, head.StatusText)
			cl, ok := head.Header.Get("content-length")
			require.Equal(t, tc.wantHas, ok)
			require.Equal(t, tc.wantCL, cl)
		})
	}
}

func TestRequestRoundTripThroughNetHTTP(t *testing.T) {
	wire := "PATCH /r HTTP/1.1\r\nHost: a.example\r\nAccept: text/plain\r\nContent-Length: 3\r\n\r\nabc"

	msg := feedAll(t, newDecoder(t, true), wire)
	req, err := msg.HTTPRequest()
	require.NoError(t, err)

	out := &strings.Builder{}
	require.NoError(t, httpwire.WriteMessage(out, httpwire.HeadFromRequest(req), req.Body))
	require.Equal(t, wire, out.String())
}

func TestStatusCodeForError(t *testing.T) {
	tests := map[string]struct {
		err  error
		want int
	}{
		"line too long": {
			err:  httpwire.CodecError{Code: httpwire.ErrorCodeLineTooLong, Err: httpwire.ErrLineTooLong},
			want: http.StatusRequestHeaderFieldsTooLarge,
		},
		"malformed start line": {
			err:  httpwire.CodecError{Code: httpwire.ErrorCodeMalformedStartLine, Err: httpwire.ErrMalformedStartLine},
			want: http.StatusBadRequest,
		},
		"unsupported transfer-encoding": {
			err:  httpwire.CodecError{Code: httpwire.ErrorCodeUnsupportedTransferEncoding, Err: httpwire.ErrUnsupportedTransferEncoding},
			want: http.StatusNotImplemented,
		},
		"hook error": {
			err:  httpwire.CodecError{Code: httpwire.ErrorCodeHook, Err: errors.New("x")},
			want: http.StatusInternalServerError,
		},
		"other error": {
			err:  errors.New("x"),
			want: http.StatusInternalServerError,
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, httpwire.StatusCodeForError(tc.err))
		})
	}
}

func TestProblemResponse(t *testing.T) {
	dec := newDecoder(t, true)
	_, decodeErr := dec.Feed([]byte("GET / HTTP/1.1\r\nbroken\r\n\r\n"))
	require.Error(t, decodeErr)

	head, body := httpwire.ProblemResponse(decodeErr)
	require.Equal(t, http.StatusBadRequest, head.StatusCode)

	wire, err := httpwire.Encode(head, body)
	require.NoError(t, err)

	msg := feedAll(t, newDecoder(t, false), string(wire))
	require.Equal(t, 400, msg.StatusCode)
	require.Equal(t, "Bad Request", msg.StatusText)
	ct, _ := msg.Header.Get("content-type")
	require.Equal(t, "application/problem+json", ct)

	problem := struct {
		Type   string `json:"type"`
		Title  string `json:"title"`
		Status int    `json:"status"`
	}{}
	require.NoError(t, json.Unmarshal(msg.Body, &problem))
	require.Equal(t, "about:blank", problem.Type)
	require.Equal(t, "Bad Request", problem.Title)
	require.Equal(t, 400, problem.Status)
}

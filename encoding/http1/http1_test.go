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

package http1_test

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/openpcc/httpwire"
	"github.com/openpcc/httpwire/encoding/http1"
	"github.com/stretchr/testify/require"
)

func encodeRequest(t *testing.T, req *http.Request, opts ...http1.Option) string {
	t.Helper()
	enc, err := http1.NewRequestEncoder(opts...)
	require.NoError(t, err)

	msg, err := enc.EncodeRequest(req)
	require.NoError(t, err)
	require.Equal(t, httpwire.RequestMediaType, string(msg.MediaType))

	b, err := io.ReadAll(msg)
	require.NoError(t, err)
	return string(b)
}

func TestRequestEncoder(t *testing.T) {
	tests := map[string]struct {
		body io.Reader
		want string
	}{
		"no body": {
			want: "GET /p HTTP/1.1\r\nHost: example.com\r\nContent-Length: 0\r\n\r\n",
		},
		"known length": {
			body: strings.NewReader("hello"),
			want: "GET /p HTTP/1.1\r\nHost: example.com\r\nContent-Length: 5\r\n\r\nhello",
		},
		"unknown length": {
			body: io.NopCloser(strings.NewReader("hello")),
			want: "GET /p HTTP/1.1\r\nHost: example.com\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "http://example.com/p", tc.body)
			require.NoError(t, err)

			require.Equal(t, tc.want, encodeRequest(t, req))
		})
	}
}

func TestRequestRoundTrip(t *testing.T) {
	tests := map[string]io.Reader{
		"empty":         nil,
		"known length":  strings.NewReader("a body"),
		"unknown":       io.NopCloser(strings.NewReader("streamed body")),
		"large unknown": io.NopCloser(strings.NewReader(strings.Repeat("x", 3*httpwire.MaxChunkDataSize+1))),
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodPost, "http://example.com/submit?x=1", body)
			require.NoError(t, err)
			req.Header.Set("X-Trace", "abc")

			wantBody := []byte{}
			if body != nil {
				// re-create the request body after reading the expected contents.
				wantBody, err = io.ReadAll(req.Body)
				require.NoError(t, err)
				req.Body = io.NopCloser(strings.NewReader(string(wantBody)))
			}

			wire := encodeRequest(t, req)

			dec, err := http1.NewRequestDecoder(http1.ReadBufferSize(7))
			require.NoError(t, err)
			got, err := dec.DecodeRequest(context.Background(), strings.NewReader(wire))
			require.NoError(t, err)

			require.Equal(t, http.MethodPost, got.Method)
			require.Equal(t, "/submit", got.URL.Path)
			require.Equal(t, "example.com", got.Host)
			require.Equal(t, "abc", got.Header.Get("X-Trace"))

			gotBody, err := io.ReadAll(got.Body)
			require.NoError(t, err)
			require.Equal(t, string(wantBody), string(gotBody))
		})
	}
}

func TestResponseRoundTrip(t *testing.T) {
	tests := map[string]struct {
		resp     *http.Response
		wantBody string
	}{
		"known length": {
			resp: &http.Response{
				StatusCode:    http.StatusCreated,
				ProtoMajor:    1,
				ProtoMinor:    1,
				Header:        http.Header{"Content-Type": {"text/plain"}},
				ContentLength: 2,
				Body:          io.NopCloser(strings.NewReader("ok")),
			},
			wantBody: "ok",
		},
		"unknown length": {
			resp: &http.Response{
				StatusCode:    http.StatusOK,
				ProtoMajor:    1,
				ProtoMinor:    1,
				Header:        http.Header{"Content-Type": {"text/plain"}},
				ContentLength: -1,
				Body:          io.NopCloser(strings.NewReader("chunked response")),
			},
			wantBody: "chunked response",
		},
		"no body status": {
			resp: &http.Response{
				StatusCode:    http.StatusNoContent,
				ProtoMajor:    1,
				ProtoMinor:    1,
				Header:        http.Header{"Content-Type": {"text/plain"}},
				ContentLength: -1,
				Body:          io.NopCloser(strings.NewReader("ignored")),
			},
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			enc, err := http1.NewResponseEncoder()
			require.NoError(t, err)
			msg, err := enc.EncodeResponse(context.Background(), tc.resp)
			require.NoError(t, err)
			require.Equal(t, httpwire.ResponseMediaType, string(msg.MediaType))

			dec, err := http1.NewResponseDecoder()
			require.NoError(t, err)
			got, err := dec.DecodeResponse(context.Background(), msg)
			require.NoError(t, err)

			require.Equal(t, tc.resp.StatusCode, got.StatusCode)
			require.Equal(t, "text/plain", got.Header.Get("Content-Type"))

			gotBody, err := io.ReadAll(got.Body)
			require.NoError(t, err)
			require.Equal(t, tc.wantBody, string(gotBody))
		})
	}
}

func TestResponseDecoderStreamBody(t *testing.T) {
	dec, err := http1.NewResponseDecoder(http1.ReadBufferSize(3))
	require.NoError(t, err)

	resp, err := dec.DecodeResponse(context.Background(), strings.NewReader("HTTP/1.1 200 OK\r\nServer: test\r\n\r\nuntil the end"))
	require.NoError(t, err)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "until the end", string(body))
}

func TestDecoderErrors(t *testing.T) {
	t.Run("fail, truncated request", func(t *testing.T) {
		dec, err := http1.NewRequestDecoder()
		require.NoError(t, err)
		_, err = dec.DecodeRequest(context.Background(), strings.NewReader("POST / HTTP/1.1\r\nContent-Length: 10\r\n\r\nshort"))
		require.ErrorIs(t, err, httpwire.ErrUnexpectedEOF)
	})

	t.Run("fail, malformed response", func(t *testing.T) {
		dec, err := http1.NewResponseDecoder()
		require.NoError(t, err)
		_, err = dec.DecodeResponse(context.Background(), strings.NewReader("HTTP/1.1 abc OK\r\n\r\n"))
		require.ErrorIs(t, err, httpwire.ErrMalformedStartLine)
	})

	t.Run("fail, canceled context", func(t *testing.T) {
		dec, err := http1.NewRequestDecoder()
		require.NoError(t, err)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err = dec.DecodeRequest(ctx, strings.NewReader("GET / HTTP/1.1\r\n\r\n"))
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("fail, invalid option", func(t *testing.T) {
		_, err := http1.NewRequestDecoder(http1.ReadBufferSize(0))
		require.Error(t, err)
	})
}

func TestDecoderOptionsArePassed(t *testing.T) {
	dec, err := http1.NewRequestDecoder(http1.WithDecoderOptions(httpwire.WithMaxLineSize(16)))
	require.NoError(t, err)

	_, err = dec.DecodeRequest(context.Background(), strings.NewReader("GET /a-very-long-path-indeed HTTP/1.1\r\n\r\n"))
	require.ErrorIs(t, err, httpwire.ErrLineTooLong)
}

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
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/openpcc/httpwire/headerlist"
)

// ErrIncompleteMessage is returned when converting a message that has not
// been fully decoded.
var ErrIncompleteMessage = errors.New("message is not complete")

// HTTPRequest converts a complete decoded request to a net/http request. The
// framing headers are replaced by the ContentLength of the decoded body.
func (m Message) HTTPRequest() (*http.Request, error) {
	if !m.Request {
		return nil, errors.New("message is a response")
	}
	if !m.Complete {
		return nil, ErrIncompleteMessage
	}

	u, err := url.ParseRequestURI(m.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse request target: %w", err)
	}

	major, minor := protoVersion(m.HTTPVersion)
	req := &http.Request{
		Method:        m.Method,
		URL:           u,
		Proto:         "HTTP/" + m.HTTPVersion,
		ProtoMajor:    major,
		ProtoMinor:    minor,
		Header:        httpHeader(m.Header),
		Body:          io.NopCloser(bytes.NewReader(m.Body)),
		ContentLength: int64(len(m.Body)),
		Host:          u.Host,
	}
	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
		req.Header.Del("Host")
	}
	if len(m.Body) == 0 {
		req.Body = http.NoBody
	}

	return req, nil
}

// HTTPResponse converts a complete decoded response to a net/http response.
func (m Message) HTTPResponse() (*http.Response, error) {
	if m.Request {
		return nil, errors.New("message is a request")
	}
	if !m.Complete {
		return nil, ErrIncompleteMessage
	}

	status := strconv.Itoa(m.StatusCode)
	if m.HasStatusText {
		status += " " + m.StatusText
	}

	major, minor := protoVersion(m.HTTPVersion)
	return &http.Response{
		Status:        status,
		StatusCode:    m.StatusCode,
		Proto:         "HTTP/" + m.HTTPVersion,
		ProtoMajor:    major,
		ProtoMinor:    minor,
		Header:        httpHeader(m.Header),
		Body:          io.NopCloser(bytes.NewReader(m.Body)),
		ContentLength: int64(len(m.Body)),
	}, nil
}

// HeadFromRequest describes r for encoding. The Host field is written first.
// A known r.ContentLength is declared as Content-Length, an unknown one
// results in a chunked body.
func HeadFromRequest(r *http.Request) Head {
	path := r.RequestURI
	if path == "" && r.URL != nil {
		path = r.URL.RequestURI()
	}

	host := r.Host
	if host == "" && r.URL != nil {
		host = r.URL.Host
	}

	var fields headerlist.List
	if host != "" && r.Header.Get("Host") == "" {
		fields = fields.Add("Host", host)
	}
	fields = append(fields, headerlist.FromMap(r.Header)...)
	switch {
	case r.ContentLength > 0:
		fields = fields.Set(headerlist.List{{Name: "Content-Length", Value: strconv.FormatInt(r.ContentLength, 10)}})
	case r.Body == nil || r.Body == http.NoBody:
		fields = fields.Set(headerlist.List{{Name: "Content-Length", Value: "0"}})
	default:
		fields = fields.Without("content-length")
	}

	return Head{
		Method:  r.Method,
		Path:    path,
		Version: versionOf(r.ProtoMajor, r.ProtoMinor),
		Header:  fields,
	}
}

// HeadFromResponse describes r for encoding. Responses with a status that
// doesn't allow a body declare an empty one.
func HeadFromResponse(r *http.Response) Head {
	fields := headerlist.FromMap(r.Header)
	switch {
	case !BodyAllowedForStatus(r.StatusCode):
		fields = fields.Set(headerlist.List{{Name: "Content-Length", Value: "0"}})
	case r.ContentLength >= 0:
		fields = fields.Set(headerlist.List{{Name: "Content-Length", Value: strconv.FormatInt(r.ContentLength, 10)}})
	default:
		fields = fields.Without("content-length")
	}

	head := Head{
		StatusCode: r.StatusCode,
		Version:    versionOf(r.ProtoMajor, r.ProtoMinor),
		Header:     fields,
	}
	if _, text, ok := strings.Cut(r.Status, " "); ok && text != "" {
		head.StatusText = text
	}
	return head
}

// WriteMessage encodes head and copies body to w. A nil body writes an empty
// body.
func WriteMessage(w io.Writer, head Head, body io.Reader, opts ...EncoderOption) error {
	e, err := NewEmitter(head, opts...)
	if err != nil {
		return err
	}

	bw := NewBodyWriter(w, e)
	if body != nil {
		if _, err := io.Copy(bw, body); err != nil {
			return fmt.Errorf("failed to copy body: %w", err)
		}
	}
	return bw.Close()
}

func httpHeader(h *Header) http.Header {
	out := make(http.Header)
	if h == nil {
		return out
	}
	for _, f := range h.Raw().Without("content-length", "transfer-encoding") {
		out.Add(f.Name, f.Value)
	}
	return out
}

func protoVersion(v string) (int, int) {
	switch v {
	case "1.0":
		return 1, 0
	case "2":
		return 2, 0
	default:
		return 1, 1
	}
}

func versionOf(major, minor int) string {
	switch {
	case major == 2:
		return "2"
	case major == 1 && minor == 0:
		return "1.0"
	default:
		return "1.1"
	}
}

// BodyAllowedForStatus reports whether a response with the given status may
// carry a body.
func BodyAllowedForStatus(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent:
		return false
	case status == http.StatusNotModified:
		return false
	default:
	}
	return true
}

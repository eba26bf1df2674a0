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
	"testing"

	"github.com/openpcc/httpwire"
	"github.com/openpcc/httpwire/headerlist"
	"github.com/stretchr/testify/require"
)

func TestHeader(t *testing.T) {
	t.Run("ok, multiple values keep order", func(t *testing.T) {
		h := httpwire.NewHeader()
		require.NoError(t, h.Add("Accept", "text/html"))
		require.NoError(t, h.Add("Host", "example.com"))
		require.NoError(t, h.Add("accept", "application/json"))

		require.Equal(t, []string{"text/html", "application/json"}, h.Values("ACCEPT"))
		v, ok := h.Get("host")
		require.True(t, ok)
		require.Equal(t, "example.com", v)
		require.Equal(t, 3, h.Len())
		require.Equal(t, headerlist.List{
			{Name: "Accept", Value: "text/html"},
			{Name: "Host", Value: "example.com"},
			{Name: "accept", Value: "application/json"},
		}, h.Raw())
		require.Equal(t, []string{"Accept", "text/html", "Host", "example.com", "accept", "application/json"}, h.Flat())
	})

	t.Run("ok, content-length is an integer", func(t *testing.T) {
		h := httpwire.NewHeader()
		require.NoError(t, h.Add("Content-Length", "42"))

		n, ok := h.ContentLength()
		require.True(t, ok)
		require.Equal(t, int64(42), n)
		require.Equal(t, []string{"42"}, h.Values("content-length"))
		require.True(t, h.Has("CONTENT-LENGTH"))
	})

	t.Run("ok, missing field", func(t *testing.T) {
		h := httpwire.NewHeader()
		_, ok := h.Get("accept")
		require.False(t, ok)
		_, ok = h.ContentLength()
		require.False(t, ok)
		require.False(t, h.Has("content-length"))
	})

	t.Run("ok, clone is independent", func(t *testing.T) {
		h := httpwire.NewHeader()
		require.NoError(t, h.Add("Accept", "text/html"))

		c := h.Clone()
		require.NoError(t, c.Add("Accept", "text/plain"))
		require.Equal(t, []string{"text/html"}, h.Values("accept"))
		require.Equal(t, []string{"text/html", "text/plain"}, c.Values("accept"))
	})

	t.Run("fail, duplicate content-length", func(t *testing.T) {
		h := httpwire.NewHeader()
		require.NoError(t, h.Add("Content-Length", "5"))

		err := h.Add("content-length", "5")
		require.ErrorIs(t, err, httpwire.ErrDuplicateContentLength)
		require.Equal(t, 1, h.Len())
	})
}

func TestHeaderInvalidContentLength(t *testing.T) {
	tests := map[string]string{
		"empty":        "",
		"negative":     "-1",
		"leading zero": "01",
		"plus sign":    "+1",
		"not a number": "abc",
		"decimal":      "1.5",
		"overflow":     "99999999999999999999",
	}

	for name, value := range tests {
		t.Run(name, func(t *testing.T) {
			h := httpwire.NewHeader()
			err := h.Add("Content-Length", value)
			require.ErrorIs(t, err, httpwire.ErrInvalidContentLengthValue)
			require.Zero(t, h.Len())
		})
	}
}

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

package headerlist_test

import (
	"testing"

	"github.com/openpcc/httpwire/headerlist"
	"github.com/stretchr/testify/require"
)

func TestFromFlat(t *testing.T) {
	t.Run("ok, pairs", func(t *testing.T) {
		l, err := headerlist.FromFlat([]string{"Host", "example.com", "Accept", "*/*"})
		require.NoError(t, err)
		require.Equal(t, headerlist.List{
			{Name: "Host", Value: "example.com"},
			{Name: "Accept", Value: "*/*"},
		}, l)
		require.Equal(t, []string{"Host", "example.com", "Accept", "*/*"}, l.Flat())
	})

	t.Run("fail, odd length", func(t *testing.T) {
		_, err := headerlist.FromFlat([]string{"Host"})
		require.ErrorIs(t, err, headerlist.ErrOddFlatList)
	})
}

func TestFromMap(t *testing.T) {
	l := headerlist.FromMap(map[string][]string{
		"X-B": {"2", "3"},
		"X-A": {"1"},
	})
	require.Equal(t, headerlist.List{
		{Name: "X-A", Value: "1"},
		{Name: "X-B", Value: "2"},
		{Name: "X-B", Value: "3"},
	}, l)
}

func TestListLookup(t *testing.T) {
	l := headerlist.List{
		{Name: "Accept", Value: "text/html"},
		{Name: "Host", Value: "example.com"},
		{Name: "ACCEPT", Value: "application/json"},
	}

	tests := map[string]struct {
		name       string
		wantFirst  string
		wantOK     bool
		wantValues []string
	}{
		"exact case": {
			name:       "Accept",
			wantFirst:  "text/html",
			wantOK:     true,
			wantValues: []string{"text/html", "application/json"},
		},
		"lower case": {
			name:       "accept",
			wantFirst:  "text/html",
			wantOK:     true,
			wantValues: []string{"text/html", "application/json"},
		},
		"missing": {
			name: "content-type",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := l.Get(tc.name)
			require.Equal(t, tc.wantOK, ok)
			require.Equal(t, tc.wantFirst, got)
			require.Equal(t, tc.wantValues, l.Values(tc.name))
			require.Equal(t, tc.wantOK, l.Has(tc.name))
		})
	}
}

func TestListWithout(t *testing.T) {
	l := headerlist.List{
		{Name: "Content-Length", Value: "3"},
		{Name: "Host", Value: "example.com"},
		{Name: "transfer-encoding", Value: "chunked"},
	}

	got := l.Without("content-length", "Transfer-Encoding")
	require.Equal(t, headerlist.List{{Name: "Host", Value: "example.com"}}, got)
	require.Len(t, l, 3)
}

func TestListSet(t *testing.T) {
	l := headerlist.List{
		{Name: "Accept", Value: "text/html"},
		{Name: "Host", Value: "a.example"},
		{Name: "accept", Value: "text/plain"},
	}

	got := l.Set(headerlist.List{
		{Name: "ACCEPT", Value: "application/json"},
		{Name: "X-Trace", Value: "1"},
	})
	require.Equal(t, headerlist.List{
		{Name: "Host", Value: "a.example"},
		{Name: "ACCEPT", Value: "application/json"},
		{Name: "X-Trace", Value: "1"},
	}, got)
}

func TestListMap(t *testing.T) {
	l := headerlist.List{
		{Name: "Accept", Value: "text/html"},
		{Name: "ACCEPT", Value: "text/plain"},
		{Name: "Host", Value: "example.com"},
	}
	require.Equal(t, map[string][]string{
		"accept": {"text/html", "text/plain"},
		"host":   {"example.com"},
	}, l.Map())
}

func TestListClone(t *testing.T) {
	var empty headerlist.List
	require.Nil(t, empty.Clone())

	l := headerlist.List{{Name: "Host", Value: "example.com"}}
	c := l.Clone()
	c[0].Value = "other.example"
	require.Equal(t, "example.com", l[0].Value)
}

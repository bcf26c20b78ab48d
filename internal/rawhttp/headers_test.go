package rawhttp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawbytes/go-rawhttp/internal/rawhttp"
)

func TestPairFlatRoundTrip(t *testing.T) {
	cases := map[string]rawhttp.RawHeaders{
		"Empty": nil,
		"Single": {
			{"Host", "example.com"},
		},
		"DuplicateKeys": {
			{"X-A", "1"},
			{"X-A", "2"},
			{"X-A", "1"},
		},
		"EmptyValues": {
			{"X-Empty", ""},
			{"", "orphan value"},
		},
		"MixedCase": {
			{"content-length", "0"},
			{"Content-Length", "0"},
			{"CONTENT-length", "0"},
		},
		"OrderSignificant": {
			{"b", "2"},
			{"a", "1"},
			{"c", "3"},
		},
	}
	for name, h := range cases {
		h := h
		t.Run(name, func(t *testing.T) {
			require.Equal(t, h, rawhttp.PairFlat(h.Flatten()))
		})
	}
}

func TestPairFlat(t *testing.T) {
	h := rawhttp.PairFlat([]string{"Host", "example.com", "host", "other"})
	require.Equal(t, rawhttp.RawHeaders{
		{"Host", "example.com"},
		{"host", "other"},
	}, h)
}

func TestPairFlatOddLength(t *testing.T) {
	// odd input is a caller contract violation; the trailing key is kept
	// with an empty value rather than dropped
	h := rawhttp.PairFlat([]string{"a", "1", "b"})
	require.Equal(t, rawhttp.RawHeaders{{"a", "1"}, {"b", ""}}, h)
}

func TestFlatten(t *testing.T) {
	h := rawhttp.RawHeaders{{"X-A", "1"}, {"X-A", "2"}}
	require.Equal(t, []string{"X-A", "1", "X-A", "2"}, h.Flatten())
	assert.Nil(t, rawhttp.RawHeaders(nil).Flatten())
}

func TestGet(t *testing.T) {
	h := rawhttp.RawHeaders{
		{"Content-Length", "10"},
		{"content-length", "20"},
		{"X-Empty", ""},
	}
	v, ok := h.Get("CONTENT-LENGTH")
	require.True(t, ok)
	assert.Equal(t, "10", v) // first match wins

	v, ok = h.Get("x-empty")
	require.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = h.Get("missing")
	assert.False(t, ok)

	assert.Equal(t, []string{"10", "20"}, h.Values("Content-Length"))
}

func TestClone(t *testing.T) {
	h := rawhttp.RawHeaders{{"X-A", "1"}}
	c := h.Clone()
	c[0][1] = "2"
	assert.Equal(t, "1", h[0][1])
	assert.Nil(t, rawhttp.RawHeaders(nil).Clone())
}

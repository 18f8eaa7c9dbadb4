package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sufscan/receipt-processor/internal/common"
)

func TestCanonicalURLAccepts(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"plain verification url",
			"https://suf.purs.gov.rs/v/?vl=AzJWNEY3Qk",
			"https://suf.purs.gov.rs/v/?vl=AzJWNEY3Qk",
		},
		{
			"uppercase scheme and host lowered",
			"HTTPS://SUF.PURS.GOV.RS/v/?vl=abc",
			"https://suf.purs.gov.rs/v/?vl=abc",
		},
		{
			"query parameters sorted",
			"https://suf.purs.gov.rs/v/?z=1&vl=abc&a=2",
			"https://suf.purs.gov.rs/v/?a=2&vl=abc&z=1",
		},
		{
			"fragment stripped",
			"https://suf.purs.gov.rs/v/?vl=abc#top",
			"https://suf.purs.gov.rs/v/?vl=abc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CanonicalURL(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalURLRejects(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"empty", ""},
		{"whitespace only", "   "},
		{"http scheme", "http://suf.purs.gov.rs/v/?vl=abc"},
		{"ftp scheme", "ftp://suf.purs.gov.rs/v/?vl=abc"},
		{"wrong host", "https://example.com/v/?vl=abc"},
		{"lookalike host", "https://suf.purs.gov.rs.evil.com/v/?vl=abc"},
		{"subdomain of authorized host", "https://www.suf.purs.gov.rs/v/?vl=abc"},
		{"missing vl param", "https://suf.purs.gov.rs/v/"},
		{"empty vl param", "https://suf.purs.gov.rs/v/?vl="},
		{"blank vl param", "https://suf.purs.gov.rs/v/?vl=%20"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CanonicalURL(tt.in)
			require.Error(t, err)
			assert.Equal(t, common.KindInvalidURL, common.KindOf(err))
		})
	}
}

func TestCanonicalURLDeterministic(t *testing.T) {
	in := "https://suf.purs.gov.rs/v/?b=2&vl=xyz&a=1"
	first, err := CanonicalURL(in)
	require.NoError(t, err)
	second, err := CanonicalURL(first)
	require.NoError(t, err)
	assert.Equal(t, first, second, "canonical form must be a fixed point")
}

package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMaskEmail(t *testing.T) {
	cases := map[string]string{
		"":                "***",
		"ab":              "***",
		"ann@example.com": "an***@example.com",
		"a@x.com":         "a@***",
		"noatsign":        "no***",
	}
	for in, want := range cases {
		require.Equal(t, want, MaskEmail(in), "input %q", in)
	}
}

func TestFromFallsBackToProcessLogger(t *testing.T) {
	require.Same(t, L(), From(t.Context()))
}

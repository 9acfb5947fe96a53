package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Python":              "python",
		"  PyThOn  ":          "python",
		"Machine\t\nLearning": "machine learning",
		"Data Science":        "data science",
		"Café":                "cafe",
		"ＰＹＴＨＯＮ":              "python",
		"C#":                  "c#",
		"C++":                 "c++",
		".NET":                ".net",
		"":                    "",
		"   ":                 "",
	}
	for in, want := range cases {
		require.Equal(t, want, NormalizeName(in), "input %q", in)
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	for _, in := range []string{"  Ångström  Units ", "Node.JS", "PostgreSQL 15", "c#"} {
		once := NormalizeName(in)
		require.Equal(t, once, NormalizeName(once))
	}
}

func TestNormalizeNameKeepsPunctuationDistinct(t *testing.T) {
	require.NotEqual(t, NormalizeName("C#"), NormalizeName("C++"))
	require.NotEqual(t, NormalizeName("C"), NormalizeName("C#"))
}

func TestSplitTokens(t *testing.T) {
	require.Equal(t, []string{"Python", "SQL", "Go"}, SplitTokens("Python, SQL; Go", ",;"))
	require.Equal(t, []string{"a", "b"}, SplitTokens(" a ,, ; b ;", ",;"))
	require.Nil(t, SplitTokens("  ", ",;"))
}

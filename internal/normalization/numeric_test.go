package normalization

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	cases := map[string]string{
		"3":         "3",
		"3.5":       "3.5",
		" 4 yrs ":   "4",
		"2 years":   "2",
		"5+":        "5",
		"1,5":       "1.5",
		"1,200.25":  "1200.25",
		"10y":       "10",
		"0":         "0",
		"2.50 Year": "2.5",
	}
	for in, want := range cases {
		got, err := ParseDecimal(in)
		require.NoError(t, err, in)
		require.True(t, got.Valid, in)
		require.Equal(t, want, got.Decimal.String(), in)
	}
}

func TestParseDecimalNullAndErrors(t *testing.T) {
	for _, in := range []string{"", "  ", "n/a", "N/A", "-", "none"} {
		got, err := ParseDecimal(in)
		require.NoError(t, err, in)
		require.False(t, got.Valid, in)
	}
	for _, in := range []string{"abc", "-3", "yrs"} {
		_, err := ParseDecimal(in)
		require.Error(t, err, in)
	}
}

func TestParseInt(t *testing.T) {
	n, err := ParseInt("3.0")
	require.NoError(t, err)
	require.Equal(t, 3, *n)

	n, err = ParseInt("")
	require.NoError(t, err)
	require.Nil(t, n)

	_, err = ParseInt("3.2")
	require.Error(t, err)
}

func TestParseBool(t *testing.T) {
	v, ok, err := ParseBool("Yes")
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, v)

	v, ok, err = ParseBool("n")
	require.NoError(t, err)
	require.True(t, ok)
	require.False(t, v)

	_, ok, err = ParseBool("")
	require.NoError(t, err)
	require.False(t, ok)

	_, _, err = ParseBool("maybe")
	require.Error(t, err)
}

func TestProficiencyLevel(t *testing.T) {
	cases := map[string]int{
		"Beginner":      1,
		"novice":        1,
		"Intermediate":  2,
		"ADVANCED":      3,
		"Expert":        4,
		"3":             3,
		"0":             0,
		"4.0":           4,
		"Advanced user": 3,
	}
	for in, want := range cases {
		got, ok := ProficiencyLevel(in)
		require.True(t, ok, in)
		require.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "guru", "9", "2.5", "n/a"} {
		_, ok := ProficiencyLevel(in)
		require.False(t, ok, in)
	}
}

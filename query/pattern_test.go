package query

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseExact(t *testing.T) {
	q := Parse("name=photo.jpg")
	require.Equal(t, Pattern{Shape: Exact, Literal: "name"}, q.Key)
	require.Equal(t, Pattern{Shape: Exact, Literal: "photo.jpg"}, q.Value)
}

func TestParseWildcardValueByDefault(t *testing.T) {
	q := Parse("name")
	require.Equal(t, Pattern{Shape: Exact, Literal: "name"}, q.Key)
	require.Equal(t, Pattern{Shape: Wildcard}, q.Value)
}

func TestParseEmptyValueIsExactEmpty(t *testing.T) {
	q := Parse("name=")
	require.Equal(t, Pattern{Shape: Exact, Literal: ""}, q.Value)
}

func TestParseKeyShapes(t *testing.T) {
	cases := []struct {
		raw  string
		want Pattern
	}{
		{"*=v", Pattern{Shape: Wildcard}},
		{"na*=v", Pattern{Shape: Prefix, Literal: "na"}},
		{"*me=v", Pattern{Shape: Suffix, Literal: "me"}},
		{"*am*=v", Pattern{Shape: Infix, Literal: "am"}},
		{"name=v", Pattern{Shape: Exact, Literal: "name"}},
	}
	for _, c := range cases {
		q := Parse(c.raw)
		require.Equal(t, c.want, q.Key, "raw=%q", c.raw)
	}
}

func TestParseSingleStarIsWildcardNotInfix(t *testing.T) {
	q := Parse("*=*")
	require.Equal(t, Pattern{Shape: Wildcard}, q.Key)
	require.Equal(t, Pattern{Shape: Wildcard}, q.Value)
}

func TestParseTwoStarsWithNoLiteralStaysPrefixSuffix(t *testing.T) {
	// len("**") == 2, so the infix branch's len(s) >= 3 guard doesn't
	// apply; the leading-* branch wins and the literal is "*".
	q := Parse("**=v")
	require.Equal(t, Pattern{Shape: Suffix, Literal: "*"}, q.Key)
}

func TestStringRoundTrip(t *testing.T) {
	cases := []string{"name=photo.jpg", "na*=v", "*me=v", "*am*=v", "*=*"}
	for _, raw := range cases {
		require.Equal(t, raw, Parse(raw).String(), "raw=%q", raw)
	}
}

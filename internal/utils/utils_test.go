package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringToInt(t *testing.T) {
	assert.Equal(t, 5, StringToInt("5", 10))
	assert.Equal(t, 10, StringToInt("", 10))
	assert.Equal(t, 10, StringToInt("abc", 10))
	assert.Equal(t, -3, StringToInt("-3", 0))
}

func TestStringToID(t *testing.T) {
	id, ok := StringToID("42")
	assert.True(t, ok)
	assert.Equal(t, uint(42), id)

	for _, s := range []string{"", "0", "-1", "x", "1.5"} {
		_, ok := StringToID(s)
		assert.False(t, ok, s)
	}
}

func TestSanitizeText(t *testing.T) {
	cases := map[string]string{
		"plain text":                         "plain text",
		"<b>bold</b> move":                   "bold move",
		"<script>alert(1)</script>kept":      "kept",
		"rating 5 < 7 & \"quotes\" it's fine": "rating 5 < 7 & \"quotes\" it's fine",
		"  padded  ":                         "padded",
	}
	for in, want := range cases {
		assert.Equal(t, want, SanitizeText(in), in)
	}
}

func TestSanitizeTextEncodedMarkup(t *testing.T) {
	inputs := []string{
		"&lt;script&gt;alert(1)&lt;/script&gt;",
		"&amp;lt;script&amp;gt;alert(1)&amp;lt;/script&amp;gt;",
		"&#60;img src=x onerror=alert(1)&#62;",
		"<<b>script>alert(1)<</b>/script>",
		"&lt;b&gt;bold&lt;/b&gt; move",
	}
	for _, in := range inputs {
		out := SanitizeText(in)
		assert.NotContains(t, out, "<script", in)
		assert.NotContains(t, out, "<img", in)
		assert.NotContains(t, out, "<b>", in)
		// The stored value is stable: sanitizing it again changes nothing.
		assert.Equal(t, out, SanitizeText(out), in)
	}
	assert.Equal(t, "bold move", SanitizeText("&lt;b&gt;bold&lt;/b&gt; move"))
}

func TestRenderMarkdown(t *testing.T) {
	out, err := RenderMarkdown("Your code: **abc**\n\n<script>x()</script>")
	require.NoError(t, err)
	assert.Contains(t, out, "<strong>abc</strong>")
	assert.NotContains(t, out, "<script>")
}

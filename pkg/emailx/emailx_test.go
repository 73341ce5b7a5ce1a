package emailx_test

import (
	"strings"
	"testing"

	"github.com/aussiebroadwan/signup/pkg/emailx"
	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	valid := []string{
		"good@x.com",
		"first.last@example.co.uk",
		"user+tag@example.com",
		"o'brien@example.ie",
		"jürgen@example.de",
		"jürgen@müller.de",
		"用户@例子.广告",
		"UPPER@EXAMPLE.COM",
		"a@b.io",
		strings.Repeat("a", 64) + "@example.com",
		"user@" + strings.Repeat("a", 63) + ".com",
	}
	for _, addr := range valid {
		require.True(t, emailx.IsValid(addr), "expected %q to be valid", addr)
	}

	invalid := []string{
		"",
		"bad@@x",
		"@example.com",
		"user@",
		"user",
		"user@localhost",
		"user@example..com",
		"user@.example.com",
		"user@example.com.",
		"user@-example.com",
		"user@example-.com",
		"user@exa_mple.com",
		"user@example.123",
		".user@example.com",
		"user.@example.com",
		"us..er@example.com",
		"us er@example.com",
		"user@exa mple.com",
		"a\"b@example.com",
		"user(comment)@example.com",
		strings.Repeat("a", 65) + "@example.com",
		strings.Repeat("ü", 33) + "@example.com",
		"user@" + strings.Repeat("a", 64) + ".com",
		"user@" + strings.Repeat("abcdefghi.", 26) + "com",
	}
	for _, addr := range invalid {
		require.False(t, emailx.IsValid(addr), "expected %q to be invalid", addr)
	}
}

func TestSplitList(t *testing.T) {
	t.Run("commas and whitespace", func(t *testing.T) {
		got := emailx.SplitList("a@x.com, b@x.com\nc@x.com\t d@x.com,,e@x.com ")
		require.Equal(t, []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com", "e@x.com"}, got)
	})

	t.Run("semicolons are not separators", func(t *testing.T) {
		got := emailx.SplitList("a@x.com;b@x.com")
		require.Equal(t, []string{"a@x.com;b@x.com"}, got)

		_, found := emailx.FirstInvalid(got)
		require.True(t, found)
	})

	t.Run("empty input", func(t *testing.T) {
		require.Empty(t, emailx.SplitList("  ,\n , "))
	})
}

func TestFirstInvalid(t *testing.T) {
	t.Run("names the first failure", func(t *testing.T) {
		addrs := emailx.SplitList("good@x.com, bad@@x, also@y.com, @worse")
		bad, found := emailx.FirstInvalid(addrs)
		require.True(t, found)
		require.Equal(t, "bad@@x", bad)
	})

	t.Run("all valid", func(t *testing.T) {
		bad, found := emailx.FirstInvalid([]string{"good@x.com", "also@y.com"})
		require.False(t, found)
		require.Empty(t, bad)
	})
}

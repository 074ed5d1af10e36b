package tester

import "testing"

func TestPrefix(t *testing.T) {
	Eq(t, prefix(nil), "")
	Eq(t, prefix([]any{"case %d", 3}), "case 3: ")
	Eq(t, prefix([]any{42}), "42: ")
}

func TestPassingHelpers(t *testing.T) {
	Eq(t, []string{"a"}, []string{"a"})
	True(t, true)
	False(t, false)
	NoErr(t, nil)
	Digest(t, "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef")
}

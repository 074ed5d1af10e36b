// Package tester holds small assertion helpers shared by oasis tests that
// do not pull in testify.
package tester

import (
	"fmt"
	"reflect"
	"testing"
)

// Eq fails unless got and want are deeply equal.
func Eq[T any](t *testing.T, got, want T, msgAndArgs ...any) {
	t.Helper()
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("%sgot=%#v want=%#v", prefix(msgAndArgs), got, want)
	}
}

// True fails unless cond holds.
func True(t *testing.T, cond bool, msgAndArgs ...any) {
	t.Helper()
	if !cond {
		t.Fatalf("%sexpected true", prefix(msgAndArgs))
	}
}

// False fails if cond holds.
func False(t *testing.T, cond bool, msgAndArgs ...any) {
	t.Helper()
	if cond {
		t.Fatalf("%sexpected false", prefix(msgAndArgs))
	}
}

// NoErr fails on a non-nil err.
func NoErr(t *testing.T, err error, msgAndArgs ...any) {
	t.Helper()
	if err != nil {
		t.Fatalf("%sunexpected error: %v", prefix(msgAndArgs), err)
	}
}

// Digest fails unless d looks like a design digest: 64 lowercase hex
// characters.
func Digest(t *testing.T, d string, msgAndArgs ...any) {
	t.Helper()
	if len(d) != 64 {
		t.Fatalf("%sdigest %q: want 64 chars, got %d", prefix(msgAndArgs), d, len(d))
	}
	for _, c := range d {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			t.Fatalf("%sdigest %q: %q is not lowercase hex", prefix(msgAndArgs), d, c)
		}
	}
}

// prefix renders msgAndArgs as "msg: ". A leading string is used as a format
// for the remaining arguments.
func prefix(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return ""
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...) + ": "
	}
	return fmt.Sprint(msgAndArgs...) + ": "
}

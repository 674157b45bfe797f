package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrimLeading(t *testing.T) {
	assert.Equal(t, "a  b ", TrimLeading("  \ta  b "))
	assert.Equal(t, "", TrimLeading("   "))
}

func TestCollapseSpaces(t *testing.T) {
	cases := map[string]string{
		"":                "",
		"   ":             "",
		"abc":             "abc",
		"  left   =  3 ":  "left = 3",
		"a\tnot  in\n  b": "a not in b",
		" Li8 (n,g) Li9 ": "Li8 (n,g) Li9",
	}
	for in, want := range cases {
		assert.Equal(t, want, CollapseSpaces(in), "input %q", in)
	}
}

func TestStripAll(t *testing.T) {
	assert.Equal(t, "[1,2,3]", StripAll(" [1, 2,\t3] "))
	assert.Equal(t, "abc", StripAll("abc"))
}

func TestTrimTrailingSpaces(t *testing.T) {
	assert.Equal(t, "1 2 &", TrimTrailingSpaces("1 2 &  "))
	assert.Equal(t, "x\t", TrimTrailingSpaces("x\t "))
}

func TestBuilderPool(t *testing.T) {
	b := GetBuilder(Small)
	b.WriteString("ab")
	_ = b.WriteByte('c')
	b.WriteRune('é')
	assert.Equal(t, "abcé", b.String())
	assert.Equal(t, 5, b.Len())
	PutBuilder(b, Small)

	again := GetBuilder(Small)
	assert.Equal(t, 0, again.Len())
	PutBuilder(again, Small)
}

func TestSprintf(t *testing.T) {
	assert.Equal(t, "plain", Sprintf("plain"))
	assert.Equal(t, "read: line 3", Sprintf("%s: line %d", "read", 3))
}

// Package strings provides the whitespace utilities shared by the structure
// compiler, the reader and the condition engine, plus pooled builders used
// when rendering output lines and error messages.
package strings

import (
	"fmt"
	"strings"
	"sync"
	"unicode"
)

// TrimLeading removes leading whitespace only.
func TrimLeading(s string) string {
	return strings.TrimLeftFunc(s, unicode.IsSpace)
}

// CollapseSpaces trims both ends and collapses every internal run of
// whitespace to a single space.
func CollapseSpaces(s string) string {
	fields := strings.Fields(s)
	switch len(fields) {
	case 0:
		return ""
	case 1:
		return fields[0]
	}
	return strings.Join(fields, " ")
}

// StripAll removes every whitespace character.
func StripAll(s string) string {
	if strings.IndexFunc(s, unicode.IsSpace) < 0 {
		return s
	}
	b := GetBuilder(Small)
	defer PutBuilder(b, Small)
	for _, r := range s {
		if !unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// TrimTrailingSpaces removes trailing blanks without touching other
// trailing characters.
func TrimTrailingSpaces(s string) string {
	return strings.TrimRight(s, " ")
}

// Builder is a reusable byte buffer for building lines.
type Builder struct {
	buf []byte
}

// NewBuilder creates a new builder with the given capacity.
func NewBuilder(capacity int) *Builder {
	return &Builder{buf: make([]byte, 0, capacity)}
}

// WriteString appends a string to the builder
func (b *Builder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// WriteByte appends a single byte
func (b *Builder) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// WriteRune appends the UTF-8 encoding of r
func (b *Builder) WriteRune(r rune) {
	b.buf = append(b.buf, string(r)...)
}

// Write implements io.Writer
func (b *Builder) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// String returns a copy of the built string.
func (b *Builder) String() string {
	return string(b.buf)
}

// Bytes returns the underlying byte slice
func (b *Builder) Bytes() []byte {
	return b.buf
}

// Len returns the number of buffered bytes
func (b *Builder) Len() int {
	return len(b.buf)
}

// Reset resets the builder for reuse
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

// BuilderSize selects one of the builder pools.
type BuilderSize int

const (
	// Small builders hold a line or a short message
	Small BuilderSize = iota
	// Medium builders hold a record
	Medium
	// Large builders hold a flush chunk
	Large
)

var builderPools = [...]sync.Pool{
	Small:  {New: func() interface{} { return NewBuilder(256) }},
	Medium: {New: func() interface{} { return NewBuilder(4 * 1024) }},
	Large:  {New: func() interface{} { return NewBuilder(64 * 1024) }},
}

// GetBuilder retrieves a reset builder from the pool for size.
func GetBuilder(size BuilderSize) *Builder {
	b := builderPools[size].Get().(*Builder)
	b.Reset()
	return b
}

// PutBuilder returns a builder to its pool. Oversized buffers are dropped.
func PutBuilder(b *Builder, size BuilderSize) {
	if cap(b.buf) > 1<<20 {
		return
	}
	builderPools[size].Put(b)
}

// Sprintf formats through a pooled builder.
func Sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}
	size := Small
	if len(format)+len(args)*16 > 1024 {
		size = Medium
	}
	b := GetBuilder(size)
	defer PutBuilder(b, size)
	fmt.Fprintf(b, format, args...)
	return b.String()
}

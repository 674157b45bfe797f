// Package errors provides examples of structured error handling in tabula.
package errors_test

import (
	"fmt"
	"io"

	"github.com/ajitpratap0/tabula/pkg/errors"
)

// Example demonstrates basic error creation with context details.
func Example() {
	err := errors.New(errors.ErrorTypeRead, "START marker not found").
		WithDetail("marker", "#data").
		WithDetail("path", "rates.dat")

	fmt.Println(err.Error())
	marker, _ := err.Detail("marker")
	fmt.Println(marker)

	// Output:
	// read: START marker not found
	// #data
}

// ExampleWrap shows how to wrap existing errors with context.
func ExampleWrap() {
	err := errors.Wrap(io.ErrUnexpectedEOF, errors.ErrorTypeFile, "failed to read data file").
		WithDetail("path", "rates.dat.gz")

	if errors.IsType(err, errors.ErrorTypeFile) {
		fmt.Println("This is a file error")
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		fmt.Println("Cause is preserved")
	}

	// Output:
	// This is a file error
	// Cause is preserved
}

// ExampleTypeOf demonstrates classifying errors returned by the library.
func ExampleTypeOf() {
	filterErr := errors.Newf(errors.ErrorTypeFilter, "unknown column %q", "mass")
	fmt.Println(errors.TypeOf(filterErr))
	fmt.Println(errors.TypeOf(io.EOF))

	// Output:
	// filter
	// internal
}

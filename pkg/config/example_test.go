package config_test

import (
	"fmt"
	"log"

	"github.com/ajitpratap0/tabula/pkg/config"
)

// ExampleNewConfig demonstrates the defaults shared with the writer.
func ExampleNewConfig() {
	cfg := config.NewConfig("rates")

	fmt.Printf("Empty char: %s\n", cfg.Write.EmptyChar)
	fmt.Printf("Max decimal: %d\n", cfg.Write.MaxDecimal)
	fmt.Printf("Scientific: %v\n", cfg.Write.Scientific)
	fmt.Printf("Flush every: %d\n", cfg.Write.FlushEvery)

	// Output:
	// Empty char: &
	// Max decimal: 3
	// Scientific: true
	// Flush every: 100
}

// ExampleConfig_Validate shows how to validate a configuration
// before using it.
func ExampleConfig_Validate() {
	cfg := config.NewConfig("rates")
	cfg.Write.MaxDecimal = 6
	cfg.Read.IgnoreLines = []int{0, 1}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	fmt.Println("Configuration is valid!")

	cfg.Write.FlushEvery = 0
	fmt.Println(cfg.Validate())

	// Output:
	// Configuration is valid!
	// write.flush_every must be positive
}

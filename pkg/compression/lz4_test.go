package compression

import (
	"bytes"
	"strings"
	"testing"
)

func TestLZ4Compressor(t *testing.T) {
	compressor, err := NewCompressor(&Config{Algorithm: LZ4, Level: Default})
	if err != nil {
		t.Fatalf("Failed to create LZ4 compressor: %v", err)
	}

	original := []byte(strings.Repeat("T9 1.000E-01 2.500E+03\n", 64))

	compressed, err := compressor.Compress(original)
	if err != nil {
		t.Fatalf("Failed to compress: %v", err)
	}

	decompressed, err := compressor.Decompress(compressed)
	if err != nil {
		t.Fatalf("Failed to decompress: %v", err)
	}

	if !bytes.Equal(original, decompressed) {
		t.Errorf("Decompressed data doesn't match original.\nOriginal: %s\nDecompressed: %s",
			string(original), string(decompressed))
	}

	if len(compressed) >= len(original) {
		t.Errorf("Compressed size (%d) is not smaller than original (%d)",
			len(compressed), len(original))
	}
}

func TestLZ4CompressionLevels(t *testing.T) {
	levels := []Level{Fastest, Default, Better, Best}
	original := []byte(strings.Repeat("Li8 (n,g) Li9 ", 200))

	for _, level := range levels {
		t.Run(string(rune('0'+level)), func(t *testing.T) {
			compressor, err := NewCompressor(&Config{Algorithm: LZ4, Level: level})
			if err != nil {
				t.Fatalf("Failed to create compressor: %v", err)
			}
			compressed, err := compressor.Compress(original)
			if err != nil {
				t.Fatalf("Failed to compress: %v", err)
			}
			decompressed, err := compressor.Decompress(compressed)
			if err != nil {
				t.Fatalf("Failed to decompress: %v", err)
			}
			if !bytes.Equal(original, decompressed) {
				t.Errorf("round trip mismatch at level %d", level)
			}
		})
	}
}

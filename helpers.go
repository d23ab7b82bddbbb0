package compressio

import (
	"bytes"
	"io"

	"github.com/cockroachdb/errors"
)

// Preset configurations. Each one sets DefaultCompression, so paths without
// a recognized extension and bare streams use the preset method.

// FastestConfig favors speed: lz4 at its default level.
func FastestConfig() *Config {
	cfg := DefaultConfig()
	cfg.DefaultCompression = "lz4"
	return cfg
}

// RecommendedConfig returns the recommended configuration for general use.
// Zstd level 3 gives a good ratio at good speed.
func RecommendedConfig() *Config {
	cfg := DefaultConfig()
	cfg.DefaultCompression = "zstd"
	cfg.Level = 3
	return cfg
}

// BestCompressionConfig favors ratio over speed: brotli level 11.
// Use for write-once/read-many data.
func BestCompressionConfig() *Config {
	cfg := DefaultConfig()
	cfg.DefaultCompression = "brotli"
	cfg.Level = 11
	return cfg
}

// CompatibleConfig uses gzip for maximum compatibility
func CompatibleConfig() *Config {
	cfg := DefaultConfig()
	cfg.DefaultCompression = "gzip"
	cfg.Level = 6
	return cfg
}

// LowCPUConfig uses snappy, which has no levels.
func LowCPUConfig() *Config {
	cfg := DefaultConfig()
	cfg.DefaultCompression = "snappy"
	return cfg
}

// CompressBytes compresses data with the named method from the package
// registry.
func CompressBytes(data []byte, method string, level int) ([]byte, error) {
	return compressBytes(defaultCompressions, data, method, level)
}

func compressBytes(reg *CompressionRegistry, data []byte, method string, level int) ([]byte, error) {
	d, err := reg.Resolve(method)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	c, err := d.Open(StreamTarget(&buf), ModeWrite, CompresserOptions{Level: level})
	if err != nil {
		return nil, err
	}
	if _, err := c.Stream().Write(data); err != nil {
		err = classify(ErrResource, "write", d.Name, ModeWrite, err)
		return nil, errors.CombineErrors(err, c.Close())
	}
	if err := c.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecompressBytes reverses CompressBytes.
func DecompressBytes(data []byte, method string) ([]byte, error) {
	return decompressBytes(defaultCompressions, data, method)
}

func decompressBytes(reg *CompressionRegistry, data []byte, method string) (out []byte, err error) {
	d, err := reg.Resolve(method)
	if err != nil {
		return nil, err
	}
	c, err := d.Open(StreamTarget(bytes.NewReader(data)), ModeRead, CompresserOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := c.Close(); cerr != nil {
			err = errors.CombineErrors(err, cerr)
			out = nil
		}
	}()

	out, err = io.ReadAll(c.Stream())
	if err != nil {
		return nil, classify(ErrDeserialization, "read", d.Name, ModeRead, err)
	}
	return out, nil
}

// GetCompressionRatio calculates the compression ratio for given original and compressed sizes
// Returns a value between 0 and 1, where lower is better
// E.g., 0.5 means the compressed size is 50% of the original
func GetCompressionRatio(originalSize, compressedSize int64) float64 {
	if originalSize == 0 {
		return 0
	}
	return float64(compressedSize) / float64(originalSize)
}

// GetCompressionPercentage returns the percentage of space saved (0-100).
func GetCompressionPercentage(originalSize, compressedSize int64) float64 {
	if originalSize == 0 {
		return 0
	}
	return (1 - float64(compressedSize)/float64(originalSize)) * 100
}

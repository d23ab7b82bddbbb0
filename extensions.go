package compressio

import (
	"bytes"
	"path/filepath"
	"slices"
)

// InferCompression returns the method claiming the final suffix of path.
// Matching is case-sensitive.
func (r *CompressionRegistry) InferCompression(path string) (string, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.extensions[ext]
	return name, ok
}

// NormalizePath appends the canonical extension of method to path unless
// path already ends in one of the method's extensions. Methods without
// extensions leave path unchanged.
func (r *CompressionRegistry) NormalizePath(path, method string) (string, error) {
	d, err := r.Resolve(method)
	if err != nil {
		return "", err
	}
	if len(d.Extensions) == 0 || slices.Contains(d.Extensions, filepath.Ext(path)) {
		return path, nil
	}
	return path + d.CanonicalExtension(), nil
}

// CanonicalExtension returns the canonical extension of method.
func (r *CompressionRegistry) CanonicalExtension(method string) (string, error) {
	d, err := r.Resolve(method)
	if err != nil {
		return "", err
	}
	return d.CanonicalExtension(), nil
}

// DefaultExtensionMapping maps each method with extensions to its canonical
// extension.
func (r *CompressionRegistry) DefaultExtensionMapping() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := make(map[string]string, len(r.methods))
	for name, d := range r.methods {
		if ext := d.CanonicalExtension(); ext != "" {
			m[name] = ext
		}
	}
	return m
}

// Magic bytes of the built-in formats, longest first.
var magicBytes = []struct {
	method string
	magic  []byte
}{
	{"snappy", []byte{0xff, 0x06, 0x00, 0x00, 0x73, 0x4e, 0x61, 0x50}},
	{"lzma", []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}},
	{"zstd", []byte{0x28, 0xb5, 0x2f, 0xfd}},
	{"lz4", []byte{0x04, 0x22, 0x4d, 0x18}},
	{"zipfile", []byte{0x50, 0x4b, 0x03, 0x04}},
	{"bz2", []byte("BZh")},
	{"gzip", []byte{0x1f, 0x8b}},
}

// SniffCompression guesses the built-in method that produced data from its
// leading magic bytes. Brotli and uncompressed data have no signature.
func SniffCompression(data []byte) (string, bool) {
	for _, m := range magicBytes {
		if bytes.HasPrefix(data, m.magic) {
			return m.method, true
		}
	}
	return "", false
}

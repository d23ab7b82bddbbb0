// Package compressio persists Go values through a pluggable compression
// method and a pluggable serializer.
//
// A call resolves a compression method (explicit name, alias, or the
// extension of the target path), a serializer (explicit or the registry
// default, gob), and a byte-level mode, then opens a compresser over the
// target, streams the value through the serializer and closes the
// compresser even when encoding fails.
//
// # Quick Start
//
//	// Compression inferred from the extension.
//	err := compressio.Dump("scores.gz", map[string][]int{"a": {1, 2, 3}})
//
//	var scores map[string][]int
//	err = compressio.Load("scores.gz", &scores)
//
//	// In memory, with an explicit method and serializer.
//	data, err := compressio.Dumps(scores,
//	    compressio.WithCompression("zstd"),
//	    compressio.WithSerializer("json"))
//
// # Compression Methods
//
//   - none (pickle, raw): .pkl, .pickle
//   - gzip: .gz, .gzip
//   - bz2: .bz, .bz2
//   - lzma (xz): .lzma, .xz
//   - zipfile (zip): .zip, one named member per archive, no append
//   - lz4: .lz4, no append
//   - zstd: .zst, .zstd
//   - brotli: .br, no append
//   - snappy: .sz, .snappy
//
// # Serializers
//
//   - gob (default)
//   - json, json_fast
//   - cbor
//   - yaml (yml)
//   - proto (protobuf), values must be proto.Message
//
// # Ownership
//
// Paths are opened through the codec's absfs.Filer and closed by the
// compresser. Streams passed to DumpTo, LoadFrom or StreamTarget are never
// closed.
//
// # Errors
//
// Every error matches one of the Err* kinds with errors.Is and unwraps to
// an *OpError naming the operation, method, extension and mode.
package compressio

package compressio

import (
	"bytes"
	"io"
	"sync/atomic"

	"go.uber.org/zap"
)

var (
	defaultCompressions = DefaultCompressionRegistry(nil)
	defaultSerializers  = DefaultSerializerRegistry(nil)
	defaultCodec        atomic.Pointer[Codec]
)

func init() {
	c, err := New(nil)
	if err != nil {
		panic(err)
	}
	defaultCodec.Store(c)
}

// Default returns the codec behind the package-level functions.
func Default() *Codec { return defaultCodec.Load() }

// SetDefault replaces the codec behind the package-level functions.
func SetDefault(c *Codec) {
	if c != nil {
		defaultCodec.Store(c)
	}
}

// SetLogger makes the package-level codec and registries log to l.
func SetLogger(l *zap.Logger) {
	defaultCompressions.SetLogger(l)
	defaultSerializers.SetLogger(l)
	defaultCodec.Store(Default().WithLogger(l))
}

// Dump writes v to path. The compression is inferred from the extension
// unless WithCompression is given.
func Dump(path string, v any, opts ...CallOption) error {
	return Default().CompressAndSerialize(v, PathTarget(path), opts...)
}

// DumpTo writes v to w, which is left open. WithCompression is required
// unless the default codec has a DefaultCompression.
func DumpTo(w io.Writer, v any, opts ...CallOption) error {
	return Default().CompressAndSerialize(v, StreamTarget(w), opts...)
}

// Load reads the value stored at path into v.
func Load(path string, v any, opts ...CallOption) error {
	return Default().DecompressAndDeserialize(PathTarget(path), v, opts...)
}

// LoadFrom reads one value from r into v. r is left open.
func LoadFrom(r io.Reader, v any, opts ...CallOption) error {
	return Default().DecompressAndDeserialize(StreamTarget(r), v, opts...)
}

// Dumps returns the compressed encoding of v.
func Dumps(v any, opts ...CallOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := DumpTo(&buf, v, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Loads decodes a value produced by Dumps into v.
func Loads(data []byte, v any, opts ...CallOption) error {
	return LoadFrom(bytes.NewReader(data), v, opts...)
}

// LoadAs reads the value stored at path as a T.
func LoadAs[T any](path string, opts ...CallOption) (T, error) {
	var v T
	err := Load(path, &v, opts...)
	return v, err
}

// RegisterCompression adds a method to the package registry.
func RegisterCompression(desc CompressionDescriptor, opts ...RegisterOption) error {
	return defaultCompressions.Register(desc, opts...)
}

// AddCompressionAlias adds an alias to the package compression registry.
func AddCompressionAlias(alias, target string) error {
	return defaultCompressions.AddAlias(alias, target)
}

// RegisterSerializer adds a serializer to the package registry.
func RegisterSerializer(desc SerializerDescriptor) error {
	return defaultSerializers.Register(desc)
}

// AddSerializerAlias adds an alias to the package serializer registry.
func AddSerializerAlias(alias, target string) error {
	return defaultSerializers.AddAlias(alias, target)
}

// SetDefaultSerializer changes the serializer used when none is named.
func SetDefaultSerializer(name string) error {
	return defaultSerializers.SetDefault(name)
}

// Compressions returns the package compression registry.
func Compressions() *CompressionRegistry { return defaultCompressions }

// Serializers returns the package serializer registry.
func Serializers() *SerializerRegistry { return defaultSerializers }

// InferCompression resolves path's extension against the package registry.
func InferCompression(path string) (string, bool) {
	return defaultCompressions.InferCompression(path)
}

// NormalizePath applies the package registry's extension rules to path.
func NormalizePath(path, method string) (string, error) {
	return defaultCompressions.NormalizePath(path, method)
}

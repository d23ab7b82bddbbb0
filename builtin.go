package compressio

// builtinCompressions are registered into every registry returned by
// DefaultCompressionRegistry.
func builtinCompressions() []CompressionDescriptor {
	filter := func(name string, exts []string, appendable bool, w WriterFunc, r ReaderFunc, levels ...int) CompressionDescriptor {
		d := CompressionDescriptor{
			Name:       name,
			Extensions: exts,
			WriteMode:  ModeWrite,
			ReadMode:   ModeRead,
			New:        NewFilterConstructor(name, w, r),
		}
		if appendable {
			d.AppendMode = ModeAppend
		}
		if len(levels) == 2 {
			d.MinLevel, d.MaxLevel = levels[0], levels[1]
		}
		return d
	}
	return []CompressionDescriptor{
		filter("none", []string{".pkl", ".pickle"}, true, nil, nil),
		filter("gzip", []string{".gz", ".gzip"}, true, newGzipWriter, newGzipReader, -3, 9),
		filter("bz2", []string{".bz", ".bz2"}, true, newBzip2Writer, newBzip2Reader, 1, 9),
		filter("lzma", []string{".lzma", ".xz"}, true, newXZWriter, newXZReader),
		{
			Name:       "zipfile",
			Extensions: []string{".zip"},
			WriteMode:  ModeWrite,
			ReadMode:   ModeRead,
			MinLevel:   -2,
			MaxLevel:   9,
			New:        newZipCompresser,
		},
		filter("lz4", []string{".lz4"}, false, newLZ4Writer, newLZ4Reader, 1, 9),
		filter("zstd", []string{".zst", ".zstd"}, true, newZstdWriter, newZstdReader, 1, 22),
		filter("brotli", []string{".br"}, false, newBrotliWriter, newBrotliReader, 1, 11),
		filter("snappy", []string{".sz", ".snappy"}, true, newSnappyWriter, newSnappyReader),
	}
}

var builtinCompressionAliases = map[string]string{
	"pickle": "none",
	"raw":    "none",
	"xz":     "lzma",
	"zip":    "zipfile",
}

func builtinSerializers() []SerializerDescriptor {
	return []SerializerDescriptor{
		{Name: "gob", New: newGobSerializer},
		{Name: "json", New: newJSONSerializer},
		{Name: "json_fast", New: newSonicSerializer},
		{Name: "cbor", New: newCBORSerializer},
		{Name: "yaml", New: newYAMLSerializer},
		{Name: "proto", New: newProtoSerializer},
	}
}

var builtinSerializerAliases = map[string]string{
	"yml":      "yaml",
	"protobuf": "proto",
}

// DefaultCompressionRegistry returns a new registry holding the built-in
// compression methods and aliases.
func DefaultCompressionRegistry(config *RegistryConfig) *CompressionRegistry {
	r := NewCompressionRegistry(config)
	for _, d := range builtinCompressions() {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	for alias, target := range builtinCompressionAliases {
		if err := r.AddAlias(alias, target); err != nil {
			panic(err)
		}
	}
	return r
}

// DefaultSerializerRegistry returns a new registry holding the built-in
// serializers. The default serializer is gob.
func DefaultSerializerRegistry(config *RegistryConfig) *SerializerRegistry {
	r := NewSerializerRegistry(config)
	for _, d := range builtinSerializers() {
		if err := r.Register(d); err != nil {
			panic(err)
		}
	}
	for alias, target := range builtinSerializerAliases {
		if err := r.AddAlias(alias, target); err != nil {
			panic(err)
		}
	}
	return r
}

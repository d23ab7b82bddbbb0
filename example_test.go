package compressio_test

import (
	"bytes"
	"fmt"
	"log"
	"slices"

	"github.com/absfs/compressio"
)

func Example_basic() {
	// An in-memory filesystem keeps the example self-contained.
	fsys := compressio.NewMemFS()
	codec, err := compressio.New(&compressio.Config{FileSystem: fsys})
	if err != nil {
		log.Fatal(err)
	}

	// The method is inferred from the extension.
	scores := map[string][]int{"a": {1, 2, 3}}
	if err := codec.CompressAndSerialize(scores, compressio.PathTarget("scores.gz")); err != nil {
		log.Fatal(err)
	}

	var loaded map[string][]int
	if err := codec.DecompressAndDeserialize(compressio.PathTarget("scores.gz"), &loaded); err != nil {
		log.Fatal(err)
	}
	fmt.Println(loaded["a"])
	// Output: [1 2 3]
}

func ExampleDumps() {
	data, err := compressio.Dumps("hello", compressio.WithCompression("bz2"))
	if err != nil {
		log.Fatal(err)
	}

	var s string
	if err := compressio.Loads(data, &s, compressio.WithCompression("bz2")); err != nil {
		log.Fatal(err)
	}
	fmt.Println(s)
	// Output: hello
}

func ExampleDumpTo() {
	var buf bytes.Buffer
	err := compressio.DumpTo(&buf, map[string]int{"b": 2, "a": 1},
		compressio.WithCompression("none"),
		compressio.WithSerializer("json"))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Print(buf.String())
	// Output: {"a":1,"b":2}
}

func ExampleNormalizePath() {
	for _, p := range []string{"data", "data.gz", "data.txt"} {
		out, err := compressio.NormalizePath(p, "gzip")
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(out)
	}
	// Output:
	// data.gz
	// data.gz
	// data.txt.gz
}

func ExampleCompressionRegistry_Methods() {
	reg := compressio.DefaultCompressionRegistry(nil)
	fmt.Println(slices.Collect(reg.Methods()))
	// Output: [none gzip bz2 lzma zipfile lz4 zstd brotli snappy]
}

func ExampleRecommendedConfig() {
	cfg := compressio.RecommendedConfig()
	cfg.FileSystem = compressio.NewMemFS()
	codec, err := compressio.New(cfg)
	if err != nil {
		log.Fatal(err)
	}

	// No known extension: the preset method is used and its extension added.
	if err := codec.CompressAndSerialize([]string{"x"}, compressio.PathTarget("blob")); err != nil {
		log.Fatal(err)
	}
	var out []string
	if err := codec.DecompressAndDeserialize(compressio.PathTarget("blob.zst"), &out); err != nil {
		log.Fatal(err)
	}
	fmt.Println(out, codec.Stats().MethodCounts["zstd"])
	// Output: [x] 2
}

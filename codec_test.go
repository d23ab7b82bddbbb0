package compressio

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func newTestCodec(t *testing.T) (*Codec, *MemFS) {
	t.Helper()
	fsys := NewMemFS()
	c, err := New(&Config{
		FileSystem:   fsys,
		Compressions: DefaultCompressionRegistry(nil),
		Serializers:  DefaultSerializerRegistry(nil),
	})
	require.NoError(t, err)
	return c, fsys
}

func TestCodecRoundTripAllPairs(t *testing.T) {
	c, _ := newTestCodec(t)
	want := map[string][]int{"a": {1, 2, 3}, "b": {4, 5}}

	for method := range c.config.Compressions.Methods() {
		for serializer := range c.config.Serializers.Methods() {
			if serializer == "proto" {
				continue
			}
			t.Run(method+"/"+serializer, func(t *testing.T) {
				opts := []CallOption{WithCompression(method), WithSerializer(serializer)}
				require.NoError(t, c.CompressAndSerialize(want, PathTarget("value"), opts...))

				var got map[string][]int
				require.NoError(t, c.DecompressAndDeserialize(PathTarget("value"), &got, opts...))
				assert.Equal(t, want, got)

				var buf bytes.Buffer
				require.NoError(t, c.CompressAndSerialize(want, StreamTarget(&buf), opts...))
				got = nil
				require.NoError(t, c.DecompressAndDeserialize(StreamTarget(&buf), &got, opts...))
				assert.Equal(t, want, got)
			})
		}
	}
}

func TestCodecProtoRoundTrip(t *testing.T) {
	c, _ := newTestCodec(t)
	require.NoError(t, c.CompressAndSerialize(wrapperspb.Int64(42), PathTarget("answer.zst"),
		WithSerializer("proto")))

	got := &wrapperspb.Int64Value{}
	require.NoError(t, c.DecompressAndDeserialize(PathTarget("answer.zst"), got, WithSerializer("proto")))
	assert.Equal(t, int64(42), got.GetValue())
}

func TestCodecInfersFromExtension(t *testing.T) {
	c, fsys := newTestCodec(t)
	payload := map[string][]int{"a": make([]int, 512)}
	for i := range payload["a"] {
		payload["a"][i] = i % 7
	}

	require.NoError(t, c.CompressAndSerialize(payload, PathTarget("x.gz")))

	stored, err := fsys.ReadFile("x.gz")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x1f, 0x8b}, stored[:2])

	var plain bytes.Buffer
	require.NoError(t, c.CompressAndSerialize(payload, StreamTarget(&plain), WithCompression("none")))
	assert.Less(t, len(stored), plain.Len())

	var got map[string][]int
	require.NoError(t, c.DecompressAndDeserialize(PathTarget("x.gz"), &got))
	assert.Equal(t, payload, got)
}

func TestCodecDefaultExtension(t *testing.T) {
	t.Run("appended by default", func(t *testing.T) {
		c, fsys := newTestCodec(t)
		require.NoError(t, c.CompressAndSerialize("v", PathTarget("data"), WithCompression("bz2")))
		_, err := fsys.Stat("data.bz")
		require.NoError(t, err)

		var got string
		require.NoError(t, c.DecompressAndDeserialize(PathTarget("data"), &got, WithCompression("bz2")))
		assert.Equal(t, "v", got)
	})

	t.Run("disabled", func(t *testing.T) {
		c, fsys := newTestCodec(t)
		require.NoError(t, c.CompressAndSerialize("v", PathTarget("data"),
			WithCompression("bz2"), WithDefaultExtension(false)))
		_, err := fsys.Stat("data")
		require.NoError(t, err)
		_, err = fsys.Stat("data.bz")
		assert.Error(t, err)
	})

	t.Run("alias extension kept", func(t *testing.T) {
		c, fsys := newTestCodec(t)
		require.NoError(t, c.CompressAndSerialize("v", PathTarget("data.xz")))
		_, err := fsys.Stat("data.xz")
		require.NoError(t, err)
	})
}

func TestCodecResolutionErrors(t *testing.T) {
	c, fsys := newTestCodec(t)

	tests := []struct {
		name   string
		target Target
		opts   []CallOption
		kind   error
	}{
		{"unrecognized extension", PathTarget("data.txt"), nil, ErrCompressionNotSpecified},
		{"no extension", PathTarget("data"), nil, ErrCompressionNotSpecified},
		{"stream without method", StreamTarget(&bytes.Buffer{}), nil, ErrCompressionNotSpecified},
		{"unknown compression", PathTarget("data"), []CallOption{WithCompression("rar")}, ErrUnknownMethod},
		{"unknown serializer", PathTarget("data.gz"), []CallOption{WithSerializer("pickle")}, ErrUnknownMethod},
		{"bad serializer option", PathTarget("data.gz"), []CallOption{
			WithSerializer("json"), WithSerializerOptions(SerializerOptions{"bogus": 1}),
		}, ErrConfiguration},
		{"read mode for write", PathTarget("data.gz"), []CallOption{WithMode(ModeRead)}, ErrUnsupportedMode},
		{"append on zip", PathTarget("data.zip"), []CallOption{WithMode(ModeAppend)}, ErrUnsupportedMode},
		{"bad level", PathTarget("data.gz"), []CallOption{WithLevel(42)}, ErrConfiguration},
		{"level above gzip range", PathTarget("data.gz"), []CallOption{WithLevel(11)}, ErrConfiguration},
		{"level below bz2 range", PathTarget("data.bz2"), []CallOption{WithLevel(-1)}, ErrConfiguration},
		{"level above zip range", PathTarget("data.zip"), []CallOption{WithLevel(10)}, ErrConfiguration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := c.CompressAndSerialize("v", tt.target, tt.opts...)
			assert.ErrorIs(t, err, tt.kind)
		})
	}

	// Resolution fails before anything is opened.
	entries, err := fsys.ReadDir(".")
	require.NoError(t, err)
	assert.Empty(t, entries)

	var v string
	err = c.DecompressAndDeserialize(PathTarget("data.gz"), &v, WithMode(ModeWrite))
	assert.ErrorIs(t, err, ErrUnsupportedMode)

	err = c.DecompressAndDeserialize(PathTarget("missing.gz"), &v)
	assert.ErrorIs(t, err, ErrResource)
}

func TestCodecBadLevelKeepsExistingFile(t *testing.T) {
	c, fsys := newTestCodec(t)
	require.NoError(t, c.CompressAndSerialize("original", PathTarget("x.gz")))
	before, err := fsys.ReadFile("x.gz")
	require.NoError(t, err)

	err = c.CompressAndSerialize("replacement", PathTarget("x.gz"), WithLevel(11))
	require.ErrorIs(t, err, ErrConfiguration)

	after, err := fsys.ReadFile("x.gz")
	require.NoError(t, err)
	assert.Equal(t, before, after)

	// Loads ignore the level.
	var v string
	require.NoError(t, c.DecompressAndDeserialize(PathTarget("x.gz"), &v, WithLevel(42)))
	assert.Equal(t, "original", v)
}

func TestCodecLevelClampedPerMethod(t *testing.T) {
	fsys := NewMemFS()
	c, err := New(&Config{
		FileSystem:   fsys,
		Compressions: DefaultCompressionRegistry(nil),
		Serializers:  DefaultSerializerRegistry(nil),
		Level:        11,
	})
	require.NoError(t, err)

	for _, path := range []string{"a.gz", "a.bz2", "a.zip", "a.lz4", "a.br", "a.zst", "a.sz"} {
		t.Run(path, func(t *testing.T) {
			require.NoError(t, c.CompressAndSerialize([]int{1, 2, 3}, PathTarget(path)))
			var got []int
			require.NoError(t, c.DecompressAndDeserialize(PathTarget(path), &got))
			assert.Equal(t, []int{1, 2, 3}, got)
		})
	}
}

func TestCodecDefaultCompression(t *testing.T) {
	fsys := NewMemFS()
	c, err := New(&Config{FileSystem: fsys, DefaultCompression: "snappy"})
	require.NoError(t, err)

	require.NoError(t, c.CompressAndSerialize(1, PathTarget("data.txt")))
	_, err = fsys.Stat("data.txt.sz")
	require.NoError(t, err)

	_, err = New(&Config{DefaultCompression: "rar"})
	assert.ErrorIs(t, err, ErrUnknownMethod)
}

func TestCodecDeserializationErrors(t *testing.T) {
	c, fsys := newTestCodec(t)

	t.Run("wrong type", func(t *testing.T) {
		require.NoError(t, c.CompressAndSerialize("text", PathTarget("s.gz")))
		var n map[string]int
		err := c.DecompressAndDeserialize(PathTarget("s.gz"), &n)
		require.ErrorIs(t, err, ErrDeserialization)
		var oe *OpError
		require.ErrorAs(t, err, &oe)
		assert.Equal(t, "read", oe.Op)
		assert.Equal(t, "gzip", oe.Method)
	})

	t.Run("truncated", func(t *testing.T) {
		require.NoError(t, c.CompressAndSerialize(bytes.Repeat([]byte("abc"), 1000), PathTarget("t.zst")))
		data, err := fsys.ReadFile("t.zst")
		require.NoError(t, err)
		require.NoError(t, fsys.WriteFile("t.zst", data[:len(data)/2], 0o644))

		var got []byte
		err = c.DecompressAndDeserialize(PathTarget("t.zst"), &got)
		assert.ErrorIs(t, err, ErrDeserialization)
	})

	t.Run("not compressed", func(t *testing.T) {
		require.NoError(t, fsys.WriteFile("plain.bz2", []byte("plain"), 0o644))
		var got string
		err := c.DecompressAndDeserialize(PathTarget("plain.bz2"), &got)
		assert.ErrorIs(t, err, ErrDeserialization)
	})
}

func TestCodecSerializationError(t *testing.T) {
	c, _ := newTestCodec(t)
	err := c.CompressAndSerialize(func() {}, StreamTarget(io.Discard), WithCompression("gzip"))
	require.ErrorIs(t, err, ErrSerialization)
	var oe *OpError
	require.ErrorAs(t, err, &oe)
	assert.Equal(t, "write", oe.Op)
}

// brokenCompresser fails on close.
type brokenCompresser struct {
	closes int
}

var errBrokenClose = errors.New("close failed")

func (b *brokenCompresser) Stream() io.ReadWriter { return directional{w: io.Discard} }
func (b *brokenCompresser) Mode() Mode            { return ModeWrite }
func (b *brokenCompresser) Close() error {
	b.closes++
	return opError(ErrResource, "close", "broken", errBrokenClose)
}

func TestCodecFinalizeErrors(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	broken := &brokenCompresser{}
	reg := DefaultCompressionRegistry(nil)
	require.NoError(t, reg.Register(CompressionDescriptor{
		Name:       "broken",
		Extensions: []string{".broken"},
		WriteMode:  ModeWrite,
		ReadMode:   ModeRead,
		New: func(Target, Mode, CompresserOptions) (Compresser, error) {
			return broken, nil
		},
	}))
	c, err := New(&Config{FileSystem: NewMemFS(), Compressions: reg, Logger: zap.New(core)})
	require.NoError(t, err)

	t.Run("close error surfaces", func(t *testing.T) {
		err := c.CompressAndSerialize("ok", PathTarget("x.broken"))
		require.ErrorIs(t, err, ErrResource)
		assert.ErrorIs(t, err, errBrokenClose)
		assert.Equal(t, 1, broken.closes)
	})

	t.Run("close error wins, transfer error kept", func(t *testing.T) {
		err := c.CompressAndSerialize(func() {}, PathTarget("x.broken"))
		require.ErrorIs(t, err, ErrResource)
		assert.NotErrorIs(t, err, ErrSerialization)
		assert.Contains(t, fmt.Sprintf("%+v", err), "serialization failed")
		assert.Equal(t, 2, broken.closes)
		assert.Equal(t, 1, logs.FilterMessage("close failed after transfer error").Len())
	})
}

func TestCodecStats(t *testing.T) {
	c, _ := newTestCodec(t)
	payload := bytes.Repeat([]byte("stats "), 500)

	require.NoError(t, c.CompressAndSerialize(payload, PathTarget("s.gz")))
	var got []byte
	require.NoError(t, c.DecompressAndDeserialize(PathTarget("s.gz"), &got))
	require.Error(t, c.CompressAndSerialize(payload, PathTarget("s.txt")))

	s := c.Stats()
	assert.Equal(t, int64(1), s.Dumps)
	assert.Equal(t, int64(1), s.Loads)
	assert.Equal(t, int64(1), s.Failures)
	assert.Equal(t, int64(2), s.MethodCounts["gzip"])
	assert.Greater(t, s.BytesSerialized, int64(2*len(payload)))
	assert.Greater(t, s.BytesStored, int64(0))
	assert.Less(t, s.CompressionRatio(), 0.5)

	c.ResetStats()
	assert.Equal(t, Stats{MethodCounts: map[string]int64{}}, c.Stats())
}

type recordingCollector struct {
	counters   map[string]int64
	gauges     map[string]int64
	histograms map[string][]float64
}

func newRecordingCollector() *recordingCollector {
	return &recordingCollector{
		counters:   map[string]int64{},
		gauges:     map[string]int64{},
		histograms: map[string][]float64{},
	}
}

func (r *recordingCollector) IncCounter(name string, delta int64) { r.counters[name] += delta }
func (r *recordingCollector) SetGauge(name string, v int64)       { r.gauges[name] = v }
func (r *recordingCollector) ObserveHistogram(name string, v float64) {
	r.histograms[name] = append(r.histograms[name], v)
}

func TestCodecMetrics(t *testing.T) {
	rc := newRecordingCollector()
	reg := DefaultCompressionRegistry(nil)
	c, err := New(&Config{FileSystem: NewMemFS(), Compressions: reg, Metrics: rc})
	require.NoError(t, err)
	assert.Equal(t, int64(9), rc.gauges["compressio_registered_methods"])

	require.NoError(t, c.CompressAndSerialize(bytes.Repeat([]byte("m"), 4096), PathTarget("m.lz4")))
	assert.Equal(t, int64(1), rc.counters["compressio_dumps_total"])
	assert.Positive(t, rc.counters["compressio_bytes_serialized_total"])
	assert.Positive(t, rc.counters["compressio_bytes_stored_total"])
	require.Len(t, rc.histograms["compressio_compression_ratio"], 1)
	assert.Less(t, rc.histograms["compressio_compression_ratio"][0], 1.0)
	assert.Len(t, rc.histograms["compressio_call_seconds"], 1)
}

func TestCodecDebugLog(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	c, err := New(&Config{FileSystem: NewMemFS(), Logger: zap.New(core)})
	require.NoError(t, err)

	require.NoError(t, c.CompressAndSerialize(1, PathTarget("n.gz"), WithSerializer("cbor")))
	entries := logs.FilterMessage("codec call").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "gzip", fields["compression"])
	assert.Equal(t, "cbor", fields["serializer"])
	assert.Equal(t, "n.gz", fields["target"])
	assert.Equal(t, "binary-write", fields["mode"])
}

func TestCodecAppendAndExclusive(t *testing.T) {
	c, fsys := newTestCodec(t)

	require.NoError(t, c.CompressAndSerialize("one", PathTarget("x.gz"), WithMode(ModeWriteExclusive)))
	err := c.CompressAndSerialize("two", PathTarget("x.gz"), WithMode(ModeWriteExclusive))
	assert.ErrorIs(t, err, ErrResource)

	require.NoError(t, c.CompressAndSerialize(bytes.Repeat([]byte("b"), 10), PathTarget("y.gz"),
		WithSerializer("json")))
	before, err := fsys.ReadFile("y.gz")
	require.NoError(t, err)
	require.NoError(t, c.CompressAndSerialize(bytes.Repeat([]byte("b"), 10), PathTarget("y.gz"),
		WithSerializer("json"), WithMode(ModeAppend)))
	after, err := fsys.ReadFile("y.gz")
	require.NoError(t, err)
	assert.Greater(t, len(after), len(before))
	assert.Equal(t, before, after[:len(before)])
}

func TestRecompress(t *testing.T) {
	c, _ := newTestCodec(t)
	want := map[string]string{"k": "v"}
	require.NoError(t, c.CompressAndSerialize(want, PathTarget("r.bz2")))

	n, err := c.Recompress(PathTarget("r.bz2"), PathTarget("r"), RecompressOptions{To: "lzma", DefaultExtension: true})
	require.NoError(t, err)
	assert.Positive(t, n)

	var got map[string]string
	require.NoError(t, c.DecompressAndDeserialize(PathTarget("r.lzma"), &got))
	assert.Equal(t, want, got)

	_, err = c.Recompress(PathTarget("r.bz2"), PathTarget("r.zip"), RecompressOptions{Mode: ModeAppend})
	assert.ErrorIs(t, err, ErrUnsupportedMode)
}

func TestRecompressRejectsBeforeOpening(t *testing.T) {
	c, fsys := newTestCodec(t)
	require.NoError(t, c.CompressAndSerialize("keep", PathTarget("src.gz")))
	require.NoError(t, c.CompressAndSerialize("keep", PathTarget("dst.gz")))
	src, err := fsys.ReadFile("src.gz")
	require.NoError(t, err)
	dst, err := fsys.ReadFile("dst.gz")
	require.NoError(t, err)

	tests := []struct {
		name string
		src  string
		dst  string
		opts RecompressOptions
	}{
		{"same path", "src.gz", "src.gz", RecompressOptions{}},
		{"same path after cleaning", "src.gz", "./src.gz", RecompressOptions{}},
		{"same path other method", "src.gz", "src.gz", RecompressOptions{To: "zstd"}},
		{"level out of range", "src.gz", "dst.gz", RecompressOptions{Level: 11}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Recompress(PathTarget(tt.src), PathTarget(tt.dst), tt.opts)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}

	got, err := fsys.ReadFile("src.gz")
	require.NoError(t, err)
	assert.Equal(t, src, got)
	got, err = fsys.ReadFile("dst.gz")
	require.NoError(t, err)
	assert.Equal(t, dst, got)
}

func TestCodecWithLoggerSharesStats(t *testing.T) {
	c, _ := newTestCodec(t)
	l := c.WithLogger(zap.NewNop())
	require.NoError(t, l.CompressAndSerialize(1, PathTarget("a.gz")))
	assert.Equal(t, int64(1), c.Stats().Dumps)
}

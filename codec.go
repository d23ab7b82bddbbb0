package compressio

import (
	"io"
	"io/fs"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/absfs/absfs"
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/absfs/compressio/metrics"
)

// Config holds codec configuration.
type Config struct {
	// FileSystem opens path targets that do not carry their own
	// (default: the operating system).
	FileSystem absfs.Filer

	// Registries consulted during resolution (default: the package registries).
	Compressions *CompressionRegistry
	Serializers  *SerializerRegistry

	Logger  *zap.Logger
	Metrics metrics.Collector

	// Compression level passed to compressers (0: library default). It is
	// clamped into each method's range, so one value serves every method.
	// A per-call WithLevel is checked strictly instead.
	Level int

	// DefaultCompression is used when no method is given and the path
	// extension names none. Empty means such calls fail with
	// ErrCompressionNotSpecified.
	DefaultCompression string

	// Permission bits for created files (default: 0644).
	FilePerm fs.FileMode
}

// DefaultConfig returns a config using the package registries and the
// operating system filesystem.
func DefaultConfig() *Config {
	return &Config{
		FileSystem:   OSFileSystem(),
		Compressions: defaultCompressions,
		Serializers:  defaultSerializers,
		Logger:       zap.NewNop(),
		Metrics:      metrics.NewNoop(),
		FilePerm:     0o644,
	}
}

// Codec composes a compression method with a serializer. It is safe for
// concurrent use.
type Codec struct {
	config *Config
	logger *zap.Logger
	stats  *stats
}

// New creates a codec. Nil fields of config take their DefaultConfig value.
func New(config *Config) (*Codec, error) {
	cfg := DefaultConfig()
	if config != nil {
		c := *config
		if c.FileSystem == nil {
			c.FileSystem = cfg.FileSystem
		}
		if c.Compressions == nil {
			c.Compressions = cfg.Compressions
		}
		if c.Serializers == nil {
			c.Serializers = cfg.Serializers
		}
		if c.Logger == nil {
			c.Logger = cfg.Logger
		}
		if c.Metrics == nil {
			c.Metrics = cfg.Metrics
		}
		if c.FilePerm == 0 {
			c.FilePerm = cfg.FilePerm
		}
		cfg = &c
	}
	if cfg.DefaultCompression != "" {
		if _, err := cfg.Compressions.Resolve(cfg.DefaultCompression); err != nil {
			return nil, err
		}
	}
	cfg.Metrics.SetGauge(metrics.MetricMethods, int64(cfg.Compressions.Len()))
	return &Codec{config: cfg, logger: cfg.Logger, stats: &stats{}}, nil
}

// Config returns a copy of the codec configuration.
func (c *Codec) Config() Config { return *c.config }

// WithLogger returns a copy of c logging to l. Both share statistics.
func (c *Codec) WithLogger(l *zap.Logger) *Codec {
	if l == nil {
		l = zap.NewNop()
	}
	cfg := *c.config
	cfg.Logger = l
	return &Codec{config: &cfg, logger: l, stats: c.stats}
}

// Stats returns a snapshot of the codec statistics.
func (c *Codec) Stats() Stats { return c.stats.snapshot() }

// ResetStats zeroes the codec statistics.
func (c *Codec) ResetStats() { c.stats.reset() }

// plan is the outcome of resolution for one call.
type plan struct {
	compression *CompressionDescriptor
	target      Target
	mode        Mode
	opts        CompresserOptions
}

func (c *Codec) callOptions(opts []CallOption) callOptions {
	o := defaultCallOptions()
	for _, opt := range opts {
		opt.apply(&o)
	}
	return o
}

// resolveCompression picks the method, mode and final target for a call of
// kind. No stream is opened.
func (c *Codec) resolveCompression(t Target, o callOptions, kind ModeKind) (*plan, error) {
	reg := c.config.Compressions
	name := o.compression
	if name == "" && t.IsPath() {
		name, _ = reg.InferCompression(t.Path())
	}
	if name == "" {
		name = c.config.DefaultCompression
	}
	if name == "" {
		e := opError(ErrCompressionNotSpecified, "resolve", "", nil)
		if t.IsPath() {
			e.Extension = filepath.Ext(t.Path())
		}
		return nil, e
	}
	desc, err := reg.Resolve(name)
	if err != nil {
		return nil, err
	}

	mode := o.mode
	if mode == ModeUnsupported {
		if mode, err = desc.DefaultMode(kind); err != nil {
			return nil, err
		}
	} else if (mode.Kind() == KindRead) != (kind == KindRead) || !desc.Supports(mode) {
		e := opError(ErrUnsupportedMode, "resolve", desc.Name, errors.Newf("%s cannot be used for %s", mode, kind))
		e.Mode = mode
		return nil, e
	}

	if t.IsPath() {
		if o.defaultExtension {
			path, err := reg.NormalizePath(t.Path(), desc.Name)
			if err != nil {
				return nil, err
			}
			t = t.withPath(path)
		}
		if t.fsys == nil {
			t.fsys = c.config.FileSystem
		}
		t.perm = c.config.FilePerm
	}
	t.stored = new(atomic.Int64)

	var level int
	switch {
	case kind == KindRead:
	case o.levelSet:
		if err := desc.CheckLevel(o.level); err != nil {
			return nil, err
		}
		level = o.level
	default:
		level = desc.ClampLevel(c.config.Level)
	}
	return &plan{
		compression: desc,
		target:      t,
		mode:        mode,
		opts:        CompresserOptions{Level: level, Member: o.member},
	}, nil
}

func (c *Codec) resolveSerializer(o callOptions) (string, Serializer, error) {
	desc, err := c.config.Serializers.Resolve(o.serializer)
	if err != nil {
		return "", nil, err
	}
	s, err := desc.New(o.serializerOpts)
	if err != nil {
		return "", nil, classify(ErrConfiguration, "serializer", desc.Name, ModeUnsupported, err)
	}
	return desc.Name, s, nil
}

// finalize closes comp and folds its error into err. A close failure wins;
// the transfer error rides along as a secondary error.
func (c *Codec) finalize(comp Compresser, p *plan, err *error) {
	cerr := comp.Close()
	if cerr == nil {
		return
	}
	if *err == nil {
		*err = cerr
		return
	}
	c.logger.Warn("close failed after transfer error",
		zap.String("compression", p.compression.Name),
		zap.Stringer("target", p.target),
		zap.NamedError("transfer", *err),
		zap.Error(cerr),
	)
	*err = errors.WithSecondaryError(cerr, *err)
}

// CompressAndSerialize encodes v with the resolved serializer through the
// resolved compression onto t.
func (c *Codec) CompressAndSerialize(v any, t Target, opts ...CallOption) error {
	return c.transfer(t, opts, KindWrite, func(s Serializer, stream io.ReadWriter) error {
		return s.Encode(stream, v)
	})
}

// DecompressAndDeserialize decodes one value from t into v, which must be a
// pointer.
func (c *Codec) DecompressAndDeserialize(t Target, v any, opts ...CallOption) error {
	return c.transfer(t, opts, KindRead, func(s Serializer, stream io.ReadWriter) error {
		return s.Decode(stream, v)
	})
}

func (c *Codec) transfer(t Target, opts []CallOption, kind ModeKind, fn func(Serializer, io.ReadWriter) error) (err error) {
	start := time.Now()
	o := c.callOptions(opts)
	op, failKind := "write", ErrSerialization
	if kind == KindRead {
		op, failKind = "read", ErrDeserialization
	}

	var (
		p       *plan
		serName string
		counted countingStream
	)
	defer func() {
		c.observe(p, serName, kind, counted.n, start, err)
	}()

	// resolve
	p, err = c.resolveCompression(t, o, kind)
	if err != nil {
		return err
	}
	serName, ser, err := c.resolveSerializer(o)
	if err != nil {
		return err
	}

	// open
	comp, err := p.compression.Open(p.target, p.mode, p.opts)
	if err != nil {
		return err
	}
	defer c.finalize(comp, p, &err)

	// transfer
	counted.rw = comp.Stream()
	if terr := fn(ser, &counted); terr != nil {
		e := classify(failKind, op, p.compression.Name, p.mode, terr)
		var oe *OpError
		if errors.As(e, &oe) && oe.Method == "" {
			oe.Method = p.compression.Name
		}
		return e
	}
	return nil
}

// observe records statistics, metrics and the per-call debug log.
func (c *Codec) observe(p *plan, serializer string, kind ModeKind, serialized int64, start time.Time, err error) {
	m := c.config.Metrics
	elapsed := time.Since(start)
	m.ObserveHistogram(metrics.MetricCallSeconds, elapsed.Seconds())
	if err != nil {
		c.stats.failures.Add(1)
		m.IncCounter(metrics.MetricFailures, 1)
		fields := []zap.Field{zap.Stringer("kind", kind), zap.Error(err)}
		if p != nil {
			fields = append(fields, zap.String("compression", p.compression.Name), zap.Stringer("target", p.target))
		}
		c.logger.Debug("codec call failed", fields...)
		return
	}

	stored := p.target.stored.Load()
	c.stats.record(p.compression.Name, kind != KindRead, serialized, stored)
	if kind == KindRead {
		m.IncCounter(metrics.MetricLoads, 1)
	} else {
		m.IncCounter(metrics.MetricDumps, 1)
	}
	m.IncCounter(metrics.MetricBytesSerialized, serialized)
	m.IncCounter(metrics.MetricBytesStored, stored)
	if serialized > 0 {
		m.ObserveHistogram(metrics.MetricCompressionRatio, GetCompressionRatio(serialized, stored))
	}
	c.logger.Debug("codec call",
		zap.Stringer("kind", kind),
		zap.String("compression", p.compression.Name),
		zap.String("serializer", serializer),
		zap.Stringer("target", p.target),
		zap.Stringer("mode", p.mode),
		zap.Int64("serialized", serialized),
		zap.Int64("stored", stored),
		zap.Duration("duration", elapsed),
	)
}

// countingStream counts bytes passing between serializer and compresser.
type countingStream struct {
	rw io.ReadWriter
	n  int64
}

func (s *countingStream) Read(p []byte) (int, error) {
	n, err := s.rw.Read(p)
	s.n += int64(n)
	return n, err
}

func (s *countingStream) Write(p []byte) (int, error) {
	n, err := s.rw.Write(p)
	s.n += int64(n)
	return n, err
}

// RecompressOptions configures Recompress.
type RecompressOptions struct {
	// From and To name the source and destination methods. Empty values
	// are inferred from the path extensions.
	From string
	To   string

	Level int
	Mode  Mode

	// DefaultExtension appends the destination method's extension.
	DefaultExtension bool
}

// Recompress decodes src and re-encodes the raw bytes onto dst without a
// serializer. It returns the number of raw bytes copied.
func (c *Codec) Recompress(src, dst Target, opts RecompressOptions) (n int64, err error) {
	in := defaultCallOptions()
	in.compression = opts.From
	in.defaultExtension = false
	out := defaultCallOptions()
	out.compression = opts.To
	out.mode = opts.Mode
	out.defaultExtension = opts.DefaultExtension
	if opts.Level != 0 {
		out.level, out.levelSet = opts.Level, true
	}

	rp, err := c.resolveCompression(src, in, KindRead)
	if err != nil {
		return 0, err
	}
	wp, err := c.resolveCompression(dst, out, KindWrite)
	if err != nil {
		return 0, err
	}
	if rp.target.IsPath() && wp.target.IsPath() &&
		filepath.Clean(rp.target.Path()) == filepath.Clean(wp.target.Path()) {
		e := opError(ErrConfiguration, "recompress", wp.compression.Name,
			errors.Newf("source and destination are both %s", wp.target.Path()))
		return 0, e
	}

	r, err := rp.compression.Open(rp.target, rp.mode, rp.opts)
	if err != nil {
		return 0, err
	}
	defer c.finalize(r, rp, &err)
	w, err := wp.compression.Open(wp.target, wp.mode, wp.opts)
	if err != nil {
		return 0, err
	}
	defer c.finalize(w, wp, &err)

	n, err = io.Copy(w.Stream(), r.Stream())
	if err != nil {
		return n, classify(ErrResource, "recompress", wp.compression.Name, wp.mode, err)
	}
	c.logger.Debug("recompressed",
		zap.String("from", rp.compression.Name),
		zap.String("to", wp.compression.Name),
		zap.Int64("bytes", n),
		zap.Int64("read", rp.target.stored.Load()),
		zap.Int64("written", wp.target.stored.Load()),
	)
	return n, nil
}
